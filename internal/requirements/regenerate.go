package requirements

import (
	"strconv"

	"form4qa/internal/domain"
)

// Regenerate rebuilds every record's requirements under cfg. Progress recorded
// on prior requirements is carried over when the same test is still required
// for the same record, and re-clamped to the new frequency. Records are matched
// by id; priors without one fall back to the line number. Carried requirements
// keep their id and creation date.
func (e *Engine) Regenerate(records []domain.TreatmentRecord, prior []domain.TestingRequirement, cfg domain.TestConfiguration) []domain.TestingRequirement {
	byEntry := make(map[string]domain.TestingRequirement, len(prior))
	byLine := make(map[string]domain.TestingRequirement)
	for _, p := range prior {
		m, k := byLine, lineKey(p.LineNo, p.TestName)
		if p.EntryID != "" {
			m, k = byEntry, entryKey(p.EntryID, p.TestName)
		}
		if _, dup := m[k]; !dup {
			m[k] = p
		}
	}

	take := func(t domain.TestingRequirement) (domain.TestingRequirement, bool) {
		if t.EntryID != "" {
			k := entryKey(t.EntryID, t.TestName)
			if p, ok := byEntry[k]; ok {
				delete(byEntry, k)
				return p, true
			}
		}
		k := lineKey(t.LineNo, t.TestName)
		p, ok := byLine[k]
		if ok {
			delete(byLine, k)
		}
		return p, ok
	}

	out := make([]domain.TestingRequirement, 0, len(prior))
	for i := range records {
		for _, t := range e.DeriveFor(&records[i], cfg) {
			if p, ok := take(t); ok {
				t.ID = p.ID
				t.DateCreated = p.DateCreated
				t.TestReports = append([]domain.TestReport(nil), p.TestReports...)
				t.TestsCompleted = p.TestsCompleted
				t.TestsInProgress = p.TestsInProgress
				Recount(&t)
			}
			out = append(out, t)
		}
	}
	return out
}

func entryKey(entryID, testName string) string { return entryID + "\x00" + testName }

func lineKey(lineNo int, testName string) string { return strconv.Itoa(lineNo) + "\x00" + testName }
