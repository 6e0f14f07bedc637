package export

import "form4qa/internal/domain"

// Summary project aggregates written to the Project Summary sheet.
type Summary struct {
	TotalTreatments       int `json:"totalTreatments"`
	TreatmentsPlanned     int `json:"treatmentsPlanned"`
	TreatmentsInProgress  int `json:"treatmentsInProgress"`
	TreatmentsCompleted   int `json:"treatmentsCompleted"`
	LinesComplete         int `json:"linesComplete"`
	RequirementLines      int `json:"requirementLines"`
	RequirementsCompleted int `json:"requirementsCompleted"`
	TotalTestsRequired    int `json:"totalTestsRequired"` // sum of frequencies
	TestsCompleted        int `json:"testsCompleted"`
	TestsInProgress       int `json:"testsInProgress"`
	TestsPending          int `json:"testsPending"`
}

// Summarize computes the aggregates from in-memory project state.
func Summarize(p *domain.Project) Summary {
	var s Summary
	for i := range p.TreatmentRecords {
		s.addTreatment(p.TreatmentRecords[i].Status, p.TreatmentRecords[i].LineComplete)
	}
	for i := range p.TestingRequirements {
		t := &p.TestingRequirements[i]
		s.addRequirement(t.Status, t.Frequency, t.TestsCompleted, t.TestsInProgress, t.TestsPending())
	}
	return s
}

func (s *Summary) addTreatment(status domain.TreatmentStatus, lineComplete bool) {
	s.TotalTreatments++
	switch status {
	case domain.TreatmentCompleted:
		s.TreatmentsCompleted++
	case domain.TreatmentInProgress:
		s.TreatmentsInProgress++
	default:
		s.TreatmentsPlanned++
	}
	if lineComplete {
		s.LinesComplete++
	}
}

func (s *Summary) addRequirement(status domain.TestStatus, frequency, completed, inProgress, pending int) {
	s.RequirementLines++
	if status == domain.TestCompleted {
		s.RequirementsCompleted++
	}
	s.TotalTestsRequired += frequency
	s.TestsCompleted += completed
	s.TestsInProgress += inProgress
	s.TestsPending += pending
}

// TreatmentTotals one row of the Treatment Summary sheet.
type TreatmentTotals struct {
	Code          string
	Description   string
	Count         int
	TotalQuantity float64
	Unit          string
	Completed     int
	InProgress    int
	Planned       int
}

// ByTreatment groups records by treatment code in first-seen order.
func ByTreatment(records []domain.TreatmentRecord) []TreatmentTotals {
	var out []TreatmentTotals
	idx := map[string]int{}
	for _, r := range records {
		i, ok := idx[r.TreatmentCode]
		if !ok {
			i = len(out)
			idx[r.TreatmentCode] = i
			out = append(out, TreatmentTotals{Code: r.TreatmentCode, Description: r.TreatmentDescription, Unit: r.Unit})
		}
		tt := &out[i]
		tt.Count++
		tt.TotalQuantity += r.Quantity
		switch r.Status {
		case domain.TreatmentCompleted:
			tt.Completed++
		case domain.TreatmentInProgress:
			tt.InProgress++
		default:
			tt.Planned++
		}
	}
	return out
}
