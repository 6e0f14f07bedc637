package ingest

import (
	"fmt"
	"io"

	"form4qa/internal/classifier"
	"form4qa/internal/domain"
	"form4qa/internal/requirements"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// TrackingHeaderRow zero-based header row of QA tracking workbook sheets.
const TrackingHeaderRow = 3

var (
	trackingSheets   = []string{"Form4", "Form 4"}
	compactionSheets = []string{"CompactionTesting", "Compaction Testing"}
)

// TrackingResult records and compaction tests recovered from a QA tracking workbook.
type TrackingResult struct {
	TreatmentRecords []domain.TreatmentRecord    `json:"treatmentRecords"`
	ExistingTests    []domain.TestingRequirement `json:"existingTests"`
}

// ImportTracking reads a previously maintained QA tracking workbook. Rows
// without a line number are ignored. Either sheet may be absent, but not both.
func (p *Pipeline) ImportTracking(r io.Reader) (*TrackingResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}
	defer f.Close()

	form4Rows, err := readFirstSheet(f, trackingSheets)
	if err != nil {
		return nil, err
	}
	compactionRows, err := readFirstSheet(f, compactionSheets)
	if err != nil {
		return nil, err
	}
	if form4Rows == nil && compactionRows == nil {
		return nil, fmt.Errorf("%w: expected one of %v or %v", ErrNoSheet, trackingSheets, compactionSheets)
	}

	res := &TrackingResult{
		TreatmentRecords: []domain.TreatmentRecord{},
		ExistingTests:    []domain.TestingRequirement{},
	}
	now := p.now()
	byLine := map[int]*domain.TreatmentRecord{}

	if len(form4Rows) > TrackingHeaderRow {
		cols := resolveColumns(form4Rows[TrackingHeaderRow], TrackingColumns)
		for _, row := range form4Rows[TrackingHeaderRow+1:] {
			raw, _ := cols.cell(row, FieldLineNo)
			lineNo, ok := parseLineNo(raw)
			if !ok {
				continue
			}
			get := func(field Field) string {
				v, _ := cols.cell(row, field)
				return v
			}
			rec := domain.TreatmentRecord{
				ID:                   p.newID(),
				LineNo:               lineNo,
				StartChainage:        parseNumber(get(FieldStartChainage)),
				FinishChainage:       parseNumber(get(FieldFinishChainage)),
				TreatmentDescription: get(FieldTreatment),
				Quantity:             parseNumber(get(FieldQuantity)),
				Unit:                 get(FieldUnit),
				PhotosReceived:       parseYes(get(FieldPhotosReceived)),
				PhotosReviewed:       parseYes(get(FieldPhotosReviewed)),
				ITPReceived:          parseYes(get(FieldITPReceived)),
				LineComplete:         parseYes(get(FieldLineComplete)),
				CompactionRequired:   parseYes(get(FieldCompactionRequired)),
				Status:               domain.TreatmentPlanned,
				DateCreated:          now,
			}
			if rec.LineComplete {
				rec.Status = domain.TreatmentCompleted
			}
			rec.TreatmentCode = classifier.Classify(rec.TreatmentDescription)
			rec.Area = domain.ComputeArea(0, 0, rec.Quantity)
			res.TreatmentRecords = append(res.TreatmentRecords, rec)
		}
		for i := range res.TreatmentRecords {
			if _, dup := byLine[res.TreatmentRecords[i].LineNo]; !dup {
				byLine[res.TreatmentRecords[i].LineNo] = &res.TreatmentRecords[i]
			}
		}
	}

	if len(compactionRows) > TrackingHeaderRow {
		cols := resolveColumns(compactionRows[TrackingHeaderRow], CompactionColumns)
		for _, row := range compactionRows[TrackingHeaderRow+1:] {
			raw, _ := cols.cell(row, FieldLineNo)
			lineNo, ok := parseLineNo(raw)
			if !ok {
				continue
			}
			sand, _ := cols.cell(row, FieldSandTests)
			nuc, _ := cols.cell(row, FieldNuclearTests)
			target, _ := cols.cell(row, FieldTargetSMDD)
			_, hasCV := cols.cell(row, FieldCVResult)

			t := domain.TestingRequirement{
				ID:          p.newID(),
				LineNo:      lineNo,
				TestName:    "Compaction Testing",
				Standard:    "MRTS04",
				Frequency:   int(parseNumber(sand) + parseNumber(nuc)),
				Priority:    domain.PriorityHigh,
				Status:      domain.TestPending,
				DateCreated: now,
			}
			if target != "" {
				t.TargetValue = target + "%"
			}
			if hasCV {
				t.TestsCompleted = t.Frequency
			}
			requirements.Recount(&t)
			if hasCV {
				t.Status = domain.TestCompleted
			}
			if rec, ok := byLine[lineNo]; ok {
				t.EntryID = rec.ID
				t.Chainage = rec.Chainage()
				t.TreatmentType = rec.TreatmentDescription
			}
			res.ExistingTests = append(res.ExistingTests, t)
		}
	}

	p.logger.Info("qa tracking workbook imported",
		zap.Int("records", len(res.TreatmentRecords)),
		zap.Int("existing_tests", len(res.ExistingTests)),
	)
	return res, nil
}

// readFirstSheet returns the rows of the first sheet in names that exists, or nil.
func readFirstSheet(f *excelize.File, names []string) ([][]string, error) {
	for _, name := range names {
		idx, err := f.GetSheetIndex(name)
		if err != nil || idx < 0 {
			continue
		}
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableInput, name, err)
		}
		if rows == nil {
			rows = [][]string{}
		}
		return rows, nil
	}
	return nil, nil
}
