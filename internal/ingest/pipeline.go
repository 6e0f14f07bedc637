// Package ingest turns Form 4 workbooks into typed treatment records and
// their derived testing requirements.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"time"

	"form4qa/internal/classifier"
	"form4qa/internal/domain"
	"form4qa/internal/requirements"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// DefaultHeaderRow zero-based row of the Form 4 template header (sheet row 11).
const DefaultHeaderRow = 10

var (
	ErrNoSheet         = errors.New("workbook has no usable sheet")
	ErrHeaderNotFound  = errors.New("form 4 header row not found")
	ErrUnreadableInput = errors.New("failed to read workbook")
)

// Options controls one ingestion.
type Options struct {
	HeaderRow int                      // zero-based
	Sheet     string                   // empty: first sheet
	Config    domain.TestConfiguration // drives requirement derivation
}

// DefaultOptions header row 10 of the first sheet, default test configuration.
func DefaultOptions() Options {
	return Options{HeaderRow: DefaultHeaderRow, Config: domain.DefaultTestConfiguration()}
}

// Result of an ingestion. Errors and Warnings annotate records, they never remove them.
type Result struct {
	SheetName           string                      `json:"sheetName"`
	TreatmentRecords    []domain.TreatmentRecord    `json:"treatmentRecords"`
	TestingRequirements []domain.TestingRequirement `json:"testingRequirements"`
	Errors              []Issue                     `json:"errors"`
	Warnings            []Issue                     `json:"warnings"`
	RowsRead            int                         `json:"rowsRead"` // data rows before the terminating row
	Skipped             int                         `json:"skipped"`  // junk rows inside the data block
}

// Pipeline reads Form 4 workbooks.
type Pipeline struct {
	engine *requirements.Engine
	newID  func() string
	now    func() time.Time
	logger *zap.Logger
}

// NewPipeline builds a pipeline deriving requirements with engine.
func NewPipeline(engine *requirements.Engine, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		engine: engine,
		newID:  func() string { return uuid.New().String() },
		now:    time.Now,
		logger: logger,
	}
}

// parsedRow a retained data row plus which source cells were filled
type parsedRow struct {
	sheetRow int // 1-based row number in the sheet
	record   domain.TreatmentRecord
	present  map[Field]bool
}

// Ingest reads the workbook in r. Structural problems return an error and no result.
func (p *Pipeline) Ingest(r io.Reader, opts Options) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, ErrNoSheet
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoSheet, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}

	res, err := p.FromRows(rows, opts)
	if err != nil {
		return nil, err
	}
	res.SheetName = sheet
	p.logger.Info("form 4 ingested",
		zap.String("sheet", sheet),
		zap.Int("records", len(res.TreatmentRecords)),
		zap.Int("requirements", len(res.TestingRequirements)),
		zap.Int("skipped", res.Skipped),
		zap.Int("errors", len(res.Errors)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res, nil
}

// FromRows ingests an already-read sheet.
func (p *Pipeline) FromRows(rows [][]string, opts Options) (*Result, error) {
	if opts.HeaderRow < 0 || opts.HeaderRow >= len(rows) {
		return nil, fmt.Errorf("%w: sheet has %d rows, header expected at row %d", ErrHeaderNotFound, len(rows), opts.HeaderRow+1)
	}
	cols := resolveColumns(rows[opts.HeaderRow], Form4Columns)
	if _, ok := cols[FieldLineNo]; !ok {
		return nil, fmt.Errorf("%w: no line number column at row %d", ErrHeaderNotFound, opts.HeaderRow+1)
	}

	res := &Result{
		TreatmentRecords:    []domain.TreatmentRecord{},
		TestingRequirements: []domain.TestingRequirement{},
		Errors:              []Issue{},
		Warnings:            []Issue{},
	}
	now := p.now()
	var parsed []parsedRow

	for i := opts.HeaderRow + 1; i < len(rows); i++ {
		row := rows[i]
		raw, _ := cols.cell(row, FieldLineNo)
		lineNo, ok := parseLineNo(raw)
		if !ok {
			// trailing notes or blank rows follow the data block
			break
		}
		res.RowsRead++

		present := make(map[Field]bool, len(Form4Columns))
		values := make(map[Field]string, len(Form4Columns))
		for _, c := range Form4Columns {
			v, has := cols.cell(row, c.Field)
			values[c.Field] = v
			present[c.Field] = has
		}
		if !present[FieldTreatment] && !present[FieldStartChainage] && !present[FieldFinishChainage] {
			res.Skipped++
			p.logger.Debug("skipping form 4 row without treatment or chainage", zap.Int("row", i+1), zap.Int("line_no", lineNo))
			continue
		}

		rec := domain.TreatmentRecord{
			ID:                    p.newID(),
			LineNo:                lineNo,
			StartChainage:         parseNumber(values[FieldStartChainage]),
			FinishChainage:        parseNumber(values[FieldFinishChainage]),
			TreatmentDescription:  values[FieldTreatment],
			AdditionalDescription: values[FieldAdditionalDescription],
			Quantity:              parseNumber(values[FieldQuantity]),
			Unit:                  values[FieldUnit],
			DamageLength:          parseNumber(values[FieldDamageLength]),
			DamageWidth:           parseNumber(values[FieldDamageWidth]),
			DamageDepth:           parseNumber(values[FieldDamageDepth]),
			Status:                domain.TreatmentPlanned,
			DateCreated:           now,
		}
		rec.TreatmentCode = classifier.Classify(rec.TreatmentDescription)
		rec.Area = domain.ComputeArea(rec.DamageLength, rec.DamageWidth, rec.Quantity)
		rec.CompactionRequired = classifier.IsPavementWork(rec.TreatmentDescription)

		parsed = append(parsed, parsedRow{sheetRow: i + 1, record: rec, present: present})
	}

	for _, pr := range parsed {
		res.TreatmentRecords = append(res.TreatmentRecords, pr.record)
	}
	for i := range res.TreatmentRecords {
		res.TestingRequirements = append(res.TestingRequirements, p.engine.DeriveFor(&res.TreatmentRecords[i], opts.Config)...)
	}
	res.Errors, res.Warnings = validate(parsed)
	return res, nil
}
