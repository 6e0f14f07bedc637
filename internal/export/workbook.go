// Package export writes project state to a multi-sheet xlsx workbook.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"form4qa/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ErrNoTreatments nothing to export.
var ErrNoTreatments = errors.New("no data to export")

const (
	SheetProgress     = "Form 4 Progress"
	SheetRequirements = "Testing Requirements"
	SheetSummary      = "Project Summary"
	SheetTreatments   = "Treatment Summary"
)

const timeLayout = "2006-01-02 15:04:05"

var progressHeader = []string{
	"Line No.", "Start CH (m)", "Finish CH (m)", "Length (m)", "Width (m)", "Treatment Code",
	"Treatment Type", "Quantity", "Unit", "Area (m²)", "Additional Description", "Photos Received",
	"Photos Reviewed", "ITP Received", "Status", "Line Complete", "Compaction Required",
}

var progressWidths = []float64{10, 14, 14, 12, 12, 16, 50, 12, 8, 12, 30, 16, 16, 14, 14, 14, 20}

var requirementsHeader = []string{
	"Line No.", "Chainage", "Treatment Type", "Test Type", "Description", "Standard", "Method",
	"Frequency", "Priority", "Target", "Status", "Tests Completed", "Tests In Progress",
	"Tests Pending", "Tests Failed", "Reports", "Date Created",
}

var requirementsWidths = []float64{10, 18, 50, 34, 45, 12, 20, 12, 10, 22, 14, 16, 18, 14, 13, 10, 20}

var treatmentsHeader = []string{
	"Treatment Code", "Treatment Description", "Count", "Total Quantity", "Unit", "Completed", "In Progress", "Planned",
}

var treatmentsWidths = []float64{16, 50, 8, 16, 8, 12, 12, 10}

// Workbook renders the project to xlsx bytes.
func Workbook(p *domain.Project, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, p, now); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the project as four sheets. Projects without treatment records
// return ErrNoTreatments and write nothing.
func Write(w io.Writer, p *domain.Project, now time.Time) error {
	if p == nil || len(p.TreatmentRecords) == 0 {
		return ErrNoTreatments
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	sheets := []struct {
		name   string
		header []string
		widths []float64
		rows   [][]any
	}{
		{SheetProgress, progressHeader, progressWidths, progressRows(p)},
		{SheetRequirements, requirementsHeader, requirementsWidths, requirementRows(p)},
		{SheetSummary, []string{"Metric", "Value"}, []float64{28, 40}, summaryRows(p, now)},
		{SheetTreatments, treatmentsHeader, treatmentsWidths, treatmentRows(p)},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.header, s.widths, s.rows, headerStyle); err != nil {
			return err
		}
	}

	// the default sheet is replaced by ours
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(SheetProgress); err == nil {
		f.SetActiveSheet(idx)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, widths []float64, rows [][]any, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
	}

	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

func progressRows(p *domain.Project) [][]any {
	rows := make([][]any, 0, len(p.TreatmentRecords))
	for i := range p.TreatmentRecords {
		r := &p.TreatmentRecords[i]
		rows = append(rows, []any{
			r.LineNo, r.StartChainage, r.FinishChainage, r.Length(), r.DamageWidth, r.TreatmentCode,
			r.TreatmentDescription, r.Quantity, r.Unit, r.Area, r.AdditionalDescription,
			yn(r.PhotosReceived), yn(r.PhotosReviewed), yn(r.ITPReceived), string(r.Status),
			yn(r.LineComplete), yn(r.CompactionRequired),
		})
	}
	return rows
}

func requirementRows(p *domain.Project) [][]any {
	rows := make([][]any, 0, len(p.TestingRequirements))
	for i := range p.TestingRequirements {
		t := &p.TestingRequirements[i]
		created := ""
		if !t.DateCreated.IsZero() {
			created = t.DateCreated.Format(timeLayout)
		}
		rows = append(rows, []any{
			t.LineNo, t.Chainage, t.TreatmentType, t.TestName, t.Description, t.Standard, t.Method,
			t.Frequency, string(t.Priority), t.TargetValue, string(t.Status), t.TestsCompleted,
			t.TestsInProgress, t.TestsPending(), t.TestsFailed, len(t.TestReports), created,
		})
	}
	return rows
}

func summaryRows(p *domain.Project, now time.Time) [][]any {
	s := Summarize(p)
	created := ""
	if !p.Created.IsZero() {
		created = p.Created.Format(timeLayout)
	}
	return [][]any{
		{"Project Name", p.Name},
		{"Date Created", created},
		{"Total Treatments", s.TotalTreatments},
		{"Treatments Planned", s.TreatmentsPlanned},
		{"Treatments In Progress", s.TreatmentsInProgress},
		{"Treatments Completed", s.TreatmentsCompleted},
		{"Lines Complete", s.LinesComplete},
		{"Requirement Lines", s.RequirementLines},
		{"Requirements Completed", s.RequirementsCompleted},
		{"Total Tests Required", s.TotalTestsRequired},
		{"Tests Completed", s.TestsCompleted},
		{"Tests In Progress", s.TestsInProgress},
		{"Tests Pending", s.TestsPending},
		{"Export Date", now.Format(timeLayout)},
	}
}

func treatmentRows(p *domain.Project) [][]any {
	totals := ByTreatment(p.TreatmentRecords)
	rows := make([][]any, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []any{t.Code, t.Description, t.Count, t.TotalQuantity, t.Unit, t.Completed, t.InProgress, t.Planned})
	}
	return rows
}

func yn(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9]`)

// FileName download name: project name with non-alphanumerics replaced, plus the export date.
func FileName(projectName string, now time.Time) string {
	return fmt.Sprintf("%s_QA_Progress_%s.xlsx", unsafeName.ReplaceAllString(projectName, "_"), now.Format("2006-01-02"))
}
