package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"form4qa/internal/domain"

	"github.com/xuri/excelize/v2"
)

// Tally re-derives the summary aggregates from the detail sheets of an exported workbook.
func Tally(r io.Reader) (Summary, error) {
	var s Summary
	f, err := excelize.OpenReader(r)
	if err != nil {
		return s, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	progress, err := sheetRecords(f, SheetProgress)
	if err != nil {
		return s, err
	}
	for _, row := range progress {
		s.addTreatment(domain.TreatmentStatus(row["Status"]), row["Line Complete"] == "Y")
	}

	reqs, err := sheetRecords(f, SheetRequirements)
	if err != nil {
		return s, err
	}
	for _, row := range reqs {
		s.addRequirement(domain.TestStatus(row["Status"]),
			atoi(row["Frequency"]), atoi(row["Tests Completed"]), atoi(row["Tests In Progress"]), atoi(row["Tests Pending"]))
	}
	return s, nil
}

// sheetRecords reads a sheet as header-keyed rows.
func sheetRecords(f *excelize.File, sheet string) ([]map[string]string, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	header := rows[0]
	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(row) {
				m[h] = strings.TrimSpace(row[i])
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func atoi(s string) int {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(v)
}
