package ingest

import (
	"fmt"

	"form4qa/internal/domain"
)

// Issue a row-level validation finding.
type Issue struct {
	Row     int    `json:"row"` // sheet row
	LineNo  int    `json:"lineNo"`
	Field   Field  `json:"field,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("Row %d (line %d): %s", i.Row, i.LineNo, i.Message)
}

var requiredFields = []struct {
	field Field
	label string
}{
	{FieldStartChainage, "Start Chainage"},
	{FieldFinishChainage, "Finish Chainage"},
	{FieldTreatment, "Treatment Type"},
	{FieldQuantity, "Quantity"},
}

// validate annotates parsed rows; it never drops them.
func validate(rows []parsedRow) (errs, warns []Issue) {
	errs, warns = []Issue{}, []Issue{}
	for i, pr := range rows {
		rec := pr.record
		issue := func(f Field, format string, args ...any) Issue {
			return Issue{Row: pr.sheetRow, LineNo: rec.LineNo, Field: f, Message: fmt.Sprintf(format, args...)}
		}

		for _, rf := range requiredFields {
			if !pr.present[rf.field] {
				errs = append(errs, issue(rf.field, "Missing %s", rf.label))
			}
		}

		if pr.present[FieldStartChainage] && pr.present[FieldFinishChainage] && rec.FinishChainage <= rec.StartChainage {
			errs = append(errs, issue(FieldFinishChainage, "Finish chainage must be greater than start chainage"))
		}

		if pr.present[FieldQuantity] && rec.Quantity <= 0 {
			warns = append(warns, issue(FieldQuantity, "Quantity should be greater than 0"))
		}

		if pr.present[FieldTreatment] && rec.TreatmentCode == domain.OtherTreatmentCode {
			warns = append(warns, issue(FieldTreatment, "Treatment type %q not recognized", rec.TreatmentDescription))
		}

		if i > 0 && pr.present[FieldStartChainage] {
			prev := rows[i-1]
			if prev.present[FieldFinishChainage] && rec.StartChainage < prev.record.FinishChainage {
				warns = append(warns, issue(FieldStartChainage, "Start chainage %s is before previous line %d finish chainage %s",
					fmtNum(rec.StartChainage), prev.record.LineNo, fmtNum(prev.record.FinishChainage)))
			}
		}
	}
	return errs, warns
}

func fmtNum(v float64) string {
	return fmt.Sprintf("%g", v)
}
