package ingest

import "strings"

// Field a logical Form 4 column.
type Field string

const (
	FieldLineNo                Field = "lineNo"
	FieldStartChainage         Field = "startChainage"
	FieldFinishChainage        Field = "finishChainage"
	FieldTreatment             Field = "treatment"
	FieldQuantity              Field = "quantity"
	FieldUnit                  Field = "unit"
	FieldDamageLength          Field = "damageLength"
	FieldDamageWidth           Field = "damageWidth"
	FieldDamageDepth           Field = "damageDepth"
	FieldAdditionalDescription Field = "additionalDescription"

	// QA tracking workbook only
	FieldPhotosReceived     Field = "photosReceived"
	FieldPhotosReviewed     Field = "photosReviewed"
	FieldITPReceived        Field = "itpReceived"
	FieldLineComplete       Field = "lineComplete"
	FieldCompactionRequired Field = "compactionRequired"
	FieldSandTests          Field = "sandTests"
	FieldNuclearTests       Field = "nuclearTests"
	FieldCVResult           Field = "cvResult"
	FieldTargetSMDD         Field = "targetSMDD"
)

// Column header spellings accepted for one field, in preference order.
type Column struct {
	Field    Field
	Variants []string
}

// Form4Columns header variants seen in Form 4 templates.
var Form4Columns = []Column{
	{FieldLineNo, []string{"Line No.", "LINE NO.", "Line No", "Line Number"}},
	{FieldStartChainage, []string{"Start\r\nCH. (m)", "Start CH. (m)", "START\r\nCH. (m)", "START CH. (m)", "Start CH (m)", "Start Chainage"}},
	{FieldFinishChainage, []string{"Finish\r\nCH. (m)", "Finish CH. (m)", "FINISH\r\nCH. (m)", "FINISH CH. (m)", "Finish CH (m)", "Finish Chainage"}},
	{FieldTreatment, []string{"Treatment Type", "TREATMENT TYPE", "Treatment Description"}},
	{FieldQuantity, []string{"Quantity", "QUANTITY", "Qty"}},
	{FieldUnit, []string{"Unit", "UNIT"}},
	{FieldDamageLength, []string{"Damage Length (m)", "Damage\r\nLength (m)"}},
	{FieldDamageWidth, []string{"Damage Width (m)", "Damage\r\nWidth (m)"}},
	{FieldDamageDepth, []string{"Damage Depth\r\n(m)", "Damage Depth (m)"}},
	{FieldAdditionalDescription, []string{"Additional Description", "ADDITIONAL DESCRIPTION"}},
}

// TrackingColumns headers of the Form4 sheet in an existing QA tracking workbook.
var TrackingColumns = []Column{
	{FieldLineNo, []string{"LINE NO.", "Line No."}},
	{FieldStartChainage, []string{"START\r\nCH. (m)", "START CH. (m)"}},
	{FieldFinishChainage, []string{"FINISH\r\nCH. (m)", "FINISH CH. (m)"}},
	{FieldTreatment, []string{"TREATMENT TYPE", "Treatment Type"}},
	{FieldQuantity, []string{"QUANTITY", "Quantity"}},
	{FieldUnit, []string{"UNIT", "Unit"}},
	{FieldPhotosReceived, []string{"PHOTOS RECEIVED Y/N"}},
	{FieldPhotosReviewed, []string{"PHOTOS REVIEWED Y/N"}},
	{FieldITPReceived, []string{"ITP'S RECEIVED Y/N", "ITP RECEIVED Y/N"}},
	{FieldLineComplete, []string{"LINE COMPLETE Y/N"}},
	{FieldCompactionRequired, []string{"COMPACTION TESTING REQUIRED Y/N"}},
}

// CompactionColumns headers of the compaction testing sheet.
var CompactionColumns = []Column{
	{FieldLineNo, []string{"LINE NO.", "Line No."}},
	{FieldSandTests, []string{"NO. TESTS SAND REPLACEMENT"}},
	{FieldNuclearTests, []string{"NO. TESTS NUC DENSOMETER"}},
	{FieldCVResult, []string{"CV result", "CV RESULT"}},
	{FieldTargetSMDD, []string{"TARGET SMDD %"}},
}

// columnIndex resolved field -> zero-based column
type columnIndex map[Field]int

// resolveColumns maps each field to a header column: the first variant equal
// to a header wins, then the first variant equal after normalisation.
func resolveColumns(header []string, columns []Column) columnIndex {
	exact := make(map[string]int, len(header))
	loose := make(map[string]int, len(header))
	for i, h := range header {
		if _, ok := exact[h]; !ok {
			exact[h] = i
		}
		n := normalizeHeader(h)
		if _, ok := loose[n]; !ok && n != "" {
			loose[n] = i
		}
	}

	idx := make(columnIndex, len(columns))
	for _, c := range columns {
		if i, ok := lookup(c.Variants, exact, func(s string) string { return s }); ok {
			idx[c.Field] = i
			continue
		}
		if i, ok := lookup(c.Variants, loose, normalizeHeader); ok {
			idx[c.Field] = i
		}
	}
	return idx
}

func lookup(variants []string, m map[string]int, key func(string) string) (int, bool) {
	for _, v := range variants {
		if i, ok := m[key(v)]; ok {
			return i, true
		}
	}
	return 0, false
}

// normalizeHeader case-folds and collapses whitespace, including embedded line breaks.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// cell returns the trimmed value of field in row, and whether it is non-blank.
func (c columnIndex) cell(row []string, f Field) (string, bool) {
	i, ok := c[f]
	if !ok || i >= len(row) {
		return "", false
	}
	v := strings.TrimSpace(row[i])
	return v, v != ""
}
