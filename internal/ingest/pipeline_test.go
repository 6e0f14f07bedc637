package ingest

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"form4qa/internal/domain"
	"form4qa/internal/requirements"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const stabilisation = "In-situ stabilisation - including 50mm corrector. Excludes seal"

var form4Header = []any{
	"Line No.", "Start\r\nCH. (m)", "Finish\r\nCH. (m)", "Damage Length (m)", "Damage Width (m)",
	"Damage Depth\r\n(m)", "Treatment Type", "Additional Description", "Quantity", "Unit",
}

// form4Workbook writes a template-shaped workbook: title rows, header on sheet row 11, data after.
func form4Workbook(t *testing.T, header []any, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "FORM 4 - Damage and Treatment Schedule"))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "Event: Test event 2025"))
	require.NoError(t, f.SetSheetRow("Sheet1", "A11", &header))
	for i, r := range rows {
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", 12+i), &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func newTestPipeline() *Pipeline {
	return NewPipeline(requirements.NewEngine(), zap.NewNop())
}

func TestIngest_StabilisationLine(t *testing.T) {
	wb := form4Workbook(t, form4Header,
		[]any{1, 0, 500, nil, nil, nil, stabilisation, "LHS", 4000, "m2"},
	)

	res, err := newTestPipeline().Ingest(wb, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", res.SheetName)
	require.Len(t, res.TreatmentRecords, 1)

	rec := res.TreatmentRecords[0]
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 1, rec.LineNo)
	assert.Equal(t, 0.0, rec.StartChainage)
	assert.Equal(t, 500.0, rec.FinishChainage)
	assert.Equal(t, "SPR_STB", rec.TreatmentCode)
	assert.Equal(t, 4000.0, rec.Area)
	assert.Equal(t, "LHS", rec.AdditionalDescription)
	assert.Equal(t, domain.TreatmentPlanned, rec.Status)
	assert.False(t, rec.PhotosReceived || rec.PhotosReviewed || rec.ITPReceived || rec.LineComplete)
	assert.True(t, rec.CompactionRequired)

	require.Len(t, res.TestingRequirements, 1)
	req := res.TestingRequirements[0]
	assert.Equal(t, requirements.NuclearDensityTest, req.TestName)
	assert.Equal(t, 8, req.Frequency)
	assert.Equal(t, rec.ID, req.EntryID)
	assert.Equal(t, "0 - 500", req.Chainage)
	assert.Equal(t, stabilisation, req.TreatmentType)

	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestIngest_StopsAtFirstRowWithoutLineNumber(t *testing.T) {
	wb := form4Workbook(t, form4Header,
		[]any{1, 0, 100, nil, nil, nil, "Pothole repair", "", 5, "m2"},
		[]any{2, 100, 200, nil, nil, nil, "Pothole repair", "", 5, "m2"},
		[]any{3, 200, 300, nil, nil, nil, "Pothole repair", "", 5, "m2"},
		[]any{4, 300, 400, nil, nil, nil, "Pothole repair", "", 5, "m2"},
		[]any{nil, 400, 500, nil, nil, nil, "Pothole repair", "", 5, "m2"},
		[]any{6, 500, 600, nil, nil, nil, stabilisation, "", 5000, "m2"},
		[]any{"Notes: all chainages approximate"},
		[]any{8, 700, 800, nil, nil, nil, "Edge repair", "", 5, "m2"},
	)

	res, err := newTestPipeline().Ingest(wb, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.TreatmentRecords, 4)
	assert.Equal(t, 4, res.RowsRead)
	for i, rec := range res.TreatmentRecords {
		assert.Equal(t, i+1, rec.LineNo)
	}
	assert.Empty(t, res.TestingRequirements)
}

func TestIngest_SkipsJunkRowWithoutTerminating(t *testing.T) {
	wb := form4Workbook(t, form4Header,
		[]any{1, 0, 100, nil, nil, nil, "Pothole repair", "", 5, "m2"},
		[]any{2, nil, nil, nil, nil, nil, nil, "deleted", nil, nil},
		[]any{3, 200, 300, nil, nil, nil, "Edge repair", "", 5, "m2"},
	)

	res, err := newTestPipeline().Ingest(wb, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.TreatmentRecords, 2)
	assert.Equal(t, 3, res.TreatmentRecords[1].LineNo)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 3, res.RowsRead)
}

func TestIngest_AreaFallback(t *testing.T) {
	wb := form4Workbook(t, form4Header,
		[]any{1, 0, 10, 10, 5, 0.1, "Pavement repair - patch unbound pavement failure", "", 999, "m2"},
		[]any{2, 10, 20, 0, 0, nil, "Pavement repair - patch unbound pavement failure", "", 200, "m2"},
	)

	res, err := newTestPipeline().Ingest(wb, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.TreatmentRecords, 2)
	assert.Equal(t, 50.0, res.TreatmentRecords[0].Area)
	assert.Equal(t, 0.1, res.TreatmentRecords[0].DamageDepth)
	assert.Equal(t, 200.0, res.TreatmentRecords[1].Area)
}

func TestIngest_HeaderVariantsAndCoercion(t *testing.T) {
	header := []any{"LINE NO.", "START\nCH. (m)", "finish ch. (m)", "TREATMENT TYPE", "QUANTITY", "UNIT"}
	wb := form4Workbook(t, header,
		[]any{"1", "0", "250", stabilisation, "1,250", "m2"},
		[]any{"2", "n/a", "500", "Reshape table drain", "lots", "m"},
	)

	res, err := newTestPipeline().Ingest(wb, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.TreatmentRecords, 2)
	assert.Equal(t, 250.0, res.TreatmentRecords[0].FinishChainage)
	assert.Equal(t, 1250.0, res.TreatmentRecords[0].Quantity)
	assert.Equal(t, 0.0, res.TreatmentRecords[1].StartChainage)
	assert.Equal(t, 0.0, res.TreatmentRecords[1].Quantity)
	assert.Equal(t, "USP_RSTD", res.TreatmentRecords[1].TreatmentCode)
}

func TestIngest_ValidationIsSoft(t *testing.T) {
	wb := form4Workbook(t, form4Header,
		[]any{1, 0, 500, nil, nil, nil, stabilisation, "", 4000, "m2"},
		[]any{2, 450, 400, nil, nil, nil, "Line marking", "", 0, "m"},
		[]any{3, 600, 700, nil, nil, nil, "Pothole repair", "", nil, "m2"},
	)

	res, err := newTestPipeline().Ingest(wb, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.TreatmentRecords, 3)
	assert.Equal(t, "OTHER", res.TreatmentRecords[1].TreatmentCode)

	msgs := func(issues []Issue) string {
		var b strings.Builder
		for _, i := range issues {
			b.WriteString(i.String())
			b.WriteString("\n")
		}
		return b.String()
	}
	errs := msgs(res.Errors)
	warns := msgs(res.Warnings)

	assert.Contains(t, errs, "Row 13 (line 2): Finish chainage must be greater than start chainage")
	assert.Contains(t, errs, "Row 14 (line 3): Missing Quantity")
	assert.Len(t, res.Errors, 2)

	assert.Contains(t, warns, "Row 13 (line 2): Quantity should be greater than 0")
	assert.Contains(t, warns, `Row 13 (line 2): Treatment type "Line marking" not recognized`)
	assert.Contains(t, warns, "Row 13 (line 2): Start chainage 450 is before previous line 1 finish chainage 500")
	assert.Len(t, res.Warnings, 3)
}

func TestIngest_StructuralErrors(t *testing.T) {
	p := newTestPipeline()

	_, err := p.Ingest(strings.NewReader("not a workbook"), DefaultOptions())
	assert.ErrorIs(t, err, ErrUnreadableInput)

	wb := form4Workbook(t, form4Header)
	opts := DefaultOptions()
	opts.HeaderRow = 40
	_, err = p.Ingest(wb, opts)
	assert.ErrorIs(t, err, ErrHeaderNotFound)

	wb = form4Workbook(t, []any{"Chainage", "Treatment"}, []any{1, "x"})
	_, err = p.Ingest(wb, DefaultOptions())
	assert.ErrorIs(t, err, ErrHeaderNotFound)

	wb = form4Workbook(t, form4Header)
	opts = DefaultOptions()
	opts.Sheet = "Form 4"
	_, err = p.Ingest(wb, opts)
	assert.ErrorIs(t, err, ErrNoSheet)
}

func TestIngest_UsesConfiguration(t *testing.T) {
	wb := form4Workbook(t, form4Header,
		[]any{1, 0, 1000, nil, nil, nil, stabilisation, "", 6000, "m2"},
	)
	opts := DefaultOptions()
	opts.Config.CompactionMethod = domain.CompactionSand
	opts.Config.IncludeUCS = true

	res, err := newTestPipeline().Ingest(wb, opts)
	require.NoError(t, err)
	require.Len(t, res.TestingRequirements, 3)
	assert.Equal(t, requirements.SandReplacementTest, res.TestingRequirements[0].TestName)
	assert.Equal(t, 6, res.TestingRequirements[0].Frequency)
	assert.Equal(t, requirements.UCS7DayTest, res.TestingRequirements[1].TestName)
	assert.Equal(t, requirements.UCS28DayTest, res.TestingRequirements[2].TestName)
}

func TestResolveColumns_FirstVariantWins(t *testing.T) {
	header := []string{"Start CH. (m)", "Start\r\nCH. (m)", "Line No"}
	cols := resolveColumns(header, Form4Columns)
	assert.Equal(t, 1, cols[FieldStartChainage])
	assert.Equal(t, 2, cols[FieldLineNo])
	_, ok := cols[FieldQuantity]
	assert.False(t, ok)
}
