package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"form4qa/internal/domain"
	"form4qa/internal/export"
	"form4qa/internal/requirements"
	"form4qa/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const stabilisation = "In-situ stabilisation - including 50mm corrector. Excludes seal"

var fixedNow = time.Date(2025, 6, 30, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *ProjectService {
	t.Helper()
	n := 0
	return NewProjectService(store.NewMemoryStore(), requirements.NewEngine(), zap.NewNop(), Options{
		NewID: func() string { n++; return fmt.Sprintf("p%d", n) },
		Now:   func() time.Time { return fixedNow },
	})
}

func form4Workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	header := []any{"Line No.", "Start\r\nCH. (m)", "Finish\r\nCH. (m)", "Treatment Type", "Quantity", "Unit"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A11", &header))
	for i, r := range rows {
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", 12+i), &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

// three lines: stabilisation (8 nuclear tests), drainage (none), small stabilisation (below min area)
func seededProject(t *testing.T, s *ProjectService) *domain.Project {
	t.Helper()
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "Bruce Hwy")
	require.NoError(t, err)
	wb := form4Workbook(t,
		[]any{1, 0, 500, stabilisation, 4000, "m2"},
		[]any{2, 500, 800, "Table drain reshaping", 300, "m"},
		[]any{3, 800, 820, stabilisation, 50, "m2"},
	)
	res, err := s.IngestForm4(ctx, p.ID, wb)
	require.NoError(t, err)
	require.Len(t, res.TreatmentRecords, 3)
	require.Len(t, res.TestingRequirements, 1)

	p, err = s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	return p
}

func TestCreateProject(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.CreateProject(ctx, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := s.CreateProject(ctx, " Bruce Hwy ")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Bruce Hwy", p.Name)
	assert.Equal(t, domain.DefaultTestConfiguration(), p.TestConfiguration)

	list, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bruce Hwy", list[0].Name)

	require.NoError(t, s.DeleteProject(ctx, p.ID))
	_, err = s.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProject(ctx, p.ID), store.ErrNotFound)
}

func TestIngestForm4(t *testing.T) {
	s := newTestService(t)
	p := seededProject(t, s)

	require.Len(t, p.TestingRequirements, 1)
	req := p.TestingRequirements[0]
	assert.Equal(t, requirements.NuclearDensityTest, req.TestName)
	assert.Equal(t, 8, req.Frequency)
	assert.Equal(t, p.TreatmentRecords[0].ID, req.EntryID)
	assert.Equal(t, fixedNow, p.Updated)
}

func TestIngestForm4_StructuralErrorKeepsProject(t *testing.T) {
	s := newTestService(t)
	p := seededProject(t, s)
	ctx := context.Background()

	_, err := s.IngestForm4(ctx, p.ID, bytes.NewReader([]byte("not a workbook")))
	require.Error(t, err)

	again, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, again.TreatmentRecords, 3)
	assert.Len(t, again.TestingRequirements, 1)
}

func TestIngestForm4_HeaderOnFirstRow(t *testing.T) {
	headerRow := 0
	s := NewProjectService(store.NewMemoryStore(), requirements.NewEngine(), zap.NewNop(), Options{
		HeaderRow: &headerRow,
		NewID:     func() string { return "p1" },
		Now:       func() time.Time { return fixedNow },
	})
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "Gregory Dev Rd")
	require.NoError(t, err)

	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"Line No.", "Start\r\nCH. (m)", "Finish\r\nCH. (m)", "Treatment Type", "Quantity", "Unit"},
		{1, 0, 500, stabilisation, 4000, "m2"},
	}
	for i, r := range rows {
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+1), &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := s.IngestForm4(ctx, p.ID, buf)
	require.NoError(t, err)
	require.Len(t, res.TreatmentRecords, 1)
	assert.Equal(t, 1, res.TreatmentRecords[0].LineNo)
	require.Len(t, res.TestingRequirements, 1)
	assert.Equal(t, 8, res.TestingRequirements[0].Frequency)
}

func TestIngestForm4_UnknownProject(t *testing.T) {
	s := newTestService(t)
	_, err := s.IngestForm4(context.Background(), "nope", form4Workbook(t))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateTestConfiguration(t *testing.T) {
	s := newTestService(t)
	p := seededProject(t, s)
	ctx := context.Background()

	testID := p.TestingRequirements[0].ID
	_, err := s.SetTestProgress(ctx, p.ID, testID, TestProgress{Completed: 3, InProgress: 1})
	require.NoError(t, err)

	bad := domain.DefaultTestConfiguration()
	bad.CompactionMethod = "rubber"
	_, err = s.UpdateTestConfiguration(ctx, p.ID, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	cfg := domain.DefaultTestConfiguration()
	cfg.IncludeUCS = true
	cfg.IncludeMaterialTesting = true
	updated, err := s.UpdateTestConfiguration(ctx, p.ID, cfg)
	require.NoError(t, err)
	assert.True(t, updated.TestConfiguration.IncludeUCS)

	// line 1: nuclear, UCS 7-day, material; line 3 still below min area
	require.Len(t, updated.TestingRequirements, 3)
	nuclear := updated.TestingRequirements[0]
	assert.Equal(t, requirements.NuclearDensityTest, nuclear.TestName)
	assert.Equal(t, 3, nuclear.TestsCompleted)
	assert.Equal(t, 1, nuclear.TestsInProgress)
	assert.Equal(t, domain.TestInProgress, nuclear.Status)
	assert.Equal(t, requirements.UCS7DayTest, updated.TestingRequirements[1].TestName)
	assert.Equal(t, requirements.MaterialTest, updated.TestingRequirements[2].TestName)
}

func TestUpdateTreatmentAndBulk(t *testing.T) {
	s := newTestService(t)
	p := seededProject(t, s)
	ctx := context.Background()

	completed := domain.TreatmentCompleted
	yes := true
	rec, err := s.UpdateTreatment(ctx, p.ID, p.TreatmentRecords[0].ID, TreatmentUpdate{Status: &completed, LineComplete: &yes})
	require.NoError(t, err)
	assert.Equal(t, domain.TreatmentCompleted, rec.Status)
	assert.True(t, rec.LineComplete)

	_, err = s.UpdateTreatment(ctx, p.ID, "missing", TreatmentUpdate{LineComplete: &yes})
	assert.ErrorIs(t, err, ErrRecordNotFound)

	bogus := domain.TreatmentStatus("done")
	_, err = s.UpdateTreatment(ctx, p.ID, p.TreatmentRecords[0].ID, TreatmentUpdate{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.UpdateTreatment(ctx, p.ID, p.TreatmentRecords[0].ID, TreatmentUpdate{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	ids := []string{p.TreatmentRecords[1].ID, p.TreatmentRecords[2].ID, p.TreatmentRecords[1].ID}
	n, err := s.BulkUpdate(ctx, p.ID, ids, TreatmentUpdate{PhotosReceived: &yes})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// one unknown id rejects the batch
	_, err = s.BulkUpdate(ctx, p.ID, []string{p.TreatmentRecords[0].ID, "missing"}, TreatmentUpdate{ITPReceived: &yes})
	assert.ErrorIs(t, err, ErrRecordNotFound)
	missingITP, err := s.FilterTreatments(ctx, p.ID, FilterMissingITP)
	require.NoError(t, err)
	assert.Len(t, missingITP, 3)

	_, err = s.BulkUpdate(ctx, p.ID, nil, TreatmentUpdate{ITPReceived: &yes})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFilterAndStats(t *testing.T) {
	s := newTestService(t)
	p := seededProject(t, s)
	ctx := context.Background()

	inProgress := domain.TreatmentInProgress
	yes := true
	_, err := s.UpdateTreatment(ctx, p.ID, p.TreatmentRecords[0].ID, TreatmentUpdate{Status: &inProgress, PhotosReceived: &yes})
	require.NoError(t, err)

	cases := []struct {
		filter Filter
		want   int
	}{
		{FilterAll, 3},
		{"", 3},
		{FilterPlanned, 2},
		{FilterInProgress, 1},
		{FilterCompleted, 0},
		{FilterLineComplete, 0},
		{FilterMissingPhotos, 2},
		{FilterMissingITP, 3},
	}
	for _, c := range cases {
		got, err := s.FilterTreatments(ctx, p.ID, c.filter)
		require.NoError(t, err, c.filter)
		assert.Len(t, got, c.want, c.filter)
	}
	_, err = s.FilterTreatments(ctx, p.ID, "odd")
	assert.ErrorIs(t, err, ErrInvalidInput)

	st, err := s.Stats(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Planned)
	assert.Equal(t, 1, st.InProgress)
	assert.Equal(t, 2, st.MissingPhotos)
	assert.Equal(t, 3, st.MissingITP)
	assert.Equal(t, 8, st.Summary.TotalTestsRequired)
	assert.Equal(t, 8, st.Summary.TestsPending)
}

func TestTestReports(t *testing.T) {
	s := newTestService(t)
	p := seededProject(t, s)
	ctx := context.Background()
	testID := p.TestingRequirements[0].ID

	req, err := s.AddTestReport(ctx, p.ID, testID, domain.TestReport{ReportNumber: "R-001", MeasuredValue: 101.5})
	require.NoError(t, err)
	assert.Equal(t, 1, req.TestsCompleted)
	assert.Equal(t, domain.ResultPass, req.TestReports[0].Result)

	req, err = s.AddTestReport(ctx, p.ID, testID, domain.TestReport{ReportNumber: "R-002", MeasuredValue: 97})
	require.NoError(t, err)
	assert.Equal(t, 1, req.TestsCompleted)
	assert.Equal(t, 1, req.TestsFailed)

	_, err = s.AddTestReport(ctx, p.ID, testID, domain.TestReport{ReportNumber: "R-001", MeasuredValue: 100})
	assert.ErrorIs(t, err, requirements.ErrDuplicateReport)
	_, err = s.AddTestReport(ctx, p.ID, "missing", domain.TestReport{ReportNumber: "R-009"})
	assert.ErrorIs(t, err, ErrTestNotFound)

	req, err = s.RemoveTestReport(ctx, p.ID, testID, "R-001")
	require.NoError(t, err)
	assert.Equal(t, 0, req.TestsCompleted)
	_, err = s.RemoveTestReport(ctx, p.ID, testID, "R-001")
	assert.ErrorIs(t, err, requirements.ErrReportNotFound)

	_, err = s.SetTestProgress(ctx, p.ID, testID, TestProgress{Completed: 0, InProgress: 9})
	assert.ErrorIs(t, err, requirements.ErrInvalidProgress)
}

func TestRemoveTestReport_LastReportResetsCounters(t *testing.T) {
	s := newTestService(t)
	p := seededProject(t, s)
	ctx := context.Background()
	testID := p.TestingRequirements[0].ID

	for _, n := range []string{"R1", "R2"} {
		_, err := s.AddTestReport(ctx, p.ID, testID, domain.TestReport{ReportNumber: n, MeasuredValue: 101})
		require.NoError(t, err)
	}
	_, err := s.RemoveTestReport(ctx, p.ID, testID, "R1")
	require.NoError(t, err)
	req, err := s.RemoveTestReport(ctx, p.ID, testID, "R2")
	require.NoError(t, err)

	assert.Empty(t, req.TestReports)
	assert.Zero(t, req.TestsCompleted)
	assert.Zero(t, req.TestsFailed)
	assert.Equal(t, 8, req.TestsPending())
	assert.Equal(t, domain.TestPending, req.Status)

	stored, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.TestingRequirements[0].TestsCompleted)
	assert.Equal(t, domain.TestPending, stored.TestingRequirements[0].Status)
}

func TestExport(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	empty, err := s.CreateProject(ctx, "Empty")
	require.NoError(t, err)
	_, _, err = s.Export(ctx, empty.ID)
	assert.ErrorIs(t, err, export.ErrNoTreatments)

	p := seededProject(t, s)
	data, name, err := s.Export(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bruce_Hwy_QA_Progress_2025-06-30.xlsx", name)

	sum, err := export.Tally(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, export.Summarize(p), sum)
}

func TestImportTracking(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "Tracked")
	require.NoError(t, err)

	f := excelize.NewFile()
	defer f.Close()
	_, err = f.NewSheet("Form4")
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))
	header := []any{"LINE NO.", "START CH. (m)", "FINISH CH. (m)", "TREATMENT TYPE", "QUANTITY", "UNIT", "LINE COMPLETE Y/N"}
	row := []any{7, 100, 200, stabilisation, 600, "m2", "Y"}
	require.NoError(t, f.SetSheetRow("Form4", "A4", &header))
	require.NoError(t, f.SetSheetRow("Form4", "A5", &row))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := s.ImportTracking(ctx, p.ID, buf)
	require.NoError(t, err)
	require.Len(t, res.TreatmentRecords, 1)

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.TreatmentRecords, 1)
	assert.Equal(t, 7, got.TreatmentRecords[0].LineNo)
	assert.Equal(t, domain.TreatmentCompleted, got.TreatmentRecords[0].Status)
	assert.Empty(t, got.TestingRequirements)
}

func TestActionUpdate(t *testing.T) {
	u, err := ActionUpdate("mark-completed")
	require.NoError(t, err)
	require.NotNil(t, u.Status)
	assert.Equal(t, domain.TreatmentCompleted, *u.Status)

	u, err = ActionUpdate("itp-received")
	require.NoError(t, err)
	require.NotNil(t, u.ITPReceived)
	assert.True(t, *u.ITPReceived)
	assert.Nil(t, u.Status)

	_, err = ActionUpdate("delete-everything")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
