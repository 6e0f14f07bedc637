package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"form4qa/internal/domain"
	"form4qa/internal/export"
	"form4qa/internal/ingest"
	"form4qa/internal/requirements"
	"form4qa/internal/service"
	"form4qa/internal/store"

	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

// ProjectHandler JSON API over ProjectService.
type ProjectHandler struct {
	svc       *service.ProjectService
	metrics   *Metrics
	maxUpload int64
	logger    *zap.Logger
}

func NewProjectHandler(svc *service.ProjectService, metrics *Metrics, maxUpload int64, logger *zap.Logger) *ProjectHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &ProjectHandler{svc: svc, metrics: metrics, maxUpload: maxUpload, logger: logger}
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListProjects(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": items, "total": len(items)}))
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	p, err := h.svc.CreateProject(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *ProjectHandler) UploadForm4(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(w, r, h.maxUpload)
	if err != nil {
		h.metrics.upload("form4", err)
		h.failUpload(w, err)
		return
	}
	res, err := h.svc.IngestForm4(r.Context(), r.PathValue("id"), bytes.NewReader(data))
	h.metrics.upload("form4", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.ingested(len(res.TreatmentRecords), len(res.TestingRequirements), len(res.Errors), len(res.Warnings))
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *ProjectHandler) UploadTracking(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(w, r, h.maxUpload)
	if err != nil {
		h.metrics.upload("tracking", err)
		h.failUpload(w, err)
		return
	}
	res, err := h.svc.ImportTracking(r.Context(), r.PathValue("id"), bytes.NewReader(data))
	h.metrics.upload("tracking", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.ingested(len(res.TreatmentRecords), 0, 0, 0)
	writeJSON(w, http.StatusOK, Ok(res))
}

// UpdateTestingConfig body fields overlay the project's current configuration.
func (h *ProjectHandler) UpdateTestingConfig(w http.ResponseWriter, r *http.Request) {
	current, err := h.svc.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cfg := current.TestConfiguration
	if err := readBodyJSON(r, maxJSONBody, &cfg); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	p, err := h.svc.UpdateTestConfiguration(r.Context(), r.PathValue("id"), cfg)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

func (h *ProjectHandler) ListTreatments(w http.ResponseWriter, r *http.Request) {
	filter := service.Filter(r.URL.Query().Get("filter"))
	items, err := h.svc.FilterTreatments(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": items, "total": len(items)}))
}

func (h *ProjectHandler) UpdateTreatment(w http.ResponseWriter, r *http.Request) {
	var u service.TreatmentUpdate
	if err := readBodyJSON(r, maxJSONBody, &u); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	rec, err := h.svc.UpdateTreatment(r.Context(), r.PathValue("id"), r.PathValue("recordID"), u)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(rec))
}

// BulkUpdate body: {"ids": [...], "action": "mark-completed"} or {"ids": [...], "updates": {...}}.
func (h *ProjectHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs     []string                `json:"ids"`
		Action  string                  `json:"action"`
		Updates service.TreatmentUpdate `json:"updates"`
	}
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	u := req.Updates
	if req.Action != "" {
		var err error
		if u, err = service.ActionUpdate(req.Action); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	n, err := h.svc.BulkUpdate(r.Context(), r.PathValue("id"), req.IDs, u)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int{"updated": n}))
}

func (h *ProjectHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(st))
}

func (h *ProjectHandler) SetTestProgress(w http.ResponseWriter, r *http.Request) {
	var tp service.TestProgress
	if err := readBodyJSON(r, maxJSONBody, &tp); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	t, err := h.svc.SetTestProgress(r.Context(), r.PathValue("id"), r.PathValue("testID"), tp)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(t))
}

func (h *ProjectHandler) AddTestReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReportNumber  string  `json:"reportNumber"`
		MeasuredValue float64 `json:"measuredValue"`
		TestDate      string  `json:"testDate"` // YYYY-MM-DD or RFC 3339, empty: today
		Notes         string  `json:"notes"`
	}
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	date, err := parseDate(req.TestDate)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	report := domain.TestReport{
		ReportNumber:  req.ReportNumber,
		MeasuredValue: req.MeasuredValue,
		TestDate:      date,
		Notes:         req.Notes,
	}
	t, err := h.svc.AddTestReport(r.Context(), r.PathValue("id"), r.PathValue("testID"), report)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(t))
}

func (h *ProjectHandler) RemoveTestReport(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.RemoveTestReport(r.Context(), r.PathValue("id"), r.PathValue("testID"), r.PathValue("reportNumber"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(t))
}

func (h *ProjectHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, name, err := h.svc.Export(r.Context(), r.PathValue("id"))
	h.metrics.export(err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// fail maps service errors onto the envelope: unknown projects are 404,
// domain failures are 200 with code -1, anything else is 500.
func (h *ProjectHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail(err.Error()))
	case errors.Is(err, export.ErrNoTreatments):
		writeJSON(w, http.StatusOK, Fail("No data to export"))
	case isDomainError(err):
		writeJSON(w, http.StatusOK, Fail(err.Error()))
	default:
		h.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
	}
}

func (h *ProjectHandler) failUpload(w http.ResponseWriter, err error) {
	if errors.Is(err, errTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Fail(err.Error()))
}

var domainErrors = []error{
	service.ErrInvalidInput,
	service.ErrRecordNotFound,
	service.ErrTestNotFound,
	domain.ErrInvalidConfig,
	requirements.ErrReportNotFound,
	requirements.ErrDuplicateReport,
	requirements.ErrInvalidProgress,
	ingest.ErrNoSheet,
	ingest.ErrHeaderNotFound,
	ingest.ErrUnreadableInput,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid test date %q", s)
}
