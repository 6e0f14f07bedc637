package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router wraps http.ServeMux; routes use method patterns.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler registers a plain http.Handler (promhttp).
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterProjectRoutes project CRUD, ingestion, progress edits and export.
func (r *Router) RegisterProjectRoutes(h *ProjectHandler) {
	r.Handle("GET /api/v1/projects", h.ListProjects)
	r.Handle("POST /api/v1/projects", h.CreateProject)
	r.Handle("GET /api/v1/projects/{id}", h.GetProject)
	r.Handle("DELETE /api/v1/projects/{id}", h.DeleteProject)

	// ingestion
	r.Handle("POST /api/v1/projects/{id}/form4", h.UploadForm4)
	r.Handle("POST /api/v1/projects/{id}/tracking", h.UploadTracking)
	r.Handle("PUT /api/v1/projects/{id}/testing-config", h.UpdateTestingConfig)

	// treatments
	r.Handle("GET /api/v1/projects/{id}/treatments", h.ListTreatments)
	r.Handle("PATCH /api/v1/projects/{id}/treatments/{recordID}", h.UpdateTreatment)
	r.Handle("POST /api/v1/projects/{id}/treatments/bulk", h.BulkUpdate)
	r.Handle("GET /api/v1/projects/{id}/stats", h.Stats)

	// tests
	r.Handle("PATCH /api/v1/projects/{id}/tests/{testID}", h.SetTestProgress)
	r.Handle("POST /api/v1/projects/{id}/tests/{testID}/reports", h.AddTestReport)
	r.Handle("DELETE /api/v1/projects/{id}/tests/{testID}/reports/{reportNumber}", h.RemoveTestReport)

	r.Handle("GET /api/v1/projects/{id}/export", h.Export)
}

// RegisterOpsRoutes health and metrics.
func (r *Router) RegisterOpsRoutes(m *Metrics) {
	r.Handle("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
	r.HandleHandler("GET /metrics", m.Handler())
}
