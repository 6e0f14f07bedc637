package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counters for uploads, ingested rows and exports, on a private registry.
type Metrics struct {
	registry     *prometheus.Registry
	uploads      *prometheus.CounterVec
	rowsIngested prometheus.Counter
	issues       *prometheus.CounterVec
	derived      prometheus.Counter
	exports      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "form4qa",
			Name:      "uploads_total",
			Help:      "Workbook uploads by kind and outcome.",
		}, []string{"kind", "outcome"}),
		rowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "form4qa",
			Name:      "treatment_records_ingested_total",
			Help:      "Treatment records read from uploaded workbooks.",
		}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "form4qa",
			Name:      "ingest_issues_total",
			Help:      "Row validation issues by severity.",
		}, []string{"severity"}),
		derived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "form4qa",
			Name:      "testing_requirements_derived_total",
			Help:      "Testing requirements derived during ingestion.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "form4qa",
			Name:      "exports_total",
			Help:      "Workbook exports by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.uploads, m.rowsIngested, m.issues, m.derived, m.exports)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) upload(kind string, err error) {
	m.uploads.WithLabelValues(kind, outcome(err)).Inc()
}

func (m *Metrics) ingested(records, requirements, errs, warns int) {
	m.rowsIngested.Add(float64(records))
	m.derived.Add(float64(requirements))
	m.issues.WithLabelValues("error").Add(float64(errs))
	m.issues.WithLabelValues("warning").Add(float64(warns))
}

func (m *Metrics) export(err error) {
	m.exports.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
