package metrics

import (
	"net/http"

	"github.com/gradecard/backend/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service's prometheus collectors on a private registry
type Registry struct {
	reg             *prometheus.Registry
	Queries         *prometheus.CounterVec
	Resolutions     *prometheus.CounterVec
	QueriesPerMatch prometheus.Histogram
	Drift           *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradecard_inspection_queries_total",
		Help: "Queries issued to the inspection dataset, by cascade stage.",
	}, []string{"stage"})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradecard_resolutions_total",
		Help: "Finished resolutions, by outcome.",
	}, []string{"outcome"})
	perMatch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gradecard_queries_per_resolution",
		Help:    "Dataset queries issued by each finished resolution.",
		Buckets: []float64{0, 1, 2, 3, 4},
	})
	drift := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gradecard_schema_drift_total",
		Help: "Records with grade or action values the classifier does not know.",
	}, []string{"kind"})

	r.MustRegister(queries, resolutions, perMatch, drift)
	return &Registry{
		reg:             r,
		Queries:         queries,
		Resolutions:     resolutions,
		QueriesPerMatch: perMatch,
		Drift:           drift,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// QueryIssued implements domain.Metrics
func (r *Registry) QueryIssued(stage domain.Stage) {
	r.Queries.WithLabelValues(stage.String()).Inc()
}

// ResolutionFinished implements domain.Metrics
func (r *Registry) ResolutionFinished(outcome string, queries int) {
	r.Resolutions.WithLabelValues(outcome).Inc()
	r.QueriesPerMatch.Observe(float64(queries))
}

// SchemaDrift implements domain.Metrics
func (r *Registry) SchemaDrift(kind string) {
	r.Drift.WithLabelValues(kind).Inc()
}
