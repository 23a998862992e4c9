package telemetry

import (
	"net/http"

	"lgpd-site-api/internal/domain"
	"lgpd-site-api/internal/scoring"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors is the Prometheus registry scraped on /metrics. It also
// implements submission.Recorder.
type Collectors struct {
	registry *prometheus.Registry

	submissions         *prometheus.CounterVec
	diagnosticScore     prometheus.Histogram
	maturityLevels      *prometheus.CounterVec
	rateLimitRejections prometheus.Counter
}

func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()

	c := &Collectors{
		registry: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lgpd_submissions_total",
			Help: "Form submissions by kind and outcome status.",
		}, []string{"kind", "status"}),
		diagnosticScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "lgpd_diagnostic_score",
			Help: "Total score of completed maturity diagnostics.",
			// faixas alinhadas aos limiares de maturidade
			Buckets: []float64{10, 20, 30, 39, 49, 59, 69, 80, 90, 100},
		}),
		maturityLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lgpd_diagnostic_maturity_total",
			Help: "Completed diagnostics by maturity level.",
		}, []string{"level"}),
		rateLimitRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lgpd_rate_limit_rejections_total",
			Help: "Submissions rejected by the per-IP rate limit.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.submissions,
		c.diagnosticScore,
		c.maturityLevels,
		c.rateLimitRejections,
	)

	// séries zeradas para cada nível, dashboards não ficam vazios
	for _, level := range scoring.Levels() {
		c.maturityLevels.WithLabelValues(string(level))
	}

	return c
}

func (c *Collectors) ObserveSubmission(kind domain.Kind, status string) {
	c.submissions.WithLabelValues(string(kind), status).Inc()
}

func (c *Collectors) ObserveScore(result scoring.Result) {
	c.diagnosticScore.Observe(float64(result.TotalScore))
	c.maturityLevels.WithLabelValues(string(result.MaturityLevel)).Inc()
}

func (c *Collectors) ObserveRateLimitRejection() {
	c.rateLimitRejections.Inc()
}

func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
