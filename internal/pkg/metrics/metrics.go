package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"estaleiro/internal/domain"
)

// Registry agrupa as métricas da aplicação em um registro próprio (sem o global do pacote).
type Registry struct {
	reg *prometheus.Registry

	// Previsão de kitting
	ForecastRuns       *prometheus.CounterVec // label result: ok|error
	ForecastEntries    *prometheus.GaugeVec   // label bucket, valor da última execução
	ForecastLatencySec prometheus.Histogram

	// Fila de picking
	PickingTransitions *prometheus.CounterVec // label status de destino
	QueueSize          prometheus.Gauge
	QueueRefreshes     *prometheus.CounterVec // label kind: full|incremental
	SSEClients         prometheus.Gauge

	// HTTP
	RateLimited prometheus.Counter
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "estaleiro_forecast_runs_total",
		Help: "Execuções da previsão de kitting por resultado.",
	}, []string{"result"})
	entries := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "estaleiro_forecast_entries",
		Help: "Entradas da última previsão por faixa.",
	}, []string{"bucket"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "estaleiro_forecast_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "estaleiro_picking_transitions_total",
		Help: "Transições de status das solicitações de picking.",
	}, []string{"status"})
	queueSize := prometheus.NewGauge(prometheus.GaugeOpts{Name: "estaleiro_picking_queue_size"})
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "estaleiro_picking_queue_refreshes_total",
	}, []string{"kind"})
	sseClients := prometheus.NewGauge(prometheus.GaugeOpts{Name: "estaleiro_sse_clients"})

	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{Name: "estaleiro_http_rate_limited_total"})

	r.MustRegister(runs, entries, latency, transitions, queueSize, refreshes, sseClients, rateLimited)
	return &Registry{
		reg:                r,
		ForecastRuns:       runs,
		ForecastEntries:    entries,
		ForecastLatencySec: latency,
		PickingTransitions: transitions,
		QueueSize:          queueSize,
		QueueRefreshes:     refreshes,
		SSEClients:         sseClients,
		RateLimited:        rateLimited,
	}
}

// ObserveForecast registra uma execução bem-sucedida e a contagem por faixa.
func (r *Registry) ObserveForecast(seconds float64, forecast []domain.ForecastEntry) {
	r.ForecastRuns.WithLabelValues("ok").Inc()
	r.ForecastLatencySec.Observe(seconds)

	counts := make(map[domain.Bucket]int, len(domain.Buckets))
	for _, e := range forecast {
		counts[e.Bucket]++
	}
	for _, b := range domain.Buckets {
		r.ForecastEntries.WithLabelValues(string(b)).Set(float64(counts[b]))
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
