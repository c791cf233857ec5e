// Package metrics métricas Prometheus del portal (API y worker).
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "Duração das requisições HTTP em segundos",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Sincronizações (altforce, epi, bi)
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_sync_runs_total",
			Help: "Execuções de sincronização por job",
		},
		[]string{"job"},
	)

	SyncItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_sync_items_total",
			Help: "Registros processados por job e resultado",
		},
		[]string{"job", "result"}, // received, created, updated, error
	)

	SyncWindows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_sync_windows_total",
			Help: "Janelas de tempo consultadas na API externa",
		},
		[]string{"job"},
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "portal_sync_last_success_timestamp_seconds",
			Help: "Unix timestamp do último pase sem erros",
		},
		[]string{"job"},
	)

	// Circuit breaker de clientes HTTP externos
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "portal_circuit_breaker_state",
			Help: "Estado do circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_circuit_breaker_transitions_total",
			Help: "Transições de estado do circuit breaker",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_circuit_breaker_requests_total",
			Help: "Requisições através do circuit breaker por resultado",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	// Cache de consultas do SQL hub
	SQLHubCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_sqlhub_cache_total",
			Help: "Hits e misses do cache de consultas salvas",
		},
		[]string{"result"},
	)

	// Custos de IA
	AITokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_ai_tokens_total",
			Help: "Tokens consumidos por modelo e direção",
		},
		[]string{"model", "direction"}, // input, output
	)
)

// ObserveHTTP registra una requisición.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveAITokens suma tokens de una llamada al modelo.
func ObserveAITokens(model string, in, out int) {
	AITokens.WithLabelValues(model, "input").Add(float64(in))
	AITokens.WithLabelValues(model, "output").Add(float64(out))
}

var _ ports.SyncMetrics = Sync{}

// Sync implementa ports.SyncMetrics sobre los vectores globales.
type Sync struct {
	Now func() time.Time
}

// ObserveSync suma los contadores de un pase.
func (s Sync) ObserveSync(job string, received, created, updated, errors int) {
	SyncRuns.WithLabelValues(job).Inc()
	SyncItems.WithLabelValues(job, "received").Add(float64(received))
	SyncItems.WithLabelValues(job, "created").Add(float64(created))
	SyncItems.WithLabelValues(job, "updated").Add(float64(updated))
	SyncItems.WithLabelValues(job, "error").Add(float64(errors))
	if errors == 0 {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		SyncLastSuccess.WithLabelValues(job).Set(float64(now().Unix()))
	}
}

// ObserveWindow cuenta una ventana consultada.
func (s Sync) ObserveWindow(job string) {
	SyncWindows.WithLabelValues(job).Inc()
}
