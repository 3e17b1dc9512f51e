// Package metrics exposes Prometheus metrics for the HTTP API and agent runs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector holds the thinky metrics. Each Collector owns its registry so
// several can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	agentRunsTotal   *prometheus.CounterVec
	agentRunDuration *prometheus.HistogramVec
	agentsRegistered prometheus.Gauge

	llmTokensUsed  *prometheus.CounterVec
	toolCallsTotal *prometheus.CounterVec

	logger *zap.Logger
}

func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.agentRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_runs_total",
			Help:      "Total number of agent runs",
		},
		[]string{"agent", "status"},
	)

	c.agentRunDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_run_duration_seconds",
			Help:      "Agent run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"agent"},
	)

	c.agentsRegistered = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "agents_registered",
			Help:      "Number of agents in the registry",
		},
	)

	c.llmTokensUsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"provider", "model", "type"}, // type: input, output
	)

	c.toolCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls made by agents",
		},
		[]string{"tool", "status"},
	)

	return c
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAgentRun records a finished run. status is "success" or "error".
func (c *Collector) RecordAgentRun(agentID, status string, duration time.Duration) {
	c.agentRunsTotal.WithLabelValues(agentID, status).Inc()
	c.agentRunDuration.WithLabelValues(agentID).Observe(duration.Seconds())
}

func (c *Collector) RecordTokens(provider, model string, input, output int64) {
	c.llmTokensUsed.WithLabelValues(provider, model, "input").Add(float64(input))
	c.llmTokensUsed.WithLabelValues(provider, model, "output").Add(float64(output))
}

func (c *Collector) RecordToolCall(tool string, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}
	c.toolCallsTotal.WithLabelValues(tool, status).Inc()
}

func (c *Collector) SetAgentsRegistered(n int) {
	c.agentsRegistered.Set(float64(n))
}
