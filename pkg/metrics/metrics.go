// Package metrics exposes Prometheus counters for actions and privileged
// commands.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Command results
const (
	CommandOK         = "ok"
	CommandFailed     = "failed"
	CommandTimeout    = "timeout"
	CommandSpawnError = "spawn_error"
)

var (
	registry = prometheus.NewRegistry()

	actionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "a11y_kernel",
		Name:      "actions_total",
		Help:      "Actions executed, by action, strategy and result.",
	}, []string{"action", "strategy", "result"})

	actionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "a11y_kernel",
		Name:      "action_duration_seconds",
		Help:      "Wall-clock time of a whole action cascade.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"action"})

	commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "a11y_kernel",
		Name:      "privileged_commands_total",
		Help:      "Privileged shell invocations, by result.",
	}, []string{"result"})
)

func init() {
	registry.MustRegister(actionsTotal, actionDuration, commandsTotal)
}

// ObserveAction records one action outcome.
func ObserveAction(action, strategy string, ok bool, elapsed time.Duration) {
	result := "failed"
	if ok {
		result = "ok"
	}
	if strategy == "" {
		strategy = "none"
	}
	actionsTotal.WithLabelValues(action, strategy, result).Inc()
	actionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// ObserveCommand records one privileged command result.
func ObserveCommand(result string) {
	commandsTotal.WithLabelValues(result).Inc()
}

// Handler serves the metrics registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Registry returns the registry for tests.
func Registry() *prometheus.Registry {
	return registry
}
