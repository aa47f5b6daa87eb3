// Package metrics adapts nova's internal/metrics/prometheus.go pattern
// to the Gateway's scope: task lifecycle counters and RPC latency
// histograms, served over /metrics via promhttp.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics wraps the Prometheus collectors registered for the Gateway
// process and for the Assimilator, which records tasks_finished_total
// and delivers it through Push since it has no scrape endpoint. The
// Validator records no metrics; it emits structured logs instead.
type Metrics struct {
	registry *prometheus.Registry

	tasksCreatedTotal   prometheus.Counter
	tasksFinishedTotal  *prometheus.CounterVec
	createTaskDuration  prometheus.Histogram
	pollTaskDuration    prometheus.Histogram
	workLaunchDuration  prometheus.Histogram
	workLaunchFailTotal prometheus.Counter
}

var defaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// New creates and registers the Gateway's metrics collectors under the
// given namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stoilo"
	}
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		tasksCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_created_total",
			Help:      "Total number of tasks accepted by CreateTask.",
		}),
		tasksFinishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_finished_total",
			Help:      "Total number of tasks transitioned to FINISHED, by result_status.",
		}, []string{"result_status"}),
		createTaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "create_task_duration_seconds",
			Help:      "CreateTask RPC handler latency.",
			Buckets:   defaultBuckets,
		}),
		pollTaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_task_duration_seconds",
			Help:      "PollTask RPC handler latency.",
			Buckets:   defaultBuckets,
		}),
		workLaunchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "work_launch_duration_seconds",
			Help:      "Work Launcher create_work latency (stage_file + create_work subprocesses).",
			Buckets:   defaultBuckets,
		}),
		workLaunchFailTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "work_launch_failures_total",
			Help:      "Total number of Work Launcher failures surfaced as SYSTEM_ERROR.",
		}),
	}

	registry.MustRegister(
		m.tasksCreatedTotal,
		m.tasksFinishedTotal,
		m.createTaskDuration,
		m.pollTaskDuration,
		m.workLaunchDuration,
		m.workLaunchFailTotal,
	)
	return m
}

// Handler returns the http.Handler serving /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCreateTask(seconds float64, ok bool) {
	m.createTaskDuration.Observe(seconds)
	if ok {
		m.tasksCreatedTotal.Inc()
	}
}

func (m *Metrics) ObservePollTask(seconds float64) {
	m.pollTaskDuration.Observe(seconds)
}

func (m *Metrics) ObserveWorkLaunch(seconds float64, err error) {
	m.workLaunchDuration.Observe(seconds)
	if err != nil {
		m.workLaunchFailTotal.Inc()
	}
}

func (m *Metrics) RecordTaskFinished(resultStatus string) {
	m.tasksFinishedTotal.WithLabelValues(resultStatus).Inc()
}

// Push delivers the registry's current state to a Prometheus
// Pushgateway under jobName. The Assimilator is a one-shot CLI with no
// scrape endpoint of its own, so this is how its tasks_finished_total
// counter reaches Prometheus at all. addr == "" is a no-op.
func (m *Metrics) Push(addr, jobName string) error {
	if addr == "" {
		return nil
	}
	return push.New(addr, jobName).Gatherer(m.registry).Push()
}
