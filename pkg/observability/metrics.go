package observability

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/relay/pkg/domain"
)

// Metrics records executor activity as Prometheus collectors.
type Metrics struct {
	StageVisits   *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	StageDegraded *prometheus.CounterVec
	Violations    *prometheus.CounterVec
	Runs          *prometheus.CounterVec
	RunSteps      prometheus.Histogram
	RunsActive    prometheus.Gauge

	degraded func(status string) bool
}

// MetricsOption configures Metrics.
type MetricsOption func(*Metrics)

// WithDegradedMatcher decides from a stage's status diagnostic whether the stage
// absorbed a failure. The default matches statuses containing "error".
func WithDegradedMatcher(match func(status string) bool) MetricsOption {
	return func(m *Metrics) {
		if match != nil {
			m.degraded = match
		}
	}
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default handler.
func NewMetrics(reg prometheus.Registerer, opts ...MetricsOption) *Metrics {
	m := &Metrics{
		StageVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_stage_visits_total",
				Help: "Total number of stage invocations",
			},
			[]string{"stage"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_stage_duration_seconds",
				Help:    "Duration of stage executions",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"stage"},
		),
		StageDegraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_stage_degraded_total",
				Help: "Stages that absorbed a collaborator failure and routed to their fallback",
			},
			[]string{"stage"},
		),
		Violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_contract_violations_total",
				Help: "Stage failures recovered by the executor",
			},
			[]string{"stage"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_runs_total",
				Help: "Finished runs by status and reason",
			},
			[]string{"status", "reason"},
		),
		RunSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_run_steps",
			Help:    "Stage invocations per run",
			Buckets: prometheus.LinearBuckets(1, 2, 13),
		}),
		RunsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relay_runs_active",
			Help: "Runs currently executing",
		}),
		degraded: func(status string) bool { return strings.Contains(status, "error") },
	}
	for _, opt := range opts {
		opt(m)
	}

	if reg != nil {
		reg.MustRegister(m.StageVisits, m.StageDuration, m.StageDegraded, m.Violations, m.Runs, m.RunSteps, m.RunsActive)
	}
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(context.Context, *domain.RunEvent) {
			m.RunsActive.Inc()
		},
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) {
			m.StageVisits.WithLabelValues(string(e.Stage)).Inc()
		},
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			m.StageDuration.WithLabelValues(string(e.Stage)).Observe(e.Duration.Seconds())
			if m.degraded(e.Status) {
				m.StageDegraded.WithLabelValues(string(e.Stage)).Inc()
			}
		},
		OnContractViolation: func(_ context.Context, e *domain.ViolationEvent) {
			m.Violations.WithLabelValues(string(e.Stage)).Inc()
		},
		OnRunEnd: func(_ context.Context, e *domain.RunEvent) {
			m.RunsActive.Dec()
			if e.Outcome == nil {
				return
			}
			m.Runs.WithLabelValues(string(e.Outcome.Status), e.Outcome.Reason).Inc()
			m.RunSteps.Observe(float64(e.Outcome.Steps))
		},
	}
}
