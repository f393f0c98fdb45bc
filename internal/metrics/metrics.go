// Package metrics defines Prometheus counters and histograms for the
// turn orchestrator, capability checker, tool executor, and skill
// runner. Only cmd/sentinel records into them (its message and turn
// metrics); those components do not import this package. It's an
// ambient observability surface, present even though
// spec.md's Non-goals exclude a dashboard: these are the internal
// counters underneath one, not the dashboard itself.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every counter and histogram Sentinel exports. Unlike
// promauto's implicit global registration, New takes an explicit
// registry so tests (and multiple Sentinel instances in one process)
// don't collide on the default registry.
type Metrics struct {
	ToolInvocations   *prometheus.CounterVec
	ToolDuration      *prometheus.HistogramVec
	CapabilityChecks  *prometheus.CounterVec
	TurnDuration      *prometheus.HistogramVec
	TurnsTotal        *prometheus.CounterVec
	SkillLaunches     *prometheus.CounterVec
	ActiveSkillProcs  *prometheus.GaugeVec
	MessagesProcessed *prometheus.CounterVec
}

// New creates and registers every metric against registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ToolInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_tool_invocations_total",
				Help: "Total tool invocations by tool name and outcome",
			},
			[]string{"tool", "outcome"},
		),
		ToolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentinel_tool_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool"},
		),
		CapabilityChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_capability_checks_total",
				Help: "Total capability checks by capability kind and decision",
			},
			[]string{"capability", "decision"},
		),
		TurnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentinel_turn_duration_seconds",
				Help:    "Duration of a full agent turn in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"platform"},
		),
		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_turns_total",
				Help: "Total turns by platform and end reason",
			},
			[]string{"platform", "reason"},
		),
		SkillLaunches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_skill_launches_total",
				Help: "Total skill subprocess launches by skill name and outcome",
			},
			[]string{"skill", "outcome"},
		),
		ActiveSkillProcs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentinel_active_skill_processes",
				Help: "Current number of warm skill subprocess sessions",
			},
			[]string{"skill"},
		),
		MessagesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_messages_total",
				Help: "Total messages processed by platform and direction",
			},
			[]string{"platform", "direction"},
		),
	}

	registry.MustRegister(
		m.ToolInvocations,
		m.ToolDuration,
		m.CapabilityChecks,
		m.TurnDuration,
		m.TurnsTotal,
		m.SkillLaunches,
		m.ActiveSkillProcs,
		m.MessagesProcessed,
	)

	return m
}

// RecordTool records the outcome and duration of one tool invocation.
func (m *Metrics) RecordTool(tool, outcome string, duration time.Duration) {
	m.ToolInvocations.WithLabelValues(tool, outcome).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordCapabilityCheck records one capability decision.
func (m *Metrics) RecordCapabilityCheck(capability, decision string) {
	m.CapabilityChecks.WithLabelValues(capability, decision).Inc()
}

// RecordTurn records a completed turn's duration and end reason.
func (m *Metrics) RecordTurn(platform, reason string, duration time.Duration) {
	m.TurnsTotal.WithLabelValues(platform, reason).Inc()
	m.TurnDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordSkillLaunch records one skill subprocess launch attempt.
func (m *Metrics) RecordSkillLaunch(skill, outcome string) {
	m.SkillLaunches.WithLabelValues(skill, outcome).Inc()
}

// SkillProcessStarted increments the warm-session gauge for a skill.
func (m *Metrics) SkillProcessStarted(skill string) {
	m.ActiveSkillProcs.WithLabelValues(skill).Inc()
}

// SkillProcessStopped decrements the warm-session gauge for a skill.
func (m *Metrics) SkillProcessStopped(skill string) {
	m.ActiveSkillProcs.WithLabelValues(skill).Dec()
}

// RecordMessage records one message crossing a connector boundary.
func (m *Metrics) RecordMessage(platform, direction string) {
	m.MessagesProcessed.WithLabelValues(platform, direction).Inc()
}
