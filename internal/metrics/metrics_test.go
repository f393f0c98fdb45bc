package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordToolIncrementsCounterAndHistogram(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordTool("read_file", "ok", 25*time.Millisecond)
	m.RecordTool("read_file", "ok", 30*time.Millisecond)
	m.RecordTool("run_command", "timeout", 2*time.Second)

	expected := `
		# HELP sentinel_tool_invocations_total Total tool invocations by tool name and outcome
		# TYPE sentinel_tool_invocations_total counter
		sentinel_tool_invocations_total{outcome="ok",tool="read_file"} 2
		sentinel_tool_invocations_total{outcome="timeout",tool="run_command"} 1
	`
	if err := testutil.CollectAndCompare(m.ToolInvocations, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected tool invocation counts: %v", err)
	}
}

func TestRecordCapabilityCheckLabelsByDecision(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordCapabilityCheck("read_paths", "allowed")
	m.RecordCapabilityCheck("read_paths", "denied")
	m.RecordCapabilityCheck("read_paths", "denied")

	if count := testutil.CollectAndCount(m.CapabilityChecks); count != 2 {
		t.Errorf("got %d label combinations, want 2", count)
	}
}

func TestSkillProcessGaugeTracksLifecycle(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.SkillProcessStarted("demo")
	m.SkillProcessStarted("demo")
	m.SkillProcessStopped("demo")

	expected := `
		# HELP sentinel_active_skill_processes Current number of warm skill subprocess sessions
		# TYPE sentinel_active_skill_processes gauge
		sentinel_active_skill_processes{skill="demo"} 1
	`
	if err := testutil.CollectAndCompare(m.ActiveSkillProcs, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected gauge value: %v", err)
	}
}

func TestRecordTurnCountsByReason(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordTurn("telegram", "end_turn", time.Second)
	m.RecordTurn("telegram", "cap_hit", 5*time.Second)

	if count := testutil.CollectAndCount(m.TurnsTotal); count != 2 {
		t.Errorf("got %d label combinations, want 2", count)
	}
}

func TestNewRegistersAllCollectorsWithoutPanicking(t *testing.T) {
	registry := prometheus.NewRegistry()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("New() panicked: %v", r)
		}
	}()
	New(registry)
}
