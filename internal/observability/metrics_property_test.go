package observability

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Feature: ai-curious-brain, Property 9: Metrics counts match the logged goal events
// For any sequence of goal.created and terminal goal events, the calculator
// reports exactly as many of each as were written, split by kind.
func TestMetricsMatchGoalEventsProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		el, err := NewJSONLEventLog(filepath.Join(t.TempDir(), fmt.Sprintf("events-%d.jsonl", rapid.Int().Draw(rt, "file"))))
		if err != nil {
			rt.Fatalf("creating event log: %v", err)
		}
		defer el.Close()

		kinds := []string{"possess", "understand", "verify", "conditional", "answer"}
		types := []string{"goal.created", "goal.completed", "goal.failed", "goal.abandoned", "lexicon.taught"}
		base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

		n := rapid.IntRange(0, 30).Draw(rt, "n")
		want := make(map[string]int)
		wantKinds := make(map[string]int)
		for i := 0; i < n; i++ {
			typ := rapid.SampledFrom(types).Draw(rt, fmt.Sprintf("type_%d", i))
			kind := rapid.SampledFrom(kinds).Draw(rt, fmt.Sprintf("kind_%d", i))
			want[typ]++
			if typ == "goal.created" {
				wantKinds[kind]++
			}
			ev := Event{
				Time:    base.Add(time.Duration(i) * time.Second),
				Level:   LevelFor(typ),
				Type:    typ,
				Message: typ,
				Data:    map[string]any{"goal_id": fmt.Sprintf("g%d", i), "kind": kind, "source": "taught"},
			}
			if err := el.Write(ev); err != nil {
				rt.Fatalf("writing event: %v", err)
			}
		}

		m, err := NewMetricsCalculator(el).Calculate(base.Add(-time.Hour))
		if err != nil {
			rt.Fatalf("calculating metrics: %v", err)
		}
		if m.GoalsCreated != want["goal.created"] {
			rt.Errorf("GoalsCreated = %d, want %d", m.GoalsCreated, want["goal.created"])
		}
		if m.GoalsCompleted != want["goal.completed"] || m.GoalsFailed != want["goal.failed"] || m.GoalsAbandoned != want["goal.abandoned"] {
			rt.Errorf("terminal counts %d/%d/%d, want %v", m.GoalsCompleted, m.GoalsFailed, m.GoalsAbandoned, want)
		}
		if m.WordsTaught != want["lexicon.taught"] {
			rt.Errorf("WordsTaught = %d, want %d", m.WordsTaught, want["lexicon.taught"])
		}
		for k, c := range wantKinds {
			if m.GoalsByKind[k] != c {
				rt.Errorf("GoalsByKind[%s] = %d, want %d", k, m.GoalsByKind[k], c)
			}
		}
		if m.EventCount != n {
			rt.Errorf("EventCount = %d, want %d", m.EventCount, n)
		}
	})
}
