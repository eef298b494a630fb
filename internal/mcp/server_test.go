package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/ai-curious-brain/internal/core"
	"github.com/valter-silva-au/ai-curious-brain/internal/observability"
	"github.com/valter-silva-au/ai-curious-brain/internal/world"
	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

type fakeMetricsCalculator struct {
	metrics *observability.Metrics
	err     error
}

func (f *fakeMetricsCalculator) Calculate(_ time.Time) (*observability.Metrics, error) {
	return f.metrics, f.err
}

type fakeAlertEngine struct {
	alerts []observability.Alert
	err    error
}

func (f *fakeAlertEngine) Evaluate() ([]observability.Alert, error) {
	return f.alerts, f.err
}

// newTestBrain builds a real agent over the seeded world and curriculum.
func newTestBrain(t *testing.T) *core.Agent {
	t.Helper()
	lex := core.NewLexicon(nil)
	lex.Seed(core.Curriculum())
	return core.NewAgent(core.AgentDeps{
		Config:  core.DefaultBrainConfig(),
		Lexicon: lex,
		World:   world.Seeded(),
		Graph:   core.NewConceptGraph(),
	})
}

// invoke connects a fresh client to srv over in-memory transports and calls
// one tool.
func invoke(t *testing.T, srv *Server, name string, args map[string]any) (*gomcp.CallToolResult, error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serverT, clientT := gomcp.NewInMemoryTransports()
	go func() { _ = srv.MCPServer().Run(ctx, serverT) }()

	client := gomcp.NewClient(&gomcp.Implementation{Name: "acb-test", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("connecting client: %v", err)
	}
	defer session.Close()
	return session.CallTool(ctx, &gomcp.CallToolParams{Name: name, Arguments: args})
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()
	res, err := invoke(t, srv, name, args)
	if err != nil {
		t.Fatalf("calling %s: %v", name, err)
	}
	return res
}

// callToolAllowError returns nil when the call fails at the protocol level,
// e.g. on schema validation.
func callToolAllowError(t *testing.T, srv *Server, name string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()
	res, err := invoke(t, srv, name, args)
	if err != nil {
		return nil
	}
	return res
}

// decode unmarshals a tool result from its text or structured content.
func decode(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err == nil {
		return
	}
	if result.StructuredContent == nil {
		t.Fatalf("no decodable output (text was: %s)", text)
	}
	data, _ := json.Marshal(result.StructuredContent)
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshalling structured content: %v", err)
	}
}

func TestDispatchSocial(t *testing.T) {
	srv := NewServer(newTestBrain(t), nil, nil, "test")

	result := callTool(t, srv, "dispatch", map[string]any{"kind": "social", "social": "greeting"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out responseOutput
	decode(t, result, &out)
	if out.Kind != string(models.ResponseSocial) {
		t.Errorf("kind = %q, want social", out.Kind)
	}
	if out.Text == "" {
		t.Error("expected a greeting text")
	}
}

func TestDispatchUnknownWordCreatesGoal(t *testing.T) {
	brain := newTestBrain(t)
	srv := NewServer(brain, nil, nil, "test")

	result := callTool(t, srv, "dispatch", map[string]any{
		"kind": "command",
		"verb": "take",
		"args": []string{"flute"},
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out responseOutput
	decode(t, result, &out)
	if out.Kind != string(models.ResponseGoal) || len(out.GoalIDs) != 1 {
		t.Fatalf("response = %+v, want one goal", out)
	}
	goals := brain.ActiveGoals()
	if len(goals) != 1 || goals[0].Kind != models.GoalUnderstand {
		t.Errorf("active goals = %+v, want one understand goal", goals)
	}
}

func TestDispatchClarification(t *testing.T) {
	srv := NewServer(newTestBrain(t), nil, nil, "test")

	result := callTool(t, srv, "dispatch", map[string]any{"kind": "command", "verb": "take", "args": []string{"the"}})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	var out responseOutput
	decode(t, result, &out)
	if out.Kind != string(models.ResponseClarification) {
		t.Errorf("kind = %q, want clarification", out.Kind)
	}
}

func TestDispatchMissingKind(t *testing.T) {
	srv := NewServer(newTestBrain(t), nil, nil, "test")

	result := callToolAllowError(t, srv, "dispatch", map[string]any{})
	if result == nil {
		return
	}
	if !result.IsError {
		t.Fatal("expected error result for missing kind")
	}
}

func TestTeachResumesWaitingGoal(t *testing.T) {
	brain := newTestBrain(t)
	srv := NewServer(brain, nil, nil, "test")

	resp, err := brain.Dispatch(models.CommandIntent("take", "flute"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := brain.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}

	result := callTool(t, srv, "teach", map[string]any{
		"word":       "flute",
		"word_type":  "noun",
		"expression": "shape == 'cylinder'",
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	var out teachOutput
	decode(t, result, &out)
	if out.Word != "flute" || out.Source != models.SourceTaught {
		t.Errorf("teach output = %+v", out)
	}

	goals := brain.ActiveGoals()
	if len(goals) != 1 || goals[0].ID != resp.GoalIDs[0] || goals[0].Status != models.GoalExecuting {
		t.Errorf("goals after teach = %+v, want %s executing", goals, resp.GoalIDs[0])
	}
}

func TestTeachInvalidMeaning(t *testing.T) {
	srv := NewServer(newTestBrain(t), nil, nil, "test")

	result := callTool(t, srv, "teach", map[string]any{
		"word":       "flute",
		"word_type":  "noun",
		"expression": "shape ==",
	})
	if !result.IsError {
		t.Fatal("expected error result for a meaning that does not parse")
	}
}

func TestTickAndListGoals(t *testing.T) {
	brain := newTestBrain(t)
	srv := NewServer(brain, nil, nil, "test")

	if _, err := brain.Dispatch(models.CommandIntent("take", "the", "red", "sphere")); err != nil {
		t.Fatal(err)
	}

	result := callTool(t, srv, "tick", map[string]any{"count": 3})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	var ticks tickOutput
	decode(t, result, &ticks)
	if len(ticks.Ticks) != 3 {
		t.Fatalf("got %d tick reports, want 3", len(ticks.Ticks))
	}

	result = callTool(t, srv, "list_goals", map[string]any{})
	var active listGoalsOutput
	decode(t, result, &active)
	if active.Count != 0 {
		t.Errorf("active goals = %d, want 0", active.Count)
	}

	result = callTool(t, srv, "list_goals", map[string]any{"history": true})
	var all listGoalsOutput
	decode(t, result, &all)
	if all.Count != 1 || all.Goals[0].Status != string(models.GoalCompleted) {
		t.Errorf("history = %+v, want one completed goal", all.Goals)
	}
	if all.Count == 1 && all.Goals[0].StepsExecuted != 3 {
		t.Errorf("steps executed = %d, want 3", all.Goals[0].StepsExecuted)
	}
}

func TestTickCountTooLarge(t *testing.T) {
	srv := NewServer(newTestBrain(t), nil, nil, "test")

	result := callTool(t, srv, "tick", map[string]any{"count": maxTicksPerCall + 1})
	if !result.IsError {
		t.Fatal("expected error result for an oversized tick count")
	}
}

func TestAbandonGoal(t *testing.T) {
	brain := newTestBrain(t)
	srv := NewServer(brain, nil, nil, "test")

	resp, err := brain.Dispatch(models.CommandIntent("take", "flute"))
	if err != nil {
		t.Fatal(err)
	}

	result := callTool(t, srv, "abandon_goal", map[string]any{"goal_id": resp.GoalIDs[0]})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	var out goalOutput
	decode(t, result, &out)
	if out.Status != string(models.GoalAbandoned) {
		t.Errorf("status = %q, want abandoned", out.Status)
	}
	if out.Reason != "abandoned by user" {
		t.Errorf("reason = %q", out.Reason)
	}

	result = callTool(t, srv, "abandon_goal", map[string]any{"goal_id": resp.GoalIDs[0]})
	if !result.IsError {
		t.Error("abandoning a terminal goal should fail")
	}
}

func TestConceptsRelatedTo(t *testing.T) {
	brain := newTestBrain(t)
	brain.Graph().Ensure("sphere", models.WordNoun)
	brain.Graph().Ensure("red", models.WordProperty)
	brain.Graph().Link("sphere", "has_property", "red")

	srv := NewServer(brain, nil, nil, "test")
	result := callTool(t, srv, "concepts_related_to", map[string]any{"concept": "sphere"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	var out relatedOutput
	decode(t, result, &out)
	if len(out.Related) != 1 || out.Related[0].Concept != "red" {
		t.Errorf("related = %+v, want [red]", out.Related)
	}

	result = callTool(t, srv, "concepts_related_to", map[string]any{"concept": "unknown"})
	var empty relatedOutput
	decode(t, result, &empty)
	if len(empty.Related) != 0 {
		t.Errorf("related to an unknown concept = %+v, want none", empty.Related)
	}
}

// eventSink writes agent events to a JSONL log the way the app wires it.
type eventSink struct{ log observability.EventLog }

func (e eventSink) LogEvent(eventType string, data map[string]any) error {
	return e.log.Write(observability.NewEvent(eventType, data))
}

// newLoggedBrain is newTestBrain with a real event log behind it.
func newLoggedBrain(t *testing.T) (*core.Agent, observability.EventLog) {
	t.Helper()
	log, err := observability.NewJSONLEventLog(filepath.Join(t.TempDir(), observability.EventLogFileName))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = log.Close() })
	lex := core.NewLexicon(nil)
	lex.Seed(core.Curriculum())
	brain := core.NewAgent(core.AgentDeps{
		Config:   core.DefaultBrainConfig(),
		Lexicon:  lex,
		World:    world.Seeded(),
		EventLog: eventSink{log: log},
	})
	return brain, log
}

func TestGetMetricsFromEventLog(t *testing.T) {
	brain, log := newLoggedBrain(t)
	srv := NewServer(brain, observability.NewMetricsCalculator(log), nil, "test")

	callTool(t, srv, "dispatch", map[string]any{"kind": "command", "verb": "take", "args": []string{"flute"}})
	callTool(t, srv, "teach", map[string]any{"word": "flute", "word_type": "noun", "expression": "shape == 'cylinder'"})

	result := callTool(t, srv, "get_metrics", map[string]any{"since": "1h"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	var m metricsOutput
	decode(t, result, &m)
	if m.GoalsCreated < 1 || m.GoalsByKind["understand"] != 1 {
		t.Errorf("goals = %d by kind %v, want an understand goal", m.GoalsCreated, m.GoalsByKind)
	}
	if m.WordsTaught != 1 || m.TaughtBySource[models.SourceTaught] != 1 {
		t.Errorf("words taught = %d by source %v, want flute from teaching", m.WordsTaught, m.TaughtBySource)
	}
	if m.NewestEvent == "" {
		t.Error("expected newest_event to be set")
	}
}

func TestGetMetricsErrors(t *testing.T) {
	tests := []struct {
		name string
		mc   observability.MetricsCalculator
		args map[string]any
	}{
		{"disabled", nil, map[string]any{}},
		{"bad window", &fakeMetricsCalculator{metrics: &observability.Metrics{}}, map[string]any{"since": "7y"}},
		{"calculate fails", &fakeMetricsCalculator{err: errors.New("log unreadable")}, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(newTestBrain(t), tt.mc, nil, "test")
			result := callTool(t, srv, "get_metrics", tt.args)
			if !result.IsError || extractText(result) == "" {
				t.Fatalf("expected an error result, got %+v", result)
			}
		})
	}
}

func TestGetAlertsFromEventLog(t *testing.T) {
	_, log := newLoggedBrain(t)
	stale := observability.NewEvent(models.LogGoalStatusChanged, map[string]any{
		"goal_id": "goal-9", "old_status": "executing", "new_status": "awaiting_teaching",
	})
	stale.Time = time.Now().UTC().Add(-72 * time.Hour)
	if err := log.Write(stale); err != nil {
		t.Fatal(err)
	}
	ae := observability.NewAlertEngine(log, observability.DefaultAlertThresholds())
	srv := NewServer(newTestBrain(t), nil, ae, "test")

	result := callTool(t, srv, "get_alerts", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	var out getAlertsOutput
	decode(t, result, &out)
	if out.Count != 1 || out.Alerts[0].Severity != "high" || out.Alerts[0].ID != "awaiting-goal-9" {
		t.Errorf("alerts = %+v, want one high alert for goal-9", out)
	}
}

func TestGetAlertsEmptyAndDisabled(t *testing.T) {
	srv := NewServer(newTestBrain(t), nil, &fakeAlertEngine{alerts: []observability.Alert{}}, "test")
	result := callTool(t, srv, "get_alerts", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	var out getAlertsOutput
	decode(t, result, &out)
	if out.Count != 0 {
		t.Errorf("expected 0 alerts, got %d", out.Count)
	}

	srv = NewServer(newTestBrain(t), nil, nil, "test")
	if result := callTool(t, srv, "get_alerts", map[string]any{}); !result.IsError {
		t.Fatal("expected error when alert engine is nil")
	}
}

// extractText extracts the text from the first TextContent in a CallToolResult.
func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
