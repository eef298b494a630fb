// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the agent's intent, teaching and scheduling operations as MCP tools.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/ai-curious-brain/internal/core"
	"github.com/valter-silva-au/ai-curious-brain/internal/observability"
	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// maxTicksPerCall bounds the tick tool.
const maxTicksPerCall = 100

// Brain is the subset of *core.Agent the server drives.
type Brain interface {
	Dispatch(intent models.Intent) (models.Response, error)
	Teach(word string, wordType models.WordType, expression, source string) (models.LexiconEntry, error)
	Tick(ctx context.Context) (core.TickReport, error)
	ActiveGoals() []*models.Goal
	GoalHistory() []*models.Goal
	Abandon(id, reason string) (*models.Goal, error)
	ConceptsRelatedTo(name string) []models.RelatedConcept
}

// Server wraps the agent and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	brain       Brain
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server over brain. metricsCalc and alertEngine
// may be nil if observability is disabled.
func NewServer(brain Brain, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		brain:       brain,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "acb", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type dispatchInput struct {
	Kind       string   `json:"kind" jsonschema:"required,intent kind: command, query, teach, social or unresolved"`
	Verb       string   `json:"verb,omitempty" jsonschema:"command verb (e.g. take, verify, if)"`
	Query      string   `json:"query,omitempty" jsonschema:"query kind: find, verify, where, inventory or knowledge"`
	Args       []string `json:"args,omitempty" jsonschema:"command or query arguments"`
	Word       string   `json:"word,omitempty" jsonschema:"word to teach"`
	WordType   string   `json:"word_type,omitempty" jsonschema:"word type of the taught word"`
	Expression string   `json:"expression,omitempty" jsonschema:"meaning of the taught word"`
	Social     string   `json:"social,omitempty" jsonschema:"social kind: greeting, thanks or farewell"`
	Tokens     []string `json:"tokens,omitempty" jsonschema:"tokens of an unresolved utterance"`
	Priority   int      `json:"priority,omitempty" jsonschema:"goal priority override"`
}

type responseOutput struct {
	Kind    string   `json:"kind"`
	Text    string   `json:"text"`
	GoalIDs []string `json:"goal_ids,omitempty"`
	Cause   string   `json:"cause,omitempty"`
}

type teachInput struct {
	Word       string `json:"word" jsonschema:"required,the word being taught"`
	WordType   string `json:"word_type" jsonschema:"required,property, noun, relation, action, social, inquiry, pronoun, article, verb or concept"`
	Expression string `json:"expression" jsonschema:"required,the meaning, e.g. obj.color == 'red'"`
}

type teachOutput struct {
	Word       string `json:"word"`
	WordType   string `json:"word_type"`
	Expression string `json:"expression"`
	Source     string `json:"source"`
}

type tickInput struct {
	Count int `json:"count,omitempty" jsonschema:"number of ticks to run (default 1, max 100)"`
}

type tickOutput struct {
	Ticks []core.TickReport `json:"ticks"`
}

type listGoalsInput struct {
	History bool `json:"history,omitempty" jsonschema:"include terminal goals"`
}

type goalOutput struct {
	ID            string   `json:"id"`
	Kind          string   `json:"kind"`
	Status        string   `json:"status"`
	Priority      int      `json:"priority"`
	Target        []string `json:"target,omitempty"`
	UnknownTokens []string `json:"unknown_tokens,omitempty"`
	BlockedBy     string   `json:"blocked_by,omitempty"`
	Steps         int      `json:"steps"`
	StepsExecuted int      `json:"steps_executed"`
	Reason        string   `json:"reason,omitempty"`
	Result        string   `json:"result,omitempty"`
	Created       string   `json:"created"`
}

type listGoalsOutput struct {
	Goals []goalOutput `json:"goals"`
	Count int          `json:"count"`
}

type abandonGoalInput struct {
	GoalID string `json:"goal_id" jsonschema:"required,the goal to abandon"`
	Reason string `json:"reason,omitempty" jsonschema:"why the goal is abandoned"`
}

type relatedInput struct {
	Concept string `json:"concept" jsonschema:"required,the concept name"`
}

type relatedOutput struct {
	Concept string                  `json:"concept"`
	Related []models.RelatedConcept `json:"related"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	GoalsCreated     int            `json:"goals_created"`
	GoalsCompleted   int            `json:"goals_completed"`
	GoalsFailed      int            `json:"goals_failed"`
	GoalsAbandoned   int            `json:"goals_abandoned"`
	GoalsByKind      map[string]int `json:"goals_by_kind"`
	WordsTaught      int            `json:"words_taught"`
	TaughtBySource   map[string]int `json:"taught_by_source"`
	QuestionsAsked   int            `json:"questions_asked"`
	ReflectionPasses int            `json:"reflection_passes"`
	EventCount       int            `json:"event_count"`
	OldestEvent      string         `json:"oldest_event,omitempty"`
	NewestEvent      string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "dispatch",
		Description: "Route one parsed intent. Returns a direct answer, the ids of goals created, or a clarification.",
	}, s.handleDispatch)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "teach",
		Description: "Teach the agent a word. The meaning must type-check against the word type; goals waiting on the word resume.",
	}, s.handleTeach)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "tick",
		Description: "Run scheduler ticks. Each tick advances one goal step, runs reflection, or consults the learner.",
	}, s.handleTick)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_goals",
		Description: "List active goals in service order, optionally followed by terminal goals.",
	}, s.handleListGoals)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "abandon_goal",
		Description: "Cancel a non-terminal goal between steps.",
	}, s.handleAbandonGoal)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "concepts_related_to",
		Description: "List concepts linked to a concept in the semantic graph, strongest first.",
	}, s.handleRelated)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log: goals by kind and outcome, words taught, questions asked.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (goals waiting too long, failed goals, unanswered questions).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleDispatch(_ context.Context, _ *gomcp.CallToolRequest, input dispatchInput) (*gomcp.CallToolResult, responseOutput, error) {
	if input.Kind == "" {
		return errorResult("kind is required"), responseOutput{}, nil
	}
	intent := models.Intent{
		Kind:       models.IntentKind(input.Kind),
		Verb:       input.Verb,
		Query:      models.QueryKind(input.Query),
		Args:       input.Args,
		Word:       input.Word,
		WordType:   models.WordType(input.WordType),
		Expression: input.Expression,
		Social:     input.Social,
		Tokens:     input.Tokens,
		Priority:   input.Priority,
	}
	resp, err := s.brain.Dispatch(intent)
	if err != nil {
		return errorResult(fmt.Sprintf("dispatching intent: %s", err)), responseOutput{}, nil
	}
	out := responseOutput{Kind: string(resp.Kind), Text: resp.Text, GoalIDs: resp.GoalIDs}
	if resp.Cause != nil {
		out.Cause = resp.Cause.Error()
	}
	return nil, out, nil
}

func (s *Server) handleTeach(_ context.Context, _ *gomcp.CallToolRequest, input teachInput) (*gomcp.CallToolResult, teachOutput, error) {
	if input.Word == "" {
		return errorResult("word is required"), teachOutput{}, nil
	}
	entry, err := s.brain.Teach(input.Word, models.WordType(input.WordType), input.Expression, models.SourceTaught)
	if err != nil {
		return errorResult(fmt.Sprintf("teaching %q: %s", input.Word, err)), teachOutput{}, nil
	}
	return nil, teachOutput{
		Word:       entry.Word,
		WordType:   string(entry.WordType),
		Expression: entry.Expression,
		Source:     entry.Source,
	}, nil
}

func (s *Server) handleTick(ctx context.Context, _ *gomcp.CallToolRequest, input tickInput) (*gomcp.CallToolResult, tickOutput, error) {
	n := input.Count
	if n <= 0 {
		n = 1
	}
	if n > maxTicksPerCall {
		return errorResult(fmt.Sprintf("count %d exceeds the maximum of %d", n, maxTicksPerCall)), tickOutput{}, nil
	}
	out := tickOutput{Ticks: make([]core.TickReport, 0, n)}
	for i := 0; i < n; i++ {
		rep, err := s.brain.Tick(ctx)
		out.Ticks = append(out.Ticks, rep)
		if err != nil {
			return errorResult(fmt.Sprintf("tick %d: %s", rep.Tick, err)), out, nil
		}
	}
	return nil, out, nil
}

func (s *Server) handleListGoals(_ context.Context, _ *gomcp.CallToolRequest, input listGoalsInput) (*gomcp.CallToolResult, listGoalsOutput, error) {
	goals := s.brain.ActiveGoals()
	if input.History {
		goals = append(goals, s.brain.GoalHistory()...)
	}
	out := listGoalsOutput{Goals: make([]goalOutput, len(goals)), Count: len(goals)}
	for i, g := range goals {
		out.Goals[i] = goalToOutput(g)
	}
	return nil, out, nil
}

func (s *Server) handleAbandonGoal(_ context.Context, _ *gomcp.CallToolRequest, input abandonGoalInput) (*gomcp.CallToolResult, goalOutput, error) {
	if input.GoalID == "" {
		return errorResult("goal_id is required"), goalOutput{}, nil
	}
	reason := input.Reason
	if reason == "" {
		reason = "abandoned by user"
	}
	g, err := s.brain.Abandon(input.GoalID, reason)
	if err != nil {
		return errorResult(fmt.Sprintf("abandoning goal %s: %s", input.GoalID, err)), goalOutput{}, nil
	}
	return nil, goalToOutput(g), nil
}

func (s *Server) handleRelated(_ context.Context, _ *gomcp.CallToolRequest, input relatedInput) (*gomcp.CallToolResult, relatedOutput, error) {
	if input.Concept == "" {
		return errorResult("concept is required"), relatedOutput{}, nil
	}
	related := s.brain.ConceptsRelatedTo(input.Concept)
	if related == nil {
		related = []models.RelatedConcept{}
	}
	return nil, relatedOutput{Concept: input.Concept, Related: related}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceTime, err := observability.ParseSince(input.Since, time.Now().UTC())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		GoalsCreated:     metrics.GoalsCreated,
		GoalsCompleted:   metrics.GoalsCompleted,
		GoalsFailed:      metrics.GoalsFailed,
		GoalsAbandoned:   metrics.GoalsAbandoned,
		GoalsByKind:      metrics.GoalsByKind,
		WordsTaught:      metrics.WordsTaught,
		TaughtBySource:   metrics.TaughtBySource,
		QuestionsAsked:   metrics.QuestionsAsked,
		ReflectionPasses: metrics.ReflectionPasses,
		EventCount:       metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func goalToOutput(g *models.Goal) goalOutput {
	return goalOutput{
		ID:            g.ID,
		Kind:          string(g.Kind),
		Status:        string(g.Status),
		Priority:      g.Priority,
		Target:        g.Target.Words,
		UnknownTokens: g.UnknownTokens,
		BlockedBy:     g.BlockedBy,
		Steps:         len(g.Plan),
		StepsExecuted: g.StepsExecuted,
		Reason:        g.Reason,
		Result:        g.Result,
		Created:       g.CreatedAt.Format(time.RFC3339),
	}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		GoalsByKind:    make(map[string]int),
		TaughtBySource: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
