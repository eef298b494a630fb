package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// StateVersion is written into persisted agent state.
const StateVersion = "1"

// TickKind says what a tick spent its work on.
type TickKind string

const (
	TickGoal       TickKind = "goal"
	TickReflection TickKind = "reflection"
	TickLearner    TickKind = "learner"
	TickIdle       TickKind = "idle"
)

// TickReport describes one scheduler tick.
type TickReport struct {
	Tick       uint64            `json:"tick"`
	Kind       TickKind          `json:"kind"`
	GoalID     string            `json:"goal_id,omitempty"`
	Status     models.GoalStatus `json:"status,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Artifacts  []models.Artifact `json:"artifacts,omitempty"`
	Reflection *ReflectionReport `json:"reflection,omitempty"`
	Learned    []string          `json:"learned,omitempty"`
}

// AgentDeps are the collaborators of an Agent. Only Config, Lexicon and
// World are required.
type AgentDeps struct {
	Config    *models.BrainConfig
	Lexicon   *Lexicon
	World     WorldModel
	Graph     *ConceptGraph
	Learner   Learner
	EventLog  EventLogger
	Artifacts ArtifactSink
	Metrics   AgentMetrics
	Logger    *zap.Logger
}

// Agent is the cognitive loop: it routes intents, schedules goals and
// reflects on what happened. Tick, Dispatch, Teach and Abandon are
// serialized on one lock.
type Agent struct {
	cfg       *models.BrainConfig
	lexicon   *Lexicon
	world     WorldModel
	graph     *ConceptGraph
	goals     *GoalManager
	detector  *CuriosityDetector
	planner   *Planner
	engine    *ExecutionEngine
	answerer  *Answerer
	events    *EventBuffer
	reflector *Reflector
	learner   Learner
	eventLog  EventLogger
	sink      ArtifactSink
	metrics   AgentMetrics
	logger    *zap.Logger

	tickMu sync.Mutex
	tick   uint64
}

// NewAgent wires an agent from its dependencies.
func NewAgent(deps AgentDeps) *Agent {
	cfg := deps.Config
	if cfg == nil {
		cfg = DefaultBrainConfig()
	}
	graph := deps.Graph
	if graph == nil {
		graph = NewConceptGraph()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var metrics AgentMetrics = nopMetrics{}
	if deps.Metrics != nil {
		metrics = deps.Metrics
	}

	events := NewEventBuffer(cfg.Reflection.BufferSize)
	answerer := NewAnswerer(deps.World, deps.Lexicon, graph, cfg.AgentName)
	return &Agent{
		cfg:       cfg,
		lexicon:   deps.Lexicon,
		world:     deps.World,
		graph:     graph,
		goals:     NewGoalManager(),
		detector:  NewCuriosityDetector(deps.Lexicon, cfg.Curiosity.FunctionWords),
		planner:   NewPlanner(deps.World, deps.Lexicon, cfg.AgentName),
		engine:    NewExecutionEngine(deps.World, deps.Lexicon, answerer, events, cfg.AgentName),
		answerer:  answerer,
		events:    events,
		reflector: NewReflector(graph, deps.Lexicon, cfg.Reflection.Smoothing, cfg.Cascade, logger),
		learner:   deps.Learner,
		eventLog:  deps.EventLog,
		sink:      deps.Artifacts,
		metrics:   metrics,
		logger:    logger,
	}
}

// Lexicon returns the agent's lexicon.
func (a *Agent) Lexicon() *Lexicon { return a.lexicon }

// Graph returns the agent's concept graph.
func (a *Agent) Graph() *ConceptGraph { return a.graph }

// Goals returns the agent's goal manager.
func (a *Agent) Goals() *GoalManager { return a.goals }

// Events returns the reflection buffer.
func (a *Agent) Events() *EventBuffer { return a.events }

// Tick runs one scheduler step. Every ReflectionEvery ticks with pending
// events the tick reflects instead of advancing a goal. A tick with no
// eligible goal consults the learner for words awaiting teaching.
func (a *Agent) Tick(ctx context.Context) (TickReport, error) {
	a.tickMu.Lock()
	defer a.tickMu.Unlock()

	a.tick++
	rep := TickReport{Tick: a.tick, Kind: TickIdle}
	defer func() {
		a.metrics.TickCompleted(rep.Kind)
		a.metrics.SetSizes(a.goals.Count(), a.lexicon.Len(), a.graph.Len())
	}()

	if every := a.cfg.Scheduler.ReflectionEvery; every > 0 && a.tick%uint64(every) == 0 && a.events.Pending(a.reflector.HighWater()) {
		r := a.reflector.Run(a.events.Since(a.reflector.HighWater()))
		rep.Kind = TickReflection
		rep.Reflection = &r
		a.metrics.ReflectionPass(r.Processed, r.Skipped)
		a.logEvent(models.LogReflection, map[string]any{
			"processed":     r.Processed,
			"skipped":       r.Skipped,
			"nodes_created": r.NodesCreated,
			"high_water":    r.HighWater,
		})
		return rep, nil
	}

	if g := a.goals.Next(a.eligible); g != nil {
		rep.Kind = TickGoal
		rep.GoalID = g.ID
		a.advance(g, &rep)
		rep.Status = g.Status
		rep.Reason = g.Reason
		return rep, nil
	}

	if a.learner != nil {
		learned, consulted, err := a.consultLearner(ctx)
		if consulted {
			rep.Kind = TickLearner
			rep.Learned = learned
		}
		if err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// eligible reports whether g can be advanced this tick. Goals waiting on
// teaching, or blocked by an unfinished prerequisite, are skipped.
func (a *Agent) eligible(g *models.Goal) bool {
	if g.Status == models.GoalAwaitingTeaching {
		return false
	}
	if g.BlockedBy == "" {
		return true
	}
	prereq, ok := a.goals.Get(g.BlockedBy)
	return !ok || prereq.Status.Terminal()
}

func (a *Agent) advance(g *models.Goal, rep *TickReport) {
	if g.BlockedBy != "" {
		if prereq, ok := a.goals.Get(g.BlockedBy); ok && prereq.Status != models.GoalCompleted {
			a.finish(g, models.GoalFailed, fmt.Sprintf("prerequisite goal %s %s", prereq.ID, prereq.Status))
			return
		}
	}

	if g.Status == models.GoalPending {
		steps, err := a.planner.Synthesize(g)
		if err != nil {
			a.finish(g, models.GoalFailed, failureReason(err))
			return
		}
		if len(steps) == 0 {
			a.finish(g, models.GoalCompleted, "already satisfied")
			return
		}
		g.Plan = steps
		a.transition(g, models.GoalPlanned, "")
	}
	if g.Status == models.GoalPlanned {
		a.transition(g, models.GoalExecuting, "")
	}
	if g.Status != models.GoalExecuting {
		return
	}

	if maxSteps := a.cfg.Scheduler.MaxSteps; maxSteps > 0 && g.StepsExecuted >= maxSteps {
		a.finish(g, models.GoalFailed, "step budget exceeded")
		return
	}
	res, err := a.engine.Step(g)
	g.StepsExecuted++
	for _, art := range res.Artifacts {
		a.emit(art)
	}
	rep.Artifacts = res.Artifacts
	if err != nil {
		a.finish(g, models.GoalFailed, failureReason(err))
		return
	}
	if res.Await {
		a.transition(g, models.GoalAwaitingTeaching, "")
		return
	}
	if g.NextStep() >= 0 {
		return
	}
	if ok, reason := a.planner.Postcondition(g); ok {
		a.finish(g, models.GoalCompleted, "")
	} else {
		a.finish(g, models.GoalFailed, reason)
	}
}

func failureReason(err error) string {
	var np *NoPlanError
	if errors.As(err, &np) {
		return np.Reason
	}
	return err.Error()
}

func (a *Agent) transition(g *models.Goal, to models.GoalStatus, reason string) {
	from := g.Status
	if err := a.goals.Transition(g, to, reason); err != nil {
		a.logger.Error("goal transition rejected", zap.String("goal_id", g.ID), zap.Error(err))
		return
	}
	a.logger.Debug("goal transition",
		zap.String("goal_id", g.ID),
		zap.String("kind", string(g.Kind)),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	if !to.Terminal() {
		a.logEvent(models.LogGoalStatusChanged, map[string]any{
			"goal_id":    g.ID,
			"kind":       string(g.Kind),
			"old_status": string(from),
			"new_status": string(to),
		})
	}
}

func (a *Agent) finish(g *models.Goal, status models.GoalStatus, reason string) {
	a.transition(g, status, reason)
	if !g.Status.Terminal() {
		return
	}
	a.metrics.GoalFinished(g.Kind, g.Status)
	a.logger.Info("goal finished",
		zap.String("goal_id", g.ID),
		zap.String("kind", string(g.Kind)),
		zap.String("status", string(g.Status)),
		zap.String("reason", g.Reason),
	)
	a.logEvent("goal."+string(g.Status), map[string]any{
		"goal_id": g.ID,
		"kind":    string(g.Kind),
		"reason":  g.Reason,
		"steps":   g.StepsExecuted,
	})
}

func (a *Agent) emit(art models.Artifact) {
	if art.Kind == models.ArtifactQuestion {
		a.logEvent(models.LogQuestionAsked, map[string]any{"goal_id": art.GoalID, "tokens": art.Tokens})
	}
	if a.sink == nil {
		return
	}
	if err := a.sink.Emit(art); err != nil {
		a.logger.Warn("emitting artifact", zap.String("artifact_id", art.ID), zap.Error(err))
	}
}

func (a *Agent) logEvent(eventType string, data map[string]any) {
	if a.eventLog == nil {
		return
	}
	if err := a.eventLog.LogEvent(eventType, data); err != nil {
		a.logger.Warn("writing event log", zap.String("type", eventType), zap.Error(err))
	}
}

// Teach validates and stores a meaning, then re-evaluates goals waiting on
// the word. On validation failure the lexicon is unchanged.
func (a *Agent) Teach(word string, wordType models.WordType, expression, source string) (models.LexiconEntry, error) {
	a.tickMu.Lock()
	defer a.tickMu.Unlock()
	return a.teachLocked(word, wordType, expression, source)
}

func (a *Agent) teachLocked(word string, wordType models.WordType, expression, source string) (models.LexiconEntry, error) {
	if source == "" {
		source = models.SourceTaught
	}
	entry, err := a.lexicon.Put(word, wordType, expression, source)
	if err != nil {
		a.logger.Info("teaching rejected", zap.String("word", word), zap.Error(err))
		return models.LexiconEntry{}, err
	}
	if err := a.lexicon.Save(); err != nil {
		a.logger.Error("persisting lexicon", zap.Error(err))
	}

	var attrs map[string]string
	if p, ok := a.lexicon.Predicate(entry.Word); ok {
		for _, lit := range p.Literals() {
			if attrs == nil {
				attrs = make(map[string]string)
			}
			attrs[lit.Attr] = lit.Value
		}
	}
	a.events.Append(models.EventTeaching, []string{entry.Word}, attrs, "")

	resumed := a.reevaluate()
	a.metrics.WordTaught(source)
	a.logger.Info("word taught",
		zap.String("word", entry.Word),
		zap.String("word_type", string(entry.WordType)),
		zap.String("source", source),
		zap.Int("goals_resumed", resumed),
	)
	a.logEvent(models.LogWordTaught, map[string]any{
		"word":       entry.Word,
		"word_type":  string(entry.WordType),
		"expression": entry.Expression,
		"source":     source,
	})
	return entry, nil
}

// reevaluate shrinks the unknown tokens of understanding goals and resumes
// the waiting ones that made progress.
func (a *Agent) reevaluate() int {
	resumed := 0
	for _, g := range a.goals.Ordered() {
		if g.Kind != models.GoalUnderstand || len(g.UnknownTokens) == 0 {
			continue
		}
		remaining := a.lexicon.Unknown(g.UnknownTokens)
		if len(remaining) == len(g.UnknownTokens) {
			continue
		}
		g.UnknownTokens = remaining
		if g.Status == models.GoalAwaitingTeaching {
			a.transition(g, models.GoalExecuting, "")
			resumed++
		}
	}
	return resumed
}

// Abandon moves an active goal to ABANDONED.
func (a *Agent) Abandon(id, reason string) (*models.Goal, error) {
	a.tickMu.Lock()
	defer a.tickMu.Unlock()
	g, ok := a.goals.Get(id)
	if !ok {
		return nil, fmt.Errorf("goal %s: %w", id, ErrGoalNotFound)
	}
	if reason == "" {
		reason = "abandoned by user"
	}
	if err := a.goals.Transition(g, models.GoalAbandoned, reason); err != nil {
		return nil, err
	}
	a.metrics.GoalFinished(g.Kind, g.Status)
	a.logEvent(models.LogGoalAbandoned, map[string]any{"goal_id": g.ID, "kind": string(g.Kind), "reason": reason})
	return g.Clone(), nil
}

// consultLearner asks the learner about the unconsulted tokens of the
// oldest waiting goal. Meanings above the confidence threshold are taught.
func (a *Agent) consultLearner(ctx context.Context) ([]string, bool, error) {
	var target *models.Goal
	var tokens []string
	for _, g := range a.goals.Ordered() {
		if g.Status != models.GoalAwaitingTeaching {
			continue
		}
		if pending := unconsulted(g); len(pending) > 0 && (target == nil || g.Seq < target.Seq) {
			target, tokens = g, pending
		}
	}
	if target == nil {
		return nil, false, nil
	}

	timeout := a.cfg.Learner.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make([]*LearnedMeaning, len(tokens))
	answered := make([]bool, len(tokens))
	var eg errgroup.Group
	if n := a.cfg.Learner.MaxParallel; n > 0 {
		eg.SetLimit(n)
	}
	for i, tok := range tokens {
		eg.Go(func() error {
			m, err := a.learner.Lookup(ctx, tok)
			if err != nil {
				a.logger.Warn("learner lookup failed", zap.String("word", tok), zap.Error(err))
				// Cut short by cancel or timeout: ask again on a later tick.
				answered[i] = ctx.Err() == nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
				return nil
			}
			results[i], answered[i] = m, true
			return nil
		})
	}
	_ = eg.Wait()
	for i, tok := range tokens {
		if answered[i] {
			target.Consulted = append(target.Consulted, tok)
		}
	}

	if err := ctx.Err(); err != nil && errors.Is(err, context.Canceled) {
		return nil, true, err
	}

	var learned []string
	for i, m := range results {
		if m == nil || m.Confidence <= a.cfg.Learner.MinConfidence {
			continue
		}
		word := m.Word
		if word == "" {
			word = tokens[i]
		}
		if _, err := a.teachLocked(word, m.WordType, m.Expression, models.SourceLearner); err != nil {
			continue
		}
		learned = append(learned, word)
	}
	return learned, true, nil
}

func unconsulted(g *models.Goal) []string {
	seen := make(map[string]struct{}, len(g.Consulted))
	for _, t := range g.Consulted {
		seen[t] = struct{}{}
	}
	var out []string
	for _, t := range g.UnknownTokens {
		if _, ok := seen[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// Snapshot captures the scheduler state for persistence.
func (a *Agent) Snapshot() models.AgentState {
	a.tickMu.Lock()
	defer a.tickMu.Unlock()
	seq, active, history := a.goals.Snapshot()
	nextID, events := a.events.Snapshot()
	return models.AgentState{
		Version:     StateVersion,
		Tick:        a.tick,
		GoalSeq:     seq,
		NextEventID: nextID,
		HighWater:   a.reflector.HighWater(),
		Goals:       active,
		History:     history,
		Events:      events,
	}
}

// Restore resumes from persisted state.
func (a *Agent) Restore(st models.AgentState) {
	a.tickMu.Lock()
	defer a.tickMu.Unlock()
	a.tick = st.Tick
	a.goals.Restore(st.GoalSeq, st.Goals, st.History)
	a.events.Restore(st.NextEventID, st.Events)
	a.reflector.SetHighWater(st.HighWater)
}

// TickCount returns how many ticks have run.
func (a *Agent) TickCount() uint64 {
	a.tickMu.Lock()
	defer a.tickMu.Unlock()
	return a.tick
}

// ActiveGoals returns copies of the active goals in service order.
func (a *Agent) ActiveGoals() []*models.Goal {
	a.tickMu.Lock()
	defer a.tickMu.Unlock()
	return a.goals.Active()
}

// GoalHistory returns copies of terminal goals, oldest first.
func (a *Agent) GoalHistory() []*models.Goal {
	a.tickMu.Lock()
	defer a.tickMu.Unlock()
	return a.goals.History()
}

// ConceptsRelatedTo lists the concepts linked from name, strongest first.
func (a *Agent) ConceptsRelatedTo(name string) []models.RelatedConcept {
	return a.graph.RelatedTo(name)
}
