package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// StepResult is what running one plan step produced.
type StepResult struct {
	Index     int
	Artifacts []models.Artifact
	// Await is set when the goal must wait for teaching.
	Await bool
}

// ExecutionEngine runs plan steps against the world. It records outcomes on
// the goal's plan but leaves status transitions to the scheduler.
type ExecutionEngine struct {
	world    WorldModel
	lexicon  *Lexicon
	answerer *Answerer
	events   *EventBuffer
	agent    string
	now      func() time.Time
}

// NewExecutionEngine creates an engine acting on behalf of agent. Successful
// mutations are appended to events.
func NewExecutionEngine(world WorldModel, lexicon *Lexicon, answerer *Answerer, events *EventBuffer, agent string) *ExecutionEngine {
	return &ExecutionEngine{
		world:    world,
		lexicon:  lexicon,
		answerer: answerer,
		events:   events,
		agent:    agent,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Step runs the next unexecuted step of g. A returned error means the step
// failed and the goal should fail with it.
func (e *ExecutionEngine) Step(g *models.Goal) (StepResult, error) {
	idx := g.NextStep()
	if idx < 0 {
		return StepResult{Index: -1}, fmt.Errorf("goal %s has no remaining steps", g.ID)
	}
	step := &g.Plan[idx]
	res := StepResult{Index: idx}

	switch step.Action {
	case models.ActionQueryWorld:
		out, art, err := e.query(g, step)
		if err != nil {
			return e.fail(step, res, err)
		}
		step.Outcome = &out
		if art != nil {
			res.Artifacts = append(res.Artifacts, *art)
		}

	case models.ActionMutateWorld:
		out, err := e.mutate(g, idx)
		if err != nil {
			return e.fail(step, res, err)
		}
		step.Outcome = &out

	case models.ActionOutputQuestion:
		tokens := g.UnknownTokens
		if len(tokens) == 0 {
			tokens = splitTokens(step.Params[ParamTokens])
		}
		res.Artifacts = append(res.Artifacts, e.artifact(models.ArtifactQuestion, g.ID, Question(tokens), tokens))
		step.Outcome = &models.StepOutcome{OK: true, Result: "asked"}
		res.Await = true

	case models.ActionWaitForTeaching:
		if len(g.UnknownTokens) > 0 {
			res.Await = true
			return res, nil
		}
		step.Outcome = &models.StepOutcome{OK: true, Result: "taught"}

	case models.ActionVerifyCondition:
		c, err := CompileCondition(e.lexicon, splitWords(step.Params[ParamDescription]))
		if err != nil {
			return e.fail(step, res, err)
		}
		holds, refs, err := c.Holds(e.world)
		if err != nil {
			return e.fail(step, res, err)
		}
		step.Outcome = &models.StepOutcome{OK: true, Result: strconv.FormatBool(holds), Refs: refStrings(refs)}

	default:
		return e.fail(step, res, fmt.Errorf("unknown step action %q", step.Action))
	}

	step.Executed = true
	return res, nil
}

func (e *ExecutionEngine) fail(step *models.Step, res StepResult, err error) (StepResult, error) {
	step.Executed = true
	step.Outcome = &models.StepOutcome{OK: false, Error: err.Error()}
	return res, err
}

func (e *ExecutionEngine) query(g *models.Goal, step *models.Step) (models.StepOutcome, *models.Artifact, error) {
	words := splitWords(step.Params[ParamDescription])
	switch step.Params[ParamOp] {
	case QueryOpFind:
		d, err := Describe(e.lexicon, words)
		if err != nil {
			return models.StepOutcome{}, nil, err
		}
		refs := e.world.Find(d.MatchObject)
		return models.StepOutcome{OK: true, Result: strconv.Itoa(len(refs)), Refs: refStrings(refs)}, nil, nil
	case QueryOpEvaluate:
		c, err := CompileCondition(e.lexicon, words)
		if err != nil {
			return models.StepOutcome{}, nil, err
		}
		holds, refs, err := c.Holds(e.world)
		if err != nil {
			return models.StepOutcome{}, nil, err
		}
		out := models.StepOutcome{OK: true, Result: strconv.FormatBool(holds), Refs: refStrings(refs)}
		art := e.artifact(models.ArtifactAnswer, g.ID, c.Statement(holds), nil)
		return out, &art, nil
	case QueryOpAnswer:
		text, err := e.answerer.Answer(models.QueryKind(step.Params[ParamQuery]), words)
		if err != nil {
			return models.StepOutcome{}, nil, err
		}
		g.Result = text
		art := e.artifact(models.ArtifactAnswer, g.ID, text, nil)
		return models.StepOutcome{OK: true, Result: text}, &art, nil
	default:
		return models.StepOutcome{}, nil, fmt.Errorf("unknown query op %q", step.Params[ParamOp])
	}
}

func (e *ExecutionEngine) mutate(g *models.Goal, idx int) (models.StepOutcome, error) {
	step := &g.Plan[idx]
	kind := models.OperationKind(step.Params[ParamOp])
	op := models.Operation{
		Kind:      kind,
		Actor:     e.agent,
		Blueprint: step.Params[ParamBlueprint],
		Recipient: step.Params[ParamRecipient],
		Container: models.ObjectRef(step.Params[ParamContainer]),
	}
	ref := models.ObjectRef(step.Params[ParamObject])
	if ref == "" && kind != models.OpCreate {
		ref = previousRef(g.Plan[:idx])
		if ref == "" {
			return models.StepOutcome{}, fmt.Errorf("%s: no object to act on", kind)
		}
	}

	result, err := e.world.Mutate(ref, op)
	if err != nil {
		var merr *models.WorldMutationError
		if errors.As(err, &merr) {
			return models.StepOutcome{}, fmt.Errorf("%w: %w", ErrWorldMutation, err)
		}
		return models.StepOutcome{}, err
	}
	if result.Changed && e.events != nil {
		var concepts []string
		for _, w := range splitWords(step.Params[ParamDescription]) {
			if !strings.HasPrefix(w, ObjectRefPrefix) {
				concepts = append(concepts, w)
			}
		}
		concepts = append(concepts, string(kind))
		e.events.Append(models.EventMutation, dedupe(concepts), nil, g.ID)
	}
	return models.StepOutcome{OK: true, Result: string(kind), Refs: []string{string(result.Ref)}}, nil
}

func (e *ExecutionEngine) artifact(kind models.ArtifactKind, goalID, text string, tokens []string) models.Artifact {
	return models.Artifact{
		ID:      uuid.NewString(),
		Kind:    kind,
		GoalID:  goalID,
		Text:    text,
		Tokens:  append([]string(nil), tokens...),
		Created: e.now(),
	}
}

// Question phrases the clarification request for unknown tokens.
func Question(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = "'" + t + "'"
	}
	switch len(quoted) {
	case 0:
		return "What do you mean?"
	case 1:
		return fmt.Sprintf("What does %s mean?", quoted[0])
	default:
		return fmt.Sprintf("What do %s and %s mean?", strings.Join(quoted[:len(quoted)-1], ", "), quoted[len(quoted)-1])
	}
}

// previousRef returns the object the most recent executed step produced.
func previousRef(done []models.Step) models.ObjectRef {
	for i := len(done) - 1; i >= 0; i-- {
		if o := done[i].Outcome; o != nil && o.OK && len(o.Refs) > 0 {
			return models.ObjectRef(o.Refs[0])
		}
	}
	return ""
}

func refStrings(refs []models.ObjectRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = string(r)
	}
	return out
}

func splitWords(s string) []string { return strings.Fields(s) }

func splitTokens(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func dedupe(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := words[:0]
	for _, w := range words {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
