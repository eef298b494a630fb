package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// Step parameter keys.
const (
	ParamOp          = "op"
	ParamDescription = "description"
	ParamObject      = "object"
	ParamBlueprint   = "blueprint"
	ParamContainer   = "container"
	ParamRecipient   = "recipient"
	ParamQuery       = "query"
	ParamTokens      = "tokens"
	ParamHolds       = "holds"
)

// QUERY_WORLD operations.
const (
	QueryOpFind     = "find"
	QueryOpEvaluate = "evaluate"
	QueryOpAnswer   = "answer"
)

// Planner turns goals into step plans against the current world.
type Planner struct {
	world   WorldModel
	lexicon *Lexicon
	agent   string
}

// NewPlanner creates a planner acting on behalf of agent.
func NewPlanner(world WorldModel, lexicon *Lexicon, agent string) *Planner {
	return &Planner{world: world, lexicon: lexicon, agent: agent}
}

// Synthesize builds the plan for g. An empty plan with a nil error means the
// goal is already satisfied. Failures are *NoPlanError.
func (p *Planner) Synthesize(g *models.Goal) ([]models.Step, error) {
	switch g.Kind {
	case models.GoalPossess:
		return p.planPossess(g.Target.Words)
	case models.GoalUnderstand:
		if len(g.UnknownTokens) == 0 {
			return nil, nil
		}
		tokens := strings.Join(g.UnknownTokens, ",")
		return []models.Step{
			{Action: models.ActionOutputQuestion, Params: map[string]string{ParamTokens: tokens}},
			{Action: models.ActionWaitForTeaching, Params: map[string]string{ParamTokens: tokens}},
		}, nil
	case models.GoalVerify:
		c, err := p.condition(g.Target.Words)
		if err != nil {
			return nil, err
		}
		return []models.Step{{
			Action: models.ActionQueryWorld,
			Params: map[string]string{ParamOp: QueryOpEvaluate, ParamDescription: c.String()},
		}}, nil
	case models.GoalCreate:
		return p.planCreate(g.Target.Words)
	case models.GoalDestroy:
		return p.planDestroy(g.Target.Words)
	case models.GoalTransfer:
		return p.planTransfer(g.Target)
	case models.GoalOpen:
		return p.planSetOpen(g.Target.Words, true)
	case models.GoalClose:
		return p.planSetOpen(g.Target.Words, false)
	case models.GoalPlace:
		return p.planPlace(g.Target)
	case models.GoalConditional:
		return p.planConditional(g.Target)
	case models.GoalAnswer:
		return []models.Step{{
			Action: models.ActionQueryWorld,
			Params: map[string]string{
				ParamOp:          QueryOpAnswer,
				ParamQuery:       string(g.Target.Query),
				ParamDescription: strings.Join(g.Target.Words, " "),
			},
		}}, nil
	default:
		return nil, &NoPlanError{Reason: fmt.Sprintf("unsupported goal kind %q", g.Kind)}
	}
}

func (p *Planner) describe(words []string) (Description, error) {
	d, err := Describe(p.lexicon, words)
	if err != nil {
		return Description{}, &NoPlanError{Reason: err.Error()}
	}
	return d, nil
}

func (p *Planner) condition(words []string) (Condition, error) {
	c, err := CompileCondition(p.lexicon, words)
	if err != nil {
		return Condition{}, &NoPlanError{Reason: err.Error()}
	}
	return c, nil
}

// free matches objects nobody but the agent holds.
func (p *Planner) free(o models.WorldObject) bool {
	return o.Owner == p.agent || o.Owner == models.OwnerWorld
}

func (p *Planner) planPossess(words []string) ([]models.Step, error) {
	d, err := p.describe(words)
	if err != nil {
		return nil, err
	}
	owned := p.world.Find(func(o models.WorldObject) bool {
		return o.Owner == p.agent && d.Match(o)
	})
	if len(owned) > 0 {
		return nil, nil
	}

	// Objects held by someone else are never candidates.
	candidates := p.world.Find(func(o models.WorldObject) bool {
		return o.Owner == models.OwnerWorld && d.Match(o)
	})
	if len(candidates) > 0 {
		ref := candidates[0]
		steps := []models.Step{{
			Action: models.ActionQueryWorld,
			Params: map[string]string{ParamOp: QueryOpFind, ParamDescription: d.String()},
		}}
		if obj, ok := p.world.Object(ref); ok && obj.Inside != "" {
			steps = append(steps, mutateStep(models.OpOpen, map[string]string{
				ParamObject:      string(obj.Inside),
				ParamDescription: d.String(),
			}))
		}
		steps = append(steps, mutateStep(models.OpTake, map[string]string{
			ParamObject:      string(ref),
			ParamDescription: d.String(),
		}))
		return steps, nil
	}

	if bps := p.world.Blueprints(d.MatchBlueprint); len(bps) > 0 {
		return []models.Step{
			mutateStep(models.OpCreate, map[string]string{ParamBlueprint: bps[0].Name, ParamDescription: d.String()}),
			// The object is resolved from the created ref at execution time.
			mutateStep(models.OpTake, map[string]string{ParamDescription: d.String()}),
		}, nil
	}
	return nil, &NoPlanError{Reason: "no candidate found"}
}

// planCreate makes a new object from the most recent blueprint matching the
// description, even when a matching object already exists.
func (p *Planner) planCreate(words []string) ([]models.Step, error) {
	d, err := p.describe(words)
	if err != nil {
		return nil, err
	}
	bps := p.world.Blueprints(d.MatchBlueprint)
	if len(bps) == 0 {
		return nil, &NoPlanError{Reason: fmt.Sprintf("I don't know how to make a %s", d)}
	}
	return []models.Step{
		mutateStep(models.OpCreate, map[string]string{ParamBlueprint: bps[0].Name, ParamDescription: d.String()}),
	}, nil
}

func (p *Planner) planDestroy(words []string) ([]models.Step, error) {
	d, err := p.describe(words)
	if err != nil {
		return nil, err
	}
	candidates := p.world.Find(func(o models.WorldObject) bool { return p.free(o) && d.Match(o) })
	if len(candidates) == 0 {
		return nil, &NoPlanError{Reason: "no candidate found"}
	}
	return []models.Step{
		{Action: models.ActionQueryWorld, Params: map[string]string{ParamOp: QueryOpFind, ParamDescription: d.String()}},
		mutateStep(models.OpDestroy, map[string]string{ParamObject: string(candidates[0]), ParamDescription: d.String()}),
	}, nil
}

// holding plans how the agent comes to hold an object matching words. The
// final step of a non-empty plan yields the object; an empty plan means ref
// is already held.
func (p *Planner) holding(words []string) (ref models.ObjectRef, steps []models.Step, err error) {
	d, err := p.describe(words)
	if err != nil {
		return "", nil, err
	}
	owned := p.world.Find(func(o models.WorldObject) bool { return o.Owner == p.agent && d.Match(o) })
	if len(owned) > 0 {
		return owned[0], nil, nil
	}
	steps, err = p.planPossess(words)
	if err != nil {
		return "", nil, err
	}
	return "", steps, nil
}

func (p *Planner) planTransfer(t models.GoalTarget) ([]models.Step, error) {
	recipient := t.Recipient
	if recipient == "" {
		recipient = models.OwnerUser
	}
	if recipient == p.agent {
		return p.planPossess(t.Words)
	}
	ref, steps, err := p.holding(t.Words)
	if err != nil {
		return nil, err
	}
	params := map[string]string{ParamRecipient: recipient, ParamDescription: strings.Join(t.Words, " ")}
	if ref != "" {
		params[ParamObject] = string(ref)
	}
	return append(steps, mutateStep(models.OpGive, params)), nil
}

func (p *Planner) planSetOpen(words []string, open bool) ([]models.Step, error) {
	d, err := p.describe(words)
	if err != nil {
		return nil, err
	}
	containers := p.world.Find(func(o models.WorldObject) bool { return o.IsContainer && d.Match(o) })
	if len(containers) == 0 {
		return nil, &NoPlanError{Reason: fmt.Sprintf("no %s can be opened or closed", d)}
	}
	for _, ref := range containers {
		if o, ok := p.world.Object(ref); ok && o.IsOpen == open {
			return nil, nil
		}
	}
	var target models.ObjectRef
	for _, ref := range containers {
		if o, ok := p.world.Object(ref); ok && p.free(o) {
			target = ref
			break
		}
	}
	if target == "" {
		return nil, &NoPlanError{Reason: fmt.Sprintf("every %s is held by someone else", d)}
	}
	op := models.OpClose
	if open {
		op = models.OpOpen
	}
	return []models.Step{
		{Action: models.ActionQueryWorld, Params: map[string]string{ParamOp: QueryOpFind, ParamDescription: d.String()}},
		mutateStep(op, map[string]string{ParamObject: string(target), ParamDescription: d.String()}),
	}, nil
}

// planPlace opens the destination first so the object the agent ends up
// holding is the one the final put_in step acts on.
func (p *Planner) planPlace(t models.GoalTarget) ([]models.Step, error) {
	if len(t.Destination) == 0 {
		return nil, &NoPlanError{Reason: "no destination"}
	}
	dest, err := p.describe(t.Destination)
	if err != nil {
		return nil, err
	}
	containers := p.world.Find(func(o models.WorldObject) bool {
		return o.IsContainer && p.free(o) && dest.Match(o)
	})
	if len(containers) == 0 {
		return nil, &NoPlanError{Reason: fmt.Sprintf("no container matches %s", dest)}
	}
	container := containers[0]
	words := strings.Join(t.Words, " ")

	var steps []models.Step
	if c, ok := p.world.Object(container); ok && !c.IsOpen {
		steps = append(steps, mutateStep(models.OpOpen, map[string]string{
			ParamObject:      string(container),
			ParamDescription: dest.String(),
		}))
	}
	ref, hold, err := p.holding(t.Words)
	if err != nil {
		return nil, err
	}
	params := map[string]string{ParamContainer: string(container), ParamDescription: words}
	if ref != "" {
		params[ParamObject] = string(ref)
	}
	steps = append(steps, hold...)
	return append(steps, mutateStep(models.OpPutIn, params)), nil
}

func (p *Planner) planConditional(t models.GoalTarget) ([]models.Step, error) {
	if t.Consequent == nil {
		return nil, &NoPlanError{Reason: "conditional has no consequent"}
	}
	c, err := p.condition(t.Words)
	if err != nil {
		return nil, err
	}
	holds, _, err := c.Holds(p.world)
	if err != nil {
		return nil, &NoPlanError{Reason: err.Error()}
	}
	steps := []models.Step{{
		Action: models.ActionVerifyCondition,
		Params: map[string]string{ParamDescription: c.String(), ParamHolds: strconv.FormatBool(holds)},
	}}
	if !holds {
		return steps, nil
	}
	cons, err := p.Synthesize(&models.Goal{Kind: t.Consequent.Kind, Target: t.Consequent.Target})
	if err != nil {
		return nil, err
	}
	return append(steps, cons...), nil
}

func mutateStep(op models.OperationKind, params map[string]string) models.Step {
	params[ParamOp] = string(op)
	return models.Step{Action: models.ActionMutateWorld, Params: params}
}

// Postcondition reports whether g's target state holds after its plan ran,
// with a reason when it does not.
func (p *Planner) Postcondition(g *models.Goal) (bool, string) {
	switch g.Kind {
	case models.GoalUnderstand:
		if len(g.UnknownTokens) > 0 {
			return false, "still unknown: " + strings.Join(g.UnknownTokens, ", ")
		}
		return true, ""
	case models.GoalConditional:
		if len(g.Plan) == 0 || g.Plan[0].Params[ParamHolds] != "true" {
			return true, ""
		}
		cons := g.Target.Consequent
		return p.satisfied(cons.Kind, cons.Target, g.Plan)
	default:
		return p.satisfied(g.Kind, g.Target, g.Plan)
	}
}

// satisfied checks the target state of a goal kind against the world after
// plan ran. The world-changing kinds check the object their last mutation
// acted on.
func (p *Planner) satisfied(kind models.GoalKind, t models.GoalTarget, plan []models.Step) (bool, string) {
	ref := previousRef(plan)
	obj, exists := p.world.Object(ref)
	switch kind {
	case models.GoalPossess:
		return p.possesses(t.Words)
	case models.GoalVerify:
		return lastResultTrue(plan)
	case models.GoalCreate:
		if ref == "" || !exists {
			return false, fmt.Sprintf("no %s was created", strings.Join(t.Words, " "))
		}
	case models.GoalDestroy:
		if exists {
			return false, fmt.Sprintf("%s still exists", ref)
		}
	case models.GoalTransfer:
		recipient := t.Recipient
		if recipient == "" {
			recipient = models.OwnerUser
		}
		if recipient == p.agent {
			return p.possesses(t.Words)
		}
		if !exists || obj.Owner != recipient {
			return false, fmt.Sprintf("%s does not have it", recipient)
		}
	case models.GoalOpen, models.GoalClose:
		if !exists || obj.IsOpen != (kind == models.GoalOpen) {
			return false, fmt.Sprintf("%s did not %s", ref, kind)
		}
	case models.GoalPlace:
		if !exists || obj.Inside == "" {
			return false, fmt.Sprintf("%s is not in a container", ref)
		}
	}
	return true, ""
}

func (p *Planner) possesses(words []string) (bool, string) {
	d, err := Describe(p.lexicon, words)
	if err != nil {
		return false, err.Error()
	}
	owned := p.world.Find(func(o models.WorldObject) bool {
		return o.Owner == p.agent && d.Match(o)
	})
	if len(owned) == 0 {
		return false, fmt.Sprintf("not holding a %s", d)
	}
	return true, ""
}

func lastResultTrue(plan []models.Step) (bool, string) {
	if len(plan) == 0 {
		return false, "verification failed"
	}
	last := plan[len(plan)-1]
	if last.Outcome == nil || last.Outcome.Result != "true" {
		return false, "verification failed"
	}
	return true, ""
}
