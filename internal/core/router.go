package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// conditionalVerb introduces a CONDITIONAL command; thenWord separates its
// condition from the consequent.
const (
	conditionalVerb = "if"
	thenWord        = "then"
)

var socialReplies = map[string]string{
	"GREETING": "Hello! Teach me something, or ask me to do something.",
	"THANKS":   "You're welcome.",
	"FAREWELL": "Goodbye. I'll remember what you taught me.",
}

// Dispatch routes one intent. Commands and queries with unknown vocabulary
// become UNDERSTAND goals first; nothing is planned with unresolved tokens.
// Intents that cannot be interpreted yield a clarification response, never
// an error. Dispatch is serialized with Tick.
func (a *Agent) Dispatch(intent models.Intent) (models.Response, error) {
	if intent.Kind != models.IntentTeach {
		a.tickMu.Lock()
		defer a.tickMu.Unlock()
	}
	switch intent.Kind {
	case models.IntentTeach:
		entry, err := a.Teach(intent.Word, intent.WordType, intent.Expression, models.SourceTaught)
		if err != nil {
			if errors.Is(err, ErrValidation) {
				return clarify(err), nil
			}
			return models.Response{}, err
		}
		return models.Response{
			Kind: models.ResponseTaught,
			Text: fmt.Sprintf("Learned %q (%s).", entry.Word, entry.WordType),
		}, nil

	case models.IntentSocial:
		return a.social(intent.Social), nil

	case models.IntentUnresolved:
		tokens := a.detector.Detect(intent)
		if len(tokens) == 0 {
			return clarify(&AmbiguityError{Detail: "every word is known, say it as a command or a question"}), nil
		}
		g := a.understand(tokens, intent.Priority)
		return questionResponse(g), nil

	case models.IntentCommand:
		return a.routeCommand(intent), nil

	case models.IntentQuery:
		return a.routeQuery(intent), nil

	default:
		return clarify(&AmbiguityError{Detail: fmt.Sprintf("unknown intent kind %q", intent.Kind)}), nil
	}
}

// Utterance turns free-form words into an unresolved intent carrying only
// the content words the lexicon lacks. Known words and grammar are dropped,
// so an utterance made only of them dispatches to a clarification.
func (a *Agent) Utterance(words []string) models.Intent {
	var tokens []string
	for _, w := range words {
		tokens = append(tokens, strings.Fields(strings.ToLower(w))...)
	}
	return models.UnresolvedIntent(a.detector.Unresolved(tokens)...)
}

func clarify(err error) models.Response {
	return models.Response{Kind: models.ResponseClarification, Text: err.Error(), Cause: err}
}

func questionResponse(g *models.Goal) models.Response {
	return models.Response{
		Kind:    models.ResponseGoal,
		Text:    "I need to learn first. " + Question(g.UnknownTokens),
		GoalIDs: []string{g.ID},
	}
}

func (a *Agent) social(kind string) models.Response {
	key := strings.ToUpper(strings.TrimSpace(kind))
	if e, ok := a.lexicon.Get(kind); ok && e.WordType == models.WordSocial {
		key = e.Expression
	}
	reply, ok := socialReplies[key]
	if !ok {
		reply = "Hello."
	}
	return models.Response{Kind: models.ResponseSocial, Text: reply}
}

// understand returns an active UNDERSTAND goal covering tokens, creating one
// if none exists.
func (a *Agent) understand(tokens []string, priority int) *models.Goal {
	for _, g := range a.goals.Ordered() {
		if g.Kind != models.GoalUnderstand || g.Status.Terminal() {
			continue
		}
		if covers(g.UnknownTokens, tokens) {
			return g
		}
	}
	if priority == 0 {
		priority = a.cfg.Goals.UnderstandPriority
	}
	return a.push(&models.Goal{
		Kind:          models.GoalUnderstand,
		Priority:      priority,
		UnknownTokens: append([]string(nil), tokens...),
	})
}

func covers(have, want []string) bool {
	for _, t := range want {
		if !slices.Contains(have, t) {
			return false
		}
	}
	return true
}

func (a *Agent) push(g *models.Goal) *models.Goal {
	if g.Priority == 0 {
		g.Priority = a.cfg.Goals.DefaultPriority
	}
	g = a.goals.Push(g)
	a.logger.Info("goal created",
		zap.String("goal_id", g.ID),
		zap.String("kind", string(g.Kind)),
		zap.Int("priority", g.Priority),
	)
	a.logEvent(models.LogGoalCreated, map[string]any{
		"goal_id":  g.ID,
		"kind":     string(g.Kind),
		"priority": g.Priority,
		"words":    g.Target.Words,
		"tokens":   g.UnknownTokens,
	})
	return g
}

func (a *Agent) routeCommand(intent models.Intent) models.Response {
	verb := NormalizeWord(intent.Verb)
	if verb == "" {
		return clarify(&AmbiguityError{Detail: "command has no verb"})
	}
	if unknown := a.detector.Detect(intent); len(unknown) > 0 {
		return questionResponse(a.understand(unknown, 0))
	}

	if verb == conditionalVerb {
		return a.routeConditional(intent)
	}
	kind, err := a.goalKindFor(verb)
	if err != nil {
		return clarify(err)
	}
	target, err := a.targetFor(kind, verb, intent.Args)
	if err != nil {
		return clarify(err)
	}
	g := a.push(&models.Goal{Kind: kind, Priority: intent.Priority, Target: target})
	return models.Response{
		Kind:    models.ResponseGoal,
		Text:    fmt.Sprintf("Okay, I will %s.", phrase(verb, target)),
		GoalIDs: []string{g.ID},
	}
}

// actionGoals maps action labels to the goal they create.
var actionGoals = map[string]models.GoalKind{
	LabelTake:    models.GoalPossess,
	LabelVerify:  models.GoalVerify,
	LabelCreate:  models.GoalCreate,
	LabelDestroy: models.GoalDestroy,
	LabelGive:    models.GoalTransfer,
	LabelOpen:    models.GoalOpen,
	LabelClose:   models.GoalClose,
	LabelPut:     models.GoalPlace,
}

// goalKindFor maps an action word to the goal it creates.
func (a *Agent) goalKindFor(verb string) (models.GoalKind, error) {
	entry, ok := a.lexicon.Get(verb)
	if !ok || entry.WordType != models.WordAction {
		return "", &AmbiguityError{Detail: fmt.Sprintf("%q is not something I can do", verb)}
	}
	kind, ok := actionGoals[entry.Expression]
	if !ok {
		return "", &AmbiguityError{Detail: fmt.Sprintf("I know what %q means but cannot plan it yet", verb)}
	}
	return kind, nil
}

// destinationWords separate what is put from where it goes.
var destinationWords = []string{"in", "into"}

// targetFor builds the goal target of an action from its raw arguments.
// Placing needs "<object> in <container>"; giving hands the object to the
// user.
func (a *Agent) targetFor(kind models.GoalKind, verb string, args []string) (models.GoalTarget, error) {
	var t models.GoalTarget
	if kind == models.GoalPlace {
		i := slices.IndexFunc(args, func(s string) bool { return slices.Contains(destinationWords, NormalizeWord(s)) })
		if i < 0 {
			return t, &AmbiguityError{Detail: fmt.Sprintf("%s it in what?", verb)}
		}
		t.Destination = a.detector.ContentWords(args[i+1:])
		if len(t.Destination) == 0 {
			return t, &AmbiguityError{Detail: fmt.Sprintf("%s it in what?", verb)}
		}
		args = args[:i]
	}
	t.Words = a.detector.ContentWords(args)
	if len(t.Words) == 0 {
		return t, &AmbiguityError{Detail: fmt.Sprintf("%s what?", verb)}
	}
	if kind == models.GoalTransfer {
		t.Recipient = models.OwnerUser
	}
	return t, nil
}

// phrase renders the action a goal target describes, e.g. "put the red
// sphere in the box".
func phrase(verb string, t models.GoalTarget) string {
	s := fmt.Sprintf("%s the %s", verb, strings.Join(t.Words, " "))
	switch {
	case len(t.Destination) > 0:
		s += " in the " + strings.Join(t.Destination, " ")
	case t.Recipient != "":
		s += " to the " + t.Recipient
	}
	return s
}

// routeConditional handles "if <condition> then <verb> <args>".
func (a *Agent) routeConditional(intent models.Intent) models.Response {
	i := slices.IndexFunc(intent.Args, func(s string) bool { return NormalizeWord(s) == thenWord })
	if i < 0 || i == len(intent.Args)-1 {
		return clarify(&AmbiguityError{Detail: "conditional needs 'if <condition> then <action>'"})
	}
	cond := a.detector.ContentWords(intent.Args[:i])
	rest := intent.Args[i+1:]
	verb := NormalizeWord(rest[0])
	if len(cond) == 0 {
		return clarify(&AmbiguityError{Detail: "conditional has no condition"})
	}
	kind, err := a.goalKindFor(verb)
	if err != nil {
		return clarify(err)
	}
	target, err := a.targetFor(kind, verb, rest[1:])
	if err != nil {
		return clarify(err)
	}
	g := a.push(&models.Goal{
		Kind:     models.GoalConditional,
		Priority: intent.Priority,
		Target: models.GoalTarget{
			Words:      cond,
			Consequent: &models.ConsequentGoal{Kind: kind, Target: target},
		},
	})
	return models.Response{
		Kind:    models.ResponseGoal,
		Text:    fmt.Sprintf("Okay, if %s I will %s.", a.conditionText(cond), phrase(verb, target)),
		GoalIDs: []string{g.ID},
	}
}

// conditionText phrases a condition for a reply.
func (a *Agent) conditionText(words []string) string {
	c, err := CompileCondition(a.lexicon, words)
	if err == nil && c.Relational() {
		return c.relationText()
	}
	return "there is a " + strings.Join(words, " ")
}

func (a *Agent) routeQuery(intent models.Intent) models.Response {
	words := a.detector.ContentWords(intent.Args)
	if unknown := a.detector.Detect(intent); len(unknown) > 0 {
		u := a.understand(unknown, 0)
		resp := questionResponse(u)
		if a.cfg.Curiosity.DeferQueries {
			g := a.push(&models.Goal{
				Kind:      models.GoalAnswer,
				Priority:  intent.Priority,
				BlockedBy: u.ID,
				Target:    models.GoalTarget{Words: words, Query: intent.Query},
			})
			resp.GoalIDs = append(resp.GoalIDs, g.ID)
			resp.Text += " I'll answer once I know."
		}
		return resp
	}
	text, err := a.answerer.Answer(intent.Query, words)
	if err != nil {
		return clarify(err)
	}
	return models.Response{Kind: models.ResponseAnswer, Text: text}
}
