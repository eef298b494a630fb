package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// relatedLimit caps how many related concepts a knowledge answer lists.
const relatedLimit = 5

// Answerer answers queries from the world, the lexicon and the concept graph
// without creating goals.
type Answerer struct {
	world   WorldModel
	lexicon *Lexicon
	graph   *ConceptGraph
	agent   string
}

// NewAnswerer creates an answerer speaking for agent.
func NewAnswerer(world WorldModel, lexicon *Lexicon, graph *ConceptGraph, agent string) *Answerer {
	return &Answerer{world: world, lexicon: lexicon, graph: graph, agent: agent}
}

// Answer renders the answer to a query over content words. Unanswerable
// queries return an *AmbiguityError.
func (a *Answerer) Answer(kind models.QueryKind, words []string) (string, error) {
	switch kind {
	case models.QueryInventory:
		return a.inventory(), nil
	case models.QueryKnowledge:
		if len(words) == 0 {
			return "", &AmbiguityError{Detail: "knowledge query names no word"}
		}
		return a.knowledge(words[0]), nil
	case models.QueryVerify:
		c, err := CompileCondition(a.lexicon, words)
		if err != nil {
			return "", &AmbiguityError{Detail: err.Error()}
		}
		holds, _, err := c.Holds(a.world)
		if err != nil {
			return "", err
		}
		return c.Statement(holds), nil
	case models.QueryFind, models.QueryWhere:
	default:
		return "", &AmbiguityError{Detail: fmt.Sprintf("unknown query kind %q", kind)}
	}

	d, err := Describe(a.lexicon, words)
	if err != nil {
		return "", &AmbiguityError{Detail: err.Error()}
	}
	objs := a.objects(a.world.Find(d.MatchObject))
	switch kind {
	case models.QueryWhere:
		if len(objs) == 0 {
			return fmt.Sprintf("I don't know where any %s is.", d), nil
		}
		lines := make([]string, len(objs))
		for i, o := range objs {
			lines[i] = a.location(o)
		}
		return strings.Join(lines, "\n"), nil
	default:
		if len(objs) == 0 {
			return fmt.Sprintf("I don't see any %s.", d), nil
		}
		return "I see: " + a.list(objs) + ".", nil
	}
}

func (a *Answerer) inventory() string {
	objs := a.objects(a.world.Find(func(o models.WorldObject) bool { return o.Owner == a.agent }))
	if len(objs) == 0 {
		return "I'm not holding anything."
	}
	return "I have: " + a.list(objs) + "."
}

func (a *Answerer) knowledge(word string) string {
	word = NormalizeWord(word)
	entry, ok := a.lexicon.Get(word)
	if !ok {
		return fmt.Sprintf("I don't know %q yet.", word)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%q is a %s meaning %s (learned from %s, seen %d times).",
		word, entry.WordType, entry.Expression, entry.Source, entry.ObservationCount)
	if a.graph == nil {
		return b.String()
	}
	related := a.graph.RelatedTo(word)
	if len(related) > relatedLimit {
		related = related[:relatedLimit]
	}
	if len(related) > 0 {
		parts := make([]string, len(related))
		for i, r := range related {
			parts[i] = fmt.Sprintf("%s (%.2f)", r.Concept, r.Weight)
		}
		fmt.Fprintf(&b, " Related: %s.", strings.Join(parts, ", "))
	}
	return b.String()
}

func (a *Answerer) location(o models.WorldObject) string {
	switch {
	case o.Inside != "":
		container := string(o.Inside)
		if c, ok := a.world.Object(o.Inside); ok {
			container = c.Name
		}
		return fmt.Sprintf("The %s (%s) is inside the %s.", o.Name, o.ID, container)
	case o.Owner == a.agent:
		return fmt.Sprintf("I have the %s (%s).", o.Name, o.ID)
	case o.Owner != models.OwnerWorld:
		return fmt.Sprintf("The %s (%s) is held by %s.", o.Name, o.ID, o.Owner)
	default:
		return fmt.Sprintf("The %s (%s) is lying around.", o.Name, o.ID)
	}
}

func (a *Answerer) objects(refs []models.ObjectRef) []models.WorldObject {
	out := make([]models.WorldObject, 0, len(refs))
	for _, r := range refs {
		if o, ok := a.world.Object(r); ok {
			out = append(out, o)
		}
	}
	return out
}

func (a *Answerer) list(objs []models.WorldObject) string {
	parts := make([]string, len(objs))
	for i, o := range objs {
		parts[i] = fmt.Sprintf("%s (%s)", o.Name, o.ID)
	}
	return strings.Join(parts, ", ")
}
