package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/ai-curious-brain/internal/predicate"
	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// WorldModel is what the planner and execution engine need from the world.
// Defining it here keeps core independent of the world package.
type WorldModel interface {
	Find(match func(models.WorldObject) bool) []models.ObjectRef
	Object(ref models.ObjectRef) (models.WorldObject, bool)
	Mutate(ref models.ObjectRef, op models.Operation) (models.MutationResult, error)
	Blueprints(match func(models.Blueprint) bool) []models.Blueprint
}

// Description is a compiled object description: the conjunction of the
// meanings of its words.
type Description struct {
	Words []string
	preds []*predicate.Predicate
	ids   []models.ObjectRef
}

// Match reports whether s satisfies every word of the description.
func (d Description) Match(s predicate.Subject) bool {
	for _, id := range d.ids {
		v, ok := s.Attribute("id")
		if !ok || v != string(id) {
			return false
		}
	}
	for _, p := range d.preds {
		if !p.Match(s) {
			return false
		}
	}
	return true
}

// MatchObject adapts Match to WorldModel.Find.
func (d Description) MatchObject(o models.WorldObject) bool { return d.Match(o) }

// MatchBlueprint adapts Match to WorldModel.Blueprints. Descriptions that
// name a specific object id never match a blueprint.
func (d Description) MatchBlueprint(b models.Blueprint) bool {
	return len(d.ids) == 0 && d.Match(b)
}

func (d Description) String() string { return strings.Join(d.Words, " ") }

// Describe compiles content words into a Description using the lexicon.
// Symbolic words such as concepts add no constraint. A description that
// constrains nothing is rejected.
func Describe(lex *Lexicon, words []string) (Description, error) {
	d := Description{Words: append([]string(nil), words...)}
	for _, w := range words {
		if strings.HasPrefix(w, ObjectRefPrefix) {
			d.ids = append(d.ids, models.ObjectRef(strings.TrimPrefix(w, ObjectRefPrefix)))
			continue
		}
		entry, ok := lex.Get(w)
		if !ok {
			return Description{}, fmt.Errorf("unknown word %q", w)
		}
		switch entry.WordType.Arity() {
		case 1:
			p, _ := lex.Predicate(w)
			d.preds = append(d.preds, p)
		case 2:
			return Description{}, fmt.Errorf("relation %q cannot describe a single object", w)
		}
	}
	if len(d.preds) == 0 && len(d.ids) == 0 {
		return Description{}, fmt.Errorf("description %q names no object attributes", d.String())
	}
	return d, nil
}

// Condition is a compiled statement about the world. Without a relation it
// holds when some object matches the description. With one it holds when
// the relation is true of a subject and a distinct object matching the
// descriptions on either side, as in "box bigger sphere".
type Condition struct {
	Words    []string
	subject  Description
	relWord  string
	relation *predicate.Predicate
	object   Description
}

// CompileCondition compiles content words into a Condition. At most one
// relation word is allowed and it needs a description on each side.
func CompileCondition(lex *Lexicon, words []string) (Condition, error) {
	c := Condition{Words: append([]string(nil), words...)}
	rel := -1
	for i, w := range words {
		if e, ok := lex.Get(w); ok && e.WordType.Arity() == 2 {
			rel = i
			break
		}
	}
	if rel < 0 {
		d, err := Describe(lex, words)
		if err != nil {
			return Condition{}, err
		}
		c.subject = d
		return c, nil
	}

	if rel == 0 || rel == len(words)-1 {
		return Condition{}, fmt.Errorf("relation %q needs an object on each side", words[rel])
	}
	subject, err := Describe(lex, words[:rel])
	if err != nil {
		return Condition{}, err
	}
	object, err := Describe(lex, words[rel+1:])
	if err != nil {
		return Condition{}, err
	}
	p, ok := lex.Predicate(words[rel])
	if !ok {
		return Condition{}, fmt.Errorf("relation %q has no meaning", words[rel])
	}
	c.subject, c.relWord, c.relation, c.object = subject, words[rel], p, object
	return c, nil
}

// Relational reports whether the condition compares two objects.
func (c Condition) Relational() bool { return c.relation != nil }

// Holds evaluates the condition against w. It returns the objects that
// satisfied it: the matches of a plain description, or the first
// subject/object pair a relation holds for.
func (c Condition) Holds(w WorldModel) (bool, []models.ObjectRef, error) {
	subjects := w.Find(c.subject.MatchObject)
	if !c.Relational() {
		return len(subjects) > 0, subjects, nil
	}
	objects := w.Find(c.object.MatchObject)
	for _, a := range subjects {
		sa, ok := w.Object(a)
		if !ok {
			continue
		}
		for _, b := range objects {
			if a == b {
				continue
			}
			sb, ok := w.Object(b)
			if !ok {
				continue
			}
			holds, err := c.relation.Eval(sa, sb)
			if err != nil {
				return false, nil, fmt.Errorf("evaluating %q: %w", c.relWord, err)
			}
			if holds {
				return true, []models.ObjectRef{a, b}, nil
			}
		}
	}
	return false, nil, nil
}

// Statement phrases the outcome of evaluating the condition.
func (c Condition) Statement(holds bool) string {
	switch {
	case c.Relational() && holds:
		return fmt.Sprintf("Yes, %s.", c.relationText())
	case c.Relational():
		return fmt.Sprintf("No, %q does not hold between any %s and %s.", c.relWord, c.subject, c.object)
	case holds:
		return fmt.Sprintf("Yes, there is a %s.", c.subject)
	default:
		return fmt.Sprintf("No, there is no %s.", c.subject)
	}
}

func (c Condition) relationText() string {
	return fmt.Sprintf("%q holds between a %s and a %s", c.relWord, c.subject, c.object)
}

func (c Condition) String() string { return strings.Join(c.Words, " ") }
