package core

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func newTestReflector(t *testing.T, cascade models.CascadeConfig) (*Reflector, *ConceptGraph, *Lexicon, *EventBuffer) {
	t.Helper()
	lex := newCurriculumLexicon(t)
	graph := NewConceptGraph()
	return NewReflector(graph, lex, DefaultSmoothing, cascade, nil), graph, lex, NewEventBuffer(16)
}

func TestReflection_CoOccurrenceWeights(t *testing.T) {
	r, graph, lex, buf := newTestReflector(t, models.CascadeConfig{})

	buf.Append(models.EventMutation, []string{"red", "box", "take"}, nil, "g1")
	r.Run(buf.Since(r.HighWater()))
	if w := graph.Weight("red", models.RelationCoOccurs, "box"); !approx(w, 0.5) {
		t.Errorf("weight after one observation = %v, want 0.5", w)
	}

	buf.Append(models.EventMutation, []string{"red", "box", "open"}, nil, "g2")
	r.Run(buf.Since(r.HighWater()))
	if w := graph.Weight("red", models.RelationCoOccurs, "box"); !approx(w, 2.0/3.0) {
		t.Errorf("weight after two observations = %v, want 2/3", w)
	}
	if w := graph.Weight("box", models.RelationCoOccurs, "red"); !approx(w, 2.0/3.0) {
		t.Errorf("reverse weight = %v, want 2/3", w)
	}

	n, ok := graph.Node("red")
	if !ok || n.ObservationCount != 2 || !approx(n.Confidence, 2.0/5.0) {
		t.Errorf("red node = %+v, want 2 observations and confidence 0.4", n)
	}
	if n.WordType != models.WordProperty {
		t.Errorf("red word type = %q", n.WordType)
	}
	if e, _ := lex.Get("red"); e.ObservationCount != 2 {
		t.Errorf("lexicon observation count = %d, want 2", e.ObservationCount)
	}
}

func TestReflection_Idempotent(t *testing.T) {
	r, graph, _, buf := newTestReflector(t, models.CascadeConfig{})
	buf.Append(models.EventMutation, []string{"red", "box"}, nil, "")
	buf.Append(models.EventTeaching, []string{"flute"}, map[string]string{"shape": "cylinder"}, "")

	events := buf.Since(0)
	first := r.Run(events)
	before := graph.Nodes()
	second := r.Run(events)

	if first.Processed != 2 || second.Processed != 0 {
		t.Errorf("processed = %d then %d, want 2 then 0", first.Processed, second.Processed)
	}
	if diff := cmp.Diff(before, graph.Nodes()); diff != "" {
		t.Errorf("graph changed on re-run (-before +after):\n%s", diff)
	}
}

func TestReflection_SkipsInvalidConcepts(t *testing.T) {
	r, graph, _, buf := newTestReflector(t, models.CascadeConfig{})
	buf.Append(models.EventMutation, []string{"red", "Bad Name!"}, nil, "")
	buf.Append(models.EventMutation, []string{"blue", "box"}, nil, "")

	rep := r.Run(buf.Since(0))
	if rep.Skipped != 1 || rep.Processed != 1 {
		t.Fatalf("report = %+v, want one skipped and one processed", rep)
	}
	incs := rep.Inconsistencies()
	if len(incs) != 1 || incs[0].EventID != 1 || !errors.Is(incs[0], ErrReflectionInconsistency) {
		t.Errorf("inconsistencies = %+v", incs)
	}
	if graph.Has("red") {
		t.Error("a skipped event must not touch the graph")
	}
	if r.HighWater() != 2 {
		t.Errorf("high water = %d, want 2", r.HighWater())
	}
}

func TestReflection_TeachingLinksAttributes(t *testing.T) {
	r, graph, lex, buf := newTestReflector(t, models.CascadeConfig{})
	if _, err := lex.Put("crimson", models.WordProperty, "color == 'red'", models.SourceTaught); err != nil {
		t.Fatal(err)
	}
	buf.Append(models.EventTeaching, []string{"crimson"}, map[string]string{"color": "red"}, "")
	r.Run(buf.Since(0))

	if w := graph.Weight("crimson", "color", "red"); !approx(w, 0.5) {
		t.Errorf("attribute edge weight = %v, want 0.5", w)
	}
	// red shares color == 'red' with crimson.
	if w := graph.Weight("crimson", "same_color", "red"); !approx(w, 0.5) {
		t.Errorf("cascade edge weight = %v, want 0.5", w)
	}
	related := graph.RelatedTo("crimson")
	if len(related) != 1 || related[0].Concept != "red" {
		t.Errorf("RelatedTo(crimson) = %+v, want red once with its strongest edge", related)
	}
}

func TestReflection_BadLiteralKeepsTaughtWord(t *testing.T) {
	r, graph, _, buf := newTestReflector(t, models.CascadeConfig{})
	buf.Append(models.EventTeaching, []string{"oak"}, map[string]string{"material": "oak wood", "shape": "log"}, "")

	rep := r.Run(buf.Since(0))
	if rep.Processed != 1 || rep.Skipped != 0 {
		t.Fatalf("report = %+v, want the event processed", rep)
	}
	if !graph.Has("oak") {
		t.Fatal("taught word oak has no concept node")
	}
	if w := graph.Weight("oak", "shape", "log"); !approx(w, 0.5) {
		t.Errorf("valid literal edge weight = %v, want 0.5", w)
	}
	if graph.Has("oak wood") {
		t.Error("invalid literal value became a node")
	}
	incs := rep.Inconsistencies()
	if len(incs) != 1 || incs[0].Concept != "oak wood" || incs[0].EventID != 1 {
		t.Errorf("inconsistencies = %+v, want one for the bad literal", incs)
	}
}

func TestReflection_CascadeRespectsBudget(t *testing.T) {
	r, graph, lex, buf := newTestReflector(t, models.CascadeConfig{MaxDepth: 3, MaxNewNodes: 1})
	for _, w := range []string{"rose", "cherry", "ruby", "brick"} {
		if _, err := lex.Put(w, models.WordProperty, "color == 'red'", models.SourceTaught); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := lex.Put("scarlet", models.WordProperty, "color == 'red'", models.SourceTaught); err != nil {
		t.Fatal(err)
	}
	buf.Append(models.EventTeaching, []string{"scarlet"}, map[string]string{"color": "red"}, "")
	r.Run(buf.Since(0))

	// scarlet and red come from the event itself; the cascade may add one.
	cascaded := 0
	for _, w := range []string{"rose", "cherry", "ruby", "brick"} {
		if graph.Has(w) {
			cascaded++
		}
	}
	if cascaded > 1 {
		t.Errorf("cascade created %d nodes, budget was 1", cascaded)
	}
}

func TestConceptGraph_RelatedToOrdering(t *testing.T) {
	g := NewConceptGraph()
	g.Link("flute", "shape", "cylinder")
	g.Link("flute", models.RelationCoOccurs, "wood")
	g.Link("flute", models.RelationCoOccurs, "wood")
	g.Link("flute", models.RelationCoOccurs, "band")
	g.Link("flute", "material", "wood")

	got := g.RelatedTo("flute")
	want := []models.RelatedConcept{
		{Concept: "wood", Weight: 2.0 / 3.0},
		{Concept: "band", Weight: 0.5},
		{Concept: "cylinder", Weight: 0.5},
	}
	if diff := cmp.Diff(want, got, cmp.Comparer(approx)); diff != "" {
		t.Errorf("RelatedTo() mismatch (-want +got):\n%s", diff)
	}
	if g.RelatedTo("missing") != nil {
		t.Error("RelatedTo of unknown concept should be nil")
	}
}

func TestEventBuffer_DropsOldest(t *testing.T) {
	buf := NewEventBuffer(2)
	buf.Append(models.EventMutation, []string{"a"}, nil, "")
	buf.Append(models.EventMutation, []string{"b"}, nil, "")
	e := buf.Append(models.EventMutation, []string{"c"}, nil, "")
	if e.ID != 3 {
		t.Errorf("third event ID = %d, want 3", e.ID)
	}
	got := buf.Since(0)
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Errorf("Since(0) = %+v, want events 2 and 3", got)
	}
	if !buf.Pending(2) || buf.Pending(3) {
		t.Error("Pending() disagrees with buffered IDs")
	}
}
