package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// memLexiconStore is an in-memory LexiconStore.
type memLexiconStore struct {
	entries []models.LexiconEntry
	saves   int
	err     error
}

func (m *memLexiconStore) Load() ([]models.LexiconEntry, error) {
	return append([]models.LexiconEntry(nil), m.entries...), m.err
}

func (m *memLexiconStore) Save(entries []models.LexiconEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append([]models.LexiconEntry(nil), entries...)
	m.saves++
	return nil
}

func TestValidateMeaning(t *testing.T) {
	tests := []struct {
		name     string
		word     string
		wordType models.WordType
		expr     string
		wantErr  bool
	}{
		{"property", "red", models.WordProperty, "color == 'red'", false},
		{"noun", "flute", models.WordNoun, "shape == 'cylinder' and material == 'wood'", false},
		{"relation", "bigger", models.WordRelation, "a.size > b.size", false},
		{"action label", "grab", models.WordAction, "TAKE", false},
		{"property with relation arity", "red", models.WordProperty, "a.size > b.size", true},
		{"relation with unary arity", "near", models.WordRelation, "color == 'red'", true},
		{"syntax error", "red", models.WordProperty, "color = 'red'", true},
		{"label with spaces", "grab", models.WordAction, "TAKE IT", true},
		{"bad word", "Red Box", models.WordProperty, "color == 'red'", true},
		{"bad type", "red", models.WordType("colour"), "color == 'red'", true},
		{"injection", "red", models.WordProperty, "__import__('os').system('rm')", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateMeaning(tt.word, tt.wordType, tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateMeaning() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestLexicon_PutRejectsWithoutChange(t *testing.T) {
	lex := NewLexicon(nil)
	if _, err := lex.Put("red", models.WordProperty, "color == 'red'", models.SourceTaught); err != nil {
		t.Fatal(err)
	}
	before := lex.Entries()

	_, err := lex.Put("red", models.WordProperty, "a.size > b.size", models.SourceTaught)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Word != "red" {
		t.Fatalf("Put() error = %v, want *ValidationError for red", err)
	}
	if diff := cmp.Diff(before, lex.Entries()); diff != "" {
		t.Errorf("lexicon changed after rejected teach (-before +after):\n%s", diff)
	}
}

func TestLexicon_PutKeepsObservationCount(t *testing.T) {
	lex := NewLexicon(nil)
	if _, err := lex.Put("Flute", models.WordNoun, "shape == 'cylinder'", models.SourceTaught); err != nil {
		t.Fatal(err)
	}
	lex.Observe("flute")
	lex.Observe("flute")
	e, err := lex.Put("flute", models.WordNoun, "shape == 'tube'", models.SourceLearner)
	if err != nil {
		t.Fatal(err)
	}
	if e.ObservationCount != 2 {
		t.Errorf("ObservationCount = %d, want 2", e.ObservationCount)
	}
	if e.Word != "flute" || e.Source != models.SourceLearner {
		t.Errorf("entry = %+v", e)
	}
	p, ok := lex.Predicate("flute")
	if !ok || !p.Match(models.WorldObject{Attributes: map[string]string{"shape": "tube"}}) {
		t.Error("compiled predicate not replaced")
	}
}

func TestLexicon_SaveLoadRoundTrip(t *testing.T) {
	store := &memLexiconStore{}
	lex := NewLexicon(store)
	lex.Seed(Curriculum())
	if lex.Dirty() {
		t.Error("seeding should not mark the lexicon dirty")
	}
	if _, err := lex.Put("flute", models.WordNoun, "shape == 'cylinder'", models.SourceTaught); err != nil {
		t.Fatal(err)
	}
	if !lex.Dirty() {
		t.Error("Put should mark the lexicon dirty")
	}
	if err := lex.Save(); err != nil {
		t.Fatal(err)
	}

	reloaded := NewLexicon(store)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(lex.Entries(), reloaded.Entries(), cmpopts.EquateApproxTime(0)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if _, ok := reloaded.Predicate("bigger"); !ok {
		t.Error("relation predicate not recompiled on load")
	}
}

func TestLexicon_LoadSkipsInvalidEntries(t *testing.T) {
	store := &memLexiconStore{entries: []models.LexiconEntry{
		{Word: "red", WordType: models.WordProperty, Expression: "color == 'red'"},
		{Word: "broken", WordType: models.WordNoun, Expression: "shape =="},
	}}
	lex := NewLexicon(store)
	err := lex.Load()
	if err == nil || !errors.Is(err, ErrValidation) {
		t.Fatalf("Load() error = %v, want wrapped validation error", err)
	}
	if !lex.Contains("red") || lex.Contains("broken") {
		t.Errorf("Entries() = %+v, want only red", lex.Entries())
	}
}

func TestLexicon_Unknown(t *testing.T) {
	lex := NewLexicon(nil)
	lex.Seed(Curriculum())
	got := lex.Unknown([]string{"red", "flute", "Zither", "flute", "box"})
	want := []string{"flute", "zither"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unknown() mismatch (-want +got):\n%s", diff)
	}
}
