package core

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/valter-silva-au/ai-curious-brain/internal/predicate"
	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

var (
	wordPattern  = regexp.MustCompile(`^[a-z][a-z0-9_'-]*$`)
	labelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// NormalizeWord lowercases and trims a token.
func NormalizeWord(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

// ValidateMeaning checks that expression type-checks against the arity of
// wordType. Predicate word types return the compiled predicate; label word
// types return nil.
func ValidateMeaning(word string, wordType models.WordType, expression string) (*predicate.Predicate, error) {
	if !wordPattern.MatchString(word) {
		return nil, &ValidationError{Word: word, Reason: "word must start with a letter and contain only letters, digits, _, ' or -"}
	}
	if !wordType.Valid() {
		return nil, &ValidationError{Word: word, Reason: fmt.Sprintf("unknown word type %q", wordType)}
	}
	expression = strings.TrimSpace(expression)

	want := wordType.Arity()
	if want == 0 {
		if !labelPattern.MatchString(expression) {
			return nil, &ValidationError{Word: word, Reason: fmt.Sprintf("%s meaning must be a symbolic label, got %q", wordType, expression)}
		}
		return nil, nil
	}

	p, err := predicate.Compile(expression)
	if err != nil {
		return nil, &ValidationError{Word: word, Reason: fmt.Sprintf("expression does not parse: %v", err)}
	}
	if p.Arity() != want {
		return nil, &ValidationError{Word: word, Reason: fmt.Sprintf("%s meaning must range over %d object(s), expression ranges over %d", wordType, want, p.Arity())}
	}
	return p, nil
}

// LexiconStore persists lexicon entries. Defined here so core does not
// import the storage package.
type LexiconStore interface {
	Load() ([]models.LexiconEntry, error)
	Save(entries []models.LexiconEntry) error
}

// Lexicon maps words to meanings. Reads may run concurrently; the teach
// path is its only writer.
type Lexicon struct {
	mu       sync.RWMutex
	entries  map[string]models.LexiconEntry
	compiled map[string]*predicate.Predicate
	store    LexiconStore
	dirty    bool
	now      func() time.Time
}

// NewLexicon creates an empty lexicon persisted through store. store may be
// nil for an in-memory lexicon.
func NewLexicon(store LexiconStore) *Lexicon {
	return &Lexicon{
		entries:  make(map[string]models.LexiconEntry),
		compiled: make(map[string]*predicate.Predicate),
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Load replaces the in-memory entries with the stored ones. Entries whose
// meaning no longer validates are skipped and reported in the returned
// error; the rest are still loaded.
func (l *Lexicon) Load() error {
	if l.store == nil {
		return nil
	}
	stored, err := l.store.Load()
	if err != nil {
		return fmt.Errorf("loading lexicon: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]models.LexiconEntry, len(stored))
	l.compiled = make(map[string]*predicate.Predicate, len(stored))
	var errs []error
	for _, e := range stored {
		p, err := ValidateMeaning(e.Word, e.WordType, e.Expression)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		l.entries[e.Word] = e
		if p != nil {
			l.compiled[e.Word] = p
		}
	}
	l.dirty = false
	if len(errs) > 0 {
		return fmt.Errorf("loading lexicon: skipped %d invalid entr(ies): %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// Save persists all entries.
func (l *Lexicon) Save() error {
	if l.store == nil {
		return nil
	}
	entries := l.Entries()
	if err := l.store.Save(entries); err != nil {
		return fmt.Errorf("saving lexicon: %w", err)
	}
	l.mu.Lock()
	l.dirty = false
	l.mu.Unlock()
	return nil
}

// Put validates and stores a meaning, overwriting any previous one. The
// observation count of an existing word is kept.
func (l *Lexicon) Put(word string, wordType models.WordType, expression, source string) (models.LexiconEntry, error) {
	word = NormalizeWord(word)
	expression = strings.TrimSpace(expression)
	p, err := ValidateMeaning(word, wordType, expression)
	if err != nil {
		return models.LexiconEntry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entry := models.LexiconEntry{
		Word:       word,
		WordType:   wordType,
		Expression: expression,
		LearnedAt:  l.now(),
		Source:     source,
	}
	if prev, ok := l.entries[word]; ok {
		entry.ObservationCount = prev.ObservationCount
	}
	l.entries[word] = entry
	delete(l.compiled, word)
	if p != nil {
		l.compiled[word] = p
	}
	l.dirty = true
	return entry, nil
}

// Seed adds entries for words not yet known. Seeded entries are not marked
// for saving on their own.
func (l *Lexicon) Seed(entries []models.LexiconEntry) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	added := 0
	for _, e := range entries {
		if _, ok := l.entries[e.Word]; ok {
			continue
		}
		p, err := ValidateMeaning(e.Word, e.WordType, e.Expression)
		if err != nil {
			continue
		}
		if e.LearnedAt.IsZero() {
			e.LearnedAt = l.now()
		}
		l.entries[e.Word] = e
		if p != nil {
			l.compiled[e.Word] = p
		}
		added++
	}
	return added
}

// Get looks up a word.
func (l *Lexicon) Get(word string) (models.LexiconEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[NormalizeWord(word)]
	return e, ok
}

// Contains reports whether word has a meaning.
func (l *Lexicon) Contains(word string) bool {
	_, ok := l.Get(word)
	return ok
}

// Predicate returns the compiled meaning of a property, noun or relation.
func (l *Lexicon) Predicate(word string) (*predicate.Predicate, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.compiled[NormalizeWord(word)]
	return p, ok
}

// Observe increments the observation count of a known word.
func (l *Lexicon) Observe(word string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	word = NormalizeWord(word)
	e, ok := l.entries[word]
	if !ok {
		return false
	}
	e.ObservationCount++
	l.entries[word] = e
	l.dirty = true
	return true
}

// Unknown returns the tokens absent from the lexicon, sorted and deduplicated.
func (l *Lexicon) Unknown(tokens []string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	set := make(map[string]struct{})
	for _, t := range tokens {
		t = NormalizeWord(t)
		if _, ok := l.entries[t]; !ok {
			set[t] = struct{}{}
		}
	}
	return sortedSet(set)
}

// Entries returns all entries ordered by word.
func (l *Lexicon) Entries() []models.LexiconEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.LexiconEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Word < out[j].Word })
	return out
}

// Len returns the number of known words.
func (l *Lexicon) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Dirty reports whether entries changed since the last Load or Save.
func (l *Lexicon) Dirty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dirty
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
