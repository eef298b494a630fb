package core

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// Reflection defaults.
const (
	DefaultSmoothing   = 3.0
	DefaultMaxDepth    = 3
	DefaultMaxNewNodes = 32
)

// ReflectionReport summarizes one pass.
type ReflectionReport struct {
	Processed    int     `json:"processed"`
	Skipped      int     `json:"skipped"` // whole events; bad literals only add to Errors
	NodesCreated int     `json:"nodes_created"`
	EdgesUpdated int     `json:"edges_updated"`
	HighWater    uint64  `json:"high_water"`
	Errors       []error `json:"-"`
}

// Reflector folds agent events into the concept graph. Each event is
// applied at most once; the high-water mark records the last event seen.
type Reflector struct {
	graph     *ConceptGraph
	lexicon   *Lexicon
	smoothing float64
	cascade   models.CascadeConfig
	logger    *zap.Logger
	hwm       uint64
}

// NewReflector creates a reflector. Zero config values fall back to the
// defaults.
func NewReflector(graph *ConceptGraph, lexicon *Lexicon, smoothing float64, cascade models.CascadeConfig, logger *zap.Logger) *Reflector {
	if smoothing <= 0 {
		smoothing = DefaultSmoothing
	}
	if cascade.MaxDepth <= 0 {
		cascade.MaxDepth = DefaultMaxDepth
	}
	if cascade.MaxNewNodes <= 0 {
		cascade.MaxNewNodes = DefaultMaxNewNodes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reflector{graph: graph, lexicon: lexicon, smoothing: smoothing, cascade: cascade, logger: logger}
}

// HighWater returns the ID of the last event applied or skipped.
func (r *Reflector) HighWater() uint64 { return r.hwm }

// SetHighWater restores the high-water mark.
func (r *Reflector) SetHighWater(hwm uint64) { r.hwm = hwm }

// Run applies every event above the high-water mark in ID order. Events
// with invalid concepts are skipped and reported, never fatal.
func (r *Reflector) Run(events []models.AgentEvent) ReflectionReport {
	sorted := append([]models.AgentEvent(nil), events...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	rep := ReflectionReport{HighWater: r.hwm}
	budget := r.cascade.MaxNewNodes
	for _, e := range sorted {
		if e.ID <= r.hwm {
			continue
		}
		r.hwm = e.ID
		rep.HighWater = e.ID
		if err := validateEvent(e); err != nil {
			r.logger.Warn("reflection skipped event", zap.Uint64("event_id", e.ID), zap.Error(err))
			rep.Skipped++
			rep.Errors = append(rep.Errors, err)
			continue
		}
		r.apply(e, &rep, &budget)
		rep.Processed++
	}
	return rep
}

func validateEvent(e models.AgentEvent) error {
	if len(e.Concepts) == 0 {
		return &InconsistencyError{EventID: e.ID, Reason: "event has no concepts"}
	}
	for _, c := range e.Concepts {
		if !ValidConceptName(c) {
			return &InconsistencyError{EventID: e.ID, Concept: c, Reason: "invalid concept name"}
		}
	}
	return nil
}

// validateLiteral checks one attribute literal of a teaching event. A bad
// literal loses only its own edge.
func validateLiteral(e models.AgentEvent, attr, value string) error {
	if !ValidConceptName(attr) {
		return &InconsistencyError{EventID: e.ID, Concept: attr, Reason: "invalid attribute label"}
	}
	if !ValidConceptName(NormalizeWord(value)) {
		return &InconsistencyError{EventID: e.ID, Concept: value, Reason: "invalid attribute value"}
	}
	return nil
}

func (r *Reflector) apply(e models.AgentEvent, rep *ReflectionReport, budget *int) {
	concepts := dedupe(append([]string(nil), e.Concepts...))
	for _, c := range concepts {
		var wt models.WordType
		if entry, ok := r.lexicon.Get(c); ok {
			wt = entry.WordType
			r.lexicon.Observe(c)
		}
		if r.graph.Ensure(c, wt) {
			rep.NodesCreated++
		}
		r.graph.Observe(c, r.smoothing)
	}
	for i := 0; i < len(concepts); i++ {
		for j := i + 1; j < len(concepts); j++ {
			rep.NodesCreated += r.graph.Link(concepts[i], models.RelationCoOccurs, concepts[j])
			rep.NodesCreated += r.graph.Link(concepts[j], models.RelationCoOccurs, concepts[i])
			rep.EdgesUpdated += 2
		}
	}
	if e.Kind != models.EventTeaching {
		return
	}

	word := concepts[0]
	attrs := make([]string, 0, len(e.Attributes))
	for a := range e.Attributes {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)
	for _, a := range attrs {
		if err := validateLiteral(e, a, e.Attributes[a]); err != nil {
			r.logger.Warn("reflection skipped literal", zap.Uint64("event_id", e.ID), zap.Error(err))
			rep.Errors = append(rep.Errors, err)
			continue
		}
		rep.NodesCreated += r.graph.Link(word, a, NormalizeWord(e.Attributes[a]))
		rep.EdgesUpdated++
	}

	c := newCascade(r, budget)
	c.expand(word, 1)
	rep.NodesCreated += c.created
	rep.EdgesUpdated += c.edges
}

// cascade expands a taught word through the lexicon: words sharing one of
// its attribute literals are linked, then expanded in turn. Expansion stops
// at the depth limit or once the pass's node budget is spent.
type cascade struct {
	r       *Reflector
	budget  *int
	visited map[string]bool
	index   map[predicateLiteral][]string
	created int
	edges   int
}

type predicateLiteral struct {
	attr  string
	value string
}

func newCascade(r *Reflector, budget *int) *cascade {
	c := &cascade{r: r, budget: budget, visited: make(map[string]bool), index: make(map[predicateLiteral][]string)}
	for _, entry := range r.lexicon.Entries() {
		p, ok := r.lexicon.Predicate(entry.Word)
		if !ok {
			continue
		}
		for _, lit := range p.Literals() {
			k := predicateLiteral{attr: lit.Attr, value: NormalizeWord(lit.Value)}
			c.index[k] = append(c.index[k], entry.Word)
		}
	}
	return c
}

func (c *cascade) literals(word string) []predicateLiteral {
	p, ok := c.r.lexicon.Predicate(word)
	if !ok {
		return nil
	}
	var out []predicateLiteral
	for _, lit := range p.Literals() {
		out = append(out, predicateLiteral{attr: lit.Attr, value: NormalizeWord(lit.Value)})
	}
	return out
}

func (c *cascade) expand(word string, depth int) {
	c.visited[word] = true
	if depth >= c.r.cascade.MaxDepth {
		return
	}
	for _, lit := range c.literals(word) {
		for _, other := range c.index[lit] {
			if other == word || c.visited[other] {
				continue
			}
			if !c.r.graph.Has(other) {
				if *c.budget <= 0 {
					return
				}
				*c.budget--
			}
			c.created += c.r.graph.Link(word, "same_"+lit.attr, other)
			c.created += c.r.graph.Link(other, "same_"+lit.attr, word)
			c.edges += 2
			c.expand(other, depth+1)
		}
	}
}

// Inconsistencies extracts the skipped-event errors of a report.
func (rep ReflectionReport) Inconsistencies() []*InconsistencyError {
	var out []*InconsistencyError
	for _, err := range rep.Errors {
		var ie *InconsistencyError
		if errors.As(err, &ie) {
			out = append(out, ie)
		}
	}
	return out
}
