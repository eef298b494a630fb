package core

import (
	"math"
	"regexp"
	"sort"
	"sync"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

var conceptPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.'-]*$`)

// ValidConceptName reports whether name can key a concept node.
func ValidConceptName(name string) bool {
	return conceptPattern.MatchString(name)
}

// EdgeWeight is the diminishing-returns weight of an edge observed n times.
func EdgeWeight(n int) float64 {
	return 1 - 1/(1+float64(n))
}

// Confidence is min(1, n/(n+c)) for a node observed n times.
func Confidence(n int, c float64) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(1, float64(n)/(float64(n)+c))
}

// ConceptGraph is the weighted graph of learned concepts. Nodes and edges
// are never deleted and weights never decrease.
type ConceptGraph struct {
	mu    sync.RWMutex
	nodes map[string]*models.ConceptNode
}

// NewConceptGraph creates an empty graph.
func NewConceptGraph() *ConceptGraph {
	return &ConceptGraph{nodes: make(map[string]*models.ConceptNode)}
}

// Ensure creates a stub node with confidence 0 if name is absent. A known
// word type fills in a stub's missing type.
func (cg *ConceptGraph) Ensure(name string, wordType models.WordType) bool {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	return cg.ensureLocked(name, wordType)
}

func (cg *ConceptGraph) ensureLocked(name string, wordType models.WordType) bool {
	if n, ok := cg.nodes[name]; ok {
		if n.WordType == "" {
			n.WordType = wordType
		}
		return false
	}
	cg.nodes[name] = &models.ConceptNode{Name: name, WordType: wordType}
	return true
}

// Observe counts one more observation of an existing node and raises its
// confidence.
func (cg *ConceptGraph) Observe(name string, smoothing float64) {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	n, ok := cg.nodes[name]
	if !ok {
		return
	}
	n.ObservationCount++
	if c := Confidence(n.ObservationCount, smoothing); c > n.Confidence {
		n.Confidence = c
	}
}

// Link records one observation of the edge from -label-> to, creating stub
// endpoints as needed. It returns how many nodes were created.
func (cg *ConceptGraph) Link(from, label, to string) int {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	created := 0
	if cg.ensureLocked(from, "") {
		created++
	}
	if cg.ensureLocked(to, "") {
		created++
	}
	n := cg.nodes[from]
	for i := range n.Edges {
		e := &n.Edges[i]
		if e.Label == label && e.Target == to {
			e.Observations++
			e.Weight = EdgeWeight(e.Observations)
			return created
		}
	}
	n.Edges = append(n.Edges, models.ConceptEdge{Label: label, Target: to, Observations: 1, Weight: EdgeWeight(1)})
	return created
}

// Has reports whether name is a node.
func (cg *ConceptGraph) Has(name string) bool {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	_, ok := cg.nodes[name]
	return ok
}

// Node returns a copy of the named node.
func (cg *ConceptGraph) Node(name string) (models.ConceptNode, bool) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	n, ok := cg.nodes[name]
	if !ok {
		return models.ConceptNode{}, false
	}
	return copyNode(n), true
}

// Weight returns the weight of the from -label-> to edge, or 0.
func (cg *ConceptGraph) Weight(from, label, to string) float64 {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	n, ok := cg.nodes[from]
	if !ok {
		return 0
	}
	for _, e := range n.Edges {
		if e.Label == label && e.Target == to {
			return e.Weight
		}
	}
	return 0
}

// RelatedTo lists the concepts name has edges to, using the strongest edge
// per concept, ordered by weight descending then name ascending.
func (cg *ConceptGraph) RelatedTo(name string) []models.RelatedConcept {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	n, ok := cg.nodes[name]
	if !ok {
		return nil
	}
	best := make(map[string]float64)
	for _, e := range n.Edges {
		if w, seen := best[e.Target]; !seen || e.Weight > w {
			best[e.Target] = e.Weight
		}
	}
	out := make([]models.RelatedConcept, 0, len(best))
	for c, w := range best {
		out = append(out, models.RelatedConcept{Concept: c, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Concept < out[j].Concept
	})
	return out
}

// Nodes returns copies of all nodes ordered by name.
func (cg *ConceptGraph) Nodes() []models.ConceptNode {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	out := make([]models.ConceptNode, 0, len(cg.nodes))
	for _, n := range cg.nodes {
		out = append(out, copyNode(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of nodes.
func (cg *ConceptGraph) Len() int {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	return len(cg.nodes)
}

// Restore replaces the graph with persisted nodes.
func (cg *ConceptGraph) Restore(nodes []models.ConceptNode) {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	cg.nodes = make(map[string]*models.ConceptNode, len(nodes))
	for i := range nodes {
		n := copyNode(&nodes[i])
		cg.nodes[n.Name] = &n
	}
}

func copyNode(n *models.ConceptNode) models.ConceptNode {
	c := *n
	c.Edges = append([]models.ConceptEdge(nil), n.Edges...)
	return c
}
