package models

// RelationCoOccurs labels the symmetric edge Reflection adds between concepts
// that appeared in the same event.
const RelationCoOccurs = "co_occurs"

// ConceptEdge is a weighted, labelled relation to another concept.
type ConceptEdge struct {
	Label        string  `yaml:"label" json:"label"`
	Target       string  `yaml:"target" json:"target"`
	Weight       float64 `yaml:"weight" json:"weight"`
	Observations int     `yaml:"observations" json:"observations"`
}

// ConceptNode is a learned word or entity in the concept graph.
type ConceptNode struct {
	Name             string        `yaml:"name" json:"name"`
	WordType         WordType      `yaml:"word_type,omitempty" json:"word_type,omitempty"`
	ObservationCount int           `yaml:"observation_count" json:"observation_count"`
	Confidence       float64       `yaml:"confidence" json:"confidence"`
	Edges            []ConceptEdge `yaml:"edges,omitempty" json:"edges,omitempty"`
}

// RelatedConcept is one entry of a concepts-related-to answer.
type RelatedConcept struct {
	Concept string  `yaml:"concept" json:"concept"`
	Weight  float64 `yaml:"weight" json:"weight"`
}
