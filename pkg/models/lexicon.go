package models

import "time"

// WordType classifies a lexicon word and fixes the arity of its meaning.
type WordType string

const (
	WordProperty WordType = "property"
	WordNoun     WordType = "noun"
	WordRelation WordType = "relation"
	WordAction   WordType = "action"
	WordSocial   WordType = "social"
	WordInquiry  WordType = "inquiry"
	WordPronoun  WordType = "pronoun"
	WordArticle  WordType = "article"
	WordVerb     WordType = "verb"
	WordConcept  WordType = "concept"
)

// ValidWordTypes lists every accepted word type.
var ValidWordTypes = []WordType{
	WordProperty, WordNoun, WordRelation, WordAction, WordSocial,
	WordInquiry, WordPronoun, WordArticle, WordVerb, WordConcept,
}

// Arity returns how many objects a meaning of this word type ranges over.
// Zero means the meaning is a symbolic label.
func (t WordType) Arity() int {
	switch t {
	case WordProperty, WordNoun:
		return 1
	case WordRelation:
		return 2
	default:
		return 0
	}
}

// Valid reports whether t is one of ValidWordTypes.
func (t WordType) Valid() bool {
	for _, v := range ValidWordTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Where a lexicon entry came from.
const (
	SourceCurriculum = "curriculum"
	SourceTaught     = "taught"
	SourceLearner    = "learner"
)

// LexiconEntry binds a word to its meaning.
type LexiconEntry struct {
	Word             string    `yaml:"word" json:"word"`
	WordType         WordType  `yaml:"word_type" json:"word_type"`
	Expression       string    `yaml:"expression" json:"expression"`
	LearnedAt        time.Time `yaml:"learned_at" json:"learned_at"`
	ObservationCount int       `yaml:"observation_count" json:"observation_count"`
	Source           string    `yaml:"source,omitempty" json:"source,omitempty"`
}
