package core

import (
	"context"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// ConceptStore persists the concept graph.
// This interface is defined locally in core to avoid importing storage.
type ConceptStore interface {
	Load() ([]models.ConceptNode, error)
	Save(nodes []models.ConceptNode) error
}

// StateStore persists the scheduler state: goals, history and the
// reflection buffer.
type StateStore interface {
	Load() (*models.AgentState, error)
	Save(state models.AgentState) error
}

// LearnedMeaning is a candidate meaning proposed by a Learner.
type LearnedMeaning struct {
	Word       string          `yaml:"word" json:"word"`
	WordType   models.WordType `yaml:"word_type" json:"word_type"`
	Expression string          `yaml:"expression" json:"expression"`
	Confidence float64         `yaml:"confidence" json:"confidence"`
}

// Learner looks up the meaning of a word the agent does not know. A nil
// meaning with a nil error means the learner has no answer.
type Learner interface {
	Lookup(ctx context.Context, word string) (*LearnedMeaning, error)
}

// ArtifactSink receives questions and answers emitted by executed steps.
type ArtifactSink interface {
	Emit(a models.Artifact) error
}

// AgentMetrics receives counters from the cognitive loop. The Prometheus
// exporter in observability implements it.
type AgentMetrics interface {
	TickCompleted(kind TickKind)
	GoalFinished(kind models.GoalKind, status models.GoalStatus)
	WordTaught(source string)
	ReflectionPass(processed, skipped int)
	SetSizes(activeGoals, lexiconWords, conceptNodes int)
}

type nopMetrics struct{}

func (nopMetrics) TickCompleted(TickKind) {}
func (nopMetrics) GoalFinished(models.GoalKind, models.GoalStatus) {}
func (nopMetrics) WordTaught(string) {}
func (nopMetrics) ReflectionPass(int, int) {}
func (nopMetrics) SetSizes(int, int, int) {}
