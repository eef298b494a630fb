package models

import "time"

// AgentEventKind distinguishes the sources Reflection mines.
type AgentEventKind string

const (
	EventTeaching AgentEventKind = "teaching"
	EventMutation AgentEventKind = "mutation"
)

// Event log types. Terminal goal events are "goal." plus the final status.
const (
	LogGoalCreated       = "goal.created"
	LogGoalStatusChanged = "goal.status_changed"
	LogGoalCompleted     = "goal.completed"
	LogGoalFailed        = "goal.failed"
	LogGoalAbandoned     = "goal.abandoned"
	LogWordTaught        = "lexicon.taught"
	LogQuestionAsked     = "question.asked"
	LogReflection        = "reflection.completed"
)

// AgentEvent is one record in the reflection ring buffer. IDs increase
// monotonically for the lifetime of the agent state.
type AgentEvent struct {
	ID         uint64            `yaml:"id" json:"id"`
	Kind       AgentEventKind    `yaml:"kind" json:"kind"`
	Concepts   []string          `yaml:"concepts" json:"concepts"`
	Attributes map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	GoalID     string            `yaml:"goal_id,omitempty" json:"goal_id,omitempty"`
	At         time.Time         `yaml:"at" json:"at"`
}

// ArtifactKind distinguishes step outputs.
type ArtifactKind string

const (
	ArtifactQuestion ArtifactKind = "question"
	ArtifactAnswer   ArtifactKind = "answer"
)

// Artifact is text a step emits for the presentation layer.
type Artifact struct {
	ID      string       `yaml:"id" json:"id"`
	Kind    ArtifactKind `yaml:"kind" json:"kind"`
	GoalID  string       `yaml:"goal_id" json:"goal_id"`
	Text    string       `yaml:"text" json:"text"`
	Tokens  []string     `yaml:"tokens,omitempty" json:"tokens,omitempty"`
	Created time.Time    `yaml:"created" json:"created"`
}

// AgentState is everything the scheduler needs to resume across processes.
type AgentState struct {
	Version     string       `yaml:"version"`
	Tick        uint64       `yaml:"tick"`
	GoalSeq     uint64       `yaml:"goal_seq"`
	NextEventID uint64       `yaml:"next_event_id"`
	HighWater   uint64       `yaml:"high_water"`
	Goals       []Goal       `yaml:"goals"`
	History     []Goal       `yaml:"history"`
	Events      []AgentEvent `yaml:"events"`
}
