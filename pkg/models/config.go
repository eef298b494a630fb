package models

import "time"

// SchedulerConfig controls the tick loop.
type SchedulerConfig struct {
	ReflectionEvery int `yaml:"reflection_every" mapstructure:"reflection_every"`
	MaxSteps        int `yaml:"max_steps" mapstructure:"max_steps"`
}

// GoalConfig controls goal priorities.
type GoalConfig struct {
	DefaultPriority    int `yaml:"default_priority" mapstructure:"default_priority"`
	UnderstandPriority int `yaml:"understand_priority" mapstructure:"understand_priority"`
}

// ReflectionConfig controls the concept graph update pass.
type ReflectionConfig struct {
	Smoothing  float64 `yaml:"smoothing" mapstructure:"smoothing"`
	BufferSize int     `yaml:"buffer_size" mapstructure:"buffer_size"`
}

// CascadeConfig bounds semantic expansion of taught words.
type CascadeConfig struct {
	MaxDepth    int `yaml:"max_depth" mapstructure:"max_depth"`
	MaxNewNodes int `yaml:"max_new_nodes" mapstructure:"max_new_nodes"`
}

// LexiconConfig selects the lexicon persistence backend.
type LexiconConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // yaml or sqlite
}

// LearnerConfig configures the autonomous external learner.
type LearnerConfig struct {
	Kind          string        `yaml:"kind" mapstructure:"kind"` // none, glossary, command
	GlossaryPath  string        `yaml:"glossary_path,omitempty" mapstructure:"glossary_path"`
	Command       string        `yaml:"command,omitempty" mapstructure:"command"`
	Args          []string      `yaml:"args,omitempty" mapstructure:"args"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxParallel   int           `yaml:"max_parallel" mapstructure:"max_parallel"`
	MinConfidence float64       `yaml:"min_confidence" mapstructure:"min_confidence"`
}

// CuriosityConfig tunes unknown-token detection.
type CuriosityConfig struct {
	FunctionWords []string `yaml:"function_words,omitempty" mapstructure:"function_words"`
	DeferQueries  bool     `yaml:"defer_queries" mapstructure:"defer_queries"`
}

// AlertConfig holds alert thresholds.
type AlertConfig struct {
	AwaitingHours    int `yaml:"awaiting_threshold_hours" mapstructure:"awaiting_threshold_hours"`
	MaxFailedGoals   int `yaml:"max_failed_goals" mapstructure:"max_failed_goals"`
	MaxOpenQuestions int `yaml:"max_open_questions" mapstructure:"max_open_questions"`
}

// BrainConfig holds all settings read from .brainconfig via Viper.
type BrainConfig struct {
	AgentName  string           `yaml:"agent_name" mapstructure:"agent_name"`
	Scheduler  SchedulerConfig  `yaml:"scheduler" mapstructure:"scheduler"`
	Goals      GoalConfig       `yaml:"goals" mapstructure:"goals"`
	Reflection ReflectionConfig `yaml:"reflection" mapstructure:"reflection"`
	Cascade    CascadeConfig    `yaml:"cascade" mapstructure:"cascade"`
	Lexicon    LexiconConfig    `yaml:"lexicon" mapstructure:"lexicon"`
	Learner    LearnerConfig    `yaml:"learner" mapstructure:"learner"`
	Curiosity  CuriosityConfig  `yaml:"curiosity" mapstructure:"curiosity"`
	Alerts     AlertConfig      `yaml:"alerts" mapstructure:"alerts"`
}
