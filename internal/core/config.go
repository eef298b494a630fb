// Package core contains the cognitive loop of AI Curious Brain: the lexicon,
// curiosity detection, goal management, planning, execution, reflection over
// the concept graph, and configuration.
package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// ConfigFileName is the configuration file looked up in the base directory.
const ConfigFileName = ".brainconfig"

// Lexicon backends.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
)

// Learner kinds.
const (
	LearnerNone     = "none"
	LearnerGlossary = "glossary"
	LearnerCommand  = "command"
)

// ConfigurationManager loads and validates the brain configuration.
type ConfigurationManager interface {
	Load() (*models.BrainConfig, error)
	Validate(cfg *models.BrainConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .brainconfig from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultBrainConfig returns a BrainConfig populated with sensible defaults.
func DefaultBrainConfig() *models.BrainConfig {
	return &models.BrainConfig{
		AgentName: "brain",
		Scheduler: models.SchedulerConfig{ReflectionEvery: 5, MaxSteps: 32},
		Goals:     models.GoalConfig{DefaultPriority: 1, UnderstandPriority: 2},
		Reflection: models.ReflectionConfig{
			Smoothing:  DefaultSmoothing,
			BufferSize: DefaultEventBufferSize,
		},
		Cascade: models.CascadeConfig{MaxDepth: DefaultMaxDepth, MaxNewNodes: DefaultMaxNewNodes},
		Lexicon: models.LexiconConfig{Backend: BackendYAML},
		Learner: models.LearnerConfig{
			Kind:          LearnerNone,
			Timeout:       10 * time.Second,
			MaxParallel:   4,
			MinConfidence: 0.5,
		},
		Curiosity: models.CuriosityConfig{DeferQueries: true},
		Alerts: models.AlertConfig{
			AwaitingHours:    24,
			MaxFailedGoals:   5,
			MaxOpenQuestions: 10,
		},
	}
}

// Load reads .brainconfig from the base path. A missing file yields the
// defaults.
func (cm *viperConfigManager) Load() (*models.BrainConfig, error) {
	cfg := DefaultBrainConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("agent.name", cfg.AgentName)
	v.SetDefault("scheduler.reflection_every", cfg.Scheduler.ReflectionEvery)
	v.SetDefault("scheduler.max_steps", cfg.Scheduler.MaxSteps)
	v.SetDefault("goals.default_priority", cfg.Goals.DefaultPriority)
	v.SetDefault("goals.understand_priority", cfg.Goals.UnderstandPriority)
	v.SetDefault("reflection.smoothing", cfg.Reflection.Smoothing)
	v.SetDefault("reflection.buffer_size", cfg.Reflection.BufferSize)
	v.SetDefault("cascade.max_depth", cfg.Cascade.MaxDepth)
	v.SetDefault("cascade.max_new_nodes", cfg.Cascade.MaxNewNodes)
	v.SetDefault("lexicon.backend", cfg.Lexicon.Backend)
	v.SetDefault("learner.kind", cfg.Learner.Kind)
	v.SetDefault("learner.timeout", cfg.Learner.Timeout)
	v.SetDefault("learner.max_parallel", cfg.Learner.MaxParallel)
	v.SetDefault("learner.min_confidence", cfg.Learner.MinConfidence)
	v.SetDefault("curiosity.defer_queries", cfg.Curiosity.DeferQueries)
	v.SetDefault("alerts.awaiting_threshold_hours", cfg.Alerts.AwaitingHours)
	v.SetDefault("alerts.max_failed_goals", cfg.Alerts.MaxFailedGoals)
	v.SetDefault("alerts.max_open_questions", cfg.Alerts.MaxOpenQuestions)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	cfg.AgentName = v.GetString("agent.name")
	cfg.Scheduler.ReflectionEvery = v.GetInt("scheduler.reflection_every")
	cfg.Scheduler.MaxSteps = v.GetInt("scheduler.max_steps")
	cfg.Goals.DefaultPriority = v.GetInt("goals.default_priority")
	cfg.Goals.UnderstandPriority = v.GetInt("goals.understand_priority")
	cfg.Reflection.Smoothing = v.GetFloat64("reflection.smoothing")
	cfg.Reflection.BufferSize = v.GetInt("reflection.buffer_size")
	cfg.Cascade.MaxDepth = v.GetInt("cascade.max_depth")
	cfg.Cascade.MaxNewNodes = v.GetInt("cascade.max_new_nodes")
	cfg.Lexicon.Backend = v.GetString("lexicon.backend")
	cfg.Learner.Kind = v.GetString("learner.kind")
	cfg.Learner.GlossaryPath = v.GetString("learner.glossary_path")
	cfg.Learner.Command = v.GetString("learner.command")
	cfg.Learner.Args = v.GetStringSlice("learner.args")
	cfg.Learner.Timeout = v.GetDuration("learner.timeout")
	cfg.Learner.MaxParallel = v.GetInt("learner.max_parallel")
	cfg.Learner.MinConfidence = v.GetFloat64("learner.min_confidence")
	cfg.Curiosity.FunctionWords = v.GetStringSlice("curiosity.function_words")
	cfg.Curiosity.DeferQueries = v.GetBool("curiosity.defer_queries")
	cfg.Alerts.AwaitingHours = v.GetInt("alerts.awaiting_threshold_hours")
	cfg.Alerts.MaxFailedGoals = v.GetInt("alerts.max_failed_goals")
	cfg.Alerts.MaxOpenQuestions = v.GetInt("alerts.max_open_questions")

	return cfg, nil
}

// Validate checks cfg for invalid values and reports all of them at once.
func (cm *viperConfigManager) Validate(cfg *models.BrainConfig) error {
	return ValidateBrainConfig(cfg)
}

// ValidateBrainConfig checks cfg for invalid values.
func ValidateBrainConfig(cfg *models.BrainConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string
	if !wordPattern.MatchString(cfg.AgentName) {
		errs = append(errs, fmt.Sprintf("agent.name %q must be a lowercase identifier", cfg.AgentName))
	}
	if cfg.AgentName == models.OwnerWorld || cfg.AgentName == models.OwnerUser {
		errs = append(errs, fmt.Sprintf("agent.name %q is reserved", cfg.AgentName))
	}
	if cfg.Scheduler.ReflectionEvery < 1 {
		errs = append(errs, fmt.Sprintf("scheduler.reflection_every must be at least 1, got %d", cfg.Scheduler.ReflectionEvery))
	}
	if cfg.Scheduler.MaxSteps < 1 {
		errs = append(errs, fmt.Sprintf("scheduler.max_steps must be at least 1, got %d", cfg.Scheduler.MaxSteps))
	}
	if cfg.Reflection.Smoothing <= 0 {
		errs = append(errs, fmt.Sprintf("reflection.smoothing must be positive, got %v", cfg.Reflection.Smoothing))
	}
	if cfg.Reflection.BufferSize < 1 {
		errs = append(errs, fmt.Sprintf("reflection.buffer_size must be at least 1, got %d", cfg.Reflection.BufferSize))
	}
	if cfg.Cascade.MaxDepth < 1 {
		errs = append(errs, fmt.Sprintf("cascade.max_depth must be at least 1, got %d", cfg.Cascade.MaxDepth))
	}
	if cfg.Cascade.MaxNewNodes < 0 {
		errs = append(errs, fmt.Sprintf("cascade.max_new_nodes must be non-negative, got %d", cfg.Cascade.MaxNewNodes))
	}
	switch cfg.Lexicon.Backend {
	case BackendYAML, BackendSQLite:
	default:
		errs = append(errs, fmt.Sprintf("lexicon.backend %q is invalid, must be one of: yaml, sqlite", cfg.Lexicon.Backend))
	}
	switch cfg.Learner.Kind {
	case LearnerNone:
	case LearnerGlossary:
		if cfg.Learner.GlossaryPath == "" {
			errs = append(errs, "learner.glossary_path is required for the glossary learner")
		}
	case LearnerCommand:
		if cfg.Learner.Command == "" {
			errs = append(errs, "learner.command is required for the command learner")
		}
	default:
		errs = append(errs, fmt.Sprintf("learner.kind %q is invalid, must be one of: none, glossary, command", cfg.Learner.Kind))
	}
	if cfg.Learner.MinConfidence < 0 || cfg.Learner.MinConfidence > 1 {
		errs = append(errs, fmt.Sprintf("learner.min_confidence must be between 0 and 1, got %v", cfg.Learner.MinConfidence))
	}
	if cfg.Learner.MaxParallel < 1 {
		errs = append(errs, fmt.Sprintf("learner.max_parallel must be at least 1, got %d", cfg.Learner.MaxParallel))
	}

	if len(errs) > 0 {
		return joinReasons("brain config validation failed", errs)
	}
	return nil
}
