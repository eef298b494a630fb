package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/ai-curious-brain/internal/core"
	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// CommandLearner resolves unknown words by running an external program. The
// word is passed as the last argument and in BRAIN_WORD; the program prints
// a JSON LearnedMeaning on stdout, or nothing when it has no answer.
type CommandLearner struct {
	Command string
	Args    []string
	Logger  *zap.Logger
}

var _ core.Learner = (*CommandLearner)(nil)

// learnerWaitDelay bounds how long Lookup waits for output pipes after the
// context kills the process.
const learnerWaitDelay = 2 * time.Second

// NewCommandLearner creates a learner that invokes command with args.
func NewCommandLearner(command string, args []string, logger *zap.Logger) *CommandLearner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandLearner{Command: command, Args: args, Logger: logger}
}

// BuildEnv appends BRAIN_WORD to the base environment.
func (l *CommandLearner) BuildEnv(base []string, word string) []string {
	env := make([]string, len(base), len(base)+1)
	copy(env, base)
	return append(env, "BRAIN_WORD="+word)
}

// Lookup runs the command for word. The context bounds the subprocess.
func (l *CommandLearner) Lookup(ctx context.Context, word string) (*core.LearnedMeaning, error) {
	args := make([]string, 0, len(l.Args)+1)
	args = append(args, l.Args...)
	args = append(args, word)

	cmd := exec.CommandContext(ctx, l.Command, args...)
	cmd.Env = l.BuildEnv(os.Environ(), word)
	cmd.WaitDelay = learnerWaitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("learner %s %q: %w", l.Command, word, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("learner %s %q exited %d: %s", l.Command, word, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("executing learner %s: %w", l.Command, err)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		l.Logger.Debug("learner has no answer", zap.String("word", word))
		return nil, nil
	}
	var m core.LearnedMeaning
	if err := json.Unmarshal(out, &m); err != nil {
		return nil, fmt.Errorf("learner %s %q: parsing output: %w", l.Command, word, err)
	}
	if m.Expression == "" {
		return nil, nil
	}
	if m.Word == "" {
		m.Word = word
	}
	return &m, nil
}

// GlossaryFile is the YAML layout read by GlossaryLearner.
type GlossaryFile struct {
	Version string                `yaml:"version"`
	Entries []core.LearnedMeaning `yaml:"entries"`
}

// GlossaryLearner answers lookups from a YAML glossary loaded lazily on the
// first call.
type GlossaryLearner struct {
	path string

	once    sync.Once
	entries map[string]core.LearnedMeaning
	loadErr error
}

var _ core.Learner = (*GlossaryLearner)(nil)

// NewGlossaryLearner creates a learner over the glossary at path.
func NewGlossaryLearner(path string) *GlossaryLearner {
	return &GlossaryLearner{path: path}
}

func (l *GlossaryLearner) load() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		l.loadErr = fmt.Errorf("loading glossary: %w", err)
		return
	}
	var gf GlossaryFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		l.loadErr = fmt.Errorf("loading glossary: parsing YAML: %w", err)
		return
	}
	l.entries = make(map[string]core.LearnedMeaning, len(gf.Entries))
	for _, e := range gf.Entries {
		w := strings.ToLower(strings.TrimSpace(e.Word))
		if w == "" {
			continue
		}
		e.Word = w
		if e.Confidence == 0 {
			e.Confidence = 1
		}
		l.entries[w] = e
	}
}

// Lookup returns the glossary meaning for word, or nil if it is not listed.
func (l *GlossaryLearner) Lookup(ctx context.Context, word string) (*core.LearnedMeaning, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.once.Do(l.load)
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	m, ok := l.entries[strings.ToLower(word)]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// NewLearner builds the learner selected by cfg, or nil when learning is
// disabled.
func NewLearner(cfg models.LearnerConfig, logger *zap.Logger) (core.Learner, error) {
	switch cfg.Kind {
	case "", core.LearnerNone:
		return nil, nil
	case core.LearnerGlossary:
		return NewGlossaryLearner(cfg.GlossaryPath), nil
	case core.LearnerCommand:
		return NewCommandLearner(cfg.Command, cfg.Args, logger), nil
	default:
		return nil, fmt.Errorf("unknown learner kind %q", cfg.Kind)
	}
}
