package integration

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valter-silva-au/ai-curious-brain/internal/core"
	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

func shLearner(t *testing.T, script string) *CommandLearner {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	// sh -c <script> <$0> <$1=word>
	return NewCommandLearner("sh", []string{"-c", script, "learner"}, nil)
}

func TestCommandLearner_ParsesJSON(t *testing.T) {
	l := shLearner(t, `printf '{"word_type":"noun","expression":"obj.shape == '"'"'cylinder'"'"'","confidence":0.9}'`)

	m, err := l.Lookup(context.Background(), "flute")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "flute", m.Word)
	assert.Equal(t, models.WordNoun, m.WordType)
	assert.Equal(t, "obj.shape == 'cylinder'", m.Expression)
	assert.InDelta(t, 0.9, m.Confidence, 1e-9)
}

func TestCommandLearner_PassesWord(t *testing.T) {
	l := shLearner(t, `[ "$1" = "$BRAIN_WORD" ] || exit 9; printf '{"word_type":"action","expression":"%s","confidence":1}' "$1"`)

	m, err := l.Lookup(context.Background(), "juggle")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "juggle", m.Expression)
}

func TestCommandLearner_NoAnswer(t *testing.T) {
	l := shLearner(t, `exit 0`)
	m, err := l.Lookup(context.Background(), "flute")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestCommandLearner_NonZeroExit(t *testing.T) {
	l := shLearner(t, `echo "dictionary offline" >&2; exit 3`)
	_, err := l.Lookup(context.Background(), "flute")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited 3")
	assert.Contains(t, err.Error(), "dictionary offline")
}

func TestCommandLearner_BadJSON(t *testing.T) {
	l := shLearner(t, `echo "not json"`)
	_, err := l.Lookup(context.Background(), "flute")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing output")
}

func TestCommandLearner_Timeout(t *testing.T) {
	l := shLearner(t, `exec sleep 5`)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := l.Lookup(ctx, "flute")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestCommandLearner_MissingBinary(t *testing.T) {
	l := NewCommandLearner("definitely-not-a-real-learner-binary", nil, nil)
	_, err := l.Lookup(context.Background(), "flute")
	require.Error(t, err)
}

func TestCommandLearner_BuildEnv(t *testing.T) {
	l := NewCommandLearner("x", nil, nil)
	base := []string{"PATH=/bin"}
	env := l.BuildEnv(base, "flute")
	assert.Equal(t, []string{"PATH=/bin", "BRAIN_WORD=flute"}, env)
	assert.Len(t, base, 1, "base must not be modified")
}

func writeGlossary(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "glossary.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestGlossaryLearner_Lookup(t *testing.T) {
	path := writeGlossary(t, `
version: "1.0"
entries:
  - word: Flute
    word_type: noun
    expression: "obj.shape == 'cylinder' and obj.material == 'wood'"
    confidence: 0.8
  - word: hop
    word_type: action
    expression: HOP
`)
	l := NewGlossaryLearner(path)

	m, err := l.Lookup(context.Background(), "flute")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "flute", m.Word)
	assert.InDelta(t, 0.8, m.Confidence, 1e-9)

	hop, err := l.Lookup(context.Background(), "HOP")
	require.NoError(t, err)
	require.NotNil(t, hop)
	assert.Equal(t, 1.0, hop.Confidence, "missing confidence defaults to 1")

	missing, err := l.Lookup(context.Background(), "oboe")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Len(t, l.entries, 2, "entries are keyed by lower-cased word")
	assert.Contains(t, l.entries, "hop")
}

func TestGlossaryLearner_MissingFile(t *testing.T) {
	l := NewGlossaryLearner(filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := l.Lookup(context.Background(), "flute")
	require.Error(t, err)
}

func TestGlossaryLearner_CancelledContext(t *testing.T) {
	l := NewGlossaryLearner(writeGlossary(t, "entries: []\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Lookup(ctx, "flute")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLearner(t *testing.T) {
	l, err := NewLearner(models.LearnerConfig{Kind: core.LearnerNone}, nil)
	require.NoError(t, err)
	assert.Nil(t, l)

	l, err = NewLearner(models.LearnerConfig{Kind: core.LearnerGlossary, GlossaryPath: "g.yaml"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &GlossaryLearner{}, l)

	l, err = NewLearner(models.LearnerConfig{Kind: core.LearnerCommand, Command: "dict"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &CommandLearner{}, l)

	_, err = NewLearner(models.LearnerConfig{Kind: "oracle"}, nil)
	require.Error(t, err)
}
