package cli

import (
	"io"
	"os"
	"testing"

	"github.com/valter-silva-au/ai-curious-brain/internal/core"
	"github.com/valter-silva-au/ai-curious-brain/internal/integration"
	"github.com/valter-silva-au/ai-curious-brain/internal/world"
)

// captureStdout captures stdout output during fn execution.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = origStdout

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading pipe: %v", err)
	}
	return string(out)
}

// withAgent installs a fresh agent over the seeded world and the curriculum,
// restoring the previous one when the test ends.
func withAgent(t *testing.T) *core.Agent {
	t.Helper()
	lex := core.NewLexicon(nil)
	lex.Seed(core.Curriculum())
	a := core.NewAgent(core.AgentDeps{
		Config:  core.DefaultBrainConfig(),
		Lexicon: lex,
		World:   world.Seeded(),
	})
	orig := Agent
	Agent = a
	t.Cleanup(func() { Agent = orig })
	return a
}

// withInbox installs an inbox under a temp dir.
func withInbox(t *testing.T) *integration.Inbox {
	t.Helper()
	b, err := integration.NewInbox(integration.InboxConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	orig := Inbox
	Inbox = b
	t.Cleanup(func() { Inbox = orig })
	return b
}
