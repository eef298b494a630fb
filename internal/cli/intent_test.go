package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

func TestDispatchCommands_NilAgent(t *testing.T) {
	orig := Agent
	defer func() { Agent = orig }()
	Agent = nil

	err := doCmd.RunE(doCmd, []string{"take", "ball"})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestDoCmd_CreatesGoal(t *testing.T) {
	a := withAgent(t)

	var err error
	out := captureStdout(t, func() {
		err = doCmd.RunE(doCmd, []string{"take", "the", "red", "sphere"})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Okay, I will take the red sphere.") {
		t.Errorf("unexpected output: %q", out)
	}
	goals := a.ActiveGoals()
	if len(goals) != 1 || goals[0].Kind != models.GoalPossess {
		t.Fatalf("goals = %+v, want one possess goal", goals)
	}
	if !strings.Contains(out, "goal: "+goals[0].ID) {
		t.Errorf("output should name the goal: %q", out)
	}
}

func TestDoCmd_UnknownWordAsks(t *testing.T) {
	a := withAgent(t)

	var err error
	out := captureStdout(t, func() {
		err = doCmd.RunE(doCmd, []string{"take", "flute"})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "I need to learn first.") {
		t.Errorf("unexpected output: %q", out)
	}
	if goals := a.ActiveGoals(); len(goals) != 1 || goals[0].Kind != models.GoalUnderstand {
		t.Errorf("goals = %+v, want one understand goal", goals)
	}
}

func TestAskCmd(t *testing.T) {
	withAgent(t)

	t.Run("unknown kind", func(t *testing.T) {
		err := askCmd.RunE(askCmd, []string{"why", "ball"})
		if err == nil || !strings.Contains(err.Error(), "unknown question kind") {
			t.Fatalf("expected unknown question kind error, got %v", err)
		}
	})

	t.Run("inventory", func(t *testing.T) {
		var err error
		out := captureStdout(t, func() {
			err = askCmd.RunE(askCmd, []string{"inventory"})
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(out) == "" {
			t.Error("expected an answer")
		}
	})
}

func TestTeachCmd(t *testing.T) {
	a := withAgent(t)

	var err error
	out := captureStdout(t, func() {
		err = teachCmd.RunE(teachCmd, []string{"flute", "noun", "shape", "==", "'cylinder'"})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `Learned "flute" (noun).`) {
		t.Errorf("unexpected output: %q", out)
	}
	entry, ok := a.Lexicon().Get("flute")
	if !ok || entry.Expression != "shape == 'cylinder'" || entry.Source != models.SourceTaught {
		t.Errorf("flute = %+v (found %v)", entry, ok)
	}
}

func TestTeachCmd_InvalidMeaningClarifies(t *testing.T) {
	a := withAgent(t)

	var err error
	out := captureStdout(t, func() {
		err = teachCmd.RunE(teachCmd, []string{"flute", "noun", "shape", "=="})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Error("expected a clarification")
	}
	if a.Lexicon().Contains("flute") {
		t.Error("an invalid meaning must not be stored")
	}
}

func TestSayCmd_SplitsWords(t *testing.T) {
	a := withAgent(t)

	captureStdout(t, func() {
		if err := sayCmd.RunE(sayCmd, []string{"zorp the", "blarg"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	goals := a.ActiveGoals()
	if len(goals) != 1 {
		t.Fatalf("goals = %+v, want one", goals)
	}
	if got := strings.Join(goals[0].UnknownTokens, ","); got != "blarg,zorp" {
		t.Errorf("unknown tokens = %s, want blarg,zorp", got)
	}
}

func TestSayCmd_KnownWordsClarify(t *testing.T) {
	a := withAgent(t)

	out := captureStdout(t, func() {
		if err := sayCmd.RunE(sayCmd, []string{"take the red sphere"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "cannot interpret") {
		t.Errorf("output = %q, want a clarification", out)
	}
	if goals := a.ActiveGoals(); len(goals) != 0 {
		t.Errorf("goals = %+v, want none", goals)
	}
}

func TestSocialCmd(t *testing.T) {
	withAgent(t)

	var err error
	out := captureStdout(t, func() {
		err = socialCmd.RunE(socialCmd, []string{"greeting"})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		t.Error("expected a greeting")
	}
}

func TestIntentCmd(t *testing.T) {
	a := withAgent(t)
	origFile := intentFile
	defer func() { intentFile = origFile }()

	dir := t.TempDir()

	t.Run("missing flag", func(t *testing.T) {
		intentFile = ""
		if err := intentCmd.RunE(intentCmd, nil); err == nil {
			t.Fatal("expected error without --file")
		}
	})

	t.Run("no kind", func(t *testing.T) {
		intentFile = filepath.Join(dir, "nokind.yaml")
		if err := os.WriteFile(intentFile, []byte("verb: take\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		err := intentCmd.RunE(intentCmd, nil)
		if err == nil || !strings.Contains(err.Error(), "has no kind") {
			t.Fatalf("expected no kind error, got %v", err)
		}
	})

	t.Run("command with priority", func(t *testing.T) {
		intentFile = filepath.Join(dir, "take.yaml")
		content := "kind: command\nverb: take\nargs: [red, sphere]\npriority: 7\n"
		if err := os.WriteFile(intentFile, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		captureStdout(t, func() {
			if err := intentCmd.RunE(intentCmd, nil); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
		goals := a.ActiveGoals()
		if len(goals) != 1 || goals[0].Priority != 7 {
			t.Errorf("goals = %+v, want one goal with priority 7", goals)
		}
	})
}
