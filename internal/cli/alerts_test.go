package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/ai-curious-brain/internal/observability"
	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

type alertsMock struct {
	evaluateFn func() ([]observability.Alert, error)
}

func (m *alertsMock) Evaluate() ([]observability.Alert, error) {
	return m.evaluateFn()
}

func resetAlertsFlags(t *testing.T) {
	t.Helper()
	origEngine, origJSON, origSeverity := AlertEngine, alertsJSON, alertsSeverity
	t.Cleanup(func() {
		AlertEngine, alertsJSON, alertsSeverity = origEngine, origJSON, origSeverity
	})
}

func fixedAlerts() []observability.Alert {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return []observability.Alert{
		{ID: "awaiting-goal-1", Condition: "goal_awaiting_too_long", Severity: observability.SeverityHigh,
			Message: "goal goal-1 has been waiting for teaching for more than 24 hours", TriggeredAt: now},
		{ID: "open-questions", Condition: "vocabulary_backlog", Severity: observability.SeverityLow,
			Message: "12 questions are unanswered, exceeding the maximum of 10", TriggeredAt: now},
	}
}

func TestAlertsCmd_NilEngine(t *testing.T) {
	resetAlertsFlags(t)
	AlertEngine = nil

	err := alertsCmd.RunE(alertsCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestAlertsCmd_NoAlertsFromEmptyLog(t *testing.T) {
	resetAlertsFlags(t)
	withEventLog(t)
	alertsJSON, alertsSeverity = false, ""

	out := captureStdout(t, func() {
		if err := alertsCmd.RunE(alertsCmd, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "No active alerts.") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestAlertsCmd_StaleQuestionFromLog(t *testing.T) {
	resetAlertsFlags(t)
	log := withEventLog(t)
	alertsJSON, alertsSeverity = false, ""

	stale := observability.NewEvent(models.LogGoalStatusChanged, map[string]any{
		"goal_id": "goal-7", "old_status": "executing", "new_status": "awaiting_teaching",
	})
	stale.Time = time.Now().UTC().Add(-48 * time.Hour)
	logEvents(t, log, stale)

	out := captureStdout(t, func() {
		if err := alertsCmd.RunE(alertsCmd, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "1 active alert(s)") || !strings.Contains(out, "[HIGH]") || !strings.Contains(out, "goal-7") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestAlertsCmd_SeverityFilterAndJSON(t *testing.T) {
	resetAlertsFlags(t)
	AlertEngine = &alertsMock{evaluateFn: func() ([]observability.Alert, error) { return fixedAlerts(), nil }}
	alertsJSON, alertsSeverity = true, "LOW"

	var err error
	out := captureStdout(t, func() { err = alertsCmd.RunE(alertsCmd, nil) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []observability.Alert
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(got) != 1 || got[0].Condition != "vocabulary_backlog" {
		t.Errorf("alerts = %+v, want only the low severity backlog", got)
	}
}

func TestAlertsCmd_Table(t *testing.T) {
	resetAlertsFlags(t)
	AlertEngine = &alertsMock{evaluateFn: func() ([]observability.Alert, error) { return fixedAlerts(), nil }}
	alertsJSON, alertsSeverity = false, ""

	out := captureStdout(t, func() {
		if err := alertsCmd.RunE(alertsCmd, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	for _, want := range []string{"2 active alert(s)", "[HIGH]", "[LOW]", "vocabulary_backlog since 2026-03-10 12:00 UTC"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAlertsCmd_InvalidSeverity(t *testing.T) {
	resetAlertsFlags(t)
	AlertEngine = &alertsMock{evaluateFn: func() ([]observability.Alert, error) { return nil, nil }}
	alertsSeverity = "urgent"

	err := alertsCmd.RunE(alertsCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "--severity") {
		t.Fatalf("expected severity error, got %v", err)
	}
}

func TestAlertsCmd_EvaluateError(t *testing.T) {
	resetAlertsFlags(t)
	AlertEngine = &alertsMock{evaluateFn: func() ([]observability.Alert, error) {
		return nil, errors.New("event log read error")
	}}
	alertsSeverity = ""

	err := alertsCmd.RunE(alertsCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "evaluating alerts") {
		t.Fatalf("expected evaluate error, got %v", err)
	}
}
