package observability

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	AwaitingHours    int `yaml:"awaiting_threshold_hours" json:"awaiting_threshold_hours"`
	MaxFailedGoals   int `yaml:"max_failed_goals" json:"max_failed_goals"`
	MaxOpenQuestions int `yaml:"max_open_questions" json:"max_open_questions"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		AwaitingHours:    24,
		MaxFailedGoals:   5,
		MaxOpenQuestions: 10,
	}
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

// alertEngine implements AlertEngine by reading events and checking thresholds.
type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates a new AlertEngine with the given EventLog and thresholds.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// goalState is the latest known status of one goal, replayed from the log.
type goalState struct {
	status    models.GoalStatus
	changedAt time.Time
}

// Evaluate replays the whole log and returns every triggered alert.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := ae.now()
	goals := make(map[string]goalState)
	err := ae.eventLog.Scan(EventFilter{Types: goalEventTypes}, func(ev Event) bool {
		replayGoal(goals, ev)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("reading events for alerts: %w", err)
	}

	var alerts []Alert
	alerts = append(alerts, ae.checkAwaitingTooLong(goals, now)...)
	alerts = append(alerts, ae.checkFailedGoals(goals, now)...)
	alerts = append(alerts, ae.checkOpenQuestions(goals, now)...)
	return alerts, nil
}

var goalEventTypes = []string{
	models.LogGoalCreated,
	models.LogGoalStatusChanged,
	models.LogGoalCompleted,
	models.LogGoalFailed,
	models.LogGoalAbandoned,
}

// replayGoal folds one goal event into the latest status per goal id.
func replayGoal(goals map[string]goalState, ev Event) {
	id := ev.goal()
	if id == "" {
		return
	}
	switch ev.Type {
	case models.LogGoalCreated:
		goals[id] = goalState{status: models.GoalPending, changedAt: ev.Time}
	case models.LogGoalStatusChanged:
		if s, ok := ev.Data["new_status"].(string); ok {
			goals[id] = goalState{status: models.GoalStatus(s), changedAt: ev.Time}
		}
	default:
		goals[id] = goalState{status: models.GoalStatus(ev.Type[len("goal."):]), changedAt: ev.Time}
	}
}

// checkAwaitingTooLong looks for goals waiting for teaching longer than the threshold.
func (ae *alertEngine) checkAwaitingTooLong(goals map[string]goalState, now time.Time) []Alert {
	threshold := time.Duration(ae.thresholds.AwaitingHours) * time.Hour
	var ids []string
	for id, st := range goals {
		if st.status == models.GoalAwaitingTeaching && now.Sub(st.changedAt) > threshold {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	alerts := make([]Alert, 0, len(ids))
	for _, id := range ids {
		alerts = append(alerts, Alert{
			ID:          fmt.Sprintf("awaiting-%s", id),
			Condition:   "goal_awaiting_too_long",
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("goal %s has been waiting for teaching for more than %d hours", id, ae.thresholds.AwaitingHours),
			TriggeredAt: now,
		})
	}
	return alerts
}

// checkFailedGoals alerts when more goals failed than the threshold allows.
func (ae *alertEngine) checkFailedGoals(goals map[string]goalState, now time.Time) []Alert {
	failed := 0
	for _, st := range goals {
		if st.status == models.GoalFailed {
			failed++
		}
	}
	if failed <= ae.thresholds.MaxFailedGoals {
		return nil
	}
	return []Alert{{
		ID:          "failed-goals",
		Condition:   "too_many_failed_goals",
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("%d goals failed, exceeding the maximum of %d", failed, ae.thresholds.MaxFailedGoals),
		TriggeredAt: now,
	}}
}

// checkOpenQuestions counts goals still waiting for an answer from the user.
func (ae *alertEngine) checkOpenQuestions(goals map[string]goalState, now time.Time) []Alert {
	open := 0
	for _, st := range goals {
		if st.status == models.GoalAwaitingTeaching {
			open++
		}
	}
	if open <= ae.thresholds.MaxOpenQuestions {
		return nil
	}
	return []Alert{{
		ID:          "open-questions",
		Condition:   "vocabulary_backlog",
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("%d questions are unanswered, exceeding the maximum of %d", open, ae.thresholds.MaxOpenQuestions),
		TriggeredAt: now,
	}}
}
