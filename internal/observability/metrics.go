package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// Metrics summarises the event log over a time window.
type Metrics struct {
	GoalsCreated     int            `json:"goals_created"`
	GoalsCompleted   int            `json:"goals_completed"`
	GoalsFailed      int            `json:"goals_failed"`
	GoalsAbandoned   int            `json:"goals_abandoned"`
	GoalsByKind      map[string]int `json:"goals_by_kind"`
	WordsTaught      int            `json:"words_taught"`
	TaughtBySource   map[string]int `json:"taught_by_source"`
	QuestionsAsked   int            `json:"questions_asked"`
	ReflectionPasses int            `json:"reflection_passes"`
	EventCount       int            `json:"event_count"`
	OldestEvent      *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent      *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator returns a calculator that replays eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	m := &Metrics{
		GoalsByKind:    make(map[string]int),
		TaughtBySource: make(map[string]int),
	}
	err := mc.eventLog.Scan(EventFilter{Since: &since}, func(ev Event) bool {
		m.add(ev)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) add(ev Event) {
	at := ev.Time
	if m.OldestEvent == nil {
		m.OldestEvent = &at
	}
	m.NewestEvent = &at
	m.EventCount++

	switch ev.Type {
	case models.LogGoalCreated:
		m.GoalsCreated++
		if kind, ok := ev.Data["kind"].(string); ok {
			m.GoalsByKind[kind]++
		}
	case models.LogGoalCompleted:
		m.GoalsCompleted++
	case models.LogGoalFailed:
		m.GoalsFailed++
	case models.LogGoalAbandoned:
		m.GoalsAbandoned++
	case models.LogWordTaught:
		m.WordsTaught++
		if source, ok := ev.Data["source"].(string); ok {
			m.TaughtBySource[source]++
		}
	case models.LogQuestionAsked:
		m.QuestionsAsked++
	case models.LogReflection:
		m.ReflectionPasses++
	}
}
