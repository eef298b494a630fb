package observability

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/valter-silva-au/ai-curious-brain/pkg/models"
)

// EventLogFileName is the JSONL event log under the base directory.
const EventLogFileName = ".brain_events.jsonl"

// maxEventLine bounds a single encoded event. Goal events carry token lists,
// which can outgrow bufio.Scanner's 64KiB default.
const maxEventLine = 1 << 20

// Event is one line of the agent's event log.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO or WARN
	Type    string         `json:"type"`  // one of the models.Log* constants
	GoalID  string         `json:"goal_id,omitempty"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// NewEvent stamps an agent event with the current time, its level and the
// goal it concerns.
func NewEvent(eventType string, data map[string]any) Event {
	goalID, _ := data["goal_id"].(string)
	return Event{
		Time:    time.Now().UTC(),
		Level:   LevelFor(eventType),
		Type:    eventType,
		GoalID:  goalID,
		Message: describeEvent(eventType, data),
		Data:    data,
	}
}

// goal returns the goal an event concerns. Older lines only carry the id
// inside Data.
func (e Event) goal() string {
	if e.GoalID != "" {
		return e.GoalID
	}
	id, _ := e.Data["goal_id"].(string)
	return id
}

// EventFilter selects events. Zero fields match everything.
type EventFilter struct {
	Since  *time.Time
	Until  *time.Time
	Types  []string
	GoalID string
	Level  string
}

func (f EventFilter) match(e Event) bool {
	switch {
	case f.Since != nil && e.Time.Before(*f.Since):
		return false
	case f.Until != nil && e.Time.After(*f.Until):
		return false
	case len(f.Types) > 0 && !slices.Contains(f.Types, e.Type):
		return false
	case f.GoalID != "" && e.goal() != f.GoalID:
		return false
	case f.Level != "" && e.Level != f.Level:
		return false
	}
	return true
}

// EventLog appends agent events and replays them.
type EventLog interface {
	Write(event Event) error
	// Scan calls fn for each matching event in write order. Returning
	// false from fn stops the scan.
	Scan(filter EventFilter, fn func(Event) bool) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

type jsonlEventLog struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewJSONLEventLog opens (creating if needed) an append-only JSON Lines log
// at path.
func NewJSONLEventLog(path string) (EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{path: path, file: f}, nil
}

func (l *jsonlEventLog) Write(event Event) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Type, err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return fmt.Errorf("writing %s event: event log is closed", event.Type)
	}
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("writing %s event: %w", event.Type, err)
	}
	return nil
}

// Scan reads the log from disk. Lines that do not decode are skipped so a
// torn final write does not hide the rest of the history.
func (l *jsonlEventLog) Scan(filter EventFilter, fn func(Event) bool) error {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventLine)
	for sc.Scan() {
		var ev Event
		if len(sc.Bytes()) == 0 || json.Unmarshal(sc.Bytes(), &ev) != nil {
			continue
		}
		if filter.match(ev) && !fn(ev) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scanning event log: %w", err)
	}
	return nil
}

func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	var events []Event
	err := l.Scan(filter, func(ev Event) bool {
		events = append(events, ev)
		return true
	})
	return events, err
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

// LevelFor picks the log level recorded for an event type.
func LevelFor(eventType string) string {
	switch eventType {
	case models.LogGoalFailed, models.LogGoalAbandoned:
		return "WARN"
	default:
		return "INFO"
	}
}

func describeEvent(eventType string, data map[string]any) string {
	goalID, _ := data["goal_id"].(string)
	switch eventType {
	case models.LogGoalCreated:
		return fmt.Sprintf("goal %s created (%v)", goalID, data["kind"])
	case models.LogGoalStatusChanged:
		return fmt.Sprintf("goal %s %v -> %v", goalID, data["old_status"], data["new_status"])
	case models.LogGoalCompleted, models.LogGoalFailed, models.LogGoalAbandoned:
		if reason, _ := data["reason"].(string); reason != "" {
			return fmt.Sprintf("goal %s %s: %s", goalID, eventType[len("goal."):], reason)
		}
		return fmt.Sprintf("goal %s %s", goalID, eventType[len("goal."):])
	case models.LogWordTaught:
		return fmt.Sprintf("learned %v from %v", data["word"], data["source"])
	case models.LogQuestionAsked:
		return fmt.Sprintf("goal %s asked about %v", goalID, data["tokens"])
	case models.LogReflection:
		return fmt.Sprintf("reflection processed %v events", data["processed"])
	default:
		return eventType
	}
}
