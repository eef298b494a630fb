package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy of the cognitive loop. None of these is fatal to the tick
// loop; each is confined to the intent, goal or event that raised it.
var (
	ErrParseAmbiguity          = errors.New("parse ambiguity")
	ErrNoPlanFound             = errors.New("no plan found")
	ErrWorldMutation           = errors.New("world mutation failed")
	ErrValidation              = errors.New("validation failed")
	ErrReflectionInconsistency = errors.New("reflection inconsistency")

	ErrGoalNotFound      = errors.New("goal not found")
	ErrInvalidTransition = errors.New("invalid goal transition")
)

// ValidationError describes why a taught meaning was rejected.
type ValidationError struct {
	Word   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("teaching %q: %s", e.Word, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NoPlanError carries the human-readable reason a goal could not be planned.
type NoPlanError struct {
	Reason string
}

func (e *NoPlanError) Error() string { return e.Reason }

func (e *NoPlanError) Unwrap() error { return ErrNoPlanFound }

// AmbiguityError explains which part of an intent could not be classified.
type AmbiguityError struct {
	Detail string
}

func (e *AmbiguityError) Error() string { return "cannot interpret: " + e.Detail }

func (e *AmbiguityError) Unwrap() error { return ErrParseAmbiguity }

// InconsistencyError reports an event Reflection had to skip.
type InconsistencyError struct {
	EventID uint64
	Concept string
	Reason  string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("event %d: concept %q: %s", e.EventID, e.Concept, e.Reason)
}

func (e *InconsistencyError) Unwrap() error { return ErrReflectionInconsistency }

// joinReasons formats accumulated problems the way configuration validation
// reports them.
func joinReasons(prefix string, errs []string) error {
	return fmt.Errorf("%s:\n  - %s", prefix, strings.Join(errs, "\n  - "))
}
