package models

import (
	"encoding/json"
	"fmt"
)

// SessionStatus is the lifecycle state of a workout session.
// InProgress is the only initial state; Completed and Aborted are terminal.
type SessionStatus int

const (
	SessionInProgress SessionStatus = iota
	SessionCompleted
	SessionAborted
)

// Terminal reports whether no further transitions are allowed.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionAborted
}

func (s SessionStatus) String() string {
	switch s {
	case SessionInProgress:
		return "in_progress"
	case SessionCompleted:
		return "completed"
	case SessionAborted:
		return "aborted"
	}
	return fmt.Sprintf("SessionStatus(%d)", int(s))
}

// ParseSessionStatus converts a wire/DB string to a SessionStatus.
func ParseSessionStatus(s string) (SessionStatus, error) {
	switch s {
	case "in_progress":
		return SessionInProgress, nil
	case "completed":
		return SessionCompleted, nil
	case "aborted":
		return SessionAborted, nil
	}
	return 0, fmt.Errorf("unknown session status %q", s)
}

func (s SessionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SessionStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseSessionStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ScheduleStatus is the lifecycle state of a scheduled workout. Promotion from
// Planned to Completed happens once, when a session for it completes.
type ScheduleStatus int

const (
	SchedulePlanned ScheduleStatus = iota
	ScheduleCompleted
)

func (s ScheduleStatus) String() string {
	switch s {
	case SchedulePlanned:
		return "planned"
	case ScheduleCompleted:
		return "completed"
	}
	return fmt.Sprintf("ScheduleStatus(%d)", int(s))
}

// ParseScheduleStatus converts a wire/DB string to a ScheduleStatus.
func ParseScheduleStatus(s string) (ScheduleStatus, error) {
	switch s {
	case "planned":
		return SchedulePlanned, nil
	case "completed":
		return ScheduleCompleted, nil
	}
	return 0, fmt.Errorf("unknown schedule status %q", s)
}

func (s ScheduleStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ScheduleStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseScheduleStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
