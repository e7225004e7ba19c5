package models

import "strings"

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParseStatus accepts the canonical names and the "in-progress" spelling used by the web client.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo":
		return StatusTodo, true
	case "in_progress", "in-progress":
		return StatusInProgress, true
	case "completed":
		return StatusCompleted, true
	}

	return "", false
}

// NormalizeStatus falls back to StatusTodo for anything ParseStatus rejects.
func NormalizeStatus(s string) Status {
	if st, ok := ParseStatus(s); ok {
		return st
	}

	return StatusTodo
}

// Toggled flips completed to todo and everything else to completed.
func (s Status) Toggled() Status {
	if s == StatusCompleted {
		return StatusTodo
	}

	return StatusCompleted
}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}

	return false
}

func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	}

	return "", false
}

// NormalizePriority falls back to PriorityMedium for anything ParsePriority rejects.
func NormalizePriority(s string) Priority {
	if p, ok := ParsePriority(s); ok {
		return p
	}

	return PriorityMedium
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}

	return false
}
