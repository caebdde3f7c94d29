package domain

import "strings"

// Status is a task's workflow state. Each status owns exactly one board column.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "inprogress"
	StatusDone       Status = "done"
)

// boardStatuses lists statuses in column display order.
var boardStatuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Statuses returns all statuses in column display order.
func Statuses() []Status {
	return append([]Status(nil), boardStatuses...)
}

// ParseStatus resolves a column id, tolerating the spellings used by older clients.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "todo", "to-do", "to do":
		return StatusTodo, nil
	case "inprogress", "in-progress", "in progress", "progress":
		return StatusInProgress, nil
	case "done":
		return StatusDone, nil
	default:
		return "", ErrUnknownColumn
	}
}

// Index returns the column position of the status, or -1.
func (s Status) Index() int {
	for idx, candidate := range boardStatuses {
		if candidate == s {
			return idx
		}
	}
	return -1
}

func (s Status) Valid() bool {
	return s.Index() >= 0
}
