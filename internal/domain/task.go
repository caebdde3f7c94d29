package domain

import (
	"slices"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Priorities returns the accepted priority values in ascending order.
func Priorities() []Priority {
	return append([]Priority(nil), validPriorities...)
}

// DeadlineLayout is the calendar-date layout used for deadlines on every surface.
const DeadlineLayout = "2006-01-02"

type Task struct {
	ID             string
	TeamID         string
	Title          string
	Description    string
	AssigneeID     string
	AssigneeName   string
	AssigneeAvatar string
	Priority       Priority
	Deadline       *time.Time
	Status         Status
	Position       int
	CreatedBy      string
	UpdatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type TaskInput struct {
	ID          string
	TeamID      string
	Title       string
	Description string
	Assignee    Member
	Priority    Priority
	Deadline    *time.Time
	CreatedBy   string
}

// NewTask builds a task in the todo state. Position is assigned by the board.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.TeamID = strings.TrimSpace(in.TeamID)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.CreatedBy = strings.TrimSpace(in.CreatedBy)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.TeamID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if strings.TrimSpace(in.Assignee.ID) == "" {
		return Task{}, ErrUnknownAssignee
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !slices.Contains(validPriorities, in.Priority) {
		return Task{}, ErrInvalidPriority
	}

	return Task{
		ID:             in.ID,
		TeamID:         in.TeamID,
		Title:          in.Title,
		Description:    in.Description,
		AssigneeID:     strings.TrimSpace(in.Assignee.ID),
		AssigneeName:   in.Assignee.Name,
		AssigneeAvatar: in.Assignee.Avatar,
		Priority:       in.Priority,
		Deadline:       NormalizeDeadline(in.Deadline),
		Status:         StatusTodo,
		CreatedBy:      in.CreatedBy,
		UpdatedBy:      in.CreatedBy,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}, nil
}

// UpdateDetails replaces the editable fields. Status and position are owned by the board.
func (t *Task) UpdateDetails(title, description string, assignee Member, priority Priority, deadline *time.Time, actor string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	if strings.TrimSpace(assignee.ID) == "" {
		return ErrUnknownAssignee
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !slices.Contains(validPriorities, priority) {
		return ErrInvalidPriority
	}
	t.Title = title
	t.Description = strings.TrimSpace(description)
	t.AssigneeID = strings.TrimSpace(assignee.ID)
	t.AssigneeName = assignee.Name
	t.AssigneeAvatar = assignee.Avatar
	t.Priority = priority
	t.Deadline = NormalizeDeadline(deadline)
	t.touch(actor, now)
	return nil
}

// ApplyAssignee overrides the denormalized assignee fields with current roster data.
func (t *Task) ApplyAssignee(m Member) {
	if m.ID != t.AssigneeID {
		return
	}
	t.AssigneeName = m.Name
	t.AssigneeAvatar = m.Avatar
}

// IsOverdue reports whether the deadline is strictly before today's date and the task is not done.
func (t Task) IsOverdue(now time.Time) bool {
	if t.Deadline == nil || t.Status == StatusDone {
		return false
	}
	return t.Deadline.Before(calendarDate(now))
}

func (t *Task) touch(actor string, now time.Time) {
	if actor = strings.TrimSpace(actor); actor != "" {
		t.UpdatedBy = actor
	}
	t.UpdatedAt = now.UTC()
}

// ParseDeadline parses a calendar date. Empty input means no deadline.
func ParseDeadline(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if ts, err := time.Parse(DeadlineLayout, raw); err == nil {
		return &ts, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, ErrInvalidDeadline
	}
	return NormalizeDeadline(&ts), nil
}

// FormatDeadline renders a deadline or an empty string.
func FormatDeadline(deadline *time.Time) string {
	if deadline == nil {
		return ""
	}
	return deadline.Format(DeadlineLayout)
}

// NormalizeDeadline drops the time of day, keeping the date as written.
func NormalizeDeadline(deadline *time.Time) *time.Time {
	if deadline == nil {
		return nil
	}
	ts := calendarDate(*deadline)
	return &ts
}

func calendarDate(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
