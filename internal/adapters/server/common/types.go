// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidRequest reports malformed or invalid request input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrPreconditionFailed reports a request that conflicts with current board state.
var ErrPreconditionFailed = errors.New("precondition failed")

// TeamView is the transport shape of one team.
type TeamView struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Hackathon   string    `json:"hackathon,omitempty"`
	LeaderID    string    `json:"leader_id,omitempty"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MemberView is the transport shape of one roster member.
type MemberView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// TaskView is the transport shape of one task. Deadline is a calendar date.
type TaskView struct {
	ID             string    `json:"id"`
	TeamID         string    `json:"team_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	AssigneeID     string    `json:"assignee_id"`
	AssigneeName   string    `json:"assignee_name"`
	AssigneeAvatar string    `json:"assignee_avatar,omitempty"`
	Priority       string    `json:"priority"`
	Deadline       string    `json:"deadline,omitempty"`
	Status         string    `json:"status"`
	Position       int       `json:"position"`
	Overdue        bool      `json:"overdue"`
	CreatedBy      string    `json:"created_by,omitempty"`
	UpdatedBy      string    `json:"updated_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ColumnView is one board column with its tasks in display order.
type ColumnView struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Color string     `json:"color"`
	Tasks []TaskView `json:"tasks"`
}

// StatsView reports board counters.
type StatsView struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
	Overdue    int `json:"overdue"`
}

// BoardView is one full team board.
type BoardView struct {
	TeamID  string       `json:"team_id"`
	Columns []ColumnView `json:"columns"`
	Stats   StatsView    `json:"stats"`
}

// ActivityView is one activity ledger row.
type ActivityView struct {
	ID         int64             `json:"id"`
	TaskID     string            `json:"task_id"`
	Operation  string            `json:"operation"`
	ActorID    string            `json:"actor_id"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// CreateTeamRequest captures input for new teams.
type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Hackathon   string `json:"hackathon,omitempty"`
	LeaderID    string `json:"leader_id,omitempty"`
	State       string `json:"state,omitempty"`
}

// CreateMemberRequest captures input for new members. ID is optional.
type CreateMemberRequest struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Role   string `json:"role,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// AddTeamMemberRequest captures one roster addition.
type AddTeamMemberRequest struct {
	MemberID string `json:"member_id"`
}

// CreateTaskRequest captures input for new tasks. Deadline uses YYYY-MM-DD.
type CreateTaskRequest struct {
	TeamID      string `json:"team_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AssigneeID  string `json:"assignee_id"`
	Priority    string `json:"priority,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
}

// MoveTaskRequest captures one drag-and-drop move. When FromColumn and
// FromIndex are both omitted the task moves from its current location.
type MoveTaskRequest struct {
	TaskID     string `json:"task_id,omitempty"`
	FromColumn string `json:"from_column,omitempty"`
	FromIndex  *int   `json:"from_index,omitempty"`
	ToColumn   string `json:"to_column"`
	ToIndex    int    `json:"to_index"`
	Actor      string `json:"actor,omitempty"`
}

// UpdateTaskRequest captures a partial task edit. An empty Deadline clears it.
type UpdateTaskRequest struct {
	TaskID      string  `json:"task_id,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Deadline    *string `json:"deadline,omitempty"`
	Actor       string  `json:"actor,omitempty"`
}

// TeamService exposes team and roster operations to transports.
type TeamService interface {
	ListTeams(context.Context) ([]TeamView, error)
	GetTeam(context.Context, string) (TeamView, error)
	CreateTeam(context.Context, CreateTeamRequest) (TeamView, error)
	ListMembers(context.Context) ([]MemberView, error)
	CreateMember(context.Context, CreateMemberRequest) (MemberView, error)
	ListTeamMembers(context.Context, string) ([]MemberView, error)
	AddTeamMember(context.Context, string, AddTeamMemberRequest) ([]MemberView, error)
}

// BoardService exposes board operations to transports.
type BoardService interface {
	GetBoard(context.Context, string) (BoardView, error)
	CreateTask(context.Context, CreateTaskRequest) (TaskView, error)
	MoveTask(context.Context, MoveTaskRequest) (TaskView, error)
	UpdateTask(context.Context, UpdateTaskRequest) (TaskView, error)
	BoardStats(context.Context, string) (StatsView, error)
	ListActivity(context.Context, string, int) ([]ActivityView, error)
}
