package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/hackboard/internal/app"
	"github.com/hylla/hackboard/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service board and team APIs.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// ListTeams lists every team.
func (a *AppServiceAdapter) ListTeams(ctx context.Context) ([]TeamView, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	teams, err := a.service.ListTeams(ctx)
	if err != nil {
		return nil, mapAppError("list teams", err)
	}
	out := make([]TeamView, 0, len(teams))
	for _, team := range teams {
		out = append(out, mapTeam(team))
	}
	return out, nil
}

// GetTeam returns one team.
func (a *AppServiceAdapter) GetTeam(ctx context.Context, teamID string) (TeamView, error) {
	if err := a.ready(); err != nil {
		return TeamView{}, err
	}
	if teamID = strings.TrimSpace(teamID); teamID == "" {
		return TeamView{}, fmt.Errorf("team_id is required: %w", ErrInvalidRequest)
	}
	team, err := a.service.GetTeam(ctx, teamID)
	if err != nil {
		return TeamView{}, mapAppError("get team", err)
	}
	return mapTeam(team), nil
}

// CreateTeam creates one team with its default board columns.
func (a *AppServiceAdapter) CreateTeam(ctx context.Context, in CreateTeamRequest) (TeamView, error) {
	if err := a.ready(); err != nil {
		return TeamView{}, err
	}
	team, err := a.service.CreateTeam(ctx, app.CreateTeamInput{
		Name:        in.Name,
		Description: in.Description,
		Hackathon:   in.Hackathon,
		LeaderID:    in.LeaderID,
		State:       domain.TeamState(strings.ToLower(strings.TrimSpace(in.State))),
	})
	if err != nil {
		return TeamView{}, mapAppError("create team", err)
	}
	return mapTeam(team), nil
}

// ListMembers lists every known member.
func (a *AppServiceAdapter) ListMembers(ctx context.Context) ([]MemberView, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	members, err := a.service.ListMembers(ctx)
	if err != nil {
		return nil, mapAppError("list members", err)
	}
	return mapMembers(members), nil
}

// CreateMember creates one member.
func (a *AppServiceAdapter) CreateMember(ctx context.Context, in CreateMemberRequest) (MemberView, error) {
	if err := a.ready(); err != nil {
		return MemberView{}, err
	}
	member, err := a.service.CreateMember(ctx, app.CreateMemberInput{
		ID:     in.ID,
		Name:   in.Name,
		Role:   in.Role,
		Avatar: in.Avatar,
	})
	if err != nil {
		return MemberView{}, mapAppError("create member", err)
	}
	return mapMember(member), nil
}

// ListTeamMembers lists one team roster.
func (a *AppServiceAdapter) ListTeamMembers(ctx context.Context, teamID string) ([]MemberView, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	members, err := a.service.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, mapAppError("list team members", err)
	}
	return mapMembers(members), nil
}

// AddTeamMember adds a member to a roster and returns the updated roster.
func (a *AppServiceAdapter) AddTeamMember(ctx context.Context, teamID string, in AddTeamMemberRequest) ([]MemberView, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.MemberID) == "" {
		return nil, fmt.Errorf("member_id is required: %w", ErrInvalidRequest)
	}
	if err := a.service.AddTeamMember(ctx, teamID, in.MemberID); err != nil {
		return nil, mapAppError("add team member", err)
	}
	return a.ListTeamMembers(ctx, teamID)
}

// GetBoard returns one board with every column and its counters.
func (a *AppServiceAdapter) GetBoard(ctx context.Context, teamID string) (BoardView, error) {
	if err := a.ready(); err != nil {
		return BoardView{}, err
	}
	board, err := a.service.GetBoard(ctx, teamID)
	if err != nil {
		return BoardView{}, mapAppError("get board", err)
	}
	now := a.service.Now()
	out := BoardView{
		TeamID:  board.TeamID,
		Columns: make([]ColumnView, 0, len(board.Columns())),
		Stats:   mapStats(board.Stats(now)),
	}
	for _, column := range board.Columns() {
		tasks := board.ColumnTasks(column.ID)
		view := ColumnView{
			ID:    string(column.ID),
			Title: column.Title,
			Color: column.Color,
			Tasks: make([]TaskView, 0, len(tasks)),
		}
		for _, task := range tasks {
			view.Tasks = append(view.Tasks, mapTask(task, now))
		}
		out.Columns = append(out.Columns, view)
	}
	return out, nil
}

// CreateTask appends one task to the todo column of a team board.
func (a *AppServiceAdapter) CreateTask(ctx context.Context, in CreateTaskRequest) (TaskView, error) {
	if err := a.ready(); err != nil {
		return TaskView{}, err
	}
	deadline, err := domain.ParseDeadline(in.Deadline)
	if err != nil {
		return TaskView{}, mapAppError("create task", err)
	}
	task, err := a.service.CreateTask(ctx, app.CreateTaskInput{
		TeamID:      in.TeamID,
		Title:       in.Title,
		Description: in.Description,
		AssigneeID:  in.AssigneeID,
		Priority:    domain.Priority(strings.ToLower(strings.TrimSpace(in.Priority))),
		Deadline:    deadline,
		CreatedBy:   in.CreatedBy,
	})
	if err != nil {
		return TaskView{}, mapAppError("create task", err)
	}
	return mapTask(task, a.service.Now()), nil
}

// MoveTask applies one drag-and-drop move.
func (a *AppServiceAdapter) MoveTask(ctx context.Context, in MoveTaskRequest) (TaskView, error) {
	if err := a.ready(); err != nil {
		return TaskView{}, err
	}
	if strings.TrimSpace(in.TaskID) == "" {
		return TaskView{}, fmt.Errorf("task_id is required: %w", ErrInvalidRequest)
	}
	toColumn, err := domain.ParseStatus(in.ToColumn)
	if err != nil {
		return TaskView{}, mapAppError("move task", err)
	}
	to := domain.Location{Column: toColumn, Index: in.ToIndex}

	var task domain.Task
	if strings.TrimSpace(in.FromColumn) == "" && in.FromIndex == nil {
		task, err = a.service.MoveTaskTo(ctx, in.TaskID, to, in.Actor)
	} else {
		if in.FromIndex == nil {
			return TaskView{}, fmt.Errorf("from_index is required with from_column: %w", ErrInvalidRequest)
		}
		fromColumn, parseErr := domain.ParseStatus(in.FromColumn)
		if parseErr != nil {
			return TaskView{}, mapAppError("move task", parseErr)
		}
		task, err = a.service.MoveTask(ctx, app.MoveTaskInput{
			TaskID: in.TaskID,
			From:   domain.Location{Column: fromColumn, Index: *in.FromIndex},
			To:     to,
			Actor:  in.Actor,
		})
	}
	if err != nil {
		return TaskView{}, mapAppError("move task", err)
	}
	return mapTask(task, a.service.Now()), nil
}

// UpdateTask applies a partial task edit.
func (a *AppServiceAdapter) UpdateTask(ctx context.Context, in UpdateTaskRequest) (TaskView, error) {
	if err := a.ready(); err != nil {
		return TaskView{}, err
	}
	if strings.TrimSpace(in.TaskID) == "" {
		return TaskView{}, fmt.Errorf("task_id is required: %w", ErrInvalidRequest)
	}
	input := app.UpdateTaskInput{
		TaskID:      in.TaskID,
		Title:       in.Title,
		Description: in.Description,
		AssigneeID:  in.AssigneeID,
		Actor:       in.Actor,
	}
	if in.Priority != nil {
		priority := domain.Priority(strings.ToLower(strings.TrimSpace(*in.Priority)))
		input.Priority = &priority
	}
	if in.Deadline != nil {
		deadline, err := domain.ParseDeadline(*in.Deadline)
		if err != nil {
			return TaskView{}, mapAppError("update task", err)
		}
		input.Deadline = deadline
		input.ClearDeadline = deadline == nil
	}
	task, err := a.service.UpdateTask(ctx, input)
	if err != nil {
		return TaskView{}, mapAppError("update task", err)
	}
	return mapTask(task, a.service.Now()), nil
}

// BoardStats returns board counters for one team.
func (a *AppServiceAdapter) BoardStats(ctx context.Context, teamID string) (StatsView, error) {
	if err := a.ready(); err != nil {
		return StatsView{}, err
	}
	stats, err := a.service.BoardStats(ctx, teamID)
	if err != nil {
		return StatsView{}, mapAppError("board stats", err)
	}
	return mapStats(stats), nil
}

// ListActivity lists recent activity for one team, newest first.
func (a *AppServiceAdapter) ListActivity(ctx context.Context, teamID string, limit int) ([]ActivityView, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0: %w", ErrInvalidRequest)
	}
	events, err := a.service.ListTeamActivity(ctx, teamID, limit)
	if err != nil {
		return nil, mapAppError("list activity", err)
	}
	out := make([]ActivityView, 0, len(events))
	for _, event := range events {
		out = append(out, ActivityView{
			ID:         event.ID,
			TaskID:     event.TaskID,
			Operation:  string(event.Operation),
			ActorID:    event.ActorID,
			Metadata:   event.Metadata,
			OccurredAt: event.OccurredAt,
		})
	}
	return out, nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	return nil
}

func mapTeam(team domain.Team) TeamView {
	return TeamView{
		ID:          team.ID,
		Slug:        team.Slug,
		Name:        team.Name,
		Description: team.Description,
		Hackathon:   team.Hackathon,
		LeaderID:    team.LeaderID,
		State:       string(team.State),
		CreatedAt:   team.CreatedAt,
		UpdatedAt:   team.UpdatedAt,
	}
}

func mapMember(member domain.Member) MemberView {
	return MemberView{
		ID:     member.ID,
		Name:   member.Name,
		Role:   member.Role,
		Avatar: member.Avatar,
	}
}

func mapMembers(members []domain.Member) []MemberView {
	out := make([]MemberView, 0, len(members))
	for _, member := range members {
		out = append(out, mapMember(member))
	}
	return out
}

func mapTask(task domain.Task, now time.Time) TaskView {
	return TaskView{
		ID:             task.ID,
		TeamID:         task.TeamID,
		Title:          task.Title,
		Description:    task.Description,
		AssigneeID:     task.AssigneeID,
		AssigneeName:   task.AssigneeName,
		AssigneeAvatar: task.AssigneeAvatar,
		Priority:       string(task.Priority),
		Deadline:       domain.FormatDeadline(task.Deadline),
		Status:         string(task.Status),
		Position:       task.Position,
		Overdue:        task.IsOverdue(now),
		CreatedBy:      task.CreatedBy,
		UpdatedBy:      task.UpdatedBy,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}
}

func mapStats(stats domain.Stats) StatsView {
	return StatsView{
		Total:      stats.Total,
		Todo:       stats.Todo,
		InProgress: stats.InProgress,
		Done:       stats.Done,
		Overdue:    stats.Overdue,
	}
}

// mapAppError maps app/domain errors into transport-layer error sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, domain.ErrValidation):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	case errors.Is(err, domain.ErrPrecondition):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrPreconditionFailed, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
