package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hylla/hackboard/internal/domain"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Columns      []domain.ColumnTemplate
	DefaultActor string
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service runs board operations against an injected repository.
type Service struct {
	repo         Repository
	idGen        IDGenerator
	clock        Clock
	columns      []domain.ColumnTemplate
	defaultActor string

	// boardMu serializes read-modify-write board mutations.
	boardMu sync.Mutex
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:         repo,
		idGen:        idGen,
		clock:        clock,
		columns:      sanitizeColumnTemplates(cfg.Columns),
		defaultActor: strings.TrimSpace(cfg.DefaultActor),
	}
}

// EnsureDefaultTeam returns the first team, creating one when the store is empty.
func (s *Service) EnsureDefaultTeam(ctx context.Context) (domain.Team, error) {
	teams, err := s.repo.ListTeams(ctx)
	if err != nil {
		return domain.Team{}, err
	}
	if len(teams) > 0 {
		return teams[0], nil
	}
	return s.CreateTeam(ctx, CreateTeamInput{Name: "My Team", Description: "Default team"})
}

// CreateTeamInput holds input values for create team operations.
type CreateTeamInput struct {
	Name        string
	Description string
	Hackathon   string
	LeaderID    string
	State       domain.TeamState
}

// CreateTeam creates a team with its three board columns. A known leader joins the roster.
func (s *Service) CreateTeam(ctx context.Context, in CreateTeamInput) (domain.Team, error) {
	now := s.clock()
	team, err := domain.NewTeam(s.idGen(), in.Name, in.Description, now)
	if err != nil {
		return domain.Team{}, err
	}
	if err := team.UpdateDetails(team.Name, team.Description, in.Hackathon, in.State, now); err != nil {
		return domain.Team{}, err
	}
	var leader *domain.Member
	if leaderID := strings.TrimSpace(in.LeaderID); leaderID != "" {
		member, err := s.repo.GetMember(ctx, leaderID)
		if err != nil {
			return domain.Team{}, fmt.Errorf("team leader %q: %w", leaderID, err)
		}
		team.SetLeader(member.ID, now)
		leader = &member
	}
	if err := s.repo.CreateTeam(ctx, team); err != nil {
		return domain.Team{}, err
	}
	if err := s.createDefaultColumns(ctx, team.ID, now); err != nil {
		return domain.Team{}, err
	}
	if leader != nil {
		if err := s.repo.AddTeamMember(ctx, team.ID, leader.ID, now); err != nil {
			return domain.Team{}, err
		}
	}
	return team, nil
}

// UpdateTeamInput holds input values for update team operations.
type UpdateTeamInput struct {
	TeamID      string
	Name        string
	Description string
	Hackathon   string
	State       domain.TeamState
}

// UpdateTeam updates state for the requested operation.
func (s *Service) UpdateTeam(ctx context.Context, in UpdateTeamInput) (domain.Team, error) {
	team, err := s.repo.GetTeam(ctx, in.TeamID)
	if err != nil {
		return domain.Team{}, err
	}
	if err := team.UpdateDetails(in.Name, in.Description, in.Hackathon, in.State, s.clock()); err != nil {
		return domain.Team{}, err
	}
	if err := s.repo.UpdateTeam(ctx, team); err != nil {
		return domain.Team{}, err
	}
	return team, nil
}

// ListTeams lists teams.
func (s *Service) ListTeams(ctx context.Context) ([]domain.Team, error) {
	return s.repo.ListTeams(ctx)
}

// GetTeam returns one team.
func (s *Service) GetTeam(ctx context.Context, teamID string) (domain.Team, error) {
	return s.repo.GetTeam(ctx, strings.TrimSpace(teamID))
}

// CreateMemberInput holds input values for create member operations. ID is optional.
type CreateMemberInput struct {
	ID     string
	Name   string
	Role   string
	Avatar string
}

// CreateMember creates member.
func (s *Service) CreateMember(ctx context.Context, in CreateMemberInput) (domain.Member, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = s.idGen()
	} else if _, err := s.repo.GetMember(ctx, id); err == nil {
		return domain.Member{}, fmt.Errorf("member %q: %w", id, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return domain.Member{}, err
	}
	member, err := domain.NewMember(id, in.Name, in.Role, in.Avatar, s.clock())
	if err != nil {
		return domain.Member{}, err
	}
	if err := s.repo.CreateMember(ctx, member); err != nil {
		return domain.Member{}, err
	}
	return member, nil
}

// UpdateMemberInput holds input values for update member operations.
type UpdateMemberInput struct {
	MemberID string
	Name     string
	Role     string
	Avatar   string
}

// UpdateMember edits roster display data. Boards pick the change up on the next read.
func (s *Service) UpdateMember(ctx context.Context, in UpdateMemberInput) (domain.Member, error) {
	member, err := s.repo.GetMember(ctx, in.MemberID)
	if err != nil {
		return domain.Member{}, err
	}
	if err := member.UpdateProfile(in.Name, in.Role, in.Avatar, s.clock()); err != nil {
		return domain.Member{}, err
	}
	if err := s.repo.UpdateMember(ctx, member); err != nil {
		return domain.Member{}, err
	}
	return member, nil
}

// ListMembers lists members.
func (s *Service) ListMembers(ctx context.Context) ([]domain.Member, error) {
	return s.repo.ListMembers(ctx)
}

// AddTeamMember puts an existing member on a team roster.
func (s *Service) AddTeamMember(ctx context.Context, teamID, memberID string) error {
	team, err := s.repo.GetTeam(ctx, strings.TrimSpace(teamID))
	if err != nil {
		return err
	}
	member, err := s.repo.GetMember(ctx, strings.TrimSpace(memberID))
	if err != nil {
		return err
	}
	return s.repo.AddTeamMember(ctx, team.ID, member.ID, s.clock())
}

// RemoveTeamMember takes a member off a team roster. Existing assignments keep
// the stored assignee copy.
func (s *Service) RemoveTeamMember(ctx context.Context, teamID, memberID string) error {
	return s.repo.RemoveTeamMember(ctx, strings.TrimSpace(teamID), strings.TrimSpace(memberID))
}

// ListTeamMembers lists one team roster.
func (s *Service) ListTeamMembers(ctx context.Context, teamID string) ([]domain.Member, error) {
	if _, err := s.repo.GetTeam(ctx, strings.TrimSpace(teamID)); err != nil {
		return nil, err
	}
	return s.repo.ListTeamMembers(ctx, strings.TrimSpace(teamID))
}

// RestyleColumn changes a column title and color.
func (s *Service) RestyleColumn(ctx context.Context, teamID string, status domain.Status, title, color string) (domain.Column, error) {
	columns, err := s.repo.ListColumns(ctx, teamID)
	if err != nil {
		return domain.Column{}, err
	}
	for _, column := range columns {
		if column.ID != status {
			continue
		}
		if err := column.Restyle(title, color, s.clock()); err != nil {
			return domain.Column{}, err
		}
		if err := s.repo.UpdateColumn(ctx, column); err != nil {
			return domain.Column{}, err
		}
		return column, nil
	}
	return domain.Column{}, domain.ErrUnknownColumn
}

// GetBoard loads a team board with assignee display fields joined from the current roster.
func (s *Service) GetBoard(ctx context.Context, teamID string) (*domain.Board, error) {
	board, _, err := s.loadBoard(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return board, nil
}

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	TeamID      string
	Title       string
	Description string
	AssigneeID  string
	Priority    domain.Priority
	Deadline    *time.Time
	CreatedBy   string
}

// CreateTask validates the draft against the team roster and appends it to the todo column.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	s.boardMu.Lock()
	defer s.boardMu.Unlock()

	board, roster, err := s.loadBoard(ctx, in.TeamID)
	if err != nil {
		return domain.Task{}, err
	}
	task, err := board.CreateTask(domain.TaskDraft{
		ID:          s.idGen(),
		Title:       in.Title,
		Description: in.Description,
		AssigneeID:  in.AssigneeID,
		Priority:    in.Priority,
		Deadline:    in.Deadline,
		CreatedBy:   s.actor(in.CreatedBy),
	}, roster, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// MoveTaskInput holds input values for move task operations.
type MoveTaskInput struct {
	TaskID string
	From   domain.Location
	To     domain.Location
	Actor  string
}

// MoveTask relocates a task and persists it with every re-indexed sibling.
// A move onto its own source location returns the task unchanged.
func (s *Service) MoveTask(ctx context.Context, in MoveTaskInput) (domain.Task, error) {
	s.boardMu.Lock()
	defer s.boardMu.Unlock()

	if !in.From.Column.Valid() || !in.To.Column.Valid() {
		return domain.Task{}, domain.ErrUnknownColumn
	}
	stored, err := s.repo.GetTask(ctx, strings.TrimSpace(in.TaskID))
	if errors.Is(err, ErrNotFound) {
		return domain.Task{}, fmt.Errorf("task %q: %w", in.TaskID, domain.ErrUnknownTask)
	}
	if err != nil {
		return domain.Task{}, err
	}
	board, _, err := s.loadBoard(ctx, stored.TeamID)
	if err != nil {
		return domain.Task{}, err
	}
	result, err := board.MoveTask(stored.ID, in.From, in.To, s.actor(in.Actor), s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if !result.Moved {
		return result.Task, nil
	}
	if err := s.repo.MoveTask(ctx, result.Task, result.Changed); err != nil {
		return domain.Task{}, err
	}
	return result.Task, nil
}

// MoveTaskTo moves a task from wherever it currently sits.
func (s *Service) MoveTaskTo(ctx context.Context, taskID string, to domain.Location, actor string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, strings.TrimSpace(taskID))
	if errors.Is(err, ErrNotFound) {
		return domain.Task{}, fmt.Errorf("task %q: %w", taskID, domain.ErrUnknownTask)
	}
	if err != nil {
		return domain.Task{}, err
	}
	board, err := s.GetBoard(ctx, task.TeamID)
	if err != nil {
		return domain.Task{}, err
	}
	from, ok := board.Locate(task.ID)
	if !ok {
		return domain.Task{}, fmt.Errorf("task %q: %w", taskID, domain.ErrUnknownTask)
	}
	return s.MoveTask(ctx, MoveTaskInput{TaskID: task.ID, From: from, To: to, Actor: actor})
}

// UpdateTaskInput holds input values for update task operations. Nil fields keep their value.
type UpdateTaskInput struct {
	TaskID        string
	Title         *string
	Description   *string
	AssigneeID    *string
	Priority      *domain.Priority
	Deadline      *time.Time
	ClearDeadline bool
	Actor         string
}

// UpdateTask edits task details. Status and position only change through MoveTask.
func (s *Service) UpdateTask(ctx context.Context, in UpdateTaskInput) (domain.Task, error) {
	s.boardMu.Lock()
	defer s.boardMu.Unlock()

	task, err := s.repo.GetTask(ctx, strings.TrimSpace(in.TaskID))
	if err != nil {
		return domain.Task{}, err
	}
	title, description, priority, deadline := task.Title, task.Description, task.Priority, task.Deadline
	if in.Title != nil {
		title = *in.Title
	}
	if in.Description != nil {
		description = *in.Description
	}
	if in.Priority != nil {
		priority = *in.Priority
	}
	switch {
	case in.ClearDeadline:
		deadline = nil
	case in.Deadline != nil:
		deadline = in.Deadline
	}

	assignee := domain.Member{ID: task.AssigneeID, Name: task.AssigneeName, Avatar: task.AssigneeAvatar}
	if in.AssigneeID != nil && strings.TrimSpace(*in.AssigneeID) != task.AssigneeID {
		members, err := s.repo.ListTeamMembers(ctx, task.TeamID)
		if err != nil {
			return domain.Task{}, err
		}
		assignee, err = domain.NewRoster(members).Resolve(*in.AssigneeID)
		if err != nil {
			return domain.Task{}, err
		}
	}
	if err := task.UpdateDetails(title, description, assignee, priority, deadline, s.actor(in.Actor), s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// GetTask returns one task.
func (s *Service) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	return s.repo.GetTask(ctx, strings.TrimSpace(taskID))
}

// BoardStats computes board counts at the service clock.
func (s *Service) BoardStats(ctx context.Context, teamID string) (domain.Stats, error) {
	if _, err := s.repo.GetTeam(ctx, strings.TrimSpace(teamID)); err != nil {
		return domain.Stats{}, err
	}
	tasks, err := s.repo.ListTasks(ctx, strings.TrimSpace(teamID))
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.ComputeStats(tasks, s.clock()), nil
}

// ListTeamActivity lists the most recent change events for a team.
func (s *Service) ListTeamActivity(ctx context.Context, teamID string, limit int) ([]domain.ChangeEvent, error) {
	if _, err := s.repo.GetTeam(ctx, strings.TrimSpace(teamID)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListTeamChangeEvents(ctx, strings.TrimSpace(teamID), limit)
}

// loadBoard assembles the board and roster for one team.
func (s *Service) loadBoard(ctx context.Context, teamID string) (*domain.Board, domain.Roster, error) {
	teamID = strings.TrimSpace(teamID)
	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return nil, nil, err
	}
	columns, err := s.repo.ListColumns(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := s.repo.ListTasks(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.repo.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}
	board, err := domain.NewBoard(teamID, columns, tasks)
	if err != nil {
		return nil, nil, err
	}
	roster := domain.NewRoster(members)
	board.ApplyRoster(roster)
	return board, roster, nil
}

// Now reports the service clock, used by read surfaces for overdue flags.
func (s *Service) Now() time.Time {
	return s.clock()
}

// actor falls back to the configured identity.
func (s *Service) actor(raw string) string {
	if raw = strings.TrimSpace(raw); raw != "" {
		return raw
	}
	return s.defaultActor
}

// createDefaultColumns creates default columns.
func (s *Service) createDefaultColumns(ctx context.Context, teamID string, now time.Time) error {
	for _, tpl := range s.columns {
		column, err := domain.NewColumn(teamID, tpl.Status, tpl.Title, tpl.Color, now)
		if err != nil {
			return fmt.Errorf("create default column %q: %w", tpl.Status, err)
		}
		if err := s.repo.CreateColumn(ctx, column); err != nil {
			return fmt.Errorf("persist default column %q: %w", tpl.Status, err)
		}
	}
	return nil
}

// sanitizeColumnTemplates overlays configured titles and colors onto the stock columns.
// Unknown statuses and blank titles are ignored.
func sanitizeColumnTemplates(in []domain.ColumnTemplate) []domain.ColumnTemplate {
	out := domain.DefaultColumnTemplates()
	for _, tpl := range in {
		status, err := domain.ParseStatus(string(tpl.Status))
		if err != nil {
			continue
		}
		idx := status.Index()
		if title := strings.TrimSpace(tpl.Title); title != "" {
			out[idx].Title = title
		}
		if color := strings.TrimSpace(tpl.Color); color != "" {
			out[idx].Color = color
		}
	}
	return out
}
