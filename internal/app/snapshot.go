package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hylla/hackboard/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "hackboard.snapshot.v1"

// Snapshot represents snapshot data used by this package.
type Snapshot struct {
	Version    string               `json:"version"`
	ExportedAt time.Time            `json:"exported_at"`
	Teams      []SnapshotTeam       `json:"teams"`
	Members    []SnapshotMember     `json:"members"`
	Rosters    []SnapshotTeamRoster `json:"rosters"`
	Columns    []SnapshotColumn     `json:"columns"`
	Tasks      []SnapshotTask       `json:"tasks"`
}

// SnapshotTeam represents snapshot team data used by this package.
type SnapshotTeam struct {
	ID          string           `json:"id"`
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	LeaderID    string           `json:"leader_id,omitempty"`
	State       domain.TeamState `json:"state"`
	Hackathon   string           `json:"hackathon,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// SnapshotMember represents one roster entry.
type SnapshotMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SnapshotTeamRoster lists the member ids of one team.
type SnapshotTeamRoster struct {
	TeamID    string   `json:"team_id"`
	MemberIDs []string `json:"member_ids"`
}

// SnapshotColumn represents snapshot column data used by this package.
type SnapshotColumn struct {
	ID        domain.Status `json:"id"`
	TeamID    string        `json:"team_id"`
	Title     string        `json:"title"`
	Color     string        `json:"color"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID             string          `json:"id"`
	TeamID         string          `json:"team_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	AssigneeID     string          `json:"assignee_id"`
	AssigneeName   string          `json:"assignee_name"`
	AssigneeAvatar string          `json:"assignee_avatar,omitempty"`
	Priority       domain.Priority `json:"priority"`
	Deadline       string          `json:"deadline,omitempty"`
	Status         domain.Status   `json:"status"`
	Position       int             `json:"position"`
	CreatedBy      string          `json:"created_by"`
	UpdatedBy      string          `json:"updated_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ExportSnapshot handles export snapshot.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	teams, err := s.repo.ListTeams(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	members, err := s.repo.ListMembers(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Teams:      make([]SnapshotTeam, 0, len(teams)),
		Members:    make([]SnapshotMember, 0, len(members)),
		Rosters:    make([]SnapshotTeamRoster, 0, len(teams)),
		Columns:    make([]SnapshotColumn, 0, len(teams)*3),
		Tasks:      make([]SnapshotTask, 0),
	}
	for _, member := range members {
		snap.Members = append(snap.Members, snapshotMemberFromDomain(member))
	}
	for _, team := range teams {
		snap.Teams = append(snap.Teams, snapshotTeamFromDomain(team))

		roster, listErr := s.repo.ListTeamMembers(ctx, team.ID)
		if listErr != nil {
			return Snapshot{}, listErr
		}
		entry := SnapshotTeamRoster{TeamID: team.ID, MemberIDs: make([]string, 0, len(roster))}
		for _, member := range roster {
			entry.MemberIDs = append(entry.MemberIDs, member.ID)
		}
		snap.Rosters = append(snap.Rosters, entry)

		columns, listErr := s.repo.ListColumns(ctx, team.ID)
		if listErr != nil {
			return Snapshot{}, listErr
		}
		for _, column := range columns {
			snap.Columns = append(snap.Columns, snapshotColumnFromDomain(column))
		}

		tasks, listErr := s.repo.ListTasks(ctx, team.ID)
		if listErr != nil {
			return Snapshot{}, listErr
		}
		for _, task := range tasks {
			snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(task))
		}
	}

	snap.sort()
	return snap, nil
}

// ImportSnapshot upserts every snapshot row. Each imported board must satisfy
// the column invariants before anything is written.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()

	s.boardMu.Lock()
	defer s.boardMu.Unlock()

	for _, member := range snap.Members {
		if err := s.upsertMember(ctx, member.toDomain()); err != nil {
			return err
		}
	}
	for _, team := range snap.Teams {
		if err := s.upsertTeam(ctx, team.toDomain()); err != nil {
			return err
		}
	}
	for _, roster := range snap.Rosters {
		for _, memberID := range roster.MemberIDs {
			if err := s.repo.AddTeamMember(ctx, roster.TeamID, memberID, snap.ExportedAt); err != nil {
				return err
			}
		}
	}

	existingColumns := map[string]map[domain.Status]struct{}{}
	for _, team := range snap.Teams {
		columns, err := s.repo.ListColumns(ctx, team.ID)
		if err != nil {
			return err
		}
		byID := map[domain.Status]struct{}{}
		for _, column := range columns {
			byID[column.ID] = struct{}{}
		}
		existingColumns[team.ID] = byID
	}
	for _, column := range snap.Columns {
		dc := column.toDomain()
		if _, ok := existingColumns[dc.TeamID][dc.ID]; ok {
			if err := s.repo.UpdateColumn(ctx, dc); err != nil {
				return err
			}
			continue
		}
		if err := s.repo.CreateColumn(ctx, dc); err != nil {
			return err
		}
		existingColumns[dc.TeamID][dc.ID] = struct{}{}
	}

	for _, task := range snap.Tasks {
		dt, err := task.toDomain()
		if err != nil {
			return err
		}
		if _, err := s.repo.GetTask(ctx, dt.ID); err == nil {
			if err := s.repo.UpdateTask(ctx, dt); err != nil {
				return err
			}
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.repo.CreateTask(ctx, dt); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the requested operation.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, s.Version)
	}

	teamIDs := map[string]struct{}{}
	for i, team := range s.Teams {
		if strings.TrimSpace(team.ID) == "" {
			return fmt.Errorf("%w: teams[%d].id is required", ErrInvalidSnapshot, i)
		}
		if strings.TrimSpace(team.Name) == "" {
			return fmt.Errorf("%w: teams[%d].name is required", ErrInvalidSnapshot, i)
		}
		if _, exists := teamIDs[team.ID]; exists {
			return fmt.Errorf("%w: duplicate team id %q", ErrInvalidSnapshot, team.ID)
		}
		teamIDs[team.ID] = struct{}{}
	}

	memberIDs := map[string]struct{}{}
	for i, member := range s.Members {
		if strings.TrimSpace(member.ID) == "" {
			return fmt.Errorf("%w: members[%d].id is required", ErrInvalidSnapshot, i)
		}
		if strings.TrimSpace(member.Name) == "" {
			return fmt.Errorf("%w: members[%d].name is required", ErrInvalidSnapshot, i)
		}
		memberIDs[member.ID] = struct{}{}
	}

	for i, roster := range s.Rosters {
		if _, ok := teamIDs[roster.TeamID]; !ok {
			return fmt.Errorf("%w: rosters[%d] references unknown team_id %q", ErrInvalidSnapshot, i, roster.TeamID)
		}
		for _, memberID := range roster.MemberIDs {
			if _, ok := memberIDs[memberID]; !ok {
				return fmt.Errorf("%w: rosters[%d] references unknown member %q", ErrInvalidSnapshot, i, memberID)
			}
		}
	}

	columnsByTeam := map[string][]domain.Column{}
	for i, column := range s.Columns {
		if !column.ID.Valid() {
			return fmt.Errorf("%w: columns[%d].id %q is not a board status", ErrInvalidSnapshot, i, column.ID)
		}
		if _, ok := teamIDs[column.TeamID]; !ok {
			return fmt.Errorf("%w: columns[%d] references unknown team_id %q", ErrInvalidSnapshot, i, column.TeamID)
		}
		if strings.TrimSpace(column.Title) == "" {
			return fmt.Errorf("%w: columns[%d].title is required", ErrInvalidSnapshot, i)
		}
		columnsByTeam[column.TeamID] = append(columnsByTeam[column.TeamID], column.toDomain())
	}

	tasksByTeam := map[string][]domain.Task{}
	taskIDs := map[string]struct{}{}
	for i, task := range s.Tasks {
		if strings.TrimSpace(task.ID) == "" {
			return fmt.Errorf("%w: tasks[%d].id is required", ErrInvalidSnapshot, i)
		}
		if _, exists := taskIDs[task.ID]; exists {
			return fmt.Errorf("%w: duplicate task id %q", ErrInvalidSnapshot, task.ID)
		}
		taskIDs[task.ID] = struct{}{}
		if _, ok := teamIDs[task.TeamID]; !ok {
			return fmt.Errorf("%w: tasks[%d] references unknown team_id %q", ErrInvalidSnapshot, i, task.TeamID)
		}
		if strings.TrimSpace(task.Title) == "" {
			return fmt.Errorf("%w: tasks[%d].title is required", ErrInvalidSnapshot, i)
		}
		if task.Position < 0 {
			return fmt.Errorf("%w: tasks[%d].position must be >= 0", ErrInvalidSnapshot, i)
		}
		dt, err := task.toDomain()
		if err != nil {
			return fmt.Errorf("%w: tasks[%d]: %v", ErrInvalidSnapshot, i, err)
		}
		tasksByTeam[task.TeamID] = append(tasksByTeam[task.TeamID], dt)
	}

	for teamID := range teamIDs {
		if _, err := domain.NewBoard(teamID, columnsByTeam[teamID], tasksByTeam[teamID]); err != nil {
			return fmt.Errorf("%w: team %q: %v", ErrInvalidSnapshot, teamID, err)
		}
	}
	return nil
}

// upsertTeam handles upsert team.
func (s *Service) upsertTeam(ctx context.Context, team domain.Team) error {
	if _, err := s.repo.GetTeam(ctx, team.ID); err == nil {
		return s.repo.UpdateTeam(ctx, team)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.repo.CreateTeam(ctx, team)
}

// upsertMember handles upsert member.
func (s *Service) upsertMember(ctx context.Context, member domain.Member) error {
	if _, err := s.repo.GetMember(ctx, member.ID); err == nil {
		return s.repo.UpdateMember(ctx, member)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.repo.CreateMember(ctx, member)
}

// sort sorts snapshot rows into a stable order.
func (s *Snapshot) sort() {
	sort.Slice(s.Teams, func(i, j int) bool {
		return s.Teams[i].ID < s.Teams[j].ID
	})
	sort.Slice(s.Members, func(i, j int) bool {
		return s.Members[i].ID < s.Members[j].ID
	})
	sort.Slice(s.Rosters, func(i, j int) bool {
		return s.Rosters[i].TeamID < s.Rosters[j].TeamID
	})
	for i := range s.Rosters {
		sort.Strings(s.Rosters[i].MemberIDs)
	}
	sort.Slice(s.Columns, func(i, j int) bool {
		a := s.Columns[i]
		b := s.Columns[j]
		if a.TeamID == b.TeamID {
			return a.ID.Index() < b.ID.Index()
		}
		return a.TeamID < b.TeamID
	})
	sort.Slice(s.Tasks, func(i, j int) bool {
		a := s.Tasks[i]
		b := s.Tasks[j]
		if a.TeamID == b.TeamID {
			if a.Status == b.Status {
				if a.Position == b.Position {
					return a.ID < b.ID
				}
				return a.Position < b.Position
			}
			return a.Status.Index() < b.Status.Index()
		}
		return a.TeamID < b.TeamID
	})
}

// snapshotTeamFromDomain handles snapshot team from domain.
func snapshotTeamFromDomain(t domain.Team) SnapshotTeam {
	return SnapshotTeam{
		ID:          t.ID,
		Slug:        t.Slug,
		Name:        t.Name,
		Description: t.Description,
		LeaderID:    t.LeaderID,
		State:       t.State,
		Hackathon:   t.Hackathon,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func snapshotMemberFromDomain(m domain.Member) SnapshotMember {
	return SnapshotMember{
		ID:        m.ID,
		Name:      m.Name,
		Role:      m.Role,
		Avatar:    m.Avatar,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func snapshotColumnFromDomain(c domain.Column) SnapshotColumn {
	return SnapshotColumn{
		ID:        c.ID,
		TeamID:    c.TeamID,
		Title:     c.Title,
		Color:     c.Color,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func snapshotTaskFromDomain(t domain.Task) SnapshotTask {
	return SnapshotTask{
		ID:             t.ID,
		TeamID:         t.TeamID,
		Title:          t.Title,
		Description:    t.Description,
		AssigneeID:     t.AssigneeID,
		AssigneeName:   t.AssigneeName,
		AssigneeAvatar: t.AssigneeAvatar,
		Priority:       t.Priority,
		Deadline:       domain.FormatDeadline(t.Deadline),
		Status:         t.Status,
		Position:       t.Position,
		CreatedBy:      t.CreatedBy,
		UpdatedBy:      t.UpdatedBy,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// toDomain converts snapshot data to domain data.
func (t SnapshotTeam) toDomain() domain.Team {
	slug := strings.TrimSpace(t.Slug)
	if slug == "" {
		slug = fallbackSlug(t.Name)
	}
	state := t.State
	if state == "" {
		state = domain.TeamStateRecruiting
	}
	return domain.Team{
		ID:          strings.TrimSpace(t.ID),
		Slug:        slug,
		Name:        strings.TrimSpace(t.Name),
		Description: strings.TrimSpace(t.Description),
		LeaderID:    strings.TrimSpace(t.LeaderID),
		State:       state,
		Hackathon:   strings.TrimSpace(t.Hackathon),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func (m SnapshotMember) toDomain() domain.Member {
	return domain.Member{
		ID:        strings.TrimSpace(m.ID),
		Name:      strings.TrimSpace(m.Name),
		Role:      strings.TrimSpace(m.Role),
		Avatar:    strings.TrimSpace(m.Avatar),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func (c SnapshotColumn) toDomain() domain.Column {
	return domain.Column{
		ID:        c.ID,
		TeamID:    strings.TrimSpace(c.TeamID),
		Title:     strings.TrimSpace(c.Title),
		Color:     strings.TrimSpace(c.Color),
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func (t SnapshotTask) toDomain() (domain.Task, error) {
	deadline, err := domain.ParseDeadline(t.Deadline)
	if err != nil {
		return domain.Task{}, err
	}
	priority := t.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	return domain.Task{
		ID:             strings.TrimSpace(t.ID),
		TeamID:         strings.TrimSpace(t.TeamID),
		Title:          strings.TrimSpace(t.Title),
		Description:    t.Description,
		AssigneeID:     strings.TrimSpace(t.AssigneeID),
		AssigneeName:   t.AssigneeName,
		AssigneeAvatar: t.AssigneeAvatar,
		Priority:       priority,
		Deadline:       deadline,
		Status:         t.Status,
		Position:       t.Position,
		CreatedBy:      t.CreatedBy,
		UpdatedBy:      t.UpdatedBy,
		CreatedAt:      t.CreatedAt.UTC(),
		UpdatedAt:      t.UpdatedAt.UTC(),
	}, nil
}

// fallbackSlug derives a slug for teams exported without one.
func fallbackSlug(name string) string {
	team, err := domain.NewTeam("slug", name, "", time.Time{})
	if err != nil {
		return ""
	}
	return team.Slug
}
