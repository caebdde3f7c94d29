package app

import (
	"context"
	"time"

	"github.com/hylla/hackboard/internal/domain"
)

// Repository represents repository data used by this package.
type Repository interface {
	CreateTeam(context.Context, domain.Team) error
	UpdateTeam(context.Context, domain.Team) error
	GetTeam(context.Context, string) (domain.Team, error)
	ListTeams(context.Context) ([]domain.Team, error)

	CreateMember(context.Context, domain.Member) error
	UpdateMember(context.Context, domain.Member) error
	GetMember(context.Context, string) (domain.Member, error)
	ListMembers(context.Context) ([]domain.Member, error)
	AddTeamMember(ctx context.Context, teamID, memberID string, joinedAt time.Time) error
	RemoveTeamMember(ctx context.Context, teamID, memberID string) error
	ListTeamMembers(ctx context.Context, teamID string) ([]domain.Member, error)

	CreateColumn(context.Context, domain.Column) error
	UpdateColumn(context.Context, domain.Column) error
	ListColumns(ctx context.Context, teamID string) ([]domain.Column, error)

	CreateTask(context.Context, domain.Task) error
	UpdateTask(context.Context, domain.Task) error
	// MoveTask persists a moved task and its re-indexed siblings in one transaction.
	MoveTask(ctx context.Context, moved domain.Task, reindexed []domain.Task) error
	GetTask(context.Context, string) (domain.Task, error)
	ListTasks(ctx context.Context, teamID string) ([]domain.Task, error)

	ListTeamChangeEvents(ctx context.Context, teamID string, limit int) ([]domain.ChangeEvent, error)
}
