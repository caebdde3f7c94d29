// Package rediscache wraps a board repository with Redis-backed caching of per-team reads.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hylla/hackboard/internal/app"
	"github.com/hylla/hackboard/internal/domain"
)

// DefaultKeyPrefix namespaces cache keys when no prefix is configured.
const DefaultKeyPrefix = "hackboard:"

// Repository caches task, column and roster lists per team. Redis failures fall
// back to the wrapped repository without failing the call.
type Repository struct {
	app.Repository
	redis  *redis.Client
	ttl    time.Duration
	prefix string
}

// New wraps base with a cache on client. A zero ttl disables writes to the cache.
func New(base app.Repository, client *redis.Client, ttl time.Duration, prefix string) *Repository {
	if base == nil {
		panic("rediscache.New: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultKeyPrefix
	}
	return &Repository{
		Repository: base,
		redis:      client,
		ttl:        ttl,
		prefix:     prefix,
	}
}

// ListTasks returns cached tasks or loads and caches them.
func (r *Repository) ListTasks(ctx context.Context, teamID string) ([]domain.Task, error) {
	key := r.tasksKey(teamID)
	var tasks []domain.Task
	if r.load(ctx, key, &tasks) {
		return tasks, nil
	}
	tasks, err := r.Repository.ListTasks(ctx, teamID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, tasks)
	return tasks, nil
}

// ListColumns returns cached columns or loads and caches them.
func (r *Repository) ListColumns(ctx context.Context, teamID string) ([]domain.Column, error) {
	key := r.columnsKey(teamID)
	var columns []domain.Column
	if r.load(ctx, key, &columns) {
		return columns, nil
	}
	columns, err := r.Repository.ListColumns(ctx, teamID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, columns)
	return columns, nil
}

// ListTeamMembers returns the cached roster or loads and caches it.
func (r *Repository) ListTeamMembers(ctx context.Context, teamID string) ([]domain.Member, error) {
	key := r.rosterKey(teamID)
	var members []domain.Member
	if r.load(ctx, key, &members) {
		return members, nil
	}
	members, err := r.Repository.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, members)
	return members, nil
}

func (r *Repository) CreateTask(ctx context.Context, task domain.Task) error {
	if err := r.Repository.CreateTask(ctx, task); err != nil {
		return err
	}
	r.evict(ctx, r.tasksKey(task.TeamID))
	return nil
}

func (r *Repository) UpdateTask(ctx context.Context, task domain.Task) error {
	if err := r.Repository.UpdateTask(ctx, task); err != nil {
		return err
	}
	r.evict(ctx, r.tasksKey(task.TeamID))
	return nil
}

func (r *Repository) MoveTask(ctx context.Context, moved domain.Task, reindexed []domain.Task) error {
	if err := r.Repository.MoveTask(ctx, moved, reindexed); err != nil {
		return err
	}
	r.evict(ctx, r.tasksKey(moved.TeamID))
	return nil
}

func (r *Repository) CreateColumn(ctx context.Context, column domain.Column) error {
	if err := r.Repository.CreateColumn(ctx, column); err != nil {
		return err
	}
	r.evict(ctx, r.columnsKey(column.TeamID))
	return nil
}

func (r *Repository) UpdateColumn(ctx context.Context, column domain.Column) error {
	if err := r.Repository.UpdateColumn(ctx, column); err != nil {
		return err
	}
	r.evict(ctx, r.columnsKey(column.TeamID))
	return nil
}

func (r *Repository) AddTeamMember(ctx context.Context, teamID, memberID string, joinedAt time.Time) error {
	if err := r.Repository.AddTeamMember(ctx, teamID, memberID, joinedAt); err != nil {
		return err
	}
	r.evict(ctx, r.rosterKey(teamID))
	return nil
}

func (r *Repository) RemoveTeamMember(ctx context.Context, teamID, memberID string) error {
	if err := r.Repository.RemoveTeamMember(ctx, teamID, memberID); err != nil {
		return err
	}
	r.evict(ctx, r.rosterKey(teamID))
	return nil
}

// UpdateMember evicts every cached roster since a member can sit on any number of teams.
func (r *Repository) UpdateMember(ctx context.Context, member domain.Member) error {
	if err := r.Repository.UpdateMember(ctx, member); err != nil {
		return err
	}
	r.evictPattern(ctx, r.prefix+"team:*:roster")
	return nil
}

func (r *Repository) load(ctx context.Context, key string, dst any) bool {
	if r.redis == nil {
		return false
	}
	data, err := r.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the backing repository without failing.
			_ = r.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		_ = r.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (r *Repository) store(ctx context.Context, key string, value any) {
	if r.redis == nil || r.ttl == 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = r.redis.Set(ctx, key, data, r.ttl).Err()
}

func (r *Repository) evict(ctx context.Context, keys ...string) {
	if r.redis == nil {
		return
	}
	_, _ = r.redis.Del(ctx, keys...).Result()
}

func (r *Repository) evictPattern(ctx context.Context, pattern string) {
	if r.redis == nil {
		return
	}
	iter := r.redis.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if iter.Err() != nil || len(keys) == 0 {
		return
	}
	r.evict(ctx, keys...)
}

func (r *Repository) tasksKey(teamID string) string {
	return r.prefix + "team:" + teamID + ":tasks"
}

func (r *Repository) columnsKey(teamID string) string {
	return r.prefix + "team:" + teamID + ":columns"
}

func (r *Repository) rosterKey(teamID string) string {
	return r.prefix + "team:" + teamID + ":roster"
}
