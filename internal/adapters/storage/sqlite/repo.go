package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hylla/hackboard/internal/app"
	"github.com/hylla/hackboard/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// defaultActorID fills audit columns written without an actor.
const defaultActorID = "hackboard-user"

// Repository represents repository data used by this package.
type Repository struct {
	db *sql.DB
}

// Open opens the requested operation.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db)
}

func newRepository(db *sql.DB) (*Repository, error) {
	// One connection keeps pragmas and in-memory databases consistent and serializes writers.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS teams (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			leader_id TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT 'recruiting',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS members (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT '',
			avatar TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS team_members (
			team_id TEXT NOT NULL,
			member_id TEXT NOT NULL,
			joined_at TEXT NOT NULL,
			PRIMARY KEY(team_id, member_id),
			FOREIGN KEY(team_id) REFERENCES teams(id) ON DELETE CASCADE,
			FOREIGN KEY(member_id) REFERENCES members(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS board_columns (
			team_id TEXT NOT NULL,
			status TEXT NOT NULL,
			title TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY(team_id, status),
			FOREIGN KEY(team_id) REFERENCES teams(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			team_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			assignee_id TEXT NOT NULL,
			assignee_name TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT 'medium',
			deadline TEXT,
			status TEXT NOT NULL DEFAULT 'todo',
			position INTEGER NOT NULL,
			created_by TEXT NOT NULL DEFAULT 'hackboard-user',
			updated_by TEXT NOT NULL DEFAULT 'hackboard-user',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(team_id) REFERENCES teams(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_team_status_position ON tasks(team_id, status, position);`,
		`CREATE TABLE IF NOT EXISTS change_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			team_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			actor_id TEXT NOT NULL DEFAULT 'hackboard-user',
			metadata_json TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_change_events_team_created_at ON change_events(team_id, created_at DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}

	alterStatements := []string{
		`ALTER TABLE teams ADD COLUMN hackathon TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE tasks ADD COLUMN assignee_avatar TEXT NOT NULL DEFAULT ''`,
	}
	for _, stmt := range alterStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil && !isDuplicateColumnErr(err) {
			return fmt.Errorf("migrate sqlite columns: %w", err)
		}
	}
	return nil
}

// CreateTeam creates team.
func (r *Repository) CreateTeam(ctx context.Context, t domain.Team) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teams(id, slug, name, description, leader_id, state, hackathon, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Slug, t.Name, t.Description, t.LeaderID, string(t.State), t.Hackathon, ts(t.CreatedAt), ts(t.UpdatedAt))
	return err
}

// UpdateTeam updates state for the requested operation.
func (r *Repository) UpdateTeam(ctx context.Context, t domain.Team) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE teams
		SET slug = ?, name = ?, description = ?, leader_id = ?, state = ?, hackathon = ?, updated_at = ?
		WHERE id = ?
	`, t.Slug, t.Name, t.Description, t.LeaderID, string(t.State), t.Hackathon, ts(t.UpdatedAt), t.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetTeam returns team.
func (r *Repository) GetTeam(ctx context.Context, id string) (domain.Team, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, description, leader_id, state, hackathon, created_at, updated_at
		FROM teams
		WHERE id = ?
	`, id)
	return scanTeam(row)
}

// ListTeams lists teams.
func (r *Repository) ListTeams(ctx context.Context) ([]domain.Team, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, slug, name, description, leader_id, state, hackathon, created_at, updated_at
		FROM teams
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Team, 0)
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, team)
	}
	return out, rows.Err()
}

// CreateMember creates member.
func (r *Repository) CreateMember(ctx context.Context, m domain.Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members(id, name, role, avatar, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Role, m.Avatar, ts(m.CreatedAt), ts(m.UpdatedAt))
	return err
}

// UpdateMember updates roster display data only; stored task copies are left as written.
func (r *Repository) UpdateMember(ctx context.Context, m domain.Member) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE members
		SET name = ?, role = ?, avatar = ?, updated_at = ?
		WHERE id = ?
	`, m.Name, m.Role, m.Avatar, ts(m.UpdatedAt), m.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetMember returns member.
func (r *Repository) GetMember(ctx context.Context, id string) (domain.Member, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, role, avatar, created_at, updated_at
		FROM members
		WHERE id = ?
	`, id)
	return scanMember(row)
}

// ListMembers lists members.
func (r *Repository) ListMembers(ctx context.Context) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, role, avatar, created_at, updated_at
		FROM members
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

// AddTeamMember is idempotent: an existing roster row keeps its joined_at.
func (r *Repository) AddTeamMember(ctx context.Context, teamID, memberID string, joinedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO team_members(team_id, member_id, joined_at)
		VALUES (?, ?, ?)
		ON CONFLICT(team_id, member_id) DO NOTHING
	`, teamID, memberID, ts(joinedAt))
	return err
}

// RemoveTeamMember removes one roster row.
func (r *Repository) RemoveTeamMember(ctx context.Context, teamID, memberID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = ? AND member_id = ?`, teamID, memberID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// ListTeamMembers lists a team roster in join order.
func (r *Repository) ListTeamMembers(ctx context.Context, teamID string) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.name, m.role, m.avatar, m.created_at, m.updated_at
		FROM team_members tm
		JOIN members m ON m.id = tm.member_id
		WHERE tm.team_id = ?
		ORDER BY tm.joined_at ASC, m.id ASC
	`, teamID)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

// CreateColumn creates column.
func (r *Repository) CreateColumn(ctx context.Context, c domain.Column) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO board_columns(team_id, status, title, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.TeamID, string(c.ID), c.Title, c.Color, ts(c.CreatedAt), ts(c.UpdatedAt))
	return err
}

// UpdateColumn updates state for the requested operation.
func (r *Repository) UpdateColumn(ctx context.Context, c domain.Column) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE board_columns
		SET title = ?, color = ?, updated_at = ?
		WHERE team_id = ? AND status = ?
	`, c.Title, c.Color, ts(c.UpdatedAt), c.TeamID, string(c.ID))
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// ListColumns lists columns in board order.
func (r *Repository) ListColumns(ctx context.Context, teamID string) ([]domain.Column, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT team_id, status, title, color, created_at, updated_at
		FROM board_columns
		WHERE team_id = ?
		ORDER BY CASE status WHEN 'todo' THEN 0 WHEN 'inprogress' THEN 1 WHEN 'done' THEN 2 ELSE 3 END
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Column, 0, 3)
	for rows.Next() {
		var (
			c          domain.Column
			status     string
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(&c.TeamID, &status, &c.Title, &c.Color, &createdRaw, &updatedRaw); err != nil {
			return nil, err
		}
		c.ID = domain.Status(status)
		c.CreatedAt = parseTS(createdRaw)
		c.UpdatedAt = parseTS(updatedRaw)
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateTask creates task.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks(
			id, team_id, title, description, assignee_id, assignee_name, assignee_avatar, priority, deadline,
			status, position, created_by, updated_by, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.TeamID,
		t.Title,
		t.Description,
		t.AssigneeID,
		t.AssigneeName,
		t.AssigneeAvatar,
		string(t.Priority),
		nullableDeadline(t.Deadline),
		string(t.Status),
		t.Position,
		chooseActorID(t.CreatedBy),
		chooseActorID(t.UpdatedBy, t.CreatedBy),
		ts(t.CreatedAt),
		ts(t.UpdatedAt),
	)
	if err != nil {
		return err
	}

	err = insertTaskChangeEvent(ctx, tx, domain.ChangeEvent{
		TeamID:    t.TeamID,
		TaskID:    t.ID,
		Operation: domain.ChangeOperationCreate,
		ActorID:   chooseActorID(t.CreatedBy, t.UpdatedBy),
		Metadata: map[string]string{
			"status":      string(t.Status),
			"position":    strconv.Itoa(t.Position),
			"title":       t.Title,
			"assignee_id": t.AssigneeID,
		},
		OccurredAt: t.CreatedAt,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateTask updates state for the requested operation.
func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prev, err := getTaskByID(ctx, tx, t.ID)
	if err != nil {
		return err
	}
	if err = writeTask(ctx, tx, t); err != nil {
		return err
	}

	op, metadata := classifyTaskTransition(prev, t)
	err = insertTaskChangeEvent(ctx, tx, domain.ChangeEvent{
		TeamID:     t.TeamID,
		TaskID:     t.ID,
		Operation:  op,
		ActorID:    chooseActorID(t.UpdatedBy, prev.UpdatedBy),
		Metadata:   metadata,
		OccurredAt: t.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// MoveTask writes the moved task, the re-indexed sibling positions and one move event in a single transaction.
func (r *Repository) MoveTask(ctx context.Context, moved domain.Task, reindexed []domain.Task) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prev, err := getTaskByID(ctx, tx, moved.ID)
	if err != nil {
		return err
	}
	if err = writeTask(ctx, tx, moved); err != nil {
		return err
	}
	for _, sibling := range reindexed {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `UPDATE tasks SET position = ? WHERE id = ? AND team_id = ?`, sibling.Position, sibling.ID, moved.TeamID)
		if err != nil {
			return err
		}
		if err = translateNoRows(res); err != nil {
			return fmt.Errorf("reindex task %q: %w", sibling.ID, err)
		}
	}

	err = insertTaskChangeEvent(ctx, tx, domain.ChangeEvent{
		TeamID:     moved.TeamID,
		TaskID:     moved.ID,
		Operation:  domain.ChangeOperationMove,
		ActorID:    chooseActorID(moved.UpdatedBy, prev.UpdatedBy),
		Metadata:   moveMetadata(prev, moved),
		OccurredAt: moved.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetTask returns task.
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return getTaskByID(ctx, r.db, id)
}

// ListTasks lists a team's tasks by status, then position.
func (r *Repository) ListTasks(ctx context.Context, teamID string) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE team_id = ?
		ORDER BY CASE status WHEN 'todo' THEN 0 WHEN 'inprogress' THEN 1 WHEN 'done' THEN 2 ELSE 3 END, position ASC, created_at ASC, id ASC
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// ListTeamChangeEvents lists recent team events for activity-log consumption.
func (r *Repository) ListTeamChangeEvents(ctx context.Context, teamID string, limit int) ([]domain.ChangeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, team_id, task_id, operation, actor_id, metadata_json, created_at
		FROM change_events
		WHERE team_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, teamID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ChangeEvent, 0)
	for rows.Next() {
		var (
			event       domain.ChangeEvent
			opRaw       string
			metadataRaw string
			createdRaw  string
		)
		if err := rows.Scan(&event.ID, &event.TeamID, &event.TaskID, &opRaw, &event.ActorID, &metadataRaw, &createdRaw); err != nil {
			return nil, err
		}
		event.Operation = normalizeChangeOperation(opRaw)
		event.OccurredAt = parseTS(createdRaw)
		if strings.TrimSpace(metadataRaw) == "" {
			metadataRaw = "{}"
		}
		if err := json.Unmarshal([]byte(metadataRaw), &event.Metadata); err != nil {
			return nil, fmt.Errorf("decode change_events.metadata_json: %w", err)
		}
		if event.Metadata == nil {
			event.Metadata = map[string]string{}
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

const taskColumns = `id, team_id, title, description, assignee_id, assignee_name, assignee_avatar, priority, deadline,
			status, position, created_by, updated_by, created_at, updated_at`

// queryRower represents a query-only DB contract used by DB and Tx implementations.
type queryRower interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// getTaskByID returns one task row.
func getTaskByID(ctx context.Context, q queryRower, id string) (domain.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// execerContext represents a write-only DB contract used by DB and Tx implementations.
type execerContext interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

// writeTask overwrites every mutable task column.
func writeTask(ctx context.Context, execer execerContext, t domain.Task) error {
	res, err := execer.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, assignee_id = ?, assignee_name = ?, assignee_avatar = ?, priority = ?, deadline = ?,
		    status = ?, position = ?, updated_by = ?, updated_at = ?
		WHERE id = ?
	`,
		t.Title,
		t.Description,
		t.AssigneeID,
		t.AssigneeName,
		t.AssigneeAvatar,
		string(t.Priority),
		nullableDeadline(t.Deadline),
		string(t.Status),
		t.Position,
		chooseActorID(t.UpdatedBy, t.CreatedBy),
		ts(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// insertTaskChangeEvent inserts a change-event ledger record.
func insertTaskChangeEvent(ctx context.Context, execer execerContext, event domain.ChangeEvent) error {
	metadataJSON, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode change event metadata: %w", err)
	}
	_, err = execer.ExecContext(ctx, `
		INSERT INTO change_events(team_id, task_id, operation, actor_id, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		event.TeamID,
		event.TaskID,
		string(event.Operation),
		chooseActorID(event.ActorID),
		string(metadataJSON),
		ts(normalizeEventTS(event.OccurredAt)),
	)
	if err != nil {
		return fmt.Errorf("insert change event: %w", err)
	}
	return nil
}

// classifyTaskTransition derives the operation category and metadata for a task update.
func classifyTaskTransition(prev, next domain.Task) (domain.ChangeOperation, map[string]string) {
	if prev.Status != next.Status || prev.Position != next.Position {
		return domain.ChangeOperationMove, moveMetadata(prev, next)
	}
	fields := changedTaskFields(prev, next)
	metadata := map[string]string{}
	if len(fields) > 0 {
		metadata["changed_fields"] = strings.Join(fields, ",")
	}
	return domain.ChangeOperationUpdate, metadata
}

func moveMetadata(prev, next domain.Task) map[string]string {
	return map[string]string{
		"from_status":   string(prev.Status),
		"to_status":     string(next.Status),
		"from_position": strconv.Itoa(prev.Position),
		"to_position":   strconv.Itoa(next.Position),
	}
}

// changedTaskFields identifies a deterministic set of meaningful changes for metadata.
func changedTaskFields(prev, next domain.Task) []string {
	changed := make([]string, 0)
	if prev.Title != next.Title {
		changed = append(changed, "title")
	}
	if prev.Description != next.Description {
		changed = append(changed, "description")
	}
	if prev.AssigneeID != next.AssigneeID {
		changed = append(changed, "assignee_id")
	}
	if prev.Priority != next.Priority {
		changed = append(changed, "priority")
	}
	if domain.FormatDeadline(prev.Deadline) != domain.FormatDeadline(next.Deadline) {
		changed = append(changed, "deadline")
	}
	return changed
}

// chooseActorID returns the first non-empty actor id.
func chooseActorID(candidates ...string) string {
	for _, candidate := range candidates {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate
		}
	}
	return defaultActorID
}

// normalizeChangeOperation maps stored operation text to a known value.
func normalizeChangeOperation(raw string) domain.ChangeOperation {
	switch domain.ChangeOperation(strings.TrimSpace(strings.ToLower(raw))) {
	case domain.ChangeOperationCreate:
		return domain.ChangeOperationCreate
	case domain.ChangeOperationMove:
		return domain.ChangeOperationMove
	default:
		return domain.ChangeOperationUpdate
	}
}

// normalizeEventTS ensures event timestamps are always populated and UTC-normalized.
func normalizeEventTS(in time.Time) time.Time {
	if in.IsZero() {
		return time.Now().UTC()
	}
	return in.UTC()
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanTeam handles scan team.
func scanTeam(s scanner) (domain.Team, error) {
	var (
		t          domain.Team
		state      string
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(&t.ID, &t.Slug, &t.Name, &t.Description, &t.LeaderID, &state, &t.Hackathon, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Team{}, app.ErrNotFound
		}
		return domain.Team{}, err
	}
	t.State = domain.TeamState(state)
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	return t, nil
}

// scanMember handles scan member.
func scanMember(s scanner) (domain.Member, error) {
	var (
		m          domain.Member
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(&m.ID, &m.Name, &m.Role, &m.Avatar, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Member{}, app.ErrNotFound
		}
		return domain.Member{}, err
	}
	m.CreatedAt = parseTS(createdRaw)
	m.UpdatedAt = parseTS(updatedRaw)
	return m, nil
}

func collectMembers(rows *sql.Rows) ([]domain.Member, error) {
	defer rows.Close()
	out := make([]domain.Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, member)
	}
	return out, rows.Err()
}

// scanTask handles scan task.
func scanTask(s scanner) (domain.Task, error) {
	var (
		t           domain.Task
		priority    string
		deadlineRaw sql.NullString
		status      string
		createdRaw  string
		updatedRaw  string
	)
	if err := s.Scan(
		&t.ID,
		&t.TeamID,
		&t.Title,
		&t.Description,
		&t.AssigneeID,
		&t.AssigneeName,
		&t.AssigneeAvatar,
		&priority,
		&deadlineRaw,
		&status,
		&t.Position,
		&t.CreatedBy,
		&t.UpdatedBy,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	t.Priority = domain.Priority(priority)
	t.Status = domain.Status(status)
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	if deadlineRaw.Valid {
		deadline, err := domain.ParseDeadline(deadlineRaw.String)
		if err != nil {
			return domain.Task{}, fmt.Errorf("decode tasks.deadline: %w", err)
		}
		t.Deadline = deadline
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	return t, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// nullableDeadline stores a deadline as its calendar date.
func nullableDeadline(deadline *time.Time) any {
	if deadline == nil {
		return nil
	}
	return domain.FormatDeadline(deadline)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// isDuplicateColumnErr reports whether the expected condition is satisfied.
func isDuplicateColumnErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
