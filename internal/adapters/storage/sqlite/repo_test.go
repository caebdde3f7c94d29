package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/hylla/hackboard/internal/app"
	"github.com/hylla/hackboard/internal/domain"
)

func openTestRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "hackboard.db")
	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo, dbPath
}

func newTestService(repo app.Repository) *app.Service {
	idCounter := 0
	return app.NewService(repo, func() string {
		idCounter++
		return fmt.Sprintf("id-%d", idCounter)
	}, func() time.Time {
		return time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	}, app.ServiceConfig{DefaultActor: "tester"})
}

func TestRepository_TeamMemberColumnTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, _ := openTestRepo(t)

	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	team, err := domain.NewTeam("team-1", "AI Innovation Squad", "desc", now)
	if err != nil {
		t.Fatalf("NewTeam() error = %v", err)
	}
	team.Hackathon = "TechCrunch Disrupt 2025"
	if err := repo.CreateTeam(ctx, team); err != nil {
		t.Fatalf("CreateTeam() error = %v", err)
	}
	loadedTeam, err := repo.GetTeam(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetTeam() error = %v", err)
	}
	if loadedTeam.Slug != "ai-innovation-squad" || loadedTeam.Hackathon != "TechCrunch Disrupt 2025" {
		t.Fatalf("unexpected team %#v", loadedTeam)
	}

	member, err := domain.NewMember("1", "Alex Chen", "Full Stack Developer", "a.png", now)
	if err != nil {
		t.Fatalf("NewMember() error = %v", err)
	}
	if err := repo.CreateMember(ctx, member); err != nil {
		t.Fatalf("CreateMember() error = %v", err)
	}
	if err := repo.AddTeamMember(ctx, team.ID, member.ID, now); err != nil {
		t.Fatalf("AddTeamMember() error = %v", err)
	}
	if err := repo.AddTeamMember(ctx, team.ID, member.ID, now.Add(time.Hour)); err != nil {
		t.Fatalf("AddTeamMember() repeat error = %v", err)
	}
	roster, err := repo.ListTeamMembers(ctx, team.ID)
	if err != nil {
		t.Fatalf("ListTeamMembers() error = %v", err)
	}
	if len(roster) != 1 || roster[0].Name != "Alex Chen" {
		t.Fatalf("unexpected roster %#v", roster)
	}

	column, err := domain.NewColumn(team.ID, domain.StatusTodo, "To Do", "border-gray-300", now)
	if err != nil {
		t.Fatalf("NewColumn() error = %v", err)
	}
	if err := repo.CreateColumn(ctx, column); err != nil {
		t.Fatalf("CreateColumn() error = %v", err)
	}
	if err := column.Restyle("Backlog", "border-slate-300", now.Add(time.Minute)); err != nil {
		t.Fatalf("Restyle() error = %v", err)
	}
	if err := repo.UpdateColumn(ctx, column); err != nil {
		t.Fatalf("UpdateColumn() error = %v", err)
	}
	columns, err := repo.ListColumns(ctx, team.ID)
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	if len(columns) != 1 || columns[0].Title != "Backlog" || columns[0].ID != domain.StatusTodo {
		t.Fatalf("unexpected columns %#v", columns)
	}

	deadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	task, err := domain.NewTask(domain.TaskInput{
		ID:          "t1",
		TeamID:      team.ID,
		Title:       "Task title",
		Description: "Task details",
		Assignee:    member,
		Priority:    domain.PriorityHigh,
		Deadline:    &deadline,
		CreatedBy:   "1",
	}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	loaded, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if loaded.AssigneeName != "Alex Chen" || loaded.AssigneeAvatar != "a.png" || loaded.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected loaded task %#v", loaded)
	}
	if domain.FormatDeadline(loaded.Deadline) != "2026-03-01" || loaded.Status != domain.StatusTodo {
		t.Fatalf("unexpected deadline/status %#v", loaded)
	}

	if err := loaded.UpdateDetails("Renamed", "", member, domain.PriorityLow, nil, "1", now.Add(time.Hour)); err != nil {
		t.Fatalf("UpdateDetails() error = %v", err)
	}
	if err := repo.UpdateTask(ctx, loaded); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	updated, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() after update error = %v", err)
	}
	if updated.Title != "Renamed" || updated.Deadline != nil {
		t.Fatalf("unexpected updated task %#v", updated)
	}

	events, err := repo.ListTeamChangeEvents(ctx, team.ID, 10)
	if err != nil {
		t.Fatalf("ListTeamChangeEvents() error = %v", err)
	}
	if len(events) != 2 || events[0].Operation != domain.ChangeOperationUpdate || events[1].Operation != domain.ChangeOperationCreate {
		t.Fatalf("unexpected events %#v", events)
	}
	if events[0].Metadata["changed_fields"] != "title,description,priority,deadline" {
		t.Fatalf("unexpected changed fields %q", events[0].Metadata["changed_fields"])
	}
}

func TestRepository_NotFoundErrors(t *testing.T) {
	ctx := context.Background()
	repo, _ := openTestRepo(t)

	if _, err := repo.GetTeam(ctx, "missing"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for team, got %v", err)
	}
	if _, err := repo.GetMember(ctx, "missing"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for member, got %v", err)
	}
	if _, err := repo.GetTask(ctx, "missing"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for task, got %v", err)
	}
	if err := repo.UpdateTeam(ctx, domain.Team{ID: "missing", Name: "x"}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for team update, got %v", err)
	}
	if err := repo.UpdateTask(ctx, domain.Task{ID: "missing"}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for task update, got %v", err)
	}
	if err := repo.RemoveTeamMember(ctx, "team", "member"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for roster removal, got %v", err)
	}
}

func TestRepository_MoveSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	repo, dbPath := openTestRepo(t)
	svc := newTestService(repo)

	team, err := svc.SeedDemo(ctx)
	if err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}
	board, err := svc.GetBoard(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	todo, _ := board.Column(domain.StatusTodo)
	first := todo.TaskIDs[0]

	moved, err := svc.MoveTask(ctx, app.MoveTaskInput{
		TaskID: first,
		From:   domain.Location{Column: domain.StatusTodo, Index: 0},
		To:     domain.Location{Column: domain.StatusDone, Index: 1},
		Actor:  "2",
	})
	if err != nil {
		t.Fatalf("MoveTask() error = %v", err)
	}
	if moved.Status != domain.StatusDone {
		t.Fatalf("unexpected moved status %q", moved.Status)
	}
	before, err := svc.GetBoard(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() reopen error = %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	after, err := newTestService(reopened).GetBoard(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetBoard() after reopen error = %v", err)
	}
	for _, status := range domain.Statuses() {
		b, _ := before.Column(status)
		a, _ := after.Column(status)
		if !slices.Equal(a.TaskIDs, b.TaskIDs) {
			t.Fatalf("column %q = %v, want %v", status, a.TaskIDs, b.TaskIDs)
		}
	}
	if err := after.Validate(); err != nil {
		t.Fatalf("Validate() after reopen error = %v", err)
	}

	stored, err := reopened.ListTasks(ctx, team.ID)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	for _, task := range stored {
		column, _ := after.Column(task.Status)
		if column.TaskIDs[task.Position] != task.ID {
			t.Fatalf("stored position for %q does not match column order", task.ID)
		}
	}

	events, err := reopened.ListTeamChangeEvents(ctx, team.ID, 1)
	if err != nil {
		t.Fatalf("ListTeamChangeEvents() error = %v", err)
	}
	if len(events) != 1 || events[0].Operation != domain.ChangeOperationMove || events[0].ActorID != "2" {
		t.Fatalf("unexpected latest event %#v", events)
	}
	if events[0].Metadata["from_status"] != "todo" || events[0].Metadata["to_status"] != "done" {
		t.Fatalf("unexpected move metadata %#v", events[0].Metadata)
	}
}

func TestRepository_RosterRenameDoesNotRewriteTasks(t *testing.T) {
	ctx := context.Background()
	repo, _ := openTestRepo(t)
	svc := newTestService(repo)

	team, err := svc.SeedDemo(ctx)
	if err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}
	if _, err := svc.UpdateMember(ctx, app.UpdateMemberInput{MemberID: "3", Name: "Michael Johnson", Role: "Data Scientist"}); err != nil {
		t.Fatalf("UpdateMember() error = %v", err)
	}

	stored, err := repo.ListTasks(ctx, team.ID)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	board, err := svc.GetBoard(ctx, team.ID)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	for _, task := range stored {
		if task.AssigneeID != "3" {
			continue
		}
		if task.AssigneeName != "Mike Johnson" {
			t.Fatalf("expected stored copy to stay, got %q", task.AssigneeName)
		}
		joined, _ := board.Task(task.ID)
		if joined.AssigneeName != "Michael Johnson" {
			t.Fatalf("expected joined roster name, got %q", joined.AssigneeName)
		}
	}
}

func TestRepository_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	source, _ := openTestRepo(t)
	svc := newTestService(source)
	if _, err := svc.SeedDemo(ctx); err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}
	snap, err := svc.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}

	target, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = target.Close()
	})
	targetSvc := newTestService(target)
	if err := targetSvc.ImportSnapshot(ctx, snap); err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}
	again, err := targetSvc.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot() after import error = %v", err)
	}
	if len(again.Tasks) != len(snap.Tasks) || len(again.Members) != len(snap.Members) || len(again.Columns) != len(snap.Columns) {
		t.Fatalf("unexpected sizes after import t=%d m=%d c=%d", len(again.Tasks), len(again.Members), len(again.Columns))
	}
	for i := range snap.Tasks {
		if again.Tasks[i].ID != snap.Tasks[i].ID || again.Tasks[i].Position != snap.Tasks[i].Position || again.Tasks[i].Status != snap.Tasks[i].Status {
			t.Fatalf("task %d mismatch: %#v vs %#v", i, again.Tasks[i], snap.Tasks[i])
		}
	}
}
