package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hylla/hackboard/internal/adapters/storage/sqlite"
	"github.com/hylla/hackboard/internal/app"
)

func newSeededAdapter(t *testing.T) (*AppServiceAdapter, string) {
	t.Helper()
	repo, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	idCounter := 0
	svc := app.NewService(repo, func() string {
		idCounter++
		return fmt.Sprintf("id-%d", idCounter)
	}, func() time.Time {
		return time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	}, app.ServiceConfig{DefaultActor: "tester"})
	team, err := svc.SeedDemo(context.Background())
	if err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}
	return NewAppServiceAdapter(svc), team.ID
}

func taskByTitle(t *testing.T, board BoardView, title string) TaskView {
	t.Helper()
	for _, column := range board.Columns {
		for _, task := range column.Tasks {
			if task.Title == title {
				return task
			}
		}
	}
	t.Fatalf("task %q not on board", title)
	return TaskView{}
}

func columnTitles(board BoardView, columnID string) []string {
	for _, column := range board.Columns {
		if column.ID != columnID {
			continue
		}
		out := make([]string, 0, len(column.Tasks))
		for _, task := range column.Tasks {
			out = append(out, task.Title)
		}
		return out
	}
	return nil
}

func TestAdapterGetBoardMapsColumnsAndStats(t *testing.T) {
	adapter, teamID := newSeededAdapter(t)

	board, err := adapter.GetBoard(context.Background(), teamID)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if len(board.Columns) != 3 || board.Columns[0].ID != "todo" || board.Columns[1].Color != "border-blue-300" {
		t.Fatalf("unexpected columns %#v", board.Columns)
	}
	if board.Stats.Total != 4 || board.Stats.Done != 1 || board.Stats.Overdue != 3 {
		t.Fatalf("unexpected stats %#v", board.Stats)
	}
	task := taskByTitle(t, board, "Set up backend API")
	if task.AssigneeName != "Alex Chen" || task.Deadline != "2025-03-18" || !task.Overdue {
		t.Fatalf("unexpected task view %#v", task)
	}
	done := taskByTitle(t, board, "User research interviews")
	if done.Overdue {
		t.Fatal("done task must never be overdue")
	}
}

func TestAdapterMoveTaskWithExplicitSource(t *testing.T) {
	adapter, teamID := newSeededAdapter(t)
	board, _ := adapter.GetBoard(context.Background(), teamID)
	task := taskByTitle(t, board, "Train ML model")
	from := task.Position

	moved, err := adapter.MoveTask(context.Background(), MoveTaskRequest{
		TaskID:     task.ID,
		FromColumn: "todo",
		FromIndex:  &from,
		ToColumn:   "in-progress",
		ToIndex:    0,
	})
	if err != nil {
		t.Fatalf("MoveTask() error = %v", err)
	}
	if moved.Status != "inprogress" || moved.Position != 0 || moved.UpdatedBy != "tester" {
		t.Fatalf("unexpected moved task %#v", moved)
	}
	board, _ = adapter.GetBoard(context.Background(), teamID)
	got := columnTitles(board, "inprogress")
	if len(got) != 2 || got[0] != "Train ML model" || got[1] != "Design landing page mockups" {
		t.Fatalf("unexpected in progress column %v", got)
	}
}

func TestAdapterMoveTaskFromCurrentLocation(t *testing.T) {
	adapter, teamID := newSeededAdapter(t)
	board, _ := adapter.GetBoard(context.Background(), teamID)
	task := taskByTitle(t, board, "Set up backend API")

	if _, err := adapter.MoveTask(context.Background(), MoveTaskRequest{
		TaskID:   task.ID,
		ToColumn: "done",
		ToIndex:  99,
		Actor:    "2",
	}); err != nil {
		t.Fatalf("MoveTask() error = %v", err)
	}
	board, _ = adapter.GetBoard(context.Background(), teamID)
	got := columnTitles(board, "done")
	if len(got) != 2 || got[1] != "Set up backend API" {
		t.Fatalf("expected task appended to done, got %v", got)
	}
}

func TestAdapterErrorMapping(t *testing.T) {
	adapter, teamID := newSeededAdapter(t)
	ctx := context.Background()
	board, _ := adapter.GetBoard(ctx, teamID)
	task := taskByTitle(t, board, "Train ML model")
	wrongIndex := task.Position + 1

	cases := []struct {
		name string
		call func() error
		want error
	}{
		{name: "missing team", want: ErrNotFound, call: func() error {
			_, err := adapter.GetBoard(ctx, "nope")
			return err
		}},
		{name: "unknown assignee", want: ErrInvalidRequest, call: func() error {
			_, err := adapter.CreateTask(ctx, CreateTaskRequest{TeamID: teamID, Title: "Demo", AssigneeID: "99"})
			return err
		}},
		{name: "bad deadline", want: ErrInvalidRequest, call: func() error {
			_, err := adapter.CreateTask(ctx, CreateTaskRequest{TeamID: teamID, Title: "Demo", AssigneeID: "1", Deadline: "next week"})
			return err
		}},
		{name: "unknown column", want: ErrPreconditionFailed, call: func() error {
			_, err := adapter.MoveTask(ctx, MoveTaskRequest{TaskID: task.ID, ToColumn: "review"})
			return err
		}},
		{name: "stale source", want: ErrPreconditionFailed, call: func() error {
			_, err := adapter.MoveTask(ctx, MoveTaskRequest{TaskID: task.ID, FromColumn: "todo", FromIndex: &wrongIndex, ToColumn: "done"})
			return err
		}},
		{name: "unknown task", want: ErrPreconditionFailed, call: func() error {
			_, err := adapter.MoveTask(ctx, MoveTaskRequest{TaskID: "ghost", ToColumn: "done"})
			return err
		}},
		{name: "missing from index", want: ErrInvalidRequest, call: func() error {
			_, err := adapter.MoveTask(ctx, MoveTaskRequest{TaskID: task.ID, FromColumn: "todo", ToColumn: "done"})
			return err
		}},
		{name: "missing member id", want: ErrInvalidRequest, call: func() error {
			_, err := adapter.AddTeamMember(ctx, teamID, AddTeamMemberRequest{})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestAdapterUpdateTaskClearsDeadline(t *testing.T) {
	adapter, teamID := newSeededAdapter(t)
	board, _ := adapter.GetBoard(context.Background(), teamID)
	task := taskByTitle(t, board, "Train ML model")

	empty := ""
	priority := "LOW"
	updated, err := adapter.UpdateTask(context.Background(), UpdateTaskRequest{
		TaskID:   task.ID,
		Deadline: &empty,
		Priority: &priority,
	})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Deadline != "" || updated.Priority != "low" || updated.Overdue {
		t.Fatalf("unexpected updated task %#v", updated)
	}
	if updated.Title != task.Title || updated.AssigneeID != task.AssigneeID {
		t.Fatalf("expected untouched fields kept, got %#v", updated)
	}
}

func TestAdapterTeamAndRosterFlow(t *testing.T) {
	adapter, _ := newSeededAdapter(t)
	ctx := context.Background()

	member, err := adapter.CreateMember(ctx, CreateMemberRequest{ID: "4", Name: "Dana Park", Role: "Designer"})
	if err != nil {
		t.Fatalf("CreateMember() error = %v", err)
	}
	team, err := adapter.CreateTeam(ctx, CreateTeamRequest{Name: "Data Wizards", LeaderID: member.ID, State: "Recruiting"})
	if err != nil {
		t.Fatalf("CreateTeam() error = %v", err)
	}
	if team.Slug != "data-wizards" || team.State != "recruiting" || team.LeaderID != "4" {
		t.Fatalf("unexpected team %#v", team)
	}
	roster, err := adapter.AddTeamMember(ctx, team.ID, AddTeamMemberRequest{MemberID: "1"})
	if err != nil {
		t.Fatalf("AddTeamMember() error = %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("expected leader plus new member, got %#v", roster)
	}
	teams, err := adapter.ListTeams(ctx)
	if err != nil || len(teams) != 2 {
		t.Fatalf("ListTeams() = %#v, %v", teams, err)
	}
	if _, err := adapter.CreateMember(ctx, CreateMemberRequest{ID: "4", Name: "Dup"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected duplicate member rejected, got %v", err)
	}
}
