package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/hylla/hackboard/internal/domain"
)

type fakeRepo struct {
	teams     map[string]domain.Team
	members   map[string]domain.Member
	rosters   map[string]map[string]time.Time
	columns   map[string]domain.Column
	tasks     map[string]domain.Task
	events    []domain.ChangeEvent
	moveCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		teams:   map[string]domain.Team{},
		members: map[string]domain.Member{},
		rosters: map[string]map[string]time.Time{},
		columns: map[string]domain.Column{},
		tasks:   map[string]domain.Task{},
	}
}

func columnKey(teamID string, status domain.Status) string {
	return teamID + "/" + string(status)
}

func (f *fakeRepo) CreateTeam(_ context.Context, team domain.Team) error {
	f.teams[team.ID] = team
	return nil
}

func (f *fakeRepo) UpdateTeam(_ context.Context, team domain.Team) error {
	if _, ok := f.teams[team.ID]; !ok {
		return ErrNotFound
	}
	f.teams[team.ID] = team
	return nil
}

func (f *fakeRepo) GetTeam(_ context.Context, id string) (domain.Team, error) {
	team, ok := f.teams[id]
	if !ok {
		return domain.Team{}, ErrNotFound
	}
	return team, nil
}

func (f *fakeRepo) ListTeams(_ context.Context) ([]domain.Team, error) {
	out := make([]domain.Team, 0, len(f.teams))
	for _, team := range f.teams {
		out = append(out, team)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) CreateMember(_ context.Context, member domain.Member) error {
	f.members[member.ID] = member
	return nil
}

func (f *fakeRepo) UpdateMember(_ context.Context, member domain.Member) error {
	if _, ok := f.members[member.ID]; !ok {
		return ErrNotFound
	}
	f.members[member.ID] = member
	return nil
}

func (f *fakeRepo) GetMember(_ context.Context, id string) (domain.Member, error) {
	member, ok := f.members[id]
	if !ok {
		return domain.Member{}, ErrNotFound
	}
	return member, nil
}

func (f *fakeRepo) ListMembers(_ context.Context) ([]domain.Member, error) {
	out := make([]domain.Member, 0, len(f.members))
	for _, member := range f.members {
		out = append(out, member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) AddTeamMember(_ context.Context, teamID, memberID string, joinedAt time.Time) error {
	if f.rosters[teamID] == nil {
		f.rosters[teamID] = map[string]time.Time{}
	}
	if _, ok := f.rosters[teamID][memberID]; !ok {
		f.rosters[teamID][memberID] = joinedAt
	}
	return nil
}

func (f *fakeRepo) RemoveTeamMember(_ context.Context, teamID, memberID string) error {
	if _, ok := f.rosters[teamID][memberID]; !ok {
		return ErrNotFound
	}
	delete(f.rosters[teamID], memberID)
	return nil
}

func (f *fakeRepo) ListTeamMembers(_ context.Context, teamID string) ([]domain.Member, error) {
	out := make([]domain.Member, 0, len(f.rosters[teamID]))
	for memberID := range f.rosters[teamID] {
		out = append(out, f.members[memberID])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) CreateColumn(_ context.Context, column domain.Column) error {
	f.columns[columnKey(column.TeamID, column.ID)] = column
	return nil
}

func (f *fakeRepo) UpdateColumn(_ context.Context, column domain.Column) error {
	key := columnKey(column.TeamID, column.ID)
	if _, ok := f.columns[key]; !ok {
		return ErrNotFound
	}
	f.columns[key] = column
	return nil
}

func (f *fakeRepo) ListColumns(_ context.Context, teamID string) ([]domain.Column, error) {
	out := make([]domain.Column, 0, 3)
	for _, column := range f.columns {
		if column.TeamID == teamID {
			out = append(out, column)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Index() < out[j].ID.Index() })
	return out, nil
}

func (f *fakeRepo) CreateTask(_ context.Context, task domain.Task) error {
	f.tasks[task.ID] = task
	f.record(task, domain.ChangeOperationCreate)
	return nil
}

func (f *fakeRepo) UpdateTask(_ context.Context, task domain.Task) error {
	if _, ok := f.tasks[task.ID]; !ok {
		return ErrNotFound
	}
	f.tasks[task.ID] = task
	f.record(task, domain.ChangeOperationUpdate)
	return nil
}

func (f *fakeRepo) MoveTask(_ context.Context, moved domain.Task, reindexed []domain.Task) error {
	f.moveCalls++
	f.tasks[moved.ID] = moved
	for _, task := range reindexed {
		f.tasks[task.ID] = task
	}
	f.record(moved, domain.ChangeOperationMove)
	return nil
}

func (f *fakeRepo) GetTask(_ context.Context, id string) (domain.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	return task, nil
}

func (f *fakeRepo) ListTasks(_ context.Context, teamID string) ([]domain.Task, error) {
	out := make([]domain.Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		if task.TeamID == teamID {
			out = append(out, task)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListTeamChangeEvents(_ context.Context, teamID string, limit int) ([]domain.ChangeEvent, error) {
	out := make([]domain.ChangeEvent, 0)
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		if f.events[i].TeamID == teamID {
			out = append(out, f.events[i])
		}
	}
	return out, nil
}

func (f *fakeRepo) record(task domain.Task, op domain.ChangeOperation) {
	f.events = append(f.events, domain.ChangeEvent{
		ID:         int64(len(f.events) + 1),
		TeamID:     task.TeamID,
		TaskID:     task.ID,
		Operation:  op,
		ActorID:    task.UpdatedBy,
		OccurredAt: task.UpdatedAt,
	})
}

func newTestService(repo *fakeRepo) *Service {
	idCounter := 0
	return NewService(repo, func() string {
		idCounter++
		return fmt.Sprintf("id-%d", idCounter)
	}, func() time.Time {
		return time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	}, ServiceConfig{DefaultActor: "local"})
}

func seededService(t *testing.T) (*Service, *fakeRepo, domain.Team) {
	t.Helper()
	repo := newFakeRepo()
	svc := newTestService(repo)
	team, err := svc.SeedDemo(context.Background())
	if err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}
	return svc, repo, team
}

func boardIDs(t *testing.T, board *domain.Board, status domain.Status) []string {
	t.Helper()
	column, err := board.Column(status)
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	return column.TaskIDs
}

func titleIDs(t *testing.T, board *domain.Board, status domain.Status) []string {
	t.Helper()
	var out []string
	for _, task := range board.ColumnTasks(status) {
		out = append(out, task.Title)
	}
	return out
}

func TestEnsureDefaultTeam(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	team, err := svc.EnsureDefaultTeam(context.Background())
	if err != nil {
		t.Fatalf("EnsureDefaultTeam() error = %v", err)
	}
	if team.Name != "My Team" {
		t.Fatalf("unexpected team name %q", team.Name)
	}
	columns, err := repo.ListColumns(context.Background(), team.ID)
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	if len(columns) != 3 || columns[0].Title != "To Do" || columns[2].Color != "border-green-300" {
		t.Fatalf("unexpected default columns %#v", columns)
	}

	again, err := svc.EnsureDefaultTeam(context.Background())
	if err != nil {
		t.Fatalf("EnsureDefaultTeam() second call error = %v", err)
	}
	if again.ID != team.ID || len(repo.teams) != 1 {
		t.Fatalf("expected existing team reused, got %q (%d teams)", again.ID, len(repo.teams))
	}
}

func TestCreateTeamUsesConfiguredColumnsAndLeader(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, func() string { return "team-1" }, nil, ServiceConfig{
		Columns: []domain.ColumnTemplate{
			{Status: "in-progress", Title: "Doing"},
			{Status: "review", Title: "Review"},
		},
	})
	repo.members["1"] = domain.Member{ID: "1", Name: "Alex Chen"}

	team, err := svc.CreateTeam(context.Background(), CreateTeamInput{Name: "Squad", LeaderID: "1", State: domain.TeamStateActive})
	if err != nil {
		t.Fatalf("CreateTeam() error = %v", err)
	}
	if team.LeaderID != "1" || team.State != domain.TeamStateActive {
		t.Fatalf("unexpected team %#v", team)
	}
	columns, _ := repo.ListColumns(context.Background(), team.ID)
	if len(columns) != 3 || columns[1].Title != "Doing" || columns[1].Color != "border-blue-300" {
		t.Fatalf("unexpected columns %#v", columns)
	}
	roster, _ := svc.ListTeamMembers(context.Background(), team.ID)
	if len(roster) != 1 || roster[0].ID != "1" {
		t.Fatalf("expected leader on roster, got %#v", roster)
	}

	if _, err := svc.CreateTeam(context.Background(), CreateTeamInput{Name: "Other", LeaderID: "42"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown leader, got %v", err)
	}
}

func TestCreateMemberRejectsDuplicateID(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	if _, err := svc.CreateMember(context.Background(), CreateMemberInput{ID: "1", Name: "Alex"}); err != nil {
		t.Fatalf("CreateMember() error = %v", err)
	}
	_, err := svc.CreateMember(context.Background(), CreateMemberInput{ID: "1", Name: "Alex again"})
	if !errors.Is(err, ErrAlreadyExists) || !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	generated, err := svc.CreateMember(context.Background(), CreateMemberInput{Name: "Sam"})
	if err != nil {
		t.Fatalf("CreateMember(generated) error = %v", err)
	}
	if generated.ID != "id-1" {
		t.Fatalf("expected generated id, got %q", generated.ID)
	}
}

func TestSeedDemoLayout(t *testing.T) {
	svc, _, team := seededService(t)
	if team.Name != DemoTeamName || team.LeaderID != "1" {
		t.Fatalf("unexpected demo team %#v", team)
	}
	board, err := svc.GetBoard(context.Background(), team.ID)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if got := titleIDs(t, board, domain.StatusTodo); !slices.Equal(got, []string{"Set up backend API", "Train ML model"}) {
		t.Fatalf("unexpected todo column %v", got)
	}
	if got := titleIDs(t, board, domain.StatusInProgress); !slices.Equal(got, []string{"Design landing page mockups"}) {
		t.Fatalf("unexpected inprogress column %v", got)
	}
	if got := titleIDs(t, board, domain.StatusDone); !slices.Equal(got, []string{"User research interviews"}) {
		t.Fatalf("unexpected done column %v", got)
	}
	if err := board.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	again, err := svc.SeedDemo(context.Background())
	if err != nil {
		t.Fatalf("SeedDemo() second call error = %v", err)
	}
	if again.ID != team.ID {
		t.Fatalf("expected idempotent seed, got %q", again.ID)
	}
}

func TestCreateTaskAppendsToTodo(t *testing.T) {
	svc, repo, team := seededService(t)
	task, err := svc.CreateTask(context.Background(), CreateTaskInput{TeamID: team.ID, Title: "Write tests", AssigneeID: "2"})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.Status != domain.StatusTodo || task.Position != 2 || task.AssigneeName != "Sarah Kim" {
		t.Fatalf("unexpected task %#v", task)
	}
	if task.CreatedBy != "local" {
		t.Fatalf("expected default actor, got %q", task.CreatedBy)
	}
	if _, ok := repo.tasks[task.ID]; !ok {
		t.Fatal("expected task persisted")
	}
	board, _ := svc.GetBoard(context.Background(), team.ID)
	todo := boardIDs(t, board, domain.StatusTodo)
	if len(todo) != 3 || todo[2] != task.ID {
		t.Fatalf("expected task at todo tail, got %v", todo)
	}
}

func TestCreateTaskValidationCreatesNothing(t *testing.T) {
	svc, repo, team := seededService(t)
	before := len(repo.tasks)
	cases := []struct {
		name string
		in   CreateTaskInput
		want error
	}{
		{name: "blank title", in: CreateTaskInput{TeamID: team.ID, Title: "  ", AssigneeID: "1"}, want: domain.ErrInvalidTitle},
		{name: "assignee off roster", in: CreateTaskInput{TeamID: team.ID, Title: "x", AssigneeID: "9"}, want: domain.ErrUnknownAssignee},
		{name: "unknown team", in: CreateTaskInput{TeamID: "missing", Title: "x", AssigneeID: "1"}, want: ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateTask(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if len(repo.tasks) != before {
				t.Fatalf("expected no task persisted, got %d", len(repo.tasks))
			}
		})
	}
}

func TestMoveTaskPersistsMovedAndSiblings(t *testing.T) {
	svc, repo, team := seededService(t)
	board, _ := svc.GetBoard(context.Background(), team.ID)
	first := boardIDs(t, board, domain.StatusTodo)[0]
	second := boardIDs(t, board, domain.StatusTodo)[1]
	moveCalls := repo.moveCalls

	moved, err := svc.MoveTask(context.Background(), MoveTaskInput{
		TaskID: first,
		From:   domain.Location{Column: domain.StatusTodo, Index: 0},
		To:     domain.Location{Column: domain.StatusDone, Index: 1},
		Actor:  "2",
	})
	if err != nil {
		t.Fatalf("MoveTask() error = %v", err)
	}
	if moved.Status != domain.StatusDone || moved.Position != 1 || moved.UpdatedBy != "2" {
		t.Fatalf("unexpected moved task %#v", moved)
	}
	if repo.moveCalls != moveCalls+1 {
		t.Fatalf("expected one repository move, got %d", repo.moveCalls-moveCalls)
	}
	if repo.tasks[second].Position != 0 {
		t.Fatalf("expected sibling re-indexed, got %d", repo.tasks[second].Position)
	}

	reloaded, err := svc.GetBoard(context.Background(), team.ID)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	if got := boardIDs(t, reloaded, domain.StatusTodo); !slices.Equal(got, []string{second}) {
		t.Fatalf("unexpected todo after reload %v", got)
	}
	if got := boardIDs(t, reloaded, domain.StatusDone); len(got) != 2 || got[1] != first {
		t.Fatalf("unexpected done after reload %v", got)
	}
	if err := reloaded.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestMoveTaskNoopSkipsPersistence(t *testing.T) {
	svc, repo, team := seededService(t)
	board, _ := svc.GetBoard(context.Background(), team.ID)
	id := boardIDs(t, board, domain.StatusTodo)[1]
	moveCalls := repo.moveCalls
	events := len(repo.events)

	loc := domain.Location{Column: domain.StatusTodo, Index: 1}
	if _, err := svc.MoveTask(context.Background(), MoveTaskInput{TaskID: id, From: loc, To: loc}); err != nil {
		t.Fatalf("MoveTask() error = %v", err)
	}
	if repo.moveCalls != moveCalls || len(repo.events) != events {
		t.Fatal("expected no-op move to skip persistence")
	}
}

func TestMoveTaskPreconditionErrors(t *testing.T) {
	svc, _, team := seededService(t)
	board, _ := svc.GetBoard(context.Background(), team.ID)
	id := boardIDs(t, board, domain.StatusTodo)[0]

	cases := []struct {
		name string
		in   MoveTaskInput
		want error
	}{
		{name: "unknown column", in: MoveTaskInput{TaskID: id, From: domain.Location{Column: "review"}, To: domain.Location{Column: domain.StatusDone}}, want: domain.ErrUnknownColumn},
		{name: "unknown task", in: MoveTaskInput{TaskID: "nope", From: domain.Location{Column: domain.StatusTodo}, To: domain.Location{Column: domain.StatusDone}}, want: domain.ErrUnknownTask},
		{name: "stale source", in: MoveTaskInput{TaskID: id, From: domain.Location{Column: domain.StatusTodo, Index: 1}, To: domain.Location{Column: domain.StatusDone}}, want: domain.ErrTaskNotAtSource},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.MoveTask(context.Background(), tc.in)
			if !errors.Is(err, tc.want) || !errors.Is(err, domain.ErrPrecondition) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestMoveTaskTo(t *testing.T) {
	svc, _, team := seededService(t)
	board, _ := svc.GetBoard(context.Background(), team.ID)
	id := boardIDs(t, board, domain.StatusDone)[0]

	moved, err := svc.MoveTaskTo(context.Background(), id, domain.Location{Column: domain.StatusTodo, Index: 0}, "")
	if err != nil {
		t.Fatalf("MoveTaskTo() error = %v", err)
	}
	if moved.Status != domain.StatusTodo || moved.Position != 0 {
		t.Fatalf("expected done -> todo transition, got %#v", moved)
	}
}

func TestUpdateTaskKeepsStatusAndResolvesAssignee(t *testing.T) {
	svc, _, team := seededService(t)
	board, _ := svc.GetBoard(context.Background(), team.ID)
	id := boardIDs(t, board, domain.StatusInProgress)[0]

	title := "Design landing page v2"
	assignee := "3"
	updated, err := svc.UpdateTask(context.Background(), UpdateTaskInput{TaskID: id, Title: &title, AssigneeID: &assignee, ClearDeadline: true, Actor: "1"})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Title != title || updated.AssigneeName != "Mike Johnson" || updated.Deadline != nil {
		t.Fatalf("unexpected update %#v", updated)
	}
	if updated.Status != domain.StatusInProgress || updated.Position != 0 {
		t.Fatalf("expected status and position unchanged, got %q/%d", updated.Status, updated.Position)
	}

	stranger := "77"
	if _, err := svc.UpdateTask(context.Background(), UpdateTaskInput{TaskID: id, AssigneeID: &stranger}); !errors.Is(err, domain.ErrUnknownAssignee) {
		t.Fatalf("expected ErrUnknownAssignee, got %v", err)
	}
}

func TestRosterRenameShowsOnBoardWithoutTaskWrites(t *testing.T) {
	svc, repo, team := seededService(t)
	events := len(repo.events)

	if _, err := svc.UpdateMember(context.Background(), UpdateMemberInput{MemberID: "2", Name: "Sarah Kim-Lee", Role: "Design Lead"}); err != nil {
		t.Fatalf("UpdateMember() error = %v", err)
	}
	if len(repo.events) != events {
		t.Fatal("expected roster rename not to rewrite tasks")
	}
	board, _ := svc.GetBoard(context.Background(), team.ID)
	for _, task := range board.Tasks() {
		if task.AssigneeID == "2" && task.AssigneeName != "Sarah Kim-Lee" {
			t.Fatalf("expected joined assignee name, got %q", task.AssigneeName)
		}
	}
	for _, task := range repo.tasks {
		if task.AssigneeID == "2" && task.AssigneeName != "Sarah Kim" {
			t.Fatalf("expected stored copy untouched, got %q", task.AssigneeName)
		}
	}
}

func TestBoardStatsAndActivity(t *testing.T) {
	svc, _, team := seededService(t)
	stats, err := svc.BoardStats(context.Background(), team.ID)
	if err != nil {
		t.Fatalf("BoardStats() error = %v", err)
	}
	// Seed deadlines are in March 2025, before the fixed service clock.
	want := domain.Stats{Total: 4, Todo: 2, InProgress: 1, Done: 1, Overdue: 3}
	if stats != want {
		t.Fatalf("BoardStats() = %#v, want %#v", stats, want)
	}

	events, err := svc.ListTeamActivity(context.Background(), team.ID, 3)
	if err != nil {
		t.Fatalf("ListTeamActivity() error = %v", err)
	}
	if len(events) != 3 || events[0].Operation != domain.ChangeOperationMove {
		t.Fatalf("unexpected activity %#v", events)
	}
	if _, err := svc.ListTeamActivity(context.Background(), "missing", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveTeamMemberKeepsStoredAssignee(t *testing.T) {
	svc, _, team := seededService(t)
	if err := svc.RemoveTeamMember(context.Background(), team.ID, "3"); err != nil {
		t.Fatalf("RemoveTeamMember() error = %v", err)
	}
	board, err := svc.GetBoard(context.Background(), team.ID)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	for _, task := range board.Tasks() {
		if task.AssigneeID == "3" && !strings.Contains(task.AssigneeName, "Mike") {
			t.Fatalf("expected stored assignee fallback, got %q", task.AssigneeName)
		}
	}
	if _, err := svc.CreateTask(context.Background(), CreateTaskInput{TeamID: team.ID, Title: "x", AssigneeID: "3"}); !errors.Is(err, domain.ErrUnknownAssignee) {
		t.Fatalf("expected removed member to be unassignable, got %v", err)
	}
}

func TestRestyleColumn(t *testing.T) {
	svc, _, team := seededService(t)
	column, err := svc.RestyleColumn(context.Background(), team.ID, domain.StatusDone, "Shipped", "border-emerald-300")
	if err != nil {
		t.Fatalf("RestyleColumn() error = %v", err)
	}
	if column.Title != "Shipped" {
		t.Fatalf("unexpected column %#v", column)
	}
	board, _ := svc.GetBoard(context.Background(), team.ID)
	done, _ := board.Column(domain.StatusDone)
	if done.Title != "Shipped" || done.Color != "border-emerald-300" {
		t.Fatalf("expected restyled column on board, got %#v", done)
	}
	if _, err := svc.RestyleColumn(context.Background(), team.ID, "review", "x", ""); !errors.Is(err, domain.ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}
