package app

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/hylla/hackboard/internal/domain"
)

func TestExportSnapshotIncludesExpectedData(t *testing.T) {
	svc, _, team := seededService(t)

	snap, err := svc.ExportSnapshot(context.Background())
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if snap.Version != SnapshotVersion {
		t.Fatalf("unexpected version %q", snap.Version)
	}
	if len(snap.Teams) != 1 || snap.Teams[0].ID != team.ID || snap.Teams[0].Hackathon != "TechCrunch Disrupt 2025" {
		t.Fatalf("unexpected teams %#v", snap.Teams)
	}
	if len(snap.Members) != 3 || len(snap.Rosters) != 1 || !slices.Equal(snap.Rosters[0].MemberIDs, []string{"1", "2", "3"}) {
		t.Fatalf("unexpected members/rosters %#v %#v", snap.Members, snap.Rosters)
	}
	if len(snap.Columns) != 3 || snap.Columns[0].ID != domain.StatusTodo {
		t.Fatalf("unexpected columns %#v", snap.Columns)
	}
	if len(snap.Tasks) != 4 || snap.Tasks[0].Status != domain.StatusTodo || snap.Tasks[3].Status != domain.StatusDone {
		t.Fatalf("unexpected task order %#v", snap.Tasks)
	}
	if snap.Tasks[0].Deadline != "2025-03-18" {
		t.Fatalf("expected date-only deadline, got %q", snap.Tasks[0].Deadline)
	}
}

func TestSnapshotRoundTripIntoEmptyStore(t *testing.T) {
	svc, _, team := seededService(t)
	snap, err := svc.ExportSnapshot(context.Background())
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	target := NewService(newFakeRepo(), nil, nil, ServiceConfig{})
	if err := target.ImportSnapshot(context.Background(), decoded); err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}
	original, _ := svc.GetBoard(context.Background(), team.ID)
	imported, err := target.GetBoard(context.Background(), team.ID)
	if err != nil {
		t.Fatalf("GetBoard() error = %v", err)
	}
	for _, status := range domain.Statuses() {
		if got, want := boardIDs(t, imported, status), boardIDs(t, original, status); !slices.Equal(got, want) {
			t.Fatalf("column %q = %v, want %v", status, got, want)
		}
	}
	members, _ := target.ListTeamMembers(context.Background(), team.ID)
	if len(members) != 3 {
		t.Fatalf("expected roster imported, got %#v", members)
	}
}

func TestImportSnapshotUpdatesExistingRows(t *testing.T) {
	svc, repo, team := seededService(t)
	snap, err := svc.ExportSnapshot(context.Background())
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	snap.Teams[0].Name = "Renamed Squad"
	snap.Tasks[0].Title = "Renamed task"

	if err := svc.ImportSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}
	if repo.teams[team.ID].Name != "Renamed Squad" {
		t.Fatalf("expected team update, got %#v", repo.teams[team.ID])
	}
	if repo.tasks[snap.Tasks[0].ID].Title != "Renamed task" {
		t.Fatalf("expected task update, got %#v", repo.tasks[snap.Tasks[0].ID])
	}
	if len(repo.tasks) != 4 {
		t.Fatalf("expected no duplicate tasks, got %d", len(repo.tasks))
	}
}

func TestSnapshotValidateRejectsBadInput(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	base := func() Snapshot {
		return Snapshot{
			Version: SnapshotVersion,
			Teams:   []SnapshotTeam{{ID: "t1", Name: "Squad", CreatedAt: now, UpdatedAt: now}},
			Members: []SnapshotMember{{ID: "1", Name: "Alex"}},
			Rosters: []SnapshotTeamRoster{{TeamID: "t1", MemberIDs: []string{"1"}}},
			Columns: []SnapshotColumn{{ID: domain.StatusTodo, TeamID: "t1", Title: "To Do"}},
			Tasks: []SnapshotTask{
				{ID: "a", TeamID: "t1", Title: "A", AssigneeID: "1", Status: domain.StatusTodo, Position: 0},
			},
		}
	}
	if err := func() error { s := base(); return s.Validate() }(); err != nil {
		t.Fatalf("Validate(base) error = %v", err)
	}

	cases := []struct {
		name string
		edit func(*Snapshot)
	}{
		{name: "version", edit: func(s *Snapshot) { s.Version = "hackboard.snapshot.v0" }},
		{name: "team name", edit: func(s *Snapshot) { s.Teams[0].Name = " " }},
		{name: "roster member", edit: func(s *Snapshot) { s.Rosters[0].MemberIDs = []string{"9"} }},
		{name: "column status", edit: func(s *Snapshot) { s.Columns[0].ID = "review" }},
		{name: "task status", edit: func(s *Snapshot) { s.Tasks[0].Status = "blocked" }},
		{name: "task team", edit: func(s *Snapshot) { s.Tasks[0].TeamID = "t9" }},
		{name: "duplicate task", edit: func(s *Snapshot) { s.Tasks = append(s.Tasks, s.Tasks[0]) }},
		{name: "deadline", edit: func(s *Snapshot) { s.Tasks[0].Deadline = "soon" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := base()
			tc.edit(&snap)
			if err := snap.Validate(); !errors.Is(err, ErrInvalidSnapshot) {
				t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}
}

func TestImportSnapshotRejectsBeforeWriting(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil, ServiceConfig{})
	err := svc.ImportSnapshot(context.Background(), Snapshot{
		Teams: []SnapshotTeam{{ID: "t1", Name: "Squad"}},
		Tasks: []SnapshotTask{{ID: "a", TeamID: "t1", Title: "A", Status: "blocked"}},
	})
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
	if len(repo.teams) != 0 || len(repo.tasks) != 0 {
		t.Fatal("expected nothing written")
	}
}
