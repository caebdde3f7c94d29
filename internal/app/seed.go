package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hylla/hackboard/internal/domain"
)

// DemoTeamName names the team created by SeedDemo.
const DemoTeamName = "AI Innovation Squad"

const avatarQuery = "?auto=compress&cs=tinysrgb&w=100"

var demoMembers = []CreateMemberInput{
	{ID: "1", Name: "Alex Chen", Role: "Full Stack Developer", Avatar: "https://images.pexels.com/photos/1043471/pexels-photo-1043471.jpeg" + avatarQuery},
	{ID: "2", Name: "Sarah Kim", Role: "UI/UX Designer", Avatar: "https://images.pexels.com/photos/415829/pexels-photo-415829.jpeg" + avatarQuery},
	{ID: "3", Name: "Mike Johnson", Role: "Data Scientist", Avatar: "https://images.pexels.com/photos/1681010/pexels-photo-1681010.jpeg" + avatarQuery},
}

type demoTask struct {
	title       string
	description string
	assigneeID  string
	priority    domain.Priority
	deadline    string
	status      domain.Status
}

// demoTasks are listed in board order: todo, then in progress, then done.
var demoTasks = []demoTask{
	{title: "Set up backend API", description: "Initialize the server with authentication endpoints", assigneeID: "1", priority: domain.PriorityHigh, deadline: "2025-03-18", status: domain.StatusTodo},
	{title: "Train ML model", description: "Prepare dataset and train the recommendation algorithm", assigneeID: "3", priority: domain.PriorityMedium, deadline: "2025-03-25", status: domain.StatusTodo},
	{title: "Design landing page mockups", description: "Create wireframes and high-fidelity mockups for the main landing page", assigneeID: "2", priority: domain.PriorityHigh, deadline: "2025-03-20", status: domain.StatusInProgress},
	{title: "User research interviews", description: "Conduct 5 user interviews to validate our assumptions", assigneeID: "2", priority: domain.PriorityMedium, deadline: "2025-03-22", status: domain.StatusDone},
}

// SeedDemo loads the demo team, roster and board. Seeding an existing demo team
// returns it unchanged.
func (s *Service) SeedDemo(ctx context.Context) (domain.Team, error) {
	teams, err := s.repo.ListTeams(ctx)
	if err != nil {
		return domain.Team{}, err
	}
	for _, team := range teams {
		if team.Name == DemoTeamName {
			return team, nil
		}
	}

	for _, in := range demoMembers {
		if _, err := s.repo.GetMember(ctx, in.ID); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return domain.Team{}, err
		}
		if _, err := s.CreateMember(ctx, in); err != nil {
			return domain.Team{}, fmt.Errorf("seed member %q: %w", in.Name, err)
		}
	}

	team, err := s.CreateTeam(ctx, CreateTeamInput{
		Name:        DemoTeamName,
		Description: "Building the next generation of AI-powered applications",
		Hackathon:   "TechCrunch Disrupt 2025",
		LeaderID:    "1",
		State:       domain.TeamStateActive,
	})
	if err != nil {
		return domain.Team{}, err
	}
	for _, in := range demoMembers[1:] {
		if err := s.AddTeamMember(ctx, team.ID, in.ID); err != nil {
			return domain.Team{}, err
		}
	}

	for _, seed := range demoTasks {
		deadline, err := time.Parse(domain.DeadlineLayout, seed.deadline)
		if err != nil {
			return domain.Team{}, err
		}
		task, err := s.CreateTask(ctx, CreateTaskInput{
			TeamID:      team.ID,
			Title:       seed.title,
			Description: seed.description,
			AssigneeID:  seed.assigneeID,
			Priority:    seed.priority,
			Deadline:    &deadline,
			CreatedBy:   "1",
		})
		if err != nil {
			return domain.Team{}, fmt.Errorf("seed task %q: %w", seed.title, err)
		}
		if seed.status == domain.StatusTodo {
			continue
		}
		if _, err := s.MoveTaskTo(ctx, task.ID, domain.Location{Column: seed.status, Index: math.MaxInt}, "1"); err != nil {
			return domain.Team{}, fmt.Errorf("seed move %q: %w", seed.title, err)
		}
	}
	return team, nil
}
