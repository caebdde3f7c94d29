package domain

import (
	"strings"
	"time"
)

// TeamState describes whether a team is still looking for members.
type TeamState string

const (
	TeamStateActive     TeamState = "active"
	TeamStateRecruiting TeamState = "recruiting"
)

// Team represents team data used by this package. Each team owns one board.
type Team struct {
	ID          string
	Slug        string
	Name        string
	Description string
	LeaderID    string
	State       TeamState
	Hackathon   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTeam constructs a new value for this package.
func NewTeam(id, name, description string, now time.Time) (Team, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return Team{}, ErrInvalidID
	}
	if name == "" {
		return Team{}, ErrInvalidName
	}

	return Team{
		ID:          id,
		Slug:        normalizeSlug(name),
		Name:        name,
		Description: strings.TrimSpace(description),
		State:       TeamStateRecruiting,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// UpdateDetails updates state for the requested operation.
func (t *Team) UpdateDetails(name, description, hackathon string, state TeamState, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	if state == "" {
		state = t.State
	}
	switch state {
	case TeamStateActive, TeamStateRecruiting:
	default:
		return ErrInvalidTeamState
	}
	t.Name = name
	t.Slug = normalizeSlug(name)
	t.Description = strings.TrimSpace(description)
	t.Hackathon = strings.TrimSpace(hackathon)
	t.State = state
	t.UpdatedAt = now.UTC()
	return nil
}

// SetLeader records the team leader.
func (t *Team) SetLeader(memberID string, now time.Time) {
	t.LeaderID = strings.TrimSpace(memberID)
	t.UpdatedAt = now.UTC()
}

// normalizeSlug normalizes slug.
func normalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	prevDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevDash = false
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
