package domain

import (
	"strings"
	"time"
)

// Member is one roster entry: the team-member record used for assignee resolution.
type Member struct {
	ID        string
	Name      string
	Role      string
	Avatar    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMember constructs a new value for this package.
func NewMember(id, name, role, avatar string, now time.Time) (Member, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return Member{}, ErrInvalidID
	}
	if name == "" {
		return Member{}, ErrInvalidName
	}
	return Member{
		ID:        id,
		Name:      name,
		Role:      strings.TrimSpace(role),
		Avatar:    strings.TrimSpace(avatar),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// UpdateProfile updates the display fields copied onto tasks.
func (m *Member) UpdateProfile(name, role, avatar string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	m.Name = name
	m.Role = strings.TrimSpace(role)
	m.Avatar = strings.TrimSpace(avatar)
	m.UpdatedAt = now.UTC()
	return nil
}

// Roster indexes members by id.
type Roster map[string]Member

// NewRoster builds a roster from a member list.
func NewRoster(members []Member) Roster {
	out := make(Roster, len(members))
	for _, member := range members {
		out[member.ID] = member
	}
	return out
}

// Resolve returns the member for id, failing with ErrUnknownAssignee.
func (r Roster) Resolve(id string) (Member, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Member{}, ErrUnknownAssignee
	}
	member, ok := r[id]
	if !ok {
		return Member{}, ErrUnknownAssignee
	}
	return member, nil
}
