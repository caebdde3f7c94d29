package domain

import (
	"strings"
	"time"
)

// Column is one status bucket of a team board. TaskIDs is filled when a Board is assembled.
type Column struct {
	ID        Status
	TeamID    string
	Title     string
	Color     string
	TaskIDs   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewColumn constructs a new value for this package.
func NewColumn(teamID string, status Status, title, color string, now time.Time) (Column, error) {
	teamID = strings.TrimSpace(teamID)
	title = strings.TrimSpace(title)
	if teamID == "" {
		return Column{}, ErrInvalidID
	}
	if !status.Valid() {
		return Column{}, ErrUnknownColumn
	}
	if title == "" {
		return Column{}, ErrInvalidName
	}

	return Column{
		ID:        status,
		TeamID:    teamID,
		Title:     title,
		Color:     strings.TrimSpace(color),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// Restyle changes the display title and color.
func (c *Column) Restyle(title, color string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidName
	}
	c.Title = title
	c.Color = strings.TrimSpace(color)
	c.UpdatedAt = now.UTC()
	return nil
}

// ColumnTemplate holds presentation defaults for one status column.
type ColumnTemplate struct {
	Status Status
	Title  string
	Color  string
}

// DefaultColumnTemplates returns the stock column titles and colors.
func DefaultColumnTemplates() []ColumnTemplate {
	return []ColumnTemplate{
		{Status: StatusTodo, Title: "To Do", Color: "border-gray-300"},
		{Status: StatusInProgress, Title: "In Progress", Color: "border-blue-300"},
		{Status: StatusDone, Title: "Done", Color: "border-green-300"},
	}
}
