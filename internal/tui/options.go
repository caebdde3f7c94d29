package tui

import "strings"

type Option func(*Model)

// WithActor sets the member id recorded on tasks created and moved from the board.
func WithActor(actor string) Option {
	return func(m *Model) {
		m.actor = strings.TrimSpace(actor)
	}
}

// WithTeam selects the initial team by id, slug, or name.
func WithTeam(team string) Option {
	return func(m *Model) {
		m.preferredTeam = strings.TrimSpace(team)
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}
