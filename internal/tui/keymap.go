package tui

import "charm.land/bubbles/v2/key"

// keyMap holds the board bindings shown in the help bar.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	nextTeam      key.Binding
	moveLeft      key.Binding
	moveRight     key.Binding
	moveUp        key.Binding
	moveDown      key.Binding
	moveTaskLeft  key.Binding
	moveTaskRight key.Binding
	moveTaskUp    key.Binding
	moveTaskDown  key.Binding
	addTask       key.Binding
	taskInfo      key.Binding
	copyID        key.Binding
}

// formKeyMap holds bindings active while the new-task form is open.
type formKeyMap struct {
	next   key.Binding
	prev   key.Binding
	submit key.Binding
	cancel key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		nextTeam:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next team")),
		moveLeft:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		moveTaskLeft:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move task left")),
		moveTaskRight: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move task right")),
		moveTaskUp:    key.NewBinding(key.WithKeys("K", "shift+k"), key.WithHelp("K", "move task up")),
		moveTaskDown:  key.NewBinding(key.WithKeys("J", "shift+j"), key.WithHelp("J", "move task down")),
		addTask:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		taskInfo:      key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "task info")),
		copyID:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task id")),
	}
}

func newFormKeyMap() formKeyMap {
	return formKeyMap{
		next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "create")),
		cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// ShortHelp returns the bindings shown in the collapsed help bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.addTask, k.taskInfo, k.moveTaskLeft, k.moveTaskRight, k.copyID, k.toggleHelp, k.quit}
}

// FullHelp returns every binding grouped by concern.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.moveTaskLeft, k.moveTaskRight, k.moveTaskUp, k.moveTaskDown},
		{k.addTask, k.taskInfo, k.copyID, k.nextTeam, k.reload, k.toggleHelp, k.quit},
	}
}

func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.next, k.prev, k.submit, k.cancel}
}

func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
