package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Location addresses one slot of a column sequence.
type Location struct {
	Column Status
	Index  int
}

// TaskDraft carries the create-form values for Board.CreateTask.
type TaskDraft struct {
	ID          string
	Title       string
	Description string
	AssigneeID  string
	Priority    Priority
	Deadline    *time.Time
	CreatedBy   string
}

// MoveResult reports the outcome of Board.MoveTask.
type MoveResult struct {
	Task    Task
	Changed []Task
	Moved   bool
}

// Board holds one team's columns and tasks and applies board operations.
// Every method leaves the board untouched when it returns an error.
type Board struct {
	TeamID  string
	columns []Column
	tasks   map[string]Task
}

// NewBoard assembles a board from stored columns and tasks. Column sequences
// are rebuilt from task positions; missing columns fall back to the defaults.
func NewBoard(teamID string, columns []Column, tasks []Task) (*Board, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, ErrInvalidID
	}

	byStatus := make(map[Status]Column, len(columns))
	for _, column := range columns {
		if !column.ID.Valid() {
			return nil, fmt.Errorf("column %q: %w", column.ID, ErrBoardCorrupt)
		}
		byStatus[column.ID] = column
	}
	b := &Board{
		TeamID:  teamID,
		columns: make([]Column, 0, len(boardStatuses)),
		tasks:   make(map[string]Task, len(tasks)),
	}
	for _, tpl := range DefaultColumnTemplates() {
		column, ok := byStatus[tpl.Status]
		if !ok {
			column = Column{ID: tpl.Status, TeamID: teamID, Title: tpl.Title, Color: tpl.Color}
		}
		column.TaskIDs = nil
		b.columns = append(b.columns, column)
	}

	ordered := append([]Task(nil), tasks...)
	slices.SortStableFunc(ordered, func(a, c Task) int {
		if a.Position != c.Position {
			return a.Position - c.Position
		}
		if !a.CreatedAt.Equal(c.CreatedAt) {
			return a.CreatedAt.Compare(c.CreatedAt)
		}
		return strings.Compare(a.ID, c.ID)
	})
	for _, task := range ordered {
		if task.TeamID != teamID {
			return nil, fmt.Errorf("task %q belongs to team %q: %w", task.ID, task.TeamID, ErrBoardCorrupt)
		}
		if _, dup := b.tasks[task.ID]; dup {
			return nil, fmt.Errorf("task %q listed twice: %w", task.ID, ErrBoardCorrupt)
		}
		idx := task.Status.Index()
		if idx < 0 {
			return nil, fmt.Errorf("task %q has status %q: %w", task.ID, task.Status, ErrBoardCorrupt)
		}
		task.Position = len(b.columns[idx].TaskIDs)
		b.columns[idx].TaskIDs = append(b.columns[idx].TaskIDs, task.ID)
		b.tasks[task.ID] = task
	}
	return b, nil
}

// Columns returns a copy of the columns in display order.
func (b *Board) Columns() []Column {
	out := make([]Column, 0, len(b.columns))
	for _, column := range b.columns {
		column.TaskIDs = append([]string(nil), column.TaskIDs...)
		out = append(out, column)
	}
	return out
}

// Column returns one column by status.
func (b *Board) Column(status Status) (Column, error) {
	idx := status.Index()
	if idx < 0 {
		return Column{}, ErrUnknownColumn
	}
	column := b.columns[idx]
	column.TaskIDs = append([]string(nil), column.TaskIDs...)
	return column, nil
}

// Task returns one task by id.
func (b *Board) Task(id string) (Task, bool) {
	task, ok := b.tasks[id]
	return task, ok
}

// Locate returns the current location of a task.
func (b *Board) Locate(taskID string) (Location, bool) {
	task, ok := b.tasks[taskID]
	if !ok {
		return Location{}, false
	}
	idx := task.Status.Index()
	pos := slices.Index(b.columns[idx].TaskIDs, taskID)
	if pos < 0 {
		return Location{}, false
	}
	return Location{Column: task.Status, Index: pos}, true
}

// Len returns the number of tasks on the board.
func (b *Board) Len() int {
	return len(b.tasks)
}

// Tasks returns every task ordered by column, then position.
func (b *Board) Tasks() []Task {
	out := make([]Task, 0, len(b.tasks))
	for _, column := range b.columns {
		for _, id := range column.TaskIDs {
			out = append(out, b.tasks[id])
		}
	}
	return out
}

// ColumnTasks returns the tasks of one column in sequence order.
func (b *Board) ColumnTasks(status Status) []Task {
	idx := status.Index()
	if idx < 0 {
		return nil
	}
	out := make([]Task, 0, len(b.columns[idx].TaskIDs))
	for _, id := range b.columns[idx].TaskIDs {
		out = append(out, b.tasks[id])
	}
	return out
}

// ApplyRoster refreshes denormalized assignee fields from current roster data.
func (b *Board) ApplyRoster(roster Roster) {
	for id, task := range b.tasks {
		member, ok := roster[task.AssigneeID]
		if !ok {
			continue
		}
		task.ApplyAssignee(member)
		b.tasks[id] = task
	}
}

// CreateTask validates the draft against the roster and appends the new task to the todo column.
func (b *Board) CreateTask(draft TaskDraft, roster Roster, now time.Time) (Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return Task{}, ErrInvalidTitle
	}
	assignee, err := roster.Resolve(draft.AssigneeID)
	if err != nil {
		return Task{}, err
	}
	if _, exists := b.tasks[strings.TrimSpace(draft.ID)]; exists {
		return Task{}, fmt.Errorf("task %q already exists: %w", draft.ID, ErrInvalidID)
	}
	task, err := NewTask(TaskInput{
		ID:          draft.ID,
		TeamID:      b.TeamID,
		Title:       draft.Title,
		Description: draft.Description,
		Assignee:    assignee,
		Priority:    draft.Priority,
		Deadline:    draft.Deadline,
		CreatedBy:   draft.CreatedBy,
	}, now)
	if err != nil {
		return Task{}, err
	}

	todo := &b.columns[StatusTodo.Index()]
	task.Position = len(todo.TaskIDs)
	todo.TaskIDs = append(todo.TaskIDs, task.ID)
	b.tasks[task.ID] = task
	return task, nil
}

// MoveTask relocates a task between or within columns and sets its status to the
// destination column. The destination index is clamped and, for same-column moves,
// relative to the sequence after removal.
func (b *Board) MoveTask(taskID string, from, to Location, actor string, now time.Time) (MoveResult, error) {
	srcIdx := from.Column.Index()
	dstIdx := to.Column.Index()
	if srcIdx < 0 || dstIdx < 0 {
		return MoveResult{}, ErrUnknownColumn
	}
	task, ok := b.tasks[taskID]
	if !ok {
		return MoveResult{}, fmt.Errorf("task %q: %w", taskID, ErrUnknownTask)
	}
	srcSeq := b.columns[srcIdx].TaskIDs
	if from.Index < 0 || from.Index >= len(srcSeq) || srcSeq[from.Index] != taskID {
		return MoveResult{}, fmt.Errorf("task %q at %s[%d]: %w", taskID, from.Column, from.Index, ErrTaskNotAtSource)
	}
	if from.Column == to.Column && from.Index == to.Index {
		return MoveResult{Task: task}, nil
	}

	src := slices.Delete(slices.Clone(srcSeq), from.Index, from.Index+1)
	dst := src
	if srcIdx != dstIdx {
		dst = slices.Clone(b.columns[dstIdx].TaskIDs)
	}
	at := min(max(to.Index, 0), len(dst))
	dst = slices.Insert(dst, at, taskID)

	b.columns[srcIdx].TaskIDs = src
	b.columns[dstIdx].TaskIDs = dst

	task.Status = to.Column
	task.touch(actor, now)
	b.tasks[taskID] = task

	changed := b.reindex(srcIdx, taskID)
	if srcIdx != dstIdx {
		changed = append(changed, b.reindex(dstIdx, taskID)...)
	}
	return MoveResult{Task: b.tasks[taskID], Changed: changed, Moved: true}, nil
}

// reindex syncs task positions to one column sequence and returns the
// tasks other than skipID whose position changed.
func (b *Board) reindex(columnIdx int, skipID string) []Task {
	var changed []Task
	for pos, id := range b.columns[columnIdx].TaskIDs {
		task := b.tasks[id]
		if task.Position == pos {
			continue
		}
		task.Position = pos
		b.tasks[id] = task
		if id != skipID {
			changed = append(changed, task)
		}
	}
	return changed
}

// Stats computes derived counts at now.
func (b *Board) Stats(now time.Time) Stats {
	return ComputeStats(b.Tasks(), now)
}

// Validate checks the column and status invariants.
func (b *Board) Validate() error {
	if len(b.columns) != len(boardStatuses) {
		return fmt.Errorf("board has %d columns: %w", len(b.columns), ErrBoardCorrupt)
	}
	seen := make(map[string]struct{}, len(b.tasks))
	for idx, column := range b.columns {
		if column.ID != boardStatuses[idx] {
			return fmt.Errorf("column %d is %q: %w", idx, column.ID, ErrBoardCorrupt)
		}
		for pos, id := range column.TaskIDs {
			if _, dup := seen[id]; dup {
				return fmt.Errorf("task %q appears twice: %w", id, ErrBoardCorrupt)
			}
			seen[id] = struct{}{}
			task, ok := b.tasks[id]
			if !ok {
				return fmt.Errorf("column %s lists unknown task %q: %w", column.ID, id, ErrBoardCorrupt)
			}
			if task.Status != column.ID {
				return fmt.Errorf("task %q status %q in column %q: %w", id, task.Status, column.ID, ErrBoardCorrupt)
			}
			if task.Position != pos {
				return fmt.Errorf("task %q position %d at index %d: %w", id, task.Position, pos, ErrBoardCorrupt)
			}
		}
	}
	if len(seen) != len(b.tasks) {
		return fmt.Errorf("%d tasks outside any column: %w", len(b.tasks)-len(seen), ErrBoardCorrupt)
	}
	return nil
}
