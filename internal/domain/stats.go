package domain

import "time"

// Stats summarizes a board.
type Stats struct {
	Total      int
	Todo       int
	InProgress int
	Done       int
	Overdue    int
}

// ComputeStats derives board counts. A task is overdue when its deadline is
// strictly before now's calendar date and it is not done.
func ComputeStats(tasks []Task, now time.Time) Stats {
	stats := Stats{Total: len(tasks)}
	for _, task := range tasks {
		switch task.Status {
		case StatusTodo:
			stats.Todo++
		case StatusInProgress:
			stats.InProgress++
		case StatusDone:
			stats.Done++
		}
		if task.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats
}
