package ordering

import (
	"sort"

	"github.com/socialdesk/core/internal/domain/entities"
)

// SortColumn orders the tasks of one board column by due date. Tasks
// without a due date go last; ties keep insertion order.
func SortColumn(tasks []entities.Task) []entities.Task {
	out := make([]entities.Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DueDate, out[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return out
}

// Board groups tasks into their status columns, each column sorted with
// SortColumn. Every status has an entry, possibly empty.
func Board(tasks []entities.Task) map[entities.TaskStatus][]entities.Task {
	columns := make(map[entities.TaskStatus][]entities.Task, len(entities.TaskStatuses))
	for _, status := range entities.TaskStatuses {
		columns[status] = []entities.Task{}
	}
	for _, t := range tasks {
		columns[t.Status] = append(columns[t.Status], t)
	}
	for status, column := range columns {
		columns[status] = SortColumn(column)
	}
	return columns
}
