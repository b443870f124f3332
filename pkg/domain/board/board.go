// Package board groups cached tasks into kanban columns and resolves card
// moves into the store operation they imply.
package board

import (
	"sort"

	"github.com/felixgeelhaar/smarttask/pkg/domain/task"
)

// Column is one lane of the board.
type Column struct {
	Status task.Status
	Label  string
	Tasks  []task.Task
}

// Board is the fixed three-column grouping of the task cache.
type Board struct {
	Columns []Column
}

// ColumnStatuses lists the board lanes in display order. Cancelled tasks
// have no lane.
func ColumnStatuses() []task.Status {
	return []task.Status{
		task.StatusPending,
		task.StatusInProgress,
		task.StatusCompleted,
	}
}

// Group buckets tasks by status. Within a column tasks are ordered by
// position, ties keeping the order of the input.
func Group(tasks []task.Task) Board {
	statuses := ColumnStatuses()
	b := Board{Columns: make([]Column, len(statuses))}
	for i, s := range statuses {
		b.Columns[i] = Column{Status: s, Label: s.DisplayName(), Tasks: []task.Task{}}
	}
	for _, t := range tasks {
		if i := b.ColumnIndex(t.Status); i >= 0 {
			b.Columns[i].Tasks = append(b.Columns[i].Tasks, t)
		}
	}
	for i := range b.Columns {
		col := b.Columns[i].Tasks
		sort.SliceStable(col, func(a, c int) bool {
			return col[a].Position < col[c].Position
		})
	}
	return b
}

// ColumnIndex returns the lane index for a status, or -1 when the status
// has no lane.
func (b Board) ColumnIndex(s task.Status) int {
	for i, c := range b.Columns {
		if c.Status == s {
			return i
		}
	}
	return -1
}

// Flatten concatenates the columns back into one list.
func (b Board) Flatten() []task.Task {
	var out []task.Task
	for _, c := range b.Columns {
		out = append(out, c.Tasks...)
	}
	return out
}

// Len returns the number of cards on the board.
func (b Board) Len() int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Tasks)
	}
	return n
}

// CardAt returns the card at (column, index), if any.
func (b Board) CardAt(column, index int) (Card, bool) {
	if column < 0 || column >= len(b.Columns) {
		return Card{}, false
	}
	tasks := b.Columns[column].Tasks
	if index < 0 || index >= len(tasks) {
		return Card{}, false
	}
	return Card{TaskID: tasks[index].ID, Status: b.Columns[column].Status, Index: index}, true
}
