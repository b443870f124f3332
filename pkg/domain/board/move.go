package board

import "github.com/felixgeelhaar/smarttask/pkg/domain/task"

// Card identifies a dragged card by task id and its origin.
type Card struct {
	TaskID int64
	Status task.Status
	Index  int
}

// Drop is where a card was released. A nil *Drop means the card was
// released outside any column.
type Drop struct {
	Status task.Status
	Index  int
}

// MoveKind says which store operation a drop maps to.
type MoveKind int

const (
	MoveNone MoveKind = iota
	MoveStatus
	MovePosition
)

func (k MoveKind) String() string {
	switch k {
	case MoveStatus:
		return "status"
	case MovePosition:
		return "position"
	default:
		return "none"
	}
}

// Move is the result of resolving a drop.
type Move struct {
	Kind     MoveKind
	TaskID   int64
	Status   task.Status
	Position int
}

// Resolve maps a drag gesture onto a store operation: crossing into another
// column changes the status, reordering inside a column changes the
// position, anything else is a no-op.
func Resolve(card Card, drop *Drop) Move {
	if drop == nil || card.TaskID == 0 || !drop.Status.IsValid() {
		return Move{Kind: MoveNone, TaskID: card.TaskID}
	}
	if drop.Status != card.Status {
		return Move{Kind: MoveStatus, TaskID: card.TaskID, Status: drop.Status}
	}
	if drop.Index == card.Index {
		return Move{Kind: MoveNone, TaskID: card.TaskID}
	}
	pos := drop.Index
	if pos < 0 {
		pos = 0
	}
	return Move{Kind: MovePosition, TaskID: card.TaskID, Status: card.Status, Position: pos}
}
