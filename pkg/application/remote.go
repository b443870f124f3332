package application

import "github.com/felixgeelhaar/smarttask/pkg/domain/task"

// RemoteKind says what happened to a task on the server.
type RemoteKind string

const (
	RemoteCreated RemoteKind = "created"
	RemoteUpdated RemoteKind = "updated"
	RemoteDeleted RemoteKind = "deleted"
)

// RemoteEvent is a change pushed by the server. Task is set for created
// and updated events; deleted events only carry TaskID.
type RemoteEvent struct {
	Kind   RemoteKind
	TaskID int64
	Task   *task.Task
}
