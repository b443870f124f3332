package application

import (
	"context"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/smarttask/pkg/domain/task"
)

// TaskAPI is the part of the API client the task store needs.
type TaskAPI interface {
	OrderedTasks(ctx context.Context) ([]task.Task, error)
	TasksByStatus(ctx context.Context, s task.Status) ([]task.Task, error)
	TasksByCategory(ctx context.Context, c task.Category) ([]task.Task, error)
	TasksByPriority(ctx context.Context, p task.Priority) ([]task.Task, error)
	OverdueTasks(ctx context.Context) ([]task.Task, error)
	CreateTask(ctx context.Context, req task.Request) (*task.Task, error)
	UpdateTask(ctx context.Context, id int64, req task.Request) (*task.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, s task.Status) (*task.Task, error)
	UpdatePosition(ctx context.Context, id int64, position int) (*task.Task, error)
}

// TaskState is a snapshot of the task cache.
type TaskState struct {
	Tasks     []task.Task
	IsLoading bool
	Error     string
	Selected  *task.Task
}

// TaskStore caches the user's tasks. Fetches record failures in
// TaskState.Error and return nothing; writes record them and also return
// the error.
type TaskStore struct {
	api       TaskAPI
	logger    *slog.Logger
	mu        sync.RWMutex
	state     TaskState
	listeners listenerSet[TaskState]
}

func NewTaskStore(api TaskAPI, logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		api:    api,
		logger: logger,
		state:  TaskState{Tasks: []task.Task{}},
	}
}

// State returns a copy of the cache.
func (s *TaskStore) State() TaskState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Tasks = append([]task.Task(nil), s.state.Tasks...)
	if st.Selected != nil {
		sel := *st.Selected
		st.Selected = &sel
	}
	return st
}

// Subscribe registers fn to receive every new state. The returned func
// removes it.
func (s *TaskStore) Subscribe(fn func(TaskState)) func() {
	return s.listeners.add(fn)
}

func (s *TaskStore) update(fn func(*TaskState)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.listeners.notify(s.State())
}

func (s *TaskStore) fetch(ctx context.Context, fallback string, fn func(context.Context) ([]task.Task, error)) {
	s.load(ctx, fallback, true, fn)
}

// load replaces the cache with fn's result. loading controls whether
// IsLoading is toggled around the call.
func (s *TaskStore) load(ctx context.Context, fallback string, loading bool, fn func(context.Context) ([]task.Task, error)) {
	s.update(func(st *TaskState) {
		if loading {
			st.IsLoading = true
		}
		st.Error = ""
	})
	tasks, err := fn(ctx)
	if err != nil {
		msg := ErrorMessage(err, fallback)
		s.logger.Warn("fetch tasks failed", "error", err)
		s.update(func(st *TaskState) {
			if loading {
				st.IsLoading = false
			}
			st.Error = msg
		})
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	s.update(func(st *TaskState) {
		st.Tasks = tasks
		if loading {
			st.IsLoading = false
		}
	})
}

// FetchTasks replaces the cache with every task in position order.
func (s *TaskStore) FetchTasks(ctx context.Context) {
	s.fetch(ctx, "Failed to fetch tasks", s.api.OrderedTasks)
}

// RefreshTasks is FetchTasks without touching IsLoading, for reloading
// the board behind a drag.
func (s *TaskStore) RefreshTasks(ctx context.Context) {
	s.load(ctx, "Failed to fetch tasks", false, s.api.OrderedTasks)
}

func (s *TaskStore) FetchTasksByStatus(ctx context.Context, status task.Status) {
	s.fetch(ctx, "Failed to fetch tasks", func(ctx context.Context) ([]task.Task, error) {
		return s.api.TasksByStatus(ctx, status)
	})
}

func (s *TaskStore) FetchTasksByCategory(ctx context.Context, category task.Category) {
	s.fetch(ctx, "Failed to fetch tasks", func(ctx context.Context) ([]task.Task, error) {
		return s.api.TasksByCategory(ctx, category)
	})
}

func (s *TaskStore) FetchTasksByPriority(ctx context.Context, priority task.Priority) {
	s.fetch(ctx, "Failed to fetch tasks", func(ctx context.Context) ([]task.Task, error) {
		return s.api.TasksByPriority(ctx, priority)
	})
}

func (s *TaskStore) FetchOverdueTasks(ctx context.Context) {
	s.fetch(ctx, "Failed to fetch overdue tasks", s.api.OverdueTasks)
}

// write runs a single-entity mutation. loading controls whether IsLoading
// is toggled around the call; apply merges the result into the cache.
func (s *TaskStore) write(ctx context.Context, fallback string, loading bool,
	fn func(context.Context) (*task.Task, error), apply func(*TaskState, task.Task)) (task.Task, error) {
	if loading {
		s.update(func(st *TaskState) {
			st.IsLoading = true
			st.Error = ""
		})
	}

	t, err := fn(ctx)
	if err == nil && t == nil {
		err = errEmptyResponse
	}
	if err != nil {
		msg := ErrorMessage(err, fallback)
		s.logger.Warn("task write failed", "operation", fallback, "error", err)
		s.update(func(st *TaskState) {
			if loading {
				st.IsLoading = false
			}
			st.Error = msg
		})
		return task.Task{}, err
	}

	s.update(func(st *TaskState) {
		apply(st, *t)
		if loading {
			st.IsLoading = false
		}
	})
	return *t, nil
}

func appendTask(st *TaskState, t task.Task) {
	st.Tasks = append(st.Tasks, t)
}

func replaceTask(st *TaskState, t task.Task) {
	if i := task.IndexOf(st.Tasks, t.ID); i >= 0 {
		st.Tasks[i] = t
	}
	if st.Selected != nil && st.Selected.ID == t.ID {
		sel := t
		st.Selected = &sel
	}
}

func removeTask(st *TaskState, id int64) {
	out := st.Tasks[:0]
	for _, t := range st.Tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	st.Tasks = out
	if st.Selected != nil && st.Selected.ID == id {
		st.Selected = nil
	}
}

// CreateTask creates a task and appends the server's copy to the cache.
func (s *TaskStore) CreateTask(ctx context.Context, req task.Request) (task.Task, error) {
	return s.write(ctx, "Failed to create task", true, func(ctx context.Context) (*task.Task, error) {
		return s.api.CreateTask(ctx, req)
	}, appendTask)
}

// UpdateTask replaces the cached entry with the server's copy.
func (s *TaskStore) UpdateTask(ctx context.Context, id int64, req task.Request) (task.Task, error) {
	return s.write(ctx, "Failed to update task", true, func(ctx context.Context) (*task.Task, error) {
		return s.api.UpdateTask(ctx, id, req)
	}, replaceTask)
}

// DeleteTask deletes the task and drops it from the cache.
func (s *TaskStore) DeleteTask(ctx context.Context, id int64) error {
	s.update(func(st *TaskState) {
		st.IsLoading = true
		st.Error = ""
	})
	if err := s.api.DeleteTask(ctx, id); err != nil {
		msg := ErrorMessage(err, "Failed to delete task")
		s.logger.Warn("task delete failed", "task_id", id, "error", err)
		s.update(func(st *TaskState) {
			st.IsLoading = false
			st.Error = msg
		})
		return err
	}
	s.update(func(st *TaskState) {
		removeTask(st, id)
		st.IsLoading = false
	})
	return nil
}

// UpdateTaskStatus moves a task to another column. IsLoading is not
// touched.
func (s *TaskStore) UpdateTaskStatus(ctx context.Context, id int64, status task.Status) (task.Task, error) {
	s.logger.Debug("update task status", "task_id", id, "status", status)
	return s.write(ctx, "Failed to update task status", false, func(ctx context.Context) (*task.Task, error) {
		return s.api.UpdateStatus(ctx, id, status)
	}, replaceTask)
}

// UpdateTaskPosition reorders a task within its column.
func (s *TaskStore) UpdateTaskPosition(ctx context.Context, id int64, position int) (task.Task, error) {
	s.logger.Debug("update task position", "task_id", id, "position", position)
	return s.write(ctx, "Failed to update task position", false, func(ctx context.Context) (*task.Task, error) {
		return s.api.UpdatePosition(ctx, id, position)
	}, replaceTask)
}

// SelectTask sets or, with nil, clears the selected task.
func (s *TaskStore) SelectTask(t *task.Task) {
	s.update(func(st *TaskState) {
		if t == nil {
			st.Selected = nil
			return
		}
		sel := *t
		st.Selected = &sel
	})
}

func (s *TaskStore) ClearError() {
	s.update(func(st *TaskState) { st.Error = "" })
}

// ApplyRemote merges a pushed change into the cache without a request.
func (s *TaskStore) ApplyRemote(ev RemoteEvent) {
	switch ev.Kind {
	case RemoteCreated, RemoteUpdated:
		if ev.Task == nil {
			return
		}
		t := *ev.Task
		s.update(func(st *TaskState) {
			if task.IndexOf(st.Tasks, t.ID) >= 0 {
				replaceTask(st, t)
				return
			}
			appendTask(st, t)
		})
	case RemoteDeleted:
		s.update(func(st *TaskState) { removeTask(st, ev.TaskID) })
	default:
		s.logger.Debug("ignoring remote event", "kind", ev.Kind)
	}
}
