package application_test

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/smarttask/pkg/domain/auth"
	"github.com/felixgeelhaar/smarttask/pkg/domain/task"
)

type MockAuthAPI struct {
	Response *auth.Response
	Err      error
	Calls    int
}

func (m *MockAuthAPI) Login(ctx context.Context, creds auth.Credentials) (*auth.Response, error) {
	m.Calls++
	return m.Response, m.Err
}

func (m *MockAuthAPI) Register(ctx context.Context, data auth.Registration) (*auth.Response, error) {
	m.Calls++
	return m.Response, m.Err
}

// MockTaskAPI keeps tasks in memory and records which endpoints were hit.
type MockTaskAPI struct {
	mu     sync.Mutex
	Tasks  []task.Task
	NextID int64
	Err    error
	Calls  []string
}

func (m *MockTaskAPI) record(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
	return m.Err
}

func (m *MockTaskAPI) filter(keep func(task.Task) bool) []task.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []task.Task
	for _, t := range m.Tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (m *MockTaskAPI) OrderedTasks(ctx context.Context) ([]task.Task, error) {
	if err := m.record("OrderedTasks"); err != nil {
		return nil, err
	}
	return m.filter(func(task.Task) bool { return true }), nil
}

func (m *MockTaskAPI) TasksByStatus(ctx context.Context, s task.Status) ([]task.Task, error) {
	if err := m.record("TasksByStatus"); err != nil {
		return nil, err
	}
	return m.filter(func(t task.Task) bool { return t.Status == s }), nil
}

func (m *MockTaskAPI) TasksByCategory(ctx context.Context, c task.Category) ([]task.Task, error) {
	if err := m.record("TasksByCategory"); err != nil {
		return nil, err
	}
	return m.filter(func(t task.Task) bool { return t.Category == c }), nil
}

func (m *MockTaskAPI) TasksByPriority(ctx context.Context, p task.Priority) ([]task.Task, error) {
	if err := m.record("TasksByPriority"); err != nil {
		return nil, err
	}
	return m.filter(func(t task.Task) bool { return t.Priority == p }), nil
}

func (m *MockTaskAPI) OverdueTasks(ctx context.Context) ([]task.Task, error) {
	if err := m.record("OverdueTasks"); err != nil {
		return nil, err
	}
	return []task.Task{}, nil
}

func (m *MockTaskAPI) CreateTask(ctx context.Context, req task.Request) (*task.Task, error) {
	if err := m.record("CreateTask"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NextID++
	t := task.Task{ID: m.NextID, Title: req.Title, Status: task.StatusPending, Priority: task.PriorityMedium, Category: task.CategoryGeneral}
	if req.Status != "" {
		t.Status = req.Status
	}
	m.Tasks = append(m.Tasks, t)
	return &t, nil
}

func (m *MockTaskAPI) mutate(id int64, fn func(*task.Task)) (*task.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Tasks {
		if m.Tasks[i].ID == id {
			fn(&m.Tasks[i])
			t := m.Tasks[i]
			return &t, nil
		}
	}
	return nil, context.Canceled
}

func (m *MockTaskAPI) UpdateTask(ctx context.Context, id int64, req task.Request) (*task.Task, error) {
	if err := m.record("UpdateTask"); err != nil {
		return nil, err
	}
	return m.mutate(id, func(t *task.Task) { t.Title = req.Title })
}

func (m *MockTaskAPI) DeleteTask(ctx context.Context, id int64) error {
	if err := m.record("DeleteTask"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.Tasks[:0]
	for _, t := range m.Tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	m.Tasks = out
	return nil
}

func (m *MockTaskAPI) UpdateStatus(ctx context.Context, id int64, s task.Status) (*task.Task, error) {
	if err := m.record("UpdateStatus"); err != nil {
		return nil, err
	}
	return m.mutate(id, func(t *task.Task) { t.Status = s })
}

func (m *MockTaskAPI) UpdatePosition(ctx context.Context, id int64, position int) (*task.Task, error) {
	if err := m.record("UpdatePosition"); err != nil {
		return nil, err
	}
	return m.mutate(id, func(t *task.Task) { t.Position = position })
}
