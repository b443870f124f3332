// Package mcp exposes the signed-in user's tasks to MCP clients so an
// assistant can read and move cards on the board.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/smarttask/pkg/application"
	"github.com/felixgeelhaar/smarttask/pkg/domain/task"
)

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// TaskAPI is the subset of the SmartTask API the tools call.
type TaskAPI interface {
	ListTasks(ctx context.Context, opts task.ListOptions) (*task.Page[task.Task], error)
	GetTask(ctx context.Context, id int64) (*task.Task, error)
	CreateTask(ctx context.Context, req task.Request) (*task.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	TasksByStatus(ctx context.Context, s task.Status) ([]task.Task, error)
	TasksByCategory(ctx context.Context, c task.Category) ([]task.Task, error)
	TasksByPriority(ctx context.Context, p task.Priority) ([]task.Task, error)
	OverdueTasks(ctx context.Context) ([]task.Task, error)
	UpdateStatus(ctx context.Context, id int64, s task.Status) (*task.Task, error)
	UpdatePosition(ctx context.Context, id int64, position int) (*task.Task, error)
	Summarize(ctx context.Context) (string, error)
	Suggestion(ctx context.Context, id int64) (string, error)
	AnalyzeProductivity(ctx context.Context) (string, error)
}

type Server struct {
	mcpServer *mcp.Server
	api       TaskAPI
}

// mcpErr keeps the server's message when there is one and otherwise
// returns friendly.
func mcpErr(err error, friendly string) error {
	return errors.New(application.ErrorMessage(err, friendly))
}

func NewServer(api TaskAPI) *Server {
	info := mcp.ServerInfo{
		Name:    "smarttask",
		Version: Version,
	}
	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("SmartTask MCP Server"),
			mcp.WithDescription("SmartTask exposes the signed-in user's kanban tasks and AI insights to MCP clients."),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Use tools to list tasks, create them, move them between columns, and ask for AI summaries."),
		),
		api: api,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("smarttask_list_tasks").
		Description("List tasks. At most one of status, category, priority or overdue may be given; without a filter the result is paginated").
		Handler(s.handleListTasks)

	s.mcpServer.Tool("smarttask_get_task").
		Description("Retrieve one task by id").
		Handler(s.handleGetTask)

	s.mcpServer.Tool("smarttask_create_task").
		Description("Create a task. Title is required; the server defaults status to PENDING").
		Handler(s.handleCreateTask)

	s.mcpServer.Tool("smarttask_move_task").
		Description("Move a task to another column (PENDING, IN_PROGRESS, COMPLETED, CANCELLED)").
		Handler(s.handleMoveTask)

	s.mcpServer.Tool("smarttask_reorder_task").
		Description("Set a task's position within its column").
		Handler(s.handleReorderTask)

	s.mcpServer.Tool("smarttask_delete_task").
		Description("Delete a task").
		Handler(s.handleDeleteTask)

	s.mcpServer.Tool("smarttask_summary").
		Description("AI summary of the user's tasks").
		Handler(s.handleSummary)

	s.mcpServer.Tool("smarttask_suggest").
		Description("AI suggestion for completing one task").
		Handler(s.handleSuggest)

	s.mcpServer.Tool("smarttask_productivity").
		Description("AI analysis of the user's productivity").
		Handler(s.handleProductivity)
}

// FlexInt accepts both integer and string JSON values.
// MCP clients sometimes send ids as strings.
type FlexInt int64

func (fi *FlexInt) UnmarshalJSON(data []byte) error {
	var i int64
	if err := json.Unmarshal(data, &i); err == nil {
		*fi = FlexInt(i)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		var n int64
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err == nil {
			*fi = FlexInt(n)
			return nil
		}
	}
	return fmt.Errorf("expected integer or string, got %s", string(data))
}

// FlexBool accepts both boolean and string ("true"/"false") JSON values.
type FlexBool bool

func (fb *FlexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*fb = FlexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*fb = FlexBool(s == "true" || s == "1" || s == "yes")
		return nil
	}
	return fmt.Errorf("expected boolean or string, got %s", string(data))
}

type ListTasksArgs struct {
	Status   string   `json:"status,omitempty" jsonschema:"description=Only tasks in this column (PENDING, IN_PROGRESS, COMPLETED, CANCELLED)"`
	Category string   `json:"category,omitempty" jsonschema:"description=Only tasks in this category (GENERAL, WORK, PERSONAL, HEALTH, LEARNING, SHOPPING, FINANCE, SOCIAL)"`
	Priority string   `json:"priority,omitempty" jsonschema:"description=Only tasks with this priority (LOW, MEDIUM, HIGH, URGENT)"`
	Overdue  FlexBool `json:"overdue,omitempty" jsonschema:"description=Only open tasks past their due date"`
	Page     FlexInt  `json:"page,omitempty" jsonschema:"description=Zero-based page number when no filter is given"`
	Size     FlexInt  `json:"size,omitempty" jsonschema:"description=Page size when no filter is given (default 10)"`
}

type TaskIDArgs struct {
	TaskID FlexInt `json:"task_id" jsonschema:"description=The ID of the task"`
}

type CreateTaskArgs struct {
	Title       string `json:"title" jsonschema:"description=Title of the task"`
	Description string `json:"description,omitempty" jsonschema:"description=Longer description"`
	Priority    string `json:"priority,omitempty" jsonschema:"description=LOW, MEDIUM, HIGH or URGENT"`
	Category    string `json:"category,omitempty" jsonschema:"description=GENERAL, WORK, PERSONAL, HEALTH, LEARNING, SHOPPING, FINANCE or SOCIAL"`
	DueDate     string `json:"due_date,omitempty" jsonschema:"description=Due date as YYYY-MM-DD or YYYY-MM-DDTHH:MM"`
}

type MoveTaskArgs struct {
	TaskID FlexInt `json:"task_id" jsonschema:"description=The ID of the task to move"`
	Status string  `json:"status" jsonschema:"description=Destination column (PENDING, IN_PROGRESS, COMPLETED, CANCELLED)"`
}

type ReorderTaskArgs struct {
	TaskID   FlexInt `json:"task_id" jsonschema:"description=The ID of the task to reorder"`
	Position FlexInt `json:"position" jsonschema:"description=Zero-based position within the task's column"`
}

// TaskList is the result of smarttask_list_tasks.
type TaskList struct {
	Tasks      []task.Task `json:"tasks"`
	Page       int         `json:"page,omitempty"`
	TotalPages int         `json:"total_pages,omitempty"`
	Total      int64       `json:"total"`
}

func (s *Server) handleListTasks(ctx context.Context, args ListTasksArgs) (TaskList, error) {
	filters := 0
	for _, set := range []bool{args.Status != "", args.Category != "", args.Priority != "", bool(args.Overdue)} {
		if set {
			filters++
		}
	}
	if filters > 1 {
		return TaskList{}, errors.New("use at most one of status, category, priority or overdue")
	}

	var (
		tasks []task.Task
		err   error
	)
	switch {
	case args.Status != "":
		st, perr := task.ParseStatus(args.Status)
		if perr != nil {
			return TaskList{}, perr
		}
		tasks, err = s.api.TasksByStatus(ctx, st)
	case args.Category != "":
		c, perr := task.ParseCategory(args.Category)
		if perr != nil {
			return TaskList{}, perr
		}
		tasks, err = s.api.TasksByCategory(ctx, c)
	case args.Priority != "":
		p, perr := task.ParsePriority(args.Priority)
		if perr != nil {
			return TaskList{}, perr
		}
		tasks, err = s.api.TasksByPriority(ctx, p)
	case bool(args.Overdue):
		tasks, err = s.api.OverdueTasks(ctx)
	default:
		page, perr := s.api.ListTasks(ctx, task.ListOptions{Page: int(args.Page), Size: int(args.Size)})
		if perr != nil {
			return TaskList{}, mcpErr(perr, "Failed to fetch tasks")
		}
		return TaskList{
			Tasks:      nonNil(page.Content),
			Page:       page.Number,
			TotalPages: page.TotalPages,
			Total:      page.TotalElements,
		}, nil
	}
	if err != nil {
		return TaskList{}, mcpErr(err, "Failed to fetch tasks")
	}
	return TaskList{Tasks: nonNil(tasks), Total: int64(len(tasks))}, nil
}

func nonNil(ts []task.Task) []task.Task {
	if ts == nil {
		return []task.Task{}
	}
	return ts
}

func (s *Server) handleGetTask(ctx context.Context, args TaskIDArgs) (*task.Task, error) {
	t, err := s.api.GetTask(ctx, int64(args.TaskID))
	if err != nil {
		return nil, mcpErr(err, "Task not found")
	}
	return t, nil
}

func (s *Server) handleCreateTask(ctx context.Context, args CreateTaskArgs) (*task.Task, error) {
	req := task.Request{Title: strings.TrimSpace(args.Title), Description: args.Description}
	if args.Priority != "" {
		p, err := task.ParsePriority(args.Priority)
		if err != nil {
			return nil, err
		}
		req.Priority = p
	}
	if args.Category != "" {
		c, err := task.ParseCategory(args.Category)
		if err != nil {
			return nil, err
		}
		req.Category = c
	}
	if args.DueDate != "" {
		ts, err := task.ParseTimestamp(args.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date %q: use YYYY-MM-DD or YYYY-MM-DDTHH:MM", args.DueDate)
		}
		req.DueDate = &ts
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	t, err := s.api.CreateTask(ctx, req)
	if err != nil {
		return nil, mcpErr(err, "Failed to create task")
	}
	return t, nil
}

func (s *Server) handleMoveTask(ctx context.Context, args MoveTaskArgs) (*task.Task, error) {
	st, err := task.ParseStatus(args.Status)
	if err != nil {
		return nil, err
	}
	t, err := s.api.UpdateStatus(ctx, int64(args.TaskID), st)
	if err != nil {
		return nil, mcpErr(err, "Failed to update task status")
	}
	return t, nil
}

func (s *Server) handleReorderTask(ctx context.Context, args ReorderTaskArgs) (*task.Task, error) {
	if args.Position < 0 {
		return nil, errors.New("position must not be negative")
	}
	t, err := s.api.UpdatePosition(ctx, int64(args.TaskID), int(args.Position))
	if err != nil {
		return nil, mcpErr(err, "Failed to update task position")
	}
	return t, nil
}

func (s *Server) handleDeleteTask(ctx context.Context, args TaskIDArgs) (string, error) {
	if err := s.api.DeleteTask(ctx, int64(args.TaskID)); err != nil {
		return "", mcpErr(err, "Failed to delete task")
	}
	return fmt.Sprintf("Deleted task %d", args.TaskID), nil
}

func (s *Server) handleSummary(ctx context.Context, args struct{}) (string, error) {
	text, err := s.api.Summarize(ctx)
	if err != nil {
		return "", mcpErr(err, "AI request failed")
	}
	return text, nil
}

func (s *Server) handleSuggest(ctx context.Context, args TaskIDArgs) (string, error) {
	text, err := s.api.Suggestion(ctx, int64(args.TaskID))
	if err != nil {
		return "", mcpErr(err, "Failed to get suggestion")
	}
	return text, nil
}

func (s *Server) handleProductivity(ctx context.Context, args struct{}) (string, error) {
	text, err := s.api.AnalyzeProductivity(ctx)
	if err != nil {
		return "", mcpErr(err, "AI request failed")
	}
	return text, nil
}

// ServeStdio serves MCP over stdin/stdout until ctx is done.
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}
