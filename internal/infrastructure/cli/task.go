package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/smarttask/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/smarttask/pkg/domain/task"
	"github.com/felixgeelhaar/smarttask/pkg/sdk"
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task"},
	Short:   "List and edit tasks",
}

var (
	listStatus   string
	listCategory string
	listPriority string
	listOverdue  bool
	listPage     int
	listSize     int
	listSortBy   string
	listSortDir  string
	tasksJSON    bool
)

// taskFields are the editable fields shared by add and update.
type taskFields struct {
	description string
	priority    string
	category    string
	status      string
	due         string
	position    int
}

var addFields, updateFields taskFields
var updateTitle string

func (f *taskFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&f.priority, "priority", "", "LOW, MEDIUM, HIGH or URGENT")
	cmd.Flags().StringVar(&f.category, "category", "", "GENERAL, WORK, PERSONAL, HEALTH, LEARNING, SHOPPING, FINANCE or SOCIAL")
	cmd.Flags().StringVar(&f.status, "status", "", "PENDING, IN_PROGRESS, COMPLETED or CANCELLED")
	cmd.Flags().StringVar(&f.due, "due", "", "Due date (2006-01-02 or 2006-01-02T15:04)")
	cmd.Flags().IntVar(&f.position, "position", 0, "Position within the status column")
}

// apply copies the flags the user set onto req.
func (f *taskFields) apply(cmd *cobra.Command, req *task.Request) error {
	flags := cmd.Flags()
	if flags.Changed("description") {
		req.Description = f.description
	}
	if flags.Changed("priority") {
		p, err := task.ParsePriority(f.priority)
		if err != nil {
			return err
		}
		req.Priority = p
	}
	if flags.Changed("category") {
		c, err := task.ParseCategory(f.category)
		if err != nil {
			return err
		}
		req.Category = c
	}
	if flags.Changed("status") {
		s, err := task.ParseStatus(f.status)
		if err != nil {
			return err
		}
		req.Status = s
	}
	if flags.Changed("due") {
		if f.due == "" {
			req.DueDate = nil
		} else {
			ts, err := task.ParseTimestamp(f.due)
			if err != nil {
				return NewCLIError(fmt.Sprintf("invalid due date %q", f.due), "Use YYYY-MM-DD or YYYY-MM-DDTHH:MM", err)
			}
			req.DueDate = &ts
		}
	}
	if flags.Changed("position") {
		pos := f.position
		req.Position = &pos
	}
	return nil
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadSession()
		if err != nil {
			return err
		}
		tasks, footer, err := listTasks(cmd, services)
		if err != nil {
			return MapError(err)
		}
		out := cmd.OutOrStdout()
		if tasksJSON {
			return writeJSON(out, tasks)
		}
		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks.")
			return nil
		}
		printTaskTable(out, tasks)
		if footer != "" {
			fmt.Fprintln(out, footer)
		}
		return nil
	},
}

// listTasks picks the endpoint matching the filter flags. At most one
// filter applies; without one the paged listing is used.
func listTasks(cmd *cobra.Command, services *wiring.AppServices) ([]task.Task, string, error) {
	ctx := cmd.Context()
	client := services.Client
	filters := 0
	for _, set := range []bool{listStatus != "", listCategory != "", listPriority != "", listOverdue} {
		if set {
			filters++
		}
	}
	if filters > 1 {
		return nil, "", NewCLIError("only one of --status, --category, --priority, --overdue may be given", "", nil)
	}

	store := services.Tasks
	switch {
	case listStatus != "":
		s, err := task.ParseStatus(listStatus)
		if err != nil {
			return nil, "", err
		}
		return fetchFiltered(services, func() { store.FetchTasksByStatus(ctx, s) })
	case listCategory != "":
		c, err := task.ParseCategory(listCategory)
		if err != nil {
			return nil, "", err
		}
		return fetchFiltered(services, func() { store.FetchTasksByCategory(ctx, c) })
	case listPriority != "":
		p, err := task.ParsePriority(listPriority)
		if err != nil {
			return nil, "", err
		}
		return fetchFiltered(services, func() { store.FetchTasksByPriority(ctx, p) })
	case listOverdue:
		return fetchFiltered(services, func() { store.FetchOverdueTasks(ctx) })
	}

	size := listSize
	if !cmd.Flags().Changed("size") {
		size = services.Workspace.Config.PageSize
	}
	page, err := client.ListTasks(ctx, task.ListOptions{
		Page:    listPage,
		Size:    size,
		SortBy:  listSortBy,
		SortDir: listSortDir,
	})
	if err != nil {
		return nil, "", err
	}
	footer := fmt.Sprintf("Page %d of %d (%d tasks)", page.Number+1, max(page.TotalPages, 1), page.TotalElements)
	return page.Content, footer, nil
}

// fetchFiltered runs a task store fetch and reports the message it recorded.
func fetchFiltered(services *wiring.AppServices, fetch func()) ([]task.Task, string, error) {
	fetch()
	if !services.Auth.State().IsAuthenticated {
		return nil, "", sdk.ErrUnauthorized
	}
	st := services.Tasks.State()
	if st.Error != "" {
		return nil, "", NewCLIError(st.Error, "", nil)
	}
	return st.Tasks, "", nil
}

var tasksGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		services, err := loadSession()
		if err != nil {
			return err
		}
		t, err := services.Client.GetTask(cmd.Context(), id)
		if err != nil {
			return MapError(err)
		}
		if tasksJSON {
			return writeJSON(cmd.OutOrStdout(), t)
		}
		printTaskDetail(cmd.OutOrStdout(), *t)
		return nil
	},
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := task.Request{Title: strings.Join(args, " ")}
		if err := addFields.apply(cmd, &req); err != nil {
			return MapError(err)
		}
		if err := req.Validate(); err != nil {
			return MapError(err)
		}
		services, err := loadSession()
		if err != nil {
			return err
		}
		created, err := services.Tasks.CreateTask(cmd.Context(), req)
		if err != nil {
			return MapError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created task %d: %s\n", created.ID, created.Title)
		return nil
	},
}

var tasksUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of a task",
	Long:  "Change fields of a task. Only the flags given are changed; the rest keep their current values.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		services, err := loadSession()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		current, err := services.Client.GetTask(ctx, id)
		if err != nil {
			return MapError(err)
		}
		req := task.RequestFrom(*current)
		if cmd.Flags().Changed("title") {
			req.Title = updateTitle
		}
		if err := updateFields.apply(cmd, &req); err != nil {
			return MapError(err)
		}
		if err := req.Validate(); err != nil {
			return MapError(err)
		}
		updated, err := services.Tasks.UpdateTask(ctx, id, req)
		if err != nil {
			return MapError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated task %d: %s\n", updated.ID, updated.Title)
		return nil
	},
}

var tasksRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		services, err := loadSession()
		if err != nil {
			return err
		}
		if err := services.Tasks.DeleteTask(cmd.Context(), id); err != nil {
			return MapError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
		return nil
	},
}

var tasksMoveCmd = &cobra.Command{
	Use:   "move <id> <status>",
	Short: "Change the status of a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		status, err := task.ParseStatus(args[1])
		if err != nil {
			return MapError(err)
		}
		return runTaskChange(cmd, func(ctx context.Context, services *wiring.AppServices) (task.Task, error) {
			return services.Tasks.UpdateTaskStatus(ctx, id, status)
		})
	},
}

var tasksPositionCmd = &cobra.Command{
	Use:   "position <id> <n>",
	Short: "Move a task to a position within its column",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		pos, err := strconv.Atoi(args[1])
		if err != nil || pos < 0 {
			return NewCLIError(fmt.Sprintf("invalid position %q", args[1]), "Positions start at 0", err)
		}
		return runTaskChange(cmd, func(ctx context.Context, services *wiring.AppServices) (task.Task, error) {
			return services.Tasks.UpdateTaskPosition(ctx, id, pos)
		})
	},
}

func runTaskChange(cmd *cobra.Command, fn func(context.Context, *wiring.AppServices) (task.Task, error)) error {
	services, err := loadSession()
	if err != nil {
		return err
	}
	t, err := fn(cmd.Context(), services)
	if err != nil {
		return MapError(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s at position %d\n", t.ID, t.Status.DisplayName(), t.Position)
	return nil
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewCLIError(fmt.Sprintf("invalid task id %q", s), "Run 'smarttask tasks list' to see task ids", err)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTaskTable(w io.Writer, tasks []task.Task) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tCATEGORY\tDUE\tTITLE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil && !t.DueDate.IsZero() {
			due = t.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, t.Category, due, t.Title)
	}
	_ = tw.Flush()
}

func printTaskDetail(w io.Writer, t task.Task) {
	fmt.Fprintf(w, "Task %d: %s\n", t.ID, t.Title)
	fmt.Fprintf(w, "Status:   %s\n", t.Status.DisplayName())
	fmt.Fprintf(w, "Priority: %s\n", t.Priority.DisplayName())
	fmt.Fprintf(w, "Category: %s\n", t.Category.DisplayName())
	fmt.Fprintf(w, "Position: %d\n", t.Position)
	if t.DueDate != nil && !t.DueDate.IsZero() {
		fmt.Fprintf(w, "Due:      %s\n", t.DueDate.Format("2006-01-02 15:04"))
	}
	if t.CompletedAt != nil && !t.CompletedAt.IsZero() {
		fmt.Fprintf(w, "Done:     %s\n", t.CompletedAt.Format("2006-01-02 15:04"))
	}
	if t.Description != "" {
		fmt.Fprintf(w, "\n%s\n", t.Description)
	}
	if t.AISuggestion != "" {
		fmt.Fprintf(w, "\nSuggestion: %s\n", t.AISuggestion)
	}
}

func init() {
	tasksListCmd.Flags().StringVar(&listStatus, "status", "", "Only tasks with this status")
	tasksListCmd.Flags().StringVar(&listCategory, "category", "", "Only tasks in this category")
	tasksListCmd.Flags().StringVar(&listPriority, "priority", "", "Only tasks with this priority")
	tasksListCmd.Flags().BoolVar(&listOverdue, "overdue", false, "Only overdue tasks")
	tasksListCmd.Flags().IntVar(&listPage, "page", 0, "Page number, starting at 0")
	tasksListCmd.Flags().IntVar(&listSize, "size", 0, "Page size (default from config)")
	tasksListCmd.Flags().StringVar(&listSortBy, "sort-by", "createdAt", "Field to sort by")
	tasksListCmd.Flags().StringVar(&listSortDir, "sort-dir", "desc", "asc or desc")
	tasksCmd.PersistentFlags().BoolVar(&tasksJSON, "json", false, "Output in JSON format")

	addFields.register(tasksAddCmd)
	updateFields.register(tasksUpdateCmd)
	tasksUpdateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "New title")

	tasksCmd.AddCommand(tasksListCmd, tasksGetCmd, tasksAddCmd, tasksUpdateCmd, tasksRemoveCmd, tasksMoveCmd, tasksPositionCmd)
	RootCmd.AddCommand(tasksCmd)
}
