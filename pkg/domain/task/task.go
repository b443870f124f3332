// Package task holds the task data model shared by the API client, the
// stores, and the board.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrTitleRequired is returned when a request carries a blank title.
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrInvalidCategory = errors.New("invalid task category")
)

// Task is the server's canonical representation of a task.
type Task struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Status       Status     `json:"status"`
	Priority     Priority   `json:"priority"`
	Category     Category   `json:"category"`
	DueDate      *Timestamp `json:"dueDate,omitempty"`
	CompletedAt  *Timestamp `json:"completedAt,omitempty"`
	AISummary    string     `json:"aiSummary,omitempty"`
	AISuggestion string     `json:"aiSuggestion,omitempty"`
	Position     int        `json:"position"`
	UserID       int64      `json:"userId"`
	CreatedAt    Timestamp  `json:"createdAt"`
	UpdatedAt    Timestamp  `json:"updatedAt"`
}

// IsOverdue reports whether the task has a due date before now and is still open.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.DueDate.IsZero() {
		return false
	}
	if t.Status == StatusCompleted || t.Status == StatusCancelled {
		return false
	}
	return t.DueDate.Before(now)
}

// Request is the body of create and update calls. Zero values are omitted
// so the server applies its defaults.
type Request struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	Category    Category   `json:"category,omitempty"`
	DueDate     *Timestamp `json:"dueDate,omitempty"`
	Position    *int       `json:"position,omitempty"`
}

// Validate checks the request before it is sent.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	if r.Status != "" && !r.Status.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, r.Status)
	}
	if r.Priority != "" && !r.Priority.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidPriority, r.Priority)
	}
	if r.Category != "" && !r.Category.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidCategory, r.Category)
	}
	return nil
}

// RequestFrom builds an update request carrying every editable field of t.
func RequestFrom(t Task) Request {
	pos := t.Position
	return Request{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		Category:    t.Category,
		DueDate:     t.DueDate,
		Position:    &pos,
	}
}

// Page is the paginated envelope returned by GET /tasks.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
}

// ListOptions controls pagination and sorting of GET /tasks.
type ListOptions struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

// DefaultListOptions mirrors the backend defaults.
func DefaultListOptions() ListOptions {
	return ListOptions{Page: 0, Size: 10, SortBy: "createdAt", SortDir: "desc"}
}

// WithDefaults fills unset fields from DefaultListOptions.
func (o ListOptions) WithDefaults() ListOptions {
	d := DefaultListOptions()
	if o.Page < 0 {
		o.Page = d.Page
	}
	if o.Size <= 0 {
		o.Size = d.Size
	}
	if o.SortBy == "" {
		o.SortBy = d.SortBy
	}
	switch strings.ToLower(o.SortDir) {
	case "asc":
		o.SortDir = "asc"
	default:
		o.SortDir = d.SortDir
	}
	return o
}

// IndexOf returns the index of the task with the given id, or -1.
func IndexOf(tasks []Task, id int64) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
