// Package testutil provides an in-memory SmartTask backend for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/felixgeelhaar/smarttask/pkg/domain/auth"
	"github.com/felixgeelhaar/smarttask/pkg/domain/task"
)

// RecordedRequest is what the fake saw for one call.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
}

type fakeUser struct {
	id       int64
	password string
	profile  auth.Response
}

type failure struct {
	status  int
	message string
}

// FakeAPI is an in-memory implementation of the SmartTask REST API.
type FakeAPI struct {
	mu        sync.Mutex
	users     map[string]*fakeUser
	tokens    map[string]int64
	tasks     map[int64]task.Task
	nextUser  int64
	nextTask  int64
	nextToken int
	requests  []RecordedRequest
	failNext  *failure
	now       func() time.Time

	Summary    string
	Suggestion string
	Analysis   string
}

// NewFakeAPI creates an empty backend.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		users:      make(map[string]*fakeUser),
		tokens:     make(map[string]int64),
		tasks:      make(map[int64]task.Task),
		now:        time.Now,
		Summary:    "You have work to do.",
		Suggestion: "Break it into smaller steps.",
		Analysis:   "Steady progress.",
	}
}

// Serve starts an httptest server with the API mounted under /api.
func (f *FakeAPI) Serve() *httptest.Server {
	return httptest.NewServer(f.Router())
}

// Router returns the chi router serving /api.
func (f *FakeAPI) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", f.register)
		r.Post("/auth/login", f.login)

		r.Group(func(r chi.Router) {
			r.Use(f.authenticate)
			r.Use(f.injectFailure)

			r.Get("/tasks", f.listPage)
			r.Post("/tasks", f.create)
			r.Get("/tasks/ordered", f.ordered)
			r.Get("/tasks/overdue", f.overdue)
			r.Get("/tasks/status/{status}", f.byStatus)
			r.Get("/tasks/category/{category}", f.byCategory)
			r.Get("/tasks/priority/{priority}", f.byPriority)
			r.Post("/tasks/ai/summarize", f.summarize)
			r.Post("/tasks/ai/productivity", f.productivity)
			r.Get("/tasks/{id}", f.get)
			r.Put("/tasks/{id}", f.update)
			r.Delete("/tasks/{id}", f.delete)
			r.Patch("/tasks/{id}/status", f.patchStatus)
			r.Patch("/tasks/{id}/position", f.patchPosition)
			r.Post("/tasks/{id}/ai/suggestion", f.suggestion)
		})
	})
	return r
}

// AddUser registers an account directly.
func (f *FakeAPI) AddUser(username, password, email string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUserLocked(username, password, email, "")
}

func (f *FakeAPI) addUserLocked(username, password, email, fullName string) int64 {
	f.nextUser++
	id := f.nextUser
	f.users[username] = &fakeUser{
		id:       id,
		password: password,
		profile: auth.Response{
			Type:     "Bearer",
			UserID:   id,
			Username: username,
			Email:    email,
			FullName: fullName,
		},
	}
	return id
}

// IssueToken returns a valid token for an existing user.
func (f *FakeAPI) IssueToken(username string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return ""
	}
	return f.issueLocked(u.id)
}

func (f *FakeAPI) issueLocked(userID int64) string {
	f.nextToken++
	token := fmt.Sprintf("t%d", f.nextToken)
	f.tokens[token] = userID
	return token
}

// RevokeTokens invalidates every issued token.
func (f *FakeAPI) RevokeTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]int64)
}

// SeedTask stores t for the user, assigning an id when t.ID is zero.
func (f *FakeAPI) SeedTask(userID int64, t task.Task) task.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == 0 {
		f.nextTask++
		t.ID = f.nextTask
	} else if t.ID > f.nextTask {
		f.nextTask = t.ID
	}
	t.UserID = userID
	if t.Status == "" {
		t.Status = task.StatusPending
	}
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}
	if t.Category == "" {
		t.Category = task.CategoryGeneral
	}
	f.tasks[t.ID] = t
	return t
}

// Task returns the stored task.
func (f *FakeAPI) Task(id int64) (task.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	return t, ok
}

// FailNext makes the next authenticated /tasks call fail with status.
func (f *FakeAPI) FailNext(status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = &failure{status: status, message: message}
}

// Requests returns a copy of the recorded calls.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// LastRequest returns the most recent call.
func (f *FakeAPI) LastRequest() RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return RecordedRequest{}
	}
	return f.requests[len(f.requests)-1]
}

// --- middleware ---

type userKey struct{}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		_, ok := f.tokens[token]
		f.mu.Unlock()
		if token == "" || !ok {
			writeError(w, http.StatusUnauthorized, "Full authentication is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		fail := f.failNext
		f.failNext = nil
		f.mu.Unlock()
		if fail != nil {
			writeError(w, fail.status, fail.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) currentUser(r *http.Request) int64 {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[token]
}

// --- handlers ---

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var req auth.Registration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[req.Username]; exists {
		writeError(w, http.StatusBadRequest, "Username is already taken")
		return
	}
	id := f.addUserLocked(req.Username, req.Password, req.Email, req.FullName)
	resp := f.users[req.Username].profile
	resp.Token = f.issueLocked(id)
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var req auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[req.Username]
	if !ok || u.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	resp := u.profile
	resp.Token = f.issueLocked(u.id)
	writeJSON(w, http.StatusOK, resp)
}

func (f *FakeAPI) userTasks(userID int64, keep func(task.Task) bool) []task.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []task.Task{}
	for _, t := range f.tasks {
		if t.UserID == userID && (keep == nil || keep(t)) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *FakeAPI) listPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	if size <= 0 {
		size = 10
	}
	all := f.userTasks(f.currentUser(r), nil)
	if q.Get("sortDir") == "desc" {
		sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	}
	start := page * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	writeJSON(w, http.StatusOK, task.Page[task.Task]{
		Content:       all[start:end],
		TotalPages:    (len(all) + size - 1) / size,
		TotalElements: int64(len(all)),
		Size:          size,
		Number:        page,
	})
}

func (f *FakeAPI) ordered(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, f.userTasks(f.currentUser(r), nil))
}

func (f *FakeAPI) overdue(w http.ResponseWriter, r *http.Request) {
	now := f.now()
	writeJSON(w, http.StatusOK, f.userTasks(f.currentUser(r), func(t task.Task) bool {
		return t.IsOverdue(now)
	}))
}

func (f *FakeAPI) byStatus(w http.ResponseWriter, r *http.Request) {
	s := task.Status(chi.URLParam(r, "status"))
	if !s.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	writeJSON(w, http.StatusOK, f.userTasks(f.currentUser(r), func(t task.Task) bool { return t.Status == s }))
}

func (f *FakeAPI) byCategory(w http.ResponseWriter, r *http.Request) {
	c := task.Category(chi.URLParam(r, "category"))
	writeJSON(w, http.StatusOK, f.userTasks(f.currentUser(r), func(t task.Task) bool { return t.Category == c }))
}

func (f *FakeAPI) byPriority(w http.ResponseWriter, r *http.Request) {
	p := task.Priority(chi.URLParam(r, "priority"))
	writeJSON(w, http.StatusOK, f.userTasks(f.currentUser(r), func(t task.Task) bool { return t.Priority == p }))
}

func (f *FakeAPI) create(w http.ResponseWriter, r *http.Request) {
	var req task.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}
	now := task.NewTimestamp(f.now())
	t := task.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Category:    req.Category,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Position != nil {
		t.Position = *req.Position
	}
	writeJSON(w, http.StatusOK, f.SeedTask(f.currentUser(r), t))
}

// owned looks up the task in the URL and checks it belongs to the caller.
func (f *FakeAPI) owned(w http.ResponseWriter, r *http.Request) (task.Task, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return task.Task{}, false
	}
	userID := f.currentUser(r)
	t, ok := f.Task(id)
	if !ok || t.UserID != userID {
		writeError(w, http.StatusNotFound, "Task not found")
		return task.Task{}, false
	}
	return t, true
}

func (f *FakeAPI) save(t task.Task) task.Task {
	t.UpdatedAt = task.NewTimestamp(f.now())
	f.mu.Lock()
	f.tasks[t.ID] = t
	f.mu.Unlock()
	return t
}

func (f *FakeAPI) setStatus(t *task.Task, s task.Status) {
	t.Status = s
	if s == task.StatusCompleted {
		ts := task.NewTimestamp(f.now())
		t.CompletedAt = &ts
	} else {
		t.CompletedAt = nil
	}
}

func (f *FakeAPI) get(w http.ResponseWriter, r *http.Request) {
	if t, ok := f.owned(w, r); ok {
		writeJSON(w, http.StatusOK, t)
	}
}

func (f *FakeAPI) update(w http.ResponseWriter, r *http.Request) {
	t, ok := f.owned(w, r)
	if !ok {
		return
	}
	var req task.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Title != "" {
		t.Title = req.Title
	}
	if req.Description != "" {
		t.Description = req.Description
	}
	if req.Status != "" {
		f.setStatus(&t, req.Status)
	}
	if req.Priority != "" {
		t.Priority = req.Priority
	}
	if req.Category != "" {
		t.Category = req.Category
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate
	}
	if req.Position != nil {
		t.Position = *req.Position
	}
	writeJSON(w, http.StatusOK, f.save(t))
}

func (f *FakeAPI) delete(w http.ResponseWriter, r *http.Request) {
	t, ok := f.owned(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	delete(f.tasks, t.ID)
	f.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeAPI) patchStatus(w http.ResponseWriter, r *http.Request) {
	t, ok := f.owned(w, r)
	if !ok {
		return
	}
	s := task.Status(r.URL.Query().Get("status"))
	if !s.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	f.setStatus(&t, s)
	writeJSON(w, http.StatusOK, f.save(t))
}

func (f *FakeAPI) patchPosition(w http.ResponseWriter, r *http.Request) {
	t, ok := f.owned(w, r)
	if !ok {
		return
	}
	pos, err := strconv.Atoi(r.URL.Query().Get("position"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position")
		return
	}
	t.Position = pos
	writeJSON(w, http.StatusOK, f.save(t))
}

func (f *FakeAPI) summarize(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	summary := f.Summary
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (f *FakeAPI) productivity(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	analysis := f.Analysis
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"analysis": analysis})
}

func (f *FakeAPI) suggestion(w http.ResponseWriter, r *http.Request) {
	if _, ok := f.owned(w, r); !ok {
		return
	}
	f.mu.Lock()
	suggestion := f.Suggestion
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"suggestion": suggestion})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"status":  status,
		"error":   http.StatusText(status),
		"message": message,
	})
}
