package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/smarttask/pkg/application"
	"github.com/felixgeelhaar/smarttask/pkg/domain/auth"
	"github.com/felixgeelhaar/smarttask/pkg/domain/board"
	"github.com/felixgeelhaar/smarttask/pkg/domain/task"
)

// assistant is the AI part of the API client.
type assistant interface {
	Summarize(ctx context.Context) (string, error)
	Suggestion(ctx context.Context, id int64) (string, error)
	AnalyzeProductivity(ctx context.Context) (string, error)
}

type (
	storeChangedMsg struct{}
	tasksFetchedMsg struct{}
	opDoneMsg       struct {
		notice string
		err    error
	}
	aiResultMsg struct {
		title string
		text  string
		err   error
	}
	suggestionMsg struct {
		taskID int64
		text   string
		err    error
	}
	loginDoneMsg struct{ err error }
)

var (
	boardHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#7D56F4")).
				Padding(0, 1)

	columnStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	columnTitleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	cursorCardStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	carriedCardStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	dropMarkerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	overdueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	failureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// bindings is a flat help.KeyMap.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

type boardKeys struct {
	Up, Down, Left, Right key.Binding
	Pick, Drop, Open      key.Binding
	Add, Submit, Switch   key.Binding
	Summary, Productivity key.Binding
	Suggest, Refresh      key.Binding
	Delete, Logout        key.Binding
	Cancel, Quit, Force   key.Binding
}

func newBoardKeys() boardKeys {
	return boardKeys{
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:         key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:        key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Pick:         key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pick up")),
		Drop:         key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "drop")),
		Open:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Add:          key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Submit:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Switch:       key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		Summary:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "summary")),
		Productivity: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "productivity")),
		Suggest:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "suggest")),
		Refresh:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Delete:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Logout:       key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
		Cancel:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Quit:         key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		Force:        key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k boardKeys) forMode(mode string) bindings {
	switch mode {
	case board.ModeCarrying:
		return bindings{k.Left, k.Right, k.Up, k.Down, k.Drop, k.Cancel}
	case board.ModeComposing, board.ModeLogin:
		return bindings{k.Switch, k.Submit, k.Cancel}
	case board.ModeDetail:
		return bindings{k.Suggest, k.Delete, k.Cancel}
	default:
		return bindings{k.Left, k.Right, k.Pick, k.Open, k.Add, k.Summary, k.Productivity, k.Refresh, k.Delete, k.Logout, k.Quit}
	}
}

type boardModel struct {
	ctx     context.Context
	auth    *application.AuthStore
	tasks   *application.TaskStore
	ai      assistant
	modes   *board.ModeMachine
	keys    boardKeys
	help    help.Model
	spinner spinner.Model

	col, row         int
	carry            board.Card
	dropCol, dropRow int

	// add-task form
	title, description textinput.Model
	formErr            string

	// login form
	username, password textinput.Model

	aiLoading  bool
	aiTitle    string
	aiText     string
	suggesting bool
	suggestion string

	notice  string
	failure string
	width   int
}

func newBoardModel(ctx context.Context, authStore *application.AuthStore, tasks *application.TaskStore, ai assistant) (boardModel, error) {
	modes, err := board.NewModeMachine(func() bool { return authStore.State().IsAuthenticated })
	if err != nil {
		return boardModel{}, err
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := boardModel{
		ctx:         ctx,
		auth:        authStore,
		tasks:       tasks,
		ai:          ai,
		modes:       modes,
		keys:        newBoardKeys(),
		help:        help.New(),
		spinner:     s,
		title:       newInput("What needs doing?", 200),
		description: newInput("Optional details", 1000),
		username:    newInput("username", 50),
		password:    newInput("password", 100),
	}
	m.password.EchoMode = textinput.EchoPassword
	if modes.Is(board.ModeLogin) {
		m.username.Focus()
	}
	return m, nil
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 40
	return in
}

func (m boardModel) Init() tea.Cmd {
	if m.modes.Is(board.ModeLogin) {
		return textinput.Blink
	}
	return m.fetch()
}

// --- commands ---

func (m boardModel) fetch() tea.Cmd {
	ctx, tasks := m.ctx, m.tasks
	return func() tea.Msg {
		tasks.FetchTasks(ctx)
		return tasksFetchedMsg{}
	}
}

// write runs fn, then refetches on success.
func (m boardModel) write(notice string, fn func(context.Context) error) tea.Cmd {
	ctx, tasks := m.ctx, m.tasks
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return opDoneMsg{err: err}
		}
		tasks.FetchTasks(ctx)
		return opDoneMsg{notice: notice}
	}
}

// move applies a drop. The store replaces the moved entry in place;
// reorders also reload the column quietly to pick up server renumbering.
func (m boardModel) move(mv board.Move) tea.Cmd {
	ctx, tasks := m.ctx, m.tasks
	switch mv.Kind {
	case board.MoveStatus:
		return func() tea.Msg {
			if _, err := tasks.UpdateTaskStatus(ctx, mv.TaskID, mv.Status); err != nil {
				return opDoneMsg{err: err}
			}
			return opDoneMsg{notice: fmt.Sprintf("Moved task %d to %s", mv.TaskID, mv.Status.DisplayName())}
		}
	case board.MovePosition:
		return func() tea.Msg {
			if _, err := tasks.UpdateTaskPosition(ctx, mv.TaskID, mv.Position); err != nil {
				return opDoneMsg{err: err}
			}
			tasks.RefreshTasks(ctx)
			return opDoneMsg{notice: fmt.Sprintf("Moved task %d to position %d", mv.TaskID, mv.Position)}
		}
	default:
		return nil
	}
}

func (m boardModel) askAI(title string, fn func(context.Context) (string, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		text, err := fn(ctx)
		return aiResultMsg{title: title, text: text, err: err}
	}
}

func (m boardModel) suggest(id int64) tea.Cmd {
	ctx, ai := m.ctx, m.ai
	return func() tea.Msg {
		text, err := ai.Suggestion(ctx, id)
		return suggestionMsg{taskID: id, text: text, err: err}
	}
}

func (m boardModel) login(creds auth.Credentials) tea.Cmd {
	ctx, store := m.ctx, m.auth
	return func() tea.Msg {
		return loginDoneMsg{err: store.Login(ctx, creds)}
	}
}

// --- update ---

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case spinner.TickMsg:
		if m.aiLoading || m.suggesting {
			m.spinner, cmd = m.spinner.Update(msg)
		}
	case storeChangedMsg, tasksFetchedMsg:
	case opDoneMsg:
		if msg.err == nil {
			m.notice = msg.notice
		} else {
			m.notice = ""
		}
	case aiResultMsg:
		m.aiLoading = false
		if msg.err != nil {
			m.failure = application.ErrorMessage(msg.err, "AI request failed")
			break
		}
		m.aiTitle, m.aiText = msg.title, strings.TrimSpace(msg.text)
	case suggestionMsg:
		m.suggesting = false
		if msg.err != nil {
			m.failure = application.ErrorMessage(msg.err, "Failed to get suggestion")
			break
		}
		if sel := m.tasks.State().Selected; sel != nil && sel.ID == msg.taskID {
			m.suggestion = strings.TrimSpace(msg.text)
		}
	case loginDoneMsg:
		if msg.err != nil {
			m.password.Reset()
		}
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Force) {
			return m, tea.Quit
		}
		m, cmd = m.handleKey(msg)
	default:
		cmd = m.updateInputs(msg)
	}

	m.clampCursor()
	if follow := m.syncSession(); follow != nil {
		return m, tea.Batch(cmd, follow)
	}
	return m, cmd
}

// syncSession moves between the login screen and the board as the
// session comes and goes.
func (m *boardModel) syncSession() tea.Cmd {
	authenticated := m.auth.State().IsAuthenticated
	inLogin := m.modes.Is(board.ModeLogin)
	switch {
	case authenticated && inLogin:
		if !m.modes.Send(board.EventAuthenticate) {
			return nil
		}
		m.resetLogin()
		m.failure = ""
		return m.fetch()
	case authenticated || inLogin:
		return nil
	}
	m.modes.Send(board.EventExpire)
	m.aiLoading, m.suggesting = false, false
	m.aiText, m.suggestion, m.notice = "", "", ""
	m.title.Blur()
	m.description.Blur()
	m.resetLogin()
	return m.username.Focus()
}

func (m *boardModel) resetLogin() {
	m.username.Reset()
	m.password.Reset()
	m.password.Blur()
	m.username.Blur()
}

func (m boardModel) handleKey(msg tea.KeyMsg) (boardModel, tea.Cmd) {
	switch m.modes.Current() {
	case board.ModeCarrying:
		return m.carryingKey(msg)
	case board.ModeComposing:
		return m.composingKey(msg)
	case board.ModeDetail:
		return m.detailKey(msg)
	case board.ModeLogin:
		return m.loginKey(msg)
	default:
		return m.browsingKey(msg)
	}
}

func (m boardModel) browsingKey(msg tea.KeyMsg) (boardModel, tea.Cmd) {
	b := board.Group(m.tasks.State().Tasks)
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Left):
		m.col--
	case key.Matches(msg, m.keys.Right):
		m.col++
	case key.Matches(msg, m.keys.Up):
		m.row--
	case key.Matches(msg, m.keys.Down):
		m.row++
	case key.Matches(msg, m.keys.Pick):
		if card, ok := b.CardAt(m.col, m.row); ok {
			m.carry = card
			m.dropCol, m.dropRow = m.col, m.row
			m.modes.Send(board.EventPick)
		}
	case key.Matches(msg, m.keys.Open):
		if card, ok := b.CardAt(m.col, m.row); ok {
			t := b.Columns[m.col].Tasks[card.Index]
			m.tasks.SelectTask(&t)
			m.suggestion = t.AISuggestion
			m.modes.Send(board.EventOpen)
		}
	case key.Matches(msg, m.keys.Add):
		m.modes.Send(board.EventCompose)
		m.title.Reset()
		m.description.Reset()
		m.description.Blur()
		m.formErr = ""
		return m, m.title.Focus()
	case key.Matches(msg, m.keys.Summary), key.Matches(msg, m.keys.Productivity):
		if m.aiLoading {
			break
		}
		m.aiLoading = true
		m.failure = ""
		fetch := m.askAI("Summary", m.ai.Summarize)
		if key.Matches(msg, m.keys.Productivity) {
			fetch = m.askAI("Productivity", m.ai.AnalyzeProductivity)
		}
		return m, tea.Batch(m.spinner.Tick, fetch)
	case key.Matches(msg, m.keys.Refresh):
		m.tasks.ClearError()
		m.failure, m.notice = "", ""
		return m, m.fetch()
	case key.Matches(msg, m.keys.Delete):
		if card, ok := b.CardAt(m.col, m.row); ok {
			return m, m.deleteTask(card.TaskID)
		}
	case key.Matches(msg, m.keys.Logout):
		if err := m.auth.Logout(); err != nil {
			m.failure = err.Error()
		}
	case key.Matches(msg, m.keys.Cancel):
		m.aiTitle, m.aiText = "", ""
	}
	return m, nil
}

func (m boardModel) deleteTask(id int64) tea.Cmd {
	tasks := m.tasks
	return m.write(fmt.Sprintf("Deleted task %d", id), func(ctx context.Context) error {
		return tasks.DeleteTask(ctx, id)
	})
}

func (m boardModel) carryingKey(msg tea.KeyMsg) (boardModel, tea.Cmd) {
	b := board.Group(m.tasks.State().Tasks)
	switch {
	case key.Matches(msg, m.keys.Left):
		m.dropCol--
	case key.Matches(msg, m.keys.Right):
		m.dropCol++
	case key.Matches(msg, m.keys.Up):
		m.dropRow--
	case key.Matches(msg, m.keys.Down):
		m.dropRow++
	case key.Matches(msg, m.keys.Drop):
		m.clampDrop(b)
		mv := board.Resolve(m.carry, &board.Drop{Status: b.Columns[m.dropCol].Status, Index: m.dropRow})
		m.modes.Send(board.EventDrop)
		m.col, m.row = m.dropCol, m.dropRow
		return m, m.move(mv)
	case key.Matches(msg, m.keys.Cancel):
		m.modes.Send(board.EventCancel)
		return m, nil
	}
	m.clampDrop(b)
	return m, nil
}

// clampDrop keeps the drop target on the board. A foreign column accepts
// one slot past its last card.
func (m *boardModel) clampDrop(b board.Board) {
	m.dropCol = clamp(m.dropCol, 0, len(b.Columns)-1)
	last := len(b.Columns[m.dropCol].Tasks)
	if b.Columns[m.dropCol].Status == m.carry.Status {
		last--
	}
	m.dropRow = clamp(m.dropRow, 0, max(last, 0))
}

func (m boardModel) composingKey(msg tea.KeyMsg) (boardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.modes.Send(board.EventCancel)
		m.title.Blur()
		m.description.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Switch):
		if m.title.Focused() {
			m.title.Blur()
			return m, m.description.Focus()
		}
		m.description.Blur()
		return m, m.title.Focus()
	case key.Matches(msg, m.keys.Submit):
		req := task.Request{
			Title:       strings.TrimSpace(m.title.Value()),
			Description: strings.TrimSpace(m.description.Value()),
		}
		if err := req.Validate(); err != nil {
			m.formErr = "Title is required"
			return m, nil
		}
		m.modes.Send(board.EventSubmit)
		m.title.Blur()
		m.description.Blur()
		tasks := m.tasks
		return m, m.write("Created \""+req.Title+"\"", func(ctx context.Context) error {
			_, err := tasks.CreateTask(ctx, req)
			return err
		})
	}

	return m, m.updateInputs(msg)
}

func (m boardModel) detailKey(msg tea.KeyMsg) (boardModel, tea.Cmd) {
	sel := m.tasks.State().Selected
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.Quit):
		m.modes.Send(board.EventClose)
		m.tasks.SelectTask(nil)
		m.suggestion = ""
	case key.Matches(msg, m.keys.Suggest):
		if sel == nil || m.suggesting {
			break
		}
		m.suggesting = true
		m.failure = ""
		return m, tea.Batch(m.spinner.Tick, m.suggest(sel.ID))
	case key.Matches(msg, m.keys.Delete):
		if sel == nil {
			break
		}
		m.modes.Send(board.EventClose)
		m.suggestion = ""
		return m, m.deleteTask(sel.ID)
	}
	return m, nil
}

func (m boardModel) loginKey(msg tea.KeyMsg) (boardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Switch):
		if m.username.Focused() {
			m.username.Blur()
			return m, m.password.Focus()
		}
		m.password.Blur()
		return m, m.username.Focus()
	case key.Matches(msg, m.keys.Submit):
		creds := auth.Credentials{Username: strings.TrimSpace(m.username.Value()), Password: m.password.Value()}
		if creds.Username != "" && m.username.Focused() && creds.Password == "" {
			m.username.Blur()
			return m, m.password.Focus()
		}
		m.auth.ClearError()
		return m, m.login(creds)
	}

	return m, m.updateInputs(msg)
}

// updateInputs forwards msg to whichever text input has focus.
func (m *boardModel) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.title.Focused():
		m.title, cmd = m.title.Update(msg)
	case m.description.Focused():
		m.description, cmd = m.description.Update(msg)
	case m.username.Focused():
		m.username, cmd = m.username.Update(msg)
	case m.password.Focused():
		m.password, cmd = m.password.Update(msg)
	}
	return cmd
}

func (m *boardModel) clampCursor() {
	b := board.Group(m.tasks.State().Tasks)
	m.col = clamp(m.col, 0, len(b.Columns)-1)
	m.row = clamp(m.row, 0, max(len(b.Columns[m.col].Tasks)-1, 0))
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// --- view ---

func (m boardModel) View() string {
	if m.modes.Is(board.ModeLogin) {
		return m.loginView()
	}

	st := m.tasks.State()
	var sections []string
	sections = append(sections, m.headerView(st))
	sections = append(sections, m.columnsView(board.Group(st.Tasks)))

	switch {
	case m.modes.Is(board.ModeComposing):
		sections = append(sections, m.composeView())
	case m.modes.Is(board.ModeDetail) && st.Selected != nil:
		sections = append(sections, m.detailView(*st.Selected))
	case m.aiLoading:
		sections = append(sections, m.spinner.View()+" Asking the assistant...")
	case m.aiText != "":
		sections = append(sections, panelStyle.Render(m.aiTitle+"\n\n"+m.aiText))
	}

	if line := m.statusLine(st); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections, m.help.View(m.keys.forMode(m.modes.Current())))
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m boardModel) headerView(st application.TaskState) string {
	name := ""
	if user := m.auth.State().User; user != nil {
		name = user.Username
	}
	header := boardHeaderStyle.Render("Welcome, " + name)
	if st.IsLoading {
		header += mutedStyle.Render("  loading...")
	}
	return header
}

func (m boardModel) columnWidth() int {
	if m.width <= 0 {
		return 30
	}
	return max(20, (m.width-8)/3)
}

func (m boardModel) columnsView(b board.Board) string {
	width := m.columnWidth()
	carrying := m.modes.Is(board.ModeCarrying)
	now := time.Now()

	cols := make([]string, len(b.Columns))
	for ci, col := range b.Columns {
		lines := []string{columnTitleStyle.Render(fmt.Sprintf("%s (%d)", col.Label, len(col.Tasks)))}
		for ri, t := range col.Tasks {
			if carrying && ci == m.dropCol && ri == m.dropRow {
				lines = append(lines, dropMarkerStyle.Render("▸ drop here"))
			}
			lines = append(lines, m.cardView(t, ci, ri, carrying, now, width-4))
		}
		if carrying && ci == m.dropCol && m.dropRow >= len(col.Tasks) {
			lines = append(lines, dropMarkerStyle.Render("▸ drop here"))
		}
		if len(col.Tasks) == 0 && !(carrying && ci == m.dropCol) {
			lines = append(lines, mutedStyle.Render("(empty)"))
		}
		cols[ci] = columnStyle.Width(width).Render(strings.Join(lines, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m boardModel) cardView(t task.Task, col, row int, carrying bool, now time.Time, width int) string {
	line := truncate(fmt.Sprintf("#%d %s", t.ID, t.Title), width)
	meta := t.Priority.DisplayName()
	if t.DueDate != nil && !t.DueDate.IsZero() {
		meta += " · due " + t.DueDate.Format("Jan 2")
	}
	if t.IsOverdue(now) {
		meta = overdueStyle.Render(meta + " !")
	} else {
		meta = mutedStyle.Render(meta)
	}

	switch {
	case carrying && t.ID == m.carry.TaskID:
		line = carriedCardStyle.Render(line)
	case !carrying && col == m.col && row == m.row:
		line = cursorCardStyle.Render("> " + line)
	default:
		line = "  " + line
	}
	return line + "\n  " + meta
}

func (m boardModel) composeView() string {
	var b strings.Builder
	b.WriteString("New task\n\n")
	b.WriteString("Title\n" + m.title.View() + "\n\n")
	b.WriteString("Description\n" + m.description.View())
	if m.formErr != "" {
		b.WriteString("\n\n" + failureStyle.Render(m.formErr))
	}
	return panelStyle.Render(b.String())
}

func (m boardModel) detailView(t task.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n\n", t.ID, t.Title)
	fmt.Fprintf(&b, "Status:   %s\n", t.Status.DisplayName())
	fmt.Fprintf(&b, "Priority: %s\n", t.Priority.DisplayName())
	fmt.Fprintf(&b, "Category: %s\n", t.Category.DisplayName())
	if t.DueDate != nil && !t.DueDate.IsZero() {
		fmt.Fprintf(&b, "Due:      %s\n", t.DueDate.Format("2006-01-02 15:04"))
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Description)
	}
	switch {
	case m.suggesting:
		fmt.Fprintf(&b, "\n%s Thinking...", m.spinner.View())
	case m.suggestion != "":
		fmt.Fprintf(&b, "\nSuggestion: %s", m.suggestion)
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m boardModel) statusLine(st application.TaskState) string {
	switch {
	case st.Error != "":
		return failureStyle.Render(st.Error)
	case m.failure != "":
		return failureStyle.Render(m.failure)
	case m.notice != "":
		return noticeStyle.Render(m.notice)
	}
	return ""
}

func (m boardModel) loginView() string {
	var b strings.Builder
	b.WriteString(boardHeaderStyle.Render("SmartTask") + "\n\n")
	b.WriteString("Log in to continue\n\n")
	b.WriteString("Username\n" + m.username.View() + "\n\n")
	b.WriteString("Password\n" + m.password.View() + "\n")
	st := m.auth.State()
	switch {
	case st.IsLoading:
		b.WriteString("\n" + mutedStyle.Render("Logging in..."))
	case st.Error != "":
		b.WriteString("\n" + failureStyle.Render(st.Error))
	}
	b.WriteString("\n\n" + m.help.View(m.keys.forMode(board.ModeLogin)))
	return panelStyle.Render(b.String()) + "\n"
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
