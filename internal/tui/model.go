package tui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/hylla/hackboard/internal/app"
	"github.com/hylla/hackboard/internal/domain"
)

// Service is the slice of the application service the board needs.
type Service interface {
	ListTeams(context.Context) ([]domain.Team, error)
	ListTeamMembers(context.Context, string) ([]domain.Member, error)
	GetBoard(context.Context, string) (*domain.Board, error)
	CreateTask(context.Context, app.CreateTaskInput) (domain.Task, error)
	MoveTask(context.Context, app.MoveTaskInput) (domain.Task, error)
	Now() time.Time
}

type inputMode int

const (
	modeNone inputMode = iota
	modeAddTask
	modeTaskInfo
)

// new-task form field indexes in display order.
const (
	formFieldTitle = iota
	formFieldAssignee
	formFieldPriority
	formFieldDeadline
	formFieldDescription
	formFieldCount
)

// Model is the bubbletea model for one team board at a time.
type Model struct {
	svc      Service
	actor    string
	copyText func(string) error
	markdown *markdownRenderer

	ready  bool
	width  int
	height int
	err    error
	status string

	help     help.Model
	keys     keyMap
	formKeys formKeyMap

	preferredTeam  string
	teams          []domain.Team
	selectedTeam   int
	members        []domain.Member
	board          *domain.Board
	now            time.Time
	selectedColumn int
	selectedTask   int
	focusTaskID    string

	mode       inputMode
	formInputs []textinput.Model
	formFocus  int
}

type loadedMsg struct {
	teams        []domain.Team
	selectedTeam int
	members      []domain.Member
	board        *domain.Board
	now          time.Time
	err          error
}

type actionMsg struct {
	err         error
	status      string
	reload      bool
	focusTaskID string
}

// NewModel constructs a board model over svc.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:      svc,
		copyText: clipboard.WriteAll,
		markdown: &markdownRenderer{},
		status:   "loading...",
		help:     h,
		keys:     newKeyMap(),
		formKeys: newFormKeyMap(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.loadData
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.preferredTeam = ""
		m.teams = msg.teams
		m.selectedTeam = msg.selectedTeam
		m.members = msg.members
		m.board = msg.board
		m.now = msg.now
		if m.focusTaskID != "" {
			m.focusTask(m.focusTaskID)
			m.focusTaskID = ""
		}
		m.clampSelection()
		if len(m.teams) == 0 {
			m.status = "no teams yet: run hackboard team add or hackboard seed"
		} else if m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
			return m, nil
		}
		if m.mode == modeAddTask {
			m.mode = modeNone
			m.formInputs = nil
		}
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.focusTaskID != "" {
			m.focusTaskID = msg.focusTaskID
		}
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case tea.KeyPressMsg:
		switch m.mode {
		case modeAddTask:
			return m.handleFormKey(msg)
		case modeTaskInfo:
			return m.handleInfoKey(msg)
		}
		return m.handleNormalModeKey(msg)
	}

	if m.mode == modeAddTask {
		return m.updateFocusedInput(msg)
	}
	return m, nil
}

func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m Model) loadData() tea.Msg {
	ctx := context.Background()
	teams, err := m.svc.ListTeams(ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	if len(teams) == 0 {
		return loadedMsg{teams: teams, now: m.svc.Now()}
	}

	idx := clamp(m.selectedTeam, 0, len(teams)-1)
	if want := strings.ToLower(m.preferredTeam); want != "" {
		for i, team := range teams {
			if strings.ToLower(team.ID) == want || team.Slug == want || strings.ToLower(team.Name) == want {
				idx = i
				break
			}
		}
	}

	teamID := teams[idx].ID
	board, err := m.svc.GetBoard(ctx, teamID)
	if err != nil {
		return loadedMsg{err: err}
	}
	members, err := m.svc.ListTeamMembers(ctx, teamID)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{
		teams:        teams,
		selectedTeam: idx,
		members:      members,
		board:        board,
		now:          m.svc.Now(),
	}
}

func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.nextTeam):
		if len(m.teams) < 2 {
			return m, nil
		}
		m.selectedTeam = (m.selectedTeam + 1) % len(m.teams)
		m.selectedColumn, m.selectedTask = 0, 0
		return m, m.loadData
	}

	if m.board == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.moveLeft):
		m.selectedColumn--
		m.clampSelection()
	case key.Matches(msg, m.keys.moveRight):
		m.selectedColumn++
		m.clampSelection()
	case key.Matches(msg, m.keys.moveUp):
		m.selectedTask--
		m.clampSelection()
	case key.Matches(msg, m.keys.moveDown):
		m.selectedTask++
		m.clampSelection()
	case key.Matches(msg, m.keys.moveTaskLeft):
		return m.moveSelected(-1, 0)
	case key.Matches(msg, m.keys.moveTaskRight):
		return m.moveSelected(1, 0)
	case key.Matches(msg, m.keys.moveTaskUp):
		return m.moveSelected(0, -1)
	case key.Matches(msg, m.keys.moveTaskDown):
		return m.moveSelected(0, 1)
	case key.Matches(msg, m.keys.addTask):
		return m.startTaskForm()
	case key.Matches(msg, m.keys.taskInfo):
		if _, ok := m.selectedTaskValue(); !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.mode = modeTaskInfo
	case key.Matches(msg, m.keys.copyID):
		return m.copySelectedID()
	}
	return m, nil
}

func (m Model) handleInfoKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKeys.cancel), key.Matches(msg, m.keys.taskInfo), key.Matches(msg, m.keys.quit):
		m.mode = modeNone
		return m, nil
	case key.Matches(msg, m.keys.copyID):
		return m.copySelectedID()
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKeys.cancel):
		m.mode = modeNone
		m.formInputs = nil
		m.status = "cancelled"
		return m, nil
	case key.Matches(msg, m.formKeys.next):
		return m.focusFormField(m.formFocus + 1)
	case key.Matches(msg, m.formKeys.prev):
		return m.focusFormField(m.formFocus - 1)
	case key.Matches(msg, m.formKeys.submit):
		return m.submitTaskForm()
	}
	return m.updateFocusedInput(msg)
}

func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.formFocus < 0 || m.formFocus >= len(m.formInputs) {
		return m, nil
	}
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

func (m Model) startTaskForm() (tea.Model, tea.Cmd) {
	placeholders := [formFieldCount]struct{ prompt, placeholder string }{
		formFieldTitle:       {"title: ", "required"},
		formFieldAssignee:    {"assignee: ", "member name or id"},
		formFieldPriority:    {"priority: ", "low | medium | high"},
		formFieldDeadline:    {"deadline: ", domain.DeadlineLayout + " (optional)"},
		formFieldDescription: {"description: ", "markdown (optional)"},
	}
	inputs := make([]textinput.Model, formFieldCount)
	for idx, p := range placeholders {
		in := textinput.New()
		in.Prompt = p.prompt
		in.Placeholder = p.placeholder
		in.CharLimit = 240
		inputs[idx] = in
	}
	inputs[formFieldPriority].SetValue(string(domain.PriorityMedium))
	if len(m.members) > 0 {
		inputs[formFieldAssignee].SetValue(m.members[0].Name)
	}

	m.mode = modeAddTask
	m.formInputs = inputs
	m.status = "new task"
	return m.focusFormField(formFieldTitle)
}

func (m Model) focusFormField(idx int) (tea.Model, tea.Cmd) {
	if len(m.formInputs) == 0 {
		return m, nil
	}
	idx = (idx%len(m.formInputs) + len(m.formInputs)) % len(m.formInputs)
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	m.formFocus = idx
	return m, m.formInputs[idx].Focus()
}

func (m Model) submitTaskForm() (tea.Model, tea.Cmd) {
	if m.board == nil || len(m.formInputs) != formFieldCount {
		return m, nil
	}
	value := func(idx int) string { return strings.TrimSpace(m.formInputs[idx].Value()) }

	title := value(formFieldTitle)
	if title == "" {
		m.status = "error: title is required"
		return m.focusFormField(formFieldTitle)
	}
	deadline, err := domain.ParseDeadline(value(formFieldDeadline))
	if err != nil {
		m.status = "error: deadline must be " + domain.DeadlineLayout
		return m.focusFormField(formFieldDeadline)
	}

	in := app.CreateTaskInput{
		TeamID:      m.board.TeamID,
		Title:       title,
		Description: value(formFieldDescription),
		AssigneeID:  m.resolveAssignee(value(formFieldAssignee)),
		Priority:    domain.Priority(strings.ToLower(value(formFieldPriority))),
		Deadline:    deadline,
		CreatedBy:   m.actor,
	}
	svc := m.svc
	return m, func() tea.Msg {
		task, err := svc.CreateTask(context.Background(), in)
		if err != nil {
			return actionMsg{err: fmt.Errorf("create task: %w", err)}
		}
		return actionMsg{status: fmt.Sprintf("created %q", task.Title), reload: true, focusTaskID: task.ID}
	}
}

// resolveAssignee maps a roster name to its member id; unknown values pass through.
func (m Model) resolveAssignee(raw string) string {
	for _, member := range m.members {
		if member.ID == raw {
			return member.ID
		}
	}
	for _, member := range m.members {
		if strings.EqualFold(member.Name, raw) {
			return member.ID
		}
	}
	return raw
}

// moveSelected moves the selected task across columns or within its column.
// Cross-column moves append to the destination.
func (m Model) moveSelected(columnDelta, indexDelta int) (tea.Model, tea.Cmd) {
	task, ok := m.selectedTaskValue()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	from, ok := m.board.Locate(task.ID)
	if !ok {
		return m, m.loadData
	}

	statuses := domain.Statuses()
	colIdx := from.Column.Index() + columnDelta
	if colIdx < 0 || colIdx >= len(statuses) {
		return m, nil
	}
	to := domain.Location{Column: statuses[colIdx], Index: from.Index + indexDelta}
	if columnDelta != 0 {
		to.Index = len(m.board.ColumnTasks(to.Column))
	} else if to.Index < 0 || to.Index >= len(m.board.ColumnTasks(to.Column)) {
		return m, nil
	}

	title := m.columnTitle(to.Column)
	svc, actor := m.svc, m.actor
	in := app.MoveTaskInput{TaskID: task.ID, From: from, To: to, Actor: actor}
	return m, func() tea.Msg {
		moved, err := svc.MoveTask(context.Background(), in)
		if err != nil {
			if errors.Is(err, domain.ErrPrecondition) {
				return actionMsg{err: fmt.Errorf("board changed, reload with r: %w", err)}
			}
			return actionMsg{err: fmt.Errorf("move task: %w", err)}
		}
		return actionMsg{status: fmt.Sprintf("moved %q to %s", moved.Title, title), reload: true, focusTaskID: moved.ID}
	}
}

func (m Model) copySelectedID() (tea.Model, tea.Cmd) {
	task, ok := m.selectedTaskValue()
	if !ok {
		m.status = "no task selected"
		return m, nil
	}
	write := m.copyText
	return m, func() tea.Msg {
		if err := write(task.ID); err != nil {
			return actionMsg{err: fmt.Errorf("copy task id: %w", err)}
		}
		return actionMsg{status: "copied task id " + task.ID}
	}
}

func (m Model) selectedTaskValue() (domain.Task, bool) {
	if m.board == nil {
		return domain.Task{}, false
	}
	statuses := domain.Statuses()
	if m.selectedColumn < 0 || m.selectedColumn >= len(statuses) {
		return domain.Task{}, false
	}
	tasks := m.board.ColumnTasks(statuses[m.selectedColumn])
	if m.selectedTask < 0 || m.selectedTask >= len(tasks) {
		return domain.Task{}, false
	}
	return tasks[m.selectedTask], true
}

func (m *Model) focusTask(taskID string) {
	if m.board == nil {
		return
	}
	loc, ok := m.board.Locate(taskID)
	if !ok {
		return
	}
	m.selectedColumn = loc.Column.Index()
	m.selectedTask = loc.Index
}

func (m *Model) clampSelection() {
	statuses := domain.Statuses()
	m.selectedColumn = clamp(m.selectedColumn, 0, len(statuses)-1)
	if m.board == nil {
		m.selectedTask = 0
		return
	}
	count := len(m.board.ColumnTasks(statuses[m.selectedColumn]))
	m.selectedTask = clamp(m.selectedTask, 0, count-1)
}

func (m Model) columnTitle(status domain.Status) string {
	if m.board != nil {
		if column, err := m.board.Column(status); err == nil && column.Title != "" {
			return column.Title
		}
	}
	return string(status)
}

func (m Model) render() string {
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	accent := lipgloss.Color("62")

	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	}
	if !m.ready {
		return "loading..."
	}

	sections := []string{m.renderHeader(accent, muted)}
	switch {
	case len(m.teams) == 0 || m.board == nil:
		sections = append(sections, "", "No teams yet.")
	case m.mode == modeAddTask:
		sections = append(sections, m.renderTaskForm(accent, muted))
	case m.mode == modeTaskInfo:
		sections = append(sections, m.renderTaskInfo(accent))
	default:
		sections = append(sections, m.renderColumns(muted))
	}
	if m.board != nil {
		sections = append(sections, m.renderStats(muted))
	}
	if status := strings.TrimSpace(m.status); status != "" {
		style := lipgloss.NewStyle().Foreground(dim)
		if strings.HasPrefix(status, "error:") {
			style = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
		}
		sections = append(sections, style.Render(status))
	}

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	var helpView string
	if m.mode == modeAddTask {
		helpView = helpBubble.View(m.formKeys)
	} else {
		helpView = helpBubble.View(m.keys)
	}
	sections = append(sections, lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpView))

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader(accent, muted color.Color) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render("hackboard")
	active := lipgloss.NewStyle().Bold(true).Foreground(accent)
	inactive := lipgloss.NewStyle().Foreground(muted)

	tabs := make([]string, 0, len(m.teams))
	for idx, team := range m.teams {
		if idx == m.selectedTeam {
			tabs = append(tabs, active.Render(team.Name))
			continue
		}
		tabs = append(tabs, inactive.Render(team.Name))
	}
	if len(tabs) == 0 {
		return title
	}
	return title + "  " + strings.Join(tabs, "  ")
}

func (m Model) renderColumns(muted color.Color) string {
	columns := m.board.Columns()
	colWidth := max(24, (m.width-2)/max(1, len(columns))-2)
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	itemStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	subStyle := lipgloss.NewStyle().Foreground(muted)
	overdueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	rendered := make([]string, 0, len(columns))
	for colIdx, column := range columns {
		borderColor := columnColor(column.Color)
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1).
			Width(colWidth)
		if colIdx == m.selectedColumn {
			box = box.Border(lipgloss.ThickBorder())
		}

		tasks := m.board.ColumnTasks(column.ID)
		lines := []string{
			lipgloss.NewStyle().Bold(true).Foreground(borderColor).Render(fmt.Sprintf("%s (%d)", column.Title, len(tasks))),
			"",
		}
		if len(tasks) == 0 {
			lines = append(lines, subStyle.Render("no tasks"))
		}
		for taskIdx, task := range tasks {
			prefix := "  "
			style := itemStyle
			if colIdx == m.selectedColumn && taskIdx == m.selectedTask {
				prefix = "› "
				style = selectedStyle
			}
			lines = append(lines, style.Render(prefix+truncate(task.Title, colWidth-4)))

			meta := []string{assigneeLabel(task), string(task.Priority)}
			sub := subStyle.Render("  " + strings.Join(meta, " • "))
			if deadline := domain.FormatDeadline(task.Deadline); deadline != "" {
				if task.IsOverdue(m.now) {
					sub += overdueStyle.Render(" • due " + deadline + " !")
				} else {
					sub += subStyle.Render(" • due " + deadline)
				}
			}
			lines = append(lines, sub)
		}
		rendered = append(rendered, box.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderStats(muted color.Color) string {
	stats := m.board.Stats(m.now)
	line := fmt.Sprintf("total %d • todo %d • in progress %d • done %d", stats.Total, stats.Todo, stats.InProgress, stats.Done)
	out := lipgloss.NewStyle().Foreground(muted).Render(line)
	if stats.Overdue > 0 {
		out += lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")).Render(fmt.Sprintf(" • overdue %d", stats.Overdue))
	}
	return out
}

func (m Model) renderTaskForm(accent, muted color.Color) string {
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accent).Render("New task"), ""}
	for _, in := range m.formInputs {
		lines = append(lines, in.View())
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(muted).Render("new tasks land at the end of "+m.columnTitle(domain.StatusTodo)))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderTaskInfo(accent color.Color) string {
	task, ok := m.selectedTaskValue()
	if !ok {
		return "no task selected"
	}
	width := max(24, m.width-6)
	body := m.markdown.render(taskMarkdown(task, m.columnTitle(task.Status), m.now), width)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Render(body)
}

func assigneeLabel(task domain.Task) string {
	name := strings.TrimSpace(task.AssigneeName)
	if name == "" {
		name = task.AssigneeID
	}
	if avatar := strings.TrimSpace(task.AssigneeAvatar); avatar != "" && !strings.Contains(avatar, "/") {
		return avatar + " " + name
	}
	return name
}

// columnColor maps stored border classes such as "border-blue-300" onto terminal colors.
// Hex and ANSI values are used as is.
func columnColor(raw string) color.Color {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "#"), raw != "" && strings.Trim(raw, "0123456789") == "":
		return lipgloss.Color(raw)
	case strings.Contains(raw, "blue"), strings.Contains(raw, "sky"):
		return lipgloss.Color("75")
	case strings.Contains(raw, "green"), strings.Contains(raw, "emerald"):
		return lipgloss.Color("114")
	case strings.Contains(raw, "amber"), strings.Contains(raw, "yellow"):
		return lipgloss.Color("221")
	case strings.Contains(raw, "red"), strings.Contains(raw, "rose"):
		return lipgloss.Color("203")
	case strings.Contains(raw, "gray"), strings.Contains(raw, "slate"):
		return lipgloss.Color("250")
	default:
		return lipgloss.Color("62")
	}
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width-1 {
		runes = runes[:width-1]
	}
	return string(runes) + "…"
}

func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
