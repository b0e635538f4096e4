package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"todolist/internal/config"
	"todolist/internal/controller"
	"todolist/internal/todo"
)

type mode int

const (
	modeBrowse mode = iota
	modeForm
	modeConfirmDelete
)

// listsChangedMsg and tasksChangedMsg arrive when the store reports a write.
type (
	listsChangedMsg struct{}
	tasksChangedMsg struct{ ctrl *controller.TaskController }
)

type Model struct {
	ctx   context.Context
	svc   *todo.Service
	cfg   config.Config
	log   *slog.Logger
	lists *controller.TaskListController
	tasks *controller.TaskController

	listCursor int
	taskCursor int

	mode       mode
	form       form
	onConfirm  func(values []string) controller.Command
	pendingDel controller.Command
	status     string
	width      int
}

func Run(ctx context.Context, svc *todo.Service, cfg config.Config, logger *slog.Logger) error {
	m, err := NewModel(ctx, svc, cfg, logger)
	if err != nil {
		return err
	}
	defer m.lists.Detach()

	program := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := program.Run()
	if fm, ok := final.(Model); ok && fm.tasks != nil {
		fm.tasks.Detach()
	}
	return err
}

// NewModel builds the root model with the task-list screen attached.
func NewModel(ctx context.Context, svc *todo.Service, cfg config.Config, logger *slog.Logger) (Model, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sortMode, err := controller.ParseSortMode(cfg.DefaultSort)
	if err != nil {
		logger.Warn("ignoring default_sort", "err", err)
	}
	lists := controller.NewTaskListController(svc, sortMode)
	if err := lists.Attach(ctx); err != nil {
		return Model{}, err
	}
	return Model{
		ctx:    ctx,
		svc:    svc,
		cfg:    cfg,
		log:    logger,
		lists:  lists,
		mode:   modeBrowse,
		status: fmt.Sprintf("Press '%s' to add a list, %s to open it.", cfg.Keys.Add, cfg.Keys.Open),
	}, nil
}

func (m Model) Init() tea.Cmd {
	return waitForLists(m.lists.Changes())
}

func waitForLists(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return listsChangedMsg{}
	}
}

func waitForTasks(ctrl *controller.TaskController) tea.Cmd {
	ch := ctrl.Changes()
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return tasksChangedMsg{ctrl: ctrl}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(msg.String())
		}
		if m.tasks != nil {
			return m.updateTasks(msg.String())
		}
		return m.updateLists(msg.String())
	case listsChangedMsg:
		if err := m.lists.Reload(m.ctx); err != nil {
			m.fail("reload", err)
		}
		m.listCursor = clampCursor(m.listCursor, m.lists.NumberOfRows())
		return m, waitForLists(m.lists.Changes())
	case tasksChangedMsg:
		if msg.ctrl != m.tasks {
			return m, nil
		}
		if err := m.tasks.Reload(m.ctx); err != nil {
			m.fail("reload", err)
		}
		m.taskCursor = clampCursor(m.taskCursor, len(m.taskPaths()))
		return m, waitForTasks(m.tasks)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.form = m.form.setWidth(max(msg.Width-10, 10))
	}
	return m, nil
}

func (m Model) updateLists(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	n := m.lists.NumberOfRows()
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		m.listCursor = clampCursor(m.listCursor+1, n)
	case k.Up, "up":
		m.listCursor = clampCursor(m.listCursor-1, n)
	case k.Add:
		return m.openForm(m.lists.NewPrompt(), func(v []string) controller.Command {
			return controller.CreateTaskList{Title: v[0]}
		})
	case k.Sort:
		next := controller.SortAlphabetical
		if m.lists.SortMode() == controller.SortAlphabetical {
			next = controller.SortByDate
		}
		m.dispatchList(controller.SetSort{Mode: next}, "Sorted by "+next.Label())
	case k.Open:
		l, ok := m.lists.TaskList(m.listCursor)
		if !ok {
			m.status = "No task lists"
			return m, nil
		}
		ctrl := controller.NewTaskController(m.svc, l)
		if err := ctrl.Attach(m.ctx); err != nil {
			m.fail("open", err)
			return m, nil
		}
		m.tasks = ctrl
		m.taskCursor = 0
		m.status = fmt.Sprintf("Press '%s' to add a task, %s to go back.", k.Add, k.Back)
		return m, waitForTasks(ctrl)
	case k.Delete:
		l, ok := m.lists.TaskList(m.listCursor)
		if !ok {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.pendingDel = controller.DeleteTaskList{Row: m.listCursor}
		m.status = fmt.Sprintf("Delete \"%s\" and its tasks? y/n", controller.DisplayTitle(l.Title))
	case k.Edit:
		row := m.listCursor
		prompt, ok := m.lists.EditPrompt(row)
		if !ok {
			m.status = "No task lists to edit"
			return m, nil
		}
		return m.openForm(prompt, func(v []string) controller.Command {
			return controller.EditTaskList{Row: row, Title: v[0]}
		})
	case k.Done:
		if _, ok := m.lists.TaskList(m.listCursor); !ok {
			return m, nil
		}
		m.dispatchList(controller.CompleteTaskList{Row: m.listCursor}, "Marked all tasks done")
	}
	return m, nil
}

func (m Model) updateTasks(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	paths := m.taskPaths()
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Back, "left":
		m.tasks.Detach()
		m.tasks = nil
		if err := m.lists.Reload(m.ctx); err != nil {
			m.fail("reload", err)
		}
		m.status = ""
	case k.Down, "down":
		m.taskCursor = clampCursor(m.taskCursor+1, len(paths))
	case k.Up, "up":
		m.taskCursor = clampCursor(m.taskCursor-1, len(paths))
	case k.Add:
		return m.openForm(m.tasks.NewPrompt(), func(v []string) controller.Command {
			return controller.CreateTask{Title: v[0], Note: v[1]}
		})
	case k.Done:
		if len(paths) == 0 {
			return m, nil
		}
		m.dispatchTask(controller.ToggleTask{At: paths[m.taskCursor]}, "Toggled task")
	case k.Edit:
		if len(paths) == 0 {
			m.status = "No tasks to edit"
			return m, nil
		}
		at := paths[m.taskCursor]
		prompt, _ := m.tasks.EditPrompt(at)
		return m.openForm(prompt, func(v []string) controller.Command {
			return controller.EditTask{At: at, Title: v[0], Note: v[1]}
		})
	case k.Delete:
		if len(paths) == 0 {
			return m, nil
		}
		t, _ := m.tasks.Task(paths[m.taskCursor])
		m.mode = modeConfirmDelete
		m.pendingDel = controller.DeleteTask{At: paths[m.taskCursor]}
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", controller.DisplayTitle(t.Title))
	}
	return m, nil
}

func (m Model) openForm(p controller.Prompt, onConfirm func([]string) controller.Command) (tea.Model, tea.Cmd) {
	f, cmd := newForm(p)
	if m.width > 0 {
		f = f.setWidth(max(m.width-10, 10))
	}
	m.form = f
	m.onConfirm = onConfirm
	m.mode = modeForm
	m.status = ""
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f, result, cmd := m.form.update(msg, m.cfg.Keys)
	m.form = f
	switch result {
	case formCancelled:
		m.mode = modeBrowse
		m.onConfirm = nil
		m.status = "Cancelled"
	case formConfirmed:
		command := m.onConfirm(f.values())
		m.mode = modeBrowse
		m.onConfirm = nil
		if m.tasks != nil {
			m.dispatchTask(command, "Saved task")
		} else {
			m.dispatchList(command, "Saved list")
		}
	}
	return m, cmd
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
	case "y", "Y":
		if m.tasks != nil {
			m.dispatchTask(m.pendingDel, "Deleted task")
		} else {
			m.dispatchList(m.pendingDel, "Deleted task list")
		}
	default:
		return m, nil
	}
	m.mode = modeBrowse
	m.pendingDel = nil
	return m, nil
}

// dispatchList runs cmd against the list controller and moves the cursor to
// follow the change.
func (m *Model) dispatchList(cmd controller.Command, ok string) {
	change, err := m.lists.Dispatch(m.ctx, cmd)
	if err != nil {
		m.fail("save", err)
		return
	}
	n := m.lists.NumberOfRows()
	switch change.Kind {
	case controller.ChangeInsert:
		m.listCursor = change.At.Row
	case controller.ChangeNone:
		m.status = "Nothing changed"
		return
	}
	m.listCursor = clampCursor(m.listCursor, n)
	m.status = ok
}

func (m *Model) dispatchTask(cmd controller.Command, ok string) {
	change, err := m.tasks.Dispatch(m.ctx, cmd)
	if err != nil {
		m.fail("save", err)
		return
	}
	switch change.Kind {
	case controller.ChangeInsert:
		m.taskCursor = m.flatIndex(change.At)
	case controller.ChangeMove:
		m.taskCursor = m.flatIndex(change.To)
	case controller.ChangeNone:
		m.status = "Nothing changed"
		return
	}
	m.taskCursor = clampCursor(m.taskCursor, len(m.taskPaths()))
	m.status = ok
}

func (m *Model) fail(op string, err error) {
	m.log.Error(op+" failed", "err", err)
	m.status = fmt.Sprintf("%s failed: %v", op, err)
}

// taskPaths flattens both sections into cursor order.
func (m Model) taskPaths() []controller.IndexPath {
	if m.tasks == nil {
		return nil
	}
	var out []controller.IndexPath
	for s := 0; s < m.tasks.NumberOfSections(); s++ {
		for r := 0; r < m.tasks.NumberOfRows(s); r++ {
			out = append(out, controller.IndexPath{Section: s, Row: r})
		}
	}
	return out
}

func (m Model) flatIndex(at controller.IndexPath) int {
	for i, p := range m.taskPaths() {
		if p == at {
			return i
		}
	}
	return 0
}

func (m Model) View() string {
	var b strings.Builder
	if m.tasks != nil {
		b.WriteString(m.renderTasks())
	} else {
		b.WriteString(m.renderLists())
	}
	b.WriteString("\n---\n")
	if m.mode == modeForm {
		b.WriteString(m.form.view(m.cfg.Keys))
		b.WriteString("\n\n")
	} else {
		b.WriteString(m.renderActions())
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.renderHelp()))
	return b.String()
}

func (m Model) renderLists() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.lists.Title()))
	b.WriteString("  ")
	for _, mode := range []controller.SortMode{controller.SortByDate, controller.SortAlphabetical} {
		if mode == m.lists.SortMode() {
			b.WriteString(activeSegment.Render(mode.Label()))
		} else {
			b.WriteString(segment.Render(mode.Label()))
		}
	}
	b.WriteString("\n\n")
	n := m.lists.NumberOfRows()
	if n == 0 {
		b.WriteString(fmt.Sprintf("No task lists yet. Press '%s' to add one.\n", m.cfg.Keys.Add))
		return b.String()
	}
	for i := 0; i < n; i++ {
		row, _ := m.lists.Row(i)
		b.WriteString(renderRow(row, i == m.listCursor && m.mode != modeForm))
	}
	return b.String()
}

func (m Model) renderTasks() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.tasks.Title()))
	b.WriteString("\n")
	flat := 0
	for s := 0; s < m.tasks.NumberOfSections(); s++ {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(m.tasks.SectionTitle(s)))
		b.WriteString("\n")
		for r := 0; r < m.tasks.NumberOfRows(s); r++ {
			row, _ := m.tasks.Row(controller.IndexPath{Section: s, Row: r})
			b.WriteString(renderRow(row, flat == m.taskCursor && m.mode != modeForm))
			flat++
		}
	}
	return b.String()
}

func renderRow(row controller.Row, selected bool) string {
	cursor := " "
	text := row.Text
	if selected {
		cursor = ">"
		text = selectedStyle.Render(text)
	}
	line := fmt.Sprintf("%s %s", cursor, text)
	if row.Secondary != "" {
		line += "  " + dimStyle.Render(row.Secondary)
	}
	return line + "\n"
}

// renderActions shows the selected row's actions with the keys bound to them.
func (m Model) renderActions() string {
	var actions []controller.Action
	if m.tasks != nil {
		if paths := m.taskPaths(); len(paths) > 0 {
			actions = m.tasks.Actions(paths[clampCursor(m.taskCursor, len(paths))])
		}
	} else {
		actions = m.lists.Actions(m.listCursor)
	}
	if len(actions) == 0 {
		return ""
	}
	parts := make([]string, len(actions))
	for i, a := range actions {
		parts[i] = keyLabel(m.actionKey(a)) + " " + string(a)
	}
	return strings.Join(parts, " • ")
}

func (m Model) actionKey(a controller.Action) string {
	switch a {
	case controller.ActionDelete:
		return m.cfg.Keys.Delete
	case controller.ActionEdit:
		return m.cfg.Keys.Edit
	default:
		return m.cfg.Keys.Done
	}
}

func (m Model) renderHelp() string {
	k := m.cfg.Keys
	if m.tasks != nil {
		return fmt.Sprintf("%s/%s move • %s add • %s back • %s quit", k.Up, k.Down, k.Add, k.Back, k.Quit)
	}
	return fmt.Sprintf("%s/%s move • %s add • %s open • %s sort • %s quit", k.Up, k.Down, k.Add, k.Open, k.Sort, k.Quit)
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
