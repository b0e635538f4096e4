package controller

import (
	"context"
	"fmt"

	"todolist/internal/todo"
)

const (
	SectionCurrent   = 0
	SectionCompleted = 1
)

// TaskController backs the screen for one task list. Section 0 holds the
// incomplete tasks, section 1 the completed ones.
type TaskController struct {
	svc      *todo.Service
	list     todo.TaskList
	sections [2]*todo.Results[todo.Task]
	rows     [2][]todo.Task
	sub      *todo.Subscription
}

func NewTaskController(svc *todo.Service, list todo.TaskList) *TaskController {
	return &TaskController{
		svc:  svc,
		list: list,
		sections: [2]*todo.Results[todo.Task]{
			svc.Tasks(list, todo.CurrentTasks),
			svc.Tasks(list, todo.CompletedTasks),
		},
	}
}

func (c *TaskController) Attach(ctx context.Context) error {
	if c.sub == nil {
		c.sub = c.svc.Subscribe()
	}
	return c.Reload(ctx)
}

func (c *TaskController) Detach() {
	if c.sub != nil {
		c.sub.Close()
		c.sub = nil
	}
}

func (c *TaskController) Changes() <-chan struct{} {
	if c.sub == nil {
		return nil
	}
	return c.sub.Changes()
}

func (c *TaskController) Reload(ctx context.Context) error {
	for i, r := range c.sections {
		tasks, err := r.Items(ctx)
		if err != nil {
			return err
		}
		c.rows[i] = tasks
	}
	return nil
}

func (c *TaskController) TaskList() todo.TaskList { return c.list }

func (c *TaskController) Title() string { return DisplayTitle(c.list.Title) }

func (c *TaskController) NumberOfSections() int { return len(c.rows) }

func (c *TaskController) NumberOfRows(section int) int {
	if section < 0 || section >= len(c.rows) {
		return 0
	}
	return len(c.rows[section])
}

func (c *TaskController) SectionTitle(section int) string {
	if section == SectionCurrent {
		return "CURRENT TASKS"
	}
	return "COMPLETED TASKS"
}

func (c *TaskController) Task(at IndexPath) (todo.Task, bool) {
	if at.Row < 0 || at.Row >= c.NumberOfRows(at.Section) {
		return todo.Task{}, false
	}
	return c.rows[at.Section][at.Row], true
}

func (c *TaskController) Row(at IndexPath) (Row, bool) {
	t, ok := c.Task(at)
	if !ok {
		return Row{}, false
	}
	return Row{Text: DisplayTitle(t.Title), Secondary: t.Note}, true
}

// Actions lists the swipe actions for a row, in display order. The first label
// reflects the task's current completion state.
func (c *TaskController) Actions(at IndexPath) []Action {
	t, ok := c.Task(at)
	if !ok {
		return nil
	}
	done := ActionDone
	if t.IsComplete {
		done = ActionUndone
	}
	return []Action{done, ActionEdit, ActionDelete}
}

func (c *TaskController) NewPrompt() Prompt {
	return Prompt{
		Title:   "New Task",
		Message: "What do you want to do?",
		Confirm: "Save Task",
		Cancel:  "Cancel",
		Fields:  []Field{{Placeholder: "New task"}, {Placeholder: "Note"}},
	}
}

func (c *TaskController) EditPrompt(at IndexPath) (Prompt, bool) {
	t, ok := c.Task(at)
	if !ok {
		return Prompt{}, false
	}
	p := c.NewPrompt()
	p.Title = "Edit Task"
	p.Confirm = "Update Task"
	p.Fields[0].Value = t.Title
	p.Fields[1].Value = t.Note
	return p, true
}

func (c *TaskController) Dispatch(ctx context.Context, cmd Command) (RowChange, error) {
	switch cmd := cmd.(type) {
	case CreateTask:
		return c.create(ctx, cmd.Title, cmd.Note)
	case EditTask:
		t, ok := c.Task(cmd.At)
		if !ok {
			return RowChange{}, nil
		}
		if err := c.svc.EditTask(ctx, t, cmd.Title, cmd.Note); err != nil {
			return RowChange{}, err
		}
		if err := c.Reload(ctx); err != nil {
			return RowChange{}, err
		}
		return RowChange{Kind: ChangeReloadRow, At: cmd.At}, nil
	case DeleteTask:
		t, ok := c.Task(cmd.At)
		if !ok {
			return RowChange{}, nil
		}
		if err := c.svc.DeleteTask(ctx, t); err != nil {
			return RowChange{}, err
		}
		if err := c.Reload(ctx); err != nil {
			return RowChange{}, err
		}
		return RowChange{Kind: ChangeDelete, At: cmd.At}, nil
	case ToggleTask:
		return c.toggle(ctx, cmd.At)
	default:
		return RowChange{}, fmt.Errorf("task controller: unsupported command %T", cmd)
	}
}

func (c *TaskController) create(ctx context.Context, title, note string) (RowChange, error) {
	var change RowChange
	var indexErr error
	err := c.svc.SaveTask(ctx, title, note, c.list, func(t todo.Task) {
		idx, err := c.sections[SectionCurrent].Index(ctx, t.ID)
		if err != nil {
			indexErr = err
			return
		}
		change = RowChange{Kind: ChangeInsert, At: IndexPath{Section: SectionCurrent, Row: max(idx, 0)}}
	})
	if err != nil {
		return RowChange{}, err
	}
	if indexErr != nil {
		return RowChange{}, indexErr
	}
	if err := c.Reload(ctx); err != nil {
		return RowChange{}, err
	}
	return change, nil
}

// toggle flips the task and moves its row to the position it now holds in the
// other section.
func (c *TaskController) toggle(ctx context.Context, at IndexPath) (RowChange, error) {
	t, ok := c.Task(at)
	if !ok {
		return RowChange{}, nil
	}
	if err := c.svc.ToggleTask(ctx, t); err != nil {
		return RowChange{}, err
	}
	if err := c.Reload(ctx); err != nil {
		return RowChange{}, err
	}
	dest := SectionCompleted
	if at.Section == SectionCompleted {
		dest = SectionCurrent
	}
	idx := -1
	for i, other := range c.rows[dest] {
		if other.ID == t.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		// The task vanished; the row is gone from both sections.
		return RowChange{Kind: ChangeReloadAll}, nil
	}
	return RowChange{Kind: ChangeMove, At: at, To: IndexPath{Section: dest, Row: idx}}, nil
}
