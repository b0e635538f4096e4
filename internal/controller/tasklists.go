package controller

import (
	"cmp"
	"context"
	"fmt"
	"strconv"
	"strings"

	"todolist/internal/todo"
)

type SortMode int

const (
	SortByDate SortMode = iota
	SortAlphabetical
)

func (m SortMode) String() string {
	if m == SortAlphabetical {
		return "alpha"
	}
	return "date"
}

// Label is the toggle segment text.
func (m SortMode) Label() string {
	if m == SortAlphabetical {
		return "A-z"
	}
	return "Date"
}

// ParseSortMode accepts "date" or "alpha"; anything else is an error.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "date":
		return SortByDate, nil
	case "alpha", "a-z", "alphabetical":
		return SortAlphabetical, nil
	default:
		return SortByDate, fmt.Errorf("unknown sort mode %q", s)
	}
}

func compareTitles(a, b todo.TaskList) int {
	if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
		return c
	}
	return cmp.Compare(a.Date.UnixNano(), b.Date.UnixNano())
}

// TaskListController backs the screen listing every task list.
type TaskListController struct {
	svc     *todo.Service
	all     *todo.Results[todo.TaskList]
	results *todo.Results[todo.TaskList]
	mode    SortMode
	lists   []todo.TaskList
	sub     *todo.Subscription
}

func NewTaskListController(svc *todo.Service, mode SortMode) *TaskListController {
	all := svc.Lists()
	c := &TaskListController{svc: svc, all: all}
	c.setMode(mode)
	return c
}

func (c *TaskListController) setMode(mode SortMode) {
	c.mode = mode
	if mode == SortAlphabetical {
		c.results = c.all.Sorted(compareTitles)
		return
	}
	c.results = c.all
}

// Attach subscribes to store changes and loads the rows.
func (c *TaskListController) Attach(ctx context.Context) error {
	if c.sub == nil {
		c.sub = c.results.Subscribe()
	}
	return c.Reload(ctx)
}

func (c *TaskListController) Detach() {
	if c.sub != nil {
		c.sub.Close()
		c.sub = nil
	}
}

// Changes signals when the rows may be stale. It is nil while detached.
func (c *TaskListController) Changes() <-chan struct{} {
	if c.sub == nil {
		return nil
	}
	return c.sub.Changes()
}

func (c *TaskListController) Reload(ctx context.Context) error {
	lists, err := c.results.Items(ctx)
	if err != nil {
		return err
	}
	c.lists = lists
	return nil
}

func (c *TaskListController) Title() string { return "Task list" }

func (c *TaskListController) SortMode() SortMode { return c.mode }

func (c *TaskListController) NumberOfRows() int { return len(c.lists) }

func (c *TaskListController) TaskList(row int) (todo.TaskList, bool) {
	if row < 0 || row >= len(c.lists) {
		return todo.TaskList{}, false
	}
	return c.lists[row], true
}

func (c *TaskListController) Row(row int) (Row, bool) {
	l, ok := c.TaskList(row)
	if !ok {
		return Row{}, false
	}
	return Row{Text: DisplayTitle(l.Title), Secondary: strconv.Itoa(l.TaskCount)}, true
}

// Actions lists the swipe actions for a row, in display order.
func (c *TaskListController) Actions(row int) []Action {
	if _, ok := c.TaskList(row); !ok {
		return nil
	}
	return []Action{ActionDelete, ActionEdit, ActionDone}
}

func (c *TaskListController) NewPrompt() Prompt {
	return Prompt{
		Title:   "New List",
		Message: "Please set title for new task list",
		Confirm: "Save List",
		Cancel:  "Cancel",
		Fields:  []Field{{Placeholder: "List title"}},
	}
}

func (c *TaskListController) EditPrompt(row int) (Prompt, bool) {
	l, ok := c.TaskList(row)
	if !ok {
		return Prompt{}, false
	}
	p := c.NewPrompt()
	p.Title = "Edit List"
	p.Confirm = "Update List"
	p.Fields[0].Value = l.Title
	return p, true
}

func (c *TaskListController) Dispatch(ctx context.Context, cmd Command) (RowChange, error) {
	switch cmd := cmd.(type) {
	case CreateTaskList:
		return c.create(ctx, cmd.Title)
	case EditTaskList:
		l, ok := c.TaskList(cmd.Row)
		if !ok {
			return RowChange{}, nil
		}
		if err := c.svc.EditList(ctx, l, cmd.Title); err != nil {
			return RowChange{}, err
		}
		return c.reloadRow(ctx, l.ID, cmd.Row)
	case DeleteTaskList:
		l, ok := c.TaskList(cmd.Row)
		if !ok {
			return RowChange{}, nil
		}
		if err := c.svc.DeleteList(ctx, l); err != nil {
			return RowChange{}, err
		}
		if err := c.Reload(ctx); err != nil {
			return RowChange{}, err
		}
		return RowChange{Kind: ChangeDelete, At: IndexPath{Row: cmd.Row}}, nil
	case CompleteTaskList:
		l, ok := c.TaskList(cmd.Row)
		if !ok {
			return RowChange{}, nil
		}
		if err := c.svc.DoneList(ctx, l); err != nil {
			return RowChange{}, err
		}
		return c.reloadRow(ctx, l.ID, cmd.Row)
	case SetSort:
		c.setMode(cmd.Mode)
		if err := c.Reload(ctx); err != nil {
			return RowChange{}, err
		}
		return RowChange{Kind: ChangeReloadAll}, nil
	default:
		return RowChange{}, fmt.Errorf("task list controller: unsupported command %T", cmd)
	}
}

func (c *TaskListController) create(ctx context.Context, title string) (RowChange, error) {
	var change RowChange
	var indexErr error
	err := c.svc.SaveList(ctx, title, func(l todo.TaskList) {
		idx, err := c.results.Index(ctx, l.ID)
		if err != nil {
			indexErr = err
			return
		}
		change = RowChange{Kind: ChangeInsert, At: IndexPath{Row: max(idx, 0)}}
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

// reloadRow refreshes the rows after an in-place edit. If the edit moved the
// list (alphabetical order) the whole view is reloaded instead.
func (c *TaskListController) reloadRow(ctx context.Context, id string, row int) (RowChange, error) {
	if err := c.Reload(ctx); err != nil {
		return RowChange{}, err
	}
	if l, ok := c.TaskList(row); ok && l.ID == id {
		return RowChange{Kind: ChangeReloadRow, At: IndexPath{Row: row}}, nil
	}
	return RowChange{Kind: ChangeReloadAll}, nil
}
