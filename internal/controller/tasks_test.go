package controller

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist/internal/todo"
)

func attachedTasks(t *testing.T, svc *todo.Service, title string) *TaskController {
	t.Helper()
	var list todo.TaskList
	require.NoError(t, svc.SaveList(context.Background(), title, func(l todo.TaskList) { list = l }))
	c := NewTaskController(svc, list)
	require.NoError(t, c.Attach(context.Background()))
	t.Cleanup(c.Detach)
	return c
}

func rows(c *TaskController, section int) []Row {
	var out []Row
	for i := 0; i < c.NumberOfRows(section); i++ {
		r, _ := c.Row(IndexPath{Section: section, Row: i})
		out = append(out, r)
	}
	return out
}

func TestTaskController_Sections(t *testing.T) {
	c := attachedTasks(t, newService(t), "Groceries")

	assert.Equal(t, "Groceries", c.Title())
	assert.Equal(t, 2, c.NumberOfSections())
	assert.Equal(t, "CURRENT TASKS", c.SectionTitle(SectionCurrent))
	assert.Equal(t, "COMPLETED TASKS", c.SectionTitle(SectionCompleted))
	assert.Zero(t, c.NumberOfRows(7))
}

func TestTaskController_CreateMilk(t *testing.T) {
	c := attachedTasks(t, newService(t), "Groceries")

	change := dispatch(t, c, CreateTask{Title: "Milk", Note: ""})
	assert.Equal(t, RowChange{Kind: ChangeInsert, At: IndexPath{Section: SectionCurrent, Row: 0}}, change)
	assert.Equal(t, []Row{{Text: "Milk", Secondary: ""}}, rows(c, SectionCurrent))
	assert.Empty(t, rows(c, SectionCompleted))

	change = dispatch(t, c, CreateTask{Title: "Bread", Note: "rye"})
	assert.Equal(t, IndexPath{Section: SectionCurrent, Row: 1}, change.At)
}

func TestTaskController_ToggleMovesRow(t *testing.T) {
	c := attachedTasks(t, newService(t), "Groceries")
	dispatch(t, c, CreateTask{Title: "Milk"})
	dispatch(t, c, CreateTask{Title: "Eggs"})
	dispatch(t, c, CreateTask{Title: "Flour"})

	assert.Equal(t, []Action{ActionDone, ActionEdit, ActionDelete}, c.Actions(IndexPath{Section: 0, Row: 0}))

	change := dispatch(t, c, ToggleTask{At: IndexPath{Section: 0, Row: 2}})
	assert.Equal(t, RowChange{
		Kind: ChangeMove,
		At:   IndexPath{Section: 0, Row: 2},
		To:   IndexPath{Section: 1, Row: 0},
	}, change)

	change = dispatch(t, c, ToggleTask{At: IndexPath{Section: 0, Row: 0}})
	assert.Equal(t, IndexPath{Section: 1, Row: 0}, change.To, "completed section keeps insertion order")

	assert.Equal(t, []Row{{Text: "Eggs"}}, rows(c, SectionCurrent))
	assert.Equal(t, []Row{{Text: "Milk"}, {Text: "Flour"}}, rows(c, SectionCompleted))
	assert.Equal(t, []Action{ActionUndone, ActionEdit, ActionDelete}, c.Actions(IndexPath{Section: 1, Row: 0}))

	change = dispatch(t, c, ToggleTask{At: IndexPath{Section: 1, Row: 0}})
	assert.Equal(t, RowChange{
		Kind: ChangeMove,
		At:   IndexPath{Section: 1, Row: 0},
		To:   IndexPath{Section: 0, Row: 0},
	}, change)
	assert.Equal(t, []Row{{Text: "Milk"}, {Text: "Eggs"}}, rows(c, SectionCurrent))
}

func TestTaskController_ToggleTwiceRestoresPartitions(t *testing.T) {
	c := attachedTasks(t, newService(t), "Groceries")
	dispatch(t, c, CreateTask{Title: "Milk"})

	dispatch(t, c, ToggleTask{At: IndexPath{Section: 0, Row: 0}})
	assert.Empty(t, rows(c, SectionCurrent))
	assert.Equal(t, []Row{{Text: "Milk"}}, rows(c, SectionCompleted))

	dispatch(t, c, ToggleTask{At: IndexPath{Section: 1, Row: 0}})
	assert.Equal(t, []Row{{Text: "Milk"}}, rows(c, SectionCurrent))
	assert.Empty(t, rows(c, SectionCompleted))
}

func TestTaskController_EditAndDelete(t *testing.T) {
	c := attachedTasks(t, newService(t), "Groceries")
	dispatch(t, c, CreateTask{Title: "Milk", Note: "whole"})

	prompt, ok := c.EditPrompt(IndexPath{Section: 0, Row: 0})
	require.True(t, ok)
	assert.Equal(t, "Edit Task", prompt.Title)
	assert.Equal(t, "Update Task", prompt.Confirm)
	assert.Equal(t, []string{"Milk", "whole"}, prompt.Values())

	change := dispatch(t, c, EditTask{At: IndexPath{Section: 0, Row: 0}, Title: "Oat milk", Note: "1l"})
	assert.Equal(t, RowChange{Kind: ChangeReloadRow, At: IndexPath{Section: 0, Row: 0}}, change)
	assert.Equal(t, []Row{{Text: "Oat milk", Secondary: "1l"}}, rows(c, SectionCurrent))

	change = dispatch(t, c, DeleteTask{At: IndexPath{Section: 0, Row: 0}})
	assert.Equal(t, RowChange{Kind: ChangeDelete, At: IndexPath{Section: 0, Row: 0}}, change)
	assert.Empty(t, rows(c, SectionCurrent))
}

func TestTaskController_NewPrompt(t *testing.T) {
	c := attachedTasks(t, newService(t), "x")
	p := c.NewPrompt()
	assert.Equal(t, "New Task", p.Title)
	assert.Equal(t, "What do you want to do?", p.Message)
	assert.Equal(t, "Save Task", p.Confirm)
	assert.Equal(t, []string{"", ""}, p.Values())

	_, ok := c.EditPrompt(IndexPath{Section: 1, Row: 0})
	assert.False(t, ok)
}

func TestTaskController_StaleReferences(t *testing.T) {
	c := attachedTasks(t, newService(t), "x")
	for _, cmd := range []Command{
		EditTask{At: IndexPath{Section: 0, Row: 0}},
		DeleteTask{At: IndexPath{Section: 1, Row: 4}},
		ToggleTask{At: IndexPath{Section: 0, Row: -1}},
	} {
		assert.Equal(t, ChangeNone, dispatch(t, c, cmd).Kind, "%T", cmd)
	}
}

func TestTaskController_ListDeletedElsewhere(t *testing.T) {
	svc := newService(t)
	c := attachedTasks(t, svc, "x")
	dispatch(t, c, CreateTask{Title: "a"})

	require.NoError(t, svc.DeleteList(context.Background(), c.TaskList()))

	_, err := c.Dispatch(context.Background(), CreateTask{Title: "b"})
	assert.ErrorIs(t, err, todo.ErrListNotFound)

	change := dispatch(t, c, ToggleTask{At: IndexPath{Section: 0, Row: 0}})
	assert.Equal(t, ChangeReloadAll, change.Kind)
	assert.Zero(t, c.NumberOfRows(SectionCurrent))
}

func TestTaskController_PartitionInvariant(t *testing.T) {
	c := attachedTasks(t, newService(t), "x")
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		dispatch(t, c, CreateTask{Title: title})
	}
	dispatch(t, c, ToggleTask{At: IndexPath{Section: 0, Row: 1}})
	dispatch(t, c, ToggleTask{At: IndexPath{Section: 0, Row: 2}})
	dispatch(t, c, ToggleTask{At: IndexPath{Section: 1, Row: 0}})

	seen := map[string]int{}
	for section := 0; section < c.NumberOfSections(); section++ {
		for row := 0; row < c.NumberOfRows(section); row++ {
			task, ok := c.Task(IndexPath{Section: section, Row: row})
			require.True(t, ok)
			assert.Equal(t, section == SectionCompleted, task.IsComplete)
			seen[task.ID]++
		}
	}
	assert.Len(t, seen, 5)
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
}
