package ui

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist/internal/config"
	"todolist/internal/controller"
	"todolist/internal/storage"
	"todolist/internal/todo"
)

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadOrCreate(filepath.Join(t.TempDir(), config.DefaultConfigFileName))
	require.NoError(t, err)
	return cfg
}

func newTestModel(t *testing.T) (Model, *todo.Service) {
	t.Helper()
	cfg := testConfig(t)
	store, err := storage.Open(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	svc := todo.New(store, nil)
	m, err := NewModel(context.Background(), svc, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(m.lists.Detach)
	return m, svc
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	var model tea.Model = m
	for _, msg := range msgs {
		model, _ = model.Update(msg)
	}
	out, ok := model.(Model)
	require.True(t, ok)
	return out
}

func TestModel_AddListThroughForm(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, runes("a"))
	require.Equal(t, modeForm, m.mode)
	assert.Contains(t, m.View(), "New List")

	m = press(t, m, runes("Groceries"), enter)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, "Saved list", m.status)
	require.Equal(t, 1, m.lists.NumberOfRows())
	row, _ := m.lists.Row(0)
	assert.Equal(t, controller.Row{Text: "Groceries", Secondary: "0"}, row)
	assert.Contains(t, m.View(), "Groceries")
}

func TestModel_CancelFormIsNoOp(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, runes("a"), runes("ignored"), esc)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, "Cancelled", m.status)
	assert.Zero(t, m.lists.NumberOfRows())
}

func TestModel_TaskFlow(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, runes("a"), runes("Groceries"), enter)

	m = press(t, m, enter)
	require.NotNil(t, m.tasks)
	assert.Contains(t, m.View(), "CURRENT TASKS")
	assert.Contains(t, m.View(), "COMPLETED TASKS")

	m = press(t, m, runes("a"), runes("Milk"), tab, runes("2 litres"), enter)
	require.Equal(t, 1, m.tasks.NumberOfRows(controller.SectionCurrent))
	row, _ := m.tasks.Row(controller.IndexPath{Section: 0, Row: 0})
	assert.Equal(t, controller.Row{Text: "Milk", Secondary: "2 litres"}, row)
	assert.Contains(t, m.View(), "space Done")

	m = press(t, m, space)
	assert.Zero(t, m.tasks.NumberOfRows(controller.SectionCurrent))
	assert.Equal(t, 1, m.tasks.NumberOfRows(controller.SectionCompleted))
	assert.Equal(t, 0, m.taskCursor)
	assert.Contains(t, m.View(), "space Undone")

	m = press(t, m, runes("e"))
	require.Equal(t, modeForm, m.mode)
	assert.Equal(t, []string{"Milk", "2 litres"}, m.form.values())
	m = press(t, m, runes("!"), enter)
	row, _ = m.tasks.Row(controller.IndexPath{Section: 1, Row: 0})
	assert.Equal(t, "Milk!", row.Text)

	m = press(t, m, esc)
	assert.Nil(t, m.tasks)
	row, _ = m.lists.Row(0)
	assert.Equal(t, "1", row.Secondary)
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	m, svc := newTestModel(t)
	m = press(t, m, runes("a"), runes("Groceries"), enter)

	m = press(t, m, runes("d"))
	assert.Equal(t, modeConfirmDelete, m.mode)
	m = press(t, m, runes("n"))
	assert.Equal(t, "Delete cancelled", m.status)
	assert.Equal(t, 1, m.lists.NumberOfRows())

	m = press(t, m, runes("d"), runes("y"))
	assert.Equal(t, modeBrowse, m.mode)
	assert.Zero(t, m.lists.NumberOfRows())

	left, err := svc.Lists().Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestModel_DoneListAndSortToggle(t *testing.T) {
	m, svc := newTestModel(t)
	m = press(t, m, runes("a"), runes("pears"), enter)
	m = press(t, m, runes("a"), runes("apples"), enter)
	assert.Equal(t, 1, m.listCursor)

	l, _ := m.lists.TaskList(1)
	require.NoError(t, svc.SaveTask(context.Background(), "core", "", l, nil))
	m = press(t, m, space)
	assert.Equal(t, "Marked all tasks done", m.status)
	done, err := svc.Tasks(l, todo.CompletedTasks).Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, done)

	m = press(t, m, runes("s"))
	assert.Equal(t, controller.SortAlphabetical, m.lists.SortMode())
	row, _ := m.lists.Row(0)
	assert.Equal(t, "apples", row.Text)
	assert.Contains(t, m.View(), "A-z")
}

func TestModel_ExternalWriteReloads(t *testing.T) {
	m, svc := newTestModel(t)
	require.NoError(t, svc.SaveList(context.Background(), "from the cli", nil))
	assert.Zero(t, m.lists.NumberOfRows())

	m = press(t, m, listsChangedMsg{})
	assert.Equal(t, 1, m.lists.NumberOfRows())
}

func TestModel_QuitKey(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWaitForLists_ClosedChannel(t *testing.T) {
	ch := make(chan struct{})
	close(ch)
	assert.Nil(t, waitForLists(ch)())
	assert.Nil(t, waitForLists(nil))
}
