// Package todo is the storage service shared by the controllers. It exposes
// typed operations over task lists and tasks, live result collections that
// re-read the store on access, and change subscriptions.
package todo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"todolist/internal/storage"
)

type (
	TaskList = storage.TaskList
	Task     = storage.Task
)

// ErrListNotFound is returned by SaveTask when the parent list was deleted.
var ErrListNotFound = errors.New("task list not found")

// Store is the persistence surface the service needs.
type Store interface {
	FetchTaskLists(ctx context.Context) ([]storage.TaskList, error)
	FetchTasks(ctx context.Context, listID string, complete sql.NullBool) ([]storage.Task, error)
	AddTaskList(ctx context.Context, l storage.TaskList) error
	AddTask(ctx context.Context, t storage.Task) error
	RenameTaskList(ctx context.Context, id, title string) (bool, error)
	UpdateTask(ctx context.Context, id, title, note string) (bool, error)
	DeleteTaskList(ctx context.Context, id string) (bool, error)
	DeleteTask(ctx context.Context, id string) (bool, error)
	CompleteTasks(ctx context.Context, listID string) (bool, error)
	ToggleTask(ctx context.Context, id string) (bool, error)
}

type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store: store,
		log:   logger,
		now:   time.Now,
		subs:  make(map[*Subscription]struct{}),
	}
}

// Lists returns a live collection of every task list in creation order.
func (s *Service) Lists() *Results[TaskList] {
	return newResults(s, func(ctx context.Context) ([]TaskList, error) {
		return s.store.FetchTaskLists(ctx)
	}, func(l TaskList) string { return l.ID })
}

// Tasks returns a live collection of the list's tasks matching filter.
func (s *Service) Tasks(list TaskList, filter TaskFilter) *Results[Task] {
	listID := list.ID
	return newResults(s, func(ctx context.Context) ([]Task, error) {
		return s.store.FetchTasks(ctx, listID, filter.nullBool())
	}, func(t Task) string { return t.ID })
}

// SaveList creates a task list stamped with the current time and hands the
// created list to onComplete.
func (s *Service) SaveList(ctx context.Context, title string, onComplete func(TaskList)) error {
	l := TaskList{
		ID:    uuid.NewString(),
		Title: title,
		Date:  s.now().UTC(),
	}
	if err := s.store.AddTaskList(ctx, l); err != nil {
		return fmt.Errorf("save task list: %w", err)
	}
	s.log.Debug("task list saved", "id", l.ID)
	s.Notify()
	if onComplete != nil {
		onComplete(l)
	}
	return nil
}

// SaveTask appends a new incomplete task to parent.
func (s *Service) SaveTask(ctx context.Context, title, note string, parent TaskList, onComplete func(Task)) error {
	t := Task{
		ID:     uuid.NewString(),
		ListID: parent.ID,
		Title:  title,
		Note:   note,
		Date:   s.now().UTC(),
	}
	if err := s.store.AddTask(ctx, t); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrListNotFound
		}
		return fmt.Errorf("save task: %w", err)
	}
	s.log.Debug("task saved", "id", t.ID, "list", parent.ID)
	s.Notify()
	if onComplete != nil {
		onComplete(t)
	}
	return nil
}

func (s *Service) EditList(ctx context.Context, list TaskList, title string) error {
	return s.mutate("edit task list", list.ID, func() (bool, error) {
		return s.store.RenameTaskList(ctx, list.ID, title)
	})
}

func (s *Service) EditTask(ctx context.Context, task Task, title, note string) error {
	return s.mutate("edit task", task.ID, func() (bool, error) {
		return s.store.UpdateTask(ctx, task.ID, title, note)
	})
}

// DeleteList removes the list and all of its tasks.
func (s *Service) DeleteList(ctx context.Context, list TaskList) error {
	return s.mutate("delete task list", list.ID, func() (bool, error) {
		return s.store.DeleteTaskList(ctx, list.ID)
	})
}

func (s *Service) DeleteTask(ctx context.Context, task Task) error {
	return s.mutate("delete task", task.ID, func() (bool, error) {
		return s.store.DeleteTask(ctx, task.ID)
	})
}

// DoneList marks every task of list complete. Applying it again changes nothing.
func (s *Service) DoneList(ctx context.Context, list TaskList) error {
	return s.mutate("complete task list", list.ID, func() (bool, error) {
		return s.store.CompleteTasks(ctx, list.ID)
	})
}

// ToggleTask flips the task's completion flag.
func (s *Service) ToggleTask(ctx context.Context, task Task) error {
	return s.mutate("toggle task", task.ID, func() (bool, error) {
		return s.store.ToggleTask(ctx, task.ID)
	})
}

// mutate runs a write against an existing entity. A vanished entity is not an
// error and does not notify subscribers.
func (s *Service) mutate(op, id string, fn func() (bool, error)) error {
	changed, err := fn()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !changed {
		s.log.Debug("entity vanished before write", "op", op, "id", id)
		return nil
	}
	s.log.Debug(op, "id", id)
	s.Notify()
	return nil
}
