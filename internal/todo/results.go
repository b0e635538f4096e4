package todo

import (
	"context"
	"database/sql"
	"slices"
)

type TaskFilter int

const (
	AllTasks TaskFilter = iota
	CurrentTasks
	CompletedTasks
)

func (f TaskFilter) nullBool() sql.NullBool {
	switch f {
	case CurrentTasks:
		return sql.NullBool{Bool: false, Valid: true}
	case CompletedTasks:
		return sql.NullBool{Bool: true, Valid: true}
	default:
		return sql.NullBool{}
	}
}

// Results is a live query. It holds no rows of its own: every read goes to the
// store, so writes made after the collection was created are always visible.
type Results[T any] struct {
	svc   *Service
	load  func(ctx context.Context) ([]T, error)
	key   func(T) string
	order func(a, b T) int
}

func newResults[T any](svc *Service, load func(ctx context.Context) ([]T, error), key func(T) string) *Results[T] {
	return &Results[T]{svc: svc, load: load, key: key}
}

// Items returns the current contents of the collection.
func (r *Results[T]) Items(ctx context.Context) ([]T, error) {
	items, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	if r.order != nil {
		slices.SortStableFunc(items, r.order)
	}
	return items, nil
}

func (r *Results[T]) Len(ctx context.Context) (int, error) {
	items, err := r.Items(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Index returns the position of the entity with the given id, or -1.
func (r *Results[T]) Index(ctx context.Context, id string) (int, error) {
	items, err := r.Items(ctx)
	if err != nil {
		return -1, err
	}
	return slices.IndexFunc(items, func(it T) bool { return r.key(it) == id }), nil
}

// Sorted returns a collection over the same query ordered by cmp. A nil cmp
// restores the store order.
func (r *Results[T]) Sorted(cmp func(a, b T) int) *Results[T] {
	return &Results[T]{svc: r.svc, load: r.load, key: r.key, order: cmp}
}

// Subscribe registers for change notifications on the underlying store.
func (r *Results[T]) Subscribe() *Subscription {
	return r.svc.Subscribe()
}
