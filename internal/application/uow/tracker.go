package uow

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/erp/modulith/internal/domain/shared"
	"github.com/google/uuid"
)

// identity names one aggregate: its concrete type and its ID.
type identity struct {
	typ reflect.Type
	id  uuid.UUID
}

func identityOf(agg shared.AggregateRoot) identity {
	return identity{typ: reflect.TypeOf(agg), id: agg.GetID()}
}

// Tracker holds the attached aggregates and the state of a unit of work.
// Implementations of UnitOfWork embed it and drive it through EventDispatcher.
// An aggregate is tracked once per identity; a second instance of an already
// attached aggregate is refused with ErrAggregateAlreadyAttached.
type Tracker struct {
	mu         sync.Mutex
	aggregates []shared.AggregateRoot
	attached   map[identity]shared.AggregateRoot
	state      State
}

// Attach implements UnitOfWork
func (t *Tracker) Attach(aggregates ...shared.AggregateRoot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case StatePersisting, StateCommitted, StateFailed:
		return ErrClosed
	}
	if t.attached == nil {
		t.attached = make(map[identity]shared.AggregateRoot)
	}
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		key := identityOf(agg)
		if tracked, ok := t.attached[key]; ok {
			if tracked != agg {
				return fmt.Errorf("%w: %s %s", ErrAggregateAlreadyAttached, key.typ, key.id)
			}
			continue
		}
		t.attached[key] = agg
		t.aggregates = append(t.aggregates, agg)
	}
	if t.state == StateIdle {
		t.state = StateAccumulating
	}
	return nil
}

// Find implements UnitOfWork
func (t *Tracker) Find(aggregateType reflect.Type, id uuid.UUID) (shared.AggregateRoot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	agg, ok := t.attached[identity{typ: aggregateType, id: id}]
	return agg, ok
}

// Aggregates implements UnitOfWork
func (t *Tracker) Aggregates() []shared.AggregateRoot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]shared.AggregateRoot(nil), t.aggregates...)
}

// State implements UnitOfWork
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) transition(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// open moves an idle or accumulating unit of work to to.
func (t *Tracker) open(to State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case StateIdle, StateAccumulating:
		t.state = to
		return nil
	case StateCommitted, StateFailed:
		return ErrClosed
	default:
		return ErrCommitInProgress
	}
}

// discardEvents drops every pending event of every attached aggregate.
func (t *Tracker) discardEvents() {
	for _, agg := range t.Aggregates() {
		agg.ClearDomainEvents()
	}
}

// Tracked returns the aggregate of type T with the given id when the open unit
// of work in ctx already holds it.
func Tracked[T shared.AggregateRoot](ctx context.Context, id uuid.UUID) (T, bool) {
	var zero T
	u, ok := FromContext(ctx)
	if !ok || u.State().Terminal() {
		return zero, false
	}
	agg, ok := u.Find(reflect.TypeFor[T](), id)
	if !ok {
		return zero, false
	}
	typed, ok := agg.(T)
	return typed, ok
}

// Resolve returns the instance the unit of work in ctx tracks for loaded, or
// loaded itself. Stores pass every aggregate they read through it, so one
// operation never holds two diverging copies of the same row.
func Resolve[T shared.AggregateRoot](ctx context.Context, loaded T) T {
	if tracked, ok := Tracked[T](ctx, loaded.GetID()); ok {
		return tracked
	}
	return loaded
}
