// Package uow defines the unit of work that scopes aggregate changes to one
// transaction, and the commit protocol that publishes the domain events those
// aggregates raised before the transaction is written.
package uow

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/erp/modulith/internal/domain/shared"
	"github.com/google/uuid"
)

// State is the commit lifecycle position of a unit of work.
type State int

const (
	StateIdle State = iota
	StateAccumulating
	StateCommitting
	StateDraining
	StatePublishing
	StatePersisting
	StateCommitted
	StateFailed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateCommitting:
		return "committing"
	case StateDraining:
		return "draining"
	case StatePublishing:
		return "publishing"
	case StatePersisting:
		return "persisting"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateFailed
}

var (
	// ErrEventCascadeLimit is returned when notification handlers keep raising
	// events beyond the configured number of publication passes.
	ErrEventCascadeLimit = errors.New("domain event cascade exceeded the maximum number of passes")
	// ErrClosed is returned when a committed or failed unit of work is used again.
	ErrClosed = errors.New("unit of work is already closed")
	// ErrCommitInProgress is returned by Commit or Rollback during a commit.
	ErrCommitInProgress = errors.New("unit of work is committing")
	// ErrAggregateAlreadyAttached is returned when a second instance of an
	// aggregate the unit of work already tracks is attached.
	ErrAggregateAlreadyAttached = errors.New("another instance of the aggregate is already attached")
)

// UnitOfWork tracks the aggregates changed by one logical operation.
type UnitOfWork interface {
	// Attach adds aggregates; attaching the same aggregate twice is a no-op,
	// attaching another instance with the same type and id fails with
	// ErrAggregateAlreadyAttached. Attaching is allowed while events are
	// drained, so notification handlers can extend the unit of work.
	Attach(aggregates ...shared.AggregateRoot) error
	// Find returns the attached aggregate with the given concrete type and id.
	Find(aggregateType reflect.Type, id uuid.UUID) (shared.AggregateRoot, bool)
	// Aggregates returns the attached aggregates in attachment order.
	Aggregates() []shared.AggregateRoot
	// Commit publishes pending events, persists every attached aggregate and
	// commits the transaction. Any failure rolls everything back.
	Commit(ctx context.Context) error
	// Rollback abandons the unit of work. It is a no-op once terminal.
	Rollback(ctx context.Context) error
	State() State
}

// Factory begins units of work. The returned context carries the unit of work
// and whatever transaction backs it.
type Factory interface {
	Begin(ctx context.Context) (context.Context, UnitOfWork, error)
}

type unitOfWorkKey struct{}

// WithUnitOfWork stores u in ctx.
func WithUnitOfWork(ctx context.Context, u UnitOfWork) context.Context {
	return context.WithValue(ctx, unitOfWorkKey{}, u)
}

// FromContext returns the unit of work in ctx, if any.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	u, ok := ctx.Value(unitOfWorkKey{}).(UnitOfWork)
	return u, ok
}

// Run executes fn inside a unit of work and commits it. When ctx already
// carries an open unit of work, fn joins it and the outer owner commits.
func Run(ctx context.Context, factory Factory, fn func(ctx context.Context, u UnitOfWork) error) (err error) {
	if current, ok := FromContext(ctx); ok && !current.State().Terminal() {
		return fn(ctx, current)
	}

	ctx, u, err := factory.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = u.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, u); err != nil {
		if rbErr := u.Rollback(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return u.Commit(ctx)
}

// CommitError reports a failed commit. Is matches the underlying cause, but the
// cause is not unwrapped: a failed commit is an infrastructure failure of the
// whole unit of work whatever the cause was.
type CommitError struct {
	State State
	cause error
}

// NewCommitError creates a CommitError for a failure in state.
func NewCommitError(state State, cause error) *CommitError {
	return &CommitError{State: state, cause: cause}
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("unit of work commit failed while %s: %v", e.State, e.cause)
}

// Cause returns the failure that aborted the commit.
func (e *CommitError) Cause() error { return e.cause }

// Is reports whether the cause matches target.
func (e *CommitError) Is(target error) bool {
	return errors.Is(e.cause, target)
}
