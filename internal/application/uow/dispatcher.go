package uow

import (
	"context"
	"fmt"

	"github.com/erp/modulith/internal/domain/shared"
	"github.com/erp/modulith/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// DefaultMaxPasses bounds event cascades when no limit is configured.
const DefaultMaxPasses = 8

// EventDispatcher runs the commit protocol of a unit of work. Each pass pulls
// the pending events of all attached aggregates, writes the aggregates into the
// open transaction and publishes the batch, so notification handlers read the
// state that raised the event. Passes repeat until no aggregate has pending
// events; a last write then picks up changes made by the final pass before
// the transaction commits.
type EventDispatcher struct {
	publisher shared.EventPublisher
	maxPasses int
	logger    *zap.Logger
}

// NewEventDispatcher creates the dispatcher publishing through publisher. A maxPasses
// below 1 selects DefaultMaxPasses.
func NewEventDispatcher(publisher shared.EventPublisher, maxPasses int, log *zap.Logger) *EventDispatcher {
	if maxPasses < 1 {
		maxPasses = DefaultMaxPasses
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EventDispatcher{publisher: publisher, maxPasses: maxPasses, logger: log.Named("uow")}
}

// MaxPasses returns the configured cascade bound.
func (d *EventDispatcher) MaxPasses() int { return d.maxPasses }

// Store is the transactional side of a unit of work.
type Store interface {
	// Bind returns ctx carrying the transaction, for notification handlers.
	Bind(ctx context.Context) context.Context
	// Persist writes the aggregates inside the transaction. It runs before every
	// publication pass and once more before commit, so it must be idempotent.
	Persist(ctx context.Context, aggregates []shared.AggregateRoot) error
	// Commit commits the transaction.
	Commit() error
	// Rollback abandons the transaction.
	Rollback() error
}

// Commit runs the protocol for the unit of work u, tracked by t, against store.
// On failure the transaction is rolled back, every remaining pending event is
// discarded and t ends Failed.
func (d *EventDispatcher) Commit(ctx context.Context, u UnitOfWork, t *Tracker, store Store) error {
	if err := t.open(StateCommitting); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return d.fail(ctx, t, store, StateCommitting, err)
	}

	if err := d.drain(WithUnitOfWork(store.Bind(ctx), u), t, store); err != nil {
		return d.fail(ctx, t, store, t.State(), err)
	}

	t.transition(StatePersisting)
	if err := store.Persist(ctx, t.Aggregates()); err != nil {
		return d.fail(ctx, t, store, StatePersisting, err)
	}
	if err := store.Commit(); err != nil {
		return d.fail(ctx, t, store, StatePersisting, err)
	}
	t.transition(StateCommitted)
	return nil
}

// drain publishes batches until a pass finds no pending events. Each batch is
// removed from its aggregates before it is published.
func (d *EventDispatcher) drain(ctx context.Context, t *Tracker, store Store) error {
	for pass := 1; ; pass++ {
		t.transition(StateDraining)
		batch := collect(t.Aggregates())
		if len(batch) == 0 {
			return nil
		}
		if pass > d.maxPasses {
			return fmt.Errorf("%w (%d passes, %d events still pending)", ErrEventCascadeLimit, d.maxPasses, len(batch))
		}

		t.transition(StatePersisting)
		if err := store.Persist(ctx, t.Aggregates()); err != nil {
			return err
		}

		t.transition(StatePublishing)
		logger.WithLogger(ctx, d.logger).Debug("Publishing domain events",
			zap.Int("pass", pass),
			zap.Int("events", len(batch)),
		)
		if err := d.publisher.Publish(ctx, batch...); err != nil {
			return err
		}
	}
}

// collect pulls pending events in attachment order, emission order within an aggregate.
func collect(aggregates []shared.AggregateRoot) []shared.DomainEvent {
	var batch []shared.DomainEvent
	for _, agg := range aggregates {
		batch = append(batch, agg.PullDomainEvents()...)
	}
	return batch
}

// Rollback abandons t. It is a no-op when t is already terminal.
func (d *EventDispatcher) Rollback(ctx context.Context, t *Tracker, store Store) error {
	if t.State().Terminal() {
		return nil
	}
	if err := t.open(StateFailed); err != nil {
		return err
	}
	t.discardEvents()
	if err := store.Rollback(); err != nil {
		logger.WithLogger(ctx, d.logger).Warn("Rollback failed", zap.Error(err))
		return err
	}
	return nil
}

func (d *EventDispatcher) fail(ctx context.Context, t *Tracker, store Store, at State, cause error) error {
	t.discardEvents()
	t.transition(StateFailed)
	if err := store.Rollback(); err != nil {
		logger.WithLogger(ctx, d.logger).Warn("Rollback after failed commit failed",
			zap.String("state", at.String()),
			zap.Error(err),
		)
	}
	return NewCommitError(at, cause)
}
