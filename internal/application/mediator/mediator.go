package mediator

import (
	"context"
	"fmt"

	"github.com/erp/modulith/internal/domain/shared"
	"go.uber.org/zap"
)

// Mediator dispatches requests through the behavior chain and publishes
// notifications. It holds no mutable state and is safe for concurrent use.
type Mediator struct {
	registry  *Registry
	behaviors []Behavior
	logger    *zap.Logger
}

// New creates a mediator over a built registry. Behaviors must be given in
// canonical stage order; stages may be omitted but never reordered.
func New(registry *Registry, logger *zap.Logger, behaviors ...Behavior) (*Mediator, error) {
	if err := checkOrder(behaviors); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mediator{
		registry:  registry,
		behaviors: append([]Behavior(nil), behaviors...),
		logger:    logger.Named("mediator"),
	}, nil
}

// Registry returns the registration table the mediator routes with.
func (m *Mediator) Registry() *Registry {
	return m.registry
}

// Send dispatches req to its handler and returns the typed result.
func Send[R any](ctx context.Context, m *Mediator, req Request[R]) (R, error) {
	var zero R
	res, err := m.Dispatch(ctx, req)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	typed, ok := res.(R)
	if !ok {
		return zero, &ConfigurationError{
			RequestType: RequestName(req),
			Err:         fmt.Errorf("%w: got %T, want %T", ErrResultType, res, zero),
		}
	}
	return typed, nil
}

// Dispatch routes an untyped request. Hosting shells that only hold the
// request as a value use it; application code uses Send.
func (m *Mediator) Dispatch(ctx context.Context, req any) (any, error) {
	entry, ok := m.registry.handler(req)
	if !ok {
		return nil, &ConfigurationError{RequestType: RequestName(req), Err: ErrHandlerNotFound}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terminal := func(ctx context.Context) (any, error) {
		return entry.invoke(ctx, req)
	}
	return compose(m.behaviors, req, terminal)(ctx)
}

// Publish delivers each event to every subscribed handler, synchronously and in
// order. The first handler failure stops delivery and is returned.
func (m *Mediator) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		handlers := m.registry.NotificationHandlers(event.EventType())
		if len(handlers) == 0 {
			m.logger.Debug("no subscribers for event", zap.String("event_type", event.EventType()))
			continue
		}
		for _, handler := range handlers {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := m.deliver(ctx, handler, event); err != nil {
				return fmt.Errorf("notification %s (event %s): %w", event.EventType(), event.EventID(), err)
			}
		}
	}
	return nil
}

func (m *Mediator) deliver(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("notification handler panicked",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("notification handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

// Ensure Mediator implements shared.EventPublisher
var _ shared.EventPublisher = (*Mediator)(nil)
