package mediator

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Stage positions a behavior in the pipeline. Behaviors run in ascending stage
// order, outermost first; the handler always runs last.
type Stage int

const (
	StageExceptions Stage = iota + 1
	StageLogging
	StageValidation
	StageAuthorization
	StagePerformance
)

// String returns the stage name
func (s Stage) String() string {
	switch s {
	case StageExceptions:
		return "exceptions"
	case StageLogging:
		return "logging"
	case StageValidation:
		return "validation"
	case StageAuthorization:
		return "authorization"
	case StagePerformance:
		return "performance"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Next continues the pipeline with the next behavior or the handler.
type Next func(ctx context.Context) (any, error)

// Behavior wraps handler invocation with a cross-cutting concern. Handle must
// either call next exactly once or return its own result without calling it.
type Behavior interface {
	Stage() Stage
	Handle(ctx context.Context, req any, next Next) (any, error)
}

// checkOrder requires strictly ascending stages, so each concern appears at most
// once and the order is the same for every request.
func checkOrder(behaviors []Behavior) error {
	var last Stage
	for _, b := range behaviors {
		if b.Stage() <= last {
			return &ConfigurationError{
				Err: fmt.Errorf("%w: %s after %s", ErrBehaviorOrder, b.Stage(), last),
			}
		}
		last = b.Stage()
	}
	return nil
}

func compose(behaviors []Behavior, req any, terminal Next) Next {
	next := terminal
	for i := len(behaviors) - 1; i >= 0; i-- {
		b := behaviors[i]
		inner := once(next)
		next = func(ctx context.Context) (any, error) {
			return b.Handle(ctx, req, inner)
		}
	}
	return next
}

func once(next Next) Next {
	var called atomic.Bool
	return func(ctx context.Context) (any, error) {
		if !called.CompareAndSwap(false, true) {
			return nil, ErrNextCalledTwice
		}
		return next(ctx)
	}
}
