// Package mediator routes typed requests to exactly one handler through a fixed
// chain of behaviors, and broadcasts domain events to notification handlers.
package mediator

import (
	"context"
	"reflect"
)

// Request is implemented by every request type. R is the result type returned by
// the single handler registered for the request. Request types satisfy it by
// embedding Returns[R]:
//
//	type CreateWidget struct {
//	    mediator.Returns[uuid.UUID]
//	    Name string
//	}
type Request[R any] interface {
	resultOf() R
}

// Returns binds a request type to its result type.
type Returns[R any] struct{}

func (Returns[R]) resultOf() R {
	var zero R
	return zero
}

// Secured is implemented by requests that may only be dispatched by callers
// holding a capability.
type Secured interface {
	RequiredCapability() string
}

// Void is the result type of requests that produce no value.
type Void struct{}

// HandlerFunc is the type-erased form of a request handler.
type HandlerFunc func(ctx context.Context, req any) (any, error)

// RequestName returns the name used for a request in logs, spans and errors.
func RequestName(req any) string {
	if req == nil {
		return "<nil>"
	}
	return reflect.TypeOf(req).String()
}
