// Package pipeline provides the cross-cutting behaviors of the mediator in
// their canonical order: exception translation, logging, validation,
// authorization and performance monitoring.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options configures the standard behaviors. Zero values fall back to no-op
// logging, the global OpenTelemetry providers and no slow-request warning.
type Options struct {
	Logger        *zap.Logger
	Tracer        trace.Tracer
	Meter         metric.Meter
	SlowThreshold time.Duration
	AccessChecker AccessChecker
	Validators    []mediator.Validator
}

// Standard returns the behaviors in canonical order, ready for mediator.New.
func Standard(registry *mediator.Registry, opts Options) ([]mediator.Behavior, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("github.com/erp/modulith/pipeline")
	}
	if opts.Meter == nil {
		opts.Meter = otel.Meter("github.com/erp/modulith/pipeline")
	}
	if opts.AccessChecker == nil {
		return nil, errors.New("pipeline: an access checker is required")
	}

	performance, err := NewPerformance(opts.Logger, opts.Meter, opts.SlowThreshold)
	if err != nil {
		return nil, err
	}
	return []mediator.Behavior{
		NewRecovery(opts.Logger),
		NewLogging(opts.Logger, opts.Tracer),
		NewValidation(registry, opts.Validators...),
		NewAuthorization(opts.AccessChecker),
		performance,
	}, nil
}

func errorKind(err error) string {
	var (
		ve *mediator.ValidationError
		ae *mediator.AuthorizationError
		ce *mediator.ConfigurationError
		ie *mediator.InfrastructureError
	)
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &ae):
		return "authorization"
	case errors.As(err, &ce):
		return "configuration"
	case errors.As(err, &ie):
		return "infrastructure"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	if de, ok := shared.AsDomainError(err); ok {
		return "domain:" + de.Code
	}
	return "unexpected"
}
