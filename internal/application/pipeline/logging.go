package pipeline

import (
	"context"
	"time"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/infrastructure/auth"
	"github.com/erp/modulith/internal/infrastructure/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Logging logs each request on entry and on completion and wraps the rest of
// the chain in a span. It never changes the outcome.
type Logging struct {
	logger *zap.Logger
	tracer trace.Tracer
}

// NewLogging creates the logging behavior
func NewLogging(log *zap.Logger, tracer trace.Tracer) *Logging {
	return &Logging{logger: log.Named("pipeline"), tracer: tracer}
}

// Stage implements mediator.Behavior
func (l *Logging) Stage() mediator.Stage { return mediator.StageLogging }

// Handle implements mediator.Behavior
func (l *Logging) Handle(ctx context.Context, req any, next mediator.Next) (any, error) {
	name := mediator.RequestName(req)
	caller := callerID(ctx)

	ctx, span := l.tracer.Start(ctx, "mediator "+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("mediator.request", name),
			attribute.String("mediator.caller_id", caller),
		),
	)
	defer span.End()

	log := logger.WithLogger(ctx, l.logger).With(zap.String("request", name))
	log.Info("Handling request",
		zap.String("caller", caller),
		zap.Any("payload", Sanitize(req)),
	)

	start := time.Now()
	res, err := next(ctx)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorKind(err))
		fields := []zap.Field{
			zap.Duration("duration", elapsed),
			zap.String("error_kind", errorKind(err)),
		}
		// unexpected causes are logged by Recovery
		if mediator.IsExpected(ctx, err) {
			fields = append(fields, zap.String("error", err.Error()))
		}
		log.Info("Request finished with error", fields...)
		return res, err
	}

	span.SetStatus(codes.Ok, "")
	log.Info("Request handled", zap.Duration("duration", elapsed))
	return res, nil
}

// callerID names the caller from the authenticated identity, falling back to
// the caller id attached by the transport.
func callerID(ctx context.Context) string {
	if identity, ok := auth.IdentityFromContext(ctx); ok && !identity.IsAnonymous() {
		return identity.UserID.String()
	}
	if id := logger.CallerID(ctx); id != "" {
		return id
	}
	return "anonymous"
}
