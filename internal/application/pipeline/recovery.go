package pipeline

import (
	"context"
	"fmt"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Recovery is the outermost behavior. It gives the request a correlation id when
// the caller did not, and turns panics and unexpected errors into an
// InfrastructureError after logging the cause once.
type Recovery struct {
	logger *zap.Logger
}

// NewRecovery creates the exception translation behavior
func NewRecovery(log *zap.Logger) *Recovery {
	return &Recovery{logger: log.Named("pipeline")}
}

// Stage implements mediator.Behavior
func (r *Recovery) Stage() mediator.Stage { return mediator.StageExceptions }

// Handle implements mediator.Behavior
func (r *Recovery) Handle(ctx context.Context, req any, next mediator.Next) (res any, err error) {
	ctx, _ = logger.EnsureCorrelationID(ctx)
	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = r.normalize(ctx, req, fmt.Errorf("panic: %v", p), zap.Stack("stacktrace"))
		}
	}()

	res, err = next(ctx)
	if mediator.CallerCanceled(ctx, err) {
		return nil, ctx.Err()
	}
	if mediator.IsExpected(ctx, err) {
		return res, err
	}
	return nil, r.normalize(ctx, req, err)
}

func (r *Recovery) normalize(ctx context.Context, req any, cause error, extra ...zap.Field) error {
	name := mediator.RequestName(req)
	fields := append([]zap.Field{
		zap.String("request", name),
		zap.Any("payload", Sanitize(req)),
		zap.Error(cause),
	}, extra...)
	logger.WithLogger(ctx, r.logger).Error("Request failed unexpectedly", fields...)
	return mediator.NewInfrastructureError(name, logger.CorrelationID(ctx), cause)
}
