package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/infrastructure/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RequestDurationMetric is the histogram recording handler time per request type.
const RequestDurationMetric = "mediator.request.duration"

// Performance times the rest of the chain, records the duration and warns
// when it exceeds the threshold. A zero threshold disables the warning.
type Performance struct {
	logger    *zap.Logger
	threshold time.Duration
	duration  metric.Float64Histogram
}

// NewPerformance creates the performance behavior
func NewPerformance(log *zap.Logger, meter metric.Meter, threshold time.Duration) (*Performance, error) {
	duration, err := meter.Float64Histogram(
		RequestDurationMetric,
		metric.WithDescription("Time spent in request handlers"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", RequestDurationMetric, err)
	}
	return &Performance{
		logger:    log.Named("pipeline"),
		threshold: threshold,
		duration:  duration,
	}, nil
}

// Stage implements mediator.Behavior
func (p *Performance) Stage() mediator.Stage { return mediator.StagePerformance }

// Handle implements mediator.Behavior
func (p *Performance) Handle(ctx context.Context, req any, next mediator.Next) (any, error) {
	start := time.Now()
	res, err := next(ctx)
	elapsed := time.Since(start)

	name := mediator.RequestName(req)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), metric.WithAttributes(
		attribute.String("request", name),
		attribute.String("outcome", outcome),
	))

	if p.threshold > 0 && elapsed > p.threshold {
		logger.WithLogger(ctx, p.logger).Warn("Slow request",
			zap.String("request", name),
			zap.Duration("duration", elapsed),
			zap.Duration("threshold", p.threshold),
		)
	}
	return res, err
}
