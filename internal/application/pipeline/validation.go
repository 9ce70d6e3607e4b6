package pipeline

import (
	"context"

	"github.com/erp/modulith/internal/application/mediator"
)

// Validation runs every validator registered for the request type plus the
// shared validators, and stops the chain with all failures merged.
type Validation struct {
	registry *mediator.Registry
	shared   []mediator.Validator
}

// NewValidation creates the validation behavior. Shared validators run for
// every request type after the registered ones.
func NewValidation(registry *mediator.Registry, shared ...mediator.Validator) *Validation {
	return &Validation{registry: registry, shared: shared}
}

// Stage implements mediator.Behavior
func (v *Validation) Stage() mediator.Stage { return mediator.StageValidation }

// Handle implements mediator.Behavior
func (v *Validation) Handle(ctx context.Context, req any, next mediator.Next) (any, error) {
	var failures []mediator.ValidationFailure
	for _, validator := range v.registry.Validators(req) {
		failures = append(failures, validator.Validate(ctx, req)...)
	}
	for _, validator := range v.shared {
		failures = append(failures, validator.Validate(ctx, req)...)
	}
	if len(failures) > 0 {
		return nil, &mediator.ValidationError{
			RequestType: mediator.RequestName(req),
			Failures:    failures,
		}
	}
	return next(ctx)
}
