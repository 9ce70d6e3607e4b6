package pipeline

import (
	"context"

	"github.com/erp/modulith/internal/application/mediator"
	"github.com/erp/modulith/internal/infrastructure/auth"
)

// AccessChecker decides whether an identity holds a capability.
type AccessChecker interface {
	CheckAccess(identity auth.Identity, capability string) bool
}

// Authorization rejects requests implementing mediator.Secured when the caller
// in the context lacks the required capability.
type Authorization struct {
	checker AccessChecker
}

// NewAuthorization creates the authorization behavior
func NewAuthorization(checker AccessChecker) *Authorization {
	return &Authorization{checker: checker}
}

// Stage implements mediator.Behavior
func (a *Authorization) Stage() mediator.Stage { return mediator.StageAuthorization }

// Handle implements mediator.Behavior
func (a *Authorization) Handle(ctx context.Context, req any, next mediator.Next) (any, error) {
	secured, ok := req.(mediator.Secured)
	if !ok {
		return next(ctx)
	}
	capability := secured.RequiredCapability()
	identity, _ := auth.IdentityFromContext(ctx)
	if !a.checker.CheckAccess(identity, capability) {
		return nil, &mediator.AuthorizationError{
			RequestType: mediator.RequestName(req),
			Capability:  capability,
			CallerID:    callerID(ctx),
		}
	}
	return next(ctx)
}
