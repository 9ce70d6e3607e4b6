package mediator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/modulith/internal/domain/shared"
)

// Configuration errors
var (
	ErrHandlerNotFound  = errors.New("no handler registered for request")
	ErrDuplicateHandler = errors.New("more than one handler registered for request")
	ErrBehaviorOrder    = errors.New("behaviors are not in canonical stage order")
	ErrResultType       = errors.New("handler returned a value of the wrong type")
	ErrRegistryBuilt    = errors.New("registry is already built")
)

// ErrNextCalledTwice is returned when a behavior invokes the rest of the chain more than once.
var ErrNextCalledTwice = errors.New("behavior called next more than once")

// ConfigurationError reports a missing or ambiguous registration. It is never retryable.
type ConfigurationError struct {
	RequestType string
	Err         error
}

func (e *ConfigurationError) Error() string {
	if e.RequestType == "" {
		return "mediator configuration: " + e.Err.Error()
	}
	return fmt.Sprintf("mediator configuration: %s: %v", e.RequestType, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Retryable always reports false.
func (e *ConfigurationError) Retryable() bool { return false }

// ValidationFailure is a single broken rule.
type ValidationFailure struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError carries every failure produced by the validators of a request.
type ValidationError struct {
	RequestType string
	Failures    []ValidationFailure
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.RequestType, strings.Join(parts, "; "))
}

// AuthorizationError is returned when the caller lacks the capability a request requires.
type AuthorizationError struct {
	RequestType string
	Capability  string
	CallerID    string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("caller is missing capability %q required by %s", e.Capability, e.RequestType)
}

// InfrastructureError is the normalized form of any unexpected failure. The
// underlying cause is kept for logging and is not part of the message.
type InfrastructureError struct {
	RequestType   string
	CorrelationID string
	cause         error
}

// NewInfrastructureError wraps an unexpected failure.
func NewInfrastructureError(requestType, correlationID string, cause error) *InfrastructureError {
	return &InfrastructureError{
		RequestType:   requestType,
		CorrelationID: correlationID,
		cause:         cause,
	}
}

func (e *InfrastructureError) Error() string {
	if e.CorrelationID == "" {
		return "internal error while processing " + e.RequestType
	}
	return fmt.Sprintf("internal error while processing %s (correlation id %s)", e.RequestType, e.CorrelationID)
}

// Cause returns the original failure. It must not be shown to callers.
func (e *InfrastructureError) Cause() error { return e.cause }

// IsExpected reports whether err belongs to a kind the pipeline passes through
// unchanged: validation, authorization, configuration, domain, or an already
// normalized infrastructure error. Cancellation counts only when it is the
// cancellation of ctx itself; see CallerCanceled.
func IsExpected(ctx context.Context, err error) bool {
	if err == nil {
		return true
	}
	var (
		ve *ValidationError
		ae *AuthorizationError
		ce *ConfigurationError
		ie *InfrastructureError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &ae), errors.As(err, &ce), errors.As(err, &ie):
		return true
	case CallerCanceled(ctx, err):
		return true
	}
	_, ok := shared.AsDomainError(err)
	return ok
}

// CallerCanceled reports whether err is the cancellation or deadline of ctx.
// A context error raised by some other context, such as a subscriber's own
// timeout, does not count.
func CallerCanceled(ctx context.Context, err error) bool {
	ctxErr := ctx.Err()
	return ctxErr != nil && errors.Is(err, ctxErr)
}
