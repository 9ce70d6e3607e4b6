// Package auth carries the caller identity through context and issues the
// bearer tokens the HTTP shell turns into identities.
package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Wildcard grants every capability.
const Wildcard = "*"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID      uuid.UUID
	Username    string
	Permissions []string
}

// IsAnonymous reports whether the identity belongs to no user.
func (i Identity) IsAnonymous() bool {
	return i.UserID == uuid.Nil
}

// HasPermission checks a capability against the granted permissions.
// "*" grants everything and "widgets.*" grants every capability under "widgets.".
func (i Identity) HasPermission(capability string) bool {
	for _, p := range i.Permissions {
		switch {
		case p == Wildcard, p == capability:
			return true
		case strings.HasSuffix(p, ".*") && strings.HasPrefix(capability, strings.TrimSuffix(p, "*")):
			return true
		}
	}
	return false
}

type identityKey struct{}

// WithIdentity stores the caller identity in ctx.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the caller identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}

// PermissionChecker grants a capability when the identity holds a matching permission.
type PermissionChecker struct{}

// NewPermissionChecker creates a PermissionChecker
func NewPermissionChecker() *PermissionChecker {
	return &PermissionChecker{}
}

// CheckAccess reports whether identity may use capability.
func (PermissionChecker) CheckAccess(identity Identity, capability string) bool {
	if identity.IsAnonymous() {
		return false
	}
	return identity.HasPermission(capability)
}
