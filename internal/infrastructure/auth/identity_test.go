package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIdentity_HasPermission(t *testing.T) {
	tests := []struct {
		name        string
		permissions []string
		capability  string
		want        bool
	}{
		{"exact match", []string{"widgets.create"}, "widgets.create", true},
		{"no match", []string{"widgets.read"}, "widgets.create", false},
		{"global wildcard", []string{"*"}, "invoices.issue", true},
		{"namespace wildcard", []string{"widgets.*"}, "widgets.discontinue", true},
		{"namespace wildcard does not leak", []string{"widgets.*"}, "widgetsx.create", false},
		{"empty", nil, "widgets.read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := Identity{UserID: uuid.New(), Permissions: tt.permissions}
			assert.Equal(t, tt.want, identity.HasPermission(tt.capability))
		})
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	identity := Identity{UserID: uuid.New(), Username: "alice"}
	got, ok := IdentityFromContext(WithIdentity(context.Background(), identity))
	assert.True(t, ok)
	assert.Equal(t, identity.UserID, got.UserID)
}

func TestPermissionChecker(t *testing.T) {
	checker := NewPermissionChecker()

	assert.False(t, checker.CheckAccess(Identity{Permissions: []string{"*"}}, "widgets.create"), "anonymous callers hold nothing")
	assert.True(t, checker.CheckAccess(Identity{UserID: uuid.New(), Permissions: []string{"widgets.create"}}, "widgets.create"))
}
