package auth

import (
	"testing"
	"time"

	"github.com/erp/modulith/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *TokenService {
	return NewTokenService(config.AuthConfig{
		Secret:                "test-secret-key-for-token-service",
		Issuer:                "modulith-test",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func TestTokenService_IssueAndParse(t *testing.T) {
	svc := newTestTokenService()
	identity := Identity{
		UserID:      uuid.New(),
		Username:    "alice",
		Permissions: []string{"widgets.create", "widgets.read"},
	}

	token, expiresAt, err := svc.Issue(identity)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	parsed, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, identity.UserID, parsed.UserID)
	assert.Equal(t, "alice", parsed.Username)
	assert.Equal(t, identity.Permissions, parsed.Permissions)
}

func TestTokenService_Parse_Errors(t *testing.T) {
	svc := newTestTokenService()
	token, _, err := svc.Issue(Identity{UserID: uuid.New()})
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenService(config.AuthConfig{Secret: "another-secret", Issuer: "modulith-test", AccessTokenExpiration: time.Minute})
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenService(config.AuthConfig{Secret: "test-secret-key-for-token-service", Issuer: "someone-else", AccessTokenExpiration: time.Minute})
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := newTestTokenService()
		later.now = func() time.Time { return time.Now().Add(time.Hour) }
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, _, err := NewTokenService(config.AuthConfig{}).Issue(Identity{})
		assert.ErrorIs(t, err, ErrMissingSecret)
	})
}
