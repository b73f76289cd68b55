package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassonapp/chatter/config"
	"github.com/hassonapp/chatter/internal/api"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey: "test-secret-key",
		TokenTTL:  time.Hour,
		Issuer:    "chatter-api",
		Audience:  "chatter-clients",
	}
}

func testAuthRecord() *api.AuthRecord {
	return &api.AuthRecord{
		ID:          uuid.New(),
		UID:         12345,
		Username:    "John",
		Email:       "john@example.com",
		AvatarColor: "#ff0000",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	cfg := testJWTConfig()
	rec := testAuthRecord()
	userID := uuid.New()

	token, err := IssueToken(cfg, userID, rec)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, rec.UID, claims.UID)
	assert.Equal(t, rec.Username, claims.Username)
	assert.Equal(t, rec.Email, claims.Email)
	assert.Equal(t, rec.AvatarColor, claims.AvatarColor)
}

func TestVerifyTokenFailuresCollapse(t *testing.T) {
	cfg := testJWTConfig()
	rec := testAuthRecord()
	userID := uuid.New()

	valid, err := IssueToken(cfg, userID, rec)
	require.NoError(t, err)

	expiredCfg := cfg
	expiredCfg.TokenTTL = -time.Hour
	expired, err := IssueToken(expiredCfg, userID, rec)
	require.NoError(t, err)

	otherKey := cfg
	otherKey.SecretKey = "a-different-secret"
	forged, err := IssueToken(otherKey, userID, rec)
	require.NoError(t, err)

	otherIssuer := cfg
	otherIssuer.Issuer = "someone-else"
	wrongIssuer, err := IssueToken(otherIssuer, userID, rec)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"truncated", valid[:len(valid)/2]},
		{"expired", expired},
		{"forged signature", forged},
		{"wrong issuer", wrongIssuer},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := VerifyToken(cfg, tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.True(t, errors.Is(err, api.ErrUnauthenticated))

			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "Token is invalid. Please login again.", apiErr.Message)
		})
	}
}
