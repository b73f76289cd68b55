package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hassonapp/chatter/internal/api"
	"github.com/hassonapp/chatter/testutil"
)

func TestAuthenticateAttachesClaims(t *testing.T) {
	cfg := testJWTConfig()
	rec := testAuthRecord()
	userID := uuid.New()

	token, err := IssueToken(cfg, userID, rec)
	require.NoError(t, err)

	var gotClaims *api.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = api.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/currentuser", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	Authenticate(cfg, testutil.DiscardLogger())(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, userID.String(), gotClaims.UserID)
	assert.Equal(t, rec.Username, gotClaims.Username)
}

func TestAuthenticateRejections(t *testing.T) {
	cfg := testJWTConfig()

	otherKey := cfg
	otherKey.SecretKey = "wrong"
	forged, err := IssueToken(otherKey, uuid.New(), testAuthRecord())
	require.NoError(t, err)

	tests := []struct {
		name        string
		header      string
		wantMessage string
	}{
		{"missing header", "", "Token is not available. Please login again."},
		{"wrong scheme", "Basic abc", "Token is not available. Please login again."},
		{"forged token", "Bearer " + forged, "Token is invalid. Please login again."},
		{"garbage token", "Bearer garbage", "Token is invalid. Please login again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run without a valid session")
			})

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/currentuser", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			Authenticate(cfg, testutil.DiscardLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMessage, body["message"])
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, float64(http.StatusUnauthorized), body["statusCode"])
		})
	}
}

func TestRequireAuthenticatedWithoutClaims(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without claims on the context")
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/currentuser", nil)
	RequireAuthenticated(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAuthenticatedPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/currentuser", nil)
	req = req.WithContext(api.WithClaims(req.Context(), &api.Claims{UserID: uuid.NewString()}))
	RequireAuthenticated(next).ServeHTTP(rr, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
}
