package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityServer(t *testing.T, handler http.HandlerFunc) *HTTPValidator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPValidator(server.URL, "")
}

func TestHTTPValidatorValidToken(t *testing.T) {
	validator := identityServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req validateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Token == "valid-token" {
			_ = json.NewEncoder(w).Encode(validateResponse{Valid: true, UserID: "user-123", Name: "Alice"})
			return
		}
		_ = json.NewEncoder(w).Encode(validateResponse{Valid: false})
	})

	identity, err := validator.Validate(context.Background(), "valid-token")
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: "user-123", Name: "Alice"}, identity)

	_, err = validator.Validate(context.Background(), "other")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHTTPValidatorRejectsEmptyTokenAndMissingUser(t *testing.T) {
	validator := identityServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(validateResponse{Valid: true})
	})

	_, err := validator.Validate(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = validator.Validate(context.Background(), "token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHTTPValidatorStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrInvalidToken},
		{"forbidden", http.StatusForbidden, ErrInvalidToken},
		{"rate limited", http.StatusTooManyRequests, ErrUnavailable},
		{"server error", http.StatusInternalServerError, ErrUnavailable},
		{"unexpected", http.StatusTeapot, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := identityServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})
			_, err := validator.Validate(context.Background(), "token")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPValidatorUnavailable(t *testing.T) {
	slow := identityServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * validateTimeout)
		_ = json.NewEncoder(w).Encode(validateResponse{Valid: true, UserID: "u"})
	})
	_, err := slow.Validate(context.Background(), "token")
	assert.ErrorIs(t, err, ErrUnavailable)

	malformed := identityServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})
	_, err = malformed.Validate(context.Background(), "token")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewHTTPValidator("http://localhost:1", "").Validate(context.Background(), "token")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPValidatorAdminSecret(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Get("X-Admin-Secret")
		_ = json.NewEncoder(w).Encode(validateResponse{Valid: true, UserID: "u"})
	}))
	t.Cleanup(server.Close)

	_, err := NewHTTPValidator(server.URL, "my-secret").Validate(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "my-secret", received)
}

func TestNoopValidator(t *testing.T) {
	identity, err := NewNoopValidator().Validate(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, identity)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws/r1?token=from-query", nil)
	assert.Equal(t, "from-query", BearerToken(r))

	r.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", BearerToken(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, BearerToken(r))
}
