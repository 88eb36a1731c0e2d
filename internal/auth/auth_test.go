package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"airtel-ipn-service/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(ttl time.Duration) *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			Issuer:    "airtel-ipn-service",
			TokenTTL:  ttl,
		},
		Switches: map[string]config.SwitchConfig{
			"airtel": {
				ID:        "airtel",
				Name:      "Airtel Kenya",
				APIKey:    "key-1",
				APISecret: "secret-1",
				Enabled:   true,
			},
			"disabled": {
				ID:        "disabled",
				APIKey:    "key-2",
				APISecret: "secret-2",
				Enabled:   false,
			},
		},
	}
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService(testConfig(30 * time.Minute))

	token, expiresAt, err := svc.Issue("key-1", "secret-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.After(time.Now()))

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "airtel", claims.SwitchID)
	require.Equal(t, "Airtel Kenya", claims.SwitchName)
}

func TestTokenService_RejectsBadCredentials(t *testing.T) {
	svc := NewTokenService(testConfig(30 * time.Minute))

	_, _, err := svc.Issue("key-1", "wrong-secret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Issue("unknown-key", "secret-1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Issue("key-2", "secret-2")
	require.ErrorIs(t, err, ErrInvalidCredentials, "disabled switch cannot authenticate")
}

func TestTokenService_RejectsExpiredToken(t *testing.T) {
	svc := NewTokenService(testConfig(-time.Minute))

	token, _, err := svc.Issue("key-1", "secret-1")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsForeignSignature(t *testing.T) {
	issuer := NewTokenService(testConfig(30 * time.Minute))

	other := testConfig(30 * time.Minute)
	other.Auth.JWTSecret = "different-secret"
	verifier := NewTokenService(other)

	token, _, err := issuer.Issue("key-1", "secret-1")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	svc := NewTokenService(testConfig(30 * time.Minute))
	logger := zap.NewNop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "airtel", claims.SwitchID)
		w.WriteHeader(http.StatusOK)
	})
	protected := Middleware(svc, logger)(next)

	t.Run("missing header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/ipn/validate", nil))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ipn/validate", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, _, err := svc.Issue("key-1", "secret-1")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/ipn/validate", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
	})
}
