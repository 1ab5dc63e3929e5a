package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "namedeed/pkg/domain"
	"namedeed/pkg/requestcontext"
)

const signingKey = "test-signing-key"

func signToken(t *testing.T, subject, key string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestHS256Validator_ValidToken(t *testing.T) {
	validator := NewHS256Validator(signingKey)

	acct, err := validator.ValidateToken(signToken(t, "0x1111111111111111111111111111111111111111", signingKey))
	require.NoError(t, err)
	assert.Equal(t, id.Account("0x1111111111111111111111111111111111111111"), acct)
}

func TestHS256Validator_Rejections(t *testing.T) {
	validator := NewHS256Validator(signingKey)

	_, err := validator.ValidateToken(signToken(t, "0x1111111111111111111111111111111111111111", "wrong-key"))
	assert.Error(t, err, "wrong signing key")

	_, err = validator.ValidateToken(signToken(t, "not-an-address", signingKey))
	assert.Error(t, err, "subject must be a rail account")

	_, err = validator.ValidateToken("garbage")
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	validator := NewHS256Validator(signingKey)
	var caller id.Account
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller = requestcontext.Caller(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(validator, slog.Default())(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "0x1111111111111111111111111111111111111111", signingKey))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id.Account("0x1111111111111111111111111111111111111111"), caller)
}

func TestRequireAuth_MissingOrBadToken(t *testing.T) {
	validator := NewHS256Validator(signingKey)
	handler := RequireAuth(validator, slog.Default())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
