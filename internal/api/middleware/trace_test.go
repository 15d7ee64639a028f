package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTraceHeaderValidation(t *testing.T) {
	handler := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// Junk inbound ids are replaced with a fresh UUID.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-ID", "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	echoed := rec.Header().Get("X-Trace-ID")
	assert.NotEqual(t, "not-a-uuid", echoed)
	assert.NoError(t, uuid.Validate(echoed))

	// A well-formed inbound id is propagated untouched.
	valid := uuid.NewString()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-ID", valid)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, valid, rec.Header().Get("X-Trace-ID"))
}

func TestRequestLogCarriesMerchant(t *testing.T) {
	secret := "test-secret-0123456789-test-secret"
	SetJWTSecret(secret)
	SetJWTValidation("", "")

	core, logs := observer.New(zap.InfoLevel)
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := TraceMiddleware(LoggingMiddleware(zap.New(core))(AuthMiddleware(final)))

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"mch_id": int64(7),
		"role":   "merchant",
		"iat":    now.Unix(),
		"exp":    now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/1", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 7, fields["mch_id"])
	assert.NotEmpty(t, fields["trace_id"])
}
