package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appealnotify/internal/config"
	"appealnotify/internal/types"
)

type fakeVerifier struct {
	accepted []string
	failWith error
}

func (f *fakeVerifier) Verify(_ context.Context, token string) error {
	f.accepted = append(f.accepted, token)
	return f.failWith
}

func newTestServer(t *testing.T, verifier types.TokenVerifier) *Server {
	t.Helper()
	s, err := NewServer(&config.Config{Environment: "local"},
		slog.New(slog.DiscardHandler), verifier)
	require.NoError(t, err)
	return s
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDMiddlewareGeneratesID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = types.GetRequestID(r.Context())
	})

	rec := httptest.NewRecorder()
	RequestIDMiddleware(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDMiddlewarePropagatesIncomingID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = types.GetRequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "upstream-7")
	rec := httptest.NewRecorder()
	RequestIDMiddleware(inner).ServeHTTP(rec, req)

	assert.Equal(t, "upstream-7", seen)
	assert.Equal(t, "upstream-7", rec.Header().Get("X-Request-Id"))
}

func TestRecovererWritesEnvelope(t *testing.T) {
	s := newTestServer(t, &fakeVerifier{})
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	s.Recoverer(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(types.ErrCodeInternalUnexpected), resp.Error.Code)
}

func TestAuthMiddlewareStripsBearerPrefix(t *testing.T) {
	v := &fakeVerifier{}
	s := newTestServer(t, v)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer svc-token")
	rec := httptest.NewRecorder()
	s.AuthMiddleware(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, v.accepted, 1)
	assert.Equal(t, "svc-token", v.accepted[0])
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	v := &fakeVerifier{failWith: types.NewAppError(
		types.ErrCodeAuthTokenInvalid, "token rejected", nil)}
	s := newTestServer(t, v)

	var reached bool
	inner := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { reached = true })

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	s.AuthMiddleware(inner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestValidatorUsesJSONFieldNames(t *testing.T) {
	v := NewValidator()

	type payload struct {
		Event string `json:"event" validate:"required"`
	}
	err := v.ValidateStruct(payload{})

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationMissingField, appErr.Code)
	assert.Contains(t, appErr.Details, "event")
}
