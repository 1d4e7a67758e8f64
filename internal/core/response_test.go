package core

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appealnotify/internal/types"
)

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestErrorMapsAppErrorToStatus(t *testing.T) {
	tests := []struct {
		name       string
		code       types.ErrorCode
		wantStatus int
	}{
		{"validation", types.ErrCodeValidationBadPayload, http.StatusBadRequest},
		{"auth", types.ErrCodeAuthTokenInvalid, http.StatusUnauthorized},
		{"not found", types.ErrCodeNotFoundDocument, http.StatusNotFound},
		{"outage", types.ErrCodeNotifyOutage, http.StatusBadGateway},
		{"internal", types.ErrCodeInternalDB, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			Error(rec, req, types.NewAppError(tt.code, "boom", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, string(tt.code), decodeErrorBody(t, rec).Code)
		})
	}
}

func TestErrorHidesGenericErrorDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(rec, req, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	detail := decodeErrorBody(t, rec)
	assert.Equal(t, string(types.ErrCodeInternalUnexpected), detail.Code)
	assert.NotContains(t, detail.Message, assert.AnError.Error())
}

func TestErrorIncludesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(types.WithRequestID(req.Context(), "req-42"))

	Error(rec, req, types.NewAppError(types.ErrCodeNotFoundCase, "missing", nil))

	assert.Equal(t, "req-42", decodeErrorBody(t, rec).RequestID)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"known":"x","unknown":1}`))

	var dst struct {
		Known string `json:"known"`
	}
	err := DecodeJSON(rec, req, &dst)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationBadPayload, appErr.Code)
	assert.Contains(t, appErr.Message, "unknown field")
}

func TestDecodeJSONRejectsEmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(nil))

	var dst struct{}
	err := DecodeJSON(rec, req, &dst)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "must not be empty")
}

func TestDecodeJSONRejectsTrailingValues(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{} {}`))

	var dst struct{}
	err := DecodeJSON(rec, req, &dst)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "single JSON object")
}

func TestDecodeJSONReportsTypeMismatchField(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"count":"not a number"}`))

	var dst struct {
		Count int `json:"count"`
	}
	err := DecodeJSON(rec, req, &dst)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "count", appErr.Details["field"])
}
