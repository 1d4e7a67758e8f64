package core

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"appealnotify/internal/types"
)

// maxRequestBodySize caps inbound callback bodies. Case snapshots with
// document lists stay well under this.
const maxRequestBodySize = 1 << 20 // 1 MB

// APIResponse is the envelope for successful responses.
type APIResponse struct {
	Data any `json:"data,omitempty"`
}

// APIErrorResponse is the envelope for error responses.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the structured error information returned to callers.
type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id"`
}

// JSON writes a JSON response with the given status code and payload.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fallback := APIErrorResponse{
			Error: ErrorDetail{
				Code:      string(types.ErrCodeInternalUnexpected),
				Message:   "failed to marshal response",
				RequestID: types.GetRequestID(r.Context()),
			},
		}
		_ = json.NewEncoder(w).Encode(fallback)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes an error response. An error chain carrying a *types.AppError
// maps its code to the HTTP status; anything else is a 500 with a generic
// message, never leaking internal detail.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	requestID := types.GetRequestID(r.Context())

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		JSON(w, r, appErr.HTTPStatus(), APIErrorResponse{
			Error: ErrorDetail{
				Code:      string(appErr.Code),
				Message:   appErr.Message,
				Details:   appErr.Details,
				RequestID: requestID,
			},
		})
		return
	}

	JSON(w, r, http.StatusInternalServerError, APIErrorResponse{
		Error: ErrorDetail{
			Code:      string(types.ErrCodeInternalUnexpected),
			Message:   "an unexpected error occurred",
			RequestID: requestID,
		},
	})
}

// DecodeJSON reads the request body into dst, enforcing the body size cap,
// rejecting unknown fields, and requiring exactly one JSON value. All decode
// failures map to ErrCodeValidationBadPayload (400).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return mapDecodeError(err)
	}
	if dec.More() {
		return types.NewAppError(types.ErrCodeValidationBadPayload,
			"request body must contain a single JSON object", nil)
	}
	return nil
}

// mapDecodeError translates a json.Decoder failure into a structured
// AppError.
func mapDecodeError(err error) *types.AppError {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return types.NewAppError(types.ErrCodeValidationBadPayload,
			"request body must not exceed 1MB", err)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return types.NewAppError(types.ErrCodeValidationBadPayload,
			"malformed JSON in request body", err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return types.NewAppError(types.ErrCodeValidationBadPayload,
			"invalid value for field", err).
			WithDetail("field", typeErr.Field).
			WithDetail("expected", typeErr.Type.String())
	}

	if strings.HasPrefix(err.Error(), "json: unknown field") {
		return types.NewAppError(types.ErrCodeValidationBadPayload,
			"unknown field in request body: "+strings.TrimPrefix(err.Error(), "json: unknown field "),
			err)
	}

	if errors.Is(err, io.EOF) {
		return types.NewAppError(types.ErrCodeValidationBadPayload,
			"request body must not be empty", err)
	}

	return types.NewAppError(types.ErrCodeValidationBadPayload,
		"invalid JSON in request body", err)
}
