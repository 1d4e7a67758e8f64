package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appealnotify/internal/core"
	"appealnotify/internal/notify"
	"appealnotify/internal/types"
)

type fakeDispatcher struct {
	contexts []notify.Context
	failWith error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, nctx notify.Context) error {
	f.contexts = append(f.contexts, nctx)
	return f.failWith
}

func newCallbackRouter(d *fakeDispatcher) *chi.Mux {
	h := NewCallbackHandler(d, core.NewValidator(), slog.New(slog.DiscardHandler))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postCallback(t *testing.T, r http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/callbacks/case-event", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func validRequest() CaseEventRequest {
	return CaseEventRequest{
		Event: "appealReceived",
		Case: &types.CaseData{
			CaseID:        "1234567890",
			CaseReference: "SC001/22/00001",
			Benefit:       "PIP",
		},
	}
}

func TestHandleCaseEventDispatches(t *testing.T) {
	d := &fakeDispatcher{}
	r := newCallbackRouter(d)

	rec := postCallback(t, r, validRequest())

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, d.contexts, 1)
	assert.Equal(t, "1234567890", d.contexts[0].CaseID())
	assert.Equal(t, "appealReceived", string(d.contexts[0].Event()))

	var resp struct {
		Data CaseEventResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "processed", resp.Data.Status)
	assert.Equal(t, "1234567890", resp.Data.CaseID)
}

func TestHandleCaseEventCarriesPriorSnapshot(t *testing.T) {
	d := &fakeDispatcher{}
	r := newCallbackRouter(d)

	req := validRequest()
	req.Event = "subscriptionUpdated"
	req.CaseBefore = &types.CaseData{CaseID: "1234567890"}
	rec := postCallback(t, r, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, d.contexts, 1)
	require.NotNil(t, d.contexts[0].Old())
}

func TestHandleCaseEventRejectsMissingCase(t *testing.T) {
	d := &fakeDispatcher{}
	r := newCallbackRouter(d)

	rec := postCallback(t, r, map[string]any{"event": "appealReceived"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, d.contexts)

	var resp struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(types.ErrCodeValidationMissingField), resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "case")
}

func TestHandleCaseEventRejectsMalformedJSON(t *testing.T) {
	d := &fakeDispatcher{}
	r := newCallbackRouter(d)

	req := httptest.NewRequest(http.MethodPost, "/callbacks/case-event",
		bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, d.contexts)
}

func TestHandleCaseEventRejectsUnknownFields(t *testing.T) {
	d := &fakeDispatcher{}
	r := newCallbackRouter(d)

	rec := postCallback(t, r, map[string]any{
		"event":    "appealReceived",
		"case":     map[string]any{"case_id": "1234567890"},
		"surprise": true,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCaseEventOutageMapsToBadGateway(t *testing.T) {
	d := &fakeDispatcher{failWith: types.NewAppError(
		types.ErrCodeNotifyOutage, "provider unreachable", nil)}
	r := newCallbackRouter(d)

	rec := postCallback(t, r, validRequest())

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleCaseEventGenericErrorMapsTo500(t *testing.T) {
	d := &fakeDispatcher{failWith: context.DeadlineExceeded}
	r := newCallbackRouter(d)

	rec := postCallback(t, r, validRequest())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(types.ErrCodeInternalUnexpected), resp.Error.Code)
}
