// Package handlers contains the HTTP handler implementations for the
// case-event callback API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appealnotify/internal/core"
	"appealnotify/internal/events"
	"appealnotify/internal/notify"
	"appealnotify/internal/types"
)

// Dispatcher runs the notification engine for one case event. The handler
// depends on this abstraction rather than the concrete orchestrator for
// testability.
type Dispatcher interface {
	Dispatch(ctx context.Context, nctx notify.Context) error
}

// CallbackHandler receives case-lifecycle event callbacks from the
// case-management system and hands them to the dispatch engine.
type CallbackHandler struct {
	dispatcher Dispatcher
	validator  *core.Validator
	logger     *slog.Logger
}

// NewCallbackHandler creates a CallbackHandler.
func NewCallbackHandler(dispatcher Dispatcher, validator *core.Validator, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		dispatcher: dispatcher,
		validator:  validator,
		logger:     logger,
	}
}

// RegisterRoutes mounts the callback endpoint on the given router.
func (h *CallbackHandler) RegisterRoutes(r chi.Router) {
	r.Post("/callbacks/case-event", h.HandleCaseEvent)
}

// CaseEventRequest is the callback payload. The new snapshot is mandatory;
// the prior snapshot may be absent for events that carry no before-state.
type CaseEventRequest struct {
	Event      string          `json:"event" validate:"required"`
	Case       *types.CaseData `json:"case" validate:"required"`
	CaseBefore *types.CaseData `json:"case_before,omitempty"`
}

// CaseEventResponse acknowledges a processed callback.
type CaseEventResponse struct {
	CaseID string `json:"case_id"`
	Event  string `json:"event"`
	Status string `json:"status"`
}

// HandleCaseEvent processes POST /callbacks/case-event.
//
// Delivery is at-least-once, so the dispatch path behind this handler is
// idempotent at the scheduling layer; a retried callback re-cancels and
// re-schedules the same job groups. Errors map to the standard envelope:
// validation failures are 400, a provider outage is 502 so the caller
// retries the whole callback.
func (h *CallbackHandler) HandleCaseEvent(w http.ResponseWriter, r *http.Request) {
	var req CaseEventRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	nctx, err := notify.NewContext(events.Type(req.Event), req.Case, req.CaseBefore)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), nctx); err != nil {
		h.logger.Error("dispatch failed",
			slog.String("case_id", nctx.CaseID()),
			slog.String("event", req.Event),
			slog.Any("error", err),
		)
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: CaseEventResponse{
		CaseID: nctx.CaseID(),
		Event:  req.Event,
		Status: "processed",
	}})
}
