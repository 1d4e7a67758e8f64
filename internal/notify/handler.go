package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"appealnotify/internal/types"
)

// SendFunc performs one provider send and returns the provider notification id.
type SendFunc func(ctx context.Context) (string, error)

// SendRequest describes one channel send with everything needed to resume it
// from a scheduled retry job. Precompiled letters are not serialized with
// their PDF bytes; the bundle is recomposed from case data when the retry
// fires.
type SendRequest struct {
	Channel      types.Channel     `json:"channel"`
	TemplateID   string            `json:"template_id,omitempty"`
	Destination  types.Destination `json:"destination"`
	Placeholders map[string]string `json:"placeholders,omitempty"`
	Reference    string            `json:"reference"`
	Attempt      int               `json:"attempt"`
	Precompiled  bool              `json:"precompiled,omitempty"`
}

// DispatchHandler executes a single channel send and classifies the outcome:
// success, provider outage (fatal, propagated), retryable provider rejection
// (a retry job is scheduled), or terminal failure (logged and dropped).
type DispatchHandler struct {
	scheduler types.JobScheduler
	sender    types.NotificationSender
	policy    *RetryPolicy
	metrics   NotificationMetrics
	logger    types.Logger
}

func NewDispatchHandler(scheduler types.JobScheduler, sender types.NotificationSender,
	policy *RetryPolicy, metrics NotificationMetrics, logger types.Logger) *DispatchHandler {
	return &DispatchHandler{
		scheduler: scheduler,
		sender:    sender,
		policy:    policy,
		metrics:   metrics,
		logger:    logger,
	}
}

// Send executes sendFn and handles the outcome. It reports whether the
// provider accepted the send. Provider outages return an error and are never
// retried here; retryable rejections schedule a retry job and return
// (false, nil); terminal rejections are dropped with a log line.
func (h *DispatchHandler) Send(ctx context.Context, nctx Context, req SendRequest, sendFn SendFunc) (bool, error) {
	log := h.logger.With(
		"case_id", nctx.CaseID(),
		"event", string(nctx.Event()),
		"channel", string(req.Channel),
		"attempt", req.Attempt,
	)

	notificationID, err := sendFn(ctx)
	if err == nil {
		h.metrics.RecordDispatch(ctx, req.Channel, types.DispatchSuccess)
		log.Info("notification sent", "notification_id", notificationID)
		return true, nil
	}

	if types.IsOutage(err) {
		h.metrics.RecordDispatch(ctx, req.Channel, types.DispatchFailed)
		return false, types.NewAppError(types.ErrCodeNotifyOutage,
			"notification provider unreachable", err)
	}

	triggerAt, retry := h.policy.NextAttemptAt(req.Attempt, err)
	if !retry {
		h.metrics.RecordDispatch(ctx, req.Channel, types.DispatchDropped)
		log.Warn("notification dropped", "error", err.Error())
		return false, nil
	}

	next := req
	next.Attempt = req.Attempt + 1
	payload, encErr := EncodeRetryJob(nctx, next)
	if encErr != nil {
		return false, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to encode retry job", encErr)
	}
	job := types.Job{
		Group:     RetryGroup(nctx, req.Channel),
		Name:      string(nctx.Event()),
		Kind:      types.JobKindSendRetry,
		Payload:   payload,
		TriggerAt: triggerAt,
	}
	if schedErr := h.scheduler.Schedule(ctx, job); schedErr != nil {
		return false, types.NewAppError(types.ErrCodeUpstreamScheduler,
			"failed to schedule notification retry", schedErr)
	}
	h.metrics.RecordDispatch(ctx, req.Channel, types.DispatchRetrying)
	h.metrics.RecordJobScheduled(ctx, string(nctx.Event()))
	log.Info("notification retry scheduled",
		"next_attempt", next.Attempt,
		"trigger_at", triggerAt,
		"error", err.Error(),
	)
	return false, nil
}

// SendFuncFor builds the provider closure for a templated send request.
// Precompiled letter requests have no template; their closure is built by the
// orchestrator after recomposing the bundle.
func (h *DispatchHandler) SendFuncFor(req SendRequest) SendFunc {
	switch req.Channel {
	case types.ChannelEmail:
		return func(ctx context.Context) (string, error) {
			return h.sender.SendEmail(ctx, req.TemplateID, req.Destination.Email, req.Placeholders, req.Reference)
		}
	case types.ChannelSMS:
		return func(ctx context.Context) (string, error) {
			return h.sender.SendSMS(ctx, req.TemplateID, req.Destination.Mobile, req.Placeholders, req.Reference)
		}
	case types.ChannelLetter:
		return func(ctx context.Context) (string, error) {
			return h.sender.SendLetter(ctx, req.TemplateID, req.Destination.Address, req.Placeholders, req.Reference)
		}
	default:
		return func(context.Context) (string, error) {
			return "", types.NewAppError(types.ErrCodeInternalUnexpected,
				fmt.Sprintf("unsupported channel %q", req.Channel), nil)
		}
	}
}

// RetryGroup derives the scheduler group for channel-send retries. It is
// distinct per channel so cancelling one channel's retries never touches
// another's.
func RetryGroup(nctx Context, channel types.Channel) string {
	return JobGroup(nctx.CaseID(), fmt.Sprintf("%s.retry.%s", nctx.Event(), channel))
}

// retryEnvelope is the serialized form of a send-retry job payload.
type retryEnvelope struct {
	Context contextEnvelope `json:"context"`
	Request SendRequest     `json:"request"`
}

// EncodeRetryJob serializes a context and pending send request for a retry
// job payload.
func EncodeRetryJob(nctx Context, req SendRequest) ([]byte, error) {
	raw, err := json.Marshal(retryEnvelope{
		Context: contextEnvelope{
			Event:   nctx.event,
			NewCase: nctx.newCase,
			OldCase: nctx.oldCase,
		},
		Request: req,
	})
	if err != nil {
		return nil, fmt.Errorf("encode retry job: %w", err)
	}
	return raw, nil
}

// DecodeRetryJob reverses EncodeRetryJob.
func DecodeRetryJob(raw []byte) (Context, SendRequest, error) {
	var env retryEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Context{}, SendRequest{}, fmt.Errorf("decode retry job: %w", err)
	}
	nctx, err := NewContext(env.Context.Event, env.Context.NewCase, env.Context.OldCase)
	if err != nil {
		return Context{}, SendRequest{}, err
	}
	return nctx, env.Request, nil
}
