package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appevents "appealnotify/internal/events"
	"appealnotify/internal/notify"
	"appealnotify/internal/types"
)

type fakeClaimer struct {
	claimed map[string]bool
	err     error
	calls   []string
}

func (f *fakeClaimer) Claim(_ context.Context, id string) (bool, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return false, f.err
	}
	return f.claimed[id], nil
}

type fakeResumer struct {
	dispatched []notify.Context
	resumed    [][]byte
	err        error
}

func (f *fakeResumer) Dispatch(_ context.Context, nctx notify.Context) error {
	f.dispatched = append(f.dispatched, nctx)
	return f.err
}

func (f *fakeResumer) ResumeSend(_ context.Context, payload []byte) error {
	f.resumed = append(f.resumed, payload)
	return f.err
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)        {}
func (nopLogger) Error(string, ...any)       {}
func (nopLogger) Warn(string, ...any)        {}
func (l nopLogger) With(...any) types.Logger { return l }

func newTestHandler(claimer *fakeClaimer, resumer *fakeResumer) *Handler {
	return &Handler{claimer: claimer, resumer: resumer, logger: nopLogger{}}
}

func dispatchRecord(t *testing.T, jobID string) events.SQSMessage {
	t.Helper()
	nctx, err := notify.NewContext(appevents.AppealReceived, &types.CaseData{
		CaseID: "1234567890",
	}, nil)
	require.NoError(t, err)

	raw, err := notify.EncodeDispatchJob(nctx)
	require.NoError(t, err)
	payload, err := types.CompressPayload(raw)
	require.NoError(t, err)

	body, err := json.Marshal(types.JobMessage{
		JobID:     jobID,
		Group:     "1234567890.appealReceived",
		Name:      "deferred",
		Kind:      types.JobKindDispatch,
		Payload:   payload,
		TriggerAt: time.Now(),
	})
	require.NoError(t, err)
	return events.SQSMessage{MessageId: "msg-" + jobID, Body: string(body)}
}

func retryRecord(t *testing.T, jobID string, payload []byte) events.SQSMessage {
	t.Helper()
	enc, err := types.CompressPayload(payload)
	require.NoError(t, err)
	body, err := json.Marshal(types.JobMessage{
		JobID:   jobID,
		Group:   "1234567890.appealReceived",
		Name:    "retry-1",
		Kind:    types.JobKindSendRetry,
		Payload: enc,
	})
	require.NoError(t, err)
	return events.SQSMessage{MessageId: "msg-" + jobID, Body: string(body)}
}

func TestHandleResumesDispatchJob(t *testing.T) {
	claimer := &fakeClaimer{claimed: map[string]bool{"job-1": true}}
	resumer := &fakeResumer{}
	handler := newTestHandler(claimer, resumer)

	response, err := handler.Handle(context.Background(), events.SQSEvent{
		Records: []events.SQSMessage{dispatchRecord(t, "job-1")},
	})

	require.NoError(t, err)
	assert.Empty(t, response.BatchItemFailures)
	assert.Equal(t, []string{"job-1"}, claimer.calls)
	require.Len(t, resumer.dispatched, 1)
	assert.Equal(t, "1234567890", resumer.dispatched[0].CaseID())
	assert.Equal(t, appevents.AppealReceived, resumer.dispatched[0].Event())
}

func TestHandleResumesSendRetryJob(t *testing.T) {
	claimer := &fakeClaimer{claimed: map[string]bool{"job-2": true}}
	resumer := &fakeResumer{}
	handler := newTestHandler(claimer, resumer)

	payload := []byte(`{"channel":"email"}`)
	response, err := handler.Handle(context.Background(), events.SQSEvent{
		Records: []events.SQSMessage{retryRecord(t, "job-2", payload)},
	})

	require.NoError(t, err)
	assert.Empty(t, response.BatchItemFailures)
	require.Len(t, resumer.resumed, 1)
	assert.Equal(t, payload, resumer.resumed[0])
	assert.Empty(t, resumer.dispatched)
}

func TestHandleDropsCancelledJob(t *testing.T) {
	claimer := &fakeClaimer{claimed: map[string]bool{}}
	resumer := &fakeResumer{}
	handler := newTestHandler(claimer, resumer)

	response, err := handler.Handle(context.Background(), events.SQSEvent{
		Records: []events.SQSMessage{dispatchRecord(t, "job-3")},
	})

	require.NoError(t, err)
	assert.Empty(t, response.BatchItemFailures, "cancelled jobs must be acked, not redelivered")
	assert.Empty(t, resumer.dispatched)
}

func TestHandleAcksMalformedMessage(t *testing.T) {
	claimer := &fakeClaimer{claimed: map[string]bool{}}
	resumer := &fakeResumer{}
	handler := newTestHandler(claimer, resumer)

	response, err := handler.Handle(context.Background(), events.SQSEvent{
		Records: []events.SQSMessage{{MessageId: "msg-bad", Body: "not json"}},
	})

	require.NoError(t, err)
	assert.Empty(t, response.BatchItemFailures, "unparseable messages would never succeed on redelivery")
	assert.Empty(t, claimer.calls)
}

func TestHandleReportsFailuresPerMessage(t *testing.T) {
	claimer := &fakeClaimer{claimed: map[string]bool{"job-ok": true, "job-fail": true}}
	resumer := &fakeResumer{}
	handler := newTestHandler(claimer, resumer)

	// First record succeeds, then the resumer starts failing.
	ok := dispatchRecord(t, "job-ok")
	fail := dispatchRecord(t, "job-fail")

	response, err := handler.Handle(context.Background(), events.SQSEvent{
		Records: []events.SQSMessage{ok},
	})
	require.NoError(t, err)
	require.Empty(t, response.BatchItemFailures)

	resumer.err = errors.New("provider outage")
	response, err = handler.Handle(context.Background(), events.SQSEvent{
		Records: []events.SQSMessage{fail},
	})
	require.NoError(t, err)
	require.Len(t, response.BatchItemFailures, 1)
	assert.Equal(t, "msg-job-fail", response.BatchItemFailures[0].ItemIdentifier)
}

func TestHandleReportsClaimErrors(t *testing.T) {
	claimer := &fakeClaimer{err: errors.New("connection refused")}
	resumer := &fakeResumer{}
	handler := newTestHandler(claimer, resumer)

	response, err := handler.Handle(context.Background(), events.SQSEvent{
		Records: []events.SQSMessage{dispatchRecord(t, "job-4")},
	})

	require.NoError(t, err)
	require.Len(t, response.BatchItemFailures, 1)
	assert.Equal(t, "msg-job-4", response.BatchItemFailures[0].ItemIdentifier)
	assert.Empty(t, resumer.dispatched)
}
