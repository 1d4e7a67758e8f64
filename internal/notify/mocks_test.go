package notify

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"appealnotify/internal/types"
)

// newDialError fabricates the connectivity failure shape the provider client
// surfaces during an outage.
func newDialError() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
}

// fakeClock returns a fixed instant.
type fakeClock struct {
	now time.Time
}

func (c fakeClock) Now() time.Time { return c.now }

// nopLogger discards all log output.
type nopLogger struct{}

func (nopLogger) Info(string, ...any)        {}
func (nopLogger) Error(string, ...any)       {}
func (nopLogger) Warn(string, ...any)        {}
func (l nopLogger) With(...any) types.Logger { return l }

// recordingScheduler records every Schedule and CancelGroup call.
type recordingScheduler struct {
	mu        sync.Mutex
	scheduled []types.Job
	cancelled []string
	failWith  error
}

func (s *recordingScheduler) Schedule(_ context.Context, job types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.scheduled = append(s.scheduled, job)
	return nil
}

func (s *recordingScheduler) CancelGroup(_ context.Context, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, group)
	kept := s.scheduled[:0]
	for _, j := range s.scheduled {
		if j.Group != group {
			kept = append(kept, j)
		}
	}
	s.scheduled = kept
	return nil
}

func (s *recordingScheduler) CountInGroup(_ context.Context, group string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.scheduled {
		if j.Group == group {
			n++
		}
	}
	return n, nil
}

func (s *recordingScheduler) jobsInGroup(group string) []types.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Job
	for _, j := range s.scheduled {
		if j.Group == group {
			out = append(out, j)
		}
	}
	return out
}

// sentRecord captures one provider call.
type sentRecord struct {
	channel    types.Channel
	templateID string
	to         string
	reference  string
}

// fakeSender records sends and fails according to errByChannel.
type fakeSender struct {
	mu           sync.Mutex
	sent         []sentRecord
	errByChannel map[types.Channel]error
}

func (s *fakeSender) record(rec sentRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errByChannel[rec.channel]; err != nil {
		return "", err
	}
	s.sent = append(s.sent, rec)
	return "notif-" + rec.reference, nil
}

func (s *fakeSender) SendEmail(_ context.Context, templateID, to string, _ map[string]string, reference string) (string, error) {
	return s.record(sentRecord{channel: types.ChannelEmail, templateID: templateID, to: to, reference: reference})
}

func (s *fakeSender) SendSMS(_ context.Context, templateID, to string, _ map[string]string, reference string) (string, error) {
	return s.record(sentRecord{channel: types.ChannelSMS, templateID: templateID, to: to, reference: reference})
}

func (s *fakeSender) SendLetter(_ context.Context, templateID string, addr types.Address, _ map[string]string, reference string) (string, error) {
	return s.record(sentRecord{channel: types.ChannelLetter, templateID: templateID, to: addr.Postcode, reference: reference})
}

func (s *fakeSender) SendPrecompiledLetter(_ context.Context, _ []byte, addr types.Address, reference string) (string, error) {
	return s.record(sentRecord{channel: types.ChannelLetter, to: addr.Postcode, reference: reference})
}

func (s *fakeSender) byChannel(channel types.Channel) []sentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sentRecord
	for _, rec := range s.sent {
		if rec.channel == channel {
			out = append(out, rec)
		}
	}
	return out
}

// staticRegistry resolves every query to the same template.
type staticRegistry struct {
	template types.Template
	err      error
}

func (r staticRegistry) Resolve(types.TemplateQuery) (types.Template, error) {
	if r.err != nil {
		return types.Template{}, r.err
	}
	return r.template, nil
}

// countingMetrics tallies recorded outcomes.
type countingMetrics struct {
	mu         sync.Mutex
	dispatches map[types.DispatchResult]int
	jobs       int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{dispatches: make(map[types.DispatchResult]int)}
}

func (m *countingMetrics) RecordDispatch(_ context.Context, _ types.Channel, result types.DispatchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatches[result]++
}

func (m *countingMetrics) RecordJobScheduled(_ context.Context, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs++
}
