// Package correspondence persists sent letter artifacts back into the case
// record without blocking the dispatch path. Persistence is best-effort: the
// case record may lag the dispatch by several seconds, so the saver retries
// with backoff before giving up.
package correspondence

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"appealnotify/internal/config"
	"appealnotify/internal/notify"
	"appealnotify/internal/types"
)

// Saver is the async implementation of the correspondence queue. Each
// enqueued artifact gets its own retry loop, bounded by a shared
// concurrency limit so a slow case record cannot pile up goroutines.
type Saver struct {
	store       types.CorrespondenceStore
	logger      types.Logger
	maxAttempts int
	baseDelay   time.Duration

	group   *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
	sleepFn func(time.Duration)
}

var _ notify.CorrespondenceQueue = (*Saver)(nil)

// SaverOption is a functional option for configuring a Saver.
type SaverOption func(*Saver)

// WithSleepFunc overrides the sleep between retry attempts. Intended for
// tests.
func WithSleepFunc(fn func(time.Duration)) SaverOption {
	return func(s *Saver) {
		s.sleepFn = fn
	}
}

// NewSaver creates a Saver bounded to cfg.MaxInFlight concurrent persists.
func NewSaver(cfg config.CorrespondenceConfig, store types.CorrespondenceStore, logger types.Logger, opts ...SaverOption) *Saver {
	ctx, cancel := context.WithCancel(context.Background())
	g := &errgroup.Group{}
	g.SetLimit(cfg.MaxInFlight)

	s := &Saver{
		store:       store,
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		group:       g,
		ctx:         ctx,
		cancel:      cancel,
		sleepFn:     time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue hands the artifact to a background persist. It blocks only when
// the in-flight limit is reached, never on the persistence itself.
func (s *Saver) Enqueue(caseID string, pdf []byte, meta types.CorrespondenceMeta) {
	s.group.Go(func() error {
		s.persist(caseID, pdf, meta)
		return nil
	})
}

// Close drains in-flight persists. New Enqueue calls after Close are not
// supported.
func (s *Saver) Close() error {
	err := s.group.Wait()
	s.cancel()
	return err
}

func (s *Saver) persist(caseID string, pdf []byte, meta types.CorrespondenceMeta) {
	log := s.logger.With("case_id", caseID, "event", meta.Event, "channel", meta.Channel)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.store.Persist(s.ctx, caseID, pdf, meta)
		if err == nil {
			log.Info("persisted correspondence", "attempt", attempt)
			return
		}

		if attempt == s.maxAttempts {
			log.Error("giving up on correspondence persistence",
				"error", err, "attempts", attempt)
			return
		}

		// Every failure is retried up to the ceiling; only the log level
		// distinguishes the expected transients from surprises.
		if persistTransient(err) {
			log.Warn("correspondence persist failed, retrying",
				"error", err, "attempt", attempt)
		} else {
			log.Error("unexpected correspondence failure, retrying",
				"error", err, "attempt", attempt)
		}
		s.sleepFn(s.backoff(attempt))
	}
}

// persistTransient reports whether the persist failure is one of the
// expected transients: the artifact materializing late or upstream
// flakiness. Anything else is logged as unexpected but retried the same
// way, since the store may recover.
func persistTransient(err error) bool {
	if errors.Is(err, types.ErrArtifactNotReady) {
		return true
	}
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case types.ErrCodeUpstreamUnavailable, types.ErrCodeUpstreamRateLimited:
			return true
		}
		return false
	}
	// Raw transport errors reach here when the store client could not
	// classify them.
	return true
}

// backoff returns an exponential delay with full jitter, based on the
// attempt just completed.
func (s *Saver) backoff(attempt int) time.Duration {
	ceiling := float64(s.baseDelay) * math.Pow(2, float64(attempt-1))
	return time.Duration(rand.Float64() * ceiling)
}
