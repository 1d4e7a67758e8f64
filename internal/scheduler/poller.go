package scheduler

import (
	"context"
	"time"

	"appealnotify/internal/db"
	"appealnotify/internal/types"
)

const (
	// pollBatchSize bounds the number of jobs moved per poll pass.
	pollBatchSize = 200

	// defaultPollInterval is how often the poller sweeps for due jobs.
	defaultPollInterval = time.Minute
)

// DueJobSource yields due jobs exactly once each. Satisfied by
// *db.JobRepository.
type DueJobSource interface {
	MarkDuePublished(ctx context.Context, horizon time.Time, limit int) ([]db.PendingJob, error)
}

// Poller moves due jobs from the store onto the queue. The horizon extends
// one SQS delay ceiling into the future so near-term jobs ride the message
// delay and fire on time rather than waiting for the next sweep.
type Poller struct {
	source    DueJobSource
	publisher *Publisher
	clock     types.Clock
	logger    types.Logger
	interval  time.Duration
}

func NewPoller(source DueJobSource, publisher *Publisher, clock types.Clock, logger types.Logger) *Poller {
	return &Poller{
		source:    source,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		interval:  defaultPollInterval,
	}
}

// Run sweeps on the poll interval until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.RunOnce(ctx); err != nil {
			p.logger.Error("poll pass failed", "error", err.Error())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs one sweep: collect due jobs and publish each. A publish
// failure is logged and the pass continues; the row is already marked
// published, so operational replay goes through the ops tooling rather than
// automatic re-delivery.
func (p *Poller) RunOnce(ctx context.Context) error {
	horizon := p.clock.Now().Add(maxSQSDelay)
	due, err := p.source.MarkDuePublished(ctx, horizon, pollBatchSize)
	if err != nil {
		return err
	}
	for _, pending := range due {
		if err := p.publisher.Publish(ctx, pending.ID, pending.Job); err != nil {
			p.logger.Error("failed to publish due job",
				"job_id", pending.ID,
				"group", pending.Job.Group,
				"error", err.Error(),
			)
		}
	}
	if len(due) > 0 {
		p.logger.Info("poll pass complete", "published", len(due))
	}
	return nil
}
