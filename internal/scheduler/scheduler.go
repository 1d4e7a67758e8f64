// Package scheduler implements the durable job scheduler: jobs are persisted
// to Postgres at schedule time and published to SQS when due. Cancellation
// deletes rows; a published message whose row is gone is dropped by the
// worker, so cancellation wins any race with delivery.
package scheduler

import (
	"context"

	"github.com/google/uuid"

	"appealnotify/internal/types"
)

// JobStore is the persistence surface the scheduler needs. Satisfied by
// *db.JobRepository.
type JobStore interface {
	Insert(ctx context.Context, id string, job types.Job) error
	DeleteGroup(ctx context.Context, group string) error
	CountGroup(ctx context.Context, group string) (int, error)
}

// Scheduler implements types.JobScheduler on top of a JobStore. Scheduling
// is a plain insert: jobs within a group accumulate, and only an explicit
// CancelGroup empties a group.
type Scheduler struct {
	store  JobStore
	logger types.Logger
}

var _ types.JobScheduler = (*Scheduler)(nil)

func New(store JobStore, logger types.Logger) *Scheduler {
	return &Scheduler{store: store, logger: logger}
}

// Schedule persists a job under a fresh identifier. The poller publishes it
// to the queue once due.
func (s *Scheduler) Schedule(ctx context.Context, job types.Job) error {
	id := uuid.New().String()
	if err := s.store.Insert(ctx, id, job); err != nil {
		return err
	}
	s.logger.Info("job scheduled",
		"job_id", id,
		"group", job.Group,
		"name", job.Name,
		"kind", string(job.Kind),
		"trigger_at", job.TriggerAt,
	)
	return nil
}

// CancelGroup removes every pending job in the group.
func (s *Scheduler) CancelGroup(ctx context.Context, group string) error {
	if err := s.store.DeleteGroup(ctx, group); err != nil {
		return err
	}
	s.logger.Info("job group cancelled", "group", group)
	return nil
}

// CountInGroup returns the number of pending jobs in the group.
func (s *Scheduler) CountInGroup(ctx context.Context, group string) (int, error) {
	return s.store.CountGroup(ctx, group)
}
