package db

import (
	"context"
	"time"

	"appealnotify/internal/types"
)

// JobRepository provides data access for the scheduled_jobs table, the
// durable half of the job scheduler.
//
// Expected schema:
//
//	CREATE TABLE scheduled_jobs (
//	    id           UUID PRIMARY KEY,
//	    job_group    TEXT NOT NULL,
//	    name         TEXT NOT NULL,
//	    kind         TEXT NOT NULL,
//	    payload      BYTEA NOT NULL,
//	    trigger_at   TIMESTAMPTZ NOT NULL,
//	    published_at TIMESTAMPTZ,
//	    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
//	CREATE INDEX scheduled_jobs_group_idx ON scheduled_jobs (job_group);
//	CREATE INDEX scheduled_jobs_due_idx ON scheduled_jobs (trigger_at)
//	    WHERE published_at IS NULL;
type JobRepository struct {
	db DBTX
}

// NewJobRepository creates a JobRepository backed by the given database
// connection (pool or transaction).
func NewJobRepository(db DBTX) *JobRepository {
	return &JobRepository{db: db}
}

// Insert persists a pending job row. Rows accumulate within a group; the
// group is only emptied by DeleteGroup or by workers claiming rows as they
// fire.
func (r *JobRepository) Insert(ctx context.Context, id string, job types.Job) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO scheduled_jobs (id, job_group, name, kind, payload, trigger_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id,
		job.Group,
		job.Name,
		string(job.Kind),
		job.Payload,
		job.TriggerAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert scheduled job", err)
	}
	return nil
}

// DeleteGroup removes every pending job in the group. Deleting an empty
// group is a no-op, which keeps cancellation idempotent under repeated
// event delivery.
func (r *JobRepository) DeleteGroup(ctx context.Context, group string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM scheduled_jobs WHERE job_group = $1`,
		group,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to cancel job group", err)
	}
	return nil
}

// CountGroup returns the number of pending jobs in the group.
func (r *JobRepository) CountGroup(ctx context.Context, group string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM scheduled_jobs WHERE job_group = $1`,
		group,
	).Scan(&n)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count job group", err)
	}
	return n, nil
}

// PendingJob is a stored job row together with its identifier.
type PendingJob struct {
	ID  string
	Job types.Job
}

// MarkDuePublished atomically marks up to limit unpublished jobs due before
// the horizon as published and returns them for queue delivery. SKIP LOCKED
// keeps concurrent pollers from publishing the same row twice.
func (r *JobRepository) MarkDuePublished(ctx context.Context, horizon time.Time, limit int) ([]PendingJob, error) {
	rows, err := r.db.Query(ctx,
		`UPDATE scheduled_jobs SET published_at = NOW()
		 WHERE id IN (
		     SELECT id FROM scheduled_jobs
		     WHERE published_at IS NULL AND trigger_at <= $1
		     ORDER BY trigger_at
		     LIMIT $2
		     FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, job_group, name, kind, payload, trigger_at`,
		horizon,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to collect due jobs", err)
	}
	defer rows.Close()

	var out []PendingJob
	for rows.Next() {
		var p PendingJob
		var kind string
		if err := rows.Scan(&p.ID, &p.Job.Group, &p.Job.Name, &kind, &p.Job.Payload, &p.Job.TriggerAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan due job", err)
		}
		p.Job.Kind = types.JobKind(kind)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to read due jobs", err)
	}
	return out, nil
}

// Claim atomically removes the job row when it fires. A false return means
// the row was already cancelled or claimed: the worker must drop the message
// without acting on it. This is the cancellation check that makes delayed
// queue delivery safe.
func (r *JobRepository) Claim(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM scheduled_jobs WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to claim scheduled job", err)
	}
	return tag.RowsAffected() == 1, nil
}
