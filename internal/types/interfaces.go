package types

import (
	"context"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// Logger defines the structured logging interface used throughout the engine.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}

// JobScheduler is the contract with the external durable scheduler. The core
// never blocks waiting for a future time; it only enqueues Jobs. Scheduling
// and cancelling by group must be safe under repeated, out-of-order delivery
// of the same case event, since callback delivery is at-least-once.
type JobScheduler interface {
	// Schedule enqueues a job. It does not cancel earlier jobs sharing the
	// group; callers cancel explicitly when a trigger condition lapses.
	Schedule(ctx context.Context, job Job) error

	// CancelGroup removes every pending job in the group. Cancelling a group
	// with no pending jobs is a no-op.
	CancelGroup(ctx context.Context, group string) error

	// CountInGroup returns the number of pending jobs in the group. Used for
	// test and operational introspection.
	CountInGroup(ctx context.Context, group string) (int, error)
}

// NotificationSender is the outbound provider client. Each method returns the
// provider's notification id on success and may return a *ProviderError
// carrying an HTTP-like status code on rejection.
type NotificationSender interface {
	SendEmail(ctx context.Context, templateID, to string, placeholders map[string]string, reference string) (string, error)
	SendSMS(ctx context.Context, templateID, to string, placeholders map[string]string, reference string) (string, error)
	SendLetter(ctx context.Context, templateID string, addr Address, placeholders map[string]string, reference string) (string, error)
	SendPrecompiledLetter(ctx context.Context, pdf []byte, addr Address, reference string) (string, error)
}

// TemplateQuery identifies the template lookup key for one (event, role) pair.
type TemplateQuery struct {
	Event             string
	Role              SubscriptionRole
	Benefit           string
	HearingMode       HearingMode
	Welsh             bool
	CreatedInGapsFrom string
}

// TemplateRegistry resolves channel-specific template identifiers from the
// external template-content configuration dataset. Fields of the returned
// Template are nullable per channel.
type TemplateRegistry interface {
	Resolve(q TemplateQuery) (Template, error)
}

// CoverLetterRenderer generates a cover letter PDF from a fixed template and
// a placeholder map. Backed by the external PDF-rendering service.
type CoverLetterRenderer interface {
	Render(ctx context.Context, templateID string, placeholders map[string]string) ([]byte, error)
}

// DocumentStore downloads document bytes from the case document store.
type DocumentStore interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// CorrespondenceStore persists a copy of sent correspondence back into the
// case record. Persist may return ErrArtifactNotReady while the case record
// is still materializing the artifact.
type CorrespondenceStore interface {
	Persist(ctx context.Context, caseID string, pdf []byte, meta CorrespondenceMeta) error
}

// TokenVerifier checks the service authorization header on inbound case
// callbacks. The real verification service is an external collaborator.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) error
}
