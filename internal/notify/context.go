// Package notify implements the notification dispatch and scheduling engine:
// eligibility evaluation, business-hours gating, per-channel dispatch with
// failure classification and retry, subscription-change re-notification,
// bundled letter composition, and reminder scheduling.
package notify

import (
	"encoding/json"
	"fmt"

	"appealnotify/internal/events"
	"appealnotify/internal/types"
)

// Context is the immutable per-request notification context built from an
// inbound case event. It is never mutated after creation; derived contexts
// (e.g. for reminder events) are copies.
type Context struct {
	event   events.Type
	newCase *types.CaseData
	oldCase *types.CaseData
}

// NewContext builds a Context from an event and its case snapshots. The new
// snapshot is required; the old snapshot may be nil for events that carry no
// prior state.
func NewContext(event events.Type, newCase, oldCase *types.CaseData) (Context, error) {
	if newCase == nil {
		return Context{}, types.NewAppError(types.ErrCodeValidationMissingField,
			"notification context requires a case snapshot", nil)
	}
	if newCase.CaseID == "" {
		return Context{}, types.NewAppError(types.ErrCodeValidationMissingField,
			"notification context requires a case id", nil)
	}
	return Context{event: event, newCase: newCase, oldCase: oldCase}, nil
}

// CaseID returns the case identifier.
func (c Context) CaseID() string { return c.newCase.CaseID }

// Event returns the triggering event type.
func (c Context) Event() events.Type { return c.event }

// New returns the new case snapshot.
func (c Context) New() *types.CaseData { return c.newCase }

// Old returns the prior case snapshot, or nil.
func (c Context) Old() *types.CaseData { return c.oldCase }

// HearingMode returns the hearing arrangement recorded on the new snapshot.
func (c Context) HearingMode() types.HearingMode { return c.newCase.HearingMode }

// WithEvent returns a copy of the context carrying a different event type.
// Used when a scheduled reminder fires under its own event id.
func (c Context) WithEvent(event events.Type) Context {
	return Context{event: event, newCase: c.newCase, oldCase: c.oldCase}
}

// JobGroup returns the deterministic cancellation group for this context's
// (case, event) pair.
func (c Context) JobGroup() string {
	return JobGroup(c.CaseID(), string(c.event))
}

// JobGroup derives the cancellation/idempotency key for a unit of future
// work. Two logically different futures must never share a group, so the key
// always includes both the case id and the future's name.
func JobGroup(caseID, name string) string {
	return fmt.Sprintf("%s.%s", caseID, name)
}

// Resolved is a fully resolved notification for one (event, role) pair:
// channel template identifiers, destination, placeholder values, and the
// provider reference. Immutable once built.
type Resolved struct {
	Template     types.Template
	Destination  types.Destination
	Placeholders map[string]string
	Reference    string
	TYA          string
}

// contextEnvelope is the serialized form of a Context used to resume
// processing from a scheduled job.
type contextEnvelope struct {
	Event   events.Type     `json:"event"`
	NewCase *types.CaseData `json:"new_case"`
	OldCase *types.CaseData `json:"old_case,omitempty"`
}

// EncodeDispatchJob serializes a context for a deferred or reminder dispatch
// job payload.
func EncodeDispatchJob(nctx Context) ([]byte, error) {
	raw, err := json.Marshal(contextEnvelope{
		Event:   nctx.event,
		NewCase: nctx.newCase,
		OldCase: nctx.oldCase,
	})
	if err != nil {
		return nil, fmt.Errorf("encode dispatch job: %w", err)
	}
	return raw, nil
}

// DecodeDispatchJob reverses EncodeDispatchJob.
func DecodeDispatchJob(raw []byte) (Context, error) {
	var env contextEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Context{}, fmt.Errorf("decode dispatch job: %w", err)
	}
	return NewContext(env.Event, env.NewCase, env.OldCase)
}
