package notify

import (
	"context"
	"time"

	"appealnotify/internal/events"
	"appealnotify/internal/types"
)

// ReminderStrategy schedules or cancels future reminder jobs in reaction to a
// case event. Strategies are consulted in a fixed order; every strategy whose
// CanHandle matches runs.
type ReminderStrategy interface {
	CanHandle(nctx Context) bool
	Handle(ctx context.Context, nctx Context) error
}

// ReminderScheduler runs every matching strategy exactly once per event.
// Strategy failures are logged, not propagated: reminder bookkeeping must
// never fail the dispatch that triggered it.
type ReminderScheduler struct {
	strategies []ReminderStrategy
	logger     types.Logger
}

func NewReminderScheduler(logger types.Logger, strategies ...ReminderStrategy) *ReminderScheduler {
	return &ReminderScheduler{strategies: strategies, logger: logger}
}

// RunAll applies every matching strategy to the event.
func (s *ReminderScheduler) RunAll(ctx context.Context, nctx Context) {
	for _, strat := range s.strategies {
		if !strat.CanHandle(nctx) {
			continue
		}
		if err := strat.Handle(ctx, nctx); err != nil {
			s.logger.Error("reminder strategy failed",
				"case_id", nctx.CaseID(),
				"event", string(nctx.Event()),
				"error", err.Error(),
			)
		}
	}
}

// DefaultStrategies returns the production strategy set in consultation order.
func DefaultStrategies(scheduler types.JobScheduler, clock types.Clock) []ReminderStrategy {
	return []ReminderStrategy{
		NewHearingHoldingReminders(scheduler, clock),
		NewHearingReminders(scheduler, clock),
		NewEvidenceReminders(scheduler, clock),
	}
}

const hearingHoldingGroupName = "hearingHoldingReminder"

// holdingSchedule is the fixed offset ladder for hearing-holding reminders:
// while the case waits for a hearing to be listed, the appellant hears from
// us at six-week intervals.
var holdingSchedule = []struct {
	event  events.Type
	offset time.Duration
}{
	{events.HearingHoldingReminder, 6 * 7 * 24 * time.Hour},
	{events.SecondHearingHoldingReminder, 12 * 7 * 24 * time.Hour},
	{events.ThirdHearingHoldingReminder, 18 * 7 * 24 * time.Hour},
	{events.FinalHearingHoldingReminder, 24 * 7 * 24 * time.Hour},
}

// HearingHoldingReminders schedules the holding ladder when the agency
// response arrives and cancels the whole group the moment a hearing is
// booked. All four jobs share one group so cancellation is a single call.
type HearingHoldingReminders struct {
	scheduler types.JobScheduler
	clock     types.Clock
}

var _ ReminderStrategy = (*HearingHoldingReminders)(nil)

func NewHearingHoldingReminders(scheduler types.JobScheduler, clock types.Clock) *HearingHoldingReminders {
	return &HearingHoldingReminders{scheduler: scheduler, clock: clock}
}

func (s *HearingHoldingReminders) CanHandle(nctx Context) bool {
	switch events.BaseOf(nctx.Event()) {
	case events.ResponseReceived, events.DwpUploadResponse, events.HearingBooked:
		return true
	default:
		return false
	}
}

func (s *HearingHoldingReminders) Handle(ctx context.Context, nctx Context) error {
	group := JobGroup(nctx.CaseID(), hearingHoldingGroupName)

	// Cancel-then-schedule keeps repeated delivery of the same response event
	// idempotent; for hearingBooked the cancel is the whole job.
	if err := s.scheduler.CancelGroup(ctx, group); err != nil {
		return err
	}
	if events.BaseOf(nctx.Event()) == events.HearingBooked {
		return nil
	}

	now := s.clock.Now()
	for _, step := range holdingSchedule {
		fireEvent := step.event
		if nctx.New().LanguageWelsh {
			fireEvent = events.WelshOf(fireEvent)
		}
		payload, err := EncodeDispatchJob(nctx.WithEvent(fireEvent))
		if err != nil {
			return err
		}
		job := types.Job{
			Group:     group,
			Name:      string(fireEvent),
			Kind:      types.JobKindDispatch,
			Payload:   payload,
			TriggerAt: now.Add(step.offset),
		}
		if err := s.scheduler.Schedule(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

const hearingReminderGroupName = "hearingReminder"

// hearingReminderOffsets are how far ahead of the hearing each reminder fires.
var hearingReminderOffsets = []time.Duration{
	2 * 24 * time.Hour,
	1 * 24 * time.Hour,
}

// HearingReminders schedules reminders ahead of a booked hearing and cancels
// them when the hearing is postponed or adjourned.
type HearingReminders struct {
	scheduler types.JobScheduler
	clock     types.Clock
}

var _ ReminderStrategy = (*HearingReminders)(nil)

func NewHearingReminders(scheduler types.JobScheduler, clock types.Clock) *HearingReminders {
	return &HearingReminders{scheduler: scheduler, clock: clock}
}

func (s *HearingReminders) CanHandle(nctx Context) bool {
	switch events.BaseOf(nctx.Event()) {
	case events.HearingBooked, events.HearingPostponed, events.HearingAdjourned:
		return true
	default:
		return false
	}
}

func (s *HearingReminders) Handle(ctx context.Context, nctx Context) error {
	group := JobGroup(nctx.CaseID(), hearingReminderGroupName)

	if err := s.scheduler.CancelGroup(ctx, group); err != nil {
		return err
	}
	if events.BaseOf(nctx.Event()) != events.HearingBooked {
		return nil
	}

	hearing := nctx.New().LatestHearing()
	now := s.clock.Now()
	if hearing == nil || !hearing.DateTime.After(now) || hearing.Adjourned {
		return nil
	}

	fireEvent := events.HearingReminder
	if nctx.New().LanguageWelsh {
		fireEvent = events.WelshOf(fireEvent)
	}
	payload, err := EncodeDispatchJob(nctx.WithEvent(fireEvent))
	if err != nil {
		return err
	}
	for _, offset := range hearingReminderOffsets {
		triggerAt := hearing.DateTime.Add(-offset)
		if !triggerAt.After(now) {
			continue
		}
		job := types.Job{
			Group:     group,
			Name:      string(fireEvent),
			Kind:      types.JobKindDispatch,
			Payload:   payload,
			TriggerAt: triggerAt,
		}
		if err := s.scheduler.Schedule(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

const (
	evidenceReminderGroupName = "evidenceReminder"
	evidenceReminderOffset    = 48 * time.Hour
)

// EvidenceReminders schedules a single nudge to submit evidence shortly after
// the appeal is received.
type EvidenceReminders struct {
	scheduler types.JobScheduler
	clock     types.Clock
}

var _ ReminderStrategy = (*EvidenceReminders)(nil)

func NewEvidenceReminders(scheduler types.JobScheduler, clock types.Clock) *EvidenceReminders {
	return &EvidenceReminders{scheduler: scheduler, clock: clock}
}

func (s *EvidenceReminders) CanHandle(nctx Context) bool {
	return events.BaseOf(nctx.Event()) == events.AppealReceived
}

func (s *EvidenceReminders) Handle(ctx context.Context, nctx Context) error {
	group := JobGroup(nctx.CaseID(), evidenceReminderGroupName)

	if err := s.scheduler.CancelGroup(ctx, group); err != nil {
		return err
	}

	fireEvent := events.EvidenceReminder
	if nctx.New().LanguageWelsh {
		fireEvent = events.WelshOf(fireEvent)
	}
	payload, err := EncodeDispatchJob(nctx.WithEvent(fireEvent))
	if err != nil {
		return err
	}
	job := types.Job{
		Group:     group,
		Name:      string(fireEvent),
		Kind:      types.JobKindDispatch,
		Payload:   payload,
		TriggerAt: s.clock.Now().Add(evidenceReminderOffset),
	}
	return s.scheduler.Schedule(ctx, job)
}
