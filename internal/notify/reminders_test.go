package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appealnotify/internal/events"
	"appealnotify/internal/types"
)

func TestHoldingRemindersScheduledOnResponse(t *testing.T) {
	now := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	scheduler := &recordingScheduler{}
	strat := NewHearingHoldingReminders(scheduler, fakeClock{now: now})
	nctx := mustContext(t, events.ResponseReceived, baseCase())

	require.True(t, strat.CanHandle(nctx))
	require.NoError(t, strat.Handle(context.Background(), nctx))

	group := JobGroup("1234567890", "hearingHoldingReminder")
	jobs := scheduler.jobsInGroup(group)
	require.Len(t, jobs, 4)

	week := 7 * 24 * time.Hour
	assert.Equal(t, now.Add(6*week), jobs[0].TriggerAt)
	assert.Equal(t, now.Add(12*week), jobs[1].TriggerAt)
	assert.Equal(t, now.Add(18*week), jobs[2].TriggerAt)
	assert.Equal(t, now.Add(24*week), jobs[3].TriggerAt)
	assert.Equal(t, string(events.FinalHearingHoldingReminder), jobs[3].Name)

	nctxOut, err := DecodeDispatchJob(jobs[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, events.HearingHoldingReminder, nctxOut.Event())
	assert.Equal(t, "1234567890", nctxOut.CaseID())
}

func TestHoldingRemindersCancelledOnHearingBooked(t *testing.T) {
	now := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	scheduler := &recordingScheduler{}
	strat := NewHearingHoldingReminders(scheduler, fakeClock{now: now})

	require.NoError(t, strat.Handle(context.Background(),
		mustContext(t, events.ResponseReceived, baseCase())))
	group := JobGroup("1234567890", "hearingHoldingReminder")
	n, _ := scheduler.CountInGroup(context.Background(), group)
	require.Equal(t, 4, n)

	booked := baseCase()
	booked.Hearings = []types.Hearing{{ID: "h1", DateTime: now.Add(30 * 24 * time.Hour)}}
	require.NoError(t, strat.Handle(context.Background(),
		mustContext(t, events.HearingBooked, booked)))

	assert.Contains(t, scheduler.cancelled, group)
	assert.Empty(t, scheduler.jobsInGroup(group), "booking zeroes the holding group")
}

func TestHoldingRemindersRescheduleIsIdempotent(t *testing.T) {
	now := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	scheduler := &recordingScheduler{}
	strat := NewHearingHoldingReminders(scheduler, fakeClock{now: now})
	nctx := mustContext(t, events.ResponseReceived, baseCase())

	require.NoError(t, strat.Handle(context.Background(), nctx))
	require.NoError(t, strat.Handle(context.Background(), nctx))

	group := JobGroup("1234567890", "hearingHoldingReminder")
	assert.Len(t, scheduler.jobsInGroup(group), 4,
		"repeated delivery of the same event leaves exactly one ladder")
}

func TestHearingRemindersScheduledBeforeHearing(t *testing.T) {
	now := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	scheduler := &recordingScheduler{}
	strat := NewHearingReminders(scheduler, fakeClock{now: now})

	data := baseCase()
	hearingAt := now.Add(10 * 24 * time.Hour)
	data.Hearings = []types.Hearing{{ID: "h1", DateTime: hearingAt}}
	nctx := mustContext(t, events.HearingBooked, data)

	require.True(t, strat.CanHandle(nctx))
	require.NoError(t, strat.Handle(context.Background(), nctx))

	group := JobGroup("1234567890", "hearingReminder")
	jobs := scheduler.jobsInGroup(group)
	require.Len(t, jobs, 2)
	assert.Equal(t, hearingAt.Add(-48*time.Hour), jobs[0].TriggerAt)
	assert.Equal(t, hearingAt.Add(-24*time.Hour), jobs[1].TriggerAt)
	assert.Equal(t, string(events.HearingReminder), jobs[0].Name)
}

func TestHearingRemindersSkipOffsetsAlreadyPast(t *testing.T) {
	now := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	scheduler := &recordingScheduler{}
	strat := NewHearingReminders(scheduler, fakeClock{now: now})

	data := baseCase()
	data.Hearings = []types.Hearing{{ID: "h1", DateTime: now.Add(30 * time.Hour)}}
	nctx := mustContext(t, events.HearingBooked, data)

	require.NoError(t, strat.Handle(context.Background(), nctx))
	jobs := scheduler.jobsInGroup(JobGroup("1234567890", "hearingReminder"))
	require.Len(t, jobs, 1, "the two-day offset already passed")
	assert.Equal(t, now.Add(6*time.Hour), jobs[0].TriggerAt)
}

func TestHearingRemindersCancelledOnPostponement(t *testing.T) {
	now := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	scheduler := &recordingScheduler{}
	strat := NewHearingReminders(scheduler, fakeClock{now: now})

	nctx := mustContext(t, events.HearingPostponed, baseCase())
	require.True(t, strat.CanHandle(nctx))
	require.NoError(t, strat.Handle(context.Background(), nctx))

	group := JobGroup("1234567890", "hearingReminder")
	assert.Contains(t, scheduler.cancelled, group)
	assert.Empty(t, scheduler.jobsInGroup(group))
}

func TestEvidenceReminderScheduledOnAppealReceived(t *testing.T) {
	now := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	scheduler := &recordingScheduler{}
	strat := NewEvidenceReminders(scheduler, fakeClock{now: now})
	nctx := mustContext(t, events.AppealReceived, baseCase())

	require.True(t, strat.CanHandle(nctx))
	require.NoError(t, strat.Handle(context.Background(), nctx))

	jobs := scheduler.jobsInGroup(JobGroup("1234567890", "evidenceReminder"))
	require.Len(t, jobs, 1)
	assert.Equal(t, now.Add(48*time.Hour), jobs[0].TriggerAt)
	assert.Equal(t, string(events.EvidenceReminder), jobs[0].Name)
}

func TestRemindersUseWelshVariantsForWelshCases(t *testing.T) {
	now := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	scheduler := &recordingScheduler{}
	strat := NewEvidenceReminders(scheduler, fakeClock{now: now})

	data := baseCase()
	data.LanguageWelsh = true
	nctx := mustContext(t, events.AppealReceivedWelsh, data)

	require.True(t, strat.CanHandle(nctx), "Welsh variants resolve to the base event")
	require.NoError(t, strat.Handle(context.Background(), nctx))

	jobs := scheduler.jobsInGroup(JobGroup("1234567890", "evidenceReminder"))
	require.Len(t, jobs, 1)
	assert.Equal(t, string(events.EvidenceReminderWelsh), jobs[0].Name)
}

func TestReminderSchedulerRunsAllMatching(t *testing.T) {
	now := time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)
	scheduler := &recordingScheduler{}
	clock := fakeClock{now: now}
	rs := NewReminderScheduler(nopLogger{}, DefaultStrategies(scheduler, clock)...)

	data := baseCase()
	data.Hearings = []types.Hearing{{ID: "h1", DateTime: now.Add(10 * 24 * time.Hour)}}
	rs.RunAll(context.Background(), mustContext(t, events.HearingBooked, data))

	// hearingBooked cancels the holding group and schedules hearing reminders
	assert.Contains(t, scheduler.cancelled, JobGroup("1234567890", "hearingHoldingReminder"))
	assert.Len(t, scheduler.jobsInGroup(JobGroup("1234567890", "hearingReminder")), 2)
	assert.Empty(t, scheduler.jobsInGroup(JobGroup("1234567890", "evidenceReminder")))
}
