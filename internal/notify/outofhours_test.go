package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appealnotify/internal/events"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	gate, err := NewGate("Europe/London", 8, 17)
	require.NoError(t, err)
	return gate
}

func londonTime(t *testing.T, hour, min int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	// mid January avoids DST edges
	return time.Date(2026, time.January, 14, hour, min, 0, 0, loc)
}

func TestGateWindowBoundaries(t *testing.T) {
	gate := newTestGate(t)

	assert.False(t, gate.ShouldDefer(events.AppealReceived, londonTime(t, 8, 0)),
		"window start is inside the window")
	assert.False(t, gate.ShouldDefer(events.AppealReceived, londonTime(t, 16, 59)))
	assert.True(t, gate.ShouldDefer(events.AppealReceived, londonTime(t, 17, 0)),
		"window end is outside the window")
	assert.True(t, gate.ShouldDefer(events.AppealReceived, londonTime(t, 7, 59)))
	assert.True(t, gate.ShouldDefer(events.AppealReceived, londonTime(t, 2, 30)))
}

func TestGateAllowOutOfHoursBypasses(t *testing.T) {
	gate := newTestGate(t)

	assert.False(t, gate.ShouldDefer(events.CaseUpdated, londonTime(t, 2, 30)))
	assert.False(t, gate.ShouldDefer(events.DirectionIssued, londonTime(t, 23, 0)))
}

func TestGateNextWindowStart(t *testing.T) {
	gate := newTestGate(t)

	before := gate.NextWindowStart(londonTime(t, 6, 30))
	assert.Equal(t, londonTime(t, 8, 0), before, "before the start hour, the window opens today")

	after := gate.NextWindowStart(londonTime(t, 18, 15))
	assert.Equal(t, londonTime(t, 8, 0).AddDate(0, 0, 1), after, "after the start hour, tomorrow")

	during := gate.NextWindowStart(londonTime(t, 9, 0))
	assert.Equal(t, londonTime(t, 8, 0).AddDate(0, 0, 1), during,
		"once the start hour has passed the next window is tomorrow's")
}

func TestGateBadTimezone(t *testing.T) {
	_, err := NewGate("Mars/Olympus", 8, 17)
	require.Error(t, err)
}
