package notify

import (
	"time"

	"appealnotify/internal/events"
	"appealnotify/internal/types"
)

// Gate defers non-urgent notifications that would otherwise land outside
// business hours. The window is half-open: [startHour, endHour) in the
// configured timezone. Events flagged AllowOutOfHours bypass the gate.
type Gate struct {
	loc       *time.Location
	startHour int
	endHour   int
}

// NewGate builds a gate for the given window. The timezone name must resolve
// via the system zone database.
func NewGate(timezone string, startHour, endHour int) (*Gate, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalConfig,
			"out of hours timezone is not resolvable", err)
	}
	return &Gate{loc: loc, startHour: startHour, endHour: endHour}, nil
}

// ShouldDefer reports whether dispatch of event at instant now must be held
// until the next window opens.
func (g *Gate) ShouldDefer(event events.Type, now time.Time) bool {
	if events.FlagsFor(event).AllowOutOfHours {
		return false
	}
	h := now.In(g.loc).Hour()
	return h < g.startHour || h >= g.endHour
}

// NextWindowStart returns the next opening instant strictly respecting the
// local calendar: once the local hour has reached startHour the next window
// is tomorrow's, even while today's window is still open.
func (g *Gate) NextWindowStart(now time.Time) time.Time {
	local := now.In(g.loc)
	day := local
	if local.Hour() >= g.startHour {
		day = local.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), g.startHour, 0, 0, 0, g.loc)
}
