package notify

import (
	"appealnotify/internal/events"
	"appealnotify/internal/types"
)

// Evaluator decides whether a notification should be produced for a given
// (context, role, event) triple. The decision is side-effect free.
type Evaluator struct {
	clock types.Clock
}

func NewEvaluator(clock types.Clock) *Evaluator {
	return &Evaluator{clock: clock}
}

// IsEligible reports whether a notification for role should be produced.
// Mandatory letter events bypass the subscription check entirely: the party
// is notified whether or not they opted in, provided a postal address exists
// for letter-only flows. All other events require an active subscription for
// the role, a still-valid hearing where the event depends on one, and an
// event flagged as sendable under the case's hearing arrangement.
func (e *Evaluator) IsEligible(nctx Context, role types.SubscriptionRole, event events.Type) bool {
	if !events.Known(event) {
		return false
	}
	f := events.FlagsFor(event)
	if f.MandatoryLetter {
		if !mandatoryRecipient(nctx, role) {
			return false
		}
		if f.BundledLetter {
			return !RecipientAddress(nctx, role).IsEmpty()
		}
		return true
	}
	sub := nctx.New().Subscriptions.ForRole(role)
	if !sub.HasSubscriptions() {
		return false
	}
	if !e.hearingStillValid(nctx, event) {
		return false
	}
	return hearingModeAllows(f, nctx.HearingMode())
}

// mandatoryRecipient reports whether role denotes a distinct party present
// on the case. An appointee supersedes the appellant for postal contact:
// when an appointee exists the appellant role is suppressed, since both
// roles resolve to the appointee's address and would otherwise each send
// the same letter.
func mandatoryRecipient(nctx Context, role types.SubscriptionRole) bool {
	data := nctx.New()
	switch role {
	case types.RoleAppellant:
		return data.Appointee == nil
	case types.RoleAppointee:
		return data.Appointee != nil
	case types.RoleRepresentative:
		return data.Representative != nil
	case types.RoleJointParty:
		return data.JointParty != nil
	case types.RoleOtherParty:
		return len(data.OtherParties) > 0
	default:
		return false
	}
}

// hearingStillValid guards events that only make sense ahead of a hearing.
// A hearing in the past, an adjourned hearing, or no hearing at all makes
// the notification stale.
func (e *Evaluator) hearingStillValid(nctx Context, event events.Type) bool {
	if !events.RequiresFutureHearing(event) {
		return true
	}
	h := nctx.New().LatestHearing()
	if h == nil {
		return false
	}
	return h.DateTime.After(e.clock.Now()) && !h.Adjourned
}

func hearingModeAllows(f events.Flags, mode types.HearingMode) bool {
	switch mode {
	case types.HearingModeOral:
		return f.SendForOral
	case types.HearingModePaper:
		return f.SendForPaper
	case types.HearingModeOnline:
		return f.SendForOnline
	default:
		return false
	}
}

// RecipientAddress returns the postal address for a role. Appellant post goes
// to the appointee when one is recorded on the case.
func RecipientAddress(nctx Context, role types.SubscriptionRole) types.Address {
	data := nctx.New()
	switch role {
	case types.RoleAppellant, types.RoleAppointee:
		if data.Appointee != nil {
			return data.Appointee.Address
		}
		return data.Appellant.Address
	case types.RoleRepresentative:
		if data.Representative != nil {
			return data.Representative.Address
		}
	case types.RoleJointParty:
		if data.JointParty != nil {
			return data.JointParty.Address
		}
	case types.RoleOtherParty:
		if len(data.OtherParties) > 0 {
			return data.OtherParties[0].Address
		}
	}
	return types.Address{}
}

// RecipientParty returns the named party for a role, or nil when the case
// carries none.
func RecipientParty(nctx Context, role types.SubscriptionRole) *types.Party {
	data := nctx.New()
	switch role {
	case types.RoleAppellant, types.RoleAppointee:
		if data.Appointee != nil {
			return data.Appointee
		}
		return &data.Appellant
	case types.RoleRepresentative:
		return data.Representative
	case types.RoleJointParty:
		return data.JointParty
	case types.RoleOtherParty:
		if len(data.OtherParties) > 0 {
			return &data.OtherParties[0]
		}
	}
	return nil
}
