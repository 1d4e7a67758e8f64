// Package types defines the domain model shared by every component of the
// appeal notification engine: case snapshots, subscriptions, templates,
// scheduled jobs, and the collaborator interfaces they flow through.
package types

import (
	"strings"
	"time"
)

// Name is a person's name as recorded on the case.
type Name struct {
	Title     string `json:"title,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName renders the name for letter addressing, omitting empty parts.
func (n Name) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.Title, n.FirstName, n.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Address is a postal address for letter delivery.
type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	Town     string `json:"town"`
	County   string `json:"county,omitempty"`
	Postcode string `json:"postcode"`
}

// IsEmpty reports whether the address carries no usable destination.
// A letter can only be dispatched when both a first line and a postcode exist.
func (a Address) IsEmpty() bool {
	return a.Line1 == "" || a.Postcode == ""
}

// Party is a person attached to the appeal (appellant, appointee,
// representative, joint party, other party).
type Party struct {
	Name    Name    `json:"name"`
	Address Address `json:"address"`
}

// Subscription records the contact preferences held for one role.
// A role "has subscriptions" iff at least one channel flag is set;
// the contact values themselves may lag behind the flags during updates.
type Subscription struct {
	Email          string `json:"email,omitempty"`
	Mobile         string `json:"mobile,omitempty"`
	SubscribeEmail bool   `json:"subscribe_email"`
	SubscribeSMS   bool   `json:"subscribe_sms"`
	TYA            string `json:"tya,omitempty"`
}

// HasSubscriptions reports whether any channel flag is set.
func (s *Subscription) HasSubscriptions() bool {
	return s != nil && (s.SubscribeEmail || s.SubscribeSMS)
}

// WantsEmail reports whether an email can and should be sent.
func (s *Subscription) WantsEmail() bool {
	return s != nil && s.SubscribeEmail && s.Email != ""
}

// WantsSMS reports whether an SMS can and should be sent.
func (s *Subscription) WantsSMS() bool {
	return s != nil && s.SubscribeSMS && s.Mobile != ""
}

// Subscriptions holds the at-most-one subscription per role.
type Subscriptions struct {
	Appellant      *Subscription `json:"appellant,omitempty"`
	Appointee      *Subscription `json:"appointee,omitempty"`
	Representative *Subscription `json:"representative,omitempty"`
	JointParty     *Subscription `json:"joint_party,omitempty"`
	OtherParty     *Subscription `json:"other_party,omitempty"`
}

// ForRole returns the subscription held for the given role, or nil.
func (s Subscriptions) ForRole(role SubscriptionRole) *Subscription {
	switch role {
	case RoleAppellant:
		return s.Appellant
	case RoleAppointee:
		return s.Appointee
	case RoleRepresentative:
		return s.Representative
	case RoleJointParty:
		return s.JointParty
	case RoleOtherParty:
		return s.OtherParty
	default:
		return nil
	}
}

// Hearing is a listed hearing on the case.
type Hearing struct {
	ID        string    `json:"id"`
	DateTime  time.Time `json:"date_time"`
	Adjourned bool      `json:"adjourned"`
	VenueName string    `json:"venue_name,omitempty"`
}

// CaseDocument is a document held against the case record, located by its
// type label when bundling letters.
type CaseDocument struct {
	Type     string `json:"type"`
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

// CaseData is an immutable snapshot of the case as delivered by the
// case-management backend. Old and new snapshots are compared to detect
// subscription changes; a subscription only ever transitions via a new
// snapshot, never in place.
type CaseData struct {
	CaseID            string         `json:"case_id"`
	CaseReference     string         `json:"case_reference"`
	Benefit           string         `json:"benefit"`
	LanguageWelsh     bool           `json:"language_welsh"`
	CreatedInGapsFrom string         `json:"created_in_gaps_from,omitempty"`
	HearingMode       HearingMode    `json:"hearing_mode"`
	Appellant         Party          `json:"appellant"`
	Appointee         *Party         `json:"appointee,omitempty"`
	Representative    *Party         `json:"representative,omitempty"`
	JointParty        *Party         `json:"joint_party,omitempty"`
	OtherParties      []Party        `json:"other_parties,omitempty"`
	Subscriptions     Subscriptions  `json:"subscriptions"`
	Hearings          []Hearing      `json:"hearings,omitempty"`
	Documents         []CaseDocument `json:"documents,omitempty"`
}

// LatestHearing returns the hearing with the greatest date-time, or nil when
// the case holds no hearings.
func (c *CaseData) LatestHearing() *Hearing {
	if c == nil || len(c.Hearings) == 0 {
		return nil
	}
	latest := &c.Hearings[0]
	for i := range c.Hearings {
		if c.Hearings[i].DateTime.After(latest.DateTime) {
			latest = &c.Hearings[i]
		}
	}
	return latest
}

// DocumentByType returns the first case document carrying the given type
// label, or nil.
func (c *CaseData) DocumentByType(label string) *CaseDocument {
	if c == nil {
		return nil
	}
	for i := range c.Documents {
		if c.Documents[i].Type == label {
			return &c.Documents[i]
		}
	}
	return nil
}

// Template is the per-channel template identifiers resolved for one
// (event, role) pair. Each field is optional; an absent identifier means the
// channel does not apply. SmsTemplateIDs is ordered Welsh-suffix-first,
// base-last when the case has a Welsh language preference.
type Template struct {
	EmailTemplateID    string   `json:"email_template_id,omitempty"`
	SmsTemplateIDs     []string `json:"sms_template_ids,omitempty"`
	LetterTemplateID   string   `json:"letter_template_id,omitempty"`
	DocmosisTemplateID string   `json:"docmosis_template_id,omitempty"`
}

// Destination carries the resolved contact points for one recipient.
type Destination struct {
	Email   string  `json:"email,omitempty"`
	Mobile  string  `json:"mobile,omitempty"`
	Address Address `json:"address"`
}

// Job is a unit of durable future work handed to the scheduler. Group is the
// cancellation and idempotency key, derived deterministically from the case
// id and event id; two logically different futures must never share a group.
// Scheduling a new job for a group does not cancel earlier jobs in that
// group — handlers cancel a group explicitly when its trigger condition no
// longer holds.
type Job struct {
	Group     string    `json:"group"`
	Name      string    `json:"name"`
	Kind      JobKind   `json:"kind"`
	Payload   []byte    `json:"payload"`
	TriggerAt time.Time `json:"trigger_at"`
}

// CorrespondenceMeta describes a sent artifact persisted back into the case
// record after dispatch.
type CorrespondenceMeta struct {
	Event     string    `json:"event"`
	Channel   Channel   `json:"channel"`
	Recipient string    `json:"recipient"`
	SentAt    time.Time `json:"sent_at"`
}
