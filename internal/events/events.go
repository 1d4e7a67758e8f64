// Package events defines the case-lifecycle event catalogue and the static
// per-event dispatch flags consulted by the notification engine. Each event
// identifier matches the event id delivered by the case-management backend;
// Welsh-language variants carry a "Welsh" suffix and share the base event's
// dispatch flags.
package events

import "strings"

// Type is a case-lifecycle event identifier.
type Type string

// Appeal lifecycle events.
const (
	AppealCreated             Type = "appealCreated"
	AppealCreatedWelsh        Type = "appealCreatedWelsh"
	ValidAppealCreated        Type = "validAppealCreated"
	DraftToValidAppealCreated Type = "draftToValidAppealCreated"
	ResendAppealCreated       Type = "resendAppealCreated"
	AppealReceived            Type = "appealReceived"
	AppealReceivedWelsh       Type = "appealReceivedWelsh"
	AppealLapsed              Type = "appealLapsed"
	AppealLapsedWelsh         Type = "appealLapsedWelsh"
	DwpAppealLapsed           Type = "dwpAppealLapsed"
	DwpAppealLapsedWelsh      Type = "dwpAppealLapsedWelsh"
	HmctsAppealLapsed         Type = "hmctsAppealLapsed"
	HmctsAppealLapsedWelsh    Type = "hmctsAppealLapsedWelsh"
	AppealDormant             Type = "appealDormant"
	AppealDormantWelsh        Type = "appealDormantWelsh"
	AppealWithdrawn           Type = "appealWithdrawn"
	AppealWithdrawnWelsh      Type = "appealWithdrawnWelsh"
	AdminAppealWithdrawn      Type = "adminAppealWithdrawn"
	CaseUpdated               Type = "caseUpdated"
)

// First-tier agency response events.
const (
	ResponseReceived       Type = "responseReceived"
	ResponseReceivedWelsh  Type = "responseReceivedWelsh"
	DwpUploadResponse      Type = "dwpUploadResponse"
	DwpUploadResponseWelsh Type = "dwpUploadResponseWelsh"
)

// Hearing events.
const (
	HearingBooked         Type = "hearingBooked"
	HearingBookedWelsh    Type = "hearingBookedWelsh"
	HearingPostponed      Type = "hearingPostponed"
	HearingPostponedWelsh Type = "hearingPostponedWelsh"
	HearingAdjourned      Type = "hearingAdjourned"
	HearingAdjournedWelsh Type = "hearingAdjournedWelsh"
	HearingReminder       Type = "hearingReminder"
	HearingReminderWelsh  Type = "hearingReminderWelsh"
)

// Evidence events.
const (
	EvidenceReceived      Type = "evidenceReceived"
	EvidenceReceivedWelsh Type = "evidenceReceivedWelsh"
	EvidenceReminder      Type = "evidenceReminder"
	EvidenceReminderWelsh Type = "evidenceReminderWelsh"
)

// Subscription events.
const (
	SubscriptionCreated      Type = "subscriptionCreated"
	SubscriptionCreatedWelsh Type = "subscriptionCreatedWelsh"
	SubscriptionUpdated      Type = "subscriptionUpdated"
	SubscriptionUpdatedWelsh Type = "subscriptionUpdatedWelsh"
	SubscriptionOld          Type = "subscriptionOld"
	SubscriptionOldWelsh     Type = "subscriptionOldWelsh"
)

// Decision and direction events. These produce mandatory letters; several
// bundle an existing case document behind a generated cover letter.
const (
	StruckOut                      Type = "struckOut"
	StruckOutWelsh                 Type = "struckOutWelsh"
	DirectionIssued                Type = "directionIssued"
	DirectionIssuedWelsh           Type = "directionIssuedWelsh"
	DecisionIssued                 Type = "decisionIssued"
	DecisionIssuedWelsh            Type = "decisionIssuedWelsh"
	IssueFinalDecision             Type = "issueFinalDecision"
	IssueFinalDecisionWelsh        Type = "issueFinalDecisionWelsh"
	IssueAdjournmentNotice         Type = "issueAdjournmentNotice"
	IssueAdjournmentNoticeWelsh    Type = "issueAdjournmentNoticeWelsh"
	ProcessAudioVideo              Type = "processAudioVideo"
	ProcessAudioVideoWelsh         Type = "processAudioVideoWelsh"
	NonCompliant                   Type = "nonCompliant"
	NonCompliantWelsh              Type = "nonCompliantWelsh"
	RequestInfoIncomplete          Type = "requestInfoIncomplete"
	RequestInfoIncompleteWelsh     Type = "requestInfoIncompleteWelsh"
	ActionPostponementRequest      Type = "actionPostponementRequest"
	ActionPostponementRequestWelsh Type = "actionPostponementRequestWelsh"
	ReviewConfirmation             Type = "reviewConfirmation"
	ReviewConfirmationWelsh        Type = "reviewConfirmationWelsh"
)

// Party update events.
const (
	JointPartyAdded           Type = "jointPartyAdded"
	JointPartyAddedWelsh      Type = "jointPartyAddedWelsh"
	UpdateOtherPartyData      Type = "updateOtherPartyData"
	UpdateOtherPartyDataWelsh Type = "updateOtherPartyDataWelsh"
)

// Reminder events raised by scheduled jobs firing, not by the backend.
const (
	HearingHoldingReminder       Type = "hearingHoldingReminder"
	SecondHearingHoldingReminder Type = "secondHearingHoldingReminder"
	ThirdHearingHoldingReminder  Type = "thirdHearingHoldingReminder"
	FinalHearingHoldingReminder  Type = "finalHearingHoldingReminder"
)

// Flags is the static dispatch behavior attached to an event type. The flags
// for a Welsh-suffixed event are those of its base event.
type Flags struct {
	// AllowOutOfHours permits dispatch outside the configured business-hours
	// window. Events without it are deferred to the next window start.
	AllowOutOfHours bool

	// SendForOral, SendForPaper, and SendForOnline gate dispatch by the
	// case's hearing mode. The three are consulted as an exhaustive branch.
	SendForOral   bool
	SendForPaper  bool
	SendForOnline bool

	// MandatoryLetter forces eligibility regardless of subscription state:
	// the letter must always go out.
	MandatoryLetter bool

	// BundledLetter marks events whose letter merges a generated cover
	// letter with an existing case document into one artifact.
	BundledLetter bool

	// SubscriptionUpdate marks events that trigger the old-subscription
	// re-notification path after channel dispatch.
	SubscriptionUpdate bool

	// CoverTemplateID is the fixed PDF cover-letter template used when
	// BundledLetter is set.
	CoverTemplateID string

	// DocumentLabel is the case-document type label located and attached
	// when BundledLetter is set.
	DocumentLabel string
}

var oralAndPaper = Flags{SendForOral: true, SendForPaper: true}

// flagsTable keys base event ids only; FlagsFor resolves Welsh variants to
// their base entry.
var flagsTable = map[Type]Flags{
	AppealCreated:             {SendForOral: true, SendForPaper: true, SendForOnline: true},
	ValidAppealCreated:        {SendForOral: true, SendForPaper: true, SendForOnline: true},
	DraftToValidAppealCreated: {SendForOral: true, SendForPaper: true, SendForOnline: true},
	ResendAppealCreated:       {SendForOral: true, SendForPaper: true, SendForOnline: true},
	AppealReceived:            oralAndPaper,
	AppealLapsed:              oralAndPaper,
	DwpAppealLapsed:           oralAndPaper,
	HmctsAppealLapsed:         oralAndPaper,
	AppealDormant:             oralAndPaper,
	AppealWithdrawn:           oralAndPaper,
	AdminAppealWithdrawn:      oralAndPaper,
	CaseUpdated:               {AllowOutOfHours: true, SendForOral: true, SendForPaper: true, SendForOnline: true},

	ResponseReceived:  oralAndPaper,
	DwpUploadResponse: oralAndPaper,

	HearingBooked:    {SendForOral: true},
	HearingPostponed: {SendForOral: true},
	HearingAdjourned: {SendForOral: true},
	HearingReminder:  {SendForOral: true},

	EvidenceReceived: oralAndPaper,
	EvidenceReminder: {AllowOutOfHours: true, SendForOral: true, SendForPaper: true},

	SubscriptionCreated: oralAndPaper,
	SubscriptionUpdated: {SendForOral: true, SendForPaper: true, SendForOnline: true, SubscriptionUpdate: true},
	SubscriptionOld:     {SendForOral: true, SendForPaper: true, SendForOnline: true},

	StruckOut: {
		AllowOutOfHours: true, SendForOral: true, SendForPaper: true,
		MandatoryLetter: true, BundledLetter: true,
		CoverTemplateID: "TB-SCS-LET-ENG-Cover-Sheet.docx",
		DocumentLabel:   "Strike Out Notice",
	},
	DirectionIssued: {
		AllowOutOfHours: true, SendForOral: true, SendForPaper: true, SendForOnline: true,
		MandatoryLetter: true, BundledLetter: true,
		CoverTemplateID: "TB-SCS-LET-ENG-Cover-Sheet.docx",
		DocumentLabel:   "Directions Notice",
	},
	DecisionIssued: {
		AllowOutOfHours: true, SendForOral: true, SendForPaper: true, SendForOnline: true,
		MandatoryLetter: true, BundledLetter: true,
		CoverTemplateID: "TB-SCS-LET-ENG-Cover-Sheet.docx",
		DocumentLabel:   "Decision Notice",
	},
	IssueFinalDecision: {
		AllowOutOfHours: true, SendForOral: true, SendForPaper: true,
		MandatoryLetter: true, BundledLetter: true,
		CoverTemplateID: "TB-SCS-LET-ENG-Cover-Sheet.docx",
		DocumentLabel:   "Final Decision Notice",
	},
	IssueAdjournmentNotice: {
		AllowOutOfHours: true, SendForOral: true, SendForPaper: true,
		MandatoryLetter: true, BundledLetter: true,
		CoverTemplateID: "TB-SCS-LET-ENG-Cover-Sheet.docx",
		DocumentLabel:   "Adjournment Notice",
	},
	ProcessAudioVideo: {
		AllowOutOfHours: true, SendForOral: true, SendForPaper: true,
		MandatoryLetter: true, BundledLetter: true,
		CoverTemplateID: "TB-SCS-LET-ENG-Cover-Sheet.docx",
		DocumentLabel:   "Audio/Video Evidence Directions",
	},
	NonCompliant: {
		AllowOutOfHours: true, SendForOral: true, SendForPaper: true,
		MandatoryLetter: true,
	},
	RequestInfoIncomplete: {
		AllowOutOfHours: true, SendForOral: true, SendForPaper: true,
		MandatoryLetter: true,
	},
	ActionPostponementRequest: {
		AllowOutOfHours: true, SendForOral: true,
		MandatoryLetter: true,
	},
	ReviewConfirmation: {SendForOnline: true},

	JointPartyAdded:      oralAndPaper,
	UpdateOtherPartyData: oralAndPaper,

	HearingHoldingReminder:       {AllowOutOfHours: true, SendForOral: true, SendForPaper: true},
	SecondHearingHoldingReminder: {AllowOutOfHours: true, SendForOral: true, SendForPaper: true},
	ThirdHearingHoldingReminder:  {AllowOutOfHours: true, SendForOral: true, SendForPaper: true},
	FinalHearingHoldingReminder:  {AllowOutOfHours: true, SendForOral: true, SendForPaper: true},
}

// BaseOf strips the Welsh suffix, returning the base event id.
func BaseOf(t Type) Type {
	s := string(t)
	if strings.HasSuffix(s, "Welsh") {
		return Type(strings.TrimSuffix(s, "Welsh"))
	}
	return t
}

// IsWelsh reports whether t is a Welsh-language variant.
func IsWelsh(t Type) bool {
	return strings.HasSuffix(string(t), "Welsh")
}

// WelshOf returns the Welsh-language variant of a base event.
func WelshOf(t Type) Type {
	if IsWelsh(t) {
		return t
	}
	return Type(string(t) + "Welsh")
}

// Known reports whether t (or its base) appears in the event catalogue.
func Known(t Type) bool {
	_, ok := flagsTable[BaseOf(t)]
	return ok
}

// FlagsFor returns the dispatch flags for t, resolving Welsh variants to
// their base entry. Unknown events return the zero Flags, which dispatches
// nothing.
func FlagsFor(t Type) Flags {
	return flagsTable[BaseOf(t)]
}

// RequiresFutureHearing reports whether eligibility for t depends on the
// case holding a future, non-adjourned hearing.
func RequiresFutureHearing(t Type) bool {
	switch BaseOf(t) {
	case HearingBooked, HearingReminder:
		return true
	default:
		return false
	}
}
