package types

// SubscriptionRole identifies a party on the appeal that may hold a
// subscription and receive correspondence.
type SubscriptionRole string

const (
	RoleAppellant      SubscriptionRole = "appellant"
	RoleAppointee      SubscriptionRole = "appointee"
	RoleRepresentative SubscriptionRole = "representative"
	RoleJointParty     SubscriptionRole = "jointParty"
	RoleOtherParty     SubscriptionRole = "otherParty"
)

// AllRoles lists every subscription role in dispatch order. The orchestrator
// iterates roles in this exact order so that per-event send sequences are
// deterministic and auditable.
var AllRoles = []SubscriptionRole{
	RoleAppellant,
	RoleAppointee,
	RoleRepresentative,
	RoleJointParty,
	RoleOtherParty,
}

// Channel identifies a delivery channel for a notification.
type Channel string

const (
	ChannelEmail  Channel = "email"
	ChannelSMS    Channel = "sms"
	ChannelLetter Channel = "letter"
)

// HearingMode is the hearing arrangement recorded on the case. Online is the
// distinguished "online resolution" mode and is gated separately from oral
// and paper cases.
type HearingMode string

const (
	HearingModeOral   HearingMode = "oral"
	HearingModePaper  HearingMode = "paper"
	HearingModeOnline HearingMode = "online"
)

// DispatchResult categorizes a dispatch outcome for metrics reporting.
type DispatchResult string

const (
	DispatchSuccess  DispatchResult = "success"
	DispatchFailed   DispatchResult = "failed"
	DispatchDeferred DispatchResult = "deferred"
	DispatchRetrying DispatchResult = "retrying"
	DispatchDropped  DispatchResult = "dropped"
)

// CloudWatch metric names and dimensions for the notification engine.
const (
	MetricNamespace    = "AppealNotifications"
	MetricDispatch     = "NotificationDispatch"
	MetricJobScheduled = "JobScheduled"
	DimChannel         = "Channel"
	DimResult          = "Result"
	DimEvent           = "Event"
)
