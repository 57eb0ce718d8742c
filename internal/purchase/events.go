package purchase

// EventKind tags the event variants that drive the state machine. Dispatch
// resolves the kind through one transition table instead of chained string
// comparisons on raw component ids.
type EventKind string

const (
	EventStart               EventKind = "start_purchase"
	EventIdentitySubmitted   EventKind = "identity_submitted"
	EventConfirmYes          EventKind = "identity_confirm_yes"
	EventConfirmNo           EventKind = "identity_confirm_no"
	EventPreListingContinue  EventKind = "pre_listing_continue"
	EventItemsSelected       EventKind = "items_selected"
	EventConfirmSelection    EventKind = "confirm_selection"
	EventManualItemSubmitted EventKind = "manual_item_submitted"
	EventForceConfirm        EventKind = "force_confirm"
	EventBackToIdentity      EventKind = "back_to_identity_confirm"
	EventBackToSelection     EventKind = "back_to_selection"
	EventShowSummary         EventKind = "show_summary"
	EventGeneratePayment     EventKind = "generate_payment"
	EventCheckStatus         EventKind = "check_payment_status"
	EventProviderApproved    EventKind = "provider_status_approved"
	EventCancelRequested     EventKind = "cancel_requested"
	EventCancelConfirmed     EventKind = "cancel_confirmed"
	EventCancelAborted       EventKind = "cancel_aborted"
	EventComplete            EventKind = "complete"
	EventIdleTimeout         EventKind = "idle_timeout"
)

// Event is a tagged user- or provider-driven occurrence for one session.
type Event interface {
	Kind() EventKind
}

// StartPurchase opens a private thread and a fresh session.
type StartPurchase struct {
	ChannelID string
	Username  string
}

func (StartPurchase) Kind() EventKind { return EventStart }

// IdentitySubmitted carries the purchase form: the typed Roblox username and
// the raw desired amount, unvalidated.
type IdentitySubmitted struct {
	Username  string
	RawAmount string
}

func (IdentitySubmitted) Kind() EventKind { return EventIdentitySubmitted }

// ItemsSelected carries the select-menu values (gamepass ids as strings).
type ItemsSelected struct {
	IDs []string
}

func (ItemsSelected) Kind() EventKind { return EventItemsSelected }

// ManualItemSubmitted carries the raw text of the manual gamepass form: a
// bare id or a gamepass link.
type ManualItemSubmitted struct {
	Raw string
}

func (ManualItemSubmitted) Kind() EventKind { return EventManualItemSubmitted }

// ProviderApproved is driven by payment reconciliation, never by the chat UI.
type ProviderApproved struct {
	PaymentID string
	Reference string
}

func (ProviderApproved) Kind() EventKind { return EventProviderApproved }

// simple event carries no payload beyond its kind.
type simple EventKind

func (s simple) Kind() EventKind { return EventKind(s) }

// Parameterless event values.
var (
	ConfirmYes         Event = simple(EventConfirmYes)
	ConfirmNo          Event = simple(EventConfirmNo)
	PreListingContinue Event = simple(EventPreListingContinue)
	ConfirmSelection   Event = simple(EventConfirmSelection)
	ForceConfirm       Event = simple(EventForceConfirm)
	BackToIdentity     Event = simple(EventBackToIdentity)
	BackToSelection    Event = simple(EventBackToSelection)
	ShowSummary        Event = simple(EventShowSummary)
	GeneratePayment    Event = simple(EventGeneratePayment)
	CheckStatus        Event = simple(EventCheckStatus)
	CancelRequested    Event = simple(EventCancelRequested)
	CancelConfirmed    Event = simple(EventCancelConfirmed)
	CancelAborted      Event = simple(EventCancelAborted)
	Complete           Event = simple(EventComplete)
)
