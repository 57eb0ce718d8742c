// Package domain contains core domain types for the purchase bot.
package domain

import (
	"encoding/json"
	"time"
)

// State identifies where a purchase session currently is in the flow.
type State string

const (
	// StateAwaitingIdentity: the thread exists and the user still has to
	// submit their Roblox username and desired Robux amount.
	StateAwaitingIdentity State = "awaiting_identity"

	// StateIdentityConfirmPending: an account was resolved and the user must
	// confirm it is really theirs.
	StateIdentityConfirmPending State = "identity_confirm_pending"

	// StatePreListingInfo: the "create a gamepass of N Robux" screen.
	StatePreListingInfo State = "pre_listing_info"

	// StateAwaitingSelection: gamepass candidates were fetched (or manual
	// fallback engaged) and the user is picking what to sell.
	StateAwaitingSelection State = "awaiting_selection"

	// StateManualItemMismatch: a manually entered gamepass belongs to a
	// different account and needs an explicit override.
	StateManualItemMismatch State = "manual_item_mismatch"

	// StateSelectionConfirmed: selection locked in, payment screen shown.
	StateSelectionConfirmed State = "selection_confirmed"

	// StateAwaitingPayment: a payment intent is being created upstream.
	StateAwaitingPayment State = "awaiting_payment"

	// StatePaymentLinkIssued: the Mercado Pago link was handed to the user.
	StatePaymentLinkIssued State = "payment_link_issued"

	// StatePaymentApproved: the provider confirmed the payment.
	StatePaymentApproved State = "payment_approved"

	// StateCancelling: the cancel-confirmation screen is showing.
	StateCancelling State = "cancelling"

	StateCancelled State = "cancelled"
	StateExpired   State = "expired"
	StateCompleted State = "completed"
)

// Terminal reports whether the state ends the session. Terminal sessions are
// removed from the store and the user id may be reused by a fresh session.
func (s State) Terminal() bool {
	switch s {
	case StateCancelled, StateExpired, StateCompleted:
		return true
	}
	return false
}

// PaymentStatus mirrors the provider's last known status for the session.
type PaymentStatus string

const (
	PaymentNone     PaymentStatus = ""
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// Screen is an opaque rendered UI payload. The core stores and forwards it to
// the platform's edit-message primitive without looking inside.
type Screen = json.RawMessage

// Anchor references the single chat message a session renders into.
type Anchor struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// Zero reports whether no anchor message has been recorded yet.
func (a Anchor) Zero() bool {
	return a.ChannelID == "" || a.MessageID == ""
}

// Session holds one user's purchase flow progress. There is never more than
// one Session per user id.
type Session struct {
	UserID   string
	Username string
	State    State

	// Identity step.
	TypedIdentifier string
	Account         *Account
	AvatarURL       string

	// Best-effort public content detected for the account.
	GameName   string
	PlaceID    int64
	CreateLink string

	// Amounts. ListingAmount is always derived from DesiredAmount through the
	// pricing engine, never set directly.
	DesiredAmount int
	ListingAmount int

	// Selection step.
	CatalogCandidates []CatalogItem
	FallbackManual    bool
	SelectedItems     []SelectedItem
	ManualCandidate   *ManualItem

	// Payment step.
	PaymentReference string
	PaymentURL       string
	PaymentStatus    PaymentStatus

	// Rendering. Anchor is the session's "screen"; PriorScreen and
	// LastSelectionScreen are the navigation cache for back-presses.
	ThreadID            string
	Anchor              Anchor
	PriorScreen         Screen
	LastSelectionScreen Screen

	// PriorState lets an aborted cancellation restore the interrupted state.
	PriorState State

	CreatedAt      time.Time
	LastActivityAt time.Time
}

// Clone returns a deep copy safe to mutate without affecting the original.
func (s *Session) Clone() *Session {
	c := *s
	if s.Account != nil {
		acct := *s.Account
		c.Account = &acct
	}
	if s.ManualCandidate != nil {
		m := *s.ManualCandidate
		c.ManualCandidate = &m
	}
	c.CatalogCandidates = append([]CatalogItem(nil), s.CatalogCandidates...)
	c.SelectedItems = append([]SelectedItem(nil), s.SelectedItems...)
	c.PriorScreen = append(Screen(nil), s.PriorScreen...)
	c.LastSelectionScreen = append(Screen(nil), s.LastSelectionScreen...)
	return &c
}

// TotalListed sums the listed prices of the selected items.
func (s *Session) TotalListed() int {
	total := 0
	for _, it := range s.SelectedItems {
		total += it.Price
	}
	return total
}

// Candidate returns the catalog candidate with the given id, if present.
func (s *Session) Candidate(id int64) (CatalogItem, bool) {
	for _, it := range s.CatalogCandidates {
		if it.ID == id {
			return it, true
		}
	}
	return CatalogItem{}, false
}
