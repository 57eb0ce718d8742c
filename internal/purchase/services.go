package purchase

import (
	"context"
	"time"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
)

// ScreenKind selects which screen the renderer should build from a session
// snapshot. The machine treats the result as opaque.
type ScreenKind string

const (
	ScreenWelcome         ScreenKind = "welcome"
	ScreenIdentityConfirm ScreenKind = "identity_confirm"
	ScreenPreListing      ScreenKind = "pre_listing"
	ScreenSelection       ScreenKind = "selection"
	ScreenManualItem      ScreenKind = "manual_item"
	ScreenMismatch        ScreenKind = "mismatch"
	ScreenSummary         ScreenKind = "summary"
	ScreenPayment         ScreenKind = "payment"
	ScreenPaymentLink     ScreenKind = "payment_link"
	ScreenSuccess         ScreenKind = "success"
	ScreenCancelConfirm   ScreenKind = "cancel_confirm"
	ScreenCancelled       ScreenKind = "cancelled"
	ScreenCompleted       ScreenKind = "completed"
)

// IdentityService resolves typed usernames to canonical Roblox accounts.
type IdentityService interface {
	// Resolve returns domain.ErrNotFound when no account matches.
	Resolve(ctx context.Context, username string) (*domain.Account, error)

	// AvatarURL never fails; it falls back to a fixed default asset.
	AvatarURL(ctx context.Context, accountID int64) string

	// PublicGames lists the account's public experiences, possibly empty.
	PublicGames(ctx context.Context, accountID int64) ([]domain.Game, error)
}

// CatalogService fetches sellable gamepasses for an account.
type CatalogService interface {
	// SellableItems returns only items currently listed for sale.
	SellableItems(ctx context.Context, accountID int64) ([]domain.CatalogItem, error)

	// ItemInfo returns public price and owner for one gamepass;
	// domain.ErrNotFound when the id does not resolve.
	ItemInfo(ctx context.Context, itemID int64) (*domain.ManualItem, error)
}

// IntentRequest describes the payment intent to create.
type IntentRequest struct {
	Title         string
	Description   string
	AmountCents   int64
	UserID        string
	ReceiveAmount int
}

// PaymentProvider creates payment intents and resolves webhook notifications
// to status events.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*domain.PaymentIntent, error)
	Payment(ctx context.Context, paymentID string) (*domain.PaymentEvent, error)
}

// Renderer builds opaque screen payloads from session snapshots. Pure; no I/O.
type Renderer interface {
	Render(s *domain.Session, kind ScreenKind) domain.Screen
	IdentityForm() domain.Screen
	ManualItemForm() domain.Screen
}

// Messenger is the chat platform boundary: thread creation, the edit-message
// primitive behind the session's anchored screen, and side-channel notices.
type Messenger interface {
	CreateThread(ctx context.Context, channelID, name, inviteUserID string) (string, error)
	SendText(ctx context.Context, channelID, content string) error
	SendScreen(ctx context.Context, channelID string, screen domain.Screen) (messageID string, err error)
	EditScreen(ctx context.Context, anchor domain.Anchor, screen domain.Screen) error
	ScheduleDelete(channelID string, after time.Duration)
}

// TransitionSink observes applied state transitions (operator monitor feed).
type TransitionSink interface {
	Transition(userID string, from, to domain.State, event EventKind)
}
