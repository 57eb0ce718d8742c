package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by collaborator clients when a username, item or
// payment does not exist upstream. It is distinct from transport failures.
var ErrNotFound = errors.New("not found")

// Account is a resolved Roblox account.
type Account struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Game is a public experience owned by an account.
type Game struct {
	PlaceID int64  `json:"place_id"`
	Name    string `json:"name"`
}

// CatalogItem is a sellable gamepass fetched for the resolved account.
type CatalogItem struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// SelectedItem is a gamepass the user chose for the purchase.
type SelectedItem struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// ManualItem is a manually entered gamepass together with its owner, kept
// around while an owner mismatch awaits explicit resolution.
type ManualItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Price     int    `json:"price"`
	OwnerID   int64  `json:"owner_id"`
	OwnerName string `json:"owner_name"`
}

// Selected converts the manual item into a selection entry.
func (m *ManualItem) Selected() SelectedItem {
	return SelectedItem{ID: m.ID, Name: m.Name, Price: m.Price}
}

// PaymentIntent is the provider's answer to an intent creation request.
type PaymentIntent struct {
	Reference string
	PayURL    string
}

// PaymentEvent is a provider status event resolved from a webhook
// notification: the correlation reference plus the payment's current status.
type PaymentEvent struct {
	PaymentID string
	Reference string
	Status    PaymentStatus
}

// Order is the audit record written when a payment is approved.
type Order struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	AccountID        int64     `json:"account_id"`
	AccountName      string    `json:"account_name"`
	DesiredAmount    int       `json:"desired_amount"`
	TotalListed      int       `json:"total_listed"`
	ChargedCents     int64     `json:"charged_cents"`
	PaymentReference string    `json:"payment_reference"`
	PaymentID        string    `json:"payment_id"`
	ItemsJSON        string    `json:"items_json"`
	ApprovedAt       time.Time `json:"approved_at"`
}
