package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
	"github.com/proliferam/teste-mercado-pago/internal/pricing"
	"github.com/proliferam/teste-mercado-pago/internal/store"
)

// OrderWriter records approved purchases for audit. Sessions stay volatile;
// only the completed-order record survives a restart.
type OrderWriter interface {
	InsertOrder(ctx context.Context, order *domain.Order) error
}

// Reconciler correlates asynchronous provider status events back to the
// owning session via the payment-reference index and drives the machine's
// payment transitions. Provider events and chat events are not ordered
// relative to each other; idempotency guards are the correctness mechanism.
type Reconciler struct {
	store    *store.SessionStore
	provider PaymentProvider
	machine  *Machine
	ledger   OrderWriter
}

// NewReconciler wires payment reconciliation. ledger may be nil.
func NewReconciler(st *store.SessionStore, provider PaymentProvider, machine *Machine, ledger OrderWriter) *Reconciler {
	return &Reconciler{store: st, provider: provider, machine: machine, ledger: ledger}
}

// HandleNotification resolves a webhook payment notification to a status
// event and applies it. The webhook endpoint has already acknowledged the
// provider by the time this runs; failures here are logged, not retried.
func (r *Reconciler) HandleNotification(ctx context.Context, paymentID string) {
	ev, err := r.provider.Payment(ctx, paymentID)
	if errors.Is(err, domain.ErrNotFound) {
		slog.Warn("payment notification references unknown payment", "payment_id", paymentID)
		return
	}
	if err != nil {
		slog.Error("payment lookup failed", "payment_id", paymentID, "error", err)
		return
	}
	if err := r.Apply(ctx, ev); err != nil && !errors.Is(err, ErrReconciliationMiss) {
		slog.Error("payment reconciliation failed", "payment_id", paymentID,
			"reference", ev.Reference, "error", err)
	}
}

// Apply routes a provider status event to the owning session. Non-approved
// statuses are recorded directly and idempotently. An approval is only ever
// committed through the machine's transition; if that transition is rejected
// because the session is on another screen, the stored status stays
// unconsumed so a later redelivery can land it.
func (r *Reconciler) Apply(ctx context.Context, ev *domain.PaymentEvent) error {
	userID, ok := r.store.UserByReference(ev.Reference)
	if !ok {
		// The session may have been cancelled or expired after the intent
		// was created. A race, not an error.
		slog.Info("discarding payment event with no matching session",
			"reference", ev.Reference, "status", ev.Status)
		return ErrReconciliationMiss
	}

	var approve bool
	var snap *domain.Session
	updated := r.store.Update(userID, func(s *domain.Session) {
		if s.PaymentReference != ev.Reference {
			return
		}
		if s.PaymentStatus == domain.PaymentApproved {
			// Approval already consumed; redeliveries are no-ops.
			return
		}
		if ev.Status == domain.PaymentApproved {
			// The approved status is committed by the machine transition,
			// never here. If the dispatch below is rejected (the cancel
			// screen may be showing), the status stays unconsumed and a
			// redelivered event can retry once the flow returns to the
			// payment-link screen.
			approve = true
			snap = s.Clone()
			return
		}
		if s.PaymentStatus != ev.Status {
			s.PaymentStatus = ev.Status
		}
	})
	if !updated {
		slog.Info("discarding payment event, session vanished mid-reconciliation",
			"reference", ev.Reference)
		return ErrReconciliationMiss
	}
	if !approve {
		return nil
	}

	_, err := r.machine.Dispatch(ctx, userID,
		ProviderApproved{PaymentID: ev.PaymentID, Reference: ev.Reference})
	if errors.Is(err, ErrStaleTransition) || errors.Is(err, ErrNoSession) {
		slog.Info("approval could not apply yet, awaiting redelivery", "user_id", userID,
			"reference", ev.Reference, "error", err)
		return nil
	}
	if err != nil {
		return err
	}

	r.writeOrder(ctx, snap, ev)
	return nil
}

// writeOrder records the approved purchase from the snapshot taken under the
// store lock. The live session may already be gone (a fast finish click
// deletes it); the ledger row must not depend on it.
func (r *Reconciler) writeOrder(ctx context.Context, s *domain.Session, ev *domain.PaymentEvent) {
	if r.ledger == nil || s == nil {
		return
	}
	items, err := json.Marshal(s.SelectedItems)
	if err != nil {
		items = []byte("[]")
	}
	receive := 0
	for _, it := range s.SelectedItems {
		receive += pricing.ReceivedFromListing(it.Price)
	}
	order := &domain.Order{
		ID:               uuid.NewString(),
		UserID:           s.UserID,
		Username:         s.Username,
		DesiredAmount:    s.DesiredAmount,
		TotalListed:      s.TotalListed(),
		ChargedCents:     pricing.ChargeCents(receive),
		PaymentReference: ev.Reference,
		PaymentID:        ev.PaymentID,
		ItemsJSON:        string(items),
		ApprovedAt:       time.Now(),
	}
	if s.Account != nil {
		order.AccountID = s.Account.ID
		order.AccountName = s.Account.Name
	}
	if err := r.ledger.InsertOrder(ctx, order); err != nil {
		slog.Error("failed to record approved order", "user_id", s.UserID,
			"reference", ev.Reference, "error", err)
	}
}
