// Package purchase implements the per-user purchase session state machine:
// transitions, guards, side-effecting actions, idle expiry and payment
// reconciliation. Rendering and all upstream lookups are delegated to the
// collaborator interfaces in services.go; this package owns the decisions.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
	"github.com/proliferam/teste-mercado-pago/internal/pricing"
	"github.com/proliferam/teste-mercado-pago/internal/store"
)

const (
	// How long the thread lingers after the cancelled/completed screen shows.
	cancelTeardownDelay    = 10 * time.Second
	completedTeardownDelay = 10 * time.Second
	expiredTeardownDelay   = 5 * time.Second

	// Selection screen limits, matching the platform's component caps.
	maxCandidatesShown = 25
	maxSelectable      = 5
)

var itemIDPattern = regexp.MustCompile(`(\d+)`)

// Ack is the immediate answer for the interaction that carried an event:
// an optional ephemeral note shown only to the user, and an optional form
// (modal) the platform should open.
type Ack struct {
	Ephemeral string
	Modal     domain.Screen
}

// Machine drives purchase sessions. Events for the same session may arrive
// concurrently; every handler takes a fresh snapshot, performs external calls
// without holding any lock, and commits through a state-guarded replace so
// stale results are discarded instead of applied out of order.
type Machine struct {
	store     *store.SessionStore
	identity  IdentityService
	catalog   CatalogService
	provider  PaymentProvider
	renderer  Renderer
	messenger Messenger
	reaper    *Reaper
	sink      TransitionSink
	now       func() time.Time
}

// NewMachine wires the state machine. sink may be nil.
func NewMachine(st *store.SessionStore, identity IdentityService, catalog CatalogService,
	provider PaymentProvider, renderer Renderer, messenger Messenger, reaper *Reaper) *Machine {
	return &Machine{
		store:     st,
		identity:  identity,
		catalog:   catalog,
		provider:  provider,
		renderer:  renderer,
		messenger: messenger,
		reaper:    reaper,
		now:       time.Now,
	}
}

// SetSink attaches an observer for applied transitions.
func (m *Machine) SetSink(sink TransitionSink) { m.sink = sink }

type handlerFunc func(*Machine, context.Context, *domain.Session, Event) (*Ack, error)

type transition struct {
	// Allowed source states. Empty means any non-terminal state.
	from   []domain.State
	handle handlerFunc
}

func (t transition) allows(s domain.State) bool {
	if len(t.from) == 0 {
		return !s.Terminal()
	}
	for _, f := range t.from {
		if f == s {
			return true
		}
	}
	return false
}

// The transition table: one lookup per event kind, no custom-id string chains.
var transitions = map[EventKind]transition{
	EventIdentitySubmitted: {
		from:   []domain.State{domain.StateAwaitingIdentity},
		handle: (*Machine).identitySubmitted,
	},
	EventConfirmYes: {
		from:   []domain.State{domain.StateIdentityConfirmPending},
		handle: (*Machine).confirmYes,
	},
	EventConfirmNo: {
		from:   []domain.State{domain.StateIdentityConfirmPending},
		handle: (*Machine).confirmNo,
	},
	EventPreListingContinue: {
		from:   []domain.State{domain.StatePreListingInfo},
		handle: (*Machine).preListingContinue,
	},
	EventItemsSelected: {
		from:   []domain.State{domain.StateAwaitingSelection},
		handle: (*Machine).itemsSelected,
	},
	EventConfirmSelection: {
		from:   []domain.State{domain.StateAwaitingSelection},
		handle: (*Machine).confirmSelection,
	},
	EventManualItemSubmitted: {
		from:   []domain.State{domain.StateAwaitingSelection},
		handle: (*Machine).manualItemSubmitted,
	},
	EventForceConfirm: {
		from:   []domain.State{domain.StateManualItemMismatch},
		handle: (*Machine).forceConfirm,
	},
	EventBackToIdentity: {
		from:   []domain.State{domain.StateAwaitingSelection, domain.StateManualItemMismatch},
		handle: (*Machine).backToIdentity,
	},
	EventBackToSelection: {
		from: []domain.State{domain.StateAwaitingSelection, domain.StateManualItemMismatch,
			domain.StateSelectionConfirmed},
		handle: (*Machine).backToSelection,
	},
	EventShowSummary: {
		from:   []domain.State{domain.StateSelectionConfirmed},
		handle: (*Machine).showSummary,
	},
	EventGeneratePayment: {
		from:   []domain.State{domain.StateSelectionConfirmed},
		handle: (*Machine).generatePayment,
	},
	EventCheckStatus: {
		from:   []domain.State{domain.StatePaymentLinkIssued},
		handle: (*Machine).checkStatus,
	},
	EventProviderApproved: {
		from:   []domain.State{domain.StatePaymentLinkIssued},
		handle: (*Machine).providerApproved,
	},
	EventCancelRequested: {
		handle: (*Machine).cancelRequested,
	},
	EventCancelConfirmed: {
		from:   []domain.State{domain.StateCancelling},
		handle: (*Machine).cancelConfirmed,
	},
	EventCancelAborted: {
		from:   []domain.State{domain.StateCancelling},
		handle: (*Machine).cancelAborted,
	},
	EventComplete: {
		from:   []domain.State{domain.StatePaymentApproved},
		handle: (*Machine).complete,
	},
}

// Dispatch validates ev against the current session state and runs its
// transition. Any activity on a live session resets the idle timer.
func (m *Machine) Dispatch(ctx context.Context, userID string, ev Event) (*Ack, error) {
	if sp, ok := ev.(StartPurchase); ok {
		return m.startPurchase(ctx, userID, sp)
	}

	t, ok := transitions[ev.Kind()]
	if !ok {
		return nil, fmt.Errorf("%w: unknown event %q", ErrStaleTransition, ev.Kind())
	}
	snap, found := m.store.Get(userID)
	if !found {
		return nil, ErrNoSession
	}
	if !t.allows(snap.State) {
		return nil, fmt.Errorf("%w: %s not applicable in state %s", ErrStaleTransition, ev.Kind(), snap.State)
	}

	ack, err := t.handle(m, ctx, snap, ev)

	if s, ok := m.store.Get(userID); ok && !s.State.Terminal() {
		m.reaper.Reset(userID)
	}
	return ack, err
}

// startPurchase creates (or overwrites) the user's session, opens a private
// thread and posts the anchored welcome screen.
func (m *Machine) startPurchase(ctx context.Context, userID string, ev StartPurchase) (*Ack, error) {
	if old, ok := m.store.Get(userID); ok {
		slog.Info("replacing existing purchase session", "user_id", userID, "state", old.State)
		m.reaper.Cancel(userID)
		if old.ThreadID != "" {
			m.messenger.ScheduleDelete(old.ThreadID, expiredTeardownDelay)
		}
	}

	threadID, err := m.messenger.CreateThread(ctx, ev.ChannelID, "Compra - "+ev.Username, userID)
	if err != nil {
		return nil, unavailable("Não foi possível criar a sua thread de compra. Tente novamente.", err)
	}
	m.sendText(ctx, threadID, fmt.Sprintf("Olá <@%s>, bem-vindo à sua compra privada!", userID))

	now := m.now()
	next := &domain.Session{
		UserID:         userID,
		Username:       ev.Username,
		State:          domain.StateAwaitingIdentity,
		ThreadID:       threadID,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	screen := m.renderer.Render(next, ScreenWelcome)
	msgID, err := m.messenger.SendScreen(ctx, threadID, screen)
	if err != nil {
		m.messenger.ScheduleDelete(threadID, expiredTeardownDelay)
		return nil, unavailable("Não foi possível preparar a sua thread de compra. Tente novamente.", err)
	}
	next.Anchor = domain.Anchor{ChannelID: threadID, MessageID: msgID}
	next.PriorScreen = screen

	m.store.Put(next)
	m.reaper.Reset(userID)
	m.emit(userID, "", domain.StateAwaitingIdentity, EventStart)
	return &Ack{Ephemeral: "Thread criada! Continue a sua compra por lá."}, nil
}

func (m *Machine) identitySubmitted(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	sub := ev.(IdentitySubmitted)

	amount, err := strconv.Atoi(strings.TrimSpace(sub.RawAmount))
	if err != nil || amount <= 0 {
		return nil, validationf("O valor digitado é inválido. Use apenas números.")
	}
	username := strings.TrimSpace(sub.Username)
	if username == "" {
		return nil, validationf("Informe o seu usuário Roblox.")
	}

	account, err := m.identity.Resolve(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, notFound("Não encontrei nenhum usuário com esse nome no Roblox. " +
			"Verifique se digitou corretamente e tente novamente.")
	}
	if err != nil {
		return nil, unavailable("Não foi possível consultar o Roblox agora. Tente novamente.", err)
	}

	// Best effort: a missing game only disables the creation deep link.
	games, err := m.identity.PublicGames(ctx, account.ID)
	if err != nil {
		slog.Warn("public games lookup failed", "user_id", snap.UserID, "account_id", account.ID, "error", err)
		games = nil
	}
	avatar := m.identity.AvatarURL(ctx, account.ID)

	next := snap.Clone()
	next.TypedIdentifier = username
	next.Account = account
	next.AvatarURL = avatar
	next.DesiredAmount = amount
	next.ListingAmount = pricing.AmountToList(amount)
	next.GameName, next.PlaceID, next.CreateLink = "", 0, ""
	if len(games) > 0 {
		next.GameName = games[0].Name
		next.PlaceID = games[0].PlaceID
		next.CreateLink = passCreateLink(games[0].PlaceID)
	}
	next.CatalogCandidates = nil
	next.SelectedItems = nil
	next.ManualCandidate = nil
	next.FallbackManual = false
	next.State = domain.StateIdentityConfirmPending
	return nil, m.commitScreen(ctx, snap, next, ScreenIdentityConfirm, ev.Kind(), false)
}

func (m *Machine) confirmYes(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	if snap.Account == nil {
		return nil, validationf("Não encontrei os dados da sua sessão de compra. Por favor, inicie novamente.")
	}
	next := snap.Clone()
	next.State = domain.StatePreListingInfo
	return nil, m.commitScreen(ctx, snap, next, ScreenPreListing, ev.Kind(), false)
}

// confirmNo loops back to the identity form without touching the anchored
// screen; the form reopens as a modal.
func (m *Machine) confirmNo(_ context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	next := snap.Clone()
	next.State = domain.StateAwaitingIdentity
	next.LastActivityAt = m.now()
	committed, found := m.store.ReplaceIf(snap.UserID, snap.State, next)
	if !found {
		return nil, ErrNoSession
	}
	if !committed {
		return nil, fmt.Errorf("%w: %s superseded", ErrStaleTransition, ev.Kind())
	}
	m.emit(snap.UserID, snap.State, next.State, ev.Kind())
	return &Ack{Modal: m.renderer.IdentityForm()}, nil
}

func (m *Machine) preListingContinue(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	items, err := m.catalog.SellableItems(ctx, snap.Account.ID)
	if err != nil {
		// Catalog failures downgrade to manual entry, never fail the session.
		slog.Warn("catalog fetch failed, falling back to manual entry",
			"user_id", snap.UserID, "account_id", snap.Account.ID, "error", err)
		items = nil
	}
	if len(items) > maxCandidatesShown {
		items = items[:maxCandidatesShown]
	}

	next := snap.Clone()
	next.CatalogCandidates = items
	next.FallbackManual = len(items) == 0
	next.SelectedItems = nil
	next.State = domain.StateAwaitingSelection
	return nil, m.commitScreen(ctx, snap, next, ScreenSelection, ev.Kind(), true)
}

// itemsSelected stores the chosen candidates; the screen stays put until the
// user explicitly confirms.
func (m *Machine) itemsSelected(_ context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	sel := ev.(ItemsSelected)
	if len(sel.IDs) == 0 {
		return nil, validationf("Você não selecionou nenhuma gamepass. Selecione pelo menos uma e tente novamente.")
	}
	if len(snap.CatalogCandidates) == 0 {
		return nil, validationf("Não há gamepasses carregadas para esta conta. Tente novamente ou informe manualmente.")
	}
	if len(sel.IDs) > maxSelectable {
		return nil, validationf("Selecione no máximo %d gamepasses.", maxSelectable)
	}

	chosen := make([]domain.SelectedItem, 0, len(sel.IDs))
	for _, raw := range sel.IDs {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, validationf("Ocorreu um erro ao processar as gamepasses selecionadas. Tente novamente.")
		}
		item, ok := snap.Candidate(id)
		if !ok {
			return nil, validationf("Ocorreu um erro ao processar as gamepasses selecionadas. Tente novamente.")
		}
		chosen = append(chosen, domain.SelectedItem{ID: item.ID, Name: item.Name, Price: item.Price})
	}

	next := snap.Clone()
	next.SelectedItems = chosen
	next.LastActivityAt = m.now()
	committed, found := m.store.ReplaceIf(snap.UserID, snap.State, next)
	if !found {
		return nil, ErrNoSession
	}
	if !committed {
		return nil, fmt.Errorf("%w: %s superseded", ErrStaleTransition, ev.Kind())
	}
	return nil, nil
}

func (m *Machine) confirmSelection(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	if len(snap.SelectedItems) == 0 {
		return nil, validationf("Você ainda não selecionou nenhuma gamepass ou houve um erro ao recuperar sua seleção. " +
			"Selecione novamente as gamepasses.")
	}
	next := snap.Clone()
	next.State = domain.StateSelectionConfirmed
	return nil, m.commitScreen(ctx, snap, next, ScreenPayment, ev.Kind(), false)
}

func (m *Machine) manualItemSubmitted(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	if !snap.FallbackManual {
		return nil, validationf("A entrada manual não está habilitada para esta compra.")
	}
	raw := strings.TrimSpace(ev.(ManualItemSubmitted).Raw)
	match := itemIDPattern.FindString(raw)
	if match == "" {
		return nil, validationf("Não consegui identificar um ID de gamepass válido. " +
			"Envie apenas o ID ou o link da gamepass.")
	}
	itemID, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return nil, validationf("Não consegui identificar um ID de gamepass válido.")
	}

	info, err := m.catalog.ItemInfo(ctx, itemID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, notFound("Não consegui obter informações dessa gamepass na API. " +
			"Verifique se o ID está correto ou se a gamepass é pública.")
	}
	if err != nil {
		return nil, unavailable("Não foi possível consultar a gamepass agora. Tente novamente.", err)
	}

	next := snap.Clone()
	next.ManualCandidate = info
	next.SelectedItems = []domain.SelectedItem{info.Selected()}

	if info.OwnerID != snap.Account.ID {
		// Never silently accept someone else's gamepass.
		next.State = domain.StateManualItemMismatch
		return nil, m.commitScreen(ctx, snap, next, ScreenMismatch, ev.Kind(), false)
	}
	if err := m.commitScreen(ctx, snap, next, ScreenManualItem, ev.Kind(), false); err != nil {
		return nil, err
	}
	return &Ack{Ephemeral: "Gamepass carregada com sucesso e vinculada à sua conta."}, nil
}

// forceConfirm accepts a mismatched gamepass anyway. Deliberately permissive:
// the session's own user may override, as the attendant flow allows.
func (m *Machine) forceConfirm(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	if snap.ManualCandidate == nil || len(snap.SelectedItems) == 0 {
		return nil, validationf("Não há uma gamepass selecionada para forçar confirmação. " +
			"Informe a gamepass manualmente antes.")
	}
	next := snap.Clone()
	next.State = domain.StateSelectionConfirmed
	return nil, m.commitScreen(ctx, snap, next, ScreenPayment, ev.Kind(), false)
}

// backToIdentity re-renders the identity confirmation from cached session
// fields; nothing is re-fetched on a back-press.
func (m *Machine) backToIdentity(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	if snap.Account == nil {
		return nil, validationf("Não encontrei os dados da sua sessão de compra. Por favor, inicie novamente.")
	}
	next := snap.Clone()
	next.State = domain.StateIdentityConfirmPending
	return nil, m.commitScreen(ctx, snap, next, ScreenIdentityConfirm, ev.Kind(), false)
}

// backToSelection restores the cached selection screen verbatim.
func (m *Machine) backToSelection(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	if len(snap.LastSelectionScreen) == 0 {
		return nil, validationf("Não encontrei os dados da sua seleção de gamepasses. Por favor, inicie novamente.")
	}
	next := snap.Clone()
	next.State = domain.StateAwaitingSelection
	next.PriorScreen = snap.LastSelectionScreen
	next.LastActivityAt = m.now()
	committed, found := m.store.ReplaceIf(snap.UserID, snap.State, next)
	if !found {
		return nil, ErrNoSession
	}
	if !committed {
		return nil, fmt.Errorf("%w: %s superseded", ErrStaleTransition, ev.Kind())
	}
	m.edit(ctx, next.Anchor, next.PriorScreen)
	m.emit(snap.UserID, snap.State, next.State, ev.Kind())
	return nil, nil
}

func (m *Machine) showSummary(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	next := snap.Clone()
	return nil, m.commitScreen(ctx, snap, next, ScreenSummary, ev.Kind(), false)
}

// generatePayment is two-phase: the session first moves to AwaitingPayment so
// a double click cannot create two intents, then the intent result commits
// the link or reverts on failure.
func (m *Machine) generatePayment(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	pend := snap.Clone()
	pend.State = domain.StateAwaitingPayment
	pend.LastActivityAt = m.now()
	committed, found := m.store.ReplaceIf(snap.UserID, snap.State, pend)
	if !found {
		return nil, ErrNoSession
	}
	if !committed {
		return nil, fmt.Errorf("%w: payment generation already in progress", ErrStaleTransition)
	}

	receive := m.totalReceivable(pend)
	intent, err := m.provider.CreateIntent(ctx, IntentRequest{
		Title:         fmt.Sprintf("Compra de %d Robux", receive),
		Description:   fmt.Sprintf("Compra de %d Robux para %s", receive, pend.Account.Name),
		AmountCents:   pricing.ChargeCents(receive),
		UserID:        pend.UserID,
		ReceiveAmount: receive,
	})
	if err != nil {
		revert := pend.Clone()
		revert.State = domain.StateSelectionConfirmed
		if ok, _ := m.store.ReplaceIf(snap.UserID, domain.StateAwaitingPayment, revert); !ok {
			slog.Warn("could not revert failed payment generation", "user_id", snap.UserID)
		}
		return nil, unavailable("Erro ao gerar link de pagamento. Tente novamente.", err)
	}

	next := pend.Clone()
	next.State = domain.StatePaymentLinkIssued
	next.PaymentReference = intent.Reference
	next.PaymentURL = intent.PayURL
	next.PaymentStatus = domain.PaymentPending
	return nil, m.commitScreen(ctx, pend, next, ScreenPaymentLink, ev.Kind(), false)
}

func (m *Machine) checkStatus(_ context.Context, snap *domain.Session, _ Event) (*Ack, error) {
	switch snap.PaymentStatus {
	case domain.PaymentApproved:
		return &Ack{Ephemeral: "✅ Seu pagamento já foi aprovado!"}, nil
	case domain.PaymentRejected:
		return &Ack{Ephemeral: "❌ Seu pagamento foi recusado. Gere um novo link e tente novamente."}, nil
	default:
		return &Ack{Ephemeral: "⏳ Seu pagamento ainda está pendente. Aguarde a confirmação automática."}, nil
	}
}

// providerApproved is driven by reconciliation after the idempotency guard.
func (m *Machine) providerApproved(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	approved := ev.(ProviderApproved)
	if approved.Reference != snap.PaymentReference {
		return nil, fmt.Errorf("%w: approval for reference %s does not match session reference %s",
			ErrStaleTransition, approved.Reference, snap.PaymentReference)
	}
	next := snap.Clone()
	next.State = domain.StatePaymentApproved
	next.PaymentStatus = domain.PaymentApproved
	if err := m.commitScreen(ctx, snap, next, ScreenSuccess, ev.Kind(), false); err != nil {
		return nil, err
	}
	m.sendText(ctx, next.ThreadID, fmt.Sprintf(
		"📢 **Pagamento Aprovado**\n<@%s> seu pagamento de %d Robux foi aprovado!",
		snap.UserID, m.totalReceivable(next)))
	return nil, nil
}

// cancelRequested shows the cancel-confirmation screen in place. The prior
// screen is deliberately left untouched so an abort can restore it.
func (m *Machine) cancelRequested(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	if snap.State == domain.StateCancelling {
		return nil, fmt.Errorf("%w: cancellation already pending", ErrStaleTransition)
	}
	next := snap.Clone()
	next.PriorState = snap.State
	next.State = domain.StateCancelling
	next.LastActivityAt = m.now()
	screen := m.renderer.Render(next, ScreenCancelConfirm)
	committed, found := m.store.ReplaceIf(snap.UserID, snap.State, next)
	if !found {
		return nil, ErrNoSession
	}
	if !committed {
		return nil, fmt.Errorf("%w: %s superseded", ErrStaleTransition, ev.Kind())
	}
	m.edit(ctx, next.Anchor, screen)
	m.emit(snap.UserID, snap.State, next.State, ev.Kind())
	return nil, nil
}

func (m *Machine) cancelAborted(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	if len(snap.PriorScreen) == 0 || snap.PriorState == "" {
		return nil, validationf("Não encontrei o estado anterior da sua compra. Por favor, inicie novamente.")
	}
	next := snap.Clone()
	next.State = snap.PriorState
	next.PriorState = ""
	next.LastActivityAt = m.now()
	committed, found := m.store.ReplaceIf(snap.UserID, snap.State, next)
	if !found {
		return nil, ErrNoSession
	}
	if !committed {
		return nil, fmt.Errorf("%w: %s superseded", ErrStaleTransition, ev.Kind())
	}
	m.edit(ctx, next.Anchor, next.PriorScreen)
	m.emit(snap.UserID, snap.State, next.State, ev.Kind())
	return nil, nil
}

func (m *Machine) cancelConfirmed(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	next := snap.Clone()
	next.State = domain.StateCancelled
	screen := m.renderer.Render(next, ScreenCancelled)
	committed, found := m.store.ReplaceIf(snap.UserID, snap.State, next)
	if !found {
		return nil, ErrNoSession
	}
	if !committed {
		return nil, fmt.Errorf("%w: %s superseded", ErrStaleTransition, ev.Kind())
	}
	m.edit(ctx, next.Anchor, screen)
	m.teardown(snap.UserID, next.ThreadID, cancelTeardownDelay)
	m.emit(snap.UserID, snap.State, domain.StateCancelled, ev.Kind())
	return nil, nil
}

func (m *Machine) complete(ctx context.Context, snap *domain.Session, ev Event) (*Ack, error) {
	next := snap.Clone()
	next.State = domain.StateCompleted
	screen := m.renderer.Render(next, ScreenCompleted)
	committed, found := m.store.ReplaceIf(snap.UserID, snap.State, next)
	if !found {
		return nil, ErrNoSession
	}
	if !committed {
		return nil, fmt.Errorf("%w: %s superseded", ErrStaleTransition, ev.Kind())
	}
	m.edit(ctx, next.Anchor, screen)
	m.teardown(snap.UserID, next.ThreadID, completedTeardownDelay)
	m.emit(snap.UserID, snap.State, domain.StateCompleted, ev.Kind())
	return nil, nil
}

// Expire forces an idle session to the expired terminal state. Called by the
// reaper when the idle window elapses with no activity.
func (m *Machine) Expire(userID string) {
	ctx := context.Background()
	snap, ok := m.store.Get(userID)
	if !ok || snap.State.Terminal() {
		return
	}
	next := snap.Clone()
	next.State = domain.StateExpired
	committed, found := m.store.ReplaceIf(userID, snap.State, next)
	if !found || !committed {
		slog.Debug("expiry skipped, session moved on", "user_id", userID)
		return
	}
	if next.ThreadID != "" {
		m.sendText(ctx, next.ThreadID, "⏰ Esta compra ficou inativa por muito tempo. A thread será encerrada.")
	}
	m.teardown(userID, next.ThreadID, expiredTeardownDelay)
	m.emit(userID, snap.State, domain.StateExpired, EventIdleTimeout)
	slog.Info("purchase session expired", "user_id", userID, "last_state", snap.State)
}

// commitScreen renders kind from next, records it as the navigation cache,
// commits next guarded on snap's state and pushes the edit to the anchor.
func (m *Machine) commitScreen(ctx context.Context, snap, next *domain.Session,
	kind ScreenKind, ev EventKind, rememberSelection bool) error {
	screen := m.renderer.Render(next, kind)
	next.PriorScreen = screen
	if rememberSelection {
		next.LastSelectionScreen = screen
	}
	next.LastActivityAt = m.now()

	committed, found := m.store.ReplaceIf(snap.UserID, snap.State, next)
	if !found {
		return ErrNoSession
	}
	if !committed {
		return fmt.Errorf("%w: %s no longer applicable, session left state %s",
			ErrStaleTransition, ev, snap.State)
	}
	m.edit(ctx, next.Anchor, screen)
	if snap.State != next.State {
		m.emit(snap.UserID, snap.State, next.State, ev)
	}
	return nil
}

// teardown ends a session: timer cancelled, thread scheduled for deletion,
// record removed from the store.
func (m *Machine) teardown(userID, threadID string, after time.Duration) {
	m.reaper.Cancel(userID)
	if threadID != "" {
		m.messenger.ScheduleDelete(threadID, after)
	}
	m.store.Delete(userID)
}

func (m *Machine) totalReceivable(s *domain.Session) int {
	total := 0
	for _, it := range s.SelectedItems {
		total += pricing.ReceivedFromListing(it.Price)
	}
	return total
}

func (m *Machine) edit(ctx context.Context, anchor domain.Anchor, screen domain.Screen) {
	if anchor.Zero() {
		return
	}
	if err := m.messenger.EditScreen(ctx, anchor, screen); err != nil {
		slog.Warn("failed to edit anchored message", "channel_id", anchor.ChannelID,
			"message_id", anchor.MessageID, "error", err)
	}
}

func (m *Machine) sendText(ctx context.Context, channelID, content string) {
	if err := m.messenger.SendText(ctx, channelID, content); err != nil {
		slog.Warn("failed to send notice", "channel_id", channelID, "error", err)
	}
}

func (m *Machine) emit(userID string, from, to domain.State, ev EventKind) {
	if m.sink != nil {
		m.sink.Transition(userID, from, to, ev)
	}
}

func passCreateLink(placeID int64) string {
	return fmt.Sprintf("https://create.roblox.com/dashboard/creations/experiences/%d/passes/create", placeID)
}
