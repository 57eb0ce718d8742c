package ui

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
	"github.com/proliferam/teste-mercado-pago/internal/purchase"
)

func baseSession() *domain.Session {
	return &domain.Session{
		UserID:          "u1",
		Username:        "alice",
		TypedIdentifier: "builderman",
		Account:         &domain.Account{ID: 156, Name: "builderman"},
		AvatarURL:       "https://example.com/avatar.png",
		GameName:        "Obby",
		PlaceID:         1234,
		DesiredAmount:   1000,
		ListingAmount:   1429,
		CreatedAt:       time.Now(),
	}
}

func decode(t *testing.T, screen domain.Screen) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(screen, &out))
	return out
}

func customIDs(node any) []string {
	var ids []string
	switch v := node.(type) {
	case map[string]any:
		if id, ok := v["custom_id"].(string); ok {
			ids = append(ids, id)
		}
		for _, child := range v {
			ids = append(ids, customIDs(child)...)
		}
	case []any:
		for _, child := range v {
			ids = append(ids, customIDs(child)...)
		}
	}
	return ids
}

func TestEveryScreenIsAContainer(t *testing.T) {
	s := baseSession()
	s.SelectedItems = []domain.SelectedItem{{ID: 1, Name: "VIP", Price: 1429}}
	s.ManualCandidate = &domain.ManualItem{ID: 9, Name: "Pass", Price: 100, OwnerID: 2, OwnerName: "bob"}
	s.PaymentURL = "https://mp.example/pay"
	s.CatalogCandidates = []domain.CatalogItem{{ID: 1, Name: "VIP", Price: 1429}}

	r := New()
	kinds := []purchase.ScreenKind{
		purchase.ScreenWelcome, purchase.ScreenIdentityConfirm, purchase.ScreenPreListing,
		purchase.ScreenSelection, purchase.ScreenManualItem, purchase.ScreenMismatch,
		purchase.ScreenSummary, purchase.ScreenPayment, purchase.ScreenPaymentLink,
		purchase.ScreenSuccess, purchase.ScreenCancelConfirm, purchase.ScreenCancelled,
		purchase.ScreenCompleted,
	}
	for _, kind := range kinds {
		out := decode(t, r.Render(s, kind))
		assert.EqualValues(t, 17, out["type"], "screen %v", kind)
		assert.NotEmpty(t, out["components"], "screen %v", kind)
	}
}

func TestIdentityConfirmButtons(t *testing.T) {
	out := decode(t, New().Render(baseSession(), purchase.ScreenIdentityConfirm))
	ids := customIDs(out)
	assert.Contains(t, ids, IDConfirmYes)
	assert.Contains(t, ids, IDConfirmNo)
	assert.Contains(t, ids, IDCancel)
}

func TestSelectionOffersMenuWhenCandidatesExist(t *testing.T) {
	s := baseSession()
	s.CatalogCandidates = []domain.CatalogItem{
		{ID: 10, Name: "VIP", Price: 100},
		{ID: 20, Name: "Mega", Price: 1429},
	}
	out := decode(t, New().Render(s, purchase.ScreenSelection))
	ids := customIDs(out)
	assert.Contains(t, ids, IDSelectItems)
	assert.Contains(t, ids, IDConfirmSelection)
	assert.NotContains(t, ids, IDManualOpen)
}

func TestSelectionTruncatesLongLabelsOnRuneBoundary(t *testing.T) {
	s := baseSession()
	s.CatalogCandidates = []domain.CatalogItem{
		{ID: 10, Name: strings.Repeat("ação", 40), Price: 100},
	}
	out := decode(t, New().Render(s, purchase.ScreenSelection))

	var labels []string
	var walk func(node any)
	walk = func(node any) {
		switch v := node.(type) {
		case map[string]any:
			if label, ok := v["label"].(string); ok {
				labels = append(labels, label)
			}
			for _, child := range v {
				walk(child)
			}
		case []any:
			for _, child := range v {
				walk(child)
			}
		}
	}
	walk(out)

	require.NotEmpty(t, labels)
	for _, label := range labels {
		assert.True(t, utf8.ValidString(label), "label %q split a rune", label)
		assert.LessOrEqual(t, len([]rune(label)), 100)
	}
}

func TestSelectionFallsBackToManualEntry(t *testing.T) {
	s := baseSession()
	s.FallbackManual = true
	out := decode(t, New().Render(s, purchase.ScreenSelection))
	ids := customIDs(out)
	assert.Contains(t, ids, IDManualOpen)
	assert.NotContains(t, ids, IDSelectItems)
	assert.NotContains(t, ids, IDConfirmSelection)
}

func TestPaymentScreenShowsCharge(t *testing.T) {
	s := baseSession()
	s.SelectedItems = []domain.SelectedItem{{ID: 1, Name: "Mega", Price: 1429}}
	raw := New().Render(s, purchase.ScreenPayment)
	// floor(1429*0.7)=1000 Robux, charged at R$0.01 each.
	assert.Contains(t, string(raw), "R$ 10.00")
	assert.Contains(t, string(raw), "1000 Robux")
}

func TestMismatchNamesBothOwners(t *testing.T) {
	s := baseSession()
	s.ManualCandidate = &domain.ManualItem{ID: 9, Name: "Pass", Price: 100, OwnerID: 777, OwnerName: "mallory"}
	raw := New().Render(s, purchase.ScreenMismatch)
	assert.Contains(t, string(raw), "mallory")
	assert.Contains(t, string(raw), "builderman")
	ids := customIDs(decode(t, raw))
	assert.Contains(t, ids, IDForceConfirm)
	assert.Contains(t, ids, IDBackToSelection)
}

func TestModals(t *testing.T) {
	r := New()
	identity := decode(t, r.IdentityForm())
	assert.Equal(t, IDIdentityModal, identity["custom_id"])
	ids := customIDs(identity)
	assert.Contains(t, ids, IDFieldUsername)
	assert.Contains(t, ids, IDFieldAmount)

	manual := decode(t, r.ManualItemForm())
	assert.Equal(t, IDManualModal, manual["custom_id"])
	assert.Contains(t, customIDs(manual), IDFieldManualItem)
}
