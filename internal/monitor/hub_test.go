package monitor

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
	"github.com/proliferam/teste-mercado-pago/internal/purchase"
)

func TestHubKeepsBoundedReplayBuffer(t *testing.T) {
	h := NewHub(true)
	for i := 0; i < recentEventsKept+10; i++ {
		h.Transition("u1", domain.StateAwaitingIdentity, domain.StateIdentityConfirmPending, purchase.EventIdentitySubmitted)
	}
	assert.Len(t, h.Recent(), recentEventsKept)
}

func TestHubStreamsTransitionsToClient(t *testing.T) {
	h := NewHub(true)
	h.Transition("u1", domain.StateAwaitingIdentity, domain.StateIdentityConfirmPending, purchase.EventIdentitySubmitted)

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer ws.Close(websocket.StatusNormalClosure, "")

	// Replayed event arrives first.
	_, data, err := ws.Read(ctx)
	require.NoError(t, err)
	var ev TransitionEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, string(domain.StateIdentityConfirmPending), ev.To)

	// Live event follows. The hub registers the connection after replay, so
	// give the handler a moment to finish registration.
	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.conns) == 1
	}, 2*time.Second, 10*time.Millisecond)

	h.Transition("u2", domain.StateSelectionConfirmed, domain.StatePaymentLinkIssued, purchase.EventGeneratePayment)

	_, data, err = ws.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, "u2", ev.UserID)
	assert.Equal(t, string(purchase.EventGeneratePayment), ev.Event)
}
