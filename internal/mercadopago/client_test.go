package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
	"github.com/proliferam/teste-mercado-pago/internal/purchase"
)

func TestCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/preferences", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))

		var body preferenceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Items, 1)
		assert.Equal(t, "BRL", body.Items[0].CurrencyID)
		assert.InDelta(t, 10.0, body.Items[0].UnitPrice, 0.001)
		assert.Equal(t, "https://bot.example/success", body.BackURLs.Success)
		assert.Equal(t, "https://bot.example/webhook", body.NotificationURL)
		assert.Equal(t, "approved", body.AutoReturn)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":         "pref-123",
			"init_point": "https://mp.example/checkout/pref-123",
		})
	}))
	defer srv.Close()

	c := New(Config{AccessToken: "test-token", BackBase: "https://bot.example", APIBase: srv.URL})
	intent, err := c.CreateIntent(context.Background(), purchase.IntentRequest{
		Title:         "1000 Robux",
		Description:   "Compra de Robux",
		AmountCents:   1000,
		UserID:        "user-1",
		ReceiveAmount: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-123", intent.Reference)
	assert.Equal(t, "https://mp.example/checkout/pref-123", intent.PayURL)
}

func TestPaymentStatusMapping(t *testing.T) {
	status := "approved"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/777", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":       777,
			"status":   status,
			"metadata": map[string]any{"preference_id": "pref-123"},
		})
	}))
	defer srv.Close()

	c := New(Config{AccessToken: "t", APIBase: srv.URL})

	ev, err := c.Payment(context.Background(), "777")
	require.NoError(t, err)
	assert.Equal(t, "pref-123", ev.Reference)
	assert.Equal(t, domain.PaymentApproved, ev.Status)

	status = "cancelled"
	ev, err = c.Payment(context.Background(), "777")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRejected, ev.Status)

	status = "in_process"
	ev, err = c.Payment(context.Background(), "777")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, ev.Status)
}

func TestPaymentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{AccessToken: "t", APIBase: srv.URL})
	_, err := c.Payment(context.Background(), "999")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
