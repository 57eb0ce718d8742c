package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// webhookNotification is the provider's notification body. Only payment
// notifications matter; everything else is acknowledged and dropped.
type webhookNotification struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

const reconcileTimeout = 30 * time.Second

// HandleWebhook acknowledges the provider immediately and reconciles the
// payment in the background. The provider retries on non-2xx, so a slow or
// failing lookup must never hold the response.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var notif webhookNotification
	if err := json.NewDecoder(r.Body).Decode(&notif); err != nil {
		Error(w, http.StatusBadRequest, "invalid notification body")
		return
	}

	if notif.Type != "payment" || notif.Data.ID.String() == "" {
		slog.Debug("ignoring non-payment notification", "type", notif.Type)
		JSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	paymentID := notif.Data.ID.String()
	slog.Info("payment notification received", "payment_id", paymentID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()
		h.reconciler.HandleNotification(ctx, paymentID)
	}()

	JSON(w, http.StatusOK, map[string]string{"status": "received"})
}
