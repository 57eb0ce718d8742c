// Package mercadopago implements the payment provider boundary against the
// Mercado Pago Checkout Pro REST API.
package mercadopago

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
	"github.com/proliferam/teste-mercado-pago/internal/purchase"
)

const defaultAPIBase = "https://api.mercadopago.com"

// Config configures the client. BackBase is the bot's public base URL; the
// provider redirects buyers back to it and posts webhook notifications there.
// APIBase is overridable for tests.
type Config struct {
	AccessToken string
	BackBase    string
	APIBase     string
}

// Client creates checkout preferences and looks up payments.
type Client struct {
	http *resty.Client
	cfg  Config
}

func New(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	return &Client{
		http: resty.New().SetTimeout(15 * time.Second),
		cfg:  cfg,
	}
}

type preferenceItem struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	CurrencyID  string  `json:"currency_id"`
	UnitPrice   float64 `json:"unit_price"`
}

type preferenceRequest struct {
	Items    []preferenceItem `json:"items"`
	BackURLs struct {
		Success string `json:"success"`
		Failure string `json:"failure"`
		Pending string `json:"pending"`
	} `json:"back_urls"`
	AutoReturn      string         `json:"auto_return"`
	NotificationURL string         `json:"notification_url"`
	Metadata        map[string]any `json:"metadata"`
}

type preferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// CreateIntent creates a checkout preference and returns its id as the
// correlation reference plus the hosted checkout URL.
func (c *Client) CreateIntent(ctx context.Context, req purchase.IntentRequest) (*domain.PaymentIntent, error) {
	body := preferenceRequest{
		Items: []preferenceItem{{
			Title:       req.Title,
			Description: req.Description,
			Quantity:    1,
			CurrencyID:  "BRL",
			UnitPrice:   float64(req.AmountCents) / 100,
		}},
		AutoReturn:      "approved",
		NotificationURL: c.cfg.BackBase + "/webhook",
		Metadata: map[string]any{
			"user_id":        req.UserID,
			"receive_amount": req.ReceiveAmount,
		},
	}
	body.BackURLs.Success = c.cfg.BackBase + "/success"
	body.BackURLs.Failure = c.cfg.BackBase + "/failure"
	body.BackURLs.Pending = c.cfg.BackBase + "/pending"

	var out preferenceResponse
	resp, err := c.http.R().SetContext(ctx).
		SetAuthToken(c.cfg.AccessToken).
		SetHeader("X-Idempotency-Key", uuid.NewString()).
		SetBody(body).
		SetResult(&out).
		Post(c.cfg.APIBase + "/checkout/preferences")
	if err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create preference: status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.ID == "" || out.InitPoint == "" {
		return nil, fmt.Errorf("create preference: incomplete response")
	}
	return &domain.PaymentIntent{Reference: out.ID, PayURL: out.InitPoint}, nil
}

type paymentResponse struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`
	Metadata struct {
		PreferenceID string `json:"preference_id"`
	} `json:"metadata"`
}

// Payment looks up a payment by id and maps its status onto the flow's
// coarse pending/approved/rejected view.
func (c *Client) Payment(ctx context.Context, paymentID string) (*domain.PaymentEvent, error) {
	var out paymentResponse
	resp, err := c.http.R().SetContext(ctx).
		SetAuthToken(c.cfg.AccessToken).
		SetResult(&out).
		Get(c.cfg.APIBase + "/v1/payments/" + paymentID)
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", paymentID, err)
	}
	if resp.StatusCode() == 404 {
		return nil, domain.ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get payment %s: status %d", paymentID, resp.StatusCode())
	}
	return &domain.PaymentEvent{
		PaymentID: paymentID,
		Reference: out.Metadata.PreferenceID,
		Status:    mapStatus(out.Status),
	}, nil
}

func mapStatus(s string) domain.PaymentStatus {
	switch s {
	case "approved":
		return domain.PaymentApproved
	case "rejected", "cancelled":
		return domain.PaymentRejected
	default:
		return domain.PaymentPending
	}
}
