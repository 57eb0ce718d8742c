// Package roblox provides the identity and catalog collaborator clients over
// the public Roblox APIs.
package roblox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
)

// Fallback headshot shown when the avatar lookup fails, same asset for
// everyone.
const fallbackAvatarURL = "https://tr.rbxcdn.com/586b643537454d63e6245c5cf50a729df805a2f878ed397e9e273b0fcd57ac6b/150/150/AvatarHeadshot/Png"

const (
	defaultUsersBase  = "https://users.roblox.com"
	defaultGamesBase  = "https://games.roblox.com"
	defaultThumbsBase = "https://thumbnails.roblox.com"
	defaultAPIsBase   = "https://apis.roblox.com"
	defaultAuthBase   = "https://auth.roblox.com"
)

// Config configures the client. Base URLs default to the public hosts and
// exist mainly so tests can point at a local server.
type Config struct {
	SecurityCookie string
	UsersBase      string
	GamesBase      string
	ThumbsBase     string
	APIsBase       string
	AuthBase       string
}

// Client implements the purchase machine's IdentityService and
// CatalogService boundaries.
type Client struct {
	http *resty.Client
	cfg  Config
	mu   sync.Mutex
	csrf string // cached; Roblox rotates it rarely
}

// New creates a Roblox API client.
func New(cfg Config) *Client {
	if cfg.UsersBase == "" {
		cfg.UsersBase = defaultUsersBase
	}
	if cfg.GamesBase == "" {
		cfg.GamesBase = defaultGamesBase
	}
	if cfg.ThumbsBase == "" {
		cfg.ThumbsBase = defaultThumbsBase
	}
	if cfg.APIsBase == "" {
		cfg.APIsBase = defaultAPIsBase
	}
	if cfg.AuthBase == "" {
		cfg.AuthBase = defaultAuthBase
	}
	return &Client{
		http: resty.New().SetTimeout(10 * time.Second),
		cfg:  cfg,
	}
}

// Resolve maps a typed username to its canonical account.
func (c *Client) Resolve(ctx context.Context, username string) (*domain.Account, error) {
	var out struct {
		Data []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	resp, err := c.authed(ctx).
		SetBody(map[string]any{"usernames": []string{username}, "excludeBannedUsers": false}).
		SetResult(&out).
		Post(c.cfg.UsersBase + "/v1/usernames/users")
	if err != nil {
		return nil, fmt.Errorf("resolve username: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("resolve username: status %d", resp.StatusCode())
	}
	if len(out.Data) == 0 {
		return nil, domain.ErrNotFound
	}
	return &domain.Account{ID: out.Data[0].ID, Name: out.Data[0].Name}, nil
}

// AvatarURL returns the account's headshot, or the fixed fallback on any
// failure.
func (c *Client) AvatarURL(ctx context.Context, accountID int64) string {
	var out struct {
		Data []struct {
			ImageURL string `json:"imageUrl"`
		} `json:"data"`
	}
	resp, err := c.authed(ctx).
		SetQueryParams(map[string]string{
			"userIds":    fmt.Sprintf("%d", accountID),
			"size":       "150x150",
			"format":     "Png",
			"isCircular": "false",
		}).
		SetResult(&out).
		Get(c.cfg.ThumbsBase + "/v1/users/avatar-headshot")
	if err != nil || resp.IsError() || len(out.Data) == 0 || out.Data[0].ImageURL == "" {
		return fallbackAvatarURL
	}
	return out.Data[0].ImageURL
}

// PublicGames lists the account's public experiences, most recent first.
func (c *Client) PublicGames(ctx context.Context, accountID int64) ([]domain.Game, error) {
	var out struct {
		Data []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	resp, err := c.authed(ctx).
		SetQueryParams(map[string]string{
			"accessFilter": "Public",
			"limit":        "10",
			"sortOrder":    "Desc",
		}).
		SetResult(&out).
		Get(fmt.Sprintf("%s/v2/users/%d/games", c.cfg.GamesBase, accountID))
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list games: status %d", resp.StatusCode())
	}
	games := make([]domain.Game, 0, len(out.Data))
	for _, g := range out.Data {
		games = append(games, domain.Game{PlaceID: g.ID, Name: g.Name})
	}
	return games, nil
}

// SellableItems returns the account's gamepasses currently listed for sale.
func (c *Client) SellableItems(ctx context.Context, accountID int64) ([]domain.CatalogItem, error) {
	var out struct {
		GamePasses []struct {
			GamePassID int64  `json:"gamePassId"`
			Name       string `json:"name"`
			Price      int    `json:"price"`
			IsForSale  bool   `json:"isForSale"`
		} `json:"gamePasses"`
	}
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParam("count", "100").
		SetResult(&out).
		Get(fmt.Sprintf("%s/game-passes/v1/users/%d/game-passes", c.cfg.APIsBase, accountID))
	if err != nil {
		return nil, fmt.Errorf("list gamepasses: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list gamepasses: status %d", resp.StatusCode())
	}
	items := make([]domain.CatalogItem, 0, len(out.GamePasses))
	for _, gp := range out.GamePasses {
		if !gp.IsForSale {
			continue
		}
		items = append(items, domain.CatalogItem{ID: gp.GamePassID, Name: gp.Name, Price: gp.Price})
	}
	return items, nil
}

// ItemInfo fetches one gamepass's public product info, owner included.
func (c *Client) ItemInfo(ctx context.Context, itemID int64) (*domain.ManualItem, error) {
	var out struct {
		Name         string `json:"Name"`
		PriceInRobux int    `json:"PriceInRobux"`
		Creator      struct {
			ID   int64  `json:"Id"`
			Name string `json:"Name"`
		} `json:"Creator"`
	}
	resp, err := c.http.R().SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("%s/game-passes/v1/game-passes/%d/product-info", c.cfg.APIsBase, itemID))
	if err != nil {
		return nil, fmt.Errorf("gamepass product-info: %w", err)
	}
	if resp.StatusCode() == 400 || resp.StatusCode() == 404 {
		return nil, domain.ErrNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gamepass product-info: status %d", resp.StatusCode())
	}
	name := out.Name
	if name == "" {
		name = fmt.Sprintf("Gamepass %d", itemID)
	}
	return &domain.ManualItem{
		ID:        itemID,
		Name:      name,
		Price:     out.PriceInRobux,
		OwnerID:   out.Creator.ID,
		OwnerName: out.Creator.Name,
	}, nil
}

// authed returns a request carrying the security cookie and, when available,
// the CSRF token Roblox requires on authenticated endpoints.
func (c *Client) authed(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if c.cfg.SecurityCookie == "" {
		return req
	}
	req.SetHeader("Cookie", ".ROBLOSECURITY="+c.cfg.SecurityCookie)
	if token := c.csrfToken(ctx); token != "" {
		req.SetHeader("X-CSRF-TOKEN", token)
	}
	return req
}

// csrfToken fetches and caches the CSRF token via the logout endpoint, the
// usual trick for cookie-authenticated Roblox calls.
func (c *Client) csrfToken(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.csrf != "" {
		return c.csrf
	}
	resp, err := c.http.R().SetContext(ctx).
		SetHeader("Cookie", ".ROBLOSECURITY="+c.cfg.SecurityCookie).
		Post(c.cfg.AuthBase + "/v2/logout")
	if err != nil {
		slog.Warn("csrf token fetch failed", "error", err)
		return ""
	}
	token := resp.Header().Get("x-csrf-token")
	if token == "" {
		slog.Warn("csrf token missing, cookie may be invalid or blocked")
		return ""
	}
	c.csrf = token
	return token
}
