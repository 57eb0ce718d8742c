// Package discord implements the messenger boundary over the Discord REST
// API. Screens are opaque component payloads produced by the ui package and
// sent with the components-v2 flag.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
)

const defaultAPIBase = "https://discord.com/api/v10"

// Message flag marking a components-v2 payload.
const flagComponentsV2 = 1 << 15

// Private thread channel type.
const channelTypePrivateThread = 12

type Config struct {
	BotToken string
	APIBase  string
}

type Client struct {
	http *resty.Client
	cfg  Config
}

func New(cfg Config) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	return &Client{
		http: resty.New().SetTimeout(10 * time.Second),
		cfg:  cfg,
	}
}

func (c *Client) req(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).
		SetHeader("Authorization", "Bot "+c.cfg.BotToken)
}

// CreateThread opens a private thread on the channel and invites the buyer
// into it.
func (c *Client) CreateThread(ctx context.Context, channelID, name, inviteUserID string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	resp, err := c.req(ctx).
		SetBody(map[string]any{
			"name":                  name,
			"type":                  channelTypePrivateThread,
			"auto_archive_duration": 60,
			"invitable":             false,
		}).
		SetResult(&out).
		Post(fmt.Sprintf("%s/channels/%s/threads", c.cfg.APIBase, channelID))
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("create thread: status %d: %s", resp.StatusCode(), resp.String())
	}

	resp, err = c.req(ctx).
		Put(fmt.Sprintf("%s/channels/%s/thread-members/%s", c.cfg.APIBase, out.ID, inviteUserID))
	if err != nil || resp.IsError() {
		// Thread exists; the member add failing is recoverable by the user
		// opening the thread from the channel list.
		slog.Warn("thread member add failed", "thread_id", out.ID, "user_id", inviteUserID, "error", err)
	}
	return out.ID, nil
}

// SendText posts a plain text message.
func (c *Client) SendText(ctx context.Context, channelID, content string) error {
	resp, err := c.req(ctx).
		SetBody(map[string]any{"content": content}).
		Post(fmt.Sprintf("%s/channels/%s/messages", c.cfg.APIBase, channelID))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send message: status %d", resp.StatusCode())
	}
	return nil
}

// SendScreen posts a screen payload and returns the message id so later
// screens can edit it in place.
func (c *Client) SendScreen(ctx context.Context, channelID string, screen domain.Screen) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	resp, err := c.req(ctx).
		SetBody(screenBody(screen)).
		SetResult(&out).
		Post(fmt.Sprintf("%s/channels/%s/messages", c.cfg.APIBase, channelID))
	if err != nil {
		return "", fmt.Errorf("send screen: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("send screen: status %d: %s", resp.StatusCode(), resp.String())
	}
	return out.ID, nil
}

// EditScreen replaces the anchored message's components with a new screen.
func (c *Client) EditScreen(ctx context.Context, anchor domain.Anchor, screen domain.Screen) error {
	resp, err := c.req(ctx).
		SetBody(screenBody(screen)).
		Patch(fmt.Sprintf("%s/channels/%s/messages/%s", c.cfg.APIBase, anchor.ChannelID, anchor.MessageID))
	if err != nil {
		return fmt.Errorf("edit screen: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("edit screen: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// ScheduleDelete deletes the channel (thread) after the given delay. Fire
// and forget; a failed delete only leaves a stale thread behind.
func (c *Client) ScheduleDelete(channelID string, after time.Duration) {
	time.AfterFunc(after, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		resp, err := c.req(ctx).
			Delete(fmt.Sprintf("%s/channels/%s", c.cfg.APIBase, channelID))
		if err != nil {
			slog.Warn("thread delete failed", "channel_id", channelID, "error", err)
			return
		}
		if resp.IsError() && resp.StatusCode() != 404 {
			slog.Warn("thread delete failed", "channel_id", channelID, "status", resp.StatusCode())
		}
	})
}

func screenBody(screen domain.Screen) map[string]any {
	return map[string]any{
		"flags":      flagComponentsV2,
		"components": []json.RawMessage{json.RawMessage(screen)},
	}
}
