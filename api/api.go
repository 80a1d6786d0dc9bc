package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gravitational/trace"
)

// Login exchanges a username/password for a token pair (form-encoded, per the
// backend's token endpoint) and seeds the credential store with it.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var session Session
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/token",
		Form: url.Values{
			"username": []string{username},
			"password": []string{password},
		},
	}, &session)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	c.store.SetCredentials(Credentials{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	})
	return &session, nil
}

// Register creates a new dashboard account. Unauthenticated.
func (c *Client) Register(ctx context.Context, username, email, password string) (*User, error) {
	var user User
	err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Body: map[string]string{
			"username": username,
			"email":    email,
			"password": password,
		},
	}, &user)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &user, nil
}

// Logout drops the stored credentials. Purely local.
func (c *Client) Logout() {
	c.store.Clear()
}

// Ping checks backend reachability. Unauthenticated.
func (c *Client) Ping(ctx context.Context) error {
	return trace.Wrap(c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   "/health",
	}, nil))
}

// ProfitSummary fetches the bot's aggregate performance.
func (c *Client) ProfitSummary(ctx context.Context) (*ProfitSummary, error) {
	var summary ProfitSummary
	err := c.Do(ctx, Request{
		Method:       http.MethodGet,
		Path:         "/bot/profit",
		RequiresAuth: true,
	}, &summary)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &summary, nil
}

// Positions fetches the bot's open positions.
func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	var positions []Position
	err := c.Do(ctx, Request{
		Method:       http.MethodGet,
		Path:         "/bot/positions",
		RequiresAuth: true,
	}, &positions)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return positions, nil
}

// Trades fetches up to limit recent fills, newest first. Zero means the
// backend's default page size.
func (c *Client) Trades(ctx context.Context, limit int) ([]Trade, error) {
	req := Request{
		Method:       http.MethodGet,
		Path:         "/bot/trades",
		RequiresAuth: true,
	}
	if limit > 0 {
		req.Query = url.Values{"limit": []string{strconv.Itoa(limit)}}
	}

	var trades []Trade
	if err := c.Do(ctx, req, &trades); err != nil {
		return nil, trace.Wrap(err)
	}
	return trades, nil
}

// BotStatus fetches the trading loop state.
func (c *Client) BotStatus(ctx context.Context) (*BotStatus, error) {
	var status BotStatus
	err := c.Do(ctx, Request{
		Method:       http.MethodGet,
		Path:         "/bot/status",
		RequiresAuth: true,
	}, &status)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &status, nil
}

// ConfigureAutoTrading replaces the bot's strategy settings and returns the
// applied values.
func (c *Client) ConfigureAutoTrading(ctx context.Context, settings AutoTradingSettings) (*AutoTradingSettings, error) {
	var applied AutoTradingSettings
	err := c.Do(ctx, Request{
		Method:       http.MethodPut,
		Path:         "/bot/settings",
		Body:         settings,
		RequiresAuth: true,
	}, &applied)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &applied, nil
}

// SetAutoTrading starts or stops the trading loop.
func (c *Client) SetAutoTrading(ctx context.Context, enabled bool) error {
	path := "/bot/stop"
	if enabled {
		path = "/bot/start"
	}
	return trace.Wrap(c.Do(ctx, Request{
		Method:       http.MethodPost,
		Path:         path,
		RequiresAuth: true,
	}, nil))
}

// GetRaw fetches an arbitrary authenticated endpoint and returns the raw JSON
// body. Used by dashctl for ad-hoc field extraction.
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	var raw json.RawMessage
	err := c.Do(ctx, Request{
		Method:       http.MethodGet,
		Path:         path,
		RequiresAuth: true,
	}, &raw)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return raw, nil
}
