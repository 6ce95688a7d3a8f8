// Package resolver is the HTTP client for the remote service that plans CPU
// movement and decides combat.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/talgya/battle-hexes/internal/world"
)

// ErrUnexpectedStatus is wrapped by every non-200 response error.
var ErrUnexpectedStatus = errors.New("unexpected resolver status")

// Client calls the resolver's per-game endpoints.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithRateLimit paces outgoing calls to perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// NewClient creates a client for the resolver at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Movement asks for the current player's movement plans.
func (c *Client) Movement(ctx context.Context, gameID string, board world.SparseBoard) (*world.MovementResponse, error) {
	var out world.MovementResponse
	if err := c.post(ctx, gameID, "movement", board, &out); err != nil {
		return nil, err
	}
	slog.Debug("movement plans received", "game", gameID, "plans", len(out.Plans))
	return &out, nil
}

// Combat asks the resolver to fight every battle on the board. Units missing
// from the returned board were eliminated.
func (c *Client) Combat(ctx context.Context, gameID string, board world.SparseBoard) (*world.SparseBoard, error) {
	var out world.SparseBoard
	if err := c.post(ctx, gameID, "combat", board, &out); err != nil {
		return nil, err
	}
	slog.Debug("combat resolved", "game", gameID, "results", len(out.LastCombatResults))
	return &out, nil
}

// EndTurn reports the end of the current player's turn.
func (c *Client) EndTurn(ctx context.Context, gameID string, board world.SparseBoard) error {
	return c.post(ctx, gameID, "end-turn", board, nil)
}

func (c *Client) post(ctx context.Context, gameID, action string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: wait for rate limit: %w", action, err)
	}

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", action, err)
	}

	endpoint := fmt.Sprintf("%s/games/%s/%s", c.BaseURL, url.PathEscape(gameID), action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", action, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", action, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %w %d: %s", action, ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", action, err)
	}
	return nil
}
