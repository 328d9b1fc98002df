package gestureload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/enso/internal/domain/geometry"
)

// sessionView is the part of the session body the tool reads.
type sessionView struct {
	SessionID string         `json:"session_id"`
	Reference geometry.Point `json:"reference"`
}

// attemptResult is the part of the attempt body the tool reads.
type attemptResult struct {
	Outcome   string  `json:"outcome"`
	Score     float64 `json:"score"`
	BestScore float64 `json:"best_score"`
	Duplicate bool    `json:"duplicate"`
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}

// HTTPClient talks to the enso API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body, out any, want int) error {
	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode != want {
		return &StatusError{Op: op, Status: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// Health checks that /healthz answers.
func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

// CreateSession opens a session for player.
func (c *HTTPClient) CreateSession(ctx context.Context, player string) (sessionView, error) {
	var v sessionView
	err := c.do(ctx, "create session", http.MethodPost, "/sessions", map[string]string{"player": player}, &v, http.StatusCreated)
	return v, err
}

// Submit posts one gesture.
func (c *HTTPClient) Submit(ctx context.Context, sessionID string, g Gesture) (attemptResult, error) {
	var res attemptResult
	err := c.do(ctx, "submit attempt", http.MethodPost, "/sessions/"+url.PathEscape(sessionID)+"/attempts", g, &res, http.StatusOK)
	return res, err
}

// TopN reads the first n leaderboard entries.
func (c *HTTPClient) TopN(ctx context.Context, n int) ([]Entry, error) {
	var entries []Entry
	err := c.do(ctx, "leaderboard", http.MethodGet, "/leaderboard?limit="+strconv.Itoa(n), nil, &entries, http.StatusOK)
	return entries, err
}

// Rank reads the leaderboard entry of a session.
func (c *HTTPClient) Rank(ctx context.Context, sessionID string) (Entry, error) {
	var e Entry
	err := c.do(ctx, "rank", http.MethodGet, "/rank/"+url.PathEscape(sessionID), nil, &e, http.StatusOK)
	return e, err
}
