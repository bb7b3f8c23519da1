package rostertool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client calls a running teammatch service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Shortlist asks the service to rank teamID now. A limit of 0 uses the
// service default.
func (c *Client) Shortlist(ctx context.Context, teamID string, limit int) (ShortlistResponse, error) {
	target := c.shortlistURL(teamID)
	if limit > 0 {
		target += "?limit=" + strconv.Itoa(limit)
	}
	var out ShortlistResponse
	err := c.do(ctx, http.MethodPost, target, nil, http.StatusOK, &out)
	return out, err
}

// Latest fetches the last shortlist computed from a queued request.
func (c *Client) Latest(ctx context.Context, teamID string) (ShortlistResponse, error) {
	var out ShortlistResponse
	err := c.do(ctx, http.MethodGet, c.shortlistURL(teamID), nil, http.StatusOK, &out)
	return out, err
}

// Submit queues a match request.
func (c *Client) Submit(ctx context.Context, requestID, teamID string, limit int) (AckResponse, error) {
	body := map[string]any{"team_id": teamID}
	if requestID != "" {
		body["request_id"] = requestID
	}
	if limit > 0 {
		body["limit"] = limit
	}
	var out AckResponse
	err := c.do(ctx, http.MethodPost, c.baseURL+"/match-requests", body, 0, &out)
	return out, err
}

// WaitFor polls Latest until the shortlist for requestID appears or ctx ends.
func (c *Client) WaitFor(ctx context.Context, teamID, requestID string) (ShortlistResponse, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		sl, err := c.Latest(ctx, teamID)
		if err == nil && sl.RequestID == requestID {
			return sl, nil
		}
		select {
		case <-ctx.Done():
			return ShortlistResponse{}, fmt.Errorf("%w: request %s: %w", ErrTimeout, requestID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) shortlistURL(teamID string) string {
	return c.baseURL + "/teams/" + url.PathEscape(teamID) + "/shortlist"
}

// do sends the request and decodes the JSON response into out. want of 0
// accepts any 2xx status.
func (c *Client) do(ctx context.Context, method, target string, body any, want int, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrRemote, method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	ok := resp.StatusCode == want || (want == 0 && resp.StatusCode >= 200 && resp.StatusCode < 300)
	if !ok {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Code != "" {
			return fmt.Errorf("%w: %s %s: %d %s: %s", ErrRemote, method, target, resp.StatusCode, e.Code, e.Message)
		}
		return fmt.Errorf("%w: %s %s: status %d", ErrRemote, method, target, resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
