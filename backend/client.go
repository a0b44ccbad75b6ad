// Package backend is the HTTP client for the competition scoring backend.
package backend

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

	"showdown/metrics"
	"showdown/model"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const maxErrorBody = 512

// Client talks to the scoring backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

// WithRateLimit caps outbound requests per second. rps <= 0 disables the cap.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type decisionRequest struct {
	State    string `json:"state"`
	Reviewer string `json:"reviewer,omitempty"`
}

type idResponse struct {
	ID model.EntryID `json:"id"`
}

// CreateEntry posts a new scoring entry and returns its id.
func (c *Client) CreateEntry(ctx context.Context, entry Entry) (model.EntryID, error) {
	op := "create " + entry.Path()
	var resp idResponse
	err := c.do(ctx, op, "create_"+entry.Path(), http.MethodPost, "/submissions/"+entry.Path(), entry, &resp, ErrRejected)
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &Error{Op: op, Status: http.StatusOK, Body: "response has no id"}
	}
	return resp.ID, nil
}

// Approve moves an open entry to APPROVED.
func (c *Client) Approve(ctx context.Context, id model.EntryID, reviewer string) error {
	body := decisionRequest{State: "APPROVED", Reviewer: reviewer}
	return c.do(ctx, "approve "+string(id), "approve", http.MethodPatch, "/submissions/"+pathID(id), body, nil, ErrStateConflict)
}

// Deny moves an open entry to DENIED.
func (c *Client) Deny(ctx context.Context, id model.EntryID, reviewer string) error {
	body := decisionRequest{State: "DENIED", Reviewer: reviewer}
	return c.do(ctx, "deny "+string(id), "deny", http.MethodPatch, "/submissions/"+pathID(id), body, nil, ErrStateConflict)
}

// Undo reopens a decided entry.
func (c *Client) Undo(ctx context.Context, id model.EntryID) error {
	return c.do(ctx, "undo "+string(id), "undo", http.MethodPatch, "/submissions/"+pathID(id)+"/undo", struct{}{}, nil, ErrStateConflict)
}

func pathID(id model.EntryID) string {
	return url.PathEscape(string(id))
}

// do sends one request. route labels the call in metrics; badRequest is the
// sentinel a 400 maps to for this operation.
func (c *Client) do(ctx context.Context, op, route, method, path string, body, out any, badRequest error) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveBackend(route, "error", time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		return &Error{Op: op, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	defer resp.Body.Close()
	metrics.ObserveBackend(route, strconv.Itoa(resp.StatusCode), time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%w: read body: %v", ErrUnavailable, err)}
	}

	log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend call")

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest:
		return &Error{Op: op, Status: resp.StatusCode, Body: truncate(respBody), Err: badRequest}
	case resp.StatusCode >= 500:
		return &Error{Op: op, Status: resp.StatusCode, Body: truncate(respBody), Err: ErrUnavailable}
	default:
		return &Error{Op: op, Status: resp.StatusCode, Body: truncate(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Body: truncate(respBody), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, route, path string, out any) error {
	return c.do(ctx, op, route, http.MethodGet, path, nil, out, nil)
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
