// Package client talks to a priotodo server over its HTTP API.
//
// Requests carry the caller's context and the configured timeout. Non-2xx
// responses come back as *APIError holding the server's "error" field, so
// callers can show the same message the server produced.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Makepad-fr/priotodo/internal/model"
)

const userAgent = "priotodo-client/1"

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// *APIError.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// Client is safe for concurrent use.
type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a client for the server at rawURL. A bare host:port gets the
// http scheme.
func New(rawURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: base,
		http: &http.Client{Timeout: timeout},
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("server url is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url scheme %q not supported", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server url %q has no host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}

// BaseURL returns the server root the client was built with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// List fetches every todo in priority order.
func (c *Client) List(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Add creates a todo and returns it as stored.
func (c *Client) Add(ctx context.Context, text string, priority int) (model.Item, error) {
	body := struct {
		Text     string `json:"text"`
		Priority int    `json:"priority"`
	}{text, priority}

	var item model.Item
	if err := c.do(ctx, http.MethodPost, "/api/todos", body, &item); err != nil {
		return model.Item{}, err
	}
	return item, nil
}

// Delete removes the todo with id. An unknown id is an *APIError with
// status 404.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/api/todos/"+strconv.Itoa(id), nil, nil)
}

// MissingPriorities fetches the unused priorities in [1, max].
func (c *Client) MissingPriorities(ctx context.Context) ([]int, error) {
	var missing []int
	if err := c.do(ctx, http.MethodGet, "/api/missing-priorities", nil, &missing); err != nil {
		return nil, err
	}
	return missing, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	endpoint := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error}
}
