// Package remote reads attendance data from the HR backend API.
package remote

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

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/bearer"
)

const maxErrorBody = 4 << 10

type Config struct {
	BaseURL      string
	Timeout      time.Duration
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// Client calls the HR backend. Requests made on behalf of a caller forward
// the caller's bearer token; background requests (refresh jobs) use the
// service credentials when they are configured.
type Client struct {
	baseURL *url.URL
	plain   *http.Client
	service *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid upstream base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid upstream base url %q", cfg.BaseURL)
	}

	plain := &http.Client{Timeout: cfg.Timeout}
	c := &Client{baseURL: base, plain: plain, service: plain}

	if cfg.ClientID != "" && cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, plain)
		service := cc.Client(ctx)
		service.Timeout = cfg.Timeout
		c.service = service
	}

	return c, nil
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: upstream status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: upstream status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return attendance.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return attendance.ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return attendance.ErrNotFound
	case e.StatusCode >= 500:
		return attendance.ErrSourceUnavailable
	default:
		return attendance.ErrUpstreamRejected
	}
}

// do sends one request and decodes the JSON body into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := middleware.GetReqID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(middleware.RequestIDHeader, requestID)

	client := c.service
	if token, ok := bearer.FromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
		client = c.plain
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s %s: %w: %v", method, path, attendance.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	slog.Debug("upstream request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
		}
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if err := decode(raw, out); err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, attendance.ErrSourceUnavailable, err)
	}
	return nil
}

// envelope is the backend's response wrapper. Some endpoints return the
// payload bare, so decode accepts both.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func decode(raw []byte, out interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return errors.New("empty response body")
	}
	if raw[0] == '{' {
		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil && env.Success != nil && len(env.Data) > 0 {
			raw = env.Data
		}
	}
	return json.Unmarshal(raw, out)
}

func errorMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Error != nil && env.Error.Message != "" {
			return env.Error.Message
		}
		if env.Message != "" {
			return env.Message
		}
	}
	return strings.TrimSpace(string(raw))
}

func setIf(q url.Values, key string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		q.Set(key, *v)
	}
}
