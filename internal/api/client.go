// Package api is the REST client for the food-ordering backend. Every
// response is decoded from the {status, message, data} envelope and
// normalised into the canonical domain schema here, so nothing above this
// package deals with alternative field names.
package api

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

	storeerrors "github.com/abgdnv/gocommerce-storefront/internal/errors"
	"github.com/abgdnv/gocommerce-storefront/internal/session"
	"github.com/google/uuid"
)

const (
	statusSuccess     = "success"
	idempotencyHeader = "Idempotency-Key"
	maxErrorBody      = 4096
)

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the backend on behalf of the current session.
type Client struct {
	base      *url.URL
	http      HTTPClient
	session   *session.Session
	userAgent string
	logger    *slog.Logger
}

// NewClient constructs a Client. The session supplies the bearer token and is
// invalidated whenever the backend answers 401.
func NewClient(baseURL string, httpClient HTTPClient, sess *session.Session, userAgent string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("api: base URL is required")
	}
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if sess == nil {
		return nil, errors.New("api: session is required")
	}
	return &Client{
		base:      parsed,
		http:      httpClient,
		session:   sess,
		userAgent: userAgent,
		logger:    logger.With("component", "api"),
	}, nil
}

// envelope is the response shape shared by every endpoint.
type envelope struct {
	Status      string          `json:"status"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
	Token       string          `json:"token,omitempty"`
	TokenExpire int64           `json:"tokenExpire,omitempty"`
}

func (c *Client) endpoint(p string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + p
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, p string, query url.Values, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(p, query), reader)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if method == http.MethodPost {
		req.Header.Set(idempotencyHeader, uuid.NewString())
	}
	if token := c.session.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// call performs one request and returns the decoded envelope. Transport
// failures wrap ErrTransport; backend failures are *APIError. A 401 clears
// the session before returning.
func (c *Client) call(ctx context.Context, method, p string, query url.Values, body any) (*envelope, error) {
	req, err := c.newRequest(ctx, method, p, query, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Backend request failed", "method", method, "path", p, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %w", storeerrors.ErrTransport, method, p, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %w", storeerrors.ErrTransport, method, p, err)
	}

	var env envelope
	var decodeErr error
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.WarnContext(ctx, "Backend rejected the session", "method", method, "path", p)
		c.session.Invalidate(ctx, fmt.Sprintf("401 from %s %s", method, p))
		return nil, &storeerrors.APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil {
			msg = ""
		}
		c.logger.DebugContext(ctx, "Backend returned an error status", "method", method, "path", p, "status", resp.StatusCode, "body", truncate(raw))
		return nil, &storeerrors.APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", storeerrors.ErrDecodeResponse, method, p, decodeErr)
	}
	if env.Status != statusSuccess {
		return nil, &storeerrors.APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}

// decodeData unmarshals the envelope's data field into out. An absent data
// field leaves out untouched.
func decodeData(env *envelope, out any) error {
	if len(env.Data) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %w", storeerrors.ErrDecodeResponse, err)
	}
	return nil
}

func escapeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", storeerrors.ErrMissingID
	}
	return url.PathEscape(id), nil
}

func truncate(raw []byte) string {
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}
	return strings.TrimSpace(string(raw))
}
