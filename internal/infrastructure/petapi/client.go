// Package petapi talks to the remote PetLand REST API: the identity endpoints
// under /auth and the CRUD collections the dashboard pages consume.
package petapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/petland/petcare-console/internal/core/domain"
	"github.com/petland/petcare-console/internal/pkg/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// Client is the low-level JSON transport shared by Identity and Gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. to inject a test transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call describes one request. endpoint is the low-cardinality route template
// used for metrics and logs.
type call struct {
	method   string
	endpoint string
	path     string
	token    string
	body     any
}

// do sends the request and decodes a 2xx body into out (nil discards it,
// *json.RawMessage keeps it verbatim). Failures are *domain.APIError.
func (c *Client) do(ctx context.Context, in call, out any) error {
	var body io.Reader
	if in.body != nil {
		raw, err := encodeBody(in.body)
		if err != nil {
			return fmt.Errorf("petapi %s %s: encode body: %w", in.method, in.endpoint, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, c.baseURL+in.path, body)
	if err != nil {
		return fmt.Errorf("petapi %s %s: build request: %w", in.method, in.endpoint, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if in.token != "" {
		req.Header.Set("Authorization", "Bearer "+in.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RemoteRequestDuration.WithLabelValues(in.endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RemoteRequestsTotal.WithLabelValues(in.endpoint, in.method, "error").Inc()
		c.log.Warn().Err(err).
			Str("request_id", requestID).
			Str("method", in.method).
			Str("endpoint", in.endpoint).
			Msg("petapi request failed")
		return &domain.APIError{Kind: domain.KindTransport, Message: domain.MsgTransport, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	metrics.RemoteRequestsTotal.WithLabelValues(in.endpoint, in.method, strconv.Itoa(resp.StatusCode)).Inc()

	ev := c.log.Debug()
	if resp.StatusCode >= 400 {
		ev = c.log.Info()
	}
	ev.Str("request_id", requestID).
		Str("method", in.method).
		Str("endpoint", in.endpoint).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("petapi request")

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, raw)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.APIError{Kind: domain.KindTransport, Status: resp.StatusCode, Message: domain.MsgTransport, Err: err}
	}
	if rm, ok := out.(*json.RawMessage); ok {
		if len(bytes.TrimSpace(raw)) == 0 {
			raw = []byte("null")
		}
		*rm = append((*rm)[:0], raw...)
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.APIError{
			Kind:    domain.KindServer,
			Status:  resp.StatusCode,
			Message: domain.MsgServer,
			Err:     fmt.Errorf("decode %s response: %w", in.endpoint, err),
		}
	}
	return nil
}

func encodeBody(v any) ([]byte, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

// newAPIError classifies a non-2xx response and extracts the server's
// message. Server failures always get the generic message.
func newAPIError(status int, body []byte) *domain.APIError {
	kind := domain.KindForStatus(status)
	detail := errorDetail(body)

	msg := detail
	switch kind {
	case domain.KindServer:
		msg = domain.MsgServer
	case domain.KindUnauthenticated:
		if msg == "" {
			msg = domain.MsgUnauthenticated
		}
	case domain.KindForbidden:
		if msg == "" {
			msg = domain.MsgForbidden
		}
	default:
		if msg == "" {
			msg = http.StatusText(status)
		}
	}

	var cause error
	if detail != "" {
		cause = errors.New(detail)
	}
	return &domain.APIError{Kind: kind, Status: status, Message: msg, Err: cause}
}

// errorDetail reads the message of a FastAPI style error body: "detail" as a
// string or a list of validation items, then "error", then "message".
func errorDetail(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil && s != "" {
			return s
		}
		var items []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg == "" {
					continue
				}
				if field := lastLoc(it.Loc); field != "" {
					msgs = append(msgs, field+": "+it.Msg)
				} else {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok && s != "body" {
		return s
	}
	return ""
}
