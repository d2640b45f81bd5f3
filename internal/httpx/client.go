package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
	"github.com/MikeMC777/ordenes-saga/internal/metrics"
)

// TokenSource supplies the bearer token for outbound calls.
// *identity.Provider implements it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	RefreshIfStale(ctx context.Context, stale string) (string, error)
}

// Client calls one peer service with JSON bodies. Every call is bounded by
// the configured timeout and goes through a circuit breaker.
type Client struct {
	peer    string
	baseURL string
	http    *http.Client
	tokens  TokenSource
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
}

func NewClient(peer, baseURL string, timeout time.Duration, tokens TokenSource, m *metrics.Metrics) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		peer:    peer,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		metrics: m,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        peer,
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

type response struct {
	status int
	body   []byte
}

// serverError makes the breaker count a 5xx as a failure while keeping the
// response for the caller.
type serverError struct{ resp response }

func (e *serverError) Error() string { return fmt.Sprintf("server error: %d", e.resp.status) }

// Do sends in (if not nil) to path and decodes a 2xx body into out (if not nil).
// A 401 makes it refresh the token once and retry. endpoint labels metrics.
func (c *Client) Do(ctx context.Context, endpoint, method, path string, in, out any) error {
	start := time.Now()
	err := c.do(ctx, method, path, in, out)
	c.metrics.Outbound(c.peer, endpoint, metrics.Outcome(err), time.Since(start))
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "encode request")
		}
		body = b
	}

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, body, tok)
	if err == nil && resp.status == http.StatusUnauthorized {
		if tok, err = c.tokens.RefreshIfStale(ctx, tok); err != nil {
			return err
		}
		resp, err = c.send(ctx, method, path, body, tok)
	}
	if err != nil {
		var se *serverError
		if !errors.As(err, &se) {
			return apperr.Unavailable(err, c.peer+" unavailable")
		}
		resp = se.resp
	}

	if resp.status >= 300 {
		return decodeError(resp)
	}
	if out != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return apperr.Wrap(apperr.KindInternal, err, "decode "+c.peer+" response")
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, tok string) (response, error) {
	return executeWithBreaker(c.breaker, func() (response, error) {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
		if err != nil {
			return response{}, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
			req.Header.Set(RequestIDHeader, rid)
		}

		res, err := c.http.Do(req)
		if err != nil {
			return response{}, err
		}
		defer res.Body.Close()
		b, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
		if err != nil {
			return response{}, err
		}
		r := response{status: res.StatusCode, body: b}
		if r.status >= 500 {
			return response{}, &serverError{resp: r}
		}
		return r, nil
	})
}

func decodeError(r response) error {
	var eb ErrorBody
	if err := json.Unmarshal(r.body, &eb); err == nil {
		if kind, ok := apperr.ParseKind(eb.Error); ok {
			return apperr.New(kind, eb.Message)
		}
	}
	msg := strings.TrimSpace(eb.Message)
	if msg == "" {
		msg = http.StatusText(r.status)
	}
	return apperr.New(apperr.FromHTTPStatus(r.status), msg)
}

func executeWithBreaker[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return *new(T), err
	}
	return res.(T), nil
}

type requestIDKey struct{}

// WithRequestID lets outbound calls carry the inbound request id.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}
