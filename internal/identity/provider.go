// Package identity keeps the machine credential a service presents on every
// outbound call to its peers.
package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
	"github.com/MikeMC777/ordenes-saga/internal/metrics"
)

const (
	DefaultRefreshMargin = 60 * time.Second
	DefaultTTL           = 600 * time.Second
)

// Token is what an issuer hands back on login. A zero ExpiresAt means the
// issuer did not say.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type Issuer interface {
	Login(ctx context.Context, user, pass string) (Token, error)
}

// Provider is built once per process and shared by every outbound client.
type Provider struct {
	issuer Issuer
	user   string
	pass   string

	margin     time.Duration
	defaultTTL time.Duration
	now        func() time.Time
	metrics    *metrics.Metrics

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	// serializes logins; mu is never held across the network call
	refreshMu sync.Mutex
}

type Option func(*Provider)

func WithRefreshMargin(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.margin = d
		}
	}
}

func WithDefaultTTL(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.defaultTTL = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Provider) { p.metrics = m }
}

func NewProvider(issuer Issuer, user, pass string, opts ...Option) *Provider {
	p := &Provider{
		issuer:     issuer,
		user:       user,
		pass:       pass,
		margin:     DefaultRefreshMargin,
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token returns the cached credential, logging in first when there is none
// or it expires within the refresh margin.
func (p *Provider) Token(ctx context.Context) (string, error) {
	if tok, ok := p.fresh(); ok {
		return tok, nil
	}

	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	// another caller may have refreshed while we waited
	if tok, ok := p.fresh(); ok {
		return tok, nil
	}
	return p.login(ctx)
}

// Refresh always performs a login and replaces the cached credential.
func (p *Provider) Refresh(ctx context.Context) (string, error) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()
	return p.login(ctx)
}

// RefreshIfStale logs in only if the cache still holds stale. Callers pass the
// token a peer just rejected, so a burst of 401s costs one login.
func (p *Provider) RefreshIfStale(ctx context.Context, stale string) (string, error) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	p.mu.RLock()
	current := p.token
	p.mu.RUnlock()
	if current != "" && current != stale {
		return current, nil
	}
	return p.login(ctx)
}

func (p *Provider) fresh() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.token == "" || !p.now().Add(p.margin).Before(p.expiresAt) {
		return "", false
	}
	return p.token, true
}

// login must be called with refreshMu held.
func (p *Provider) login(ctx context.Context) (string, error) {
	tok, err := p.issuer.Login(ctx, p.user, p.pass)
	if err != nil {
		p.metrics.TokenRefresh("error")
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return "", err
		}
		return "", apperr.Unavailable(err, "identity service unavailable")
	}
	if tok.Value == "" {
		p.metrics.TokenRefresh("error")
		return "", apperr.New(apperr.KindUnauthenticated,
			"identity service returned no token; check SERVICE_USER and SERVICE_PASS")
	}

	exp := tok.ExpiresAt
	if exp.IsZero() {
		exp = p.now().Add(p.defaultTTL)
	}

	p.mu.Lock()
	p.token = tok.Value
	p.expiresAt = exp
	p.mu.Unlock()

	p.metrics.TokenRefresh("success")
	return tok.Value, nil
}

// ExpiresAt reports the expiry of the cached credential.
func (p *Provider) ExpiresAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.expiresAt
}
