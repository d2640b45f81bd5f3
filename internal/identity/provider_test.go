package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
	"github.com/MikeMC777/ordenes-saga/internal/metrics"
)

// fakeIssuer hands out tok-1, tok-2, ... and counts logins.
type fakeIssuer struct {
	calls  atomic.Int32
	ttl    time.Duration
	now    func() time.Time
	empty  bool
	err    error
	delay  time.Duration
	noExp  bool
	gotUsr string
}

func (f *fakeIssuer) Login(_ context.Context, user, _ string) (Token, error) {
	n := f.calls.Add(1)
	f.gotUsr = user
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return Token{}, f.err
	}
	if f.empty {
		return Token{}, nil
	}
	tok := Token{Value: fmt.Sprintf("tok-%d", n)}
	if !f.noExp {
		tok.ExpiresAt = f.now().Add(f.ttl)
	}
	return tok, nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestToken_CachedUntilMargin(t *testing.T) {
	clk := newClock()
	iss := &fakeIssuer{ttl: 10 * time.Minute, now: clk.Now}
	p := NewProvider(iss, "order-svc", "secret", WithClock(clk.Now))
	ctx := context.Background()

	tok, err := p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, "order-svc", iss.gotUsr)

	clk.Advance(5 * time.Minute)
	tok, err = p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.EqualValues(t, 1, iss.calls.Load())

	// 61s left: still outside the margin
	clk.Advance(5*time.Minute - 61*time.Second)
	tok, _ = p.Token(ctx)
	assert.Equal(t, "tok-1", tok)

	// 59s left: inside the margin
	clk.Advance(2 * time.Second)
	tok, err = p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.EqualValues(t, 2, iss.calls.Load())
}

func TestRefresh_AlwaysLogsIn(t *testing.T) {
	clk := newClock()
	iss := &fakeIssuer{ttl: time.Hour, now: clk.Now}
	p := NewProvider(iss, "u", "p", WithClock(clk.Now))
	ctx := context.Background()

	_, err := p.Token(ctx)
	require.NoError(t, err)
	tok, err := p.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)

	tok, _ = p.Token(ctx)
	assert.Equal(t, "tok-2", tok)
	assert.EqualValues(t, 2, iss.calls.Load())
}

func TestRefreshIfStale(t *testing.T) {
	clk := newClock()
	iss := &fakeIssuer{ttl: time.Hour, now: clk.Now}
	p := NewProvider(iss, "u", "p", WithClock(clk.Now))
	ctx := context.Background()

	first, _ := p.Token(ctx)

	second, err := p.RefreshIfStale(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", second)

	// a late 401 for the old token does not log in again
	again, err := p.RefreshIfStale(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", again)
	assert.EqualValues(t, 2, iss.calls.Load())
}

func TestToken_EmptyTokenIsUnauthenticated(t *testing.T) {
	clk := newClock()
	p := NewProvider(&fakeIssuer{empty: true, now: clk.Now}, "u", "p", WithClock(clk.Now))

	_, err := p.Token(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestToken_IssuerFailureIsUnavailable(t *testing.T) {
	clk := newClock()
	p := NewProvider(&fakeIssuer{err: errors.New("dial tcp: refused"), now: clk.Now}, "u", "p", WithClock(clk.Now))

	_, err := p.Token(context.Background())
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}

func TestToken_IssuerKindPreserved(t *testing.T) {
	clk := newClock()
	iss := &fakeIssuer{err: apperr.New(apperr.KindUnauthenticated, "bad credentials"), now: clk.Now}
	p := NewProvider(iss, "u", "p", WithClock(clk.Now))

	_, err := p.Token(context.Background())
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestToken_MissingExpiryDefaults(t *testing.T) {
	clk := newClock()
	p := NewProvider(&fakeIssuer{noExp: true, now: clk.Now}, "u", "p", WithClock(clk.Now))

	_, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(600*time.Second), p.ExpiresAt())
}

func TestToken_ConcurrentCallersLoginOnce(t *testing.T) {
	clk := newClock()
	iss := &fakeIssuer{ttl: time.Hour, now: clk.Now, delay: 20 * time.Millisecond}
	p := NewProvider(iss, "u", "p", WithClock(clk.Now))

	const n = 32
	var wg sync.WaitGroup
	tokens := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := p.Token(context.Background())
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, iss.calls.Load())
	for _, tok := range tokens {
		assert.Equal(t, "tok-1", tok)
	}
}

func TestToken_RecordsRefreshMetric(t *testing.T) {
	clk := newClock()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p := NewProvider(&fakeIssuer{ttl: time.Hour, now: clk.Now}, "u", "p", WithClock(clk.Now), WithMetrics(m))

	_, err := p.Token(context.Background())
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "service_token_refresh_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
