package identity

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
	"github.com/MikeMC777/ordenes-saga/internal/metrics"
)

type staticLogin struct {
	user, pass string
	tok        Token
}

func (s staticLogin) Login(_ context.Context, user, pass string) (Token, error) {
	if user != s.user || pass != s.pass {
		return Token{}, apperr.New(apperr.KindUnauthenticated, "invalid credentials")
	}
	return s.tok, nil
}

func startLoginServer(t *testing.T, srv LoginServer, opts ...grpc.ServerOption) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterLoginServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPCIssuer_RoundTrip(t *testing.T) {
	exp := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
	conn := startLoginServer(t, staticLogin{user: "order-svc", pass: "pw", tok: Token{Value: "jwt", ExpiresAt: exp}})

	tok, err := NewGRPCIssuer(conn).Login(context.Background(), "order-svc", "pw")
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok.Value)
	assert.True(t, exp.Equal(tok.ExpiresAt))
}

func TestGRPCIssuer_NoExpiry(t *testing.T) {
	conn := startLoginServer(t, staticLogin{user: "u", pass: "p", tok: Token{Value: "jwt"}})

	tok, err := NewGRPCIssuer(conn).Login(context.Background(), "u", "p")
	require.NoError(t, err)
	assert.True(t, tok.ExpiresAt.IsZero())
}

func TestGRPCIssuer_BadCredentials(t *testing.T) {
	conn := startLoginServer(t, staticLogin{user: "u", pass: "p", tok: Token{Value: "jwt"}})

	_, err := NewGRPCIssuer(conn).Login(context.Background(), "u", "wrong")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestGRPCIssuer_MissingFields(t *testing.T) {
	conn := startLoginServer(t, staticLogin{user: "u", pass: "p"})

	_, err := NewGRPCIssuer(conn).Login(context.Background(), "", "")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestProvider_OverGRPC(t *testing.T) {
	conn := startLoginServer(t, staticLogin{user: "u", pass: "p", tok: Token{Value: "jwt"}})
	p := NewProvider(NewGRPCIssuer(conn), "u", "p")

	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), p.ExpiresAt(), 5*time.Second)
}

func TestUnaryLogger_CountsCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	conn := startLoginServer(t, staticLogin{user: "u", pass: "p", tok: Token{Value: "jwt"}},
		grpc.UnaryInterceptor(UnaryLogger(zap.NewNop(), m)))
	issuer := NewGRPCIssuer(conn)

	_, err := issuer.Login(context.Background(), "u", "p")
	require.NoError(t, err)
	_, err = issuer.Login(context.Background(), "u", "nope")
	require.Error(t, err)

	n, err := testutil.GatherAndCount(reg, "saga_steps_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
