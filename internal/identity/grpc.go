package identity

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
)

// LoginMethod is the full gRPC method name served by user-service.
const LoginMethod = "/identity.v1.Identity/Login"

// Request and response travel as google.protobuf.Struct:
//
//	request:  {"username": string, "password": string}
//	response: {"token": string, "expires_at": RFC3339 string, may be empty}

// LoginServer is implemented by the service that owns the accounts.
type LoginServer interface {
	Login(ctx context.Context, user, pass string) (Token, error)
}

// GRPCIssuer is the client side of LoginMethod.
type GRPCIssuer struct {
	conn grpc.ClientConnInterface
}

func NewGRPCIssuer(conn grpc.ClientConnInterface) *GRPCIssuer {
	return &GRPCIssuer{conn: conn}
}

// Dial opens a lazy plaintext connection to user-service.
func Dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func (g *GRPCIssuer) Login(ctx context.Context, user, pass string) (Token, error) {
	in, err := structpb.NewStruct(map[string]any{
		"username": user,
		"password": pass,
	})
	if err != nil {
		return Token{}, err
	}
	out := new(structpb.Struct)
	if err := g.conn.Invoke(ctx, LoginMethod, in, out); err != nil {
		return Token{}, apperr.FromGRPC(err)
	}

	tok := Token{Value: out.GetFields()["token"].GetStringValue()}
	if raw := out.GetFields()["expires_at"].GetStringValue(); raw != "" {
		// an unparsable expiry is treated as absent
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			tok.ExpiresAt = t
		}
	}
	return tok, nil
}

// RegisterLoginServer exposes srv on s under LoginMethod.
func RegisterLoginServer(s grpc.ServiceRegistrar, srv LoginServer) {
	s.RegisterService(&identityServiceDesc, srv)
}

var identityServiceDesc = grpc.ServiceDesc{
	ServiceName: "identity.v1.Identity",
	HandlerType: (*LoginServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: loginHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "identity/v1/identity.proto",
}

func loginHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return serveLogin(ctx, srv.(LoginServer), req.(*structpb.Struct))
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LoginMethod}
	return interceptor(ctx, in, info, handler)
}

func serveLogin(ctx context.Context, srv LoginServer, in *structpb.Struct) (*structpb.Struct, error) {
	user := in.GetFields()["username"].GetStringValue()
	pass := in.GetFields()["password"].GetStringValue()
	if user == "" || pass == "" {
		return nil, status.Error(codes.InvalidArgument, "username and password are required")
	}

	tok, err := srv.Login(ctx, user, pass)
	if err != nil {
		return nil, apperr.ToGRPC(err)
	}

	exp := ""
	if !tok.ExpiresAt.IsZero() {
		exp = tok.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return structpb.NewStruct(map[string]any{
		"token":      tok.Value,
		"expires_at": exp,
	})
}
