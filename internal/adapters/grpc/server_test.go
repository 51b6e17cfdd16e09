package grpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	grpcadapter "github.com/cyberdyne10/huntress/internal/adapters/grpc"
	"github.com/cyberdyne10/huntress/internal/domain"
)

type stubAuthority struct {
	sessions map[string]domain.Session
}

func (s stubAuthority) ValidateSession(_ context.Context, token string) (domain.Session, error) {
	session, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return session, nil
}

func (s stubAuthority) Authorize(_ context.Context, token string, required domain.Role) (domain.AccountContext, error) {
	session, ok := s.sessions[token]
	if !ok {
		return domain.AccountContext{}, domain.ErrUnauthenticated
	}
	if session.Role != required {
		return domain.AccountContext{}, domain.ErrForbidden
	}
	return domain.AccountContext{AccountID: session.AccountID, Role: session.Role}, nil
}

func dialTestServer(t *testing.T, authority grpcadapter.SessionAuthority) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	grpcadapter.Register(server, grpcadapter.NewSessionInternalServer(authority))
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, fields map[string]any) (*structpb.Struct, error) {
	t.Helper()
	req, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp := &structpb.Struct{}
	err = conn.Invoke(ctx, "/huntress.session.v1.SessionInternalService/"+method, req, resp)
	return resp, err
}

func TestSessionInternalService(t *testing.T) {
	t.Parallel()

	adminID := uuid.New()
	conn := dialTestServer(t, stubAuthority{sessions: map[string]domain.Session{
		"admin-token": {
			AccountID: adminID,
			Role:      domain.RoleAdmin,
			ExpiresAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		"viewer-token": {AccountID: uuid.New(), Role: domain.RoleViewer},
	}})

	resp, err := invoke(t, conn, "ValidateSession", map[string]any{"token": "admin-token"})
	if err != nil {
		t.Fatalf("validate session failed: %v", err)
	}
	if got := resp.GetFields()["account_id"].GetStringValue(); got != adminID.String() {
		t.Fatalf("expected account %s, got %s", adminID, got)
	}

	cases := []struct {
		name   string
		method string
		fields map[string]any
		code   codes.Code
	}{
		{name: "unknown token", method: "ValidateSession", fields: map[string]any{"token": "nope"}, code: codes.Unauthenticated},
		{name: "missing token", method: "ValidateSession", fields: map[string]any{}, code: codes.InvalidArgument},
		{name: "admin allowed", method: "Authorize", fields: map[string]any{"token": "admin-token", "required_role": "admin"}, code: codes.OK},
		{name: "viewer forbidden", method: "Authorize", fields: map[string]any{"token": "viewer-token", "required_role": "admin"}, code: codes.PermissionDenied},
		{name: "anonymous", method: "Authorize", fields: map[string]any{"token": "nope", "required_role": "admin"}, code: codes.Unauthenticated},
		{name: "unknown role", method: "Authorize", fields: map[string]any{"token": "admin-token", "required_role": "owner"}, code: codes.InvalidArgument},
	}
	for _, tc := range cases {
		_, err := invoke(t, conn, tc.method, tc.fields)
		if got := status.Code(err); got != tc.code {
			t.Fatalf("%s: expected %s, got %s (%v)", tc.name, tc.code, got, err)
		}
	}
}
