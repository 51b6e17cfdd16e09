package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cyberdyne10/huntress/internal/domain"
)

const serviceName = "huntress.session.v1.SessionInternalService"

// SessionInternalService lets sibling services check a portal session token
// without going through the public HTTP surface.
type SessionInternalService interface {
	ValidateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Authorize(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// SessionAuthority is the slice of the application service this adapter needs.
type SessionAuthority interface {
	ValidateSession(ctx context.Context, token string) (domain.Session, error)
	Authorize(ctx context.Context, token string, required domain.Role) (domain.AccountContext, error)
}

type SessionInternalServer struct {
	authority SessionAuthority
}

func NewSessionInternalServer(authority SessionAuthority) *SessionInternalServer {
	return &SessionInternalServer{authority: authority}
}

func Register(server grpc.ServiceRegistrar, svc SessionInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*SessionInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "ValidateSession",
				Handler:    unaryHandler("ValidateSession", svc.ValidateSession),
			},
			{
				MethodName: "Authorize",
				Handler:    unaryHandler("Authorize", svc.Authorize),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "huntress/session/v1/session_internal.proto",
	}, svc)
}

func (s *SessionInternalServer) ValidateSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := stringField(req, "token")
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}

	session, err := s.authority.ValidateSession(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrSessionExpired) {
			return nil, status.Error(codes.Unauthenticated, "invalid session")
		}
		return nil, status.Error(codes.Internal, "validate session failed")
	}

	resp, err := structpb.NewStruct(map[string]any{
		"valid":      true,
		"account_id": session.AccountID.String(),
		"role":       session.Role.String(),
		"expires_at": session.ExpiresAt.Unix(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func (s *SessionInternalServer) Authorize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := stringField(req, "token")
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}
	required, err := domain.ParseRole(stringField(req, "required_role"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "unknown required_role")
	}

	caller, err := s.authority.Authorize(ctx, token, required)
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return nil, status.Error(codes.Unauthenticated, "invalid session")
	case errors.Is(err, domain.ErrForbidden):
		return nil, status.Error(codes.PermissionDenied, "insufficient role")
	case err != nil:
		return nil, status.Error(codes.Internal, "authorize failed")
	}

	resp, err := structpb.NewStruct(map[string]any{
		"allowed":    true,
		"account_id": caller.AccountID.String(),
		"role":       caller.Role.String(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func stringField(req *structpb.Struct, name string) string {
	v := req.GetFields()[name]
	if v == nil {
		return ""
	}
	return v.GetStringValue()
}

func unaryHandler(
	method string,
	call func(context.Context, *structpb.Struct) (*structpb.Struct, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + serviceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
