package jwtauth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor returns a gRPC unary server interceptor that applies
// policy, keyed by full method name
func UnaryServerInterceptor(cfg *Config, policy *Policy) grpc.UnaryServerInterceptor {
	verifier := NewVerifier(cfg)

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		ctx, err := authorizeRPC(ctx, cfg, verifier, policy, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor is the streaming counterpart of UnaryServerInterceptor
func StreamServerInterceptor(cfg *Config, policy *Policy) grpc.StreamServerInterceptor {
	verifier := NewVerifier(cfg)

	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx, err := authorizeRPC(ss.Context(), cfg, verifier, policy, info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: ctx})
	}
}

// authorizeRPC runs the access decision for one call and returns the
// enriched context, or a status error
func authorizeRPC(ctx context.Context, cfg *Config, verifier *Verifier, policy *Policy, method string) (context.Context, error) {
	startTime := time.Now()

	md, _ := metadata.FromIncomingContext(ctx)

	requestID := requestIDFromMetadata(md)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	token, extractErr := extractTokenFromMetadata(md)
	decision := Decide(verifier, policy.RuleFor(method), token, extractErr)
	logDecision(cfg, requestID, method, token, decision, time.Since(startTime))

	switch decision.Outcome {
	case OutcomeUnauthenticated:
		return nil, status.Error(codes.Unauthenticated, getErrorCode(decision.Err))
	case OutcomeForbidden:
		return nil, status.Error(codes.PermissionDenied, "forbidden")
	}

	ctx = WithRequestID(ctx, requestID)
	if decision.Claims != nil {
		ctx = WithClaims(ctx, decision.Claims)
	}
	return ctx, nil
}

// authenticatedStream overrides the stream context with the authorized one
type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}
