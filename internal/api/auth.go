package api

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/ikoiii/booking-futsal/internal/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	apiKeyHeaderDefault  = "x-api-key"
	permReadAvailability = "read:availability"
	permReadLapangans    = "read:lapangans"
	clientKeyUnknown     = "unknown"
	requestIDMetadataKey = "x-request-id"
)

// AuthInterceptor checks partner API keys and applies per-key rate limits.
type AuthInterceptor struct {
	cfg config.APIConfig

	clients []config.APIClientKey
	limiter *rateLimiter
}

func NewAuthInterceptor(cfg config.APIConfig) *AuthInterceptor {
	clients := make([]config.APIClientKey, 0, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		if strings.TrimSpace(k.Key) == "" {
			continue
		}
		clients = append(clients, k)
	}

	return &AuthInterceptor{
		cfg:     cfg,
		clients: clients,
		limiter: newRateLimiter(cfg.RateLimit),
	}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if a.cfg.Auth.Enabled {
			if err := a.checkAuth(ctx, info.FullMethod); err != nil {
				return nil, err
			}
		}
		if !a.limiter.Allow(a.clientKey(ctx)) {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}

func (a *AuthInterceptor) apiKeyHeader() string {
	h := strings.ToLower(strings.TrimSpace(a.cfg.Auth.HeaderAPIKey))
	if h == "" {
		return apiKeyHeaderDefault
	}
	return h
}

func (a *AuthInterceptor) checkAuth(ctx context.Context, fullMethod string) error {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}

	apiKey := first(md.Get(a.apiKeyHeader()))
	if apiKey == "" {
		return status.Error(codes.Unauthenticated, "missing api key")
	}

	client, ok := a.lookupClient(apiKey)
	if !ok {
		return status.Error(codes.Unauthenticated, "invalid api key")
	}
	return checkPermissions(client, fullMethod)
}

// lookupClient compares apiKey with every configured key in constant time.
func (a *AuthInterceptor) lookupClient(apiKey string) (config.APIClientKey, bool) {
	var (
		found config.APIClientKey
		ok    bool
	)
	for _, c := range a.clients {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(c.Key)) == 1 && !ok {
			found, ok = c, true
		}
	}
	return found, ok
}

// checkPermissions allows everything when the key lists no permissions.
func checkPermissions(client config.APIClientKey, fullMethod string) error {
	required := requiredPermission(fullMethod)
	if required == "" || len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return status.Error(codes.PermissionDenied, "permission denied")
}

func requiredPermission(fullMethod string) string {
	switch fullMethod {
	case "/" + availabilityServiceName + "/CheckAvailability",
		"/" + availabilityServiceName + "/ListAvailable":
		return permReadAvailability
	case "/" + availabilityServiceName + "/ListLapangans":
		return permReadLapangans
	default:
		return ""
	}
}

func (a *AuthInterceptor) clientKey(ctx context.Context) string {
	md, _ := metadata.FromIncomingContext(ctx)
	if apiKey := first(md.Get(a.apiKeyHeader())); apiKey != "" {
		return apiKey
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return clientKeyUnknown
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

func LoggingUnaryInterceptor(logger *zerolog.Logger) grpc.UnaryServerInterceptor {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "grpc").Logger()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := requestIDFromMetadata(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, requestID))

		start := time.Now()
		resp, err := handler(ctx, req)
		dur := time.Since(start)

		code := status.Code(err)

		remote := clientKeyUnknown
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			remote = p.Addr.String()
		}

		ev := base.Info()
		if code == codes.Internal {
			ev = base.Error().Err(err)
		}
		ev.Str("request_id", requestID).
			Str("method", info.FullMethod).
			Str("remote", remote).
			Str("code", code.String()).
			Dur("duration", dur).
			Msg("grpc request")

		return resp, err
	}
}

func requestIDFromMetadata(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if id := first(md.Get(requestIDMetadataKey)); id != "" {
			return id
		}
	}
	return uuid.NewString()
}
