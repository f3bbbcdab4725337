package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mindgraph/pkg/auth"
	"mindgraph/pkg/common"
	pkgerrors "mindgraph/pkg/errors"
)

// AuthConfig configures Authenticate
type AuthConfig struct {
	Validator *auth.JWTValidator
	// TrustGateway accepts identities already verified by an API Gateway
	// authorizer. Only enable it behind the gateway.
	TrustGateway bool
	Errors       *pkgerrors.ErrorHandler
	Logger       *zap.Logger
}

// Authenticate resolves the document owner of the request, from the gateway
// authorizer headers or a bearer token, and stores it in the context.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.TrustGateway && r.Header.Get("X-API-Gateway-Authorized") == "true" {
				owner := r.Header.Get("X-User-Email")
				if owner == "" {
					owner = r.Header.Get("X-User-ID")
				}
				if owner != "" {
					next.ServeHTTP(w, r.WithContext(common.WithOwner(r.Context(), owner)))
					return
				}
			}

			if cfg.Validator == nil {
				cfg.Errors.Handle(w, r, pkgerrors.NewUnauthorizedError("authentication is not configured"))
				return
			}

			claims, err := cfg.Validator.ValidateToken(extractToken(r))
			if err != nil {
				logger.Debug("Authentication failed",
					zap.Error(err),
					zap.String("path", r.URL.Path),
					zap.String("ip", getClientIP(r)),
				)
				cfg.Errors.Handle(w, r, pkgerrors.NewUnauthorizedError(unauthorizedMessage(err)))
				return
			}

			next.ServeHTTP(w, r.WithContext(common.WithOwner(r.Context(), claims.Owner())))
		})
	}
}

// RateLimit applies limiter per owner, or per client IP before authentication
func RateLimit(limiter auth.RateLimiter, errs *pkgerrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := common.GetOwner(r.Context())
			if ok {
				key = "owner:" + key
			} else {
				key = "ip:" + getClientIP(r)
			}

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				errs.Handle(w, r, err)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				errs.Handle(w, r, pkgerrors.NewRateLimitError("rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads the bearer token from the header, cookie or query string
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}

	return r.URL.Query().Get("token")
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing authentication token"
	case errors.Is(err, auth.ErrExpiredToken):
		return "token has expired"
	default:
		return "invalid token"
	}
}
