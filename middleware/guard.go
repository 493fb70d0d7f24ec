package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authcore "github.com/nexlify/authcore"
)

type identityContextKey struct{}

// IdentityFromContext returns the verified identity attached by [Guard].
// The identity carries the raw access token, which logout handlers need
// to blacklist the exact credential.
func IdentityFromContext(ctx context.Context) (*authcore.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*authcore.Identity)
	return id, ok
}

// Guard returns middleware that authenticates every request through
// engine.Verify. The client IP and User-Agent are attached to the
// request context first so downstream engine calls (rotation, logout)
// can bind them to refresh records.
//
// Failure mapping: a temporarily locked account answers 423, a backing
// store outage answers 503, everything else answers 401. The response
// body never distinguishes why a credential was rejected.
func Guard(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := authcore.WithClientIP(r.Context(), clientIP(r))
			ctx = authcore.WithUserAgent(ctx, r.UserAgent())

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := engine.Verify(ctx, token)
			if err != nil {
				switch {
				case errors.Is(err, authcore.ErrAccountLocked):
					http.Error(w, "locked", http.StatusLocked)
				case errors.Is(err, authcore.ErrStoreUnavailable):
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				default:
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				}
				return
			}

			ctx = context.WithValue(ctx, identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}

	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}
