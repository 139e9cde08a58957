// Package middleware provides a net/http guard that authorizes requests
// through an engine before they reach the wrapped handler.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/adminkit/authengine"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the authorization result the Guard stored
// for the current request.
func AuthResultFromContext(ctx context.Context) (*authengine.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authengine.AuthResult)
	return res, ok
}

// Guard rejects requests whose bearer token does not pass
// [authengine.Engine.Authorize] with 401. Every failure mode, including a
// revocation registry outage, produces the same response body.
func Guard(engine *authengine.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := authengine.WithClientIP(r.Context(), remoteIP(r))
			res, err := engine.Authorize(ctx, token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, res)
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

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
