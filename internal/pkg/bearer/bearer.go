// Package bearer carries the caller's access token from the incoming request
// to outgoing calls against the HR backend. Tokens are never verified here;
// the backend remains the authority.
package bearer

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type ctxKey struct{}

type credentials struct {
	token   string
	subject string
}

// WithToken returns a context carrying token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKey{}, credentials{token: token, subject: Subject(token)})
}

// FromContext returns the token stored by WithToken or Middleware.
func FromContext(ctx context.Context) (string, bool) {
	c, ok := ctx.Value(ctxKey{}).(credentials)
	if !ok || c.token == "" {
		return "", false
	}
	return c.token, true
}

// SubjectFromContext returns the unverified subject of the stored token.
func SubjectFromContext(ctx context.Context) string {
	c, _ := ctx.Value(ctxKey{}).(credentials)
	return c.subject
}

// Subject reads the "sub" (or "user_id") claim without verifying the
// signature. It is only used to label logs.
func Subject(token string) string {
	if token == "" {
		return ""
	}
	t, err := jwt.ParseInsecure([]byte(token))
	if err != nil {
		return ""
	}
	if sub := t.Subject(); sub != "" {
		return sub
	}
	if v, ok := t.Get("user_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Middleware extracts the bearer token from the Authorization header, or
// from the "jwt" query parameter for EventSource clients that cannot set
// headers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := jwtauth.TokenFromHeader(r)
		if token == "" {
			token = jwtauth.TokenFromQuery(r)
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := WithToken(r.Context(), token)
		if sub := SubjectFromContext(ctx); sub != "" {
			httplog.SetAttrs(ctx, slog.String("user.id", sub))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
