package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const ctxKeyMember ctxKey = "member"

func WithMember(ctx context.Context, memberID string) context.Context {
	return context.WithValue(ctx, ctxKeyMember, memberID)
}

// MemberFromContext returns the authenticated member id, or "".
func MemberFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyMember).(string); ok {
		return v
	}
	return ""
}

// Middleware attaches the member identity from the session cookie or a
// bearer token. Requests without a valid identity pass through
// anonymously; handlers decide whether identity is required.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if c, err := r.Cookie(s.cookieName); err == nil {
			token = c.Value
		} else if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
		if token != "" {
			if memberID, err := s.Parse(token); err == nil {
				r = r.WithContext(WithMember(r.Context(), memberID))
			}
		}
		next.ServeHTTP(w, r)
	})
}
