package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/services"
)

type sessionContextKey struct{}

func withSession(ctx context.Context, session *services.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

func sessionFromContext(ctx context.Context) *services.Session {
	if ctx == nil {
		return nil
	}
	session, _ := ctx.Value(sessionContextKey{}).(*services.Session)
	return session
}

// Authenticate resolves a session token from the Authorization header or
// the auth-token cookie if present. It never rejects a request;
// RequireAuth and RequireAdmin do.
func (h *Handlers) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := h.authService.VerifyToken(token)
		if err != nil {
			h.loggerFromContext(r.Context()).Warn("rejected invalid session token")
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
	})
}

func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionFromContext(r.Context()) == nil {
			h.respondError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		if session == nil {
			h.respondError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		if !session.IsAdmin() {
			h.respondError(w, r, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if cookie, err := r.Cookie("auth-token"); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
