package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/avigneron/pumphouse/domain/model"
	"github.com/avigneron/pumphouse/domain/port/inbound"
	"github.com/avigneron/pumphouse/domain/port/outbound"
)

type contextKey string

const SessionContextKey contextKey = "session"

// SessionCookieName is the cookie carrying the session token for browser
// clients; API clients may send the same token as a bearer header instead.
const SessionCookieName = "session"

type AuthMiddleware struct {
	authService inbound.AuthService
	logger      outbound.Logger
}

func NewAuthMiddleware(authService inbound.AuthService, logger outbound.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		logger:      logger,
	}
}

// Middleware validates and refreshes the request's session. Whether the
// token was never issued or has idle-expired is deliberately not exposed:
// both produce the same "session invalid" outcome.
func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.extractToken(r)
		if token == "" {
			m.rejectInvalid(w, r)
			return
		}

		session, err := m.authService.Validate(token)
		if err != nil {
			m.rejectInvalid(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route on the session's role; admins pass everywhere.
func (m *AuthMiddleware) RequireRole(role model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := m.GetSessionFromContext(r.Context())
			if session == nil {
				m.rejectInvalid(w, r)
				return
			}

			if session.Role != role && session.Role != model.RoleAdmin {
				m.forbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) GetSessionFromContext(ctx context.Context) *model.Session {
	if session, ok := ctx.Value(SessionContextKey).(*model.Session); ok {
		return session
	}
	return nil
}

func (m *AuthMiddleware) extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// rejectInvalid sends API clients a 401 and browser clients back to the
// login page.
func (m *AuthMiddleware) rejectInvalid(w http.ResponseWriter, r *http.Request) {
	m.logger.Debug("request with invalid session", "path", r.URL.Path)

	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"unauthorized","message":"session invalid"}`))
		return
	}

	http.Redirect(w, r, "/login?expired=1", http.StatusSeeOther)
}

func (m *AuthMiddleware) forbidden(w http.ResponseWriter, message string) {
	m.logger.Warn("forbidden access", "message", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"error":"forbidden","message":"` + message + `"}`))
}
