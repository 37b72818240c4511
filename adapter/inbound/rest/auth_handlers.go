package rest

import (
	"encoding/json"
	"net/http"

	"github.com/avigneron/pumphouse/domain/model"
	"github.com/avigneron/pumphouse/domain/port/inbound"
	"github.com/avigneron/pumphouse/domain/port/outbound"
)

type AuthHandler struct {
	authService inbound.AuthService
	logger      outbound.Logger
	middleware  *AuthMiddleware
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	SessionID string         `json:"sessionId"`
	Username  string         `json:"username"`
	Role      model.UserRole `json:"role"`
}

func NewAuthHandler(authService inbound.AuthService, logger outbound.Logger, middleware *AuthMiddleware) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
		middleware:  middleware,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode login request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password required", http.StatusBadRequest)
		return
	}

	session, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if err == model.ErrSessionTableFull {
			h.logger.Warn("login rejected, no free session slot", "username", req.Username)
			http.Error(w, "Too many active sessions", http.StatusServiceUnavailable)
			return
		}
		h.logger.Warn("login failed", "username", req.Username)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	h.setSessionCookie(w, session.ID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		SessionID: session.ID,
		Username:  session.Username,
		Role:      session.Role,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.middleware.GetSessionFromContext(r.Context()); session != nil {
		h.authService.Logout(session.ID)
	}

	h.clearSessionCookie(w)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "logged out"})
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	session := h.middleware.GetSessionFromContext(r.Context())
	if session == nil {
		http.Error(w, "Session not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"username": session.Username,
		"role":     session.Role,
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
