package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/avigneron/pumphouse/domain/model"
	"github.com/avigneron/pumphouse/domain/port/inbound"
	"github.com/avigneron/pumphouse/domain/port/outbound"
)

// UserHandler exposes the admin-only user management operations.
type UserHandler struct {
	authService inbound.AuthService
	logger      outbound.Logger
}

type CreateUserRequest struct {
	Username string         `json:"username"`
	Password string         `json:"password"`
	Role     model.UserRole `json:"role"`
}

type ChangePasswordRequest struct {
	Password string `json:"password"`
}

func NewUserHandler(authService inbound.AuthService, logger outbound.Logger) *UserHandler {
	return &UserHandler{
		authService: authService,
		logger:      logger,
	}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers()
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	responses := make([]*model.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, user.ToResponse())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode create user request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password required", http.StatusBadRequest)
		return
	}

	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleUser {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	user, err := h.authService.CreateUser(req.Username, req.Password, req.Role)
	if err != nil {
		if err == model.ErrUserExists {
			http.Error(w, "User already exists", http.StatusConflict)
			return
		}
		h.logger.Error("failed to create user", "username", req.Username, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user.ToResponse())
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	if err := h.authService.DeleteUser(username); err != nil {
		switch err {
		case model.ErrUserNotFound:
			http.Error(w, "User not found", http.StatusNotFound)
		case model.ErrLastAdmin:
			http.Error(w, "Cannot delete the last admin", http.StatusConflict)
		default:
			h.logger.Error("failed to delete user", "username", username, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode change password request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Password == "" {
		http.Error(w, "Password required", http.StatusBadRequest)
		return
	}

	if err := h.authService.ChangePassword(username, req.Password); err != nil {
		if err == model.ErrUserNotFound {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to change password", "username", username, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "password changed"})
}
