package rest

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/avigneron/pumphouse/domain/model"
	"github.com/avigneron/pumphouse/domain/port/inbound"
	"github.com/avigneron/pumphouse/domain/port/outbound"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Handler wires the HTTP surface: the JSON API under /api and the small
// embedded web UI.
type Handler struct {
	authService inbound.AuthService
	pumpService inbound.PumpService
	logger      outbound.Logger

	middleware  *AuthMiddleware
	authHandler *AuthHandler
	pumpHandler *PumpHandler
	userHandler *UserHandler
	templates   *template.Template
}

func NewHandler(
	authService inbound.AuthService,
	pumpService inbound.PumpService,
	logger outbound.Logger,
) *Handler {
	middleware := NewAuthMiddleware(authService, logger)

	return &Handler{
		authService: authService,
		pumpService: pumpService,
		logger:      logger,
		middleware:  middleware,
		authHandler: NewAuthHandler(authService, logger, middleware),
		pumpHandler: NewPumpHandler(pumpService, logger),
		userHandler: NewUserHandler(authService, logger),
		templates:   template.Must(template.ParseFS(templatesFS, "templates/*.html")),
	}
}

// Middleware exposes the session middleware so other inbound adapters can
// share it.
func (h *Handler) Middleware() *AuthMiddleware {
	return h.middleware
}

// SetupRoutes configures the REST API and web page routes
func (h *Handler) SetupRoutes(router *mux.Router) {
	// public API
	router.HandleFunc("/api/auth/login", h.authHandler.Login).Methods("POST")
	router.HandleFunc("/api/status", h.pumpHandler.Status).Methods("GET")
	router.HandleFunc("/api/health", h.health).Methods("GET")

	// session-gated API
	api := router.PathPrefix("/api").Subrouter()
	api.Use(h.middleware.Middleware)
	api.HandleFunc("/auth/logout", h.authHandler.Logout).Methods("POST")
	api.HandleFunc("/auth/profile", h.authHandler.GetProfile).Methods("GET")
	api.HandleFunc("/pump/start", h.pumpHandler.Start).Methods("POST")
	api.HandleFunc("/pump/stop", h.pumpHandler.Stop).Methods("POST")

	// admin-only user management
	users := api.PathPrefix("/users").Subrouter()
	users.Use(h.middleware.RequireRole(model.RoleAdmin))
	users.HandleFunc("", h.userHandler.ListUsers).Methods("GET")
	users.HandleFunc("", h.userHandler.CreateUser).Methods("POST")
	users.HandleFunc("/{username}", h.userHandler.DeleteUser).Methods("DELETE")
	users.HandleFunc("/{username}/password", h.userHandler.ChangePassword).Methods("PUT")

	// web pages
	router.HandleFunc("/", h.home).Methods("GET")
	router.HandleFunc("/login", h.loginPage).Methods("GET")
	router.HandleFunc("/login", h.loginSubmit).Methods("POST")
	router.HandleFunc("/logout", h.logoutPage).Methods("GET")
	router.Handle("/pump",
		h.middleware.Middleware(http.HandlerFunc(h.pumpPage))).Methods("GET")
	router.Handle("/users",
		h.middleware.Middleware(
			h.middleware.RequireRole(model.RoleAdmin)(http.HandlerFunc(h.usersPage)))).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(h.notFound)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/pump", http.StatusSeeOther)
}

type loginPageData struct {
	Error   string
	Expired bool
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", loginPageData{
		Expired: r.URL.Query().Get("expired") == "1",
	})
}

// loginSubmit handles the browser form; the JSON API equivalent lives in
// AuthHandler.Login.
func (h *Handler) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	session, err := h.authService.Login(username, password)
	if err != nil {
		message := "Invalid username or password."
		if err == model.ErrSessionTableFull {
			message = "Too many active sessions. Try again later."
		}
		w.WriteHeader(http.StatusUnauthorized)
		h.render(w, "login.html", loginPageData{Error: message})
		return
	}

	h.authHandler.setSessionCookie(w, session.ID)
	http.Redirect(w, r, "/pump", http.StatusSeeOther)
}

func (h *Handler) logoutPage(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		h.authService.Logout(cookie.Value)
	}
	h.authHandler.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type pumpPageData struct {
	Username string
	IsAdmin  bool
	Status   model.PumpStatus
	Minutes  bool
}

func (h *Handler) pumpPage(w http.ResponseWriter, r *http.Request) {
	session := h.middleware.GetSessionFromContext(r.Context())
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	h.render(w, "pump.html", pumpPageData{
		Username: session.Username,
		IsAdmin:  session.Role == model.RoleAdmin,
		Status:   h.pumpService.Status(),
	})
}

type usersPageData struct {
	Users []*model.UserResponse
}

func (h *Handler) usersPage(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers()
	if err != nil {
		h.logger.Error("failed to list users for page", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := usersPageData{Users: make([]*model.UserResponse, 0, len(users))}
	for _, user := range users {
		data.Users = append(data.Users, user.ToResponse())
	}

	h.render(w, "users.html", data)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	h.render(w, "notfound.html", nil)
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template render failed", "template", name, "error", err)
	}
}
