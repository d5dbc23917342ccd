package handler

import (
	"net/http"

	"giftlist-api/internal/middleware"
	"giftlist-api/internal/service"
	"giftlist-api/pkg/apierror"
	"giftlist-api/pkg/response"

	"github.com/sirupsen/logrus"
)

// AuthHandler handles owner registration and sessions.
type AuthHandler struct {
	auth *service.AuthService
	log  logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *service.AuthService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log.WithField("component", "auth-handler")}
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.Created(w, user)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, h.log, apierror.BadRequest("email and password are required"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, result)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.SessionToken(r)
	if token == "" {
		writeError(w, r, h.log, apierror.Unauthorized(""))
		return
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.NoContent(w)
}
