package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/homebake/api/internal/auth"
	"github.com/homebake/api/internal/enum"
)

// LoginGate checks owner credentials and tracks failed attempts.
// Satisfied by *auth.Gate; narrow interface for testability.
type LoginGate interface {
	Check(email, password, accessCode string) error
	Remaining(email string) int
}

// AuthHandler handles the owner login endpoint.
type AuthHandler struct {
	gate      LoginGate
	jwtSecret string
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(gate LoginGate, jwtSecret string, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{gate: gate, jwtSecret: jwtSecret, log: orStandard(log), now: time.Now}
}

// RegisterRoutes registers auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// --- Request / Response types ---

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	AccessCode string `json:"access_code"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
}

// --- Handlers ---

// Login handles email + password + access code authentication for the owner.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	if err := h.gate.Check(req.Email, req.Password, req.AccessCode); err != nil {
		var blocked *auth.BlockedError
		switch {
		case errors.As(err, &blocked):
			wait := blocked.Until.Sub(h.now())
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"error":         "too many failed attempts, try again later",
				"blocked_until": blocked.Until.UTC(),
			})
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error":              "invalid credentials",
				"attempts_remaining": h.gate.Remaining(req.Email),
			})
		case errors.Is(err, auth.ErrNotConfigured):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "owner login is not configured"})
		default:
			h.log.WithError(err).Error("owner login")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, req.Email, enum.UserRoleOwner, auth.SessionTTL)
	if err != nil {
		h.log.WithError(err).Error("generate session token")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		ExpiresAt:   h.now().Add(auth.SessionTTL).UTC(),
		Email:       req.Email,
		Role:        enum.UserRoleOwner,
	})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("failed to encode JSON response")
	}
}

func orStandard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return logrus.StandardLogger()
	}
	return log
}
