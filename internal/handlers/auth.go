package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yefosr/cms-backend/internal/audit"
	"github.com/yefosr/cms-backend/internal/middleware"
	"github.com/yefosr/cms-backend/internal/models"
	"github.com/yefosr/cms-backend/internal/repo"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler issues admin session tokens and records login/logout actions.
type AuthHandler struct {
	Admins      *repo.AdminRepo
	Auditor     *audit.Logger
	Secret      []byte
	ExpireHours int
	Log         *slog.Logger
}

// Login verifies email+password and returns {"token": ..., "admin": {...}}.
// A successful login is audited (action=login, resourceType=user).
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	admin, err := h.Admins.GetByEmail(r.Context(), input.Email)
	if err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(input.Password)); err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	expire := time.Duration(h.ExpireHours) * time.Hour
	claims := jwt.MapClaims{
		"admin_id": admin.ID.String(),
		"email":    admin.Email,
		"exp":      time.Now().Add(expire).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.Secret)
	if err != nil {
		h.Log.Error("sign token failed", "error", err)
		JSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	adminID := admin.ID
	h.Auditor.Record(r.Context(), r, audit.Entry{
		AdminID:      &adminID,
		Action:       models.ActionLogin,
		ResourceType: models.ResourceUser,
		ResourceID:   admin.ID.String(),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"token": signed,
		"admin": admin,
	})
}

// Me returns the authenticated admin's own account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	admin, err := h.Admins.GetByID(r.Context(), adminID)
	if err != nil {
		h.Log.Error("load admin failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(admin)
}

// Logout records a logout action for the authenticated admin. Sessions are
// stateless JWTs, so the record is the only server-side effect.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	h.Auditor.Record(r.Context(), r, audit.Entry{
		AdminID:      &adminID,
		Action:       models.ActionLogout,
		ResourceType: models.ResourceUser,
		ResourceID:   adminID.String(),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
