package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/yefosr/cms-backend/internal/models"
	"github.com/yefosr/cms-backend/internal/repo"
	"golang.org/x/crypto/bcrypt"
)

// AdminHandler manages dashboard admin accounts. Creation is wrapped with
// audit logging at the router.
type AdminHandler struct {
	Repo *repo.AdminRepo
	Log  *slog.Logger
}

type adminInput struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin editor"`
}

// ListAdmins returns all admin accounts (password hashes never serialize).
func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.Repo.List(r.Context())
	if err != nil {
		h.Log.Error("list admins failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if admins == nil {
		admins = []models.Admin{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(admins)
}

// CreateAdmin creates a dashboard account with a bcrypt-hashed password.
// Duplicate email maps to 409.
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var input adminInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validator.New().Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	role := input.Role
	if role == "" {
		role = models.RoleEditor
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("hash password failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	admin, err := h.Repo.Create(r.Context(), input.Name, input.Email, string(hash), role)
	if err != nil {
		if e, ok := err.(*pq.Error); ok && e.Code == "23505" {
			JSONError(w, "email already in use", http.StatusConflict)
			return
		}
		h.Log.Error("create admin failed", "error", err)
		JSONError(w, "failed to create admin", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(admin)
}
