package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yefosr/cms-backend/internal/models"
	"github.com/yefosr/cms-backend/internal/repo"
)

// ProgramHandler handles program CRUD. Mutating routes are wrapped with audit
// logging at the router; the handlers themselves know nothing about auditing.
type ProgramHandler struct {
	Repo *repo.ProgramRepo
	Log  *slog.Logger
}

type programInput struct {
	Title       string `json:"title" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"max=5000"`
	Category    string `json:"category" validate:"max=100"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Published   bool   `json:"published"`
}

// ListPrograms returns paginated programs (query: limit, offset).
func (h *ProgramHandler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = n
		}
	}

	programs, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		h.Log.Error("list programs failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if programs == nil {
		programs = []models.Program{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(programs)
}

// GetProgram returns one program by id.
func (h *ProgramHandler) GetProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid program id", http.StatusBadRequest)
		return
	}

	program, err := h.Repo.GetByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		JSONError(w, "program not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("get program failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(program)
}

// CreateProgram creates a program from the JSON body.
func (h *ProgramHandler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var input programInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validator.New().Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	program, err := h.Repo.Create(r.Context(), models.Program{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		ImageURL:    input.ImageURL,
		Published:   input.Published,
	})
	if err != nil {
		h.Log.Error("create program failed", "error", err)
		JSONError(w, "failed to create program", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(program)
}

// UpdateProgram overwrites a program's fields from the JSON body.
func (h *ProgramHandler) UpdateProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid program id", http.StatusBadRequest)
		return
	}

	var input programInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validator.New().Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	program, err := h.Repo.Update(r.Context(), id, models.Program{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		ImageURL:    input.ImageURL,
		Published:   input.Published,
	})
	if errors.Is(err, sql.ErrNoRows) {
		JSONError(w, "program not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("update program failed", "error", err)
		JSONError(w, "failed to update program", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(program)
}

// DeleteProgram removes a program by id.
func (h *ProgramHandler) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid program id", http.StatusBadRequest)
		return
	}

	err = h.Repo.Delete(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		JSONError(w, "program not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("delete program failed", "error", err)
		JSONError(w, "failed to delete program", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
