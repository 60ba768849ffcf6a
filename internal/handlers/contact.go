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
	"github.com/yefosr/cms-backend/internal/email"
	"github.com/yefosr/cms-backend/internal/models"
	"github.com/yefosr/cms-backend/internal/repo"
)

// ContactHandler accepts public contact form submissions and serves the admin
// inbox. The email notification is a non-fatal side effect: a send failure is
// logged and the submission still succeeds.
type ContactHandler struct {
	Repo     *repo.ContactRepo
	Notifier *email.Notifier
	Log      *slog.Logger
}

// SubmitContact stores a contact message and notifies the admin by email.
func (h *ContactHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name    string `json:"name" validate:"required,min=2,max=255"`
		Email   string `json:"email" validate:"required,email"`
		Phone   string `json:"phone" validate:"max=50"`
		Subject string `json:"subject" validate:"max=255"`
		Message string `json:"message" validate:"required,max=10000"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validator.New().Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.Repo.Create(r.Context(), models.ContactMessage{
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Subject: input.Subject,
		Message: input.Message,
	})
	if err != nil {
		h.Log.Error("store contact message failed", "error", err)
		JSONError(w, "failed to submit message", http.StatusInternalServerError)
		return
	}

	if err := h.Notifier.SendContactNotification(r.Context(), *msg); err != nil {
		h.Log.Warn("contact notification failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// ListMessages returns paginated contact messages for the admin inbox.
func (h *ContactHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
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

	msgs, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		h.Log.Error("list contact messages failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []models.ContactMessage{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msgs)
}

// MarkRead flags a message as read.
func (h *ContactHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid message id", http.StatusBadRequest)
		return
	}

	err = h.Repo.MarkRead(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		JSONError(w, "message not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("mark message read failed", "error", err)
		JSONError(w, "failed to update message", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
