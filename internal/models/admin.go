package models

import (
	"time"

	"github.com/google/uuid"
)

const RoleEditor = "editor"
const RoleAdmin = "admin"

// Admin is a dashboard user. PasswordHash is a bcrypt hash and never serialized.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
