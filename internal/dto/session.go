package dto

import (
	"time"

	"github.com/noah-isme/institute-api/internal/models"
)

// LoginRequest carries the shared site or admin password.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// SessionResponse is returned after a successful login.
type SessionResponse struct {
	Token     string              `json:"token"`
	Scope     models.SessionScope `json:"scope"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// SessionState describes the gate state for the presented token.
type SessionState struct {
	Authenticated bool                `json:"authenticated"`
	Scope         models.SessionScope `json:"scope,omitempty"`
	ExpiresAt     *time.Time          `json:"expires_at,omitempty"`
}
