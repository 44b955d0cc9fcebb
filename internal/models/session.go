package models

import "time"

// SessionScope identifies which password opened a session.
type SessionScope string

const (
	SessionScopeSite  SessionScope = "site"
	SessionScopeAdmin SessionScope = "admin"
)

// Valid reports whether s is a known scope.
func (s SessionScope) Valid() bool {
	return s == SessionScopeSite || s == SessionScopeAdmin
}

// Covers reports whether a session of scope s satisfies required. Admin covers site.
func (s SessionScope) Covers(required SessionScope) bool {
	return s == required || s == SessionScopeAdmin
}

// Session is a persisted login.
type Session struct {
	ID        string       `json:"id"`
	Scope     SessionScope `json:"scope"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// SessionEventKind names a session store change.
type SessionEventKind string

const (
	SessionEventCreated SessionEventKind = "created"
	SessionEventRevoked SessionEventKind = "revoked"
)

// SessionEvent is broadcast to every instance sharing a session store.
type SessionEvent struct {
	Kind      SessionEventKind `json:"kind"`
	SessionID string           `json:"session_id"`
}
