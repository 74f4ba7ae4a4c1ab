package domain

import "time"

// AuthEventType names something security-relevant that happened to a principal.
type AuthEventType string

const (
	EventLoginSucceeded AuthEventType = "login_succeeded"
	EventLoginFailed    AuthEventType = "login_failed"
	EventTokensRotated  AuthEventType = "tokens_rotated"
	EventBlocked        AuthEventType = "blocked"
	EventUnblocked      AuthEventType = "unblocked"
	EventRegistered     AuthEventType = "registered"
)

// AuthEvent is one entry of the authentication audit trail.
type AuthEvent struct {
	Type        AuthEventType `json:"type"`
	PrincipalID string        `json:"principal_id,omitempty"`
	Email       string        `json:"email,omitempty"`
	Actor       string        `json:"actor,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	OccurredAt  time.Time     `json:"occurred_at"`
}
