package core

import (
	"context"
	"time"
)

// Terminal pipeline outcomes recorded by a DecisionLogger.
const (
	OutcomeAuthorized       = "authorized"
	OutcomeAuthnRejected    = "authn_rejected"
	OutcomeCallerRejected   = "caller_rejected"
	OutcomeAnonymousAllowed = "anonymous"
)

// DecisionEvent describes one terminal authentication/authorization outcome.
// It never contains the raw token.
type DecisionEvent struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Outcome   string    `json:"outcome"`
	Issuer    string    `json:"issuer,omitempty"`
	CallerID  string    `json:"caller_id,omitempty"`
	Cause     string    `json:"cause,omitempty"`
	RemoteIP  string    `json:"remote_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// DecisionLogger records decision events to an external sink.
// Implementations should be non-blocking and best-effort; the request path
// ignores their errors.
type DecisionLogger interface {
	LogDecision(ctx context.Context, ev DecisionEvent) error
}
