package session

import (
	"context"
	"time"
)

const (
	RoleWorker = "worker"
	RoleAdmin  = "admin"
)

// Identity is the verified {subject, role} pair supplied by the external
// identity provider. Subject is the worker id for worker-role callers.
type Identity struct {
	Subject string `json:"subject"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

type Session struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`

	VerifyTime time.Time       `json:"-"`
	Context    context.Context `json:"-"` // trace context
}

func (s *Session) Clone() Session {
	return Session{Token: s.Token, Identity: s.Identity, VerifyTime: s.VerifyTime}
}

func (s *Session) IsAdmin() bool {
	return s.Identity.Role == RoleAdmin
}

// Owns reports whether the session belongs to the worker owning workerId.
func (s *Session) Owns(workerId string) bool {
	return s.Identity.Role == RoleWorker && s.Identity.Subject == workerId
}
