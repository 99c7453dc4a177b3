package ports

import (
	"context"

	"github.com/LACSistemas/EscriturasNew/pkg/domain"
)

// SessionStore defines the interface for persisting interview sessions.
// This allows for durable execution, enabling "stop & resume" interviews.
type SessionStore interface {
	// Save persists the session under its ID.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all active sessions.
	List(ctx context.Context) ([]string, error)
}
