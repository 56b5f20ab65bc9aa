package ports

import (
	"context"

	"github.com/aretw0/ivrflow/pkg/domain"
)

// SessionStore defines the interface for persisting call sessions.
// Save covers both creation and update.
type SessionStore interface {
	// Save persists the session under its ID.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]string, error)
}

// SummarySink receives the record of a finished call.
type SummarySink interface {
	Record(ctx context.Context, summary domain.CallSummary) error
}
