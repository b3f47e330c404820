package driven

import (
	"context"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

// SessionStore keeps the server side of a login. A token is only honoured
// while its session exists, so deleting sessions logs employees out.
type SessionStore interface {
	// Save stores a session until its ExpiresAt
	Save(ctx context.Context, session *domain.Session) error

	// Get returns domain.ErrNotFound for unknown sessions. Callers check
	// expiry themselves; some backends keep expired rows until the next Save.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Delete is a no-op for unknown sessions
	Delete(ctx context.Context, id string) error

	DeleteByEmployee(ctx context.Context, employeeID int64) error
}
