package postgres

import (
	"context"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore keeps sessions in the sessions table when Redis is not
// configured. Expired rows of an employee are purged on their next login.
type SessionStore struct {
	db *DB
}

func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

const saveSession = `
	WITH purged AS (
		DELETE FROM sessions WHERE employee_id = $2 AND expires_at <= NOW()
	)
	INSERT INTO sessions (id, employee_id, token, expires_at, created_at, user_agent, ip_address)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE
	SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at`

// Save returns domain.ErrNotFound when the employee no longer exists.
func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx, saveSession,
		session.ID, session.EmployeeID, session.Token, session.ExpiresAt,
		session.CreatedAt, session.UserAgent, session.IPAddress)
	if isForeignKeyViolation(err) {
		return domain.ErrNotFound
	}
	return err
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	session := domain.Session{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT employee_id, token, expires_at, created_at, user_agent, ip_address FROM sessions WHERE id = $1`, id,
	).Scan(&session.EmployeeID, &session.Token, &session.ExpiresAt, &session.CreatedAt, &session.UserAgent, &session.IPAddress)
	if err != nil {
		return nil, notFound(err)
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *SessionStore) DeleteByEmployee(ctx context.Context, employeeID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE employee_id = $1`, employeeID)
	return err
}
