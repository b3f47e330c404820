package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driving"
)

var _ driving.AuthService = (*authService)(nil)

// DefaultTokenTTL is how long a login lasts
const DefaultTokenTTL = 24 * time.Hour

// authService issues JWTs backed by a server-side session. The token
// carries the session ID, so deleting the session revokes the token.
type authService struct {
	employees driven.EmployeeStore
	sessions  driven.SessionStore
	tokens    driven.AuthAdapter
	ttl       time.Duration
}

// NewAuthService uses DefaultTokenTTL when ttl is not positive.
func NewAuthService(
	employees driven.EmployeeStore,
	sessions driven.SessionStore,
	tokens driven.AuthAdapter,
	ttl time.Duration,
) driving.AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &authService{employees: employees, sessions: sessions, tokens: tokens, ttl: ttl}
}

func (s *authService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	// Unknown emails and wrong passwords look the same to the caller
	employee, err := s.employees.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		return nil, err
	case !s.tokens.VerifyPassword(req.Password, employee.PasswordHash):
		return nil, domain.ErrInvalidCredentials
	}

	token, session, err := s.openSession(ctx, employee, req)
	if err != nil {
		return nil, err
	}
	return &domain.LoginResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresAt: session.ExpiresAt,
		Employee:  employee.ToSummary(),
	}, nil
}

// openSession signs a token for employee and stores its session
func (s *authService) openSession(ctx context.Context, employee *domain.Employee, req domain.LoginRequest) (string, *domain.Session, error) {
	now := time.Now()
	session := &domain.Session{
		ID:         domain.GenerateID(),
		EmployeeID: employee.ID,
		ExpiresAt:  now.Add(s.ttl),
		CreatedAt:  now,
		UserAgent:  req.UserAgent,
		IPAddress:  req.IPAddress,
	}

	token, err := s.tokens.GenerateToken(&domain.TokenClaims{
		EmployeeID: employee.ID,
		Email:      employee.Email,
		Role:       employee.Role,
		SessionID:  session.ID,
		IssuedAt:   now.Unix(),
		ExpiresAt:  session.ExpiresAt.Unix(),
	})
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	session.Token = token

	if err := s.sessions.Save(ctx, session); err != nil {
		return "", nil, fmt.Errorf("save session: %w", err)
	}
	return token, session, nil
}

// ValidateToken resolves a token to the employee behind it. Tokens of
// logged out sessions and deleted employees are rejected even when the
// signature is still valid.
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	employee, err := s.employees.Get(ctx, claims.EmployeeID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	return &domain.AuthContext{
		EmployeeID: employee.ID,
		Email:      employee.Email,
		Name:       employee.Name,
		Role:       employee.Role,
		SessionID:  session.ID,
	}, nil
}

// parse checks the signature and expiry of token
func (s *authService) parse(token string) (*domain.TokenClaims, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}
	claims, err := s.tokens.ParseToken(token)
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return nil, domain.ErrTokenExpired
	case err != nil:
		return nil, domain.ErrTokenInvalid
	case time.Now().Unix() > claims.ExpiresAt:
		return nil, domain.ErrTokenExpired
	}
	return claims, nil
}

// Logout ends the session behind token. Tokens that no longer parse have
// nothing left to end.
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, claims.SessionID)
}

func (s *authService) LogoutAll(ctx context.Context, employeeID int64) error {
	return s.sessions.DeleteByEmployee(ctx, employeeID)
}
