package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.SessionStore = (*SessionStore)(nil)

const (
	sessionKeyPrefix  = "chatbot:session:"
	employeeKeyPrefix = "chatbot:sessions:employee:"

	// employeeSetTTL is refreshed on every login
	employeeSetTTL = 30 * 24 * time.Hour
)

// SessionStore keeps each session in a hash that expires with the session,
// plus a per-employee set of session IDs for logging out everywhere.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// sessionHash is the stored form of a session. Times are unix milliseconds.
type sessionHash struct {
	EmployeeID int64  `redis:"employee_id"`
	Token      string `redis:"token"`
	ExpiresAt  int64  `redis:"expires_at"`
	CreatedAt  int64  `redis:"created_at"`
	UserAgent  string `redis:"user_agent"`
	IPAddress  string `redis:"ip_address"`
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func employeeKey(employeeID int64) string {
	return employeeKeyPrefix + strconv.FormatInt(employeeID, 10)
}

// Save drops sessions that have already expired.
func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	h := sessionHash{
		EmployeeID: session.EmployeeID,
		Token:      session.Token,
		ExpiresAt:  session.ExpiresAt.UnixMilli(),
		CreatedAt:  session.CreatedAt.UnixMilli(),
		UserAgent:  session.UserAgent,
		IPAddress:  session.IPAddress,
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(session.ID), h)
		pipe.Expire(ctx, sessionKey(session.ID), ttl)
		pipe.SAdd(ctx, employeeKey(session.EmployeeID), session.ID)
		pipe.Expire(ctx, employeeKey(session.EmployeeID), employeeSetTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	cmd := s.client.HGetAll(ctx, sessionKey(id))
	fields, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}

	var h sessionHash
	if err := cmd.Scan(&h); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &domain.Session{
		ID:         id,
		EmployeeID: h.EmployeeID,
		Token:      h.Token,
		ExpiresAt:  time.UnixMilli(h.ExpiresAt),
		CreatedAt:  time.UnixMilli(h.CreatedAt),
		UserAgent:  h.UserAgent,
		IPAddress:  h.IPAddress,
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	owner, err := s.client.HGet(ctx, sessionKey(id), "employee_id").Int64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, employeeKey(owner), id)
		return nil
	})
	return err
}

// DeleteByEmployee removes every session of the employee in one round trip.
// IDs of sessions that already expired are deleted harmlessly.
func (s *SessionStore) DeleteByEmployee(ctx context.Context, employeeID int64) error {
	ids, err := s.client.SMembers(ctx, employeeKey(employeeID)).Result()
	if err != nil {
		return fmt.Errorf("list sessions of employee %d: %w", employeeID, err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, employeeKey(employeeID))
	return s.client.Del(ctx, keys...).Err()
}
