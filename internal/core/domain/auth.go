package domain

import "time"

// Session represents an authenticated employee session
type Session struct {
	ID         string    `json:"id"`
	EmployeeID int64     `json:"employee_id"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	UserAgent  string    `json:"user_agent,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AuthContext contains authenticated employee info for request context
type AuthContext struct {
	EmployeeID int64  `json:"employee_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       Role   `json:"employee_type"`
	SessionID  string `json:"session_id"`
}

// IsAdmin checks if the authenticated employee is an admin
func (a *AuthContext) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// CanManage reports whether the caller may modify a resource owned by ownerID
func (a *AuthContext) CanManage(ownerID int64) bool {
	if a == nil {
		return false
	}
	return a.IsAdmin() || a.EmployeeID == ownerID
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// Recorded on the session; filled in by the transport
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

// LoginResponse is returned after successful authentication
type LoginResponse struct {
	Token     string           `json:"access_token"`
	TokenType string           `json:"token_type"`
	ExpiresAt time.Time        `json:"expires_at"`
	Employee  *EmployeeSummary `json:"employee"`
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	EmployeeID int64  `json:"id"`
	Email      string `json:"email"`
	Role       Role   `json:"employee_type"`
	SessionID  string `json:"session_id"`
	IssuedAt   int64  `json:"iat"`
	ExpiresAt  int64  `json:"exp"`
}
