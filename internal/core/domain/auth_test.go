package domain

import (
	"testing"
	"time"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		expected  bool
	}{
		{
			name:      "expired session",
			expiresAt: time.Now().Add(-1 * time.Hour),
			expected:  true,
		},
		{
			name:      "valid session",
			expiresAt: time.Now().Add(1 * time.Hour),
			expected:  false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &Session{ExpiresAt: tt.expiresAt}
			if session.IsExpired() != tt.expected {
				t.Errorf("expected IsExpired() = %v", tt.expected)
			}
		})
	}
}

func TestAuthContextIsAdmin(t *testing.T) {
	tests := []struct {
		role     Role
		expected bool
	}{
		{RoleAdmin, true},
		{RoleEmployee, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			ctx := &AuthContext{Role: tt.role}
			if ctx.IsAdmin() != tt.expected {
				t.Errorf("expected IsAdmin() = %v for role %s", tt.expected, tt.role)
			}
		})
	}

	var nilCtx *AuthContext
	if nilCtx.IsAdmin() {
		t.Error("nil auth context should not be admin")
	}
}

func TestAuthContextCanManage(t *testing.T) {
	admin := &AuthContext{EmployeeID: 1, Role: RoleAdmin}
	owner := &AuthContext{EmployeeID: 7, Role: RoleEmployee}

	if !admin.CanManage(7) {
		t.Error("admin should manage any resource")
	}
	if !owner.CanManage(7) {
		t.Error("owner should manage own resource")
	}
	if owner.CanManage(8) {
		t.Error("employee should not manage another employee's resource")
	}

	var anon *AuthContext
	if anon.CanManage(7) {
		t.Error("anonymous caller should manage nothing")
	}
}
