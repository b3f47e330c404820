package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

func testClaims(role domain.Role, expiresIn time.Duration) *domain.TokenClaims {
	now := time.Now()
	return &domain.TokenClaims{
		EmployeeID: 42,
		Email:      "asha@example.com",
		Role:       role,
		SessionID:  "session-789",
		IssuedAt:   now.Unix(),
		ExpiresAt:  now.Add(expiresIn).Unix(),
	}
}

func TestNewAdapter(t *testing.T) {
	adapter := NewAdapter("test-secret")
	if string(adapter.jwtSecret) != "test-secret" {
		t.Error("expected jwt secret to be set")
	}

	cheap := NewAdapterWithCost("test-secret", 4)
	if cheap.bcryptCost != 4 {
		t.Errorf("expected bcrypt cost 4, got %d", cheap.bcryptCost)
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	adapter := NewAdapterWithCost("secret", 4)

	hash, err := adapter.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" || !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash does not look like bcrypt: %q", hash)
	}

	again, _ := adapter.HashPassword("correct horse")
	if again == hash {
		t.Error("expected salted hashes to differ")
	}

	if !adapter.VerifyPassword("correct horse", hash) {
		t.Error("correct password rejected")
	}
	if adapter.VerifyPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
	if adapter.VerifyPassword("correct horse", "not-a-hash") {
		t.Error("invalid hash accepted")
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	adapter := NewAdapter("test-jwt-secret")

	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleEmployee} {
		t.Run(string(role), func(t *testing.T) {
			original := testClaims(role, 24*time.Hour)

			token, err := adapter.GenerateToken(original)
			if err != nil {
				t.Fatalf("GenerateToken: %v", err)
			}
			if strings.Count(token, ".") != 2 {
				t.Errorf("expected a three part JWT, got %q", token)
			}

			parsed, err := adapter.ParseToken(token)
			if err != nil {
				t.Fatalf("ParseToken: %v", err)
			}
			if *parsed != *original {
				t.Errorf("parsed = %+v, want %+v", parsed, original)
			}
		})
	}
}

func TestGenerateToken_SubjectIsEmployeeID(t *testing.T) {
	adapter := NewAdapter("secret")
	token, _ := adapter.GenerateToken(testClaims(domain.RoleEmployee, time.Hour))

	var claims jwtClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if claims.Subject != "42" || claims.Issuer != issuer {
		t.Errorf("subject = %q issuer = %q", claims.Subject, claims.Issuer)
	}
}

func TestParseToken_Expired(t *testing.T) {
	adapter := NewAdapter("test-jwt-secret")
	token, _ := adapter.GenerateToken(testClaims(domain.RoleEmployee, -2*time.Hour))

	_, err := adapter.ParseToken(token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestParseToken_Invalid(t *testing.T) {
	adapter := NewAdapter("secret-2")
	foreign, _ := NewAdapter("secret-1").GenerateToken(testClaims(domain.RoleAdmin, time.Hour))

	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwtClaims{
		EmployeeID: 1,
		Role:       domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		EmployeeID:       1,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer},
	}).SignedString([]byte("secret-2"))

	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		EmployeeID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret-2"))

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"two parts":    "header.payload",
		"wrong secret": foreign,
		"alg none":     noneToken,
		"no expiry":    noExpiry,
		"wrong issuer": wrongIssuer,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := adapter.ParseToken(token)
			if !errors.Is(err, domain.ErrTokenInvalid) {
				t.Errorf("err = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func BenchmarkHashPassword(b *testing.B) {
	adapter := NewAdapter("secret")
	for i := 0; i < b.N; i++ {
		_, _ = adapter.HashPassword("password123")
	}
}

func BenchmarkParseToken(b *testing.B) {
	adapter := NewAdapter("secret")
	token, _ := adapter.GenerateToken(testClaims(domain.RoleEmployee, time.Hour))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = adapter.ParseToken(token)
	}
}
