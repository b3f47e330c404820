package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrAlreadyExists", ErrAlreadyExists, "already exists"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrUnauthorized", ErrUnauthorized, "unauthorized"},
		{"ErrForbidden", ErrForbidden, "forbidden"},
		{"ErrTokenExpired", ErrTokenExpired, "token expired"},
		{"ErrTokenInvalid", ErrTokenInvalid, "token invalid"},
		{"ErrSessionNotFound", ErrSessionNotFound, "session not found"},
		{"ErrInvalidCredentials", ErrInvalidCredentials, "invalid credentials"},
		{"ErrSourceUnreadable", ErrSourceUnreadable, "source unreadable"},
		{"ErrUnsafeQuery", ErrUnsafeQuery, "unsafe query"},
		{"ErrStructuredAnswerUnavailable", ErrStructuredAnswerUnavailable, "structured answer unavailable"},
		{"ErrAnswerGenerationFailed", ErrAnswerGenerationFailed, "answer generation failed"},
		{"ErrDuplicateSource", ErrDuplicateSource, "duplicate source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrForbidden,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrSessionNotFound,
		ErrInvalidCredentials,
		ErrSourceUnreadable,
		ErrUnsafeQuery,
		ErrStructuredAnswerUnavailable,
		ErrAnswerGenerationFailed,
		ErrDuplicateSource,
		ErrGenerationUnavailable,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestErrAccessDenied_IsForbidden(t *testing.T) {
	if !errors.Is(ErrAccessDenied, ErrForbidden) {
		t.Error("ErrAccessDenied should match ErrForbidden")
	}
}

func TestErrorsIs_Wrapped(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrStructuredAnswerUnavailable, ErrUnsafeQuery)

	if !errors.Is(err, ErrStructuredAnswerUnavailable) {
		t.Error("expected wrapped error to match ErrStructuredAnswerUnavailable")
	}
	if !errors.Is(err, ErrUnsafeQuery) {
		t.Error("expected wrapped error to match ErrUnsafeQuery")
	}
	if errors.Is(err, ErrAnswerGenerationFailed) {
		t.Error("wrapped error should not match ErrAnswerGenerationFailed")
	}
}
