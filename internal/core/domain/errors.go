package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrAccessDenied is returned when a caller touches a scope or resource it
	// does not own. It is the same value as ErrForbidden.
	ErrAccessDenied = ErrForbidden

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidCredentials indicates wrong email/password combination
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrLockNotAcquired indicates another instance holds the lock
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// Pipeline errors. Each component reports exactly one of these kinds so
// callers can branch with errors.Is instead of matching messages.
var (
	// ErrSourceUnreadable indicates a file or URL could not be fetched or parsed
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrUnsafeQuery indicates a generated query failed the read-only gate
	ErrUnsafeQuery = errors.New("unsafe query")

	// ErrStructuredAnswerUnavailable wraps any failure on the SQL path
	ErrStructuredAnswerUnavailable = errors.New("structured answer unavailable")

	// ErrAnswerGenerationFailed indicates the retrieval or merge step failed
	ErrAnswerGenerationFailed = errors.New("answer generation failed")

	// ErrDuplicateSource indicates a document with the same original name exists
	ErrDuplicateSource = errors.New("duplicate source")

	// ErrGenerationUnavailable indicates the text generation capability failed
	ErrGenerationUnavailable = errors.New("generation unavailable")
)
