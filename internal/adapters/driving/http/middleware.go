package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driving"
)

type contextKey int

const (
	authKey contextKey = iota
	traceKey
)

// tokenRejections maps validation failures to the message sent back
var tokenRejections = []struct {
	err error
	msg string
}{
	{domain.ErrTokenExpired, "token expired"},
	{domain.ErrSessionNotFound, "session not found"},
}

func rejection(err error) string {
	for _, r := range tokenRejections {
		if errors.Is(err, r.err) {
			return r.msg
		}
	}
	return "invalid token"
}

// errNoToken is returned by identify when no bearer token is present
var errNoToken = errors.New("missing authorization token")

// AuthMiddleware resolves bearer tokens into employee identities
type AuthMiddleware struct {
	auth driving.AuthService
}

func NewAuthMiddleware(auth driving.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// identify validates the request's bearer token
func (m *AuthMiddleware) identify(r *http.Request) (*domain.AuthContext, error) {
	token := extractBearerToken(r)
	if token == "" {
		return nil, errNoToken
	}
	return m.auth.ValidateToken(r.Context(), token)
}

// Authenticate rejects requests that do not carry a valid token.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who, err := m.identify(r)
		switch {
		case errors.Is(err, errNoToken):
			writeError(w, http.StatusUnauthorized, errNoToken.Error())
		case err != nil:
			writeError(w, http.StatusUnauthorized, rejection(err))
		default:
			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), who)))
		}
	})
}

// OptionalAuth identifies the caller when it can. Anonymous callers and
// callers with a bad token both continue without an identity, which
// keeps them on the public index.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who, err := m.identify(r)
		if err != nil {
			if !errors.Is(err, errNoToken) {
				slog.DebugContext(r.Context(), "answering anonymously", "path", r.URL.Path, "reason", rejection(err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), who)))
	})
}

// RequireAdmin must sit behind Authenticate
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who := GetAuthContext(r.Context())
		switch {
		case who == nil:
			writeError(w, http.StatusUnauthorized, "unauthorized")
		case !who.IsAdmin():
			writeError(w, http.StatusForbidden, "admin access required")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// WithAuthContext returns a copy of ctx carrying who. The identity is also
// recorded on the request trace so the access log can name the caller.
func WithAuthContext(ctx context.Context, who *domain.AuthContext) context.Context {
	if t, ok := ctx.Value(traceKey).(*requestTrace); ok {
		t.caller = who
	}
	return context.WithValue(ctx, authKey, who)
}

// GetAuthContext returns nil for anonymous requests
func GetAuthContext(ctx context.Context) *domain.AuthContext {
	if ctx == nil {
		return nil
	}
	who, _ := ctx.Value(authKey).(*domain.AuthContext)
	return who
}

func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requestTrace is filled in by inner handlers and read by the access log
type requestTrace struct {
	caller *domain.AuthContext
}

func (t *requestTrace) callerName() string {
	if t.caller == nil {
		return "anonymous"
	}
	return fmt.Sprintf("employee:%d", t.caller.EmployeeID)
}

// LoggingMiddleware writes one access log line per request
type LoggingMiddleware struct {
	logger *slog.Logger
}

func NewLoggingMiddleware(logger *slog.Logger) *LoggingMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingMiddleware{logger: logger}
}

// Handler logs server errors at error level and client errors at warn level.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		trace := &requestTrace{}
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), traceKey, trace)))

		level := slog.LevelInfo
		switch {
		case rw.statusCode >= 500:
			level = slog.LevelError
		case rw.statusCode >= 400:
			level = slog.LevelWarn
		}
		m.logger.LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rw.statusCode),
			slog.Int("bytes", rw.written),
			slog.String("caller", trace.callerName()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// responseWriter records what the handler sent
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int
	committed  bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.committed {
		return
	}
	rw.statusCode = code
	rw.committed = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.committed = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

// RecoveryMiddleware turns handler panics into 500 responses
type RecoveryMiddleware struct {
	logger *slog.Logger
}

func NewRecoveryMiddleware(logger *slog.Logger) *RecoveryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecoveryMiddleware{logger: logger}
}

func (m *RecoveryMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}
			m.logger.ErrorContext(r.Context(), "handler panicked",
				"method", r.Method, "path", r.URL.Path, "panic", p, "stack", string(debug.Stack()))
			writeError(w, http.StatusInternalServerError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware answers preflights and echoes allowed origins
type CORSMiddleware struct {
	origins []string
}

func NewCORSMiddleware(origins []string) *CORSMiddleware {
	return &CORSMiddleware{origins: origins}
}

func (m *CORSMiddleware) allowed(origin string) bool {
	return origin != "" && (slices.Contains(m.origins, "*") || slices.Contains(m.origins, origin))
}

func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		h := w.Header()
		h.Add("Vary", "Origin")
		if m.allowed(origin) {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Max-Age", "86400")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimitMiddleware limits requests per client address. Every answer
// costs model calls, so the chat route sits behind it.
type RateLimitMiddleware struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	lastScan time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimitMiddleware allows perMinute requests per client with the given burst.
func NewRateLimitMiddleware(perMinute, burst int) *RateLimitMiddleware {
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 5
	}
	return &RateLimitMiddleware{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		idleTTL: 10 * time.Minute,
	}
}

// Handler wraps an http.Handler with per-client rate limiting
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.allow(clientAddress(r), time.Now()) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) allow(client string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Forget idle clients now and then so the map stays bounded.
	if now.Sub(m.lastScan) > m.idleTTL {
		for key, c := range m.clients {
			if now.Sub(c.lastSeen) > m.idleTTL {
				delete(m.clients, key)
			}
		}
		m.lastScan = now
	}

	c, ok := m.clients[client]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.clients[client] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// clientAddress returns the host part of the remote address
func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
