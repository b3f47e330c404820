package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f(ctx)
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	authService     driving.AuthService
	chatService     driving.ChatService
	docService      driving.DocumentService
	employeeService driving.EmployeeService
	channelService  driving.ChannelService // nil when no channel is configured

	// Readiness checks by name (database, redis, vector stores)
	checks map[string]Pinger

	maxUploadBytes int64
	chatLimiter    *RateLimitMiddleware
	corsOrigins    []string
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	// MaxUploadBytes bounds a multipart upload request (default: 32 MiB)
	MaxUploadBytes int64

	// ChatRatePerMinute limits chat requests per client address (default: 30)
	ChatRatePerMinute int

	// CORSOrigins lists allowed origins; empty disables CORS headers
	CORSOrigins []string

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              8000,
		Version:           "dev",
		MaxUploadBytes:    32 << 20,
		ChatRatePerMinute: 30,
	}
}

// Services groups the driving ports the server exposes
type Services struct {
	Auth     driving.AuthService
	Chat     driving.ChatService
	Document driving.DocumentService
	Employee driving.EmployeeService
	Channel  driving.ChannelService // Optional
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, services Services, checks map[string]Pinger) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	if checks == nil {
		checks = map[string]Pinger{}
	}

	s := &Server{
		router:          http.NewServeMux(),
		version:         cfg.Version,
		logger:          logger,
		authService:     services.Auth,
		chatService:     services.Chat,
		docService:      services.Document,
		employeeService: services.Employee,
		channelService:  services.Channel,
		checks:          checks,
		maxUploadBytes:  maxUpload,
		chatLimiter:     NewRateLimitMiddleware(cfg.ChatRatePerMinute, 5),
		corsOrigins:     cfg.CORSOrigins,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // answers wait on two model calls
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in the global middleware chain
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	if len(s.corsOrigins) > 0 {
		h = NewCORSMiddleware(s.corsOrigins).Handler(h)
	}
	h = NewLoggingMiddleware(s.logger).Handler(h)
	return NewRecoveryMiddleware(s.logger).Handler(h)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireAdmin(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)

	// Chat: the caller's token, when present and valid, selects the private scope
	s.router.Handle("POST /chat-bot/{$}",
		s.chatLimiter.Handler(authMiddleware.OptionalAuth(http.HandlerFunc(s.handleChat))))

	// Documents
	s.router.Handle("POST /doc/upload", admin(s.handleUploadDocument))
	s.router.Handle("POST /doc/url/upload", admin(s.handleUploadURL))
	s.router.Handle("GET /doc/list", authed(s.handleListDocuments))
	s.router.Handle("DELETE /doc/{id}", authed(s.handleDeleteDocument))

	// Employees
	s.router.HandleFunc("POST /employee/signup", s.handleSignup)
	s.router.HandleFunc("POST /employee/login", s.handleLogin)
	s.router.Handle("POST /employee/logout", authed(s.handleLogout))
	s.router.Handle("POST /employee/logout-all", authed(s.handleLogoutAll))
	s.router.Handle("GET /employee", authed(s.handleCurrentEmployee))
	s.router.Handle("GET /employee/list", authed(s.handleListEmployees))
	s.router.Handle("GET /employee/{id}", authed(s.handleGetEmployee))
	s.router.Handle("PUT /employee/{id}", authed(s.handleUpdateEmployee))
	s.router.Handle("DELETE /employee/{id}", authed(s.handleDeleteEmployee))

	// Addresses
	s.router.Handle("POST /employee/{id}/address", authed(s.handleAddAddress))
	s.router.Handle("GET /employee/{id}/address/list", authed(s.handleListAddresses))
	s.router.Handle("DELETE /employee/address/{id}", authed(s.handleDeleteAddress))

	// Messaging channel webhooks (public, called by the platforms)
	s.router.HandleFunc("GET /whatsapp/webhook", s.handleWhatsAppVerify)
	s.router.HandleFunc("POST /whatsapp/webhook", s.handleWhatsAppWebhook)
	s.router.HandleFunc("POST /telegram/webhook", s.handleTelegramWebhook)
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM or ctx ends,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
