package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/swaggo/swag"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports the state of every dependency
// @Description Readiness response
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ChatRequest is a question for the chatbot
// @Description Chat request
type ChatRequest struct {
	Query string `json:"query" example:"What is the leave policy?"`
}

// ChatResponse carries the composed answer
// @Description Chat response
type ChatResponse struct {
	Answer string `json:"answer"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the database, redis and both vector stores
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK
	for name, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", "check", name, "error", err)
			resp.Checks[name] = "unavailable"
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not registered")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// Chat endpoint

// handleChat godoc
// @Summary      Ask the chatbot
// @Description  Answers from public documents, or from private documents and the employee database when a valid token is sent
// @Tags         Chat Bot
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ChatRequest  true  "Question"
// @Success      200      {object}  ChatResponse
// @Failure      400      {object}  ErrorResponse  "Missing query"
// @Failure      429      {object}  ErrorResponse  "Too many requests"
// @Failure      500      {object}  ErrorResponse  "Answer could not be generated"
// @Router       /chat-bot/ [post]
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	qc := domain.QueryFor(req.Query, GetAuthContext(r.Context()))
	answer, err := s.chatService.Answer(r.Context(), qc)
	if err != nil {
		s.logger.Error("chat answer failed", "scope", qc.Scope(), "error", err)
		writeError(w, http.StatusInternalServerError, "could not generate an answer")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Answer: answer})
}

// Document endpoints

// handleUploadDocument godoc
// @Summary      Upload a document
// @Description  Uploads a PDF, DOCX, TXT, CSV or XLSX file and ingests it. With deferred=true the file is queued for the background scanner.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file      formData  file    true   "Document"
// @Param        type      formData  string  false  "public or private"  default(public)
// @Param        deferred  formData  bool    false  "Ingest in the background"
// @Success      201       {object}  domain.DocumentSummary
// @Failure      400       {object}  ErrorResponse  "Invalid file, type or duplicate"
// @Failure      403       {object}  ErrorResponse  "Admin access required"
// @Failure      413       {object}  ErrorResponse  "File too large"
// @Router       /doc/upload [post]
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	scopeValue := r.FormValue("type")
	if scopeValue == "" {
		scopeValue = string(domain.ScopePublic)
	}
	scope, err := domain.ParseScope(scopeValue)
	if err != nil {
		writeDomainError(w, err, "upload failed")
		return
	}
	deferred, _ := strconv.ParseBool(r.FormValue("deferred"))

	summary, err := s.docService.Upload(r.Context(), GetAuthContext(r.Context()), driving.UploadRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
		Scope:       scope,
		Deferred:    deferred,
	})
	if err != nil {
		s.logger.Warn("document upload failed", "file", header.Filename, "error", err)
		writeDomainError(w, err, "upload failed")
		return
	}

	status := http.StatusCreated
	if summary.Deferred {
		status = http.StatusAccepted
	}
	writeJSON(w, status, summary)
}

// handleUploadURL godoc
// @Summary      Ingest a web page
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.URLUploadRequest  true  "URL and scope"
// @Success      201      {object}  domain.DocumentSummary
// @Failure      400      {object}  ErrorResponse  "Invalid URL, unreadable page or duplicate"
// @Failure      403      {object}  ErrorResponse  "Admin access required"
// @Router       /doc/url/upload [post]
func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	var req driving.URLUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type == "" {
		req.Type = string(domain.ScopePublic)
	}

	summary, err := s.docService.UploadURL(r.Context(), GetAuthContext(r.Context()), req)
	if err != nil {
		s.logger.Warn("url upload failed", "url", req.URL, "error", err)
		writeDomainError(w, err, "upload failed")
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

// handleListDocuments godoc
// @Summary      List documents
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        filter           query     string  false  "Match on name or id"
// @Param        order_by         query     string  false  "Sort column"  default(created_at)
// @Param        order_direction  query     string  false  "asc or desc"  default(desc)
// @Param        limit            query     int     false  "Page size"    default(10)
// @Param        type             query     string  false  "all, public or private"  default(all)
// @Param        page             query     int     false  "Page number"  default(1)
// @Success      200              {object}  domain.DocumentPage
// @Failure      400              {object}  ErrorResponse
// @Router       /doc/list [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := domain.DocumentListQuery{
		Filter:         q.Get("filter"),
		OrderBy:        q.Get("order_by"),
		OrderDirection: q.Get("order_direction"),
		Limit:          queryInt(q.Get("limit")),
		Page:           queryInt(q.Get("page")),
		Type:           q.Get("type"),
	}

	page, err := s.docService.List(r.Context(), query)
	if err != nil {
		writeDomainError(w, err, "failed to list documents")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// handleDeleteDocument godoc
// @Summary      Delete a document
// @Description  Removes the record, its local file and its vectors. Admin or owner only.
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /doc/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.docService.Delete(r.Context(), GetAuthContext(r.Context()), id); err != nil {
		writeDomainError(w, err, "failed to delete document")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps a service error to a status code. Client errors
// carry the error text; server errors carry only fallback.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrDuplicateSource),
		errors.Is(err, domain.ErrSourceUnreadable):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// pathID parses the {id} path value, writing a 400 when it is not a positive integer
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query value; bad input means "use the default"
func queryInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
