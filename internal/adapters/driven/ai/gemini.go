package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var (
	_ driven.LLMService       = (*GeminiLLM)(nil)
	_ driven.EmbeddingService = (*GeminiEmbedding)(nil)
)

const (
	defaultGeminiBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiChatModel      = "gemini-1.5-flash"
	defaultGeminiEmbeddingModel = "text-embedding-004"
	geminiEmbeddingDimensions   = 768
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

func geminiBase(baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return defaultGeminiBaseURL
	}
	return baseURL
}

// GeminiLLM implements LLMService on the Gemini generateContent API
type GeminiLLM struct {
	api         *apiClient
	model       string
	baseURL     string
	temperature float64
}

// NewGeminiLLM creates a new Gemini chat service
func NewGeminiLLM(settings domain.LLMSettings) (*GeminiLLM, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required", domain.ErrInvalidInput)
	}
	model := settings.Model
	if model == "" {
		model = defaultGeminiChatModel
	}
	return &GeminiLLM{
		api: newAPIClient("Gemini", settings.Timeout, settings.RatePerMin, map[string]string{
			"x-goog-api-key": settings.APIKey,
		}),
		model:       model,
		baseURL:     geminiBase(settings.BaseURL),
		temperature: settings.Temperature,
	}, nil
}

type geminiGenerateRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// geminiRequest lays a prompt out as a user turn followed by a model turn
// holding the prefix
func geminiRequest(prompt domain.Prompt, temperature float64) geminiGenerateRequest {
	var req geminiGenerateRequest
	if prompt.System != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: prompt.System}}}
	}
	req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: prompt.Human}}})
	if prompt.Prefix != "" {
		req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: prompt.Prefix}}})
	}
	req.GenerationConfig.Temperature = temperature
	return req
}

// Generate completes the prompt
func (l *GeminiLLM) Generate(ctx context.Context, prompt domain.Prompt) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", l.baseURL, l.model)

	var resp geminiGenerateResponse
	if err := l.api.postJSON(ctx, url, geminiRequest(prompt, l.temperature), &resp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", domain.ErrGenerationUnavailable)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return trimPrefix(b.String(), prompt.Prefix), nil
}

// Model returns the model name being used
func (l *GeminiLLM) Model() string {
	return l.model
}

// Ping sends a one-word prompt
func (l *GeminiLLM) Ping(ctx context.Context) error {
	_, err := l.Generate(ctx, domain.Prompt{Human: "ping"})
	return err
}

// Close releases idle connections
func (l *GeminiLLM) Close() error {
	l.api.close()
	return nil
}

// GeminiEmbedding implements EmbeddingService on batchEmbedContents
type GeminiEmbedding struct {
	api        *apiClient
	model      string
	baseURL    string
	dimensions int
}

// NewGeminiEmbedding creates a new Gemini embedding service
func NewGeminiEmbedding(settings domain.EmbeddingSettings) (*GeminiEmbedding, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required", domain.ErrInvalidInput)
	}
	model := strings.TrimPrefix(settings.Model, "models/")
	if model == "" {
		model = defaultGeminiEmbeddingModel
	}
	dimensions := settings.Dimensions
	if dimensions <= 0 {
		dimensions = geminiEmbeddingDimensions
	}
	return &GeminiEmbedding{
		api: newAPIClient("Gemini", settings.Timeout, settings.RatePerMin, map[string]string{
			"x-goog-api-key": settings.APIKey,
		}),
		model:      model,
		baseURL:    geminiBase(settings.BaseURL),
		dimensions: dimensions,
	}, nil
}

type geminiEmbedRequest struct {
	Model                string        `json:"model"`
	Content              geminiContent `json:"content"`
	TaskType             string        `json:"taskType,omitempty"`
	OutputDimensionality int           `json:"outputDimensionality,omitempty"`
}

type geminiBatchEmbedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

func (e *GeminiEmbedding) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	requests := make([]geminiEmbedRequest, len(texts))
	for i, text := range texts {
		requests[i] = geminiEmbedRequest{
			Model:                "models/" + e.model,
			Content:              geminiContent{Parts: []geminiPart{{Text: text}}},
			TaskType:             taskType,
			OutputDimensionality: e.dimensions,
		}
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents", e.baseURL, e.model)
	var resp geminiBatchEmbedResponse
	if err := e.api.postJSON(ctx, url, map[string]any{"requests": requests}, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs",
			domain.ErrServiceUnavailable, len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}

// Embed generates document embeddings, in input order
func (e *GeminiEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.embed(ctx, texts, "RETRIEVAL_DOCUMENT")
}

// EmbedQuery generates a query embedding
func (e *GeminiEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	out, err := e.embed(ctx, []string{query}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// Dimensions returns the embedding dimension size
func (e *GeminiEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *GeminiEmbedding) Model() string {
	return e.model
}

// HealthCheck embeds a short probe text
func (e *GeminiEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

// Close releases idle connections
func (e *GeminiEmbedding) Close() error {
	e.api.close()
	return nil
}
