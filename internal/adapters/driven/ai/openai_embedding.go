package ai

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*OpenAIEmbedding)(nil)

const (
	defaultOpenAIBaseURL        = "https://api.openai.com/v1"
	defaultOpenAIEmbeddingModel = "text-embedding-ada-002"

	// openAIBatchSize caps the inputs sent in one embeddings request.
	// A long PDF chunks into far more than the API accepts at once.
	openAIBatchSize = 256
)

// nativeDimensions are the output sizes when no dimensions are requested
var nativeDimensions = map[string]int{
	"text-embedding-ada-002": 1536,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// OpenAIEmbedding embeds chunks and questions through /embeddings.
// It also serves OpenAI-compatible proxies via BaseURL.
type OpenAIEmbedding struct {
	api        *apiClient
	model      string
	baseURL    string
	dimensions int
	shorten    bool // request dimensions below the model's native size
	batchSize  int
}

func NewOpenAIEmbedding(settings domain.EmbeddingSettings) (*OpenAIEmbedding, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", domain.ErrInvalidInput)
	}

	e := &OpenAIEmbedding{
		model:     cmp.Or(settings.Model, defaultOpenAIEmbeddingModel),
		baseURL:   cmp.Or(strings.TrimRight(settings.BaseURL, "/"), defaultOpenAIBaseURL),
		batchSize: openAIBatchSize,
	}
	native, known := nativeDimensions[e.model]
	if !known {
		native = 1536
	}
	e.dimensions = native
	if settings.Dimensions > 0 && settings.Dimensions != native {
		e.dimensions = settings.Dimensions
		e.shorten = strings.HasPrefix(e.model, "text-embedding-3")
	}
	e.api = newAPIClient("OpenAI", settings.Timeout, settings.RatePerMin, map[string]string{
		"Authorization": "Bearer " + settings.APIKey,
	})
	return e, nil
}

type openAIEmbeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
	Dimensions     int      `json:"dimensions,omitempty"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per text, in input order. Large inputs are
// sent in several requests.
func (e *OpenAIEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		batch := texts[start:min(start+e.batchSize, len(texts))]
		vectors, err := e.embedBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: inputs %d-%d: %w", domain.ErrServiceUnavailable, start, start+len(batch)-1, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *OpenAIEmbedding) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	req := openAIEmbeddingRequest{Input: batch, Model: e.model, EncodingFormat: "float"}
	if e.shorten {
		req.Dimensions = e.dimensions
	}
	var resp openAIEmbeddingResponse
	if err := e.api.postJSON(ctx, e.baseURL+"/embeddings", req, &resp); err != nil {
		return nil, err
	}

	// The API may answer out of order
	vectors := make([][]float32, len(batch))
	for _, d := range resp.Data {
		if d.Index >= 0 && d.Index < len(vectors) {
			vectors[d.Index] = d.Embedding
		}
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
	}
	return vectors, nil
}

func (e *OpenAIEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedding) Dimensions() int { return e.dimensions }
func (e *OpenAIEmbedding) Model() string   { return e.model }

// HealthCheck embeds a short probe text
func (e *OpenAIEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

func (e *OpenAIEmbedding) Close() error {
	e.api.close()
	return nil
}
