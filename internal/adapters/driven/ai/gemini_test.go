package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

func TestGeminiRequest(t *testing.T) {
	req := geminiRequest(domain.Prompt{System: "sys", Human: "q", Prefix: "SQLQuery:"}, 0.5)

	require.NotNil(t, req.SystemInstruction)
	assert.Equal(t, "sys", req.SystemInstruction.Parts[0].Text)
	require.Len(t, req.Contents, 2)
	assert.Equal(t, "user", req.Contents[0].Role)
	assert.Equal(t, "model", req.Contents[1].Role)
	assert.Equal(t, "SQLQuery:", req.Contents[1].Parts[0].Text)
	assert.Equal(t, 0.5, req.GenerationConfig.Temperature)

	bare := geminiRequest(domain.Prompt{Human: "q"}, 0)
	assert.Nil(t, bare.SystemInstruction)
	assert.Len(t, bare.Contents, 1)
}

func TestGeminiLLM_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"SQLQuery: SELECT name "},{"text":"FROM employees"}]}}]}`))
	}))
	defer server.Close()

	llm, err := NewGeminiLLM(domain.LLMSettings{APIKey: "g-key", BaseURL: server.URL, RatePerMin: 6000})
	require.NoError(t, err)

	out, err := llm.Generate(context.Background(), domain.Prompt{Human: "names?", Prefix: "SQLQuery:"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT name FROM employees", out)
	assert.Equal(t, "gemini-1.5-flash", llm.Model())
	assert.NoError(t, llm.Close())
}

func TestGeminiLLM_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	llm, err := NewGeminiLLM(domain.LLMSettings{APIKey: "g", BaseURL: server.URL, RatePerMin: 6000})
	require.NoError(t, err)

	err = llm.Ping(context.Background())
	assert.True(t, errors.Is(err, domain.ErrGenerationUnavailable))
}

func TestGeminiEmbedding(t *testing.T) {
	var taskTypes []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/text-embedding-004:batchEmbedContents", r.URL.Path)

		var body struct {
			Requests []geminiEmbedRequest `json:"requests"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		for _, req := range body.Requests {
			assert.Equal(t, "models/text-embedding-004", req.Model)
			taskTypes = append(taskTypes, req.TaskType)
		}

		resp := geminiBatchEmbedResponse{}
		for i := range body.Requests {
			resp.Embeddings = append(resp.Embeddings, struct {
				Values []float32 `json:"values"`
			}{Values: []float32{float32(i), 1}})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	emb, err := NewGeminiEmbedding(domain.EmbeddingSettings{APIKey: "g", BaseURL: server.URL, Model: "models/text-embedding-004", RatePerMin: 6000})
	require.NoError(t, err)
	assert.Equal(t, 768, emb.Dimensions())

	vectors, err := emb.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, float32(1), vectors[1][0])

	_, err = emb.EmbedQuery(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{"RETRIEVAL_DOCUMENT", "RETRIEVAL_DOCUMENT", "RETRIEVAL_QUERY"}, taskTypes)
}

func TestGeminiEmbedding_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embeddings":[]}`))
	}))
	defer server.Close()

	emb, err := NewGeminiEmbedding(domain.EmbeddingSettings{APIKey: "g", BaseURL: server.URL, RatePerMin: 6000})
	require.NoError(t, err)

	_, err = emb.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGeminiLLM(domain.LLMSettings{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = NewGeminiEmbedding(domain.EmbeddingSettings{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
