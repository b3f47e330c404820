package domain

import (
	"strings"
	"time"
)

// AIProvider identifies the AI/embedding provider
type AIProvider string

const (
	AIProviderOpenAI AIProvider = "openai"
	AIProviderGemini AIProvider = "gemini"
)

// ParseAIProvider reads MODEL_PROVIDER style input
func ParseAIProvider(value string) (AIProvider, error) {
	p := AIProvider(strings.ToLower(strings.TrimSpace(value)))
	if !p.IsValid() {
		return "", ErrInvalidProvider
	}
	return p, nil
}

// IsValid returns true if this is a known provider
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderGemini:
		return true
	default:
		return false
	}
}

// AISettings holds AI service configuration (embedding and LLM)
type AISettings struct {
	Embedding EmbeddingSettings `json:"embedding"`
	LLM       LLMSettings       `json:"llm"`
}

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider   AIProvider    `json:"provider"`
	Model      string        `json:"model"`
	APIKey     string        `json:"-"` // Never serialize to JSON
	BaseURL    string        `json:"base_url,omitempty"`
	Dimensions int           `json:"dimensions,omitempty"`
	Timeout    time.Duration `json:"timeout"`
	RatePerMin int           `json:"rate_per_min,omitempty"`
}

// IsConfigured returns true if embedding settings are properly configured
func (e *EmbeddingSettings) IsConfigured() bool {
	return e.Provider != "" && e.APIKey != ""
}

// LLMSettings configures the LLM service
type LLMSettings struct {
	Provider    AIProvider    `json:"provider"`
	Model       string        `json:"model"`
	APIKey      string        `json:"-"` // Never serialize to JSON
	BaseURL     string        `json:"base_url,omitempty"`
	Temperature float64       `json:"temperature"`
	Timeout     time.Duration `json:"timeout"`
	RatePerMin  int           `json:"rate_per_min,omitempty"`
}

// IsConfigured returns true if LLM settings are properly configured
func (l *LLMSettings) IsConfigured() bool {
	return l.Provider != "" && l.APIKey != ""
}

// Validate checks if AISettings are valid
func (s *AISettings) Validate() error {
	if s.Embedding.Provider != "" && !s.Embedding.Provider.IsValid() {
		return ErrInvalidProvider
	}
	if s.LLM.Provider != "" && !s.LLM.Provider.IsValid() {
		return ErrInvalidProvider
	}
	return nil
}
