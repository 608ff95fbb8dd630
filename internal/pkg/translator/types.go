package translator

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured means the provider is missing a credential or URL.
	ErrNotConfigured = errors.New("translation provider is not configured")
	// ErrRateLimited maps the provider's 429 responses.
	ErrRateLimited = errors.New("translation provider rate limited")
)

// BatchItem is one row sent through the batch endpoint. ID is the stable row
// identifier preserved through the round-trip.
type BatchItem struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

// GlossaryEntry grounds the prompt with approved canonical translations.
type GlossaryEntry struct {
	Source       string            `json:"source"`
	Translations map[string]string `json:"translations"`
}

type BatchRequest struct {
	Items     []BatchItem
	Prompt    string
	Languages []string
	Glossary  []GlossaryEntry
}

type CellResult struct {
	Text   string `json:"text"`
	Status string `json:"status,omitempty"`
}

// BatchResult carries one item's outcome. Err is set per item so a single
// bad row never fails its siblings.
type BatchResult struct {
	ID           string                `json:"id"`
	Translations map[string]CellResult `json:"translations"`
	Err          string                `json:"error,omitempty"`
}

// Provider is one interchangeable batch-translation backend. The known set
// is closed; selection happens in the factory switch, not a registry.
type Provider interface {
	Name() string
	GenerateBatch(ctx context.Context, req BatchRequest) ([]BatchResult, error)
}

// Chat wire types, OpenAI-compatible.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}
