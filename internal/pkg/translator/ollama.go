package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lingoflow/backend/config"
	"k8s.io/klog/v2"
)

// OllamaProvider targets a local Ollama instance via its native chat API.
type OllamaProvider struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewOllamaProvider(cfg *config.Config) *OllamaProvider {
	return &OllamaProvider{
		BaseURL: cfg.AI.APIURL,
		Model:   cfg.AI.Model,
		Client: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Error string `json:"error,omitempty"`
}

func (p *OllamaProvider) GenerateBatch(ctx context.Context, req BatchRequest) ([]BatchResult, error) {
	if p.BaseURL == "" || p.Model == "" {
		return nil, ErrNotConfigured
	}
	if len(req.Items) == 0 {
		return nil, nil
	}

	messages, err := buildMessages(req)
	if err != nil {
		return nil, err
	}

	klog.V(6).Infof("ollama batch request: model=%s items=%d", p.Model, len(req.Items))

	jsonData, err := json.Marshal(ollamaChatRequest{
		Model:    p.Model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if chatResp.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", chatResp.Error)
	}

	return parseBatchContent(chatResp.Message.Content, req)
}
