package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lingoflow/backend/config"
	"k8s.io/klog/v2"
)

// OpenAIProvider speaks the OpenAI-compatible chat completions API, which
// also covers OpenRouter and most hosted gateways.
type OpenAIProvider struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Client    *http.Client
}

func NewOpenAIProvider(cfg *config.Config) *OpenAIProvider {
	return &OpenAIProvider{
		BaseURL:   cfg.AI.APIURL,
		APIKey:    cfg.AI.APIKey,
		Model:     cfg.AI.Model,
		MaxTokens: cfg.AI.MaxTokens,
		Client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) GenerateBatch(ctx context.Context, req BatchRequest) ([]BatchResult, error) {
	if p.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if len(req.Items) == 0 {
		return nil, nil
	}

	messages, err := buildMessages(req)
	if err != nil {
		return nil, err
	}

	klog.V(6).Infof("translation batch request: model=%s items=%d languages=%d", p.Model, len(req.Items), len(req.Languages))

	content, err := p.sendRequest(ctx, chatRequest{
		Model:       p.Model,
		Messages:    messages,
		MaxTokens:   p.MaxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}

	return parseBatchContent(content, req)
}

func (p *OpenAIProvider) sendRequest(ctx context.Context, reqBody chatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if chatResp.Error != nil {
		if strings.Contains(strings.ToLower(chatResp.Error.Type), "rate") || chatResp.Error.Code == "rate_limit_exceeded" {
			return "", ErrRateLimited
		}
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from provider")
	}
	return chatResp.Choices[0].Message.Content, nil
}
