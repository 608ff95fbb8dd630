package translator

import (
	"fmt"

	"github.com/lingoflow/backend/config"
)

// New selects the configured provider. The provider set is closed; adding a
// backend means adding a case here, not registering a string key at runtime.
func New(cfg *config.Config) (Provider, error) {
	switch cfg.AI.Provider {
	case "", "openai":
		return NewOpenAIProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}
}
