package factory

import (
	"fmt"

	"github.com/sumgram/sumgram-backend/internal/config"
	"github.com/sumgram/sumgram-backend/internal/providers"
	"github.com/sumgram/sumgram-backend/internal/providers/anthropic"
	"github.com/sumgram/sumgram-backend/internal/providers/openai"
)

// CreateProvider creates a provider instance based on configuration
func CreateProvider(id string, cfg config.ProviderConfig) (providers.Provider, error) {
	switch cfg.Type {
	case "openai":
		return openai.NewProvider(id, cfg)
	case "anthropic":
		return anthropic.NewProvider(id, cfg)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}
