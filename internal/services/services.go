package services

import (
	"github.com/sirupsen/logrus"

	"github.com/sumgram/sumgram-backend/internal/auth"
	"github.com/sumgram/sumgram-backend/internal/config"
	"github.com/sumgram/sumgram-backend/internal/dialogs"
	"github.com/sumgram/sumgram-backend/internal/messages"
	"github.com/sumgram/sumgram-backend/internal/providers"
	"github.com/sumgram/sumgram-backend/internal/providers/factory"
	"github.com/sumgram/sumgram-backend/internal/summarize"
	"github.com/sumgram/sumgram-backend/internal/telegram"
)

// Services holds all service instances
type Services struct {
	Config    *config.Config
	Log       *logrus.Logger
	Telegram  telegram.Runner
	Auth      *auth.Flow
	Resolver  *auth.Resolver
	Dialogs   *dialogs.Aggregator
	Filters   *dialogs.FilterResolver
	Messages  *messages.Resolver
	Providers *providers.Registry
	Summarize *summarize.Pipeline
}

// NewServices creates and wires all services
func NewServices(cfg *config.Config, log *logrus.Logger) (*Services, error) {
	tgFactory := telegram.NewFactory(cfg.Telegram, log)

	registry := providers.NewRegistry()
	for id, providerCfg := range cfg.Providers {
		if providerCfg.APIKey == "" {
			log.WithField("provider", id).Warn("provider has no API key, skipping")
			continue
		}
		provider, err := factory.CreateProvider(id, providerCfg)
		if err != nil {
			return nil, err
		}
		registry.Register(id, provider)
	}

	defaultProvider := registry.Get(cfg.DefaultProvider)
	if defaultProvider == nil {
		// Summarization degrades to placeholders instead of crashing the
		// whole service when no provider is configured.
		log.WithField("provider", cfg.DefaultProvider).Warn("default provider not configured")
		defaultProvider = unavailableProvider{}
	}

	return &Services{
		Config:    cfg,
		Log:       log,
		Telegram:  tgFactory,
		Auth:      auth.NewFlow(tgFactory, log),
		Resolver:  auth.NewResolver(tgFactory, log),
		Dialogs:   dialogs.NewAggregator(log),
		Filters:   dialogs.NewFilterResolver(log),
		Messages:  messages.NewResolver(log),
		Providers: registry,
		Summarize: summarize.NewPipeline(defaultProvider, cfg.Summarize, log),
	}, nil
}
