package services

import (
	"context"
	"errors"

	"github.com/sumgram/sumgram-backend/internal/providers"
)

var errNoProvider = errors.New("no generative text provider configured")

// unavailableProvider stands in when no provider is configured so the
// summarize pipeline can degrade per its contract.
type unavailableProvider struct{}

func (unavailableProvider) Name() string { return "unavailable" }

func (unavailableProvider) Complete(_ context.Context, _ providers.CompletionRequest) (*providers.CompletionResponse, error) {
	return nil, errNoProvider
}

func (unavailableProvider) ValidateConfig() error { return errNoProvider }
