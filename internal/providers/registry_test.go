package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubProvider struct{ name string }

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) ValidateConfig() error { return nil }

func (p *stubProvider) Complete(context.Context, CompletionRequest) (*CompletionResponse, error) {
	return &CompletionResponse{}, nil
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.False(t, reg.Has("openai"))
	assert.Nil(t, reg.Get("openai"))
	assert.Empty(t, reg.List())

	openai := &stubProvider{name: "openai"}
	anthropic := &stubProvider{name: "anthropic"}
	reg.Register("openai", openai)
	reg.Register("anthropic", anthropic)

	assert.True(t, reg.Has("openai"))
	assert.Equal(t, openai, reg.Get("openai"))
	assert.Equal(t, anthropic, reg.Get("anthropic"))
	assert.ElementsMatch(t, []string{"openai", "anthropic"}, reg.List())
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	reg := NewRegistry()
	first := &stubProvider{name: "first"}
	second := &stubProvider{name: "second"}

	reg.Register("openai", first)
	reg.Register("openai", second)

	assert.Equal(t, second, reg.Get("openai"))
	assert.Equal(t, 1, len(reg.List()))
}
