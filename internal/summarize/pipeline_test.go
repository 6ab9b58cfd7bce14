package summarize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/sumgram/sumgram-backend/internal/config"
	"github.com/sumgram/sumgram-backend/internal/providers"
)

type fakeProvider struct {
	chunks []string
	fail   map[int]bool
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) ValidateConfig() error { return nil }

func (f *fakeProvider) Complete(_ context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	call := len(f.chunks)
	f.chunks = append(f.chunks, strings.TrimPrefix(req.Messages[0].Content, userPrompt))
	if f.fail[call] {
		return nil, errors.New("api error")
	}
	return &providers.CompletionResponse{Content: fmt.Sprintf("summary-%d", call)}, nil
}

func newTestPipeline(provider providers.Provider) *Pipeline {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewPipeline(provider, config.SummarizeConfig{
		ChunkSize:   3000,
		MaxTokens:   2000,
		Temperature: 0.7,
	}, log)
}

func TestSummarize_NoMessages(t *testing.T) {
	provider := &fakeProvider{}
	pipeline := newTestPipeline(provider)

	assert.Equal(t, NoMessages, pipeline.Summarize(context.Background(), nil))
	assert.Equal(t, NoMessages, pipeline.Summarize(context.Background(), []string{}))
	assert.Equal(t, NoMessages, pipeline.Summarize(context.Background(), []string{""}))

	// The sentinel is produced without touching the provider.
	assert.Empty(t, provider.chunks)
}

func TestSummarize_JoinsMessagesWithBlankLine(t *testing.T) {
	provider := &fakeProvider{}
	pipeline := newTestPipeline(provider)

	result := pipeline.Summarize(context.Background(), []string{"first", "second"})

	assert.Equal(t, "summary-0", result)
	assert.Equal(t, []string{"first\n\nsecond"}, provider.chunks)
}

func TestSummarize_ChunksLongText(t *testing.T) {
	provider := &fakeProvider{}
	pipeline := newTestPipeline(provider)

	result := pipeline.Summarize(context.Background(), []string{strings.Repeat("x", 7000)})

	assert.Equal(t, 3, len(provider.chunks))
	assert.Equal(t, 3000, len([]rune(provider.chunks[0])))
	assert.Equal(t, 3000, len([]rune(provider.chunks[1])))
	assert.Equal(t, 1000, len([]rune(provider.chunks[2])))
	assert.Equal(t, "summary-0\n\nsummary-1\n\nsummary-2", result)
}

func TestSummarize_ChunksPreserveOrderAndContent(t *testing.T) {
	provider := &fakeProvider{}
	pipeline := newTestPipeline(provider)

	text := strings.Repeat("a", 3000) + strings.Repeat("b", 3000) + strings.Repeat("c", 500)
	pipeline.Summarize(context.Background(), []string{text})

	assert.Equal(t, strings.Repeat("a", 3000), provider.chunks[0])
	assert.Equal(t, strings.Repeat("b", 3000), provider.chunks[1])
	assert.Equal(t, strings.Repeat("c", 500), provider.chunks[2])
}

func TestSummarize_ChunkFailureDegradesToPlaceholder(t *testing.T) {
	provider := &fakeProvider{fail: map[int]bool{1: true}}
	pipeline := newTestPipeline(provider)

	result := pipeline.Summarize(context.Background(), []string{strings.Repeat("x", 7000)})

	assert.Equal(t, 3, len(provider.chunks))
	assert.Equal(t, "summary-0\n\n"+ChunkFailed+"\n\nsummary-2", result)
}

func TestSummarize_SplitsByRunesNotBytes(t *testing.T) {
	provider := &fakeProvider{}
	pipeline := newTestPipeline(provider)

	// 3001 multi-byte runes must split 3000/1, never mid-rune.
	pipeline.Summarize(context.Background(), []string{strings.Repeat("щ", 3001)})

	assert.Equal(t, 2, len(provider.chunks))
	assert.Equal(t, 3000, len([]rune(provider.chunks[0])))
	assert.Equal(t, 1, len([]rune(provider.chunks[1])))
}

func TestSplitChunks_Empty(t *testing.T) {
	assert.Empty(t, splitChunks("", 3000))
}
