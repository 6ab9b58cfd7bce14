package summarize

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sumgram/sumgram-backend/internal/config"
	"github.com/sumgram/sumgram-backend/internal/providers"
)

const (
	systemPrompt = "You are a helpful assistant that summarizes Telegram channel messages."
	userPrompt   = "Summarize the following messages:\n\n"

	// NoMessages is returned when there is nothing to summarize; no
	// provider call is made in that case.
	NoMessages = "No messages to summarize."

	// ChunkFailed stands in for a chunk whose provider call failed.
	ChunkFailed = "Failed to summarize this part."
)

// Pipeline splits arbitrary-length text into bounded chunks and
// summarizes each chunk independently against a generative text
// provider, reassembling the partial summaries in order.
type Pipeline struct {
	provider providers.Provider
	cfg      config.SummarizeConfig
	log      *logrus.Logger
}

func NewPipeline(provider providers.Provider, cfg config.SummarizeConfig, log *logrus.Logger) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 3000
	}
	return &Pipeline{provider: provider, cfg: cfg, log: log}
}

// Summarize joins texts with blank lines, chunks the result and submits
// each chunk sequentially: chunk i+1 is not sent before chunk i's
// response arrives, and chunks share no context. Per-chunk failures
// degrade to the ChunkFailed placeholder; the pipeline never aborts.
func (p *Pipeline) Summarize(ctx context.Context, texts []string) string {
	combined := strings.Join(texts, "\n\n")
	if combined == "" {
		return NoMessages
	}

	jobID := uuid.New().String()
	chunks := splitChunks(combined, p.cfg.ChunkSize)
	p.log.WithFields(logrus.Fields{
		"job_id": jobID,
		"chunks": len(chunks),
		"length": len([]rune(combined)),
	}).Info("summarizing messages")

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := p.summarizeChunk(ctx, chunk)
		if err != nil {
			p.log.WithError(err).WithFields(logrus.Fields{
				"job_id": jobID,
				"chunk":  i,
			}).Error("chunk summarization failed")
			summary = ChunkFailed
		}
		summaries = append(summaries, summary)
	}

	return strings.Join(summaries, "\n\n")
}

func (p *Pipeline) summarizeChunk(ctx context.Context, chunk string) (string, error) {
	temperature := p.cfg.Temperature
	maxTokens := p.cfg.MaxTokens

	resp, err := p.provider.Complete(ctx, providers.CompletionRequest{
		System: systemPrompt,
		Messages: []providers.Message{
			{Role: "user", Content: userPrompt + chunk},
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// splitChunks cuts text into contiguous rune chunks of at most size, in
// order, without overlap. The last chunk may be shorter.
func splitChunks(text string, size int) []string {
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
