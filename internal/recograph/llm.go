package recograph

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"cracktunes/internal/types"
)

// LLMProvider is the cold-start fallback: when the co-listen graph has no
// FOLLOWED_BY edge for the finished track, ask the configured model for one
// similar track and hand the result back as free-text keywords for the
// normal resolver to re-resolve.
type LLMProvider struct {
	client *openai.Client
	mu     sync.RWMutex
	model  string
	logger *zap.Logger
}

// NewLLMProvider points the client at a LiteLLM-style proxy (baseURL) so the
// same SDK works against OpenAI or any compatible router. An empty apiKey is
// allowed for proxies that don't require one.
func NewLLMProvider(baseURL, apiKey, model string, logger *zap.Logger) *LLMProvider {
	if apiKey == "" {
		apiKey = "dummy-key"
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL + "/v1"
	}
	return &LLMProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}
}

func (p *LLMProvider) SetModel(model string) {
	if model == "" {
		return
	}
	p.mu.Lock()
	p.model = model
	p.mu.Unlock()
}

const suggestionSystemPrompt = `You suggest one similar song for an autoplay queue.
Reply with exactly one line in the form "Artist - Song Title" and nothing else.
Do not repeat the song you were given.`

// Recommend asks the model for a track similar to finished and wraps the
// reply as Keywords for the resolver's generic search path. It never
// returns a graph-style candidate directly since the model has no source
// URL to offer.
func (p *LLMProvider) Recommend(ctx context.Context, finished types.TrackMetadata, history map[string]struct{}) (types.QueryKind, error) {
	p.mu.RLock()
	model := p.model
	p.mu.RUnlock()
	if model == "" {
		return nil, nil
	}

	userMsg := fmt.Sprintf("The last song played was %q by %q. Suggest one similar song.",
		finished.Title(), finished.Artist)

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: suggestionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMsg},
		},
		Temperature: 0.8,
	}

	var resp openai.ChatCompletionResponse
	var err error
	const maxRetries = 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
			p.logger.Warn("retrying autoplay suggestion request", zap.Int("attempt", attempt+1))
		}
		resp, err = p.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}
		p.logger.Error("autoplay suggestion request failed", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	if err != nil {
		return nil, fmt.Errorf("recograph: llm suggestion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil
	}

	suggestion := strings.TrimSpace(resp.Choices[0].Message.Content)
	if suggestion == "" {
		return nil, nil
	}
	if _, seen := history[suggestion]; seen {
		return nil, nil
	}
	return types.Keywords{Text: suggestion}, nil
}
