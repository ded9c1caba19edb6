package llmservice

import (
	"context"
	"strings"

	"pdf-chat/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Client talks to an OpenAI-compatible chat completion endpoint
type Client struct {
	cfg *config.LLMConfig
}

func NewClient(cfg *config.LLMConfig) *Client {
	return &Client{cfg: cfg}
}

// Generate runs a chat completion. When streamFn is non-nil the response is
// streamed through it token by token, the full text is returned either way.
func (c *Client) Generate(ctx context.Context, messages []llms.MessageContent, streamFn func(ctx context.Context, chunk []byte) error) (string, error) {
	log.Debug().Str("model", c.cfg.Model).Int("messages", len(messages)).Msg("Generating content")

	llm, err := openai.New(
		openai.WithBaseURL(c.cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(c.cfg.Key, "Bearer ")),
		openai.WithModel(c.cfg.Model),
	)
	if err != nil {
		return "", err
	}

	opts := []llms.CallOption{llms.WithTemperature(c.cfg.Temperature)}
	if streamFn != nil {
		opts = append(opts, llms.WithStreamingFunc(streamFn))
	}

	res, err := llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", nil
	}
	return res.Choices[0].Content, nil
}
