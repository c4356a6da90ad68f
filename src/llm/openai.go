package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"buddy/src/config"
	bErrors "buddy/src/errors"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAIClient(cfg *config.LLMConfig) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}
	if cfg.URL != "" {
		clientConfig.BaseURL = cfg.URL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (c *OpenAIClient) Name() string {
	return "openai/" + c.model
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", wrapOpenAIError("chat", err)
	}
	if len(resp.Choices) == 0 {
		return "", &bErrors.BackendError{Backend: "openai", Operation: "chat", Err: bErrors.ErrEmptyReply}
	}

	return resp.Choices[0].Message.Content, nil
}

// Ping lists models and checks the configured one is served.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	models, err := c.client.ListModels(ctx)
	if err != nil {
		return wrapOpenAIError("ping", err)
	}

	for _, m := range models.Models {
		if m.ID == c.model {
			return nil
		}
	}
	return fmt.Errorf("openai model %s not found", c.model)
}

func wrapOpenAIError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &bErrors.BackendError{
			Backend:    "openai",
			Operation:  op,
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Err:        err,
		}
	}
	return &bErrors.BackendError{Backend: "openai", Operation: op, Err: err}
}
