package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"buddy/src/config"
	bErrors "buddy/src/errors"
)

type OllamaClient struct {
	baseURL     string
	model       string
	maxTokens   int
	temperature float32
	client      *http.Client
}

type OllamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type OllamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func NewOllamaClient(cfg *config.LLMConfig) *OllamaClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaClient{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *OllamaClient) Name() string {
	return "ollama/" + c.model
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := OllamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}
	options := map[string]any{}
	if c.maxTokens > 0 {
		options["num_predict"] = c.maxTokens
	}
	if c.temperature > 0 {
		options["temperature"] = c.temperature
	}
	if len(options) > 0 {
		reqBody.Options = options
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &bErrors.BackendError{Backend: "ollama", Operation: "generate", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &bErrors.BackendError{Backend: "ollama", Operation: "generate", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &bErrors.BackendError{
			Backend:    "ollama",
			Operation:  "generate",
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var genResp OllamaGenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", &bErrors.BackendError{Backend: "ollama", Operation: "generate", Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	return genResp.Response, nil
}

// Ping checks that the server answers and the configured model is pulled.
func (c *OllamaClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &bErrors.BackendError{Backend: "ollama", Operation: "ping", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &bErrors.BackendError{Backend: "ollama", Operation: "ping", StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var tagsResp struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tagsResp); err != nil {
		return &bErrors.BackendError{Backend: "ollama", Operation: "ping", Err: err}
	}

	for _, model := range tagsResp.Models {
		if model.Name == c.model || model.Name == c.model+":latest" {
			return nil
		}
	}

	return fmt.Errorf("ollama model %s not found", c.model)
}
