package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buddy/src/config"
	bErrors "buddy/src/errors"
)

func newOllamaServer(t *testing.T, generateStatus int, reply string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{{"name": "phi3:mini"}, {"name": "llama3:latest"}},
		})
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var req OllamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if generateStatus != http.StatusOK {
			http.Error(w, "model crashed", generateStatus)
			return
		}
		json.NewEncoder(w).Encode(OllamaGenerateResponse{Response: reply + " <" + req.Model + ">", Done: true})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaGenerate(t *testing.T) {
	srv := newOllamaServer(t, http.StatusOK, "Buddy: hi there")
	c := NewOllamaClient(&config.LLMConfig{URL: srv.URL + "/", Model: "phi3:mini", MaxTokens: 50, Temperature: 0.8})

	out, err := c.Generate(context.Background(), "User: hello\nBuddy:")
	require.NoError(t, err)
	assert.Equal(t, "Buddy: hi there <phi3:mini>", out)
	assert.Equal(t, "ollama/phi3:mini", c.Name())
}

func TestOllamaGenerateHTTPError(t *testing.T) {
	srv := newOllamaServer(t, http.StatusInternalServerError, "")
	c := NewOllamaClient(&config.LLMConfig{URL: srv.URL, Model: "phi3:mini"})

	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)

	var be *bErrors.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusInternalServerError, be.StatusCode)
	assert.True(t, bErrors.IsBackendFailure(err))
}

func TestOllamaPing(t *testing.T) {
	srv := newOllamaServer(t, http.StatusOK, "")
	ctx := context.Background()

	assert.NoError(t, NewOllamaClient(&config.LLMConfig{URL: srv.URL, Model: "phi3:mini"}).Ping(ctx))
	assert.NoError(t, NewOllamaClient(&config.LLMConfig{URL: srv.URL, Model: "llama3"}).Ping(ctx))
	assert.Error(t, NewOllamaClient(&config.LLMConfig{URL: srv.URL, Model: "mistral"}).Ping(ctx))
}

func TestOllamaGenerateHonoursContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c := NewOllamaClient(&config.LLMConfig{URL: srv.URL, Model: "phi3:mini"})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, "prompt")
	assert.Error(t, err)
}

func newOpenAIServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o-mini","object":"model"}]}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Sure thing!"},"finish_reason":"stop"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerate(t *testing.T) {
	srv := newOpenAIServer(t)
	c := NewOpenAIClient(&config.LLMConfig{URL: srv.URL + "/v1", APIKey: "test-key", Model: "gpt-4o-mini"})

	out, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Sure thing!", out)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestOpenAIGenerateUnauthorized(t *testing.T) {
	srv := newOpenAIServer(t)
	c := NewOpenAIClient(&config.LLMConfig{URL: srv.URL + "/v1", APIKey: "wrong", Model: "gpt-4o-mini"})

	_, err := c.Generate(context.Background(), "hello")
	require.Error(t, err)

	var be *bErrors.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusUnauthorized, be.StatusCode)
}

func TestOpenAIPingUnknownModel(t *testing.T) {
	srv := newOpenAIServer(t)
	c := NewOpenAIClient(&config.LLMConfig{URL: srv.URL + "/v1", APIKey: "test-key", Model: "gpt-9"})
	assert.Error(t, c.Ping(context.Background()))
}

func TestProbe(t *testing.T) {
	ctx := context.Background()
	srv := newOllamaServer(t, http.StatusOK, "")

	tests := []struct {
		name      string
		cfg       *config.LLMConfig
		available bool
	}{
		{"nil config", nil, false},
		{"disabled", &config.LLMConfig{Enabled: false, Provider: "ollama", URL: srv.URL, Model: "phi3:mini"}, false},
		{"unknown provider", &config.LLMConfig{Enabled: true, Provider: "transformers"}, false},
		{"missing model", &config.LLMConfig{Enabled: true, Provider: "ollama", URL: srv.URL, Model: "nope"}, false},
		{"unreachable", &config.LLMConfig{Enabled: true, Provider: "ollama", URL: "http://127.0.0.1:1", Model: "phi3:mini", Timeout: time.Second}, false},
		{"ollama ok", &config.LLMConfig{Enabled: true, Provider: "ollama", URL: srv.URL, Model: "phi3:mini"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capability := Probe(ctx, tt.cfg)
			_, ok := capability.Backend()
			assert.Equal(t, tt.available, ok)
			if tt.available {
				assert.NoError(t, capability.Reason())
			} else {
				assert.ErrorIs(t, capability.Reason(), bErrors.ErrBackendUnavailable)
			}
		})
	}
}

func TestProbeHangingOpenAIEndpointTimesOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.LLMConfig{
		Enabled:  true,
		Provider: "openai",
		URL:      srv.URL + "/v1",
		APIKey:   "test-key",
		Model:    "gpt-4o-mini",
		Timeout:  100 * time.Millisecond,
	}

	start := time.Now()
	capability := Probe(context.Background(), cfg)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.ErrorIs(t, capability.Reason(), bErrors.ErrBackendUnavailable)

	start = time.Now()
	_, err := NewOpenAIClient(cfg).Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, bErrors.IsBackendFailure(err))
}

func TestCapabilityZeroValueIsUnavailable(t *testing.T) {
	var c Capability
	_, ok := c.Backend()
	assert.False(t, ok)
	assert.ErrorIs(t, c.Reason(), bErrors.ErrBackendUnavailable)
	assert.Contains(t, c.String(), "unavailable")
}
