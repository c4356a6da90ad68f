package llm

import (
	"context"
	"fmt"
	"strings"

	"buddy/src/config"
	bErrors "buddy/src/errors"
)

// Backend is an optional text-generation model.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string
	// Generate returns the model's raw completion for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// Ping verifies the backend is reachable and can serve requests.
	Ping(ctx context.Context) error
}

// Capability is the result of probing for a backend once at startup:
// either a usable Backend or the reason none is available.
type Capability struct {
	backend Backend
	reason  error
}

// Available wraps a backend that passed its probe.
func Available(b Backend) Capability {
	return Capability{backend: b}
}

// Unavailable records why no backend can be used.
func Unavailable(reason error) Capability {
	if reason == nil {
		reason = bErrors.ErrBackendUnavailable
	}
	return Capability{reason: reason}
}

// Backend returns the backend and true when one is available.
func (c Capability) Backend() (Backend, bool) {
	return c.backend, c.backend != nil
}

// Reason explains an unavailable capability. It is nil when available.
func (c Capability) Reason() error {
	if c.backend != nil {
		return nil
	}
	if c.reason == nil {
		return bErrors.ErrBackendUnavailable
	}
	return c.reason
}

func (c Capability) String() string {
	if c.backend != nil {
		return "available (" + c.backend.Name() + ")"
	}
	return "unavailable: " + c.Reason().Error()
}

// New constructs the backend named by cfg.Provider without probing it.
func New(cfg *config.LLMConfig) (Backend, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		return NewOllamaClient(cfg), nil
	case "openai":
		return NewOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// Probe resolves the generative capability from settings. A disabled,
// misconfigured or unreachable backend yields Unavailable. The probe is
// bounded by cfg.Timeout.
func Probe(ctx context.Context, cfg *config.LLMConfig) Capability {
	if cfg == nil || !cfg.Enabled {
		return Unavailable(fmt.Errorf("%w: disabled in settings", bErrors.ErrBackendUnavailable))
	}

	backend, err := New(cfg)
	if err != nil {
		return Unavailable(fmt.Errorf("%w: %v", bErrors.ErrBackendUnavailable, err))
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if err := backend.Ping(ctx); err != nil {
		return Unavailable(fmt.Errorf("%w: %v", bErrors.ErrBackendUnavailable, err))
	}

	return Available(backend)
}
