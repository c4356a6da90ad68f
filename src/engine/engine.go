package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	bErrors "buddy/src/errors"
	"buddy/src/llm"
	"buddy/src/mood"
	"buddy/src/personality"
	"buddy/src/responder"
)

const (
	// FallbackApology replaces a reply when the template generator fails.
	FallbackApology = "Oops! Something went wrong while generating a response."
	// NotUnderstood replaces an empty reply.
	NotUnderstood = "Hmm, I didn't understand that. Can you rephrase?"
	// CatastrophicApology is returned with mood.Confused when reply
	// generation fails outright.
	CatastrophicApology = "Oops! Something went wrong while thinking..."
)

// State is the lifecycle state of an Engine.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

// Source says which path produced a reply.
type Source int

const (
	SourceBackend Source = iota
	SourceTemplate
	SourceFailure
)

func (s Source) String() string {
	switch s {
	case SourceBackend:
		return "backend"
	case SourceTemplate:
		return "template"
	default:
		return "failure"
	}
}

// Reply is the outcome of one GetReply call. Text is never empty.
type Reply struct {
	Mood   mood.Mood
	Text   string
	Source Source
}

// Deps are the collaborators shared by every engine in a process.
type Deps struct {
	Store      *personality.Store
	Classifier *mood.Classifier
	Responder  *responder.Responder
	Capability llm.Capability
	Logger     *slog.Logger

	// Timeout bounds a single backend call. Zero means no bound beyond ctx.
	Timeout time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Classifier == nil {
		d.Classifier = mood.NewClassifier(nil, d.Logger)
	}
	if d.Responder == nil {
		d.Responder = responder.New(nil)
	}
	return d
}

// Engine orchestrates reply generation for one buddy.
type Engine struct {
	buddyID string
	deps    Deps
	logger  *slog.Logger

	mu      sync.Mutex
	persona string
	state   State
	traits  personality.TraitVector
	mood    mood.Mood
	origin  personality.Origin
}

// New creates an uninitialized engine for buddyID.
func New(buddyID, persona string, deps Deps) *Engine {
	deps = deps.withDefaults()
	return &Engine{
		buddyID: buddyID,
		deps:    deps,
		logger:  deps.Logger.With("buddy_id", buddyID),
		persona: persona,
		state:   Uninitialized,
		mood:    mood.Neutral,
	}
}

// BuddyID returns the buddy this engine serves.
func (e *Engine) BuddyID() string {
	return e.buddyID
}

// Init resolves the trait vector and stored mood and moves the engine to
// Ready. Calling it again reloads from the store.
func (e *Engine) Init(ctx context.Context) {
	e.mu.Lock()
	persona := e.persona
	e.mu.Unlock()

	profile := e.load(ctx, persona)

	e.mu.Lock()
	e.traits = profile.Traits
	e.mood = profile.Mood
	e.origin = profile.Origin
	e.state = Ready
	e.mu.Unlock()

	e.logger.Debug("engine ready", "personality", persona, "origin", profile.Origin.String(), "traits", profile.Traits.String())
}

func (e *Engine) load(ctx context.Context, persona string) (p personality.Profile) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("failed to initialize personality vector", "panic", r)
			p = personality.Profile{
				Traits: personality.NewCatalog("").DefaultVector("friendly"),
				Mood:   mood.Neutral,
				Origin: personality.OriginDefault,
			}
		}
	}()
	return e.deps.Store.Load(ctx, e.buddyID, persona)
}

// UpdatePersonality re-resolves the trait vector against persona. A buddy
// that already has a stored vector keeps it. The current mood is kept.
func (e *Engine) UpdatePersonality(ctx context.Context, persona string) {
	profile := e.load(ctx, persona)

	e.mu.Lock()
	e.persona = persona
	e.traits = profile.Traits
	e.origin = profile.Origin
	if e.state == Uninitialized {
		e.mood = profile.Mood
		e.state = Ready
	}
	e.mu.Unlock()
}

// RefreshMood resets the in-memory mood to neutral.
func (e *Engine) RefreshMood() {
	e.mu.Lock()
	e.mood = mood.Neutral
	e.mu.Unlock()
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Mood returns the current in-memory mood.
func (e *Engine) Mood() mood.Mood {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mood
}

// Traits returns a copy of the cached trait vector.
func (e *Engine) Traits() personality.TraitVector {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.traits.Clone()
}

// GetReply classifies message, then asks the backend for a reply and falls
// back to the template generator. It never fails: a recovered panic yields
// mood.Confused with CatastrophicApology.
func (e *Engine) GetReply(ctx context.Context, message string) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("reply generation failed", "panic", r)
			reply = Reply{Mood: mood.Confused, Text: CatastrophicApology, Source: SourceFailure}
		}
	}()

	if e.State() == Uninitialized {
		e.Init(ctx)
	}

	e.mu.Lock()
	prior := e.mood
	traits := e.traits
	e.mu.Unlock()

	m := e.deps.Classifier.Classify(message, prior)

	e.mu.Lock()
	e.mood = m
	e.mu.Unlock()

	if text, err := e.fromBackend(ctx, m, traits, message); err == nil {
		return Reply{Mood: m, Text: text, Source: SourceBackend}
	} else if !errors.Is(err, bErrors.ErrBackendUnavailable) {
		e.logger.Warn("LLM generation failed", "error", err)
	}

	text, err := e.deps.Responder.Generate(traits, m, message)
	if err != nil {
		e.logger.Error("responder fallback failed", "error", err)
		if text == "" {
			text = FallbackApology
		}
	}
	if strings.TrimSpace(text) == "" {
		text = NotUnderstood
	}
	return Reply{Mood: m, Text: text, Source: SourceTemplate}
}

// fromBackend returns a usable backend reply or the reason there is none.
func (e *Engine) fromBackend(ctx context.Context, m mood.Mood, traits personality.TraitVector, message string) (string, error) {
	backend, ok := e.deps.Capability.Backend()
	if !ok {
		return "", e.deps.Capability.Reason()
	}

	if e.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.deps.Timeout)
		defer cancel()
	}

	output, err := generate(ctx, backend, BuildPrompt(m, traits, message))
	if err != nil {
		return "", bErrors.WrapWithContext(err, "%s", backend.Name())
	}

	text := ExtractReply(output)
	if text == "" {
		return "", &bErrors.BackendError{Backend: backend.Name(), Operation: "generate", Err: bErrors.ErrEmptyReply}
	}
	return text, nil
}

// generate calls backend and reports a panic or a bare error as a
// BackendError.
func generate(ctx context.Context, backend llm.Backend, prompt string) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &bErrors.BackendError{Backend: backend.Name(), Operation: "generate", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	output, err = backend.Generate(ctx, prompt)
	if err != nil && !bErrors.IsBackendFailure(err) {
		err = &bErrors.BackendError{Backend: backend.Name(), Operation: "generate", Err: err}
	}
	return output, err
}
