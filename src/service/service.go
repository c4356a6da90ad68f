package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"buddy/src/cache"
	"buddy/src/database"
	"buddy/src/engine"
	bErrors "buddy/src/errors"
	"buddy/src/mood"
	"buddy/src/personality"
)

// DefaultHistoryLimit is the number of turns returned by Chat.
const DefaultHistoryLimit = 5

// Storage is everything the service persists through.
type Storage interface {
	personality.BuddyStore
	UpdateMood(ctx context.Context, buddyID, mood string) error
	AppendTurn(ctx context.Context, turn database.Turn) (database.Turn, error)
	RecentTurns(ctx context.Context, buddyID string, limit int) ([]database.Turn, error)
	Ping(ctx context.Context) error
}

// ChatResult is the outcome of one chat exchange.
type ChatResult struct {
	BuddyID string          `json:"buddy_id"`
	Mood    mood.Mood       `json:"mood"`
	Reply   string          `json:"reply"`
	History []database.Turn `json:"history"`
}

// Service is the entry point for initializing and chatting with buddies.
type Service struct {
	db           Storage
	registry     *engine.Registry
	history      cache.History
	historyLimit int
	logger       *slog.Logger
}

// Options configures a Service. Zero values pick defaults.
type Options struct {
	History      cache.History
	HistoryLimit int
	Logger       *slog.Logger
}

// New creates a Service over db and registry.
func New(db Storage, registry *engine.Registry, opts Options) *Service {
	if opts.History == nil {
		opts.History = cache.Nop{}
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		db:           db,
		registry:     registry,
		history:      opts.History,
		historyLimit: opts.HistoryLimit,
		logger:       opts.Logger,
	}
}

// Validate checks the identifiers shared by every request.
func Validate(buddyID, persona string) error {
	if strings.TrimSpace(buddyID) == "" {
		return &bErrors.ValidationError{Field: "buddy_id", Message: "must not be empty", Err: bErrors.ErrMissingRequired}
	}
	if strings.TrimSpace(persona) == "" {
		return &bErrors.ValidationError{Field: "personality", Message: "must not be empty", Err: bErrors.ErrMissingRequired}
	}
	return nil
}

// InitBuddy materialises the buddy's stored personality and installs a
// fresh engine for it, replacing any live one.
func (s *Service) InitBuddy(ctx context.Context, buddyID, persona string) string {
	s.registry.Init(ctx, buddyID, persona)
	s.logger.Info("buddy initialized", "buddy_id", buddyID, "personality", persona)
	return fmt.Sprintf("Buddy %s initialized with %s personality.", buddyID, persona)
}

// Chat produces a reply to message and records the exchange. Storage
// failures are logged and skipped, so a reply is always returned.
func (s *Service) Chat(ctx context.Context, buddyID, persona, message string) ChatResult {
	e, created := s.registry.GetOrCreate(ctx, buddyID, persona)
	if !created {
		e.UpdatePersonality(ctx, persona)
	}

	reply := e.GetReply(ctx, message)
	logger := s.logger.With("buddy_id", buddyID)
	logger.Debug("reply generated", "mood", reply.Mood, "source", reply.Source.String())

	turn := database.Turn{
		BuddyID:     buddyID,
		UserMessage: message,
		BuddyReply:  reply.Text,
	}
	if reply.Mood.Persistable() {
		turn.Mood = string(reply.Mood)
	}
	turn, err := s.db.AppendTurn(ctx, turn)
	if err != nil {
		logger.Warn("failed to save conversation", "error", err)
	} else if err := s.history.Append(ctx, turn); err != nil {
		logger.Warn("failed to cache conversation turn", "error", err)
	}

	if reply.Mood.Persistable() {
		if err := s.db.UpdateMood(ctx, buddyID, string(reply.Mood)); err != nil {
			logger.Warn("failed to update mood", "error", err)
		}
	}

	history, err := s.History(ctx, buddyID, s.historyLimit)
	if err != nil {
		logger.Warn("failed to load history", "error", err)
		history = []database.Turn{}
	}

	return ChatResult{
		BuddyID: buddyID,
		Mood:    reply.Mood,
		Reply:   reply.Text,
		History: history,
	}
}

// History returns up to limit recent turns, oldest first, preferring the
// cache.
func (s *Service) History(ctx context.Context, buddyID string, limit int) ([]database.Turn, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}

	turns, ok, err := s.history.Recent(ctx, buddyID, limit)
	if err != nil {
		s.logger.Warn("history cache read failed", "buddy_id", buddyID, "error", err)
	}
	if ok {
		return turns, nil
	}

	fill := limit >= s.historyLimit
	version, err := s.history.Version(ctx, buddyID)
	if err != nil {
		s.logger.Warn("history cache version read failed", "buddy_id", buddyID, "error", err)
		fill = false
	}

	turns, err = s.db.RecentTurns(ctx, buddyID, limit)
	if err != nil {
		return nil, err
	}
	if turns == nil {
		turns = []database.Turn{}
	}
	if fill {
		err := s.history.Fill(ctx, buddyID, version, turns)
		switch {
		case errors.Is(err, cache.ErrStale):
			s.logger.Debug("discarded stale history snapshot", "buddy_id", buddyID)
		case err != nil:
			s.logger.Warn("failed to fill history cache", "buddy_id", buddyID, "error", err)
		}
	}
	return turns, nil
}

// Personas lists the persona names with templates.
func (s *Service) Personas() []string {
	return s.registry.Deps().Store.Catalog().Names()
}

// Health pings storage.
func (s *Service) Health(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Registry exposes the live engines.
func (s *Service) Registry() *engine.Registry {
	return s.registry
}
