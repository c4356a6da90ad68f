package personality

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"buddy/src/database"
	bErrors "buddy/src/errors"
	"buddy/src/mood"
)

// BuddyStore is the storage the personality store needs.
type BuddyStore interface {
	ReadBuddy(ctx context.Context, buddyID string) (*database.Buddy, error)
	InsertBuddy(ctx context.Context, buddyID, personality string, traits []float64, mood string) error
	UpdateTraits(ctx context.Context, buddyID string, traits []float64) error
}

// Origin records where a resolved profile came from.
type Origin int

const (
	// OriginStored means an existing row was loaded.
	OriginStored Origin = iota
	// OriginCreated means a default template was persisted for a new buddy.
	OriginCreated
	// OriginDefault means storage failed and a template was used without
	// being persisted.
	OriginDefault
)

func (o Origin) String() string {
	switch o {
	case OriginStored:
		return "stored"
	case OriginCreated:
		return "created"
	default:
		return "default"
	}
}

// Profile is the resolved personality state of one buddy.
type Profile struct {
	Traits TraitVector
	Mood   mood.Mood
	Origin Origin
}

// Store owns the authoritative trait vector per buddy.
type Store struct {
	db      BuddyStore
	catalog *Catalog
	logger  *slog.Logger

	inflight singleflight.Group
}

// NewStore creates a personality store. A nil catalog uses only the
// embedded templates.
func NewStore(db BuddyStore, catalog *Catalog, logger *slog.Logger) *Store {
	if catalog == nil {
		catalog = NewCatalog("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, catalog: catalog, logger: logger}
}

// Catalog returns the template catalog backing this store.
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// Load resolves the profile for buddyID. An existing row is returned
// verbatim and persona is ignored. Otherwise the persona template is
// persisted with a neutral mood and returned. Storage failures are logged
// and the template is returned unpersisted.
func (s *Store) Load(ctx context.Context, buddyID, persona string) Profile {
	// Concurrent first reads for one buddy share a single read-or-insert.
	v, _, _ := s.inflight.Do(buddyID, func() (interface{}, error) {
		return s.load(ctx, buddyID, persona), nil
	})
	p := v.(Profile)
	p.Traits = p.Traits.Clone()
	return p
}

func (s *Store) load(ctx context.Context, buddyID, persona string) Profile {
	row, err := s.db.ReadBuddy(ctx, buddyID)
	switch {
	case err == nil:
		traits := TraitVector(row.Traits)
		if len(traits) == 0 {
			s.logger.Warn("stored trait vector is empty, using defaults",
				"buddy_id", buddyID, "personality", row.Personality)
			traits = s.catalog.DefaultVector(row.Personality)
		}
		m, ok := mood.Parse(row.Mood)
		if !ok {
			s.logger.Warn("stored mood is not recognised", "buddy_id", buddyID, "mood", row.Mood)
		}
		return Profile{Traits: traits, Mood: m, Origin: OriginStored}

	case bErrors.IsNotFound(err):
		vec := s.catalog.DefaultVector(persona)
		if err := s.db.InsertBuddy(ctx, buddyID, persona, vec, string(mood.Neutral)); err != nil {
			s.logger.Warn("failed to initialize buddy", "buddy_id", buddyID, "personality", persona, "error", err)
			return Profile{Traits: vec, Mood: mood.Neutral, Origin: OriginDefault}
		}
		s.logger.Info("buddy created", "buddy_id", buddyID, "personality", persona, "traits", vec.String())
		return Profile{Traits: vec, Mood: mood.Neutral, Origin: OriginCreated}

	default:
		s.logger.Warn("failed to fetch personality vector", "buddy_id", buddyID, "error", err)
		return Profile{Traits: s.catalog.DefaultVector(persona), Mood: mood.Neutral, Origin: OriginDefault}
	}
}

// GetVector returns the trait vector for buddyID, materialising the persona
// default on first use.
func (s *Store) GetVector(ctx context.Context, buddyID, persona string) TraitVector {
	return s.Load(ctx, buddyID, persona).Traits
}

// UpdateVector overwrites the stored vector of an existing buddy. Missing
// buddies and storage errors are logged and ignored.
func (s *Store) UpdateVector(ctx context.Context, buddyID string, vec TraitVector) {
	if err := s.db.UpdateTraits(ctx, buddyID, vec.Clone()); err != nil {
		s.logger.Warn("failed to update personality vector", "buddy_id", buddyID, "error", err)
	}
}
