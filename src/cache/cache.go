package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"buddy/src/config"
	"buddy/src/database"
	bErrors "buddy/src/errors"
)

// ErrStale reports a Fill discarded because a turn was appended after
// its snapshot was taken.
var ErrStale = errors.New("history snapshot is stale")

// History caches the most recent conversation turns per buddy.
type History interface {
	// Recent returns up to limit turns oldest-first. ok is false on a miss.
	Recent(ctx context.Context, buddyID string, limit int) (turns []database.Turn, ok bool, err error)
	// Version returns a counter that every Append bumps. Read it before
	// loading the snapshot passed to Fill.
	Version(ctx context.Context, buddyID string) (int64, error)
	// Append adds a turn to an already cached history. Uncached buddies are
	// left alone so the next Recent misses and reloads from storage.
	Append(ctx context.Context, turn database.Turn) error
	// Fill replaces the cached history with turns, oldest-first. It returns
	// ErrStale when the version has moved past version.
	Fill(ctx context.Context, buddyID string, version int64, turns []database.Turn) error
	Close() error
}

// Nop is a History that never caches.
type Nop struct{}

func (Nop) Recent(context.Context, string, int) ([]database.Turn, bool, error) {
	return nil, false, nil
}

func (Nop) Version(context.Context, string) (int64, error) {
	return 0, nil
}

func (Nop) Append(context.Context, database.Turn) error {
	return nil
}

func (Nop) Fill(context.Context, string, int64, []database.Turn) error {
	return nil
}

func (Nop) Close() error {
	return nil
}

// RedisHistory keeps each buddy's latest turns in a Redis list keyed
// "{prefix}:history:list:{buddy_id}", oldest at the head.
type RedisHistory struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	size   int
}

// NewRedisHistory wraps client. size is the number of turns kept per buddy.
func NewRedisHistory(client *redis.Client, prefix string, ttl time.Duration, size int) *RedisHistory {
	if prefix == "" {
		prefix = "buddy"
	}
	if size <= 0 {
		size = 5
	}
	return &RedisHistory{client: client, prefix: prefix, ttl: ttl, size: size}
}

// New connects to the configured Redis server and verifies it answers.
// A disabled config yields Nop.
func New(ctx context.Context, cfg config.RedisConfig, size int) (History, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, bErrors.WrapWithContext(err, "failed to connect to redis at %s", cfg.Addr)
	}
	return NewRedisHistory(client, cfg.Prefix, cfg.TTL, size), nil
}

func (r *RedisHistory) key(buddyID string) string {
	return fmt.Sprintf("%s:history:list:%s", r.prefix, buddyID)
}

func (r *RedisHistory) versionKey(buddyID string) string {
	return fmt.Sprintf("%s:history:version:%s", r.prefix, buddyID)
}

func (r *RedisHistory) Recent(ctx context.Context, buddyID string, limit int) ([]database.Turn, bool, error) {
	if limit <= 0 || limit > r.size {
		return nil, false, nil
	}

	items, err := r.client.LRange(ctx, r.key(buddyID), int64(-limit), -1).Result()
	if err != nil {
		return nil, false, err
	}
	if len(items) == 0 {
		return nil, false, nil
	}

	turns := make([]database.Turn, 0, len(items))
	for _, item := range items {
		var t database.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, false, fmt.Errorf("failed to decode cached turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, true, nil
}

func (r *RedisHistory) Version(ctx context.Context, buddyID string) (int64, error) {
	v, err := r.client.Get(ctx, r.versionKey(buddyID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Append pushes turn when it is newer than the cached tail. A turn that is
// already cached is skipped and an out-of-order one drops the list, so the
// next read reloads from storage.
func (r *RedisHistory) Append(ctx context.Context, turn database.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}

	key := r.key(turn.BuddyID)
	versionKey := r.versionKey(turn.BuddyID)

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		var tail *database.Turn
		raw, err := tx.LIndex(ctx, key, -1).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			tail = &database.Turn{}
			if err := json.Unmarshal([]byte(raw), tail); err != nil {
				tail = nil
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Incr(ctx, versionKey)
			if r.ttl > 0 {
				pipe.Expire(ctx, versionKey, r.ttl)
			}
			switch {
			case raw != "" && tail == nil, tail != nil && tail.ID > turn.ID:
				pipe.Del(ctx, key)
			case tail != nil && tail.ID == turn.ID:
			default:
				pipe.RPushX(ctx, key, data)
				pipe.LTrim(ctx, key, int64(-r.size), -1)
				if r.ttl > 0 {
					pipe.Expire(ctx, key, r.ttl)
				}
			}
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return r.invalidate(ctx, turn.BuddyID)
	}
	return err
}

func (r *RedisHistory) Fill(ctx context.Context, buddyID string, version int64, turns []database.Turn) error {
	if len(turns) > r.size {
		turns = turns[len(turns)-r.size:]
	}

	values := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		values = append(values, data)
	}

	key := r.key(buddyID)
	versionKey := r.versionKey(buddyID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return ErrStale
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			if len(values) == 0 {
				return nil
			}
			pipe.RPush(ctx, key, values...)
			if r.ttl > 0 {
				pipe.Expire(ctx, key, r.ttl)
			}
			return nil
		})
		return err
	}, versionKey, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

// invalidate drops the cached list and bumps the version so in-flight
// fills are discarded.
func (r *RedisHistory) invalidate(ctx context.Context, buddyID string) error {
	versionKey := r.versionKey(buddyID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		if r.ttl > 0 {
			pipe.Expire(ctx, versionKey, r.ttl)
		}
		pipe.Del(ctx, r.key(buddyID))
		return nil
	})
	return err
}

func (r *RedisHistory) Close() error {
	return r.client.Close()
}
