package database

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bErrors "buddy/src/errors"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "buddy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open("postgres", filepath.Join(t.TempDir(), "x.db"))
	assert.Error(t, err)
}

func TestBuddyLifecycle(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ReadBuddy(ctx, "b1")
	assert.True(t, bErrors.IsNotFound(err))

	require.NoError(t, db.InsertBuddy(ctx, "b1", "friendly", []float64{0.9, 0.8, 0.4, 0.7, 0.6}, "neutral"))

	b, err := db.ReadBuddy(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "friendly", b.Personality)
	assert.Equal(t, []float64{0.9, 0.8, 0.4, 0.7, 0.6}, b.Traits)
	assert.Equal(t, "neutral", b.Mood)

	// Second insert keeps the first row
	require.NoError(t, db.InsertBuddy(ctx, "b1", "sarcastic", []float64{0.2}, "sad"))
	b, err = db.ReadBuddy(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "friendly", b.Personality)

	require.NoError(t, db.UpdateMood(ctx, "b1", "happy"))
	require.NoError(t, db.UpdateTraits(ctx, "b1", []float64{0.1, 0.2, 0.3}))

	b, err = db.ReadBuddy(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "happy", b.Mood)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, b.Traits)

	buddies, err := db.ListBuddies(ctx)
	require.NoError(t, err)
	assert.Len(t, buddies, 1)
}

func TestUpdateMissingBuddy(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	assert.True(t, bErrors.IsNotFound(db.UpdateMood(ctx, "ghost", "happy")))
	assert.True(t, bErrors.IsNotFound(db.UpdateTraits(ctx, "ghost", []float64{0.5})))
}

func TestRecentTurnsOldestFirst(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		turn, err := db.AppendTurn(ctx, Turn{
			BuddyID:     "b1",
			UserMessage: fmt.Sprintf("msg %d", i),
			BuddyReply:  fmt.Sprintf("reply %d", i),
			Mood:        "neutral",
			Timestamp:   base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
		assert.Greater(t, turn.ID, int64(0))
	}
	_, err := db.AppendTurn(ctx, Turn{BuddyID: "other", UserMessage: "x", BuddyReply: "y"})
	require.NoError(t, err)

	turns, err := db.RecentTurns(ctx, "b1", 5)
	require.NoError(t, err)
	require.Len(t, turns, 5)
	assert.Equal(t, "msg 2", turns[0].UserMessage)
	assert.Equal(t, "msg 6", turns[4].UserMessage)
	assert.Equal(t, "reply 6", turns[4].BuddyReply)

	none, err := db.RecentTurns(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecentTurnsSameTimestamp(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	ctx := context.Background()

	ts := time.Now()
	for i := 0; i < 3; i++ {
		_, err := db.AppendTurn(ctx, Turn{BuddyID: "b1", UserMessage: fmt.Sprint(i), BuddyReply: "r", Timestamp: ts})
		require.NoError(t, err)
	}

	turns, err := db.RecentTurns(ctx, "b1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "0", turns[0].UserMessage)
	assert.Equal(t, "2", turns[2].UserMessage)
}

func TestConcurrentInsertSameBuddy(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	const numGoroutines = 8
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	errs := make([]error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		i := i
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			errs[i] = db.InsertBuddy(ctx, "shared", "friendly", []float64{0.5}, "neutral")
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "goroutine %d", i)
	}

	buddies, err := db.ListBuddies(context.Background())
	require.NoError(t, err)
	assert.Len(t, buddies, 1)
}

func TestPing(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.Ping(context.Background()))
	assert.Equal(t, DriverSQLite, db.Driver())

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}
