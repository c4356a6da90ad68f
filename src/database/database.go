package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	bErrors "buddy/src/errors"
)

const (
	DriverLibSQL = "libsql"
	DriverSQLite = "sqlite"
)

// Buddy is one persisted persona instance.
type Buddy struct {
	ID          string
	Personality string
	Traits      []float64
	Mood        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Turn is one append-only conversation log entry.
type Turn struct {
	ID          int64     `json:"id"`
	BuddyID     string    `json:"buddy_id"`
	UserMessage string    `json:"user_message"`
	BuddyReply  string    `json:"buddy_reply"`
	Mood        string    `json:"mood"`
	Timestamp   time.Time `json:"timestamp"`
}

type DB struct {
	db     *sql.DB
	tx     *TxManager
	driver string
}

// Open creates a database connection using driver ("libsql" or "sqlite")
// and applies the schema.
func Open(driver, dbPath string) (*DB, error) {
	if driver == "" {
		driver = DriverLibSQL
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	var dsn string
	switch driver {
	case DriverLibSQL:
		dsn = "file:" + dbPath
	case DriverSQLite:
		dsn = "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", errors.Join(bErrors.ErrDatabaseConnection, err))
	}

	if driver == DriverSQLite {
		// modernc serialises writers per connection; one connection avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	d := &DB{db: db, tx: NewTxManager(db), driver: driver}

	if err := d.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return d, nil
}

// initSchema creates tables and indexes if they don't exist
func (d *DB) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS buddies (
			buddy_id TEXT PRIMARY KEY,
			personality_type TEXT NOT NULL,
			traits TEXT NOT NULL,
			current_mood TEXT NOT NULL DEFAULT 'neutral',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			buddy_id TEXT NOT NULL,
			user_message TEXT NOT NULL,
			buddy_reply TEXT NOT NULL,
			mood TEXT,
			timestamp INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_buddy ON conversations(buddy_id, timestamp)`,
	}

	for _, stmt := range statements {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Driver returns the database/sql driver name in use.
func (d *DB) Driver() string {
	return d.driver
}

// Ping verifies the database is reachable
func (d *DB) Ping(ctx context.Context) error {
	var one int
	if err := d.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return bErrors.NewDatabaseError("ping", "-", err)
	}
	return nil
}

// ReadBuddy loads a buddy row. A missing row yields ErrRecordNotFound.
func (d *DB) ReadBuddy(ctx context.Context, buddyID string) (*Buddy, error) {
	query := `
	SELECT buddy_id, personality_type, traits, current_mood, created_at, updated_at
	FROM buddies
	WHERE buddy_id = ?
	`

	var (
		b                    Buddy
		traits               string
		createdAt, updatedAt int64
	)
	err := d.db.QueryRowContext(ctx, query, buddyID).Scan(
		&b.ID, &b.Personality, &traits, &b.Mood, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bErrors.NewDatabaseError("query", "buddies", bErrors.ErrRecordNotFound)
	}
	if err != nil {
		return nil, bErrors.NewDatabaseError("query", "buddies", err)
	}

	if err := json.Unmarshal([]byte(traits), &b.Traits); err != nil {
		return nil, bErrors.NewDatabaseError("decode", "buddies", err)
	}
	b.CreatedAt = time.UnixMilli(createdAt)
	b.UpdatedAt = time.UnixMilli(updatedAt)

	return &b, nil
}

// InsertBuddy creates a buddy row. If the row already exists the first
// writer's values are kept.
func (d *DB) InsertBuddy(ctx context.Context, buddyID, personality string, traits []float64, mood string) error {
	encoded, err := json.Marshal(traits)
	if err != nil {
		return bErrors.NewDatabaseError("encode", "buddies", err)
	}

	now := time.Now().UnixMilli()
	insertSQL := `
	INSERT INTO buddies (buddy_id, personality_type, traits, current_mood, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(buddy_id) DO NOTHING
	`

	err = d.tx.ExecuteInWriteTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insertSQL, buddyID, personality, string(encoded), mood, now, now)
		return err
	})
	if err != nil {
		return bErrors.NewDatabaseError("insert", "buddies", err)
	}
	return nil
}

// UpdateMood overwrites the stored mood of an existing buddy.
func (d *DB) UpdateMood(ctx context.Context, buddyID, mood string) error {
	return d.updateBuddy(ctx, "current_mood", mood, buddyID)
}

// UpdateTraits overwrites the stored trait vector of an existing buddy.
func (d *DB) UpdateTraits(ctx context.Context, buddyID string, traits []float64) error {
	encoded, err := json.Marshal(traits)
	if err != nil {
		return bErrors.NewDatabaseError("encode", "buddies", err)
	}
	return d.updateBuddy(ctx, "traits", string(encoded), buddyID)
}

// column is always a compile-time constant from this file.
func (d *DB) updateBuddy(ctx context.Context, column string, value any, buddyID string) error {
	updateSQL := fmt.Sprintf(`UPDATE buddies SET %s = ?, updated_at = ? WHERE buddy_id = ?`, column)

	res, err := d.db.ExecContext(ctx, updateSQL, value, time.Now().UnixMilli(), buddyID)
	if err != nil {
		return bErrors.NewDatabaseError("update", "buddies", err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return bErrors.NewDatabaseError("update", "buddies", bErrors.ErrRecordNotFound)
	}
	return nil
}

// AppendTurn stores a conversation turn and returns it with ID and
// timestamp filled in.
func (d *DB) AppendTurn(ctx context.Context, turn Turn) (Turn, error) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	insertSQL := `
	INSERT INTO conversations (buddy_id, user_message, buddy_reply, mood, timestamp)
	VALUES (?, ?, ?, ?, ?)
	`

	err := d.tx.ExecuteInWriteTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, insertSQL,
			turn.BuddyID, turn.UserMessage, turn.BuddyReply, sql.NullString{String: turn.Mood, Valid: turn.Mood != ""}, turn.Timestamp.UnixMilli())
		if err != nil {
			return err
		}
		turn.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return Turn{}, bErrors.NewDatabaseError("insert", "conversations", err)
	}

	return turn, nil
}

// RecentTurns returns up to limit of the latest turns for a buddy, oldest first.
func (d *DB) RecentTurns(ctx context.Context, buddyID string, limit int) ([]Turn, error) {
	query := `
	SELECT id, buddy_id, user_message, buddy_reply, COALESCE(mood, ''), timestamp
	FROM conversations
	WHERE buddy_id = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`

	rows, err := d.db.QueryContext(ctx, query, buddyID, limit)
	if err != nil {
		return nil, bErrors.NewDatabaseError("query", "conversations", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var ts int64
		if err := rows.Scan(&t.ID, &t.BuddyID, &t.UserMessage, &t.BuddyReply, &t.Mood, &ts); err != nil {
			return nil, bErrors.NewDatabaseError("scan", "conversations", err)
		}
		t.Timestamp = time.UnixMilli(ts)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, bErrors.NewDatabaseError("query", "conversations", err)
	}

	// Reverse to oldest first
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

// ListBuddies returns all buddy rows ordered by creation time.
func (d *DB) ListBuddies(ctx context.Context) ([]Buddy, error) {
	rows, err := d.db.QueryContext(ctx, `
	SELECT buddy_id, personality_type, traits, current_mood, created_at, updated_at
	FROM buddies
	ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, bErrors.NewDatabaseError("query", "buddies", err)
	}
	defer rows.Close()

	var buddies []Buddy
	for rows.Next() {
		var (
			b                    Buddy
			traits               string
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&b.ID, &b.Personality, &traits, &b.Mood, &createdAt, &updatedAt); err != nil {
			return nil, bErrors.NewDatabaseError("scan", "buddies", err)
		}
		if err := json.Unmarshal([]byte(traits), &b.Traits); err != nil {
			return nil, bErrors.NewDatabaseError("decode", "buddies", err)
		}
		b.CreatedAt = time.UnixMilli(createdAt)
		b.UpdatedAt = time.UnixMilli(updatedAt)
		buddies = append(buddies, b)
	}
	return buddies, rows.Err()
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}
