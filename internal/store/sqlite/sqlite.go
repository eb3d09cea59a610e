package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/chatrelay-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at);
`

// SQLiteArchive implements store.MessageArchive for SQLite.
type SQLiteArchive struct {
	db *sql.DB
}

// New creates a message archive at dbPath. Use ":memory:" for a store that
// dies with the process.
func New(dbPath string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteArchive{db: db}, nil
}

// SaveMessage appends a message to the archive.
func (s *SQLiteArchive) SaveMessage(ctx context.Context, rec *store.MessageRecord) error {
	query := `INSERT INTO messages (id, username, content, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, rec.ID, rec.Username, rec.Content, rec.CreatedAt); err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// CountMessages returns the total number of archived messages.
func (s *SQLiteArchive) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

// ListRecent returns up to limit most recent messages, oldest first.
func (s *SQLiteArchive) ListRecent(ctx context.Context, limit int) ([]*store.MessageRecord, error) {
	query := `
		SELECT id, username, content, created_at
		FROM messages
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer rows.Close()

	var records []*store.MessageRecord
	for rows.Next() {
		rec := &store.MessageRecord{}
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.Content, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// Close closes the database connection.
func (s *SQLiteArchive) Close() error {
	return s.db.Close()
}
