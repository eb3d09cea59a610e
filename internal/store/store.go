package store

import (
	"context"
	"time"
)

// MessageRecord is an archived chat message.
type MessageRecord struct {
	ID        string
	Username  string
	Content   string
	CreatedAt time.Time
}

// MessageArchive persists every relayed message for the stats surface.
// The default backing store is in-memory, so the archive does not outlive
// the process.
type MessageArchive interface {
	// SaveMessage appends a message to the archive.
	SaveMessage(ctx context.Context, rec *MessageRecord) error

	// CountMessages returns the total number of archived messages.
	CountMessages(ctx context.Context) (int64, error)

	// ListRecent returns up to limit most recent messages in
	// chronological order.
	ListRecent(ctx context.Context, limit int) ([]*MessageRecord, error)

	// Close closes the underlying database connection.
	Close() error
}
