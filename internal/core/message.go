package core

import (
	"time"

	"github.com/vovakirdan/chatrelay-server/internal/utils"
)

// Message is the domain model for a chat message. Immutable once built.
type Message struct {
	ID        string
	Username  string
	Content   string
	CreatedAt time.Time
}

// NewMessage builds a message with a fresh id and timestamp.
func NewMessage(username, content string) Message {
	return Message{
		ID:        utils.NewID(),
		Username:  username,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
