package proto

// Envelope is the wire-level unit delivered to clients.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const (
	EnvelopeTypeMessage   = "message"
	EnvelopeTypeSystem    = "system"
	EnvelopeTypeHistory   = "history"
	EnvelopeTypeUserCount = "user_count"
	EnvelopeTypeError     = "error"

	InboundTypeMessage = "message"
	InboundTypePong    = "pong"
)

// Inbound is the envelope for events coming from the client.
// Unknown types are ignored by the server.
type Inbound struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// MessageData is the payload of message and system envelopes.
// Timestamp is Unix seconds.
type MessageData struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// UserCountData is the payload of user_count envelopes.
type UserCountData struct {
	Count int `json:"count"`
}

// ErrorData is the payload of error envelopes.
type ErrorData struct {
	Message string `json:"message"`
}

// MessageEnvelope wraps a chat message for delivery.
func MessageEnvelope(data MessageData) *Envelope {
	return &Envelope{Type: EnvelopeTypeMessage, Data: data}
}

// SystemEnvelope wraps a server-generated notification.
func SystemEnvelope(data MessageData) *Envelope {
	return &Envelope{Type: EnvelopeTypeSystem, Data: data}
}

// HistoryEnvelope wraps a replay of recent messages, oldest first.
func HistoryEnvelope(messages []MessageData) *Envelope {
	return &Envelope{Type: EnvelopeTypeHistory, Data: messages}
}

// UserCountEnvelope wraps the current number of connected users.
func UserCountEnvelope(count int) *Envelope {
	return &Envelope{Type: EnvelopeTypeUserCount, Data: UserCountData{Count: count}}
}

// ErrorEnvelope wraps an error addressed to a single client.
func ErrorEnvelope(message string) *Envelope {
	return &Envelope{Type: EnvelopeTypeError, Data: ErrorData{Message: message}}
}
