package core

import "sync"

// DefaultHistorySize bounds the in-memory message log.
const DefaultHistorySize = 100

// HistoryLog is a bounded, ordered record of past chat messages retained
// for replay to newly joined sessions. Oldest entries are evicted first.
type HistoryLog struct {
	mu       sync.Mutex
	capacity int
	messages []Message
	total    uint64
}

// NewHistoryLog builds a log with the given capacity. A non-positive
// capacity falls back to DefaultHistorySize.
func NewHistoryLog(capacity int) *HistoryLog {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &HistoryLog{capacity: capacity}
}

// Append adds a message to the end, evicting from the front when the log
// would exceed its capacity.
func (l *HistoryLog) Append(msg Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
	l.total++
	if len(l.messages) > l.capacity {
		l.messages = l.messages[len(l.messages)-l.capacity:]
	}
}

// Tail returns the last min(n, length) messages in chronological order.
func (l *HistoryLog) Tail(n int) []Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || len(l.messages) == 0 {
		return nil
	}
	if n > len(l.messages) {
		n = len(l.messages)
	}
	out := make([]Message, n)
	copy(out, l.messages[len(l.messages)-n:])
	return out
}

// Len returns the current number of retained messages.
func (l *HistoryLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// TotalAppended returns the number of messages appended over the lifetime
// of the log, including evicted ones.
func (l *HistoryLog) TotalAppended() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
