package core

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func historyMessage(i int) Message {
	return NewMessage("user", "msg-"+strconv.Itoa(i))
}

func TestHistoryAppendAndTail(t *testing.T) {
	req := require.New(t)
	log := NewHistoryLog(3)

	req.Nil(log.Tail(10))

	for i := 1; i <= 2; i++ {
		log.Append(historyMessage(i))
	}
	req.Equal(2, log.Len())

	tail := log.Tail(10)
	req.Len(tail, 2)
	req.Equal("msg-1", tail[0].Content)
	req.Equal("msg-2", tail[1].Content)

	req.Len(log.Tail(1), 1)
	req.Equal("msg-2", log.Tail(1)[0].Content)
}

func TestHistoryEvictsOldestFirst(t *testing.T) {
	req := require.New(t)
	log := NewHistoryLog(3)

	for i := 1; i <= 5; i++ {
		log.Append(historyMessage(i))
	}

	req.Equal(3, log.Len())
	req.Equal(uint64(5), log.TotalAppended())

	tail := log.Tail(3)
	req.Equal("msg-3", tail[0].Content)
	req.Equal("msg-4", tail[1].Content)
	req.Equal("msg-5", tail[2].Content)
}

func TestHistoryNeverExceedsCapacity(t *testing.T) {
	req := require.New(t)

	const capacity = 100
	const appends = 250
	log := NewHistoryLog(capacity)

	for i := 1; i <= appends; i++ {
		log.Append(historyMessage(i))
		req.LessOrEqual(log.Len(), capacity)
	}

	tail := log.Tail(capacity)
	req.Len(tail, capacity)
	for i, msg := range tail {
		req.Equal("msg-"+strconv.Itoa(appends-capacity+i+1), msg.Content)
	}
}

func TestHistoryDefaultCapacity(t *testing.T) {
	req := require.New(t)
	log := NewHistoryLog(0)

	for i := 0; i < DefaultHistorySize+10; i++ {
		log.Append(historyMessage(i))
	}
	req.Equal(DefaultHistorySize, log.Len())
}
