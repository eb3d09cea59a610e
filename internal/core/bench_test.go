package core

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay-server/internal/proto"
)

func benchmarkBroadcast(b *testing.B, recipients int) {
	logger := zerolog.Nop()
	engine := NewBroadcastEngine(&logger, time.Second)

	sessions := make([]*Session, recipients)
	for i := range sessions {
		sessions[i] = NewSession("client-"+strconv.Itoa(i), "user", &fakeChannel{})
	}
	env := proto.MessageEnvelope(proto.MessageData{
		ID:       "bench",
		Username: "user",
		Content:  "benchmark payload",
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Broadcast(context.Background(), env, sessions, "")
	}
}

func BenchmarkBroadcast_10(b *testing.B)  { benchmarkBroadcast(b, 10) }
func BenchmarkBroadcast_100(b *testing.B) { benchmarkBroadcast(b, 100) }
func BenchmarkBroadcast_500(b *testing.B) { benchmarkBroadcast(b, 500) }
