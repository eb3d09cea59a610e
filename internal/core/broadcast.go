package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay-server/internal/proto"
)

// DeliveryReport summarizes one fan-out attempt.
type DeliveryReport struct {
	Delivered int
	Failed    int
}

// BroadcastEngine delivers envelopes to session snapshots. Sends are issued
// concurrently with a bounded per-recipient timeout so one slow recipient
// cannot block delivery to the rest. Delivery failures are counted and
// logged, never fatal. The engine does not mutate the registry; dead
// channels are evicted lazily by the coordinator.
type BroadcastEngine struct {
	log         *zerolog.Logger
	sendTimeout time.Duration
}

// NewBroadcastEngine builds an engine with the given per-recipient send
// timeout (zero disables the timeout).
func NewBroadcastEngine(logger *zerolog.Logger, sendTimeout time.Duration) *BroadcastEngine {
	return &BroadcastEngine{log: logger, sendTimeout: sendTimeout}
}

// Broadcast attempts delivery to every recipient except excludeID. Partial
// failure is expected and does not abort delivery to the rest.
func (e *BroadcastEngine) Broadcast(ctx context.Context, env *proto.Envelope, recipients []*Session, excludeID string) DeliveryReport {
	var delivered, failed int64
	var wg sync.WaitGroup

	for _, s := range recipients {
		if excludeID != "" && s.ClientID == excludeID {
			continue
		}
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if e.send(ctx, s, env) {
				atomic.AddInt64(&delivered, 1)
			} else {
				atomic.AddInt64(&failed, 1)
			}
		}(s)
	}
	wg.Wait()

	return DeliveryReport{Delivered: int(delivered), Failed: int(failed)}
}

// SendToOne is a best-effort targeted delivery. It returns false on failure
// and never panics, so callers like history replay stay undisturbed.
func (e *BroadcastEngine) SendToOne(ctx context.Context, s *Session, env *proto.Envelope) bool {
	return e.send(ctx, s, env)
}

func (e *BroadcastEngine) send(ctx context.Context, s *Session, env *proto.Envelope) bool {
	if e.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.sendTimeout)
		defer cancel()
	}

	if err := s.Channel.Send(ctx, env); err != nil {
		e.log.Warn().
			Err(err).
			Str("client_id", s.ClientID).
			Str("envelope_type", env.Type).
			Msg("delivery failed")
		return false
	}
	return true
}
