package core

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay-server/internal/proto"
)

// fakeChannel records delivered envelopes and can be made to fail.
type fakeChannel struct {
	mu        sync.Mutex
	sent      []*proto.Envelope
	attempts  int
	sendErr   error
	closeErr  error
	closed    bool
	closeCode int
}

func (f *fakeChannel) Send(_ context.Context, env *proto.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeChannel) Close(code int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closed = true
	f.closeCode = code
	return nil
}

func (f *fakeChannel) envelopes() []*proto.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*proto.Envelope, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeChannel) ofType(envType string) []*proto.Envelope {
	var out []*proto.Envelope
	for _, env := range f.envelopes() {
		if env.Type == envType {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeChannel) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

// mustEnvelope polls until the channel has seen at least n envelopes of the
// given type and returns the n-th.
func mustEnvelope(t *testing.T, ch *fakeChannel, envType string, n int) *proto.Envelope {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if envs := ch.ofType(envType); len(envs) >= n {
			return envs[n-1]
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected envelope %d of type %q not received", n, envType)
	return nil
}

// testValidator mirrors the sanitizer contract closely enough for core
// tests without importing the sanitize package.
type testValidator struct{}

func (testValidator) SanitizeUsername(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.ContainsAny(trimmed, " !") {
		return "", false
	}
	return trimmed, true
}

func (testValidator) SanitizeMessage(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

func (testValidator) IsDangerous(raw string) bool {
	return strings.Contains(strings.ToLower(raw), "<script")
}

func newTestCoordinator(t *testing.T, opts CoordinatorOptions) *Coordinator {
	t.Helper()

	logger := zerolog.Nop()
	engine := NewBroadcastEngine(&logger, time.Second)
	return NewCoordinator(
		NewSessionRegistry(),
		NewHistoryLog(0),
		engine,
		DefaultResponderRules(),
		testValidator{},
		nil,
		&logger,
		opts,
	)
}
