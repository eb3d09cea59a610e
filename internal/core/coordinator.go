package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/chatrelay-server/internal/proto"
	"github.com/vovakirdan/chatrelay-server/internal/store"
)

// systemUsername is the author name of join/leave notifications.
const systemUsername = "System"

// Validator is the input sanitization boundary. Implemented by
// internal/sanitize.
type Validator interface {
	SanitizeUsername(raw string) (string, bool)
	SanitizeMessage(raw string) (string, bool)
	IsDangerous(raw string) bool
}

// CoordinatorOptions tune coordinator behavior.
type CoordinatorOptions struct {
	// HistoryReplay is the number of messages replayed to a new session.
	HistoryReplay int
	// BotReplyDelay is the pause before an automated reply is broadcast.
	BotReplyDelay time.Duration
	// UserCountInterval drives the periodic user_count refresh in Run.
	// Non-positive disables the ticker.
	UserCountInterval time.Duration
}

// ShutdownReport counts channel closures during shutdown. Observational
// only; no closure is retried.
type ShutdownReport struct {
	Closed int
	Failed int
}

// Coordinator orchestrates the session protocols: join (register, replay
// history, announce), message submission (validate, record, broadcast,
// maybe schedule a bot reply), disconnect (deregister, announce), and
// user-count refreshes. It exclusively owns the registry and the history
// log.
type Coordinator struct {
	registry  *SessionRegistry
	history   *HistoryLog
	engine    *BroadcastEngine
	rules     ResponderRules
	validator Validator
	archive   store.MessageArchive
	opts      CoordinatorOptions
	log       *zerolog.Logger

	replies   sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// NewCoordinator wires the core components together. archive may be nil.
func NewCoordinator(
	registry *SessionRegistry,
	history *HistoryLog,
	engine *BroadcastEngine,
	rules ResponderRules,
	validator Validator,
	archive store.MessageArchive,
	logger *zerolog.Logger,
	opts CoordinatorOptions,
) *Coordinator {
	if opts.HistoryReplay <= 0 {
		opts.HistoryReplay = 50
	}
	return &Coordinator{
		registry:  registry,
		history:   history,
		engine:    engine,
		rules:     rules,
		validator: validator,
		archive:   archive,
		opts:      opts,
		log:       logger,
		done:      make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled, periodically broadcasting the current
// user count when an interval is configured.
func (c *Coordinator) Run(ctx context.Context) {
	if c.opts.UserCountInterval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(c.opts.UserCountInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if c.registry.Count() > 0 {
				c.broadcastUserCount(ctx)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Join validates the username and runs the join protocol: register, replay
// history to the new session only, announce the join to everyone else,
// refresh the user count. The order is fixed so the new client never sees
// its own join announcement and never receives a live duplicate of a
// replayed message.
func (c *Coordinator) Join(ctx context.Context, clientID, rawUsername string, ch Channel) (*Session, *CoreError) {
	username, ok := c.validator.SanitizeUsername(rawUsername)
	if !ok {
		return nil, coreError(ErrCodeInvalidUsername, "Invalid username")
	}

	s := NewSession(clientID, username, ch)
	c.registry.Add(s)

	if !c.engine.SendToOne(ctx, s, proto.HistoryEnvelope(toWire(c.history.Tail(c.opts.HistoryReplay)))) {
		// The read loop will surface the dead channel and trigger Leave.
		c.log.Warn().Str("client_id", clientID).Msg("history replay failed")
	}

	c.broadcastSystem(ctx, username+" joined the chat", clientID)
	c.broadcastUserCount(ctx)

	c.log.Info().
		Str("client_id", clientID).
		Str("username", username).
		Int("user_count", c.registry.Count()).
		Msg("user joined")

	return s, nil
}

// Leave runs the disconnect protocol. Unknown ids are a no-op, so calling
// it twice for the same session is safe.
func (c *Coordinator) Leave(ctx context.Context, clientID string) {
	s := c.registry.Remove(clientID)
	if s == nil {
		return
	}

	// The session is already out of the recipient set; no exclusion needed.
	c.broadcastSystem(ctx, s.Username+" left the chat", "")
	c.broadcastUserCount(ctx)

	c.log.Info().
		Str("client_id", clientID).
		Str("username", s.Username).
		Int("user_count", c.registry.Count()).
		Msg("user left")
}

// HandleMessage validates and relays one inbound message from the session,
// then consults the responder rules and schedules a delayed bot reply on a
// match. Validation failures are reported to the sender only and leave
// history and registry untouched.
func (c *Coordinator) HandleMessage(ctx context.Context, s *Session, raw string) {
	content, ok := c.validator.SanitizeMessage(raw)
	if !ok {
		c.engine.SendToOne(ctx, s, proto.ErrorEnvelope("Invalid message"))
		return
	}

	if c.validator.IsDangerous(raw) {
		c.log.Warn().
			Str("client_id", s.ClientID).
			Str("username", s.Username).
			Msg("dangerous message rejected")
		c.engine.SendToOne(ctx, s, proto.ErrorEnvelope("Message contains invalid content"))
		return
	}

	msg := NewMessage(s.Username, content)
	c.record(ctx, msg)
	// Sender sees its own message echoed; no exclusion.
	c.engine.Broadcast(ctx, proto.MessageEnvelope(messageData(msg)), c.registry.Snapshot(), "")

	if reply, matched := c.rules.Reply(content); matched {
		c.replies.Add(1)
		go c.deliverBotReply(reply)
	}
}

// ConnectionCount reports the number of active sessions.
func (c *Coordinator) ConnectionCount() int {
	return c.registry.Count()
}

// Shutdown cancels pending bot replies and closes every live channel,
// best-effort within the ctx deadline. The returned report is purely
// observational.
func (c *Coordinator) Shutdown(ctx context.Context) ShutdownReport {
	c.closeOnce.Do(func() { close(c.done) })

	drained := make(chan struct{})
	go func() {
		c.replies.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
	}

	var report ShutdownReport
	for _, s := range c.registry.Snapshot() {
		c.registry.Remove(s.ClientID)
		if ctx.Err() != nil {
			report.Failed++
			continue
		}
		if err := s.Channel.Close(CloseGoingAway, "server shutting down"); err != nil {
			report.Failed++
			c.log.Warn().Err(err).Str("client_id", s.ClientID).Msg("channel close failed")
			continue
		}
		report.Closed++
	}
	return report
}

// deliverBotReply waits out the configured delay, then records and
// broadcasts an automated reply. The delay keeps the reply from appearing
// simultaneous with the triggering message; shutdown aborts it.
func (c *Coordinator) deliverBotReply(reply string) {
	defer c.replies.Done()

	timer := time.NewTimer(c.opts.BotReplyDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-c.done:
		return
	}

	ctx := context.Background()
	msg := NewMessage(BotUsername, reply)
	c.record(ctx, msg)
	c.engine.Broadcast(ctx, proto.MessageEnvelope(messageData(msg)), c.registry.Snapshot(), "")
}

// record appends to history and archives best-effort.
func (c *Coordinator) record(ctx context.Context, msg Message) {
	c.history.Append(msg)
	if c.archive == nil {
		return
	}
	rec := &store.MessageRecord{
		ID:        msg.ID,
		Username:  msg.Username,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	if err := c.archive.SaveMessage(ctx, rec); err != nil {
		c.log.Warn().Err(err).Str("message_id", msg.ID).Msg("archive save failed")
	}
}

func (c *Coordinator) broadcastSystem(ctx context.Context, content, excludeID string) {
	msg := NewMessage(systemUsername, content)
	c.engine.Broadcast(ctx, proto.SystemEnvelope(messageData(msg)), c.registry.Snapshot(), excludeID)
}

func (c *Coordinator) broadcastUserCount(ctx context.Context) {
	c.engine.Broadcast(ctx, proto.UserCountEnvelope(c.registry.Count()), c.registry.Snapshot(), "")
}

func messageData(msg Message) proto.MessageData {
	return proto.MessageData{
		ID:        msg.ID,
		Username:  msg.Username,
		Content:   msg.Content,
		Timestamp: msg.CreatedAt.Unix(),
	}
}

func toWire(messages []Message) []proto.MessageData {
	return lo.Map(messages, func(msg Message, _ int) proto.MessageData {
		return messageData(msg)
	})
}
