package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay-server/internal/config"
	"github.com/vovakirdan/chatrelay-server/internal/core"
	"github.com/vovakirdan/chatrelay-server/internal/proto"
	"github.com/vovakirdan/chatrelay-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to the chat
// coordinator.
type WSHandler struct {
	coord *core.Coordinator
	cfg   *config.Config
	log   *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(coord *core.Coordinator, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{coord: coord, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()
	rawUsername := r.URL.Query().Get("username")

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ch := &wsChannel{conn: conn, sendTimeout: h.cfg.SendTimeout}

	session, cerr := h.coord.Join(ctx, utils.NewID(), rawUsername, ch)
	if cerr != nil {
		_ = ch.Send(ctx, proto.ErrorEnvelope(cerr.Message))
		conn.Close(websocket.StatusPolicyViolation, cerr.Message)
		return
	}
	// Leave with a fresh context: the request context is dying by the time
	// the read loop returns, and the departure still has to reach everyone
	// else.
	defer h.coord.Leave(context.Background(), session.ClientID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go h.heartbeat(ctx, conn, session.ClientID)

	err = h.readLoop(ctx, conn, session)

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("client_id", session.ClientID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop processes the session's inbound events strictly in order.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		switch inbound.Type {
		case proto.InboundTypeMessage:
			h.coord.HandleMessage(ctx, session, inbound.Content)
		case proto.InboundTypePong:
			// Heartbeat ack, nothing to do.
		default:
			h.log.Debug().
				Str("client_id", session.ClientID).
				Str("type", inbound.Type).
				Msg("ignoring unknown inbound type")
		}
	}
}

func (h *WSHandler) heartbeat(ctx context.Context, conn *websocket.Conn, clientID string) {
	if h.cfg.HeartbeatInterval <= 0 {
		return
	}

	pingTimeout := h.cfg.SendTimeout
	if pingTimeout <= 0 {
		pingTimeout = 10 * time.Second
	}

	ticker := time.NewTicker(h.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Str("client_id", clientID).Msg("heartbeat ping failed")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// wsChannel adapts a websocket connection to core.Channel.
type wsChannel struct {
	conn        *websocket.Conn
	sendTimeout time.Duration
}

func (c *wsChannel) Send(ctx context.Context, env *proto.Envelope) error {
	if c.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.sendTimeout)
		defer cancel()
	}
	return wsjson.Write(ctx, c.conn, env)
}

func (c *wsChannel) Close(code int, reason string) error {
	return c.conn.Close(websocket.StatusCode(code), reason)
}
