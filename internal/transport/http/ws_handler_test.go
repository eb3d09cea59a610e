package http

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/chatrelay-server/internal/core"
	"github.com/vovakirdan/chatrelay-server/internal/proto"
)

// wireEnvelope defers data decoding so tests can pick the payload shape per
// envelope type.
type wireEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func wsURL(httpURL, username string) string {
	return strings.Replace(httpURL, "http", "ws", 1) + "/ws/chat?username=" + username
}

func dialChat(t *testing.T, httpURL, username string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(httpURL, username), nil)
	if err != nil {
		t.Fatalf("dial as %s: %v", username, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn
}

// waitType reads envelopes until one of the wanted type arrives, skipping
// everything else (user_count refreshes in particular arrive at
// unpredictable points).
func waitType(t *testing.T, conn *websocket.Conn, envType string) wireEnvelope {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		var env wireEnvelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			t.Fatalf("waiting for %q envelope: %v", envType, err)
		}
		if env.Type == envType {
			return env
		}
	}
}

func sendChat(t *testing.T, conn *websocket.Conn, content string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeMessage, Content: content}); err != nil {
		t.Fatalf("send %q: %v", content, err)
	}
}

func TestChatJoinReceivesHistoryFirst(t *testing.T) {
	ts, _, _ := startTestServer(t)

	conn := dialChat(t, ts.URL, "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var env wireEnvelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if env.Type != proto.EnvelopeTypeHistory {
		t.Fatalf("expected history first, got %q", env.Type)
	}

	var replay []proto.MessageData
	if err := json.Unmarshal(env.Data, &replay); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(replay) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(replay))
	}
}

func TestChatMessageRoundTripWithBotReply(t *testing.T) {
	ts, _, _ := startTestServer(t)

	alice := dialChat(t, ts.URL, "alice")
	waitType(t, alice, proto.EnvelopeTypeHistory)

	bob := dialChat(t, ts.URL, "bob")
	waitType(t, bob, proto.EnvelopeTypeHistory)

	// Alice sees bob's join before any messages flow.
	joined := waitType(t, alice, proto.EnvelopeTypeSystem)
	var sysData proto.MessageData
	if err := json.Unmarshal(joined.Data, &sysData); err != nil {
		t.Fatalf("decode system: %v", err)
	}
	if sysData.Content != "bob joined the chat" {
		t.Fatalf("unexpected join notice %q", sysData.Content)
	}

	sendChat(t, alice, "hello")

	for _, conn := range []*websocket.Conn{alice, bob} {
		env := waitType(t, conn, proto.EnvelopeTypeMessage)
		var data proto.MessageData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		if data.Username != "alice" || data.Content != "hello" {
			t.Fatalf("unexpected message %+v", data)
		}
		if data.ID == "" || data.Timestamp == 0 {
			t.Fatalf("message missing id or timestamp: %+v", data)
		}

		reply := waitType(t, conn, proto.EnvelopeTypeMessage)
		var botData proto.MessageData
		if err := json.Unmarshal(reply.Data, &botData); err != nil {
			t.Fatalf("decode bot reply: %v", err)
		}
		if botData.Username != core.BotUsername {
			t.Fatalf("expected bot reply, got %+v", botData)
		}
	}
}

func TestChatDangerousMessageRejected(t *testing.T) {
	ts, _, _ := startTestServer(t)

	alice := dialChat(t, ts.URL, "alice")
	waitType(t, alice, proto.EnvelopeTypeHistory)

	sendChat(t, alice, "<script>alert(1)</script>")

	env := waitType(t, alice, proto.EnvelopeTypeError)
	var data proto.ErrorData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if data.Message != "Message contains invalid content" {
		t.Fatalf("unexpected error message %q", data.Message)
	}
}

func TestChatInvalidUsernameClosed(t *testing.T) {
	ts, _, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(ts.URL, "bad%20name%21"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "test done")

	var env wireEnvelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		t.Fatalf("read error envelope: %v", err)
	}
	if env.Type != proto.EnvelopeTypeError {
		t.Fatalf("expected error envelope, got %q", env.Type)
	}

	// The server closes with a policy violation right after.
	err = wsjson.Read(ctx, conn, &env)
	if err == nil {
		t.Fatal("expected connection to be closed")
	}
	if status := websocket.CloseStatus(err); status != websocket.StatusPolicyViolation {
		t.Fatalf("expected policy violation close, got %v (err %v)", status, err)
	}
}

func TestChatLeaveAnnounced(t *testing.T) {
	ts, coord, _ := startTestServer(t)

	alice := dialChat(t, ts.URL, "alice")
	waitType(t, alice, proto.EnvelopeTypeHistory)

	bob := dialChat(t, ts.URL, "bob")
	waitType(t, bob, proto.EnvelopeTypeHistory)
	waitType(t, alice, proto.EnvelopeTypeSystem)

	bob.Close(websocket.StatusNormalClosure, "bye")

	left := waitType(t, alice, proto.EnvelopeTypeSystem)
	var data proto.MessageData
	if err := json.Unmarshal(left.Data, &data); err != nil {
		t.Fatalf("decode system: %v", err)
	}
	if data.Content != "bob left the chat" {
		t.Fatalf("unexpected departure notice %q", data.Content)
	}

	deadline := time.Now().Add(2 * time.Second)
	for coord.ConnectionCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := coord.ConnectionCount(); got != 1 {
		t.Fatalf("expected 1 remaining connection, got %d", got)
	}
}
