package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/chatrelay-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws/chat", "WebSocket address")
	user := flag.String("user", "tester", "username")
	text := flag.String("text", "hello", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	dialURL := *addr + "?username=" + url.QueryEscape(*user)
	conn, _, err := websocket.Dial(ctx, dialURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeMessage, Content: *text}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	// Expect our own message echoed back through the broadcast.
	for {
		var env struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if env.Type != proto.EnvelopeTypeMessage {
			continue
		}
		var data proto.MessageData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
		if data.Username == *user {
			fmt.Printf("ok: echoed %q at %d\n", data.Content, data.Timestamp)
			return nil
		}
	}
}
