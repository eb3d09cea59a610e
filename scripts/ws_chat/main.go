package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/chatrelay-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws/chat", "WebSocket address")
	user := flag.String("user", "cli-user", "username")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	dialURL := *addr + "?username=" + url.QueryEscape(*user)
	conn, _, err := websocket.Dial(ctx, dialURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("Connected to %s as %s\n", *addr, *user)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var env struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("read: %v", err)
			}
			return
		}

		switch env.Type {
		case proto.EnvelopeTypeMessage, proto.EnvelopeTypeSystem:
			var data proto.MessageData
			if err := json.Unmarshal(env.Data, &data); err != nil {
				continue
			}
			fmt.Printf("[%s] %s\n", data.Username, data.Content)
		case proto.EnvelopeTypeHistory:
			var data []proto.MessageData
			if err := json.Unmarshal(env.Data, &data); err != nil {
				continue
			}
			for _, msg := range data {
				fmt.Printf("(history) [%s] %s\n", msg.Username, msg.Content)
			}
		case proto.EnvelopeTypeUserCount:
			var data proto.UserCountData
			if err := json.Unmarshal(env.Data, &data); err != nil {
				continue
			}
			fmt.Printf("* %d user(s) online\n", data.Count)
		case proto.EnvelopeTypeError:
			var data proto.ErrorData
			if err := json.Unmarshal(env.Data, &data); err != nil {
				continue
			}
			fmt.Printf("! error: %s\n", data.Message)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeMessage, Content: text}); err != nil {
			log.Printf("send: %v", err)
			return
		}
	}
}
