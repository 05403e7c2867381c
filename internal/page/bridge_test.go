package page

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jmylchreest/swatches/internal/substitute"
)

// applyReply sets how the fake page answers apply requests.
type applyReply struct {
	// err makes apply requests fail with this message.
	err string
	// payload replaces the default true result and skips the edit.
	payload string
}

// servePage answers bridge requests from doc until the connection closes.
func servePage(t *testing.T, url string, doc *Document, reply applyReply) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	go func() {
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}

			// A stale reply must be skipped by the bridge.
			_ = conn.WriteJSON(Message{ID: "stale", Type: MessageResult})

			resp := Message{ID: msg.ID, Type: MessageResult}
			switch msg.Type {
			case MessageScan:
				scan, _ := doc.Scan(context.Background())
				resp.Payload, _ = json.Marshal(scan)
			case MessageApply:
				if reply.err != "" {
					resp.Type = MessageError
					resp.Error = reply.err
					break
				}
				if reply.payload != "" {
					resp.Payload = json.RawMessage(reply.payload)
					break
				}
				var req substitute.Request
				_ = json.Unmarshal(msg.Payload, &req)
				_ = doc.Apply(context.Background(), req)
				resp.Payload = json.RawMessage("true")
			}
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		}
	}()

	return conn
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestBridgeRoundTrip(t *testing.T) {
	bridge := NewBridge(nil)
	server := httptest.NewServer(bridge)
	defer server.Close()
	defer bridge.Close()

	doc := NewDocument(sampleScan())
	conn := servePage(t, wsURL(server), doc, applyReply{})
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	scan, err := bridge.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if scan.Website != "example.com" || len(scan.Colors) != 4 {
		t.Fatalf("Scan() = %+v", scan)
	}
	if !bridge.Connected() {
		t.Error("Connected() = false after scan")
	}

	if err := bridge.Apply(ctx, redToGreen(scan.Colors)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	scan, err = bridge.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan() after apply error = %v", err)
	}
	if scan.Colors[0].Color != "rgb(0, 255, 0)" {
		t.Errorf("colour after apply = %q, want rgb(0, 255, 0)", scan.Colors[0].Color)
	}
}

func TestBridgePageError(t *testing.T) {
	bridge := NewBridge(nil)
	server := httptest.NewServer(bridge)
	defer server.Close()
	defer bridge.Close()

	conn := servePage(t, wsURL(server), NewDocument(sampleScan()), applyReply{err: "style is read-only"})
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := bridge.Apply(ctx, redToGreen(nil))
	if err == nil || !strings.Contains(err.Error(), "style is read-only") {
		t.Errorf("Apply() error = %v, want page error", err)
	}
}

func TestBridgeApplyNotApplied(t *testing.T) {
	for _, payload := range []string{"false", "null", "0", `""`} {
		t.Run(payload, func(t *testing.T) {
			bridge := NewBridge(nil)
			server := httptest.NewServer(bridge)
			defer server.Close()
			defer bridge.Close()

			conn := servePage(t, wsURL(server), NewDocument(sampleScan()), applyReply{payload: payload})
			defer conn.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := bridge.Apply(ctx, redToGreen(sampleScan().Colors)); !errors.Is(err, ErrNotApplied) {
				t.Errorf("Apply() error = %v, want ErrNotApplied", err)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		payload string
		want    bool
	}{
		{payload: "", want: false},
		{payload: "null", want: false},
		{payload: "false", want: false},
		{payload: "0", want: false},
		{payload: `""`, want: false},
		{payload: "{", want: false},
		{payload: "true", want: true},
		{payload: "1", want: true},
		{payload: `"done"`, want: true},
		{payload: "{}", want: true},
		{payload: "[]", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			if got := truthy(json.RawMessage(tt.payload)); got != tt.want {
				t.Errorf("truthy(%q) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}

func TestBridgeNoPage(t *testing.T) {
	bridge := NewBridge(nil)
	defer bridge.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := bridge.Scan(ctx)
	if !errors.Is(err, ErrNoPage) {
		t.Errorf("Scan() error = %v, want ErrNoPage", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Scan() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestBridgeSilentPage(t *testing.T) {
	bridge := NewBridge(nil)
	server := httptest.NewServer(bridge)
	defer server.Close()
	defer bridge.Close()

	// Connected but never answers.
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, err := bridge.Scan(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Scan() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestListen(t *testing.T) {
	bridge, err := Listen("127.0.0.1:0", "", nil)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer bridge.Close()

	url := "ws://" + bridge.Addr().String() + DefaultBridgePath
	conn := servePage(t, url, NewDocument(sampleScan()), applyReply{})
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := bridge.Scan(ctx); err != nil {
		t.Errorf("Scan() error = %v", err)
	}
}
