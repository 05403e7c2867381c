package page

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/swatches/internal/palette"
	"github.com/jmylchreest/swatches/internal/substitute"
)

// Bridge message types.
const (
	MessageScan   = "scan"
	MessageApply  = "apply"
	MessageResult = "result"
	MessageError  = "error"
)

// DefaultBridgePath is the websocket endpoint served when none is given.
const DefaultBridgePath = "/swatches"

// ErrNoPage is returned when the bridge has no connected page.
var ErrNoPage = errors.New("no page connected to bridge")

// Message is the envelope exchanged with the page-side script.
type Message struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Bridge is a websocket server that a script running inside the page
// connects to. Each scan or apply is a single request answered by a single
// response; only one request is outstanding at a time.
type Bridge struct {
	logger   hclog.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	// request serialises round trips.
	request sync.Mutex

	mu    sync.Mutex
	conn  *websocket.Conn
	ready chan struct{}

	server   *http.Server
	listener net.Listener
}

// NewBridge creates a bridge. Use it as an http.Handler or call Listen.
func NewBridge(logger hclog.Logger) *Bridge {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Bridge{
		logger: logger,
		upgrader: websocket.Upgrader{
			// Page scripts connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		ready: make(chan struct{}),
	}
}

// Listen starts a bridge serving path on addr.
func Listen(addr, path string, logger hclog.Logger) (*Bridge, error) {
	if path == "" || path == "/" {
		path = DefaultBridgePath
	}

	b := NewBridge(logger)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(path, b)

	b.listener = listener
	b.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := b.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.logger.Error("bridge server stopped", "error", err)
		}
	}()

	b.logger.Info("waiting for page", "url", "ws://"+listener.Addr().String()+path)
	return b, nil
}

// Addr returns the listening address, or nil when not started with Listen.
func (b *Bridge) Addr() net.Addr {
	if b.listener == nil {
		return nil
	}
	return b.listener.Addr()
}

// ServeHTTP upgrades a page connection. A new connection replaces the
// previous one.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("failed to upgrade page connection", "error", err)
		return
	}

	b.mu.Lock()
	old := b.conn
	b.conn = conn
	close(b.ready)
	b.ready = make(chan struct{})
	b.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	b.logger.Info("page connected", "remote", r.RemoteAddr)
}

// Connected reports whether a page is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// Scan asks the page for a scan.
func (b *Bridge) Scan(ctx context.Context) (*palette.Scan, error) {
	resp, err := b.roundTrip(ctx, MessageScan, nil)
	if err != nil {
		return nil, err
	}
	return palette.ParseScan(resp.Payload)
}

// Apply sends req to the page. The page answers with a truthy payload once
// the edit is done; anything else is reported as ErrNotApplied.
func (b *Bridge) Apply(ctx context.Context, req substitute.Request) error {
	resp, err := b.roundTrip(ctx, MessageApply, req)
	if err != nil {
		return err
	}
	if !truthy(resp.Payload) {
		return fmt.Errorf("%w: %s -> %s", ErrNotApplied, req.PreviousColourValue, req.NewColourValue)
	}
	return nil
}

// Close disconnects the page and stops the server.
func (b *Bridge) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}
	if b.server != nil {
		return b.server.Close()
	}
	return nil
}

// waitConn blocks until a page is connected or ctx is done.
func (b *Bridge) waitConn(ctx context.Context) (*websocket.Conn, error) {
	for {
		b.mu.Lock()
		conn, ready := b.conn, b.ready
		b.mu.Unlock()

		if conn != nil {
			return conn, nil
		}

		select {
		case <-ready:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrNoPage, ctx.Err())
		}
	}
}

// drop forgets conn if it is still the current connection.
func (b *Bridge) drop(conn *websocket.Conn) {
	b.mu.Lock()
	if b.conn == conn {
		b.conn = nil
	}
	b.mu.Unlock()
	_ = conn.Close()
}

func (b *Bridge) roundTrip(ctx context.Context, typ string, payload any) (*Message, error) {
	b.request.Lock()
	defer b.request.Unlock()

	conn, err := b.waitConn(ctx)
	if err != nil {
		return nil, err
	}

	msg := Message{ID: strconv.FormatUint(b.nextID.Add(1), 10), Type: typ}
	if payload != nil {
		msg.Payload, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", typ, err)
		}
	}

	deadline, _ := ctx.Deadline()
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteJSON(msg); err != nil {
		b.drop(conn)
		return nil, fmt.Errorf("failed to send %s request: %w", typ, err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		var resp Message
		if err := conn.ReadJSON(&resp); err != nil {
			b.drop(conn)
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%s request: %w", typ, ctx.Err())
			}
			return nil, fmt.Errorf("page disconnected: %w", err)
		}

		if resp.ID != msg.ID {
			b.logger.Debug("ignoring message", "id", resp.ID, "type", resp.Type)
			continue
		}

		if resp.Type == MessageError {
			return nil, fmt.Errorf("page %s failed: %s", typ, resp.Error)
		}
		return &resp, nil
	}
}

// truthy reports whether payload holds a JSON value a script would treat as
// true. Missing or malformed payloads are false.
func truthy(payload json.RawMessage) bool {
	var v any
	if len(payload) == 0 || json.Unmarshal(payload, &v) != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
