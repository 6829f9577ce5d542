package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/chatp-client/internal/config"
	"github.com/vovakirdan/chatp-client/internal/core"
	applog "github.com/vovakirdan/chatp-client/internal/log"
	"github.com/vovakirdan/chatp-client/internal/proto"
)

// fakeConn is an in-memory wireConn driven by the test.
type fakeConn struct {
	mu      sync.Mutex
	inbound chan []byte
	writes  [][]byte
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case <-c.closed:
		return nil, errors.New("connection closed")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Write(ctx context.Context, data []byte) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
	}
	c.mu.Lock()
	c.writes = append(c.writes, append([]byte(nil), data...))
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// lastWrite returns the most recent outbound frame, decoded.
func (c *fakeConn) lastWrite(t *testing.T) map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.writes) == 0 {
		t.Fatal("no writes recorded")
	}
	var frame map[string]any
	if err := json.Unmarshal(c.writes[len(c.writes)-1], &frame); err != nil {
		t.Fatalf("unmarshal write: %v", err)
	}
	return frame
}

func (c *fakeConn) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

// push delivers an inbound frame to the read loop.
func (c *fakeConn) push(t *testing.T, fields map[string]any) {
	t.Helper()
	payload, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	c.inbound <- payload
}

// safeSink records events from any goroutine.
type safeSink struct {
	mu     sync.Mutex
	events []core.Event
}

func (s *safeSink) Publish(ev core.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *safeSink) count(kind core.EventKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Endpoint = "ws://test.invalid/server"
	cfg.ReconnectInterval = 0
	cfg.RequestTimeout = 200 * time.Millisecond
	return cfg
}

func newTestClient(t *testing.T, cfg config.Config, sink core.Sink, dial dialFunc) *Client {
	t.Helper()
	c, err := New(cfg, sink, applog.New("error"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.dial = dial
	t.Cleanup(c.Close)
	return c
}

func TestSendWhileDisconnected(t *testing.T) {
	c := newTestClient(t, testConfig(), nil, func(context.Context, string) (wireConn, error) {
		return nil, errors.New("unreachable")
	})

	err := c.SendText("lobby", "hello")
	if !errors.Is(err, core.ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestLoginFlowAndDirectoryFetch(t *testing.T) {
	conn := newFakeConn()
	sink := &safeSink{}
	c := newTestClient(t, testConfig(), sink, func(context.Context, string) (wireConn, error) {
		return conn, nil
	})

	// Answer the directory request as soon as it is written.
	go func() {
		for {
			time.Sleep(5 * time.Millisecond)
			conn.mu.Lock()
			var pending map[string]any
			for _, w := range conn.writes {
				var frame map[string]any
				if json.Unmarshal(w, &frame) == nil && frame["handler"] == "room_info" {
					pending = frame
				}
			}
			conn.mu.Unlock()
			if pending != nil {
				conn.push(t, map[string]any{
					"handler": "room_info", "type": "public_rooms", "page": "1",
					"rooms": []map[string]any{{"name": "lobby", "users_count": "5"}},
				})
				return
			}
		}
	}()

	c.Connect(context.Background(), "alice", "pw")

	waitFor(t, "login frame", func() bool { return conn.writeCount() >= 1 })
	login := conn.lastWrite(t)
	if login["handler"] != "login" || login["username"] != "alice" || login["password"] != "pw" {
		t.Fatalf("unexpected login frame: %v", login)
	}
	if login["id"] == "" {
		t.Fatal("login frame missing correlation id")
	}

	conn.push(t, map[string]any{"handler": "login_event", "type": "success",
		"users": []map[string]any{{"username": "bob", "mode": "online"}}})

	waitFor(t, "online state", func() bool {
		return c.Session().State == core.StateOnline
	})
	waitFor(t, "roster event", func() bool {
		return sink.count(core.EventRoster) >= 1
	})
	waitFor(t, "room directory", func() bool {
		return sink.count(core.EventRoomDirectory) >= 1
	})
}

func TestTransportFailureSchedulesSingleReconnect(t *testing.T) {
	cfg := testConfig()
	cfg.ReconnectInterval = 40 * time.Millisecond

	var mu sync.Mutex
	attempts := 0
	dial := func(context.Context, string) (wireConn, error) {
		mu.Lock()
		attempts++
		mu.Unlock()
		return nil, errors.New("unreachable")
	}
	c := newTestClient(t, cfg, &safeSink{}, dial)

	c.Connect(context.Background(), "alice", "pw")

	waitFor(t, "reconnect timer armed", func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.reconnectTimer != nil
	})

	// A second failure report before the timer fires must not arm a
	// second timer.
	c.mu.Lock()
	first := c.reconnectTimer
	c.mu.Unlock()
	c.transportFailure(errors.New("late close"))
	c.mu.Lock()
	second := c.reconnectTimer
	c.mu.Unlock()
	if first != second {
		t.Fatal("second failure replaced the reconnect timer")
	}

	// The timer fires and redials with the same credentials,
	// indefinitely.
	waitFor(t, "second dial attempt", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts >= 2
	})
}

func TestReconnectReusesCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.ReconnectInterval = 20 * time.Millisecond

	conns := make(chan *fakeConn, 4)
	dial := func(context.Context, string) (wireConn, error) {
		conn := newFakeConn()
		conns <- conn
		return conn, nil
	}
	c := newTestClient(t, cfg, &safeSink{}, dial)

	c.Connect(context.Background(), "alice", "pw")
	first := <-conns
	waitFor(t, "first login", func() bool { return first.writeCount() >= 1 })

	// Simulate a server-side drop.
	first.Close()

	second := <-conns
	waitFor(t, "relogin", func() bool { return second.writeCount() >= 1 })
	login := second.lastWrite(t)
	if login["username"] != "alice" || login["password"] != "pw" {
		t.Fatalf("reconnect lost credentials: %v", login)
	}
}

func TestAuthRejectionNeverReconnects(t *testing.T) {
	cfg := testConfig()
	cfg.ReconnectInterval = 20 * time.Millisecond

	var mu sync.Mutex
	attempts := 0
	conn := newFakeConn()
	dial := func(context.Context, string) (wireConn, error) {
		mu.Lock()
		attempts++
		mu.Unlock()
		return conn, nil
	}
	sink := &safeSink{}
	c := newTestClient(t, cfg, sink, dial)

	c.Connect(context.Background(), "alice", "wrong")
	waitFor(t, "login frame", func() bool { return conn.writeCount() >= 1 })

	conn.push(t, map[string]any{
		"handler": "login_event", "type": "failure", "reason": "wrong password",
	})

	waitFor(t, "disconnected state", func() bool {
		return c.Session().State == core.StateDisconnected
	})
	waitFor(t, "login failed event", func() bool {
		return sink.count(core.EventLoginFailed) >= 1
	})
	if got := c.Session().LastError; got != "wrong password" {
		t.Fatalf("LastError = %q", got)
	}

	// Give a would-be reconnect timer ample time to fire.
	time.Sleep(80 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if attempts != 1 {
		t.Fatalf("dial attempts = %d after auth rejection, want 1", attempts)
	}
}

func TestConnectionLossRejectsPendingRequests(t *testing.T) {
	conn := newFakeConn()
	c := newTestClient(t, testConfig(), &safeSink{}, func(context.Context, string) (wireConn, error) {
		return conn, nil
	})

	c.Connect(context.Background(), "alice", "pw")
	waitFor(t, "login frame", func() bool { return conn.writeCount() >= 1 })

	done := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(),
			proto.ListRooms("public_rooms", 1), func(*proto.Frame) bool { return false })
		done <- err
	}()

	// Ensure the request is registered before dropping the transport.
	waitFor(t, "pending request", func() bool { return c.disp.PendingCount() == 1 })
	conn.Close()

	select {
	case err := <-done:
		if !errors.Is(err, core.ErrConnectionLost) {
			t.Fatalf("err = %v, want ErrConnectionLost", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("request not rejected on connection loss")
	}
}
