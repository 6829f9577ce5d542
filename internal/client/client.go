package client

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatp-client/internal/config"
	"github.com/vovakirdan/chatp-client/internal/core"
	"github.com/vovakirdan/chatp-client/internal/proto"
)

// writeTimeout bounds a single outbound frame write.
const writeTimeout = 10 * time.Second

// Client owns the socket lifecycle: connect, authenticate, detect
// closure, schedule reconnection. Inbound frames flow through the codec
// into the dispatcher; state changes come back out on the sink.
type Client struct {
	cfg   config.Config
	codec *proto.Codec
	disp  *core.Dispatcher
	sink  core.Sink
	log   zerolog.Logger
	dial  dialFunc

	mu                sync.Mutex
	conn              wireConn
	session           core.Session
	password          string
	runCtx            context.Context
	reconnectTimer    *time.Timer
	suppressReconnect bool
}

// New builds a client. sink receives every state change; mirror (may be
// nil) receives each raw inbound payload verbatim.
func New(cfg config.Config, sink core.Sink, logger *zerolog.Logger, opts ...Option) (*Client, error) {
	variant, err := proto.VariantByName(cfg.ProtocolVariant)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = core.SinkFunc(func(core.Event) {})
	}
	log := logger.With().Str("component", "client").Logger()

	c := &Client{
		cfg:    cfg,
		sink:   sink,
		log:    log,
		dial:   dialWebsocket,
		runCtx: context.Background(),
	}
	c.session.State = core.StateDisconnected

	mirror := newFrameMirror(log)
	c.codec = proto.NewCodec(variant, mirror)
	c.disp = core.NewDispatcher(sink, log)
	c.disp.SetHooks(core.Hooks{
		OnLoginSuccess: c.handleLoginSuccess,
		OnLoginFailed:  c.handleLoginFailed,
		OnRoomCreated:  c.handleRoomCreated,
	})

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Option adjusts client construction.
type Option func(*Client)

// WithMirror replaces the raw-frame debug mirror.
func WithMirror(mirror io.Writer) Option {
	return func(c *Client) {
		c.codec = proto.NewCodec(c.codec.Variant(), mirror)
	}
}

// Connect opens the transport and authenticates. It never returns an
// error: failures surface through the closure path, which schedules a
// reconnect with the same credentials.
func (c *Client) Connect(ctx context.Context, username, password string) {
	c.mu.Lock()
	c.session.Username = username
	c.session.State = core.StateConnecting
	c.password = password
	c.runCtx = ctx
	c.suppressReconnect = false
	c.stopReconnectLocked()
	c.mu.Unlock()

	c.publishState(core.StateConnecting)
	c.publishStatus("Connecting to server...")
	go c.establish(ctx)
}

func (c *Client) establish(ctx context.Context) {
	conn, err := c.dial(ctx, c.cfg.Endpoint)
	if err != nil {
		c.log.Warn().Err(err).Str("endpoint", c.cfg.Endpoint).Msg("dial failed")
		c.transportFailure(err)
		return
	}

	c.mu.Lock()
	if c.session.State != core.StateConnecting {
		// Connect was superseded while dialing.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.session.State = core.StateAuthenticating
	username, password := c.session.Username, c.password
	c.mu.Unlock()

	c.publishState(core.StateAuthenticating)
	c.publishStatus("Connected to server")

	if err := c.write(proto.Login(username, password)); err != nil {
		c.transportFailure(err)
		return
	}
	go c.readLoop(ctx, conn)
}

func (c *Client) readLoop(ctx context.Context, conn wireConn) {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			c.transportFailure(err)
			return
		}
		frame, err := c.codec.Decode(data)
		if err != nil {
			// Malformed payload: drop the frame, keep the connection.
			c.log.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}
		c.disp.Dispatch(frame)
	}
}

// transportFailure handles closure and socket errors: tear down, reject
// in-flight requests, and arm exactly one reconnect timer. Auth
// rejection never lands here with reconnection enabled because
// handleLoginFailed suppresses it first.
func (c *Client) transportFailure(err error) {
	c.mu.Lock()
	if c.session.State == core.StateDisconnected || c.session.State == core.StateReconnecting {
		c.mu.Unlock()
		return
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.session.State = core.StateDisconnected
	if err != nil {
		c.session.LastError = err.Error()
	}
	scheduled := c.scheduleReconnectLocked()
	c.mu.Unlock()

	c.disp.RejectAll(core.ErrConnectionLost)
	c.disp.Reset()

	c.publishState(core.StateDisconnected)
	c.publishStatus("Disconnected from server")
	if scheduled {
		c.publishState(core.StateReconnecting)
		c.publishStatus("Attempting to reconnect...")
	}
}

// scheduleReconnectLocked arms the reconnect timer if allowed. At most
// one timer is ever pending.
func (c *Client) scheduleReconnectLocked() bool {
	if c.suppressReconnect || c.cfg.ReconnectInterval <= 0 || c.reconnectTimer != nil {
		return false
	}
	c.session.State = core.StateReconnecting
	c.reconnectTimer = time.AfterFunc(c.cfg.ReconnectInterval, func() {
		c.mu.Lock()
		c.reconnectTimer = nil
		ctx := c.runCtx
		username, password := c.session.Username, c.password
		c.mu.Unlock()
		c.Connect(ctx, username, password)
	})
	return true
}

func (c *Client) stopReconnectLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

// handleLoginSuccess runs on the dispatch path after login_event
// success. Roster is already applied; kick off the directory fetch.
func (c *Client) handleLoginSuccess(*proto.Frame) {
	c.mu.Lock()
	c.session.State = core.StateOnline
	c.session.LastError = ""
	c.stopReconnectLocked()
	ctx := c.runCtx
	c.mu.Unlock()

	c.publishState(core.StateOnline)
	c.publishStatus("Online")
	go c.FetchRooms(ctx)
}

// handleLoginFailed keeps the session down on an auth rejection. The
// server closes the socket afterwards; suppressing reconnection first
// preserves the rule that only transport failures reconnect.
func (c *Client) handleLoginFailed(reason string) {
	c.mu.Lock()
	c.suppressReconnect = true
	c.session.State = core.StateDisconnected
	c.session.LastError = reason
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.disp.RejectAll(core.ErrConnectionLost)
	c.disp.Reset()
	c.publishState(core.StateDisconnected)
}

func (c *Client) handleRoomCreated(room string) {
	if err := c.JoinRoom(room, ""); err != nil {
		c.log.Warn().Err(err).Str("room", room).Msg("auto-join after create failed")
	}
}

// Send encodes and writes a command. A send while not connected is
// rejected synchronously, never silently dropped.
func (c *Client) Send(cmd proto.Command) error {
	return c.write(cmd)
}

func (c *Client) write(cmd proto.Command) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return core.ErrNotConnected
	}

	_, payload, err := c.codec.Encode(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return conn.Write(ctx, payload)
}

// Request sends a command and waits for the correlated reply: the first
// inbound frame satisfying pred. The wait is bounded by the configured
// request timeout and rejected on connection loss.
func (c *Client) Request(ctx context.Context, cmd proto.Command, pred func(*proto.Frame) bool) (*proto.Frame, error) {
	p := c.disp.Await(pred)
	if err := c.Send(cmd); err != nil {
		c.disp.Cancel(p, err)
		return nil, err
	}

	timer := time.NewTimer(c.cfg.RequestTimeout)
	defer timer.Stop()
	select {
	case res := <-p.Done():
		if res.Outcome == core.OutcomeResolved {
			return res.Frame, nil
		}
		return nil, res.Err
	case <-ctx.Done():
		c.disp.Cancel(p, ctx.Err())
		return nil, ctx.Err()
	case <-timer.C:
		c.disp.Cancel(p, core.ErrRequestTimeout)
		return nil, core.ErrRequestTimeout
	}
}

// Session returns a copy of the session state.
func (c *Client) Session() core.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Room returns a snapshot of a joined room's state.
func (c *Client) Room(name string) (core.RoomView, bool) {
	return c.disp.Room(name)
}

// RoomNames lists the rooms currently joined.
func (c *Client) RoomNames() []string {
	return c.disp.RoomNames()
}

// Roster returns the friend list, online first.
func (c *Client) Roster() []core.RosterEntry {
	return c.disp.RosterEntries()
}

// JoinRoom asks to enter a room. password may be empty.
func (c *Client) JoinRoom(name, password string) error {
	return c.Send(proto.JoinRoom(name, password))
}

// LeaveRoom exits a room and forgets its membership.
func (c *Client) LeaveRoom(name string) error {
	err := c.Send(proto.LeaveRoom(name))
	if err == nil {
		c.disp.DropRoom(name)
	}
	return err
}

// SendText sends a plain text message to a room.
func (c *Client) SendText(room, body string) error {
	return c.Send(proto.Chat(room, proto.TypeText, body, "", 0))
}

// SendMedia sends an image, audio or gift message.
func (c *Client) SendMedia(room, kind, url string, length int) error {
	return c.Send(proto.Chat(room, kind, "", url, length))
}

// SetSubject changes a room's subject.
func (c *Client) SetSubject(room, subject string) error {
	return c.Send(proto.SetSubject(room, subject))
}

// ChangeRole grants a member a new role.
func (c *Client) ChangeRole(room, username, role string) error {
	return c.Send(proto.ChangeRole(room, username, role))
}

// Kick removes a member from a room.
func (c *Client) Kick(room, username string) error {
	return c.Send(proto.Kick(room, username))
}

// CreateRoom asks the server for a new room; success auto-joins it.
func (c *Client) CreateRoom(name string) error {
	return c.Send(proto.CreateRoom(name))
}

// SolveCaptcha submits a challenge answer for a room. The verdict comes
// back as a captcha_passed or captcha_failed room event.
func (c *Client) SolveCaptcha(room, answer string) error {
	return c.Send(proto.CaptchaAnswer(room, answer))
}

// Close tears the client down without scheduling a reconnect.
func (c *Client) Close() {
	c.mu.Lock()
	c.suppressReconnect = true
	c.stopReconnectLocked()
	conn := c.conn
	c.conn = nil
	c.session.State = core.StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	c.disp.RejectAll(core.ErrConnectionLost)
	c.disp.Reset()
}

func (c *Client) publishState(state core.SessionState) {
	c.sink.Publish(core.Event{Kind: core.EventSessionState, State: state})
}

func (c *Client) publishStatus(status string) {
	c.sink.Publish(core.Event{Kind: core.EventStatus, Status: status})
}

// frameMirror copies every raw inbound payload to the debug log,
// independent of dispatch outcome.
type frameMirror struct {
	log zerolog.Logger
}

func newFrameMirror(log zerolog.Logger) *frameMirror {
	return &frameMirror{log: log}
}

func (m *frameMirror) Write(p []byte) (int, error) {
	if len(p) == 1 && p[0] == '\n' {
		return 1, nil
	}
	m.log.Debug().Bytes("frame", p).Msg("recv")
	return len(p), nil
}
