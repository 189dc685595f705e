package session

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"browserchat/internal/apperrors"
	"browserchat/internal/logging"
)

const (
	defaultHandshakeTimeout = 5 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	defaultEventBuffer      = 256
	closeGracePeriod        = time.Second
)

// ConnEventKind is a connection lifecycle signal.
type ConnEventKind int

const (
	ConnOpened ConnEventKind = iota + 1
	ConnFrame
	ConnClosed
	ConnTransportError
)

func (k ConnEventKind) String() string {
	switch k {
	case ConnOpened:
		return "opened"
	case ConnFrame:
		return "frame"
	case ConnClosed:
		return "closed"
	case ConnTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// ConnEvent is one item on the inbound event channel.
type ConnEvent struct {
	Kind  ConnEventKind
	Frame []byte // ConnFrame only
	Err   error  // ConnTransportError only
}

// Conn owns the single websocket to the agent. It knows nothing about
// message semantics: it reports lifecycle transitions and raw frames, in
// transport order, on the channel returned by Events, and sends frames.
// There is no reconnect; once ConnClosed is delivered the Conn is spent.
type Conn struct {
	endpoint     string
	header       http.Header
	dialer       *websocket.Dialer
	writeTimeout time.Duration
	events       chan ConnEvent

	openOnce sync.Once

	mu        sync.Mutex // guards ws, connected, closing; ws != nil iff connected
	ws        *websocket.Conn
	connected bool
	closing   bool

	writeMu sync.Mutex
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

func WithHandshakeTimeout(d time.Duration) ConnOption {
	return func(c *Conn) {
		if d > 0 {
			c.dialer.HandshakeTimeout = d
			c.dialer.NetDialContext = (&net.Dialer{Timeout: d}).DialContext
		}
	}
}

func WithWriteTimeout(d time.Duration) ConnOption {
	return func(c *Conn) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithHeader sets extra handshake headers, e.g. Origin.
func WithHeader(h http.Header) ConnOption {
	return func(c *Conn) { c.header = h.Clone() }
}

func WithEventBuffer(n int) ConnOption {
	return func(c *Conn) {
		if n > 0 {
			c.events = make(chan ConnEvent, n)
		}
	}
}

// NewConn prepares a connection to endpoint. Nothing is dialed until Open.
func NewConn(endpoint string, opts ...ConnOption) *Conn {
	c := &Conn{
		endpoint: endpoint,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: defaultHandshakeTimeout,
			NetDialContext:   (&net.Dialer{Timeout: defaultHandshakeTimeout}).DialContext,
		},
		writeTimeout: defaultWriteTimeout,
		events:       make(chan ConnEvent, defaultEventBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Conn) Endpoint() string { return c.endpoint }

// Events delivers lifecycle signals and frames. It is closed after ConnClosed.
func (c *Conn) Events() <-chan ConnEvent { return c.events }

func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Open dials the endpoint in the background. Only the first call has any
// effect. Cancelling ctx aborts a pending dial and unblocks event delivery
// once nobody is reading anymore.
func (c *Conn) Open(ctx context.Context) {
	c.openOnce.Do(func() {
		go c.run(ctx)
	})
}

func (c *Conn) run(ctx context.Context) {
	log := logging.With(logging.FieldComponent, "conn", logging.FieldEndpoint, c.endpoint)
	defer close(c.events)

	ws, _, err := c.dialer.DialContext(ctx, c.endpoint, c.header)
	if err != nil {
		log.Warn("dial failed", logging.FieldError, err)
		c.emit(ctx, ConnEvent{Kind: ConnTransportError, Err: apperrors.Wrap(err, "Conn.Open", "dial agent")})
		c.emit(ctx, ConnEvent{Kind: ConnClosed})
		return
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		_ = ws.Close()
		c.emit(ctx, ConnEvent{Kind: ConnClosed})
		return
	}
	c.ws = ws
	c.connected = true
	c.mu.Unlock()

	log.Info("connected")
	c.emit(ctx, ConnEvent{Kind: ConnOpened})
	c.readLoop(ctx, ws, log)
}

func (c *Conn) readLoop(ctx context.Context, ws *websocket.Conn, log *slog.Logger) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			requested := c.markDisconnected(ws)
			_ = ws.Close()
			if !requested && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("connection lost", logging.FieldError, err)
				c.emit(ctx, ConnEvent{Kind: ConnTransportError, Err: apperrors.Wrap(err, "Conn.read", "connection lost")})
			} else {
				log.Info("connection closed")
			}
			c.emit(ctx, ConnEvent{Kind: ConnClosed})
			return
		}
		log.Debug("frame received", logging.FieldBytes, len(data))
		c.emit(ctx, ConnEvent{Kind: ConnFrame, Frame: data})
	}
}

// emit blocks so no frame is dropped; ctx cancellation is the only escape.
func (c *Conn) emit(ctx context.Context, ev ConnEvent) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

// markDisconnected clears the socket and reports whether Close asked for it.
func (c *Conn) markDisconnected(ws *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == ws {
		c.ws = nil
		c.connected = false
	}
	return c.closing
}

// Send writes one text frame. Without an open connection it returns
// ErrNotConnected and does nothing; unsent payloads are never queued.
func (c *Conn) Send(payload []byte) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return apperrors.ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		return apperrors.Wrap(err, "Conn.Send", "write frame")
	}
	return nil
}

// Close sends a normal closure and releases the socket. Safe to call more
// than once and before Open.
func (c *Conn) Close() error {
	c.mu.Lock()
	c.closing = true
	ws := c.ws
	c.ws = nil
	c.connected = false
	c.mu.Unlock()
	if ws == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closed")
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
	if err := ws.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return apperrors.Wrap(err, "Conn.Close", "close socket")
	}
	return nil
}
