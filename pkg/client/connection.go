package client

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wrenchat/wren/pkg/protocol"
)

// ConnState represents the connection status
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// StateUpdate represents a connection state change
type StateUpdate struct {
	State   ConnState
	Attempt int
	Err     error
}

// ErrConnectionClosed is returned by Send after Close has been called.
var ErrConnectionClosed = errors.New("connection closed")

// wireConn is the subset of *websocket.Conn the transport uses; tests
// substitute an in-memory implementation.
type wireConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Connection owns the single logical connection to the chat server. It
// decodes inbound frames to typed commands, queues outbound commands while
// offline, and reconnects with capped exponential backoff. All outbound
// traffic funnels through Send; no other component touches the wire.
type Connection struct {
	url  string
	dial func() (wireConn, error)

	mu           sync.Mutex
	ws           wireConn
	connected    bool
	reconnecting bool
	closed       bool
	pending      [][]byte // encoded commands queued while offline, FIFO

	// writeMu serializes wire writes; held across the queue flush so a
	// concurrent Send cannot jump ahead of queued commands.
	writeMu sync.Mutex

	incoming    chan protocol.Command
	errs        chan error
	stateChange chan StateUpdate

	reconnectDelay    time.Duration
	maxReconnectDelay time.Duration

	bytesSent     atomic.Uint64
	bytesReceived atomic.Uint64

	log zerolog.Logger

	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewConnection creates a connection to the given server URL. A bare
// host:port is dialed as ws://.
func NewConnection(rawURL string, logger zerolog.Logger) *Connection {
	if !strings.Contains(rawURL, "://") {
		rawURL = "ws://" + rawURL
	}

	c := &Connection{
		url:               rawURL,
		incoming:          make(chan protocol.Command, 100),
		errs:              make(chan error, 10),
		stateChange:       make(chan StateUpdate, 10),
		reconnectDelay:    1 * time.Second,
		maxReconnectDelay: 30 * time.Second,
		log:               logger.With().Str("component", "transport").Logger(),
		shutdown:          make(chan struct{}),
	}
	c.dial = func() (wireConn, error) {
		dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
		ws, _, err := dialer.Dial(c.url, nil)
		if err != nil {
			return nil, err
		}
		return ws, nil
	}
	return c
}

// SetBackoff overrides the reconnect backoff bounds.
func (c *Connection) SetBackoff(initial, max time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnectDelay = initial
	c.maxReconnectDelay = max
}

// Address returns the server URL.
func (c *Connection) Address() string {
	return c.url
}

// IsConnected returns whether the connection is active.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// QueueLen returns the number of commands waiting for a reconnect.
func (c *Connection) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// BytesSent returns the total bytes written to the wire.
func (c *Connection) BytesSent() uint64 {
	return c.bytesSent.Load()
}

// BytesReceived returns the total bytes read from the wire.
func (c *Connection) BytesReceived() uint64 {
	return c.bytesReceived.Load()
}

// Incoming returns the channel of decoded server commands.
func (c *Connection) Incoming() <-chan protocol.Command {
	return c.incoming
}

// Errors returns the channel of transport errors.
func (c *Connection) Errors() <-chan error {
	return c.errs
}

// StateChanges returns the channel of connection state updates.
func (c *Connection) StateChanges() <-chan StateUpdate {
	return c.stateChange
}

// Connect dials the server. On success the offline queue is flushed in FIFO
// order, one write per queued command, before any newer Send reaches the wire.
func (c *Connection) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnectionClosed
	}
	if c.connected {
		c.mu.Unlock()
		return fmt.Errorf("already connected")
	}
	c.mu.Unlock()

	c.log.Debug().Str("url", c.url).Msg("connecting")

	ws, err := c.dial()
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.writeMu.Lock()
	c.mu.Lock()
	c.ws = ws
	c.connected = true
	queued := c.pending
	c.pending = nil
	c.mu.Unlock()

	for i, data := range queued {
		if err := c.writeFrame(ws, data); err != nil {
			// Keep the unflushed remainder (including the failed write,
			// whose delivery is unknown) at the head of the queue.
			c.mu.Lock()
			c.pending = append(queued[i:], c.pending...)
			c.mu.Unlock()
			c.writeMu.Unlock()
			c.handleDisconnect(err)
			return fmt.Errorf("flush queued command: %w", err)
		}
	}
	c.writeMu.Unlock()

	c.log.Info().Str("url", c.url).Int("flushed", len(queued)).Msg("connected")

	c.wg.Add(1)
	go c.readLoop(ws)

	c.notifyState(StateUpdate{State: StateConnected})
	return nil
}

// Start dials in the background, retrying with backoff until the connection
// is established or closed. State updates report progress.
func (c *Connection) Start() {
	c.kickReconnect()
}

// Send transmits a command if connected, otherwise queues it and triggers a
// connection attempt if none is in flight.
func (c *Connection) Send(cmd protocol.Command) error {
	data, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}
	return c.sendRaw(data)
}

func (c *Connection) sendRaw(data []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnectionClosed
	}
	if !c.connected {
		c.pending = append(c.pending, data)
		kick := !c.reconnecting
		c.mu.Unlock()
		if kick {
			c.kickReconnect()
		}
		return nil
	}
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// The connection may have dropped or been replaced while waiting for the
	// write lock. If it dropped, the command was issued before the loss and
	// belongs at the queue tail; either way the wire handle is re-read.
	c.mu.Lock()
	if !c.connected {
		c.pending = append(c.pending, data)
		c.mu.Unlock()
		return nil
	}
	ws := c.ws
	c.mu.Unlock()

	if err := c.writeFrame(ws, data); err != nil {
		c.handleDisconnect(err)
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (c *Connection) writeFrame(ws wireConn, data []byte) error {
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	c.bytesSent.Add(uint64(len(data)))
	return nil
}

// readLoop reads frames until the connection drops.
func (c *Connection) readLoop(ws wireConn) {
	defer c.wg.Done()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			select {
			case <-c.shutdown:
			default:
				c.handleDisconnect(err)
			}
			return
		}
		c.bytesReceived.Add(uint64(len(data)))

		cmd, err := protocol.Decode(data)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}

		select {
		case c.incoming <- cmd:
		case <-c.shutdown:
			return
		}
	}
}

// handleDisconnect handles unexpected connection loss.
func (c *Connection) handleDisconnect(reason error) {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	if c.ws != nil {
		c.ws.Close()
		c.ws = nil
	}
	auto := !c.closed
	c.mu.Unlock()

	if !wasConnected {
		return
	}

	c.log.Warn().Err(reason).Msg("connection lost")

	select {
	case c.errs <- fmt.Errorf("connection lost: %w", reason):
	default:
	}
	c.notifyState(StateUpdate{State: StateDisconnected, Err: reason})

	if auto {
		c.kickReconnect()
	}
}

// reconnectLoop retries Connect with exponential backoff until it succeeds or
// the connection is closed. There is no retry ceiling; the delay caps at
// maxReconnectDelay.
func (c *Connection) reconnectLoop() {
	c.mu.Lock()
	if c.reconnecting || c.closed || c.connected {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	delay := c.reconnectDelay
	maxDelay := c.maxReconnectDelay
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			select {
			case <-c.shutdown:
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}

		select {
		case <-c.shutdown:
			return
		default:
		}

		c.notifyState(StateUpdate{State: StateConnecting, Attempt: attempt})

		if err := c.Connect(); err != nil {
			c.log.Debug().Err(err).Int("attempt", attempt).Msg("reconnect failed")
			continue
		}

		c.log.Info().Int("attempts", attempt).Msg("reconnected")
		return
	}
}

// notifyState delivers a state update, blocking until the consumer takes it
// or the connection shuts down. Every transition is observed in order; a
// dropped Connected update would leave the session layer thinking it is
// still offline.
func (c *Connection) notifyState(upd StateUpdate) {
	select {
	case c.stateChange <- upd:
	case <-c.shutdown:
	}
}

// kickReconnect launches the reconnect loop on a tracked goroutine. Tracking
// lets Close wait for it before closing the channels notifyState sends on.
func (c *Connection) kickReconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.reconnectLoop()
	}()
}

// Close shuts the connection down permanently.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.connected = false
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	close(c.shutdown)
	if ws != nil {
		ws.Close()
	}
	c.wg.Wait()
	close(c.incoming)
	close(c.errs)
	close(c.stateChange)
}
