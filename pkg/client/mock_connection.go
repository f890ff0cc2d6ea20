package client

import (
	"fmt"
	"sync"

	"github.com/wrenchat/wren/pkg/protocol"
)

// MockConn is a test implementation of Conn. It records sent commands and
// queues them while "offline" the way the real transport does.
type MockConn struct {
	mu sync.Mutex

	connected  bool
	address    string
	connectErr error

	incoming    chan protocol.Command
	errs        chan error
	stateChange chan StateUpdate

	// Sent commands for verification
	Sent   []protocol.Command
	queued []protocol.Command
}

// NewMockConn creates a new mock connection.
func NewMockConn() *MockConn {
	return &MockConn{
		address:     "mock://server",
		incoming:    make(chan protocol.Command, 100),
		errs:        make(chan error, 10),
		stateChange: make(chan StateUpdate, 10),
	}
}

// Connect marks the mock connected and flushes the offline queue.
func (m *MockConn) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	m.Sent = append(m.Sent, m.queued...)
	m.queued = nil
	return nil
}

// Close closes the mock connection channels.
func (m *MockConn) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	close(m.incoming)
	close(m.errs)
	close(m.stateChange)
}

// IsConnected returns the connection status.
func (m *MockConn) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Address returns the mock address.
func (m *MockConn) Address() string {
	return m.address
}

// Send records the command, queueing it if the mock is "offline".
func (m *MockConn) Send(cmd protocol.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		m.queued = append(m.queued, cmd)
		return nil
	}
	m.Sent = append(m.Sent, cmd)
	return nil
}

// Incoming returns the incoming command channel.
func (m *MockConn) Incoming() <-chan protocol.Command {
	return m.incoming
}

// Errors returns the error channel.
func (m *MockConn) Errors() <-chan error {
	return m.errs
}

// StateChanges returns the state change channel.
func (m *MockConn) StateChanges() <-chan StateUpdate {
	return m.stateChange
}

// BytesSent returns 0 for mock.
func (m *MockConn) BytesSent() uint64 { return 0 }

// BytesReceived returns 0 for mock.
func (m *MockConn) BytesReceived() uint64 { return 0 }

// Test helpers

// SetConnectError sets an error to return from Connect().
func (m *MockConn) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

// SimulateIncoming delivers a command as if received from the server.
func (m *MockConn) SimulateIncoming(cmd protocol.Command) {
	m.incoming <- cmd
}

// SimulateError delivers a transport error.
func (m *MockConn) SimulateError(err error) {
	m.errs <- err
}

// SimulateStateChange delivers a connection state update.
func (m *MockConn) SimulateStateChange(upd StateUpdate) {
	if upd.State == StateConnected {
		m.mu.Lock()
		m.connected = true
		m.Sent = append(m.Sent, m.queued...)
		m.queued = nil
		m.mu.Unlock()
	}
	if upd.State == StateDisconnected {
		m.mu.Lock()
		m.connected = false
		m.mu.Unlock()
	}
	m.stateChange <- upd
}

// SentCommands returns a snapshot of everything sent so far.
func (m *MockConn) SentCommands() []protocol.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]protocol.Command, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// LastSent returns the most recently sent command.
func (m *MockConn) LastSent() (protocol.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil, fmt.Errorf("no commands sent")
	}
	return m.Sent[len(m.Sent)-1], nil
}

// ClearSent clears the sent command record.
func (m *MockConn) ClearSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = nil
}
