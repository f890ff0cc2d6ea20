package client

import (
	"github.com/wrenchat/wren/pkg/protocol"
)

// Conn is the transport seam. The real Connection implements it over a
// websocket; MockConn implements it for tests.
type Conn interface {
	// Connection management
	Connect() error
	Close()
	IsConnected() bool
	Address() string

	// Command sending. Send never fails because the transport is down; a
	// command issued while offline is queued and flushed on reconnect.
	Send(cmd protocol.Command) error

	// Channels for receiving data
	Incoming() <-chan protocol.Command
	Errors() <-chan error
	StateChanges() <-chan StateUpdate

	// Traffic statistics
	BytesSent() uint64
	BytesReceived() uint64
}

// StateStore is the persistence seam for the few values that survive a
// restart: the credential token and the last selected group.
type StateStore interface {
	SessionToken() (string, error)
	SetSessionToken(token string) error
	ClearSessionToken() error

	LastGroupID() (uint64, bool)
	SetLastGroupID(id uint64) error
	ClearLastGroupID() error

	LastServer() (string, error)
	SetLastServer(addr string) error

	Close() error
}
