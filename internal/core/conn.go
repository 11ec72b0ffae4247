// Package core holds the transport-facing interfaces and the session
// entity shared by the registries and the adapters.
package core

import "errors"

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Frame is one encoded wire frame.
type Frame []byte

// StreamConn is the reliable bidirectional message stream of one client.
// Owned by the ws adapter; the adapter must Close() it. TrySend never
// blocks: a full buffer or a closed connection is reported as an error
// and the frame is dropped.
type StreamConn interface {
	TrySend(Frame) error
	Close()
}
