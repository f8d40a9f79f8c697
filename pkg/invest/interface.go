// pkg/invest/interface.go
package invest

import "context"

// Conn is one established transport connection exchanging text frames.
// ReadText returns io.EOF when the peer closes the stream cleanly.
type Conn interface {
	ReadText() (string, error)
	WriteText(text string) error
	Close() error
}

// Dialer opens transport connections. The production implementation is
// WSDialer; tests substitute their own.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// SnapshotHandler consumes decoded snapshots, one call per inbound frame,
// in wire arrival order.
type SnapshotHandler func(Snapshot)
