//go:generate mockgen -source=signal_iface.go -destination=mocks/mock_signal.go -package=mocks

package core

// Frame is an encoded protocol event.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend queues f without blocking.
	TrySend(Frame) error
	// Close flushes what was queued before it and then drops the connection.
	Close()
}
