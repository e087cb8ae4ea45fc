package logger

// NoOp is a logger that discards all messages. Useful in tests.
type NoOp struct{}

var _ Interface = (*NoOp)(nil)

// NewNoOp creates a new no-op logger.
func NewNoOp() Interface { return &NoOp{} }

// Debug does nothing.
func (n *NoOp) Debug(string, ...any) {}

// Info does nothing.
func (n *NoOp) Info(string, ...any) {}

// Warn does nothing.
func (n *NoOp) Warn(string, ...any) {}

// Error does nothing.
func (n *NoOp) Error(string, ...any) {}

// With returns the same no-op logger.
func (n *NoOp) With(...any) Interface { return n }
