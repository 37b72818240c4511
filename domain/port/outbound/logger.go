package outbound

// Logger defines the interface for structured logging operations.
// Implementations are expected to be asynchronous so logging never blocks
// a pump transition or a request.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}
