package server

import "time"

// Client is one connected bench, over telnet or WebSocket.
type Client interface {
	// ReadLine blocks until a complete line is received, without its newline.
	ReadLine() (string, error)

	// WriteLine sends one reply. Multi-line replies go out as a single unit.
	WriteLine(message string) error

	// SetReadDeadline bounds the next ReadLine. The zero time clears it.
	SetReadDeadline(t time.Time) error

	Close() error

	// RemoteAddr returns the client's address for logging.
	RemoteAddr() string
}
