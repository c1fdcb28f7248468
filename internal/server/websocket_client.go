package server

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketClient wraps a WebSocket connection for browser benches.
type WebSocketClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex // protects pending
	pending []string   // lines left over from a multi-line message
}

// NewWebSocketClient creates a new WebSocketClient from a WebSocket connection.
func NewWebSocketClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{conn: conn}
}

// ReadLine returns the next non-blank line. A message holding several lines
// is split and the remainder buffered for later calls.
func (c *WebSocketClient) ReadLine() (string, error) {
	for {
		if line, ok := c.popPending(); ok {
			return line, nil
		}

		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}

		var lines []string
		for _, line := range strings.Split(string(message), "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}

		c.mu.Lock()
		c.pending = append(c.pending, lines...)
		c.mu.Unlock()
	}
}

func (c *WebSocketClient) popPending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return "", false
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, true
}

// WriteLine sends message as one text frame. It is safe to call from
// several goroutines.
func (c *WebSocketClient) WriteLine(message string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(message))
}

func (c *WebSocketClient) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *WebSocketClient) Close() error {
	return c.conn.Close()
}

func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
