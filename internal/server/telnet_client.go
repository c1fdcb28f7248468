package server

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"time"
)

// maxTelnetLine caps a single input line.
const maxTelnetLine = 4096

// TelnetClient wraps a raw TCP connection for line-oriented sessions.
type TelnetClient struct {
	conn    net.Conn
	scanner *bufio.Scanner
	writeMu sync.Mutex
	writer  *bufio.Writer
}

// NewTelnetClient creates a new TelnetClient from a TCP connection.
func NewTelnetClient(conn net.Conn) *TelnetClient {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 512), maxTelnetLine)
	return &TelnetClient{
		conn:    conn,
		scanner: scanner,
		writer:  bufio.NewWriter(conn),
	}
}

// ReadLine reads a line from the connection, dropping a trailing carriage return.
func (c *TelnetClient) ReadLine() (string, error) {
	if c.scanner.Scan() {
		return strings.TrimRight(c.scanner.Text(), "\r"), nil
	}
	if err := c.scanner.Err(); err != nil {
		return "", err
	}
	return "", net.ErrClosed
}

// WriteLine writes message with CRLF line endings, as telnet clients expect.
func (c *TelnetClient) WriteLine(message string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	message = strings.ReplaceAll(message, "\n", "\r\n")
	if _, err := c.writer.WriteString(message + "\r\n"); err != nil {
		return err
	}
	return c.writer.Flush()
}

func (c *TelnetClient) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *TelnetClient) Close() error {
	return c.conn.Close()
}

func (c *TelnetClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
