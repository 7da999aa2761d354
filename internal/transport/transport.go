// Package transport abstracts a connection into a line-oriented stream.
package transport

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
)

// Conn carries one protocol line per read or write.
type Conn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
	RemoteAddr() string
}

type TCPConn struct {
	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
}

func NewTCP(conn net.Conn) *TCPConn {
	return &TCPConn{
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}
}

func (c *TCPConn) ReadLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err == nil {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF && line != "" {
		// last line without newline
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF {
		return "", io.EOF
	}
	return "", fmt.Errorf("read: %w", err)
}

func (c *TCPConn) WriteLine(line string) error {
	line = strings.ReplaceAll(line, "\n", "")
	if _, err := c.w.WriteString(line + "\n"); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *TCPConn) Close() error {
	return c.conn.Close()
}

func (c *TCPConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
