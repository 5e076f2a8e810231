package server

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qnkhuat/guards/pkg/game"
)

// transport is a line-oriented client connection.
type transport interface {
	ReadLine() (string, error)
	WriteLine(line []byte, deadline time.Time) error
	Close() error
	RemoteAddr() string
}

// Conn is a connected client. ID, Team and Name belong to the event loop.
type Conn struct {
	ID   int
	Team game.Team
	Name string

	t      transport
	out    chan []byte
	closed bool
}

func newConn(t transport, queueSize int) *Conn {
	return &Conn{t: t, out: make(chan []byte, queueSize)}
}

func (c *Conn) String() string {
	return c.Name
}

type tcpTransport struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func newTCPTransport(conn net.Conn) *tcpTransport {
	return &tcpTransport{conn: conn, scanner: bufio.NewScanner(conn)}
}

func (t *tcpTransport) ReadLine() (string, error) {
	if t.scanner.Scan() {
		return t.scanner.Text(), nil
	}
	if err := t.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (t *tcpTransport) WriteLine(line []byte, deadline time.Time) error {
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	_, err := t.conn.Write(line)
	return err
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

func (t *tcpTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

// wsTransport carries the same lines over WebSocket text frames. A frame may
// hold several lines.
type wsTransport struct {
	conn    *websocket.Conn
	pending []string
}

func (t *wsTransport) ReadLine() (string, error) {
	for len(t.pending) == 0 {
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		t.pending = strings.Split(strings.TrimRight(string(data), "\r\n"), "\n")
	}

	line := t.pending[0]
	t.pending = t.pending[1:]
	return line, nil
}

func (t *wsTransport) WriteLine(line []byte, deadline time.Time) error {
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, bytes.TrimRight(line, "\n"))
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

func (t *wsTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
