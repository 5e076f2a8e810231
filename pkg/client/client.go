package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/qnkhuat/guards/pkg/game"
	"github.com/qnkhuat/guards/pkg/protocol"
)

const (
	ConnQueueSize     = 10
	ConnectTries      = 25
	ConnectRetryDelay = 250 * time.Millisecond
	ConnTimeout       = 5 * time.Second
)

// ErrRejected is returned by Apply when a relayed move is illegal on the
// local board.
var ErrRejected = errors.New("move rejected by local game")

// ServerError is an error line the relay sent back to this client.
type ServerError struct {
	Code protocol.ErrorCode
	Text string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server: %s %s", e.Code, e.Text)
}

// Client is a connection to a relay. Messages from the relay arrive on In,
// which is closed when the connection ends.
type Client struct {
	Conn net.Conn
	In   chan protocol.MessageInterface

	out       chan protocol.MessageInterface
	done      chan struct{}
	closeOnce sync.Once
}

func Connect(ctx context.Context, address string) (*Client, error) {
	conn, err := dial(ctx, address, ConnectTries, ConnectRetryDelay)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

func dial(ctx context.Context, address string, tries int, delay time.Duration) (net.Conn, error) {
	var (
		network string
		conn    net.Conn
		err     error
		d       = net.Dialer{Timeout: ConnTimeout}
	)
	network, address = protocol.NetworkAndAddress(address)

	for try := 1; ; try++ {
		conn, err = d.DialContext(ctx, network, address)
		if err == nil {
			return conn, nil
		}
		if try >= tries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to connect to %s: %w", address, ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
}

func New(conn net.Conn) *Client {
	c := &Client{
		Conn: conn,
		In:   make(chan protocol.MessageInterface, ConnQueueSize),
		out:  make(chan protocol.MessageInterface, ConnQueueSize),
		done: make(chan struct{}),
	}

	go c.handleRead()
	go c.handleWrite()

	return c
}

func (c *Client) Join(team game.Team) bool {
	return c.Write(protocol.MessageJoin{Team: team})
}

// Move proposes a move. It is applied locally only once the relay echoes it.
func (c *Client) Move(team game.Team, from, to game.Coord) bool {
	return c.Write(protocol.MessageMove{Team: team, From: from, To: to})
}

// Write queues m for the relay. It reports false when the client is closed.
func (c *Client) Write(m protocol.MessageInterface) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.out <- m:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.Conn.Close()
	})
	return err
}

func (c *Client) handleWrite() {
	for {
		select {
		case <-c.done:
			return
		case m := <-c.out:
			if _, err := c.Conn.Write(protocol.Encode(m)); err != nil {
				log.Printf("write to server: %s", err)
				c.Close()
				return
			}
		}
	}
}

func (c *Client) handleRead() {
	defer close(c.In)

	scanner := bufio.NewScanner(c.Conn)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		m, err := protocol.Decode(line)
		if err != nil {
			log.Printf("ignoring line from server %q: %s", line, err)
			continue
		}

		select {
		case c.In <- m:
		case <-c.done:
			return
		}
	}

	select {
	case <-c.done:
	default:
		if err := scanner.Err(); err != nil {
			log.Printf("read from server: %s", err)
		}
		c.Close()
	}
}

// Apply plays a relayed message against the local game. Joins need no local
// state and return nil.
func Apply(g *game.Game, m protocol.MessageInterface) error {
	switch m := m.(type) {
	case protocol.MessageMove:
		if !g.ApplyMove(m.Team, m.From, m.To) {
			return fmt.Errorf("%w: %s", ErrRejected, m.Encode())
		}
	case protocol.MessageError:
		return &ServerError{Code: m.Code, Text: m.Text}
	}
	return nil
}
