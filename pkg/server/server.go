package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/gorilla/websocket"

	"github.com/qnkhuat/guards/pkg/game"
	"github.com/qnkhuat/guards/pkg/protocol"
)

const (
	EventQueueSize      = 64
	LogQueueSize        = 64
	DefaultQueueSize    = 16
	DefaultWriteTimeout = 10 * time.Second
	WebSocketPath       = "/ws"
)

type eventKind int

const (
	eventConnect eventKind = iota
	eventDisconnect
	eventMessage
)

type event struct {
	kind eventKind
	conn *Conn
	msg  protocol.MessageInterface
	err  error
}

type Options struct {
	// WriteTimeout bounds every write to a client.
	WriteTimeout time.Duration
	// QueueSize is the number of outgoing lines buffered per client. A
	// client that falls further behind is disconnected.
	QueueSize int
	Verbose   bool
}

// Server relays join and move commands between clients. It keeps no board
// and does not check move legality; it only checks that a client moves for
// the team it joined.
type Server struct {
	Logger chan string

	options Options
	events  chan event
	done    chan struct{}

	// Owned by the event loop.
	conns  map[int]*Conn
	nextID int

	listeners   []net.Listener
	httpServers []*http.Server
	sync.Mutex
}

func NewServer(o Options) *Server {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}

	return &Server{
		options: o,
		events:  make(chan event, EventQueueSize),
		done:    make(chan struct{}),
		conns:   make(map[int]*Conn),
	}
}

// Run processes events one at a time until ctx is done. It is the only
// goroutine that touches the client roster.
func (s *Server) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case e := <-s.events:
			s.handle(e)
		}
	}
}

// shutdown drops every client, including connections whose connect event
// was still queued when the loop stopped.
func (s *Server) shutdown() {
	for _, c := range s.roster() {
		s.drop(c)
	}
	close(s.done)

	for {
		select {
		case e := <-s.events:
			if !e.conn.closed {
				e.conn.closed = true
				e.conn.t.Close()
			}
		default:
			return
		}
	}
}

func (s *Server) handle(e event) {
	c := e.conn

	switch e.kind {
	case eventConnect:
		s.nextID++
		c.ID = s.nextID
		c.Name = fmt.Sprintf("%d:%s", c.ID, petname.Generate(2, "-"))
		s.conns[c.ID] = c

		s.Logf("%s connected from %s", c, c.t.RemoteAddr())
	case eventDisconnect:
		if c.closed {
			return
		}
		s.drop(c)

		s.Logf("%s disconnected", c)
	case eventMessage:
		if c.closed {
			return
		}
		if e.err != nil {
			s.reject(c, e.err)
			return
		}
		if s.options.Verbose {
			s.Logf("%s > %s", c, e.msg.Encode())
		}
		s.handleMessage(c, e.msg)
	}
}

func (s *Server) handleMessage(c *Conn, msg protocol.MessageInterface) {
	switch m := msg.(type) {
	case protocol.MessageJoin:
		c.Team = m.Team
		s.Logf("%s joined %s", c, m.Team.DisplayName())

		s.broadcast(m)
	case protocol.MessageMove:
		switch c.Team {
		case game.Neutral:
			s.write(c, protocol.MessageError{Code: protocol.ErrInvalidMove, Text: "join a team before moving"})
		case m.Team:
			s.broadcast(m)
		default:
			s.write(c, protocol.MessageError{
				Code: protocol.ErrInvalidTeam,
				Text: fmt.Sprintf("playing as %s, not %s", c.Team, m.Team),
			})
		}
	default:
		s.write(c, protocol.MessageError{
			Code: protocol.ErrUnknown,
			Text: fmt.Sprintf("unexpected command %q", msg.Type().String()),
		})
	}
}

func (s *Server) reject(c *Conn, err error) {
	s.Logf("%s sent a bad command: %s", c, err)

	var de *protocol.DecodeError
	if errors.As(err, &de) {
		s.write(c, de.Message())
		return
	}
	s.write(c, protocol.MessageError{Code: protocol.ErrUnknown, Text: err.Error()})
}

// write queues a line for c. It never blocks: a client whose queue is full
// is dropped.
func (s *Server) write(c *Conn, m protocol.MessageInterface) {
	if c.closed {
		return
	}

	select {
	case c.out <- protocol.Encode(m):
	default:
		s.Logf("%s is not keeping up, disconnecting", c)
		s.drop(c)
	}
}

func (s *Server) broadcast(m protocol.MessageInterface) {
	for _, c := range s.roster() {
		s.write(c, m)
	}
}

// roster returns the connected clients in ID order.
func (s *Server) roster() []*Conn {
	ids := make([]int, 0, len(s.conns))
	for id := range s.conns {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	conns := make([]*Conn, len(ids))
	for i, id := range ids {
		conns[i] = s.conns[id]
	}
	return conns
}

func (s *Server) drop(c *Conn) {
	delete(s.conns, c.ID)
	c.closed = true
	close(c.out)
	c.t.Close()
}

// post hands an event to the loop. It reports false once the loop has
// stopped.
func (s *Server) post(e event) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.events <- e:
		return true
	case <-s.done:
		return false
	}
}

func (s *Server) serve(t transport) {
	c := newConn(t, s.options.QueueSize)
	if !s.post(event{kind: eventConnect, conn: c}) {
		t.Close()
		return
	}

	go s.handleWrite(c)

	for {
		line, err := t.ReadLine()
		if err != nil {
			if err != io.EOF && s.options.Verbose {
				s.Logf("read from %s: %s", t.RemoteAddr(), err)
			}
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		msg, err := protocol.Decode(line)
		if !s.post(event{kind: eventMessage, conn: c, msg: msg, err: err}) {
			t.Close()
			return
		}
	}

	s.post(event{kind: eventDisconnect, conn: c})
}

// handleWrite flushes c's queue until the loop drops c or stops.
func (s *Server) handleWrite(c *Conn) {
	failed := false
	for {
		select {
		case line, ok := <-c.out:
			if !ok {
				return
			}
			if failed {
				continue
			}
			if err := c.t.WriteLine(line, time.Now().Add(s.options.WriteTimeout)); err != nil {
				failed = true
				c.t.Close()
			}
		case <-s.done:
			c.t.Close()
			return
		}
	}
}

// ServeConn handles a single client connection until it closes.
func (s *Server) ServeConn(conn net.Conn) {
	s.serve(newTCPTransport(conn))
}

// Serve accepts connections on l until it is closed.
func (s *Server) Serve(l net.Listener) error {
	s.Lock()
	s.listeners = append(s.listeners, l)
	s.Unlock()

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.Logf("accept on %s: %s", l.Addr(), err)
			continue
		}

		go s.ServeConn(conn)
	}
}

func (s *Server) Listen(address string) error {
	var network string
	network, address = protocol.NetworkAndAddress(address)

	listener, err := net.Listen(network, address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.Logf("Listening on %s %s", network, listener.Addr())
	return s.Serve(listener)
}

// WebSocketHandler serves the line protocol over WebSocket text frames.
func (s *Server) WebSocketHandler() http.Handler {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.Logf("websocket upgrade from %s: %s", r.RemoteAddr, err)
			return
		}

		s.serve(&wsTransport{conn: conn})
	})
}

func (s *Server) ListenWebSocket(address string) error {
	mux := http.NewServeMux()
	mux.Handle(WebSocketPath, s.WebSocketHandler())

	_, address = protocol.NetworkAndAddress(address)
	srv := &http.Server{Addr: address, Handler: mux}

	s.Lock()
	s.httpServers = append(s.httpServers, srv)
	s.Unlock()

	s.Logf("Listening for websockets on %s%s", address, WebSocketPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return nil
}

func (s *Server) StopListening() {
	s.Lock()
	defer s.Unlock()

	for i := range s.listeners {
		s.listeners[i].Close()
	}
	for i := range s.httpServers {
		s.httpServers[i].Close()
	}
}

func (s *Server) Logf(format string, a ...interface{}) {
	if s.Logger == nil {
		return
	}

	s.Logger <- fmt.Sprintf(format, a...)
}
