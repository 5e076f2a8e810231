package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const testTimeout = 2 * time.Second

func startServer(t *testing.T, o Options) *Server {
	t.Helper()

	s := NewServer(o)
	runServer(t, s)
	return s
}

func runServer(t *testing.T, s *Server) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-errc
		s.StopListening()
	})
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

// connect attaches a client over a pipe and waits until the event loop has
// registered it.
func connect(t *testing.T, s *Server) *testClient {
	t.Helper()

	serverSide, clientSide := net.Pipe()
	go s.ServeConn(serverSide)

	c := &testClient{t: t, conn: clientSide, r: bufio.NewReader(clientSide)}
	c.send("hello")
	c.expect(`error UNKNOWN unknown command "hello"`)
	return c
}

func (c *testClient) send(line string) {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetWriteDeadline(time.Now().Add(testTimeout)))
	_, err := io.WriteString(c.conn, line+"\n")
	require.NoError(c.t, err)
}

func (c *testClient) read() string {
	c.t.Helper()

	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(testTimeout)))
	line, err := c.r.ReadString('\n')
	require.NoError(c.t, err)
	return strings.TrimSuffix(line, "\n")
}

func (c *testClient) expect(line string) {
	c.t.Helper()

	require.Equal(c.t, line, c.read())
}

func (c *testClient) expectCode(code string) {
	c.t.Helper()

	line := c.read()
	require.Truef(c.t, strings.HasPrefix(line, "error "+code), "got %q, want error %s", line, code)
}

func TestJoinBroadcast(t *testing.T) {
	s := startServer(t, Options{})
	a, b := connect(t, s), connect(t, s)

	a.send("join Purple")
	a.expect("join purple")
	b.expect("join purple")

	b.send("join white")
	a.expect("join white")
	b.expect("join white")
}

func TestJoinInvalidTeam(t *testing.T) {
	s := startServer(t, Options{})
	a, b := connect(t, s), connect(t, s)

	a.send("join green")
	a.expect(`error INVALIDTEAM unknown team "green"`)
	a.send("join neutral")
	a.expectCode("INVALIDTEAM")

	// Nothing was broadcast for the rejected joins.
	a.send("join white")
	b.expect("join white")
	a.expect("join white")
}

func TestMoveRequiresJoin(t *testing.T) {
	s := startServer(t, Options{})
	a, b := connect(t, s), connect(t, s)

	a.send("move white (2,6) (1,6)")
	a.expectCode("INVALIDMOVE")

	a.send("join white")
	b.expect("join white")
	a.expect("join white")
}

func TestMoveWrongTeam(t *testing.T) {
	s := startServer(t, Options{})
	a, b := connect(t, s), connect(t, s)

	a.send("join purple")
	a.expect("join purple")
	b.expect("join purple")

	a.send("move white (2,6) (1,6)")
	a.expectCode("INVALIDTEAM")

	a.send("move purple (2,2) (1,2)")
	b.expect("move purple (2,2) (1,2)")
	a.expect("move purple (2,2) (1,2)")
}

func TestMoveRelayed(t *testing.T) {
	s := startServer(t, Options{})
	a, b := connect(t, s), connect(t, s)

	a.send("join white")
	a.expect("join white")
	b.expect("join white")
	b.send("join purple")
	a.expect("join purple")
	b.expect("join purple")

	// The relay checks teams only; legality is left to each client.
	a.send("move WHITE (2,6) (6,6)")
	a.expect("move white (2,6) (6,6)")
	b.expect("move white (2,6) (6,6)")

	b.send("move purple (2,2) (1,2)")
	a.expect("move purple (2,2) (1,2)")
	b.expect("move purple (2,2) (1,2)")

	// Joining again switches the tracked team.
	a.send("join purple")
	a.expect("join purple")
	b.expect("join purple")
	a.send("move white (1,6) (0,6)")
	a.expectCode("INVALIDTEAM")
	a.send("move purple (1,2) (1,1)")
	a.expect("move purple (1,2) (1,1)")
	b.expect("move purple (1,2) (1,1)")
}

func TestMalformedCommands(t *testing.T) {
	s := startServer(t, Options{})
	a := connect(t, s)

	a.send("join")
	a.expectCode("MISSINGARG")
	a.send("move purple (1,2)")
	a.expectCode("MISSINGARG")
	a.send("move purple 1,2 (1,3)")
	a.expectCode("INVALIDMOVE")
	a.send("error UNKNOWN nope")
	a.expectCode("UNKNOWN")

	// Blank lines are ignored and the connection survives errors.
	a.send("")
	a.send("join white")
	a.expect("join white")
}

func TestDisconnect(t *testing.T) {
	s := startServer(t, Options{})
	a, b := connect(t, s), connect(t, s)

	require.NoError(t, b.conn.Close())

	a.send("join white")
	a.expect("join white")
	a.send("move white (2,6) (1,6)")
	a.expect("move white (2,6) (1,6)")
}

func TestSlowClientDropped(t *testing.T) {
	s := startServer(t, Options{QueueSize: 1, WriteTimeout: time.Minute})
	a, b := connect(t, s), connect(t, s)

	// A pipe refuses new deadlines once the other end is closed.
	require.NoError(t, b.conn.SetReadDeadline(time.Now().Add(testTimeout)))

	for i := 0; i < 5; i++ {
		a.send("join purple")
		a.expect("join purple")
	}

	var err error
	for err == nil {
		_, err = b.r.ReadString('\n')
	}
	require.True(t, errors.Is(err, io.EOF), "got %v", err)
}

func TestRunStops(t *testing.T) {
	s := NewServer(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- s.Run(ctx)
	}()

	a := connect(t, s)
	require.NoError(t, a.conn.SetReadDeadline(time.Now().Add(testTimeout)))
	cancel()
	require.True(t, errors.Is(<-errc, context.Canceled))

	_, err := a.r.ReadString('\n')
	require.True(t, errors.Is(err, io.EOF), "got %v", err)

	// Connections arriving after the loop stopped are closed right away.
	serverSide, clientSide := net.Pipe()
	require.NoError(t, clientSide.SetReadDeadline(time.Now().Add(testTimeout)))
	go s.ServeConn(serverSide)
	_, err = bufio.NewReader(clientSide).ReadString('\n')
	require.True(t, errors.Is(err, io.EOF), "got %v", err)
}

func TestRunClosesQueuedConnections(t *testing.T) {
	s := NewServer(Options{})

	serverSide, clientSide := net.Pipe()
	require.NoError(t, clientSide.SetReadDeadline(time.Now().Add(testTimeout)))
	s.events <- event{kind: eventConnect, conn: newConn(newTCPTransport(serverSide), 1)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.True(t, errors.Is(s.Run(ctx), context.Canceled))

	_, err := bufio.NewReader(clientSide).ReadString('\n')
	require.True(t, errors.Is(err, io.EOF), "got %v", err)
}

// nextLog returns the next logged line containing substr.
func nextLog(t *testing.T, logs <-chan string, substr string) string {
	t.Helper()

	for {
		select {
		case line := <-logs:
			if strings.Contains(line, substr) {
				return line
			}
		case <-time.After(testTimeout):
			t.Fatalf("no log line containing %q", substr)
		}
	}
}

func logID(t *testing.T, line string) int {
	t.Helper()

	id, err := strconv.Atoi(strings.SplitN(line, ":", 2)[0])
	require.NoError(t, err, line)
	return id
}

func TestConnectionIDsNotReused(t *testing.T) {
	s := NewServer(Options{})
	logs := make(chan string, LogQueueSize)
	s.Logger = logs
	runServer(t, s)

	a := connect(t, s)
	idA := logID(t, nextLog(t, logs, " connected from "))
	connect(t, s)
	idB := logID(t, nextLog(t, logs, " connected from "))

	require.NoError(t, a.conn.Close())
	require.Equal(t, idA, logID(t, nextLog(t, logs, " disconnected")))

	connect(t, s)
	idC := logID(t, nextLog(t, logs, " connected from "))

	require.Greater(t, idB, idA)
	require.Greater(t, idC, idB)
}

func TestServeTCP(t *testing.T) {
	s := startServer(t, Options{})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() {
		served <- s.Serve(l)
	}()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	c := &testClient{t: t, conn: conn, r: bufio.NewReader(conn)}
	c.send("join purple")
	c.expect("join purple")

	s.StopListening()
	require.NoError(t, <-served)
}

func TestWebSocket(t *testing.T) {
	s := startServer(t, Options{})
	srv := httptest.NewServer(s.WebSocketHandler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	// Two commands in a single frame.
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("join white\nmove white (2,6) (1,6)\n")))

	for _, want := range []string{"join white", "move white (2,6) (1,6)"} {
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(testTimeout)))
		messageType, data, err := ws.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.TextMessage, messageType)
		require.Equal(t, want, string(data))
	}
}
