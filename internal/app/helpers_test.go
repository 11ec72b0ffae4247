package app_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrCamelCode/orion/internal/app"
	"github.com/mrCamelCode/orion/internal/core"
	"github.com/mrCamelCode/orion/internal/protocol"
)

// fakeConn records every frame the server tries to send on a stream.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// methods returns the decoded method of every recorded frame, in order.
func (c *fakeConn) methods(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		method, _, err := protocol.Decode(f)
		require.NoError(t, err)
		out = append(out, method)
	}
	return out
}

func (c *fakeConn) countOf(t *testing.T, method string) int {
	t.Helper()
	n := 0
	for _, m := range c.methods(t) {
		if m == method {
			n++
		}
	}
	return n
}

// lastPayload decodes the most recent frame with the given method into v.
func (c *fakeConn) lastPayload(t *testing.T, method string, v any) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		m, body, err := protocol.Decode(c.frames[i])
		require.NoError(t, err)
		if m == method {
			require.NoError(t, protocol.DecodePayload(body, v))
			return
		}
	}
	t.Fatalf("no %s frame recorded", method)
}

func (c *fakeConn) waitFor(t *testing.T, method string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.countOf(t, method) > 0
	}, 2*time.Second, 5*time.Millisecond, "expected a %s frame", method)
}

func testTimings() app.MediatorTimings {
	return app.MediatorTimings{
		ReminderInterval: time.Hour,
		CaptureTimeout:   time.Hour,
		ConnectTimeout:   time.Hour,
	}
}

// newLobbyWorld wires a session registry and lobby registry pair with
// timers that never fire on their own.
func newLobbyWorld(t *testing.T) (*app.SessionRegistry, *app.LobbyRegistry) {
	t.Helper()
	sessions := app.NewSessionRegistry()
	lobbies := app.NewLobbyRegistry(sessions, testTimings(), 5990)
	return sessions, lobbies
}

func openSession(t *testing.T, sessions *app.SessionRegistry) (*core.Session, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	sess := sessions.Open(conn)
	require.NotNil(t, sess)
	return sess, conn
}
