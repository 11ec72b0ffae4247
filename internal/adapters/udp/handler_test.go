package udp_test

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrCamelCode/orion/internal/adapters/udp"
	"github.com/mrCamelCode/orion/internal/app"
	"github.com/mrCamelCode/orion/internal/core"
	"github.com/mrCamelCode/orion/internal/protocol"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) has(t *testing.T, method string) bool {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.frames {
		m, _, err := protocol.Decode(f)
		require.NoError(t, err)
		if m == method {
			return true
		}
	}
	return false
}

func sendDatagram(t *testing.T, to int, payload []byte) *net.UDPConn {
	t.Helper()
	conn, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: to})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = conn.Write(payload)
	require.NoError(t, err)
	return conn
}

func TestDatagramDrivesMediationCapture(t *testing.T) {
	sessions := app.NewSessionRegistry()

	h, err := udp.Listen(0, sessions, nil)
	require.NoError(t, err)
	t.Cleanup(h.Close)

	lobbies := app.NewLobbyRegistry(sessions, app.MediatorTimings{
		ReminderInterval: time.Hour,
		CaptureTimeout:   time.Hour,
		ConnectTimeout:   time.Hour,
	}, h.Port())
	h.Bind(lobbies)
	go h.Serve()

	hostConn := &fakeConn{}
	host := sessions.Open(hostConn)
	peerConn := &fakeConn{}
	peer := sessions.Open(peerConn)

	l, err := lobbies.Create(host, app.CreateParams{HostName: "jt", LobbyName: "My lobby", Public: true, Capacity: 2})
	require.NoError(t, err)
	_, err = lobbies.Join(l.ID, peer, "peer0")
	require.NoError(t, err)
	require.NoError(t, lobbies.StartMediation(host, l.ID))

	frame := func(token string) []byte {
		data, err := protocol.Encode(protocol.MethodMediationConnect, protocol.MediationConnect{Token: token})
		require.NoError(t, err)
		return data
	}

	// Noise that must be dropped without advancing the mediation:
	// garbage, a stream-only method, an unknown token.
	sendDatagram(t, h.Port(), []byte("not a frame"))
	sendDatagram(t, h.Port(), []byte("lobby_messaging_send:e30="))
	sendDatagram(t, h.Port(), frame("00000000-0000-0000-0000-000000000000"))

	sendDatagram(t, h.Port(), frame(host.Token))
	clientSock := sendDatagram(t, h.Port(), frame(peer.Token))

	require.Eventually(t, func() bool {
		return hostConn.has(t, protocol.MethodMediationPeersStart) &&
			peerConn.has(t, protocol.MethodMediationPeersStart)
	}, 2*time.Second, 5*time.Millisecond)

	// The host was handed the peer's OS-reported source port, not
	// anything the payload could have named.
	var start protocol.MediationPeersStart
	var found bool
	hostConn.mu.Lock()
	for _, f := range hostConn.frames {
		m, body, err := protocol.Decode(f)
		require.NoError(t, err)
		if m == protocol.MethodMediationPeersStart {
			require.NoError(t, protocol.DecodePayload(body, &start))
			found = true
		}
	}
	hostConn.mu.Unlock()
	require.True(t, found)
	require.Len(t, start.Peers, 1)
	require.Equal(t, "127.0.0.1", start.Peers[0].IP)
	require.Equal(t, clientSock.LocalAddr().(*net.UDPAddr).Port, start.Peers[0].Port)
}

func TestServeStopsOnClose(t *testing.T) {
	sessions := app.NewSessionRegistry()
	h, err := udp.Listen(0, sessions, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		h.Serve()
		close(done)
	}()

	h.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}
