package http_test

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	router "github.com/mrCamelCode/orion/internal/adapters/http"
	"github.com/mrCamelCode/orion/internal/adapters/udp"
	"github.com/mrCamelCode/orion/internal/app"
	"github.com/mrCamelCode/orion/internal/protocol"
)

// Full happy path across all three channels: request-response calls,
// stream frames and real loopback datagrams.
func TestMediationEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sessions := app.NewSessionRegistry()
	datagrams, err := udp.Listen(0, sessions, nil)
	require.NoError(t, err)
	t.Cleanup(datagrams.Close)

	lobbies := app.NewLobbyRegistry(sessions, app.MediatorTimings{
		ReminderInterval: time.Hour,
		CaptureTimeout:   time.Hour,
		ConnectTimeout:   time.Hour,
	}, datagrams.Port())
	datagrams.Bind(lobbies)
	go datagrams.Serve()

	srv := httptest.NewServer(router.SetupRouter(ctx, sessions, lobbies))
	t.Cleanup(srv.Close)
	w := &world{srv: srv, sessions: sessions, lobbies: lobbies}

	host := w.dial(t)
	peer0 := w.dial(t)
	peer1 := w.dial(t)
	clients := []*client{host, peer0, peer1}

	id := w.createLobby(t, host, "My lobby", 3)
	for i, c := range []*client{peer0, peer1} {
		resp := w.post(t, "/lobbies/"+id+"/join", map[string]any{
			"token":    c.token,
			"peerName": "peer" + string(rune('0'+i)),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := w.post(t, "/lobbies/"+id+"/ptp/start", map[string]any{"token": host.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Phase one: everyone is told where to punch.
	for _, c := range clients {
		var p protocol.MediationSend
		c.expectFrame(t, protocol.MethodMediationSend, &p)
		require.Equal(t, datagrams.Port(), p.Port)
	}

	// Each machine emits its datagram from a distinct source port.
	ports := make(map[*client]int)
	for _, c := range clients {
		sock, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: datagrams.Port()})
		require.NoError(t, err)
		t.Cleanup(func() { sock.Close() })
		data, err := protocol.Encode(protocol.MethodMediationConnect, protocol.MediationConnect{Token: c.token})
		require.NoError(t, err)
		_, err = sock.Write(data)
		require.NoError(t, err)
		ports[c] = sock.LocalAddr().(*net.UDPAddr).Port
	}

	// Phase two: the host learns both peers, each peer learns the host.
	var hostStart protocol.MediationPeersStart
	host.expectFrame(t, protocol.MethodMediationPeersStart, &hostStart)
	require.ElementsMatch(t, []protocol.PeerAddress{
		{IP: "127.0.0.1", Port: ports[peer0]},
		{IP: "127.0.0.1", Port: ports[peer1]},
	}, hostStart.Peers)

	for _, c := range []*client{peer0, peer1} {
		var start protocol.MediationPeersStart
		c.expectFrame(t, protocol.MethodMediationPeersStart, &start)
		require.Equal(t, []protocol.PeerAddress{{IP: "127.0.0.1", Port: ports[host]}}, start.Peers)
	}

	// Everyone reports connectivity; success precedes the closing
	// cascade on every stream.
	for _, c := range clients {
		c.sendFrame(t, protocol.MethodMediationPeersSuccess, protocol.MediationPeersSuccess{Token: c.token})
	}
	for _, c := range clients {
		c.expectFrame(t, protocol.MethodMediationSuccess, nil)
		var closed protocol.LobbyClosed
		c.expectFrame(t, protocol.MethodLobbyClosed, &closed)
		require.Equal(t, id, closed.LobbyID)
		require.Equal(t, "My lobby", closed.LobbyName)
	}

	require.Empty(t, lobbies.ListPublic())
}

// A peer dropping its stream mid-capture aborts the attempt but leaves
// the lobby itself open.
func TestMediationAbortsWhenPeerDisconnects(t *testing.T) {
	w := newWorld(t)
	host := w.dial(t)
	peer0 := w.dial(t)
	peer1 := w.dial(t)

	id := w.createLobby(t, host, "My lobby", 3)
	for i, c := range []*client{peer0, peer1} {
		resp := w.post(t, "/lobbies/"+id+"/join", map[string]any{
			"token":    c.token,
			"peerName": "peer" + string(rune('0'+i)),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := w.post(t, "/lobbies/"+id+"/ptp/start", map[string]any{"token": host.token})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, peer1.ws.Close())

	for _, c := range []*client{host, peer0} {
		var p protocol.MediationAborted
		c.expectFrame(t, protocol.MethodMediationAborted, &p)
		require.Equal(t, "Lobby members changed.", p.AbortReason)
	}

	// The host is still there; the lobby stays listed.
	list := w.lobbies.ListPublic()
	require.Len(t, list, 1)
	require.Equal(t, 2, list[0].CurrentMembers)
}
