// Package udp owns the receive-only datagram socket. Its single job is
// turning an inbound ptpMediation_connect into a mediator observation
// of the datagram's source address. The server never sends datagrams.
package udp

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/rs/zerolog/log"

	"github.com/mrCamelCode/orion/internal/app"
	"github.com/mrCamelCode/orion/internal/protocol"
)

const maxDatagram = 2048

type Handler struct {
	conn     *net.UDPConn
	sessions *app.SessionRegistry
	lobbies  *app.LobbyRegistry
}

func Listen(port int, sessions *app.SessionRegistry, lobbies *app.LobbyRegistry) (*Handler, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("udp listen: %w", err)
	}
	return &Handler{conn: conn, sessions: sessions, lobbies: lobbies}, nil
}

// Bind attaches the lobby registry after construction. The registry
// needs the bound port first, so the two are wired in this order.
func (h *Handler) Bind(lobbies *app.LobbyRegistry) {
	h.lobbies = lobbies
}

// Port reports the bound port, which main hands to the mediators.
func (h *Handler) Port() int {
	return h.conn.LocalAddr().(*net.UDPAddr).Port
}

// Serve reads datagrams until the socket closes.
func (h *Handler) Serve() {
	buf := make([]byte, maxDatagram)
	for {
		n, src, err := h.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Error().Str("module", "udp").Err(err).Msg("read failed")
			}
			return
		}
		h.handle(buf[:n], src)
	}
}

// handle resolves token → session → lobby → mediator and records the
// observation. Every failure along the way is a dropped datagram;
// there is no negative acknowledgement on this channel.
func (h *Handler) handle(data []byte, src netip.AddrPort) {
	method, body, err := protocol.Decode(data)
	if err != nil || method != protocol.MethodMediationConnect {
		return
	}
	var p protocol.MediationConnect
	if protocol.DecodePayload(body, &p) != nil {
		return
	}
	if h.lobbies == nil {
		return
	}
	sess, ok := h.sessions.ByToken(p.Token)
	if !ok {
		log.Warn().Str("module", "udp").Msg("dropping datagram with unknown token")
		return
	}
	med, ok := h.lobbies.MediatorFor(sess.Token)
	if !ok {
		log.Debug().Str("module", "udp").Msg("dropping datagram with no live mediation")
		return
	}
	med.Observe(sess.Token, netip.AddrPortFrom(src.Addr().Unmap(), src.Port()))
}

func (h *Handler) Close() {
	_ = h.conn.Close()
}
