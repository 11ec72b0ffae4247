package app

import (
	"github.com/rs/zerolog/log"

	"github.com/mrCamelCode/orion/internal/core"
	"github.com/mrCamelCode/orion/internal/protocol"
)

// MemberSnap is a point-in-time view of one lobby member, taken at the
// instant a mutation commits. Conn may be nil if the session vanished
// mid-cascade; fan-out skips it.
type MemberSnap struct {
	Token string
	Name  string
	Host  bool
	Conn  core.StreamConn
}

// fanOut encodes the frame once and best-effort delivers it to every
// member. A failed send to one recipient never aborts the others;
// writes racing a disconnect are a normal consequence of cascades.
func fanOut(members []MemberSnap, method string, payload any) {
	data, err := protocol.Encode(method, payload)
	if err != nil {
		log.Error().Str("module", "app.notify").Str("method", method).Err(err).Msg("encode failed")
		return
	}
	for _, m := range members {
		if m.Conn == nil {
			continue
		}
		if err := m.Conn.TrySend(core.Frame(data)); err != nil {
			log.Debug().Str("module", "app.notify").Str("method", method).Err(err).Msg("dropped frame")
		}
	}
}
