package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mrCamelCode/orion/internal/app"
	"github.com/mrCamelCode/orion/internal/core"
	"github.com/mrCamelCode/orion/internal/domain"
	"github.com/mrCamelCode/orion/internal/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller registers upgraded streams and routes their inbound
// frames. Bad frames, unknown methods and stale tokens are dropped;
// the stream never gets a negative acknowledgement.
type Controller struct {
	Sessions *app.SessionRegistry
	Lobbies  *app.LobbyRegistry
}

func NewController(sessions *app.SessionRegistry, lobbies *app.LobbyRegistry) *Controller {
	return &Controller{Sessions: sessions, Lobbies: lobbies}
}

// HandleStream upgrades the request, registers the session (which
// emits client_registered before anything else) and starts the pumps.
func (ctl *Controller) HandleStream(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Str("module", "ws").Err(err).Msg("upgrade failed")
		return
	}
	conn := newConn(ws)
	go conn.writePump(ctx)
	sess := ctl.Sessions.Open(conn)
	go ctl.readPump(ctx, sess, conn)
}

// readPump reads until the stream dies, then drives the close cascade:
// lobby side first (which may close a lobby and abort a mediation),
// then the session indexes.
func (ctl *Controller) readPump(ctx context.Context, sess *core.Session, conn *Conn) {
	defer func() {
		conn.Close()
		ctl.Lobbies.OnSessionClose(sess)
		ctl.Sessions.Close(sess.ID)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := conn.ws.ReadMessage()
			if err != nil {
				return
			}
			ctl.handleFrame(data)
		}
	}
}

func (ctl *Controller) handleFrame(data []byte) {
	method, body, err := protocol.Decode(data)
	if err != nil {
		log.Warn().Str("module", "ws").Msg("dropping malformed frame")
		return
	}

	switch method {
	case protocol.MethodLobbyMessageSend:
		var p protocol.LobbyMessageSend
		if protocol.DecodePayload(body, &p) != nil {
			log.Warn().Str("module", "ws").Str("method", method).Msg("dropping invalid payload")
			return
		}
		if _, ok := ctl.Sessions.ByToken(p.Token); !ok {
			log.Warn().Str("module", "ws").Str("method", method).Msg("dropping frame with unknown token")
			return
		}
		if err := ctl.Lobbies.Chat(p.Token, domain.LobbyID(p.LobbyID), p.Message); err != nil {
			log.Warn().Str("module", "ws").Err(err).Msg("chat rejected")
		}
	case protocol.MethodMediationPeersSuccess:
		var p protocol.MediationPeersSuccess
		if protocol.DecodePayload(body, &p) != nil {
			log.Warn().Str("module", "ws").Str("method", method).Msg("dropping invalid payload")
			return
		}
		if med, ok := ctl.Lobbies.MediatorFor(p.Token); ok {
			med.PeerSuccess(p.Token)
		}
	default:
		log.Warn().Str("module", "ws").Str("method", method).Msg("unknown method")
	}
}
