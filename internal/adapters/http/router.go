// Package http is the request-response surface plus the upgrade route
// for the reliable channel.
package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/mrCamelCode/orion/internal/adapters/ws"
	"github.com/mrCamelCode/orion/internal/app"
)

func SetupRouter(ctx context.Context, sessions *app.SessionRegistry, lobbies *app.LobbyRegistry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	ctl := ws.NewController(sessions, lobbies)
	h := &handlers{sessions: sessions, lobbies: lobbies}

	r.GET("/", func(c *gin.Context) {
		ctl.HandleStream(ctx, c)
	})
	r.GET("/ping", func(c *gin.Context) {
		c.String(200, "pong")
	})

	r.GET("/lobbies", h.listLobbies)
	r.POST("/lobbies", h.createLobby)
	r.POST("/lobbies/:lobbyId/join", h.joinLobby)
	r.POST("/lobbies/:lobbyId/ptp/start", h.startMediation)

	return r
}
