package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrCamelCode/orion/internal/app"
	"github.com/mrCamelCode/orion/internal/domain"
)

// Checks run in a fixed order on every call: schema (400), token
// (400), then state preconditions (409 with a user-facing string).
type handlers struct {
	sessions *app.SessionRegistry
	lobbies  *app.LobbyRegistry
}

type lobbySummary struct {
	Name           string `json:"name"`
	ID             string `json:"id"`
	CurrentMembers int    `json:"currentMembers"`
	MaxMembers     int    `json:"maxMembers"`
}

func (h *handlers) listLobbies(c *gin.Context) {
	summaries := h.lobbies.ListPublic()
	out := make([]lobbySummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, lobbySummary{
			Name:           s.Name,
			ID:             string(s.ID),
			CurrentMembers: s.CurrentMembers,
			MaxMembers:     s.Capacity,
		})
	}
	c.JSON(http.StatusOK, gin.H{"lobbies": out})
}

type createLobbyRequest struct {
	Token      string `json:"token" binding:"required"`
	HostName   string `json:"hostName" binding:"required"`
	LobbyName  string `json:"lobbyName" binding:"required"`
	IsPublic   bool   `json:"isPublic"`
	MaxMembers int    `json:"maxMembers" binding:"required"`
}

func (h *handlers) createLobby(c *gin.Context) {
	var req createLobbyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if domain.ValidateName(req.HostName) != nil ||
		domain.ValidateName(req.LobbyName) != nil ||
		domain.ValidateCapacity(req.MaxMembers) != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	sess, ok := h.sessions.ByToken(req.Token)
	if !ok {
		log.Warn().Str("module", "http").Msg("create with unknown token")
		c.Status(http.StatusBadRequest)
		return
	}
	l, err := h.lobbies.Create(sess, app.CreateParams{
		HostName:  req.HostName,
		LobbyName: req.LobbyName,
		Public:    req.IsPublic,
		Capacity:  req.MaxMembers,
	})
	if err != nil {
		conflict(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"lobbyName": l.Name,
		"lobbyId":   string(l.ID),
	})
}

type joinLobbyRequest struct {
	Token    string `json:"token" binding:"required"`
	PeerName string `json:"peerName" binding:"required"`
}

func (h *handlers) joinLobby(c *gin.Context) {
	var req joinLobbyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if domain.ValidateName(req.PeerName) != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	sess, ok := h.sessions.ByToken(req.Token)
	if !ok {
		log.Warn().Str("module", "http").Msg("join with unknown token")
		c.Status(http.StatusBadRequest)
		return
	}
	view, err := h.lobbies.Join(domain.LobbyID(c.Param("lobbyId")), sess, req.PeerName)
	if err != nil {
		conflict(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lobbyId":      string(view.LobbyID),
		"lobbyName":    view.LobbyName,
		"lobbyMembers": view.Members,
		"host":         view.Host,
	})
}

type startMediationRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *handlers) startMediation(c *gin.Context) {
	var req startMediationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	sess, ok := h.sessions.ByToken(req.Token)
	if !ok {
		log.Warn().Str("module", "http").Msg("mediation start with unknown token")
		c.Status(http.StatusBadRequest)
		return
	}
	if err := h.lobbies.StartMediation(sess, domain.LobbyID(c.Param("lobbyId"))); err != nil {
		conflict(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func conflict(c *gin.Context, err error) {
	c.JSON(http.StatusConflict, gin.H{"errors": []string{err.Error()}})
}
