package app

import (
	"crypto/rand"

	"github.com/mrCamelCode/orion/internal/domain"
)

const lobbyIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const lobbyIDLen = 5

// newLobbyID draws a 5-char base-36 code. Collisions are handled by the
// caller re-rolling against its catalogue.
func newLobbyID() domain.LobbyID {
	b := make([]byte, lobbyIDLen)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = lobbyIDAlphabet[int(b[i])%len(lobbyIDAlphabet)]
	}
	return domain.LobbyID(b)
}
