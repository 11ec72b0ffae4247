package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mrCamelCode/orion/internal/core"
	"github.com/mrCamelCode/orion/internal/protocol"
)

// SessionRegistry tracks every live reliable-stream session, indexed by
// internal ID, by secret token and by stream. Mutations are serialized
// under one lock and keep the three indexes in lockstep; token ↔
// session is a bijection over live sessions.
type SessionRegistry struct {
	mu      sync.RWMutex
	byID    map[core.SessionID]*core.Session
	byToken map[string]*core.Session
	byConn  map[core.StreamConn]*core.Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byID:    make(map[core.SessionID]*core.Session),
		byToken: make(map[string]*core.Session),
		byConn:  make(map[core.StreamConn]*core.Session),
	}
}

// Open registers a freshly upgraded stream, mints its token and emits
// client_registered on that stream, and only that stream, before
// returning. This is the first frame the client ever sees.
func (r *SessionRegistry) Open(conn core.StreamConn) *core.Session {
	r.mu.Lock()
	token := uuid.NewString()
	for {
		if _, taken := r.byToken[token]; !taken {
			break
		}
		token = uuid.NewString()
	}
	s := &core.Session{
		ID:    core.SessionID(uuid.NewString()),
		Token: token,
		Conn:  conn,
	}
	r.byID[s.ID] = s
	r.byToken[s.Token] = s
	r.byConn[conn] = s
	r.mu.Unlock()

	data, err := protocol.Encode(protocol.MethodClientRegistered, protocol.ClientRegistered{Token: s.Token})
	if err == nil {
		if err := conn.TrySend(core.Frame(data)); err != nil {
			log.Warn().Str("module", "app.sessions").Err(err).Msg("failed to deliver registration frame")
		}
	}
	log.Info().Str("module", "app.sessions").Str("sid", string(s.ID)).Msg("session opened")
	return s
}

func (r *SessionRegistry) ByToken(token string) (*core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byToken[token]
	return s, ok
}

func (r *SessionRegistry) ByID(id core.SessionID) (*core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// ByConn resolves a stream back to its session.
func (r *SessionRegistry) ByConn(conn core.StreamConn) (*core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byConn[conn]
	return s, ok
}

// Close invalidates the session's token and drops both index entries.
// The caller drives the lobby-side cascade.
func (r *SessionRegistry) Close(id core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	delete(r.byToken, s.Token)
	delete(r.byConn, s.Conn)
	log.Info().Str("module", "app.sessions").Str("sid", string(id)).Msg("session closed")
}

// Shutdown closes every live stream and clears all state.
func (r *SessionRegistry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*core.Session, 0, len(r.byID))
	for _, s := range r.byID {
		sessions = append(sessions, s)
	}
	r.byID = make(map[core.SessionID]*core.Session)
	r.byToken = make(map[string]*core.Session)
	r.byConn = make(map[core.StreamConn]*core.Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Conn.Close()
	}
	log.Info().Str("module", "app.sessions").Int("count", len(sessions)).Msg("registry shut down")
}
