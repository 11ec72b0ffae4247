package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrCamelCode/orion/internal/core"
	"github.com/mrCamelCode/orion/internal/domain"
	"github.com/mrCamelCode/orion/internal/protocol"
)

// CreateParams carries the already schema-validated inputs of a lobby
// creation.
type CreateParams struct {
	HostName  string
	LobbyName string
	Public    bool
	Capacity  int
}

// JoinView is what a successful joiner gets back.
type JoinView struct {
	LobbyID   domain.LobbyID
	LobbyName string
	Members   []string
	Host      string
}

// Summary is one row of the public lobby list.
type Summary struct {
	Name           string
	ID             domain.LobbyID
	CurrentMembers int
	Capacity       int
}

// LobbyRegistry is the catalogue of live lobbies. It owns the
// token→lobby index, the per-lobby mediators and every membership
// cascade. All mutation is serialized under one lock; recipient sets
// for notifications are snapshotted at commit and delivered after the
// lock is released. The registry never calls into a mediator while
// holding its lock.
type LobbyRegistry struct {
	mu        sync.RWMutex
	lobbies   map[domain.LobbyID]*domain.Lobby
	byToken   map[string]domain.LobbyID
	mediators map[domain.LobbyID]*Mediator

	sessions *SessionRegistry
	timings  MediatorTimings
	udpPort  int
}

func NewLobbyRegistry(sessions *SessionRegistry, timings MediatorTimings, udpPort int) *LobbyRegistry {
	return &LobbyRegistry{
		lobbies:   make(map[domain.LobbyID]*domain.Lobby),
		byToken:   make(map[string]domain.LobbyID),
		mediators: make(map[domain.LobbyID]*Mediator),
		sessions:  sessions,
		timings:   timings,
		udpPort:   udpPort,
	}
}

// membersLocked snapshots the lobby's membership. Caller holds r.mu.
func (r *LobbyRegistry) membersLocked(l *domain.Lobby) []MemberSnap {
	out := make([]MemberSnap, 0, len(l.Members))
	for i, m := range l.Members {
		snap := MemberSnap{Token: m.Token, Name: m.Name, Host: i == 0}
		if s, ok := r.sessions.ByToken(m.Token); ok {
			snap.Conn = s.Conn
		}
		out = append(out, snap)
	}
	return out
}

func (r *LobbyRegistry) ListPublic() []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(r.lobbies))
	for _, l := range r.lobbies {
		if !l.Public {
			continue
		}
		out = append(out, Summary{
			Name:           l.Name,
			ID:             l.ID,
			CurrentMembers: len(l.Members),
			Capacity:       l.Capacity,
		})
	}
	return out
}

func (r *LobbyRegistry) Get(id domain.LobbyID) (*domain.Lobby, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lobbies[id]
	return l, ok
}

// Create opens a new lobby hosted by the given session. Inputs are
// schema-validated by the caller; only state conflicts are checked
// here.
func (r *LobbyRegistry) Create(host *core.Session, p CreateParams) (*domain.Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, in := r.byToken[host.Token]; in {
		return nil, ErrAlreadyInLobby
	}
	id := newLobbyID()
	for {
		if _, taken := r.lobbies[id]; !taken {
			break
		}
		id = newLobbyID()
	}
	l := &domain.Lobby{
		ID:       id,
		Name:     p.LobbyName,
		Public:   p.Public,
		Capacity: p.Capacity,
		Members:  []domain.Member{{Token: host.Token, Name: p.HostName}},
	}
	r.lobbies[id] = l
	r.byToken[host.Token] = id
	log.Info().Str("module", "app.lobbies").Str("lobby", string(id)).Str("host", p.HostName).Msg("lobby created")
	return l, nil
}

// Join appends the session to the lobby and tells every *other* member
// via lobby_peerConnect. The notification is dispatched after the
// membership change commits, so a peer querying lobby state right away
// already sees the new member.
func (r *LobbyRegistry) Join(id domain.LobbyID, joiner *core.Session, peerName string) (JoinView, error) {
	r.mu.Lock()
	if _, in := r.byToken[joiner.Token]; in {
		r.mu.Unlock()
		return JoinView{}, ErrAlreadyInLobby
	}
	l, ok := r.lobbies[id]
	if !ok {
		r.mu.Unlock()
		return JoinView{}, ErrLobbyNotFound
	}
	if l.Locked {
		r.mu.Unlock()
		return JoinView{}, ErrLobbyLocked
	}
	if l.Full() {
		r.mu.Unlock()
		return JoinView{}, ErrLobbyFull
	}
	if l.NameTaken(peerName) {
		r.mu.Unlock()
		return JoinView{}, ErrNameTaken
	}

	others := r.membersLocked(l)
	l.Members = append(l.Members, domain.Member{Token: joiner.Token, Name: peerName})
	r.byToken[joiner.Token] = id
	view := JoinView{
		LobbyID:   l.ID,
		LobbyName: l.Name,
		Members:   l.MemberNames(),
		Host:      l.HostName(),
	}
	r.mu.Unlock()

	fanOut(others, protocol.MethodLobbyPeerConnect, protocol.LobbyPeerConnect{
		LobbyID:  string(id),
		PeerName: peerName,
	})
	log.Info().Str("module", "app.lobbies").Str("lobby", string(id)).Str("peer", peerName).Msg("member joined")
	return view, nil
}

// StartMediation locks the lobby and spins up its mediator.
// Precondition order: host-ness, then not-already-mediating, then
// member count.
func (r *LobbyRegistry) StartMediation(s *core.Session, id domain.LobbyID) error {
	r.mu.Lock()
	l, ok := r.lobbies[id]
	if !ok {
		r.mu.Unlock()
		return ErrLobbyNotFound
	}
	if !l.IsHost(s.Token) {
		r.mu.Unlock()
		return ErrNotHost
	}
	if _, live := r.mediators[id]; live || l.Locked {
		r.mu.Unlock()
		return ErrAlreadyMediating
	}
	if len(l.Members) < 2 {
		r.mu.Unlock()
		return ErrInsufficientMembers
	}
	l.Locked = true
	m := newMediator(r, id, r.udpPort, r.timings)
	r.mediators[id] = m
	members := r.membersLocked(l)
	r.mu.Unlock()

	m.start(members)
	log.Info().Str("module", "app.lobbies").Str("lobby", string(id)).Msg("mediation started")
	return nil
}

// MediatorFor resolves the live mediator of the lobby the token belongs
// to, if any.
func (r *LobbyRegistry) MediatorFor(token string) (*Mediator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, in := r.byToken[token]
	if !in {
		return nil, false
	}
	m, live := r.mediators[id]
	return m, live
}

// MembersOf snapshots the current membership of a lobby.
func (r *LobbyRegistry) MembersOf(id domain.LobbyID) ([]MemberSnap, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lobbies[id]
	if !ok {
		return nil, false
	}
	return r.membersLocked(l), true
}

// Close destroys the lobby: tears down any mediator, sends exactly one
// lobby_closed to every member that was in the lobby at destruction
// time, and drops all index entries.
func (r *LobbyRegistry) Close(id domain.LobbyID) {
	r.mu.Lock()
	l, ok := r.lobbies[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	med := r.mediators[id]
	delete(r.mediators, id)
	members := r.membersLocked(l)
	for _, m := range l.Members {
		delete(r.byToken, m.Token)
	}
	delete(r.lobbies, id)
	r.mu.Unlock()

	if med != nil {
		med.lobbyClosed()
	}
	fanOut(members, protocol.MethodLobbyClosed, protocol.LobbyClosed{
		LobbyID:   string(id),
		LobbyName: l.Name,
	})
	log.Info().Str("module", "app.lobbies").Str("lobby", string(id)).Msg("lobby closed")
}

// OnSessionClose is the lobby half of the session-close cascade. A host
// disconnect destroys the lobby (the host itself gets no closure
// frame, its stream is already gone); a non-host disconnect shrinks it
// and notifies the remaining members and any live mediator.
func (r *LobbyRegistry) OnSessionClose(s *core.Session) {
	r.mu.Lock()
	id, in := r.byToken[s.Token]
	if !in {
		r.mu.Unlock()
		return
	}
	l, ok := r.lobbies[id]
	if !ok {
		delete(r.byToken, s.Token)
		r.mu.Unlock()
		return
	}
	if l.IsHost(s.Token) {
		// Drop the host first so the closure fan-out only reaches the
		// remaining members; the host's stream is already gone.
		l.RemoveMember(s.Token)
		delete(r.byToken, s.Token)
		r.mu.Unlock()
		r.Close(id)
		return
	}
	name, _ := l.RemoveMember(s.Token)
	delete(r.byToken, s.Token)
	med := r.mediators[id]
	remaining := r.membersLocked(l)
	r.mu.Unlock()

	fanOut(remaining, protocol.MethodLobbyPeerDisconnect, protocol.LobbyPeerDisconnect{
		LobbyID:  string(id),
		PeerName: name,
	})
	if med != nil {
		med.membershipChanged()
	}
	log.Info().Str("module", "app.lobbies").Str("lobby", string(id)).Str("peer", name).Msg("member left")
}

// Chat fans a lobby_messaging_received frame out to every member of the
// lobby, sender included. Callers treat any error as a silent drop.
func (r *LobbyRegistry) Chat(token string, id domain.LobbyID, message string) error {
	if err := domain.ValidateMessage(message); err != nil {
		return err
	}
	r.mu.RLock()
	l, ok := r.lobbies[id]
	if !ok {
		r.mu.RUnlock()
		return ErrLobbyNotFound
	}
	if r.byToken[token] != id || !l.HasMember(token) {
		r.mu.RUnlock()
		return ErrNotAMember
	}
	var sender string
	for _, m := range l.Members {
		if m.Token == token {
			sender = m.Name
		}
	}
	members := r.membersLocked(l)
	r.mu.RUnlock()

	fanOut(members, protocol.MethodLobbyMessageReceived, protocol.LobbyMessageReceived{
		LobbyID: string(id),
		Message: protocol.ChatMessage{
			Timestamp:  time.Now().UnixMilli(),
			SenderName: sender,
			Message:    message,
		},
	})
	return nil
}

// mediationEnded unlocks the lobby after an abort so the host can try
// again. Called by the mediator, never under r.mu.
func (r *LobbyRegistry) mediationEnded(id domain.LobbyID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mediators, id)
	if l, ok := r.lobbies[id]; ok {
		l.Locked = false
	}
}

// Shutdown tears down every mediator and clears all state without
// dispatching closure notifications; the sessions are being torn down
// with us.
func (r *LobbyRegistry) Shutdown() {
	r.mu.Lock()
	meds := make([]*Mediator, 0, len(r.mediators))
	for _, m := range r.mediators {
		meds = append(meds, m)
	}
	r.lobbies = make(map[domain.LobbyID]*domain.Lobby)
	r.byToken = make(map[string]domain.LobbyID)
	r.mediators = make(map[domain.LobbyID]*Mediator)
	r.mu.Unlock()

	for _, m := range meds {
		m.lobbyClosed()
	}
	log.Info().Str("module", "app.lobbies").Msg("registry shut down")
}
