package app

import (
	"net/netip"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrCamelCode/orion/internal/domain"
	"github.com/mrCamelCode/orion/internal/protocol"
)

type mediationPhase int

const (
	phaseCapturing mediationPhase = iota
	phaseConnecting
	phaseDone
)

// Abort reasons surfaced to clients in ptpMediation_aborted.
const (
	abortCaptureTimeout = "timed out waiting for peers to send UDP packets"
	abortConnectTimeout = "timed out waiting for peers to connect to one another"
	abortMembersChanged = "Lobby members changed."
)

// MediatorTimings are the three timers of a mediation attempt.
type MediatorTimings struct {
	ReminderInterval time.Duration
	CaptureTimeout   time.Duration
	ConnectTimeout   time.Duration
}

// Mediator drives the two-phase hole-punch mediation for one lobby.
// Capturing: every member must hit the UDP socket so the server learns
// their public source address. Connecting: every member must report
// that it reached its peers. At most one mediator exists per lobby;
// all state transitions and timer fires are serialized on mu.
type Mediator struct {
	mu      sync.Mutex
	reg     *LobbyRegistry
	lobbyID domain.LobbyID
	udpPort int
	timings MediatorTimings

	phase    mediationPhase
	observed map[string]netip.AddrPort
	acked    map[string]struct{}

	reminder        *time.Timer
	captureDeadline *time.Timer
	connectDeadline *time.Timer
}

func newMediator(reg *LobbyRegistry, lobbyID domain.LobbyID, udpPort int, timings MediatorTimings) *Mediator {
	return &Mediator{
		reg:      reg,
		lobbyID:  lobbyID,
		udpPort:  udpPort,
		timings:  timings,
		phase:    phaseCapturing,
		observed: make(map[string]netip.AddrPort),
		acked:    make(map[string]struct{}),
	}
}

// start enters the capturing phase: ask every member to emit a
// datagram, then keep reminding the ones that have not until the
// capture deadline.
func (m *Mediator) start(members []MemberSnap) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != phaseCapturing {
		return
	}
	fanOut(members, protocol.MethodMediationSend, protocol.MediationSend{Port: m.udpPort})
	m.reminder = time.AfterFunc(m.timings.ReminderInterval, m.remind)
	m.captureDeadline = time.AfterFunc(m.timings.CaptureTimeout, func() {
		m.abortIf(phaseCapturing, abortCaptureTimeout)
	})
}

// remind resends ptpMediation_send to every member whose datagram has
// not been observed yet. Captured members get no reminder.
func (m *Mediator) remind() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != phaseCapturing {
		return
	}
	members, ok := m.reg.MembersOf(m.lobbyID)
	if !ok {
		return
	}
	uncaptured := members[:0:0]
	for _, member := range members {
		if _, seen := m.observed[member.Token]; !seen {
			uncaptured = append(uncaptured, member)
		}
	}
	fanOut(uncaptured, protocol.MethodMediationSend, protocol.MediationSend{Port: m.udpPort})
	m.reminder.Reset(m.timings.ReminderInterval)
}

// Observe records a member's datagram source address. Idempotent: a
// repeat datagram overwrites with the latest observation. The recorded
// port is the datagram's source port, never anything the payload
// claims; that is the whole point of the capture.
func (m *Mediator) Observe(token string, src netip.AddrPort) {
	m.mu.Lock()
	if m.phase != phaseCapturing {
		m.mu.Unlock()
		return
	}
	members, ok := m.reg.MembersOf(m.lobbyID)
	if !ok {
		m.mu.Unlock()
		return
	}
	member := false
	for _, mm := range members {
		if mm.Token == token {
			member = true
			break
		}
	}
	if !member {
		m.mu.Unlock()
		return
	}
	m.observed[token] = src
	log.Info().Str("module", "app.mediator").Str("lobby", string(m.lobbyID)).Str("addr", src.String()).Msg("captured peer address")

	for _, mm := range members {
		if _, seen := m.observed[mm.Token]; !seen {
			m.mu.Unlock()
			return
		}
	}
	m.allCaptured(members)
	m.mu.Unlock()
}

// allCaptured moves to the connecting phase: cancel the reminder and
// capture timers, hand every member its peer list and arm the
// peer-connect deadline. Caller holds mu.
func (m *Mediator) allCaptured(members []MemberSnap) {
	m.stopTimersLocked()
	m.phase = phaseConnecting

	var host MemberSnap
	var rest []MemberSnap
	for _, mm := range members {
		if mm.Host {
			host = mm
		} else {
			rest = append(rest, mm)
		}
	}

	hostPeers := make([]protocol.PeerAddress, 0, len(rest))
	for _, mm := range rest {
		hostPeers = append(hostPeers, peerAddress(m.observed[mm.Token]))
	}
	fanOut([]MemberSnap{host}, protocol.MethodMediationPeersStart, protocol.MediationPeersStart{Peers: hostPeers})
	fanOut(rest, protocol.MethodMediationPeersStart, protocol.MediationPeersStart{
		Peers: []protocol.PeerAddress{peerAddress(m.observed[host.Token])},
	})

	m.connectDeadline = time.AfterFunc(m.timings.ConnectTimeout, func() {
		m.abortIf(phaseConnecting, abortConnectTimeout)
	})
	log.Info().Str("module", "app.mediator").Str("lobby", string(m.lobbyID)).Msg("all peers captured, connecting")
}

func peerAddress(ap netip.AddrPort) protocol.PeerAddress {
	return protocol.PeerAddress{IP: ap.Addr().String(), Port: int(ap.Port())}
}

// PeerSuccess records one member's report that it reached its peers.
// Duplicates are no-ops. When the last member reports in, every stream
// gets ptpMediation_success and the lobby is closed out.
func (m *Mediator) PeerSuccess(token string) {
	m.mu.Lock()
	if m.phase != phaseConnecting {
		m.mu.Unlock()
		return
	}
	members, ok := m.reg.MembersOf(m.lobbyID)
	if !ok {
		m.mu.Unlock()
		return
	}
	member := false
	for _, mm := range members {
		if mm.Token == token {
			member = true
			break
		}
	}
	if !member {
		m.mu.Unlock()
		return
	}
	m.acked[token] = struct{}{}

	for _, mm := range members {
		if _, done := m.acked[mm.Token]; !done {
			m.mu.Unlock()
			return
		}
	}
	m.phase = phaseDone
	m.stopTimersLocked()
	fanOut(members, protocol.MethodMediationSuccess, struct{}{})
	m.mu.Unlock()

	log.Info().Str("module", "app.mediator").Str("lobby", string(m.lobbyID)).Msg("mediation succeeded")
	// Closing the lobby emits the trailing lobby_closed to everyone.
	m.reg.Close(m.lobbyID)
}

// membershipChanged aborts the attempt; a changed member set makes the
// captured address book stale.
func (m *Mediator) membershipChanged() {
	m.abort(abortMembersChanged)
}

// abort tears the mediator down from whichever live phase it is in.
func (m *Mediator) abort(reason string) {
	m.mu.Lock()
	if m.phase == phaseDone {
		m.mu.Unlock()
		return
	}
	m.finishAbort(reason)
}

// abortIf aborts only while still in the given phase. The deadline
// callbacks run through here: Timer.Stop cannot recall a callback that
// has already fired and is waiting on mu, so the phase check is what
// actually retires a deadline once its phase has been left.
func (m *Mediator) abortIf(expect mediationPhase, reason string) {
	m.mu.Lock()
	if m.phase != expect {
		m.mu.Unlock()
		return
	}
	m.finishAbort(reason)
}

// finishAbort tells every current member why, drops all state, and
// unlocks the lobby so the host may start over. Caller holds mu, which
// is released here.
func (m *Mediator) finishAbort(reason string) {
	m.phase = phaseDone
	m.stopTimersLocked()
	members, _ := m.reg.MembersOf(m.lobbyID)
	m.mu.Unlock()

	fanOut(members, protocol.MethodMediationAborted, protocol.MediationAborted{AbortReason: reason})
	m.reg.mediationEnded(m.lobbyID)
	log.Info().Str("module", "app.mediator").Str("lobby", string(m.lobbyID)).Str("reason", reason).Msg("mediation aborted")
}

// lobbyClosed is the silent teardown: the lobby-closed cascade subsumes
// any notification.
func (m *Mediator) lobbyClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == phaseDone {
		return
	}
	m.phase = phaseDone
	m.stopTimersLocked()
}

// stopTimersLocked cancels whichever timer handles exist. Caller holds
// mu. Every exit path runs through here.
func (m *Mediator) stopTimersLocked() {
	if m.reminder != nil {
		m.reminder.Stop()
	}
	if m.captureDeadline != nil {
		m.captureDeadline.Stop()
	}
	if m.connectDeadline != nil {
		m.connectDeadline.Stop()
	}
}
