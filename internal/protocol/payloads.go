package protocol

// Server-originated payloads.

type ClientRegistered struct {
	Token string `json:"token"`
}

type LobbyClosed struct {
	LobbyID   string `json:"lobbyId"`
	LobbyName string `json:"lobbyName"`
}

type LobbyPeerConnect struct {
	LobbyID  string `json:"lobbyId"`
	PeerName string `json:"peerName"`
}

type LobbyPeerDisconnect struct {
	LobbyID  string `json:"lobbyId"`
	PeerName string `json:"peerName"`
}

type ChatMessage struct {
	Timestamp  int64  `json:"timestamp"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
}

type LobbyMessageReceived struct {
	LobbyID string      `json:"lobbyId"`
	Message ChatMessage `json:"message"`
}

type MediationSend struct {
	Port int `json:"port"`
}

type MediationAborted struct {
	AbortReason string `json:"abortReason"`
}

type PeerAddress struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

type MediationPeersStart struct {
	Peers []PeerAddress `json:"peers"`
}

// Client-originated payloads.

type LobbyMessageSend struct {
	Token   string `json:"token"`
	LobbyID string `json:"lobbyId"`
	Message string `json:"message"`
}

type MediationPeersSuccess struct {
	Token string `json:"token"`
}

// MediationConnect is the sole datagram payload. Any port a client names
// here is ignored; the mediator records the datagram's source address.
type MediationConnect struct {
	Token string `json:"token"`
}
