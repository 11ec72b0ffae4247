package protocol

// Server-originated stream methods.
const (
	MethodClientRegistered     = "client_registered"
	MethodLobbyClosed          = "lobby_closed"
	MethodLobbyPeerConnect     = "lobby_peerConnect"
	MethodLobbyPeerDisconnect  = "lobby_peerDisconnect"
	MethodLobbyMessageReceived = "lobby_messaging_received"
	MethodMediationSend        = "ptpMediation_send"
	MethodMediationAborted     = "ptpMediation_aborted"
	MethodMediationPeersStart  = "ptpMediation_peersConnection_start"
	MethodMediationSuccess     = "ptpMediation_success"
)

// Client-originated stream methods.
const (
	MethodLobbyMessageSend      = "lobby_messaging_send"
	MethodMediationPeersSuccess = "ptpMediation_peersConnection_success"
)

// The only datagram method. There are no server-originated datagrams.
const MethodMediationConnect = "ptpMediation_connect"
