package core

type SessionID string

// Session binds one reliable stream to its secret token. The token is
// the client's cross-channel identity: issued on the stream, quoted in
// request bodies and datagrams. It is never disclosed to other clients
// and never logged.
type Session struct {
	ID    SessionID
	Token string
	Conn  StreamConn
}
