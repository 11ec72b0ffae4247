package app

import "errors"

// State-conflict errors. The text doubles as the user-facing string
// carried in 409 responses.
var (
	ErrAlreadyInLobby      = errors.New("already in a lobby")
	ErrLobbyNotFound       = errors.New("lobby doesn't exist")
	ErrLobbyFull           = errors.New("lobby is full")
	ErrLobbyLocked         = errors.New("lobby is locked")
	ErrNameTaken           = errors.New("name is taken")
	ErrNotHost             = errors.New("not the host")
	ErrAlreadyMediating    = errors.New("already mediating")
	ErrInsufficientMembers = errors.New("must be at least 2")
	ErrNotAMember          = errors.New("not a member of that lobby")
)
