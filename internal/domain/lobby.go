package domain

type LobbyID string

// Member is a session joined to a lobby under a display name. The name
// is the member's externally visible identifier within the lobby.
type Member struct {
	Token string
	Name  string
}

// Lobby is an in-memory coordination context. The host is always the
// first member. All mutation happens under the owning registry's lock.
type Lobby struct {
	ID       LobbyID
	Name     string
	Public   bool
	Locked   bool
	Capacity int
	Members  []Member
}

func (l *Lobby) HostToken() string {
	if len(l.Members) == 0 {
		return ""
	}
	return l.Members[0].Token
}

func (l *Lobby) HostName() string {
	if len(l.Members) == 0 {
		return ""
	}
	return l.Members[0].Name
}

func (l *Lobby) IsHost(token string) bool {
	return len(l.Members) > 0 && l.Members[0].Token == token
}

func (l *Lobby) Full() bool {
	return len(l.Members) >= l.Capacity
}

func (l *Lobby) HasMember(token string) bool {
	for _, m := range l.Members {
		if m.Token == token {
			return true
		}
	}
	return false
}

func (l *Lobby) NameTaken(name string) bool {
	for _, m := range l.Members {
		if m.Name == name {
			return true
		}
	}
	return false
}

// MemberNames returns display names in join order, host first.
func (l *Lobby) MemberNames() []string {
	names := make([]string, 0, len(l.Members))
	for _, m := range l.Members {
		names = append(names, m.Name)
	}
	return names
}

// RemoveMember drops the member with the given token, preserving join
// order. Reports whether anything was removed and the removed name.
func (l *Lobby) RemoveMember(token string) (string, bool) {
	for i, m := range l.Members {
		if m.Token == token {
			l.Members = append(l.Members[:i], l.Members[i+1:]...)
			return m.Name, true
		}
	}
	return "", false
}
