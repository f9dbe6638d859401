package domain

// Session represents the current authentication context owned by the auth store.
// Loading and Error are transient and never persisted.
type Session struct {
	User            *User
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
	Loading         bool
	Error           string
}

// SessionSnapshot is the persistable subset of a session. It is what survives
// a process restart.
type SessionSnapshot struct {
	User            *User  `json:"user"`
	AccessToken     string `json:"accessToken,omitempty"`
	RefreshToken    string `json:"refreshToken,omitempty"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// Snapshot extracts the persistable fields of the session.
func (s *Session) Snapshot() SessionSnapshot {
	if s == nil {
		return SessionSnapshot{}
	}
	return SessionSnapshot{
		User:            s.User,
		AccessToken:     s.AccessToken,
		RefreshToken:    s.RefreshToken,
		IsAuthenticated: s.IsAuthenticated,
	}
}

// Restore applies a persisted snapshot, enforcing the authentication
// invariant: authenticated requires both a user and an access token.
func (s *Session) Restore(snap SessionSnapshot) {
	s.User = snap.User
	s.AccessToken = snap.AccessToken
	s.RefreshToken = snap.RefreshToken
	s.IsAuthenticated = snap.IsAuthenticated && snap.User != nil && snap.AccessToken != ""
}

// Reset clears the session back to its unauthenticated zero state.
func (s *Session) Reset() {
	s.User = nil
	s.AccessToken = ""
	s.RefreshToken = ""
	s.IsAuthenticated = false
	s.Loading = false
	s.Error = ""
}
