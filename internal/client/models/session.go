package models

// SessionState is the observable authentication state of the client.
type SessionState struct {
	User            *User
	IsAuthenticated bool
	IsLoading       bool
}

// Clone deep-copies the snapshot so observers cannot alias session memory.
func (s SessionState) Clone() SessionState {
	s.User = s.User.Clone()
	return s
}
