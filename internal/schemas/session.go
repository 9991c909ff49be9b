package schemas

// SessionState tells whether a request carries a valid login
type SessionState int

const (
	Anonymous SessionState = iota
	Authenticated
)

// Session is the identity resolved for a request
// User is nil for anonymous requests
type Session struct {
	State SessionState
	User  *User
}

// IsAdmin reports whether the session belongs to an administrator
func (s *Session) IsAdmin() bool {
	return s != nil && s.State == Authenticated && s.User != nil && s.User.Admin
}
