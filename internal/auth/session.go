package auth

// Session is the authenticated shopper a request acts for. It is passed explicitly to
// every operation that needs one; a nil *Session means "not logged in".
type Session struct {
	Token  string
	Claims Claims
}

func NewSession(token string, claims Claims) *Session {
	return &Session{Token: token, Claims: claims}
}

func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.Claims.Subject != ""
}

func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.Claims.Subject
}

func (s *Session) IsAdmin() bool {
	return s.Authenticated() && s.Claims.HasRole(RoleAdmin)
}
