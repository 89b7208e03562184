package identity

// Session owns the identity lifecycle. It is created once and passed to
// every component that needs the caller's mobile or token.
type Session struct {
	store Store
}

func NewSession(store Store) *Session {
	return &Session{store: store}
}

// Begin records a verified or freshly registered user.
func (s *Session) Begin(mobile, token string) error {
	if err := s.store.Set(KeyMobile, mobile); err != nil {
		return err
	}
	return s.store.Set(KeyToken, token)
}

func (s *Session) SetUserName(name string) error {
	return s.store.Set(KeyUserName, name)
}

func (s *Session) BeginAdmin(token string) error {
	return s.store.Set(KeyAdminToken, token)
}

func (s *Session) EndAdmin() error {
	return s.store.Delete(KeyAdminToken)
}

// End clears everything, as logout does.
func (s *Session) End() error {
	return s.store.Delete(KeyMobile, KeyToken, KeyAdminToken, KeyUserName)
}

func (s *Session) Mobile() string {
	v, _ := s.store.Get(KeyMobile)
	return v
}

func (s *Session) Token() string {
	v, _ := s.store.Get(KeyToken)
	return v
}

func (s *Session) AdminToken() string {
	v, _ := s.store.Get(KeyAdminToken)
	return v
}

func (s *Session) UserName() string {
	v, _ := s.store.Get(KeyUserName)
	return v
}

// Authenticated reports whether a user token is held. A missing token
// means unauthenticated regardless of the stored mobile.
func (s *Session) Authenticated() bool {
	return s.Token() != "" && s.Mobile() != ""
}
