package provider

type presence uint8

const (
	absent presence = iota
	present
)

// ProviderUser bridges a looked up user record and the auth module.
// It is either Present, wrapping a copy of one record, or Absent.
// The state is fixed at construction.
type ProviderUser struct {
	state  presence
	user   User
	hasher PasswordHasher
}

func newProviderUser(user *User, hasher PasswordHasher) *ProviderUser {
	if user == nil {
		return &ProviderUser{state: absent, hasher: hasher}
	}
	return &ProviderUser{state: present, user: *user, hasher: hasher}
}

// Present reports whether a record is wrapped
func (p *ProviderUser) Present() bool {
	return p != nil && p.state == present
}

// Record returns a copy of the wrapped record
func (p *ProviderUser) Record() (User, bool) {
	if !p.Present() {
		return User{}, false
	}
	return p.user, true
}

// ID returns the user id
func (p *ProviderUser) ID() (string, bool) {
	if !p.Present() {
		return "", false
	}
	return p.user.ID.String(), true
}

// RememberMeToken returns the remember me token, if the user has one
func (p *ProviderUser) RememberMeToken() (string, bool) {
	if !p.Present() || p.user.RememberMeToken == "" {
		return "", false
	}
	return p.user.RememberMeToken, true
}

// SetRememberMeToken updates the in memory token only, persisting it
// is the job of Provider.UpdateRememberMeToken. Absent users ignore it.
func (p *ProviderUser) SetRememberMeToken(token string) {
	if !p.Present() {
		return
	}
	p.user.RememberMeToken = token
}

// VerifyPassword compares plaintext against the stored hash
func (p *ProviderUser) VerifyPassword(plaintext string) (bool, error) {
	if !p.Present() {
		return false, ErrAbsentUser
	}
	return p.hasher.Verify(p.user.PasswordHash, plaintext)
}
