package provider

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// RememberMeTokenBytes is the entropy of generated remember me tokens
const RememberMeTokenBytes = 20

// GenerateRememberMeToken creates a random, hex encoded token
func GenerateRememberMeToken() (string, error) {
	b := make([]byte, RememberMeTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate remember me token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Guard is the auth module side of the provider contract. It drives
// login attempts, remember me restoration and logout.
type Guard struct {
	provider       UserProviderContract
	logger         Logger
	tokenGenerator func() (string, error)
}

// NewGuard will create a new Guard
func NewGuard(provider UserProviderContract) *Guard {
	return &Guard{
		provider:       provider,
		logger:         NewSlogLogger(nil),
		tokenGenerator: GenerateRememberMeToken,
	}
}

// WithLogger sets the logger
func (g *Guard) WithLogger(l Logger) *Guard {
	if l != nil {
		g.logger = l
	}
	return g
}

// WithTokenGenerator overrides how remember me tokens are created
func (g *Guard) WithTokenGenerator(fn func() (string, error)) *Guard {
	if fn != nil {
		g.tokenGenerator = fn
	}
	return g
}

// Attempt verifies the credentials for uid. When remember is set and
// the user has no remember me token a new one is generated and
// persisted.
func (g *Guard) Attempt(ctx context.Context, uid, password string, remember bool) (*ProviderUser, error) {
	user, err := g.provider.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	if !user.Present() {
		g.logger.Debug("login attempt for unknown uid", "uid", uid)
		return nil, ErrInvalidCredentials
	}

	ok, err := user.VerifyPassword(password)
	if err != nil {
		return nil, err
	}

	if !ok {
		g.logger.Debug("login attempt with invalid password", "uid", uid)
		return nil, ErrInvalidCredentials
	}

	if remember {
		if _, has := user.RememberMeToken(); !has {
			if err := g.rotate(ctx, user); err != nil {
				return nil, err
			}
		}
	}

	return user, nil
}

// ViaRemember restores a user from the id and token stored in a
// remember me cookie
func (g *Guard) ViaRemember(ctx context.Context, id, token string) (*ProviderUser, error) {
	user, err := g.provider.FindByRememberMeToken(ctx, id, token)
	if err != nil {
		return nil, err
	}

	if !user.Present() {
		return nil, ErrInvalidRememberToken
	}

	return user, nil
}

// Logout ends the session for user. With recycle set the remember me
// token is replaced so existing cookies stop working.
func (g *Guard) Logout(ctx context.Context, user *ProviderUser, recycle bool) error {
	if !user.Present() {
		return ErrAbsentUser
	}

	if !recycle {
		return nil
	}

	return g.rotate(ctx, user)
}

func (g *Guard) rotate(ctx context.Context, user *ProviderUser) error {
	token, err := g.tokenGenerator()
	if err != nil {
		return err
	}

	user.SetRememberMeToken(token)
	return g.provider.UpdateRememberMeToken(ctx, user)
}
