package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// ProviderConfig is consumed once when the provider is built
type ProviderConfig struct {
	// Driver is the registry key the config was created for
	Driver string
	// UIDs are the fields matched by FindByUID. When more than one is
	// given ALL of them must equal the looked up value.
	UIDs []string
	// Model resolves the user store on first use
	Model ModelResolver
}

// Validate checks the config can back a provider
func (c ProviderConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.UIDs,
			validation.Required,
			validation.By(validateUIDs),
		),
		validation.Field(&c.Model,
			validation.By(func(value any) error {
				if c.Model == nil {
					return errors.New("model resolver is required")
				}
				return nil
			}),
		),
	)
}

func validateUIDs(value any) error {
	uids, _ := value.([]string)
	for _, uid := range uids {
		if !isUIDField(uid) {
			return fmt.Errorf("unknown uid field %q", uid)
		}
	}
	return nil
}

// Provider looks up users for the auth module
type Provider struct {
	config ProviderConfig
	hasher PasswordHasher
	logger Logger

	mu    sync.Mutex
	store UserStore
}

var _ UserProviderContract = (*Provider)(nil)

// NewProvider will create a new Provider. The user store is not
// resolved until the first lookup.
func NewProvider(config ProviderConfig, hasher PasswordHasher) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}

	p := &Provider{
		config: config,
		hasher: hasher,
		logger: NewSlogLogger(nil),
	}

	if len(config.UIDs) > 1 {
		p.logger.Info("uid lookups require every configured field to match", "uids", config.UIDs)
	}

	return p, nil
}

// WithLogger sets the logger
func (p *Provider) WithLogger(l Logger) *Provider {
	if l != nil {
		p.logger = l
	}
	return p
}

// resolveModel returns the memoized store. Failures are not cached so
// a later call can retry.
func (p *Provider) resolveModel(ctx context.Context) (UserStore, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.store != nil {
		return p.store, nil
	}

	store, err := p.config.Model(ctx)
	if err != nil {
		return nil, err
	}

	if store == nil {
		return nil, errors.New("model resolver returned a nil store")
	}

	p.logger.Debug("user store resolved", "driver", p.config.Driver)
	p.store = store
	return store, nil
}

// GetUserFor wraps a record, nil yields an absent user
func (p *Provider) GetUserFor(user *User) *ProviderUser {
	return newProviderUser(user, p.hasher)
}

// UpdateRememberMeToken persists the in memory remember me token
func (p *Provider) UpdateRememberMeToken(ctx context.Context, user *ProviderUser) error {
	id, ok := user.ID()
	if !ok {
		return ErrAbsentUser
	}

	store, err := p.resolveModel(ctx)
	if err != nil {
		return err
	}

	var token any
	if t, ok := user.RememberMeToken(); ok {
		token = t
	}

	return store.UpdateOne(ctx, id, Patch{FieldRememberMeToken: token})
}

// FindByID finds a user by id
func (p *Provider) FindByID(ctx context.Context, id string) (*ProviderUser, error) {
	store, err := p.resolveModel(ctx)
	if err != nil {
		return nil, err
	}

	return p.found(store.FindByID(ctx, id))
}

// FindByUID finds a user whose uid fields equal uidValue
func (p *Provider) FindByUID(ctx context.Context, uidValue string) (*ProviderUser, error) {
	store, err := p.resolveModel(ctx)
	if err != nil {
		return nil, err
	}

	var where Predicate
	for _, uid := range p.config.UIDs {
		where = where.And(uid, uidValue)
	}

	return p.found(store.FindOne(ctx, where))
}

// FindByRememberMeToken finds a user by id and remember me token. The
// token has to match exactly.
func (p *Provider) FindByRememberMeToken(ctx context.Context, id, token string) (*ProviderUser, error) {
	store, err := p.resolveModel(ctx)
	if err != nil {
		return nil, err
	}

	if token == "" {
		return p.GetUserFor(nil), nil
	}

	if _, err := uuid.Parse(id); err != nil {
		return p.GetUserFor(nil), nil
	}

	return p.found(store.FindOne(ctx, Where(FieldID, id).And(FieldRememberMeToken, token)))
}

func (p *Provider) found(user *User, err error) (*ProviderUser, error) {
	if err != nil {
		if IsNotFound(err) {
			return p.GetUserFor(nil), nil
		}
		return nil, err
	}
	return p.GetUserFor(user), nil
}
