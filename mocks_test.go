package provider_test

import (
	"context"
	"sync/atomic"

	provider "github.com/goliatone/go-auth-provider"
	"github.com/stretchr/testify/mock"
)

// MockUserStore implements provider.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByID(ctx context.Context, id string) (*provider.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*provider.User)
	return user, args.Error(1)
}

func (m *MockUserStore) FindOne(ctx context.Context, where provider.Predicate) (*provider.User, error) {
	args := m.Called(ctx, where)
	user, _ := args.Get(0).(*provider.User)
	return user, args.Error(1)
}

func (m *MockUserStore) UpdateOne(ctx context.Context, id string, patch provider.Patch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

// MockHasher implements provider.PasswordHasher
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Verify(hash, plaintext string) (bool, error) {
	args := m.Called(hash, plaintext)
	return args.Bool(0), args.Error(1)
}

// MockProvider implements provider.UserProviderContract
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetUserFor(user *provider.User) *provider.ProviderUser {
	args := m.Called(user)
	return args.Get(0).(*provider.ProviderUser)
}

func (m *MockProvider) FindByID(ctx context.Context, id string) (*provider.ProviderUser, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*provider.ProviderUser)
	return user, args.Error(1)
}

func (m *MockProvider) FindByUID(ctx context.Context, uidValue string) (*provider.ProviderUser, error) {
	args := m.Called(ctx, uidValue)
	user, _ := args.Get(0).(*provider.ProviderUser)
	return user, args.Error(1)
}

func (m *MockProvider) FindByRememberMeToken(ctx context.Context, id, token string) (*provider.ProviderUser, error) {
	args := m.Called(ctx, id, token)
	user, _ := args.Get(0).(*provider.ProviderUser)
	return user, args.Error(1)
}

func (m *MockProvider) UpdateRememberMeToken(ctx context.Context, user *provider.ProviderUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// staticModel resolves store and counts how often it was asked to
func staticModel(store provider.UserStore, calls *int32) provider.ModelResolver {
	return func(ctx context.Context) (provider.UserStore, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		return store, nil
	}
}

type logCall struct {
	level   string
	message string
	args    []any
}

type captureLogger struct {
	calls []logCall
}

func (l *captureLogger) record(level, message string, args ...any) {
	l.calls = append(l.calls, logCall{level: level, message: message, args: args})
}

func (l *captureLogger) Debug(message string, args ...any) { l.record("debug", message, args...) }
func (l *captureLogger) Info(message string, args ...any)  { l.record("info", message, args...) }
func (l *captureLogger) Error(message string, args ...any) { l.record("error", message, args...) }
