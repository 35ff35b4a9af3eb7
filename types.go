package provider

import (
	"context"
	"log/slog"
)

// Logger is the logging surface used across the package
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// PasswordHasher is the one-way hash primitive used to store and
// verify passwords. Implementations must compare in constant time.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify returns (true, nil) on match, (false, nil) on mismatch
	// and an error when the stored hash can not be used.
	Verify(hash, plaintext string) (bool, error)
}

// UserStore is the collection of user records the provider reads
// from and writes remember me tokens to.
//
// FindByID and FindOne return ErrRecordNotFound when nothing matches.
// UpdateOne acknowledges the write, a missing record is not an error.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindOne(ctx context.Context, where Predicate) (*User, error)
	UpdateOne(ctx context.Context, id string, patch Patch) error
}

// UserProviderContract is what the auth module calls into during
// login, session restoration and remember me validation.
type UserProviderContract interface {
	GetUserFor(user *User) *ProviderUser
	FindByID(ctx context.Context, id string) (*ProviderUser, error)
	FindByUID(ctx context.Context, uidValue string) (*ProviderUser, error)
	FindByRememberMeToken(ctx context.Context, id, token string) (*ProviderUser, error)
	UpdateRememberMeToken(ctx context.Context, user *ProviderUser) error
}

// ModelResolver returns the user store handle, it is called lazily
// on first use.
type ModelResolver func(ctx context.Context) (UserStore, error)

// Condition is a single field equality
type Condition struct {
	Field string
	Value any
}

// Predicate is a conjunction of field equalities
type Predicate []Condition

// Where starts a new predicate
func Where(field string, value any) Predicate {
	return Predicate{{Field: field, Value: value}}
}

// And appends a field equality to the predicate
func (p Predicate) And(field string, value any) Predicate {
	out := make(Predicate, 0, len(p)+1)
	out = append(out, p...)
	return append(out, Condition{Field: field, Value: value})
}

// Patch holds the fields written by UpdateOne. A nil value clears
// the field.
type Patch map[string]any

type defLogger struct {
	logger *slog.Logger
}

// NewSlogLogger adapts a slog.Logger. A nil logger uses slog.Default.
func NewSlogLogger(l *slog.Logger) Logger {
	return defLogger{logger: l}
}

func (d defLogger) resolve() *slog.Logger {
	if d.logger == nil {
		return slog.Default()
	}
	return d.logger
}

func (d defLogger) Error(msg string, args ...any) {
	d.resolve().Error(msg, args...)
}

func (d defLogger) Info(msg string, args ...any) {
	d.resolve().Info(msg, args...)
}

func (d defLogger) Debug(msg string, args ...any) {
	d.resolve().Debug(msg, args...)
}
