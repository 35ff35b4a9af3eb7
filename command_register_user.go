package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&e.Username, validation.Length(0, 100)),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 72)),
	)
}

// RegisterUserHandler creates users, hashing the plaintext password
// before the record is written
type RegisterUserHandler struct {
	repo   RepositoryManager
	hasher PasswordHasher
}

func NewRegisterUserHandler(repo RepositoryManager, hasher PasswordHasher) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo, hasher: hasher}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	_, err := h.Register(ctx, event)
	return err
}

// Register creates the user and returns the stored record
func (h *RegisterUserHandler) Register(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled during user registration: %w", ctx.Err())
	default:
	}

	record, err := PrepareUser(event, h.hasher)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var user *User
	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := h.repo.Users().CreateTx(ctx, tx, record)
		if err != nil {
			return fmt.Errorf("could not create user: %w", err)
		}
		user = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	return user, nil
}

// PrepareUser validates the message and builds the record to insert.
// The plaintext password is hashed with hasher, stores only ever see
// the hash.
func PrepareUser(event RegisterUserMessage, hasher PasswordHasher) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}

	hash, err := hasher.Hash(event.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	record := &User{
		Email:        event.Email,
		Username:     getUsername(event.Username, event.Email),
		PasswordHash: hash,
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			record.ID = id
		}
	}

	return record, nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
