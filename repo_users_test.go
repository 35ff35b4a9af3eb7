package provider_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	provider "github.com/goliatone/go-auth-provider"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"
)

func setupRepositoryManager(t *testing.T) provider.RepositoryManager {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())
	t.Cleanup(func() {
		_ = bunDB.Close()
	})

	_, err = provider.Migrate(context.Background(), bunDB)
	require.NoError(t, err)

	repo := provider.NewRepositoryManager(bunDB)
	require.NoError(t, repo.Validate())

	return repo
}

func seedUser(t *testing.T, repo provider.RepositoryManager, email, username, password string) *provider.User {
	t.Helper()

	hash, err := provider.NewBcryptHasher(bcrypt.MinCost).Hash(password)
	require.NoError(t, err)

	user, err := repo.Users().Create(context.Background(), &provider.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)

	return user
}

func TestUsersRepositoryFindByID(t *testing.T) {
	ctx := context.Background()
	repo := setupRepositoryManager(t)
	seeded := seedUser(t, repo, "a@x.com", "a", "pw1")

	t.Run("Existing id", func(t *testing.T) {
		user, err := repo.Users().FindByID(ctx, seeded.ID.String())
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, user.ID)
		assert.Equal(t, "a@x.com", user.Email)
	})

	t.Run("Unknown id", func(t *testing.T) {
		_, err := repo.Users().FindByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, provider.ErrRecordNotFound)
	})

	t.Run("Malformed id", func(t *testing.T) {
		_, err := repo.Users().FindByID(ctx, "99")
		assert.ErrorIs(t, err, provider.ErrRecordNotFound)
	})
}

func TestUsersRepositoryFindOne(t *testing.T) {
	ctx := context.Background()
	repo := setupRepositoryManager(t)
	seeded := seedUser(t, repo, "a@x.com", "alice", "pw1")
	seedUser(t, repo, "b@x.com", "bob", "pw2")

	t.Run("Single condition", func(t *testing.T) {
		user, err := repo.Users().FindOne(ctx, provider.Where(provider.FieldEmail, "a@x.com"))
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, user.ID)
	})

	t.Run("All conditions must match", func(t *testing.T) {
		_, err := repo.Users().FindOne(ctx,
			provider.Where(provider.FieldEmail, "a@x.com").And(provider.FieldUsername, "bob"))
		assert.ErrorIs(t, err, provider.ErrRecordNotFound)

		user, err := repo.Users().FindOne(ctx,
			provider.Where(provider.FieldEmail, "a@x.com").And(provider.FieldUsername, "alice"))
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, user.ID)
	})

	t.Run("Unknown field", func(t *testing.T) {
		_, err := repo.Users().FindOne(ctx, provider.Where("password_hash", "x"))
		assert.ErrorIs(t, err, provider.ErrUnknownField)
	})

	t.Run("Empty predicate", func(t *testing.T) {
		_, err := repo.Users().FindOne(ctx, nil)
		assert.Error(t, err)
	})
}

func TestUsersRepositoryUpdateOne(t *testing.T) {
	ctx := context.Background()
	repo := setupRepositoryManager(t)
	seeded := seedUser(t, repo, "a@x.com", "a", "pw1")
	id := seeded.ID.String()

	err := repo.Users().UpdateOne(ctx, id, provider.Patch{provider.FieldRememberMeToken: "abc"})
	require.NoError(t, err)

	user, err := repo.Users().FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "abc", user.RememberMeToken)
	assert.Equal(t, seeded.Email, user.Email)
	assert.Equal(t, seeded.Username, user.Username)
	assert.Equal(t, seeded.PasswordHash, user.PasswordHash)

	t.Run("Clear token", func(t *testing.T) {
		err := repo.Users().UpdateOne(ctx, id, provider.Patch{provider.FieldRememberMeToken: nil})
		require.NoError(t, err)

		user, err := repo.Users().FindByID(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, user.RememberMeToken)
	})

	t.Run("Missing record is acknowledged", func(t *testing.T) {
		err := repo.Users().UpdateOne(ctx, uuid.NewString(), provider.Patch{provider.FieldRememberMeToken: "x"})
		assert.NoError(t, err)
	})

	t.Run("Id can not be patched", func(t *testing.T) {
		err := repo.Users().UpdateOne(ctx, id, provider.Patch{provider.FieldID: uuid.NewString()})
		assert.ErrorIs(t, err, provider.ErrUnknownField)
	})
}

func TestProviderWithUsersRepository(t *testing.T) {
	ctx := context.Background()
	repo := setupRepositoryManager(t)
	seeded := seedUser(t, repo, "a@x.com", "a", "pw1")
	id := seeded.ID.String()

	p, err := provider.NewProvider(provider.ProviderConfig{
		Driver: "bun",
		UIDs:   []string{provider.FieldEmail},
		Model:  provider.UsersModel(repo),
	}, provider.NewBcryptHasher(bcrypt.MinCost))
	require.NoError(t, err)

	t.Run("Find by uid and verify password", func(t *testing.T) {
		user, err := p.FindByUID(ctx, "a@x.com")
		require.NoError(t, err)

		gotID, ok := user.ID()
		require.True(t, ok)
		assert.Equal(t, id, gotID)

		matched, err := user.VerifyPassword("pw1")
		require.NoError(t, err)
		assert.True(t, matched)

		again, err := user.VerifyPassword("pw1")
		require.NoError(t, err)
		assert.Equal(t, matched, again)

		matched, err = user.VerifyPassword("pw2")
		require.NoError(t, err)
		assert.False(t, matched)
	})

	t.Run("Unknown uid is absent", func(t *testing.T) {
		user, err := p.FindByUID(ctx, "b@x.com")
		require.NoError(t, err)
		assert.False(t, user.Present())
	})

	t.Run("Remember me token round trip", func(t *testing.T) {
		user, err := p.FindByID(ctx, id)
		require.NoError(t, err)

		user.SetRememberMeToken("abc")
		require.NoError(t, p.UpdateRememberMeToken(ctx, user))

		found, err := p.FindByRememberMeToken(ctx, id, "abc")
		require.NoError(t, err)
		assert.True(t, found.Present())

		found, err = p.FindByRememberMeToken(ctx, id, "ABC")
		require.NoError(t, err)
		assert.False(t, found.Present())

		found, err = p.FindByRememberMeToken(ctx, uuid.NewString(), "abc")
		require.NoError(t, err)
		assert.False(t, found.Present())

		found, err = p.FindByRememberMeToken(ctx, id, "")
		require.NoError(t, err)
		assert.False(t, found.Present())
	})

	t.Run("Unknown id is absent", func(t *testing.T) {
		user, err := p.FindByID(ctx, "99")
		require.NoError(t, err)
		assert.False(t, user.Present())
	})
}

func TestRegisterUserHandler(t *testing.T) {
	ctx := context.Background()
	repo := setupRepositoryManager(t)
	handler := provider.NewRegisterUserHandler(repo, provider.NewBcryptHasher(bcrypt.MinCost))

	t.Run("Creates a user with a hashed password", func(t *testing.T) {
		user, err := handler.Register(ctx, provider.RegisterUserMessage{
			Email:    "new@x.com",
			Password: "password123",
		})
		require.NoError(t, err)
		assert.Equal(t, "new", user.Username)
		assert.NotEqual(t, "password123", user.PasswordHash)

		stored, err := repo.Users().FindByID(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "new@x.com", stored.Email)
	})

	t.Run("Deterministic id with hashid", func(t *testing.T) {
		user, err := handler.Register(ctx, provider.RegisterUserMessage{
			Email:     "hash@x.com",
			Username:  "hashed",
			Password:  "password123",
			UseHashid: true,
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "hashed", user.Username)
	})

	t.Run("Invalid message", func(t *testing.T) {
		tests := []struct {
			name string
			msg  provider.RegisterUserMessage
		}{
			{name: "Missing email", msg: provider.RegisterUserMessage{Password: "password123"}},
			{name: "Bad email", msg: provider.RegisterUserMessage{Email: "nope", Password: "password123"}},
			{name: "Short password", msg: provider.RegisterUserMessage{Email: "c@x.com", Password: "short"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				user, err := handler.Register(ctx, tt.msg)
				assert.Error(t, err)
				assert.Nil(t, user)
			})
		}
	})

	t.Run("Duplicate email", func(t *testing.T) {
		err := handler.Execute(ctx, provider.RegisterUserMessage{Email: "new@x.com", Username: "other", Password: "password123"})
		assert.Error(t, err)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := handler.Register(cctx, provider.RegisterUserMessage{Email: "d@x.com", Password: "password123"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRepositoryManager(t *testing.T) {
	ctx := context.Background()

	t.Run("Validate without a database", func(t *testing.T) {
		repo := provider.NewRepositoryManager(nil)

		assert.Error(t, repo.Validate())
		assert.Panics(t, repo.MustValidate)
	})

	t.Run("RunInTx commits", func(t *testing.T) {
		repo := setupRepositoryManager(t)
		assert.NotPanics(t, repo.MustValidate)

		var created *provider.User
		err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			var err error
			created, err = repo.Users().CreateTx(ctx, tx, &provider.User{
				Email:        "tx@x.com",
				Username:     "tx",
				PasswordHash: "$hash",
			})
			return err
		})
		require.NoError(t, err)

		stored, err := repo.Users().FindByID(ctx, created.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "tx@x.com", stored.Email)
	})

	t.Run("RunInTx rolls back on error", func(t *testing.T) {
		repo := setupRepositoryManager(t)
		txErr := errors.New("abort")

		err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := repo.Users().CreateTx(ctx, tx, &provider.User{
				Email:        "rollback@x.com",
				Username:     "rollback",
				PasswordHash: "$hash",
			}); err != nil {
				return err
			}
			return txErr
		})
		assert.ErrorIs(t, err, txErr)

		_, err = repo.Users().FindOne(ctx, provider.Where(provider.FieldEmail, "rollback@x.com"))
		assert.ErrorIs(t, err, provider.ErrRecordNotFound)
	})

	t.Run("RunInTx with a cancelled context", func(t *testing.T) {
		repo := setupRepositoryManager(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := repo.RunInTx(cctx, nil, func(context.Context, bun.Tx) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPrepareUser(t *testing.T) {
	hasher := provider.NewBcryptHasher(bcrypt.MinCost)

	t.Run("Hashes the password and defaults the username", func(t *testing.T) {
		record, err := provider.PrepareUser(provider.RegisterUserMessage{
			Email:    "jane@x.com",
			Password: "password123",
		}, hasher)
		require.NoError(t, err)

		assert.Equal(t, "jane@x.com", record.Email)
		assert.Equal(t, "jane", record.Username)
		assert.Equal(t, uuid.Nil, record.ID)

		ok, err := hasher.Verify(record.PasswordHash, "password123")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Keeps an explicit username", func(t *testing.T) {
		record, err := provider.PrepareUser(provider.RegisterUserMessage{
			Email:    "jane@x.com",
			Username: "jd",
			Password: "password123",
		}, hasher)
		require.NoError(t, err)
		assert.Equal(t, "jd", record.Username)
	})

	t.Run("Hashid ids are stable per email", func(t *testing.T) {
		msg := provider.RegisterUserMessage{Email: "jane@x.com", Password: "password123", UseHashid: true}

		first, err := provider.PrepareUser(msg, hasher)
		require.NoError(t, err)
		second, err := provider.PrepareUser(msg, hasher)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, first.ID)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("Invalid message is not hashed", func(t *testing.T) {
		mh := new(MockHasher)

		record, err := provider.PrepareUser(provider.RegisterUserMessage{Email: "nope", Password: "password123"}, mh)
		assert.Error(t, err)
		assert.Nil(t, record)
		mh.AssertNotCalled(t, "Hash", mock.Anything)
	})

	t.Run("Hasher errors propagate", func(t *testing.T) {
		mh := new(MockHasher)
		hashErr := errors.New("hasher down")
		mh.On("Hash", "password123").Return("", hashErr).Once()

		_, err := provider.PrepareUser(provider.RegisterUserMessage{Email: "jane@x.com", Password: "password123"}, mh)
		assert.ErrorIs(t, err, hashErr)
	})

	t.Run("Missing hasher", func(t *testing.T) {
		_, err := provider.PrepareUser(provider.RegisterUserMessage{Email: "jane@x.com", Password: "password123"}, nil)
		assert.Error(t, err)
	})
}
