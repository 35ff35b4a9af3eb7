package provider

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Users() Users
}

var _ RepositoryManager = (*mngr)(nil)

type mngr struct {
	db    *bun.DB
	users Users
}

// NewRepositoryManager will create a manager backed by db
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:    db,
		users: NewUsersRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository manager needs a database")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

// UsersModel returns a resolver handing out the manager's users
// store, meant for ProviderConfig.Model
func UsersModel(m RepositoryManager) ModelResolver {
	return func(ctx context.Context) (UserStore, error) {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return m.Users(), nil
	}
}
