package provider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the bun backed UserStore
type Users interface {
	UserStore

	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	FindOneTx(ctx context.Context, tx bun.IDB, where Predicate) (*User, error)
	UpdateOneTx(ctx context.Context, tx bun.IDB, id string, patch Patch) error
}

type users struct {
	repo repository.Repository[*User]
	db   *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository will create a bun UserStore
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return FieldEmail
		},
	})

	return &users{
		repo: repo,
		db:   db,
	}
}

func (a *users) FindByID(ctx context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrRecordNotFound
	}

	user, err := a.repo.GetByID(ctx, uid.String())
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return user, nil
}

func (a *users) FindOne(ctx context.Context, where Predicate) (*User, error) {
	return a.FindOneTx(ctx, a.db, where)
}

func (a *users) FindOneTx(ctx context.Context, tx bun.IDB, where Predicate) (*User, error) {
	if len(where) == 0 {
		return nil, fmt.Errorf("find user: empty predicate")
	}

	record := &User{}
	q := tx.NewSelect().Model(record)

	for _, cond := range where {
		column, ok := ColumnFor(cond.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, cond.Field)
		}
		q = q.Where(fmt.Sprintf("?TableAlias.%s = ?", column), cond.Value)
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		if isRecordNotFound(err) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return record, nil
}

func (a *users) UpdateOne(ctx context.Context, id string, patch Patch) error {
	return a.UpdateOneTx(ctx, a.db, id, patch)
}

func (a *users) UpdateOneTx(ctx context.Context, tx bun.IDB, id string, patch Patch) error {
	if len(patch) == 0 {
		return nil
	}

	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("update user: invalid id %q: %w", id, err)
	}

	q := tx.NewUpdate().
		Model((*User)(nil)).
		Where("id = ?", uid.String())

	for _, field := range sortedFields(patch) {
		column, ok := ColumnFor(field)
		if !ok || column == FieldID {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		q = q.Set(fmt.Sprintf("%s = ?", column), patch[field])
	}

	_, err = q.Set("updated_at = ?", time.Now().UTC()).Exec(ctx)
	return err
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)
	return a.repo.CreateTx(ctx, tx, record)
}

func sortedFields(patch Patch) []string {
	fields := make([]string, 0, len(patch))
	for f := range patch {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func isRecordNotFound(err error) bool {
	return repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows)
}
