// Package postgres provides a pgx backed provider.UserStore.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	provider "github.com/goliatone/go-auth-provider"
)

const selectUser = `SELECT id, email, username, password_hash, remember_me_token, created_at, updated_at FROM users`

// DB is the subset of pgxpool.Pool used by the store
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// UserStore implements provider.UserStore using PostgreSQL
type UserStore struct {
	db DB
}

var _ provider.UserStore = (*UserStore)(nil)

// NewUserStore creates a new UserStore
func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

// Connect opens a pool for dsn and pings it
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("USER_STORE_CONNECT_FAILED").Wrap(err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("USER_STORE_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}

	return pool, nil
}

// EnsureSchema applies the embedded postgres migrations. Statements are
// idempotent so it is safe to run on every start.
func (s *UserStore) EnsureSchema(ctx context.Context) error {
	fsys, err := provider.MigrationsFor(provider.MigrationsPostgres)
	if err != nil {
		return oops.Code("USER_STORE_SCHEMA_FAILED").Wrap(err)
	}

	files, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return oops.Code("USER_STORE_SCHEMA_FAILED").Wrap(err)
	}
	sort.Strings(files)

	for _, name := range files {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return oops.Code("USER_STORE_SCHEMA_FAILED").With("file", name).Wrap(err)
		}

		for _, stmt := range strings.Split(string(body), "--bun:split") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := s.db.Exec(ctx, stmt); err != nil {
				return oops.Code("USER_STORE_SCHEMA_FAILED").With("file", name).Wrap(err)
			}
		}
	}

	return nil
}

// Create stores a new user. The password must already be hashed.
func (s *UserStore) Create(ctx context.Context, user *provider.User) (*provider.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	now := time.Now().UTC()
	if user.CreatedAt == nil {
		user.CreatedAt = &now
	}
	if user.UpdatedAt == nil {
		user.UpdatedAt = &now
	}

	var token any
	if user.RememberMeToken != "" {
		token = user.RememberMeToken
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO users (
			id, email, username, password_hash, remember_me_token, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		user.ID.String(),
		user.Email,
		user.Username,
		user.PasswordHash,
		token,
		*user.CreatedAt,
		*user.UpdatedAt,
	)
	if err != nil {
		return nil, oops.Code("USER_STORE_CREATE_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}

	return user, nil
}

// FindByID retrieves a user by ID
func (s *UserStore) FindByID(ctx context.Context, id string) (*provider.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, provider.ErrRecordNotFound
	}

	return s.scanUser(s.db.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
}

// FindOne retrieves the first user matching every condition
func (s *UserStore) FindOne(ctx context.Context, where provider.Predicate) (*provider.User, error) {
	if len(where) == 0 {
		return nil, oops.Code("USER_STORE_QUERY_FAILED").Errorf("empty predicate")
	}

	clauses := make([]string, 0, len(where))
	args := make([]any, 0, len(where))
	for i, cond := range where {
		column, ok := provider.ColumnFor(cond.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %s", provider.ErrUnknownField, cond.Field)
		}
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, i+1))
		args = append(args, cond.Value)
	}

	query := selectUser + ` WHERE ` + strings.Join(clauses, " AND ") + ` LIMIT 1`
	return s.scanUser(s.db.QueryRow(ctx, query, args...))
}

// UpdateOne writes patch to the user with id
func (s *UserStore) UpdateOne(ctx context.Context, id string, patch provider.Patch) error {
	if len(patch) == 0 {
		return nil
	}

	if _, err := uuid.Parse(id); err != nil {
		return oops.Code("USER_STORE_UPDATE_FAILED").With("id", id).Wrap(err)
	}

	fields := make([]string, 0, len(patch))
	for f := range patch {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+2)
	for _, field := range fields {
		column, ok := provider.ColumnFor(field)
		if !ok || column == provider.FieldID {
			return fmt.Errorf("%w: %s", provider.ErrUnknownField, field)
		}
		args = append(args, patch[field])
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return oops.Code("USER_STORE_UPDATE_FAILED").
			With("operation", "update user").
			With("id", id).
			Wrap(err)
	}

	return nil
}

func (s *UserStore) scanUser(row pgx.Row) (*provider.User, error) {
	var (
		id                   string
		token                pgtype.Text
		createdAt, updatedAt time.Time
		user                 provider.User
	)

	err := row.Scan(&id, &user.Email, &user.Username, &user.PasswordHash, &token, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, provider.ErrRecordNotFound
		}
		return nil, oops.Code("USER_STORE_QUERY_FAILED").With("operation", "scan user").Wrap(err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, oops.Code("USER_STORE_QUERY_FAILED").With("id", id).Wrap(err)
	}

	user.ID = parsed
	if token.Valid {
		user.RememberMeToken = token.String
	}
	user.CreatedAt = &createdAt
	user.UpdatedAt = &updatedAt

	return &user, nil
}
