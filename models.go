package provider

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Fields a store knows how to match and patch
const (
	FieldID              = "id"
	FieldEmail           = "email"
	FieldUsername        = "username"
	FieldRememberMeToken = "remember_me_token"
)

// UIDFields are the fields that can be configured as login identifiers
var UIDFields = []string{FieldEmail, FieldUsername}

// User is the user model
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email           string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Username        string     `bun:"username,notnull,unique" json:"username,omitempty"`
	PasswordHash    string     `bun:"password_hash,notnull" json:"-"`
	RememberMeToken string     `bun:"remember_me_token,nullzero" json:"-"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ColumnFor maps a field name to its column. Fields are matched
// against a fixed list so they can be safely spliced into queries.
func ColumnFor(field string) (string, bool) {
	switch field {
	case FieldID, FieldEmail, FieldUsername, FieldRememberMeToken:
		return field, true
	default:
		return "", false
	}
}

func isUIDField(field string) bool {
	for _, f := range UIDFields {
		if f == field {
			return true
		}
	}
	return false
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := time.Now().UTC()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	if record.UpdatedAt == nil {
		record.UpdatedAt = &now
	}
}
