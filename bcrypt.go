package provider

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hashing algorithms understood by NewHasher
const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

// BcryptHasher implements PasswordHasher using bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher will create a hasher using cost. A cost of zero
// uses the package default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = passwordHashCost()
	}
	return &BcryptHasher{cost: cost}
}

// Hash will generate a password hash
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrNoEmptyString
	}

	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	return string(b), err
}

// Verify will validate the given cleartext password matches the
// hashed password
func (h *BcryptHasher) Verify(hash, plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, errors.Join(ErrInvalidHash, err)
}

// NewHasher returns the PasswordHasher for algorithm. cost only
// applies to bcrypt.
func NewHasher(algorithm string, cost int) (PasswordHasher, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", HasherBcrypt:
		return NewBcryptHasher(cost), nil
	case HasherArgon2id:
		return NewArgon2idHasher(), nil
	default:
		return nil, ErrUnknownHasher
	}
}
