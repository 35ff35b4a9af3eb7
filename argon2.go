package provider

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2SaltLen = 16
	argon2KeyLen  = 32

	// upper bound, in KiB, for the memory parameter of stored hashes
	argon2MaxMemory = 1024 * 1024
)

// Argon2idHasher implements PasswordHasher using argon2id. Hashes are
// encoded in PHC format:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
type Argon2idHasher struct{}

// NewArgon2idHasher will create a new Argon2idHasher
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash will generate a password hash
func (h *Argon2idHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrNoEmptyString
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify will validate the given cleartext password matches the
// encoded hash
func (h *Argon2idHasher) Verify(encoded, plaintext string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}

	if version != argon2.Version {
		return false, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}

	if time < 1 || threads < 1 || memory < 8*uint32(threads) || memory > argon2MaxMemory {
		return false, fmt.Errorf("%w: parameters m=%d,t=%d,p=%d", ErrInvalidHash, memory, time, threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}

	if len(expected) == 0 || len(expected) > 1<<10 {
		return false, fmt.Errorf("%w: key length %d", ErrInvalidHash, len(expected))
	}

	computed := argon2.IDKey([]byte(plaintext), salt, time, memory, threads, uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
