package provider

import (
	"errors"
)

// ErrAbsentUser is returned when an operation needs a user record
// but the ProviderUser wraps nobody
var ErrAbsentUser = errors.New("cannot operate on an absent user")

// ErrRecordNotFound is returned by a UserStore lookup with no match
var ErrRecordNotFound = errors.New("record not found")

// ErrUnknownField is returned by stores for predicate or patch fields
// that do not map to a user column
var ErrUnknownField = errors.New("unknown user field")

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password cannot be empty")

// ErrInvalidHash the stored hash has an unexpected format
var ErrInvalidHash = errors.New("invalid password hash")

// ErrUnknownHasher unsupported hashing algorithm
var ErrUnknownHasher = errors.New("unknown password hasher")

// ErrUnknownDriver no provider factory registered for the driver
var ErrUnknownDriver = errors.New("unknown provider driver")

// ErrDriverExists a provider factory is already registered for the driver
var ErrDriverExists = errors.New("provider driver already registered")

// ErrInvalidCredentials is returned by the guard when the uid or the
// password do not match
var ErrInvalidCredentials = errors.New("invalid user credentials")

// ErrInvalidRememberToken is returned by the guard when the remember
// me token does not belong to the user
var ErrInvalidRememberToken = errors.New("invalid remember me token")

// IsInvalidState reports whether err was caused by operating on an
// absent user
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrAbsentUser)
}

// IsNotFound reports whether err is a store level not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
