// Package provider implements a user provider for an auth module backed
// by a user store.
//
// Provider:
//   - Provider looks users up by id, by the configured uid fields and by
//     id plus remember me token, and writes remember me tokens back. The
//     store is resolved lazily through ProviderConfig.Model on first use.
//   - Lookups that match nothing return an absent ProviderUser, never an
//     error. Store errors are returned to the caller as they are.
//   - With more than one uid configured FindByUID requires every field to
//     equal the value.
//
// ProviderUser:
//   - Wraps a copy of one record or nobody. Verifying a password or
//     persisting a token for nobody fails with ErrAbsentUser, setting a
//     token on nobody is a no-op.
//
// Stores:
//   - NewUsersRepository is a bun store (sqlite out of the box, see
//     Migrate). The postgres subpackage provides a pgx store.
//
// Wiring:
//   - Registry maps driver names to factories. Build it at process start,
//     register drivers, then resolve providers from config. Guard is the
//     reference consumer: login attempts, remember me restoration and
//     logout with token recycling.
package provider
