// Package security holds the credential primitives of the service: bcrypt
// password hashing, signed identity tokens, one-time passcodes and API keys.
//
// None of these types touch storage; they are pure CPU-bound helpers that are
// safe for concurrent use.
package security
