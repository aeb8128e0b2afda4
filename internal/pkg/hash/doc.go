// Package hash provides helpers for hashing and verifying secrets.
//
// Three implementations live behind the same small interface: bcrypt for
// password re-proof against the shared credential store, argon2id for backup
// code hashes, and HMAC-SHA256 for session token digests. Store only the
// hash, then verify user input by comparing the plaintext against it.
package hash
