// Package jwt verifies access tokens issued by the primary auth service.
//
// It includes:
//   - A typed Claims wrapper (registered claims + strongly-typed payload).
//   - A symmetric HS512 verifier sharing the issuer's HMAC secret.
//   - Context helpers for storing and retrieving authenticated claims.
package jwt
