// Package otp provides helpers for generating and validating time-based
// one-time passwords (RFC 6238).
//
// Enrollment generates a secret plus a provisioning URI for the user's
// authenticator app; setup confirmation and session verification validate
// user-provided codes against that secret within a configurable skew window.
package otp
