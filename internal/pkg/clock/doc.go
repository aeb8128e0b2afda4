// Package clock provides a tiny time abstraction.
//
// Session expiry and TOTP validation are both time-dependent, so business
// logic depends on the Clocker interface instead of calling time.Now()
// directly; tests swap in a fixed clock and step it across expiry and
// code-window boundaries.
package clock
