// Package session owns the wallet identity of the current client: a single
// User record that starts as a guest, can be bound to a wallet account, and
// survives restarts through a durable key/value Store.
//
// The raw account address is never used as a display name. Display names and
// avatars are derived deterministically from the address when no explicit
// value is known.
//
// Exactly one Manager exists per client. The composition root creates a Root
// and calls Initialize once; every consumer receives the Manager from it.
package session
