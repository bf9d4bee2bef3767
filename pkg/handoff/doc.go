// Package handoff transfers a single value from one goroutine to another.
//
// The setup portal handles each HTTP request on its own goroutine, while the
// provisioning loop runs on a goroutine that never sees those requests. The
// loop has to block until a human submits the form, which may take seconds or
// hours, without polling. Slot is the rendezvous between the two.
//
// # Semantics
//
// A Slot is written at most once. The first Put stores the value and wakes
// every waiter; later Puts are rejected and leave the stored value untouched.
// Close tears the slot down. A Wait that observes a closed, empty slot returns
// ErrEmpty instead of blocking forever, which is how process shutdown without
// a submission surfaces to the caller.
//
// The write happens under the lock the waiter checks with, and waiters are
// woken after it is released, so a waiter that returns a value always sees
// the complete write.
package handoff
