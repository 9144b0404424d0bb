// Package dispatch is the chat send path: precondition checks, optimistic
// transcript append, the backend call, and reconciliation of the reply
// into the state store.
//
// # Contract
//
// Per service, at most one send is in flight at any instant. A second
// SendMessage while one is pending is silently dropped, so transcript
// order for a service is exactly call order. Cross-service sends are
// independent and may overlap.
//
// The state machine per service is Idle → Sending → Idle, with the error
// field set on failed resolutions. There is no cancellation: a hung
// backend call holds the loading flag until the transport times out.
//
// # Errors
//
// SendMessage never returns an error. Precondition failures (no token,
// empty message, missing calendar selection) get specific short messages;
// everything on the network path (connection failure, non-2xx status,
// malformed JSON, empty reply) collapses into one generic message. The
// UI cannot distinguish an expired session from a downed server; the
// raw cause goes to the log only.
package dispatch
