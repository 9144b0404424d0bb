// Package state holds the per-service chat state: transcript, loading
// flag, error, and service-specific setup selections.
//
// # Overview
//
// One Store instance owns the state for all three services. The entries
// are fixed at construction; all access goes through the Store's
// operations, each of which is a single atomic transition under the store
// mutex. Mutating one service's entry never affects another's.
//
// # Transcripts
//
// Transcripts are append-only logs of attempts, not confirmed-delivery
// logs: a user message added optimistically before a send stays in the
// transcript even when the send fails. Messages are immutable and never
// reordered or deduplicated.
//
// # Ownership
//
// The Store exclusively owns the entries. Readers get snapshots (copies)
// via Chat and Setup; the dispatcher and UI never hold references into
// live store data.
package state
