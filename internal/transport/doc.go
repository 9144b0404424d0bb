// Package transport is the HTTP boundary to the assistant backend: base
// URL prefixing, JSON encoding, and explicit per-call bearer tokens.
//
// Failures come in two flavors the rest of the client relies on: a
// *StatusError carries a status code and body for non-2xx responses,
// while network-level faults (no response at all) surface as ordinary
// wrapped errors. Callers that only need success/failure can ignore the
// distinction.
package transport
