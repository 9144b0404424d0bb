// Package session supplies the current bearer token pair to the rest of
// the client. Tokens are issued and refreshed externally; this package
// only reads them and can report staleness from an unverified exp claim.
package session
