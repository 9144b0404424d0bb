// Package service enumerates the fixed set of assistant services
// (calendar, drive, email) and the static per-service descriptors:
// initial greeting and required setup fields.
package service
