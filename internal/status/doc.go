// Package status fetches per-service setup state from the backend and
// triggers the one-shot setup flow for a service.
package status
