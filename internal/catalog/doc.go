// Package catalog provides a small SQLite cache for calendar/folder
// listings and last-seen service status, keeping the picker responsive
// across restarts. Chat transcripts are never persisted here.
package catalog
