// ABOUTME: SQLite-backed local cache of picker results and service status.
// ABOUTME: Caches catalogs only; chat transcripts are never written to disk.

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quillhq/valet/internal/picker"
	"github.com/quillhq/valet/internal/service"
	"github.com/quillhq/valet/internal/status"
)

// Catalog caches calendar and folder listings and the last-seen service
// status, so the UI has something to show before the first fetch of a
// session completes. Entries are replaced wholesale on every refresh;
// the backend stays the source of truth.
type Catalog struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the catalog database at path. The schema is
// created if missing; parent directories are created as needed.
func Open(path string) (*Catalog, error) {
	logger := slog.Default().With("component", "catalog")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	c := &Catalog{db: db, logger: logger}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("catalog opened", "path", path)
	return c, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS calendars (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS folders (
			parent_id TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY (parent_id, id)
		);

		CREATE TABLE IF NOT EXISTS service_status (
			service TEXT PRIMARY KEY,
			is_setup INTEGER NOT NULL,
			last_setup_time DATETIME,
			scope_version TEXT NOT NULL,
			fetched_at DATETIME NOT NULL
		);
	`
	_, err := c.db.Exec(schema)
	return err
}

// SaveCalendars replaces the cached calendar list.
func (c *Catalog) SaveCalendars(ctx context.Context, calendars []picker.Calendar) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM calendars"); err != nil {
		return fmt.Errorf("clearing calendars: %w", err)
	}
	for _, cal := range calendars {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO calendars (id, name) VALUES (?, ?)", cal.ID, cal.Name); err != nil {
			return fmt.Errorf("inserting calendar %s: %w", cal.ID, err)
		}
	}
	return tx.Commit()
}

// Calendars returns the cached calendar list, ordered by name.
func (c *Catalog) Calendars(ctx context.Context) ([]picker.Calendar, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT id, name FROM calendars ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying calendars: %w", err)
	}
	defer rows.Close()

	var calendars []picker.Calendar
	for rows.Next() {
		var cal picker.Calendar
		if err := rows.Scan(&cal.ID, &cal.Name); err != nil {
			return nil, fmt.Errorf("scanning calendar: %w", err)
		}
		calendars = append(calendars, cal)
	}
	return calendars, rows.Err()
}

// SaveFolders replaces the cached folder list for one parent.
func (c *Catalog) SaveFolders(ctx context.Context, parentID string, folders []picker.Folder) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM folders WHERE parent_id = ?", parentID); err != nil {
		return fmt.Errorf("clearing folders: %w", err)
	}
	for _, f := range folders {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO folders (parent_id, id, name) VALUES (?, ?, ?)", parentID, f.ID, f.Name); err != nil {
			return fmt.Errorf("inserting folder %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

// Folders returns the cached folders under parentID, ordered by name.
func (c *Catalog) Folders(ctx context.Context, parentID string) ([]picker.Folder, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, name FROM folders WHERE parent_id = ? ORDER BY name", parentID)
	if err != nil {
		return nil, fmt.Errorf("querying folders: %w", err)
	}
	defer rows.Close()

	var folders []picker.Folder
	for rows.Next() {
		var f picker.Folder
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, fmt.Errorf("scanning folder: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// SaveStatus records the last-seen status for a service.
func (c *Catalog) SaveStatus(ctx context.Context, svc service.ID, st status.ServiceStatus) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO service_status (service, is_setup, last_setup_time, scope_version, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(service) DO UPDATE SET
			is_setup = excluded.is_setup,
			last_setup_time = excluded.last_setup_time,
			scope_version = excluded.scope_version,
			fetched_at = excluded.fetched_at`,
		svc.String(), st.IsSetup, st.LastSetupTime, st.ScopeVersion, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving status for %s: %w", svc, err)
	}
	return nil
}

// Status returns the last-seen status for a service and when it was
// fetched. ok is false when the service has never been cached.
func (c *Catalog) Status(ctx context.Context, svc service.ID) (st status.ServiceStatus, fetchedAt time.Time, ok bool, err error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT is_setup, last_setup_time, scope_version, fetched_at
		FROM service_status WHERE service = ?`, svc.String())

	var lastSetup sql.NullTime
	if scanErr := row.Scan(&st.IsSetup, &lastSetup, &st.ScopeVersion, &fetchedAt); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return status.ServiceStatus{}, time.Time{}, false, nil
		}
		return status.ServiceStatus{}, time.Time{}, false, fmt.Errorf("querying status for %s: %w", svc, scanErr)
	}
	if lastSetup.Valid {
		t := lastSetup.Time
		st.LastSetupTime = &t
	}
	return st, fetchedAt, true, nil
}
