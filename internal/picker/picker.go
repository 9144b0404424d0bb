// ABOUTME: Fetches the selectable calendars and folders that feed service setup.
// ABOUTME: The selection itself happens in the UI; this only supplies the options.

package picker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/quillhq/valet/internal/session"
)

// Calendar is one selectable calendar.
type Calendar struct {
	ID   string
	Name string
}

// Folder is one selectable Drive folder.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EmailFolders is the fixed set of selectable mail folders. The backend
// has no listing endpoint for these.
var EmailFolders = []string{"INBOX", "SENT", "DRAFT"}

// Backend is the transport surface the picker needs.
type Backend interface {
	PostJSON(ctx context.Context, path, token string, body, out any) error
}

// Client lists selectable calendars and folders from the backend.
type Client struct {
	backend Backend
	session session.Source
	logger  *slog.Logger
}

// NewClient creates a picker client.
func NewClient(backend Backend, src session.Source, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		backend: backend,
		session: src,
		logger:  logger.With("component", "picker"),
	}
}

// calendarListRequest is the body for POST /api/calendar/list_calendars.
// The backend wants the token pair in the body as well as the header.
type calendarListRequest struct {
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// calendarListResponse carries calendars as a list of single-entry
// id→name objects. That shape is the backend's, not ours; decode flattens
// it into []Calendar.
type calendarListResponse struct {
	Email         string              `json:"email"`
	CalendarNames []map[string]string `json:"calendar_names"`
}

// ListCalendars fetches the user's calendars, sorted by name.
func (c *Client) ListCalendars(ctx context.Context, email string) ([]Calendar, error) {
	tok, ok := c.session.Current()
	if !ok || tok.AccessToken == "" {
		return nil, fmt.Errorf("no access token")
	}

	req := calendarListRequest{
		Email:        email,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	var resp calendarListResponse
	if err := c.backend.PostJSON(ctx, "/api/calendar/list_calendars", tok.AccessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("listing calendars: %w", err)
	}

	calendars := make([]Calendar, 0, len(resp.CalendarNames))
	for _, entry := range resp.CalendarNames {
		for id, name := range entry {
			calendars = append(calendars, Calendar{ID: id, Name: name})
		}
	}
	sort.Slice(calendars, func(i, j int) bool { return calendars[i].Name < calendars[j].Name })
	return calendars, nil
}

// folderListRequest is the body for the folder listing endpoint.
type folderListRequest struct {
	ParentID    string `json:"parentId"`
	AccessToken string `json:"accessToken"`
}

// folderListResponse wraps the folder array.
type folderListResponse struct {
	Folders []Folder `json:"folders"`
}

// ListFolders fetches the Drive folders under parentID. An empty parentID
// means the Drive root.
func (c *Client) ListFolders(ctx context.Context, parentID string) ([]Folder, error) {
	tok, ok := c.session.Current()
	if !ok || tok.AccessToken == "" {
		return nil, fmt.Errorf("no access token")
	}
	if parentID == "" {
		parentID = "root"
	}

	req := folderListRequest{ParentID: parentID, AccessToken: tok.AccessToken}
	var resp folderListResponse
	if err := c.backend.PostJSON(ctx, "/api/drive/list-folders", tok.AccessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return resp.Folders, nil
}

// emailUpdateRequest is the body for POST /api/email/update.
type emailUpdateRequest struct {
	Credential string `json:"credential"`
}

// UpdateEmailCredential pushes the current access token to the backend's
// mail indexer so it can keep reading the mailbox.
func (c *Client) UpdateEmailCredential(ctx context.Context) error {
	tok, ok := c.session.Current()
	if !ok || tok.AccessToken == "" {
		return fmt.Errorf("no access token")
	}

	req := emailUpdateRequest{Credential: tok.AccessToken}
	if err := c.backend.PostJSON(ctx, "/api/email/update", tok.AccessToken, req, nil); err != nil {
		return fmt.Errorf("updating email credential: %w", err)
	}

	c.logger.Info("email credential updated")
	return nil
}
