// ABOUTME: Service status flow: fetches per-service setup state and runs setup.
// ABOUTME: Sibling of the chat path; shares the store only through setup fields.

package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/quillhq/valet/internal/service"
	"github.com/quillhq/valet/internal/session"
)

// ServiceStatus is one service's setup state as reported by the backend.
type ServiceStatus struct {
	IsSetup       bool       `json:"is_setup"`
	LastSetupTime *time.Time `json:"last_setup_time"`
	ScopeVersion  string     `json:"scope_version"`
}

// UserData is the response from GET /api/auth/user/data. Services missing
// from the map have never been set up.
type UserData struct {
	Email    string                   `json:"email"`
	Services map[string]ServiceStatus `json:"services"`
}

// Status returns the named service's status and whether it was present.
func (u *UserData) Status(svc service.ID) (ServiceStatus, bool) {
	s, ok := u.Services[svc.String()]
	return s, ok
}

// Backend is the transport surface the status flow needs.
type Backend interface {
	GetJSON(ctx context.Context, path, token string, out any) error
	PostJSON(ctx context.Context, path, token string, body, out any) error
}

// Client fetches user/service status and triggers service setup. Unlike
// the chat dispatcher it returns errors directly; status is a foreground
// flow with no transcript to degrade into.
type Client struct {
	backend Backend
	session session.Source
	logger  *slog.Logger
}

// NewClient creates a status client.
func NewClient(backend Backend, src session.Source, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		backend: backend,
		session: src,
		logger:  logger.With("component", "status"),
	}
}

// Fetch retrieves the authenticated user's per-service setup state.
func (c *Client) Fetch(ctx context.Context) (*UserData, error) {
	tok, ok := c.session.Current()
	if !ok || tok.AccessToken == "" {
		return nil, fmt.Errorf("no access token")
	}

	var data UserData
	if err := c.backend.GetJSON(ctx, "/api/auth/user/data", tok.AccessToken, &data); err != nil {
		return nil, fmt.Errorf("fetching user data: %w", err)
	}
	return &data, nil
}

// setupRequest is the body for POST /api/auth/{service}/setup. Drive setup
// additionally names the root folder to index.
type setupRequest struct {
	Credential string `json:"credential"`
	FolderID   string `json:"folderId,omitempty"`
}

// RunSetup asks the backend to (re)run setup for a service. The credential
// is the current access token; drive setup starts from the root folder.
func (c *Client) RunSetup(ctx context.Context, svc service.ID) error {
	if _, ok := service.Lookup(svc); !ok {
		return fmt.Errorf("unknown service %q", svc)
	}

	tok, ok := c.session.Current()
	if !ok || tok.AccessToken == "" {
		return fmt.Errorf("no access token")
	}

	req := setupRequest{Credential: tok.AccessToken}
	if svc == service.Drive {
		req.FolderID = "root"
	}

	path := "/api/auth/" + svc.String() + "/setup"
	if err := c.backend.PostJSON(ctx, path, tok.AccessToken, req, nil); err != nil {
		return fmt.Errorf("running %s setup: %w", svc, err)
	}

	c.logger.Info("service setup complete", "service", svc)
	return nil
}
