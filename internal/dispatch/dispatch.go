// ABOUTME: Chat dispatcher: validates preconditions, serializes sends per service,
// ABOUTME: and reconciles backend replies into the state store.

package dispatch

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/quillhq/valet/internal/service"
	"github.com/quillhq/valet/internal/session"
	"github.com/quillhq/valet/internal/state"
)

// User-facing error strings written to the store. Transport-path failures
// all collapse into the generic message; the raw backend error is logged
// but never shown in the transcript.
const (
	errSendFailed     = "Failed to send message"
	errNotSignedIn    = "Not signed in"
	errEmptyMessage   = "Message is empty"
	errSelectCalendar = "Please select a calendar first"
)

// Backend is what the dispatcher needs from the transport layer.
type Backend interface {
	PostJSON(ctx context.Context, path, token string, body, out any) error
}

// Dispatcher sends chat messages for each service, holding the at-most-one
// in-flight guarantee per service. It owns no chat state beyond the guard;
// everything observable lives in the store.
type Dispatcher struct {
	store   *state.Store
	session session.Source
	backend Backend
	logger  *slog.Logger

	mu       sync.Mutex
	inflight map[service.ID]bool
}

// New creates a dispatcher over the given store, session source, and
// backend transport.
func New(store *state.Store, src session.Source, backend Backend, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:    store,
		session:  src,
		backend:  backend,
		logger:   logger.With("component", "dispatch"),
		inflight: make(map[service.ID]bool),
	}
}

// chatPayload is the request body for drive and email chat sends.
type chatPayload struct {
	Message string `json:"message"`
}

// calendarPayload is the request body for calendar chat sends.
type calendarPayload struct {
	UserMessage string `json:"user_message"`
	CalendarID  string `json:"calendar_id"`
}

// chatReply tolerates the two response shapes the backend has shipped:
// "answer" (current) and "message" (older). Answer wins when both are set.
type chatReply struct {
	Answer  string `json:"answer"`
	Message string `json:"message"`
}

// content returns the reply text, preferring the answer field.
func (r chatReply) content() string {
	if r.Answer != "" {
		return r.Answer
	}
	return r.Message
}

// SendMessage dispatches one chat message for a service. It never returns
// an error: every failure is converted into store state so the UI renders
// it inline. A call while a send for the same service is still in flight
// is a silent no-op: it is neither queued nor surfaced.
//
// On any outcome the loading flag is cleared and the in-flight guard is
// released before SendMessage returns.
func (d *Dispatcher) SendMessage(ctx context.Context, svc service.ID, raw string) {
	desc, ok := service.Lookup(svc)
	if !ok {
		d.logger.Warn("send for unknown service dropped", "service", svc)
		return
	}

	if !d.acquire(svc) {
		d.logger.Debug("send dropped, request already in flight", "service", svc)
		return
	}
	defer d.release(svc)

	tok, ok := d.session.Current()
	if !ok || tok.AccessToken == "" {
		d.store.SetError(svc, errNotSignedIn)
		return
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		d.store.SetError(svc, errEmptyMessage)
		return
	}

	// Optimistic append: the transcript records the attempt even if the
	// backend call fails. Never rolled back.
	d.store.AddMessage(svc, state.NewUserMessage(text))
	d.store.SetLoading(svc, true)
	defer d.store.SetLoading(svc, false)

	payload, errMsg := d.buildPayload(svc, desc, text)
	if errMsg != "" {
		d.store.SetError(svc, errMsg)
		return
	}

	var reply chatReply
	path := "/api/" + svc.String() + "/chat"
	if err := d.backend.PostJSON(ctx, path, tok.AccessToken, payload, &reply); err != nil {
		d.logger.Error("chat send failed", "service", svc, "error", err)
		d.store.SetError(svc, errSendFailed)
		return
	}

	content := reply.content()
	if content == "" {
		d.logger.Error("chat reply had no content", "service", svc)
		d.store.SetError(svc, errSendFailed)
		return
	}

	d.store.AddMessage(svc, state.NewAssistantMessage(content))
	d.store.SetError(svc, "")
}

// InFlight reports whether a send is currently pending for the service.
func (d *Dispatcher) InFlight(svc service.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight[svc]
}

// buildPayload assembles the service-specific request body, checking the
// registry's required setup fields first. A non-empty second return is the
// user-facing precondition error.
func (d *Dispatcher) buildPayload(svc service.ID, desc service.Descriptor, text string) (any, string) {
	setup := d.store.Setup(svc)
	for _, field := range desc.RequiredSetup {
		if field == service.FieldCalendarID && setup.CalendarID == "" {
			return nil, errSelectCalendar
		}
	}

	if svc == service.Calendar {
		return calendarPayload{UserMessage: text, CalendarID: setup.CalendarID}, ""
	}
	return chatPayload{Message: text}, ""
}

// acquire takes the per-service in-flight guard. Returns false when a send
// is already pending for the service.
func (d *Dispatcher) acquire(svc service.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight[svc] {
		return false
	}
	d.inflight[svc] = true
	return true
}

// release clears the guard. Deferred by SendMessage so every exit path,
// including panics in the transport, lets the next send through.
func (d *Dispatcher) release(svc service.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inflight, svc)
}
