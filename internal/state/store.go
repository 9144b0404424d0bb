// ABOUTME: Store is the single process-wide container for per-service chat state.
// ABOUTME: Every mutation is one atomic transition under the store mutex.

package state

import (
	"sync"

	"github.com/quillhq/valet/internal/service"
)

// Store owns all per-service chat state. The three service entries are
// created at construction and never added or removed, only mutated. A Store
// is safe for concurrent use; each exported operation is a single atomic
// state transition, so no caller can observe a partial update.
//
// Stores are handed to collaborators explicitly rather than living in a
// package-level singleton, so tests get a fresh instance each.
type Store struct {
	mu      sync.Mutex
	active  service.ID
	entries map[service.ID]*entry
}

// NewStore creates a store seeded with each service's greeting message and
// default setup. The active service starts as calendar.
func NewStore() *Store {
	entries := make(map[service.ID]*entry, len(service.All()))
	for _, id := range service.All() {
		desc, _ := service.Lookup(id)
		entries[id] = &entry{
			setup:    defaultSetup(id),
			messages: []Message{NewAssistantMessage(desc.Greeting)},
		}
	}
	return &Store{
		active:  service.Calendar,
		entries: entries,
	}
}

// ActiveService returns the currently selected service.
func (s *Store) ActiveService() service.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActiveService changes the selected service. It has no effect on any
// service's chat data.
func (s *Store) SetActiveService(id service.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return
	}
	s.active = id
}

// Setup returns a copy of the service's current setup values.
func (s *Store) Setup(id service.ID) Setup {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		return e.setup
	}
	return Setup{}
}

// UpdateSetup merges the patch into the service's setup. Nil patch fields
// are left unchanged. No validation happens here; the dispatcher checks
// required fields at send time.
func (s *Store) UpdateSetup(id service.ID, patch SetupPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return
	}
	if patch.CalendarID != nil {
		e.setup.CalendarID = *patch.CalendarID
	}
	if patch.FolderID != nil {
		e.setup.FolderID = *patch.FolderID
	}
	if patch.FolderPath != nil {
		e.setup.FolderPath = *patch.FolderPath
	}
}

// AddMessage appends a message to the service's transcript. Existing
// messages are never mutated, reordered, or dropped; the transcript only
// ever grows.
func (s *Store) AddMessage(id service.ID, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.messages = append(e.messages, msg)
	}
}

// SetLoading sets the service's loading flag. It does not touch the error
// field; resolution paths set both explicitly.
func (s *Store) SetLoading(id service.ID, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.loading = loading
	}
}

// SetError sets the service's error message. An empty string clears it.
// The loading flag is left alone.
func (s *Store) SetError(id service.ID, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.err = msg
	}
}

// Chat returns a snapshot of the service's chat channel. The returned
// message slice is a copy; holding it never observes later appends.
func (s *Store) Chat(id service.ID) ChatState {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return ChatState{}
	}
	msgs := make([]Message, len(e.messages))
	copy(msgs, e.messages)
	return ChatState{
		Messages: msgs,
		Loading:  e.loading,
		Err:      e.err,
	}
}
