// ABOUTME: Message, ChatState and Setup types for per-service chat state.
// ABOUTME: Transcripts are append-only; messages are immutable once created.

package state

import (
	"github.com/google/uuid"

	"github.com/quillhq/valet/internal/service"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single transcript entry. Messages are immutable once created
// and their insertion order is their display order.
type Message struct {
	ID      string
	Role    Role
	Content string
}

// NewUserMessage creates a user message with a fresh ID.
func NewUserMessage(content string) Message {
	return Message{ID: uuid.New().String(), Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message with a fresh ID.
func NewAssistantMessage(content string) Message {
	return Message{ID: uuid.New().String(), Role: RoleAssistant, Content: content}
}

// ChatState is a point-in-time snapshot of one service's chat channel.
// Err is empty when no error is set.
type ChatState struct {
	Messages []Message
	Loading  bool
	Err      string
}

// Setup holds the service-specific selections made outside the chat flow.
// Fields not applicable to a service stay empty.
type Setup struct {
	CalendarID string
	FolderID   string
	FolderPath string
}

// SetupPatch is a partial update to a Setup. Nil fields are left unchanged,
// mirroring the merge semantics of UpdateSetup.
type SetupPatch struct {
	CalendarID *string
	FolderID   *string
	FolderPath *string
}

// entry is the store-internal record for one service.
type entry struct {
	setup    Setup
	messages []Message
	loading  bool
	err      string
}

// defaultSetup returns the initial setup values for a service. Drive and
// email start with a usable default selection; calendar starts empty and
// must be chosen before chat sends are allowed.
func defaultSetup(id service.ID) Setup {
	switch id {
	case service.Drive:
		return Setup{FolderID: "root", FolderPath: "My Drive"}
	case service.Email:
		return Setup{FolderID: "INBOX"}
	default:
		return Setup{}
	}
}
