// ABOUTME: Service identifiers and the static registry of assistant services.
// ABOUTME: Defines the fixed calendar/drive/email set and their setup requirements.

package service

import (
	"fmt"
)

// ID identifies one of the supported assistant services.
type ID string

// The fixed set of services. Keys are wire-level identifiers and appear
// verbatim in backend paths (/api/{service}/chat).
const (
	Calendar ID = "calendar"
	Drive    ID = "drive"
	Email    ID = "email"
)

// SetupField names a per-service setup value that lives in the state store.
type SetupField string

const (
	FieldCalendarID SetupField = "calendar_id"
	FieldFolderID   SetupField = "folder_id"
	FieldFolderPath SetupField = "folder_path"
)

// Descriptor holds the static, per-service configuration the dispatcher and
// UI need before any backend call is made.
type Descriptor struct {
	// Greeting is the assistant message every fresh transcript starts with.
	Greeting string

	// RequiredSetup lists setup fields that must be non-empty before a chat
	// send for this service may go out. Empty for services whose selection
	// only gates display, not sending.
	RequiredSetup []SetupField
}

// registry is fixed at init and never mutated.
var registry = map[ID]Descriptor{
	Calendar: {
		Greeting:      "👋 Hi! I'm your Calendar Assistant. How can I help you manage your schedule?",
		RequiredSetup: []SetupField{FieldCalendarID},
	},
	Drive: {
		Greeting: "👋 Hi! I'm your Drive Assistant. I can help you manage your files and folders.",
	},
	Email: {
		Greeting: "👋 Hi! I'm your Email Assistant. Need help with your emails?",
	},
}

// All returns the service identifiers in stable display order.
func All() []ID {
	return []ID{Calendar, Drive, Email}
}

// Lookup returns the descriptor for a service ID.
func Lookup(id ID) (Descriptor, bool) {
	d, ok := registry[id]
	return d, ok
}

// Parse converts a raw string into a known service ID.
func Parse(s string) (ID, error) {
	id := ID(s)
	if _, ok := registry[id]; !ok {
		return "", fmt.Errorf("unknown service %q", s)
	}
	return id, nil
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}
