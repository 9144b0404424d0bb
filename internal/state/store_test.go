// ABOUTME: Tests for the per-service chat state store.
// ABOUTME: Validates seeding, transcript ordering, isolation, and snapshot independence.

package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/valet/internal/service"
)

func TestNewStore_SeedsGreetings(t *testing.T) {
	store := NewStore()

	for _, id := range service.All() {
		chat := store.Chat(id)
		require.Len(t, chat.Messages, 1, "service %s", id)

		desc, ok := service.Lookup(id)
		require.True(t, ok)
		assert.Equal(t, RoleAssistant, chat.Messages[0].Role)
		assert.Equal(t, desc.Greeting, chat.Messages[0].Content)
		assert.False(t, chat.Loading)
		assert.Empty(t, chat.Err)
	}
}

func TestNewStore_Defaults(t *testing.T) {
	store := NewStore()

	assert.Equal(t, service.Calendar, store.ActiveService())

	// Calendar starts with no selection; the user must pick one
	assert.Empty(t, store.Setup(service.Calendar).CalendarID)

	drive := store.Setup(service.Drive)
	assert.Equal(t, "root", drive.FolderID)
	assert.Equal(t, "My Drive", drive.FolderPath)

	assert.Equal(t, "INBOX", store.Setup(service.Email).FolderID)
}

func TestStore_SetActiveService(t *testing.T) {
	store := NewStore()

	store.SetActiveService(service.Email)
	assert.Equal(t, service.Email, store.ActiveService())

	// Unknown ids are ignored
	store.SetActiveService(service.ID("bogus"))
	assert.Equal(t, service.Email, store.ActiveService())
}

func TestStore_SetActiveService_DoesNotTouchChatData(t *testing.T) {
	store := NewStore()
	store.AddMessage(service.Calendar, NewUserMessage("hello"))
	store.SetError(service.Calendar, "boom")

	store.SetActiveService(service.Drive)
	store.SetActiveService(service.Calendar)

	chat := store.Chat(service.Calendar)
	assert.Len(t, chat.Messages, 2)
	assert.Equal(t, "boom", chat.Err)
}

func TestStore_AddMessage_PreservesOrder(t *testing.T) {
	store := NewStore()

	store.AddMessage(service.Drive, NewUserMessage("first"))
	store.AddMessage(service.Drive, NewAssistantMessage("second"))
	store.AddMessage(service.Drive, NewUserMessage("third"))

	chat := store.Chat(service.Drive)
	require.Len(t, chat.Messages, 4) // greeting + 3
	assert.Equal(t, "first", chat.Messages[1].Content)
	assert.Equal(t, "second", chat.Messages[2].Content)
	assert.Equal(t, "third", chat.Messages[3].Content)
}

func TestStore_ServiceIsolation(t *testing.T) {
	store := NewStore()

	store.AddMessage(service.Calendar, NewUserMessage("calendar only"))
	store.SetLoading(service.Calendar, true)
	store.SetError(service.Calendar, "calendar error")

	for _, other := range []service.ID{service.Drive, service.Email} {
		chat := store.Chat(other)
		assert.Len(t, chat.Messages, 1, "service %s", other)
		assert.False(t, chat.Loading, "service %s", other)
		assert.Empty(t, chat.Err, "service %s", other)
	}
}

func TestStore_SetError_EmptyClears(t *testing.T) {
	store := NewStore()

	store.SetError(service.Email, "Failed to send message")
	assert.Equal(t, "Failed to send message", store.Chat(service.Email).Err)

	store.SetError(service.Email, "")
	assert.Empty(t, store.Chat(service.Email).Err)
}

func TestStore_SetLoading_IndependentOfError(t *testing.T) {
	store := NewStore()

	store.SetError(service.Drive, "stale error")
	store.SetLoading(service.Drive, true)

	chat := store.Chat(service.Drive)
	assert.True(t, chat.Loading)
	assert.Equal(t, "stale error", chat.Err)
}

func TestStore_Chat_SnapshotIsIndependent(t *testing.T) {
	store := NewStore()

	snap := store.Chat(service.Calendar)
	store.AddMessage(service.Calendar, NewUserMessage("after snapshot"))

	assert.Len(t, snap.Messages, 1)
	assert.Len(t, store.Chat(service.Calendar).Messages, 2)

	// Mutating the snapshot slice must not reach the store
	snap.Messages[0].Content = "tampered"
	assert.NotEqual(t, "tampered", store.Chat(service.Calendar).Messages[0].Content)
}

func TestStore_UpdateSetup_MergesPatch(t *testing.T) {
	store := NewStore()

	calID := "work-calendar"
	store.UpdateSetup(service.Calendar, SetupPatch{CalendarID: &calID})
	assert.Equal(t, "work-calendar", store.Setup(service.Calendar).CalendarID)

	// Nil fields leave existing values alone
	folderID := "abc123"
	store.UpdateSetup(service.Drive, SetupPatch{FolderID: &folderID})
	drive := store.Setup(service.Drive)
	assert.Equal(t, "abc123", drive.FolderID)
	assert.Equal(t, "My Drive", drive.FolderPath)
}

func TestStore_UpdateSetup_ClearsWithEmptyString(t *testing.T) {
	store := NewStore()

	calID := "work"
	store.UpdateSetup(service.Calendar, SetupPatch{CalendarID: &calID})

	empty := ""
	store.UpdateSetup(service.Calendar, SetupPatch{CalendarID: &empty})
	assert.Empty(t, store.Setup(service.Calendar).CalendarID)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	store := NewStore()

	const perService = 50
	var wg sync.WaitGroup
	for _, id := range service.All() {
		for i := 0; i < perService; i++ {
			wg.Add(1)
			go func(id service.ID, i int) {
				defer wg.Done()
				store.AddMessage(id, NewUserMessage(fmt.Sprintf("msg-%d", i)))
			}(id, i)
		}
	}
	wg.Wait()

	for _, id := range service.All() {
		assert.Len(t, store.Chat(id).Messages, perService+1, "service %s", id)
	}
}

func TestNewUserMessage_UniqueIDs(t *testing.T) {
	a := NewUserMessage("same text")
	b := NewUserMessage("same text")

	assert.Equal(t, RoleUser, a.Role)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
