package messages

import (
	"encoding/json"

	"github.com/fragmede/sanctum/internal/events"
	"github.com/fragmede/sanctum/internal/store"
)

// View transition messages.
type (
	OpenLoginMsg    struct{}
	OpenProfileMsg  struct{}
	OpenActivityMsg struct{}
	GoBackMsg       struct{}
)

// Data messages.
type (
	LoginResultMsg struct {
		Data json.RawMessage
		Err  error
	}

	LogoutResultMsg struct {
		Err error
	}

	UserLoadedMsg struct {
		User store.User
		Err  error
	}

	SessionRestoredMsg struct {
		User store.User
		Err  error
	}

	// SessionEventMsg is a lifecycle event relayed from the event bus.
	SessionEventMsg struct {
		Topic string
		Event events.Event
		Total int
	}

	StatusMsg struct {
		Text    string
		IsError bool
	}
)
