package messages

import (
	"github.com/koinsera/botadmin/internal/cli/session"
	"github.com/koinsera/botadmin/internal/models"
)

// View transition messages.
type (
	GoBackMsg           struct{}
	OpenParticipantsMsg struct {
		ChatID int
		Title  string
	}
)

// Session and data messages.
type (
	// SessionReadyMsg reports the outcome of the startup session check.
	// User is nil when there is no valid stored session.
	SessionReadyMsg struct {
		User *models.User
		Err  error
	}

	// SessionEventMsg forwards a session manager event into the program
	SessionEventMsg struct {
		Event session.Event
	}

	LoginResultMsg struct {
		Err error
	}

	ProfileSavedMsg struct {
		User *models.User
		Err  error
	}

	StatusMsg struct {
		Text    string
		IsError bool
	}
)
