package notify

import (
	"time"

	"github.com/google/uuid"
)

// Variant classifies a notification for the consuming UI.
type Variant string

const (
	// VariantDestructive marks failures the user must see.
	VariantDestructive Variant = "destructive"
	// VariantInfo marks routine signals.
	VariantInfo Variant = "info"
)

// errorTitle is the fixed title of failure notifications.
const errorTitle = "Error"

// Notification is one user-visible message.
type Notification struct {
	ID          string    `json:"id"`
	Variant     Variant   `json:"variant"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// NewError builds the destructive notification for a failure. The
// description is the failure collapsed to a display string by Describe.
func NewError(cause any) Notification {
	return Notification{
		ID:          uuid.NewString(),
		Variant:     VariantDestructive,
		Title:       errorTitle,
		Description: Describe(cause),
		At:          time.Now().UTC(),
	}
}

// NewInfo builds a routine notification.
func NewInfo(title, description string) Notification {
	return Notification{
		ID:          uuid.NewString(),
		Variant:     VariantInfo,
		Title:       title,
		Description: description,
		At:          time.Now().UTC(),
	}
}
