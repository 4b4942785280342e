// Package participants implements the participant roster. Participants are
// attached to events through the event_participants join table, which the
// events own; this package manages the participants themselves.
package participants

import (
	"time"

	"github.com/eventgo/eventgo/internal/associations"
)

// Participant is a person who can attend events.
type Participant struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Age       int       `json:"age" db:"age"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ParticipantWithEvents is the API view of a participant, including the
// events they attend ordered by event ID.
type ParticipantWithEvents struct {
	Participant
	Events []associations.EventRef `json:"events"`
}

// ParticipantInput holds the fields submitted when creating or replacing a
// participant. Age is a pointer so a missing value can be told apart from 0.
type ParticipantInput struct {
	Name string `json:"name" validate:"required"`
	Age  *int   `json:"age" validate:"required,gte=0,lte=150"`
}
