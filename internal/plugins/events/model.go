// Package events implements the event calendar, the owning side of every
// association. An event's tags and participants are stored in join tables
// that are rewritten as a whole each time the event is saved, so the API
// always returns an event together with its full, current related sets.
package events

import (
	"time"

	"github.com/eventgo/eventgo/internal/civil"
	"github.com/eventgo/eventgo/internal/plugins/participants"
	"github.com/eventgo/eventgo/internal/plugins/tags"
)

// Event is a scheduled happening. Tags and Participants are populated by
// the service's enrichment step and are never nil in API responses.
type Event struct {
	ID          int        `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Date        civil.Date `json:"date" db:"date"`
	Duration    string     `json:"duration" db:"duration"`
	Description string     `json:"description" db:"description"`
	Place       string     `json:"place" db:"place"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`

	Tags         []tags.Tag                 `json:"tags" db:"-"`
	Participants []participants.Participant `json:"participants" db:"-"`
}

// --- Request DTOs (bound from HTTP requests) ---

// EventInput holds the fields submitted when creating or replacing an event.
// A missing tagIds or participantIds list replaces the set with nothing.
type EventInput struct {
	Name           string `json:"name" validate:"required"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	Duration       string `json:"duration" validate:"required"`
	Description    string `json:"description" validate:"required"`
	Place          string `json:"place" validate:"required"`
	TagIDs         []int  `json:"tagIds"`
	ParticipantIDs []int  `json:"participantIds"`
}

// ListFilter narrows List. A nil TagID lists every event.
type ListFilter struct {
	TagID *int
}
