// Package tags implements the tag catalogue. Tags are free-standing labels
// attached to events through the event_tags join table. The join rows are
// owned by the event: this package only creates, edits and deletes tags,
// and removes a tag's join rows when the tag itself is deleted.
package tags

import (
	"time"

	"github.com/eventgo/eventgo/internal/associations"
)

// Tag is a label that can be attached to events. Color is free text chosen
// by the client.
type Tag struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// TagWithEvents is the API view of a tag: the tag plus the events it is
// attached to, ordered by event ID.
type TagWithEvents struct {
	Tag
	Events []associations.EventRef `json:"events"`
}

// --- Request DTOs (bound from HTTP requests) ---

// TagInput holds the fields submitted when creating or replacing a tag.
type TagInput struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
}
