// Package associations maintains the join tables that link events to tags
// and participants. An Event owns its join rows: they are rewritten as a set
// whenever the event is saved and removed when it is deleted. Tags and
// participants sit on the related side; deleting one removes only the join
// rows that point at it.
//
// The Manager never opens transactions itself. Services bind it to their
// transaction with WithTx so the owning-row write and the join-row rewrite
// commit together.
package associations

import (
	"fmt"

	"github.com/eventgo/eventgo/internal/civil"
)

// Kind selects one of the two join tables.
type Kind string

const (
	// KindTags links events to tags through event_tags.
	KindTags Kind = "tags"

	// KindParticipants links events to participants through event_participants.
	KindParticipants Kind = "participants"
)

// Kinds lists every relation an event owns, in cascade order.
var Kinds = []Kind{KindTags, KindParticipants}

// relation describes the SQL shape of a Kind. Table and column names come
// only from this map, never from input, so they are safe to interpolate.
type relation struct {
	joinTable     string
	relatedColumn string
	relatedTable  string
	noun          string
}

var relations = map[Kind]relation{
	KindTags: {
		joinTable:     "event_tags",
		relatedColumn: "tag_id",
		relatedTable:  "tags",
		noun:          "tag",
	},
	KindParticipants: {
		joinTable:     "event_participants",
		relatedColumn: "participant_id",
		relatedTable:  "participants",
		noun:          "participant",
	},
}

func lookup(kind Kind) (relation, error) {
	rel, ok := relations[kind]
	if !ok {
		return relation{}, fmt.Errorf("unknown association kind %q", kind)
	}
	return rel, nil
}

// EventRef is the compact view of an event shown on the related side
// (a tag's or participant's "events" list).
type EventRef struct {
	ID   int        `json:"id" db:"id"`
	Name string     `json:"name" db:"name"`
	Date civil.Date `json:"date" db:"date"`
}
