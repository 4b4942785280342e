package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventgo/eventgo/internal/apperror"
)

// EventRepository defines the data access contract for the events table.
// Join rows are handled by the associations package, not here.
type EventRepository interface {
	// Create inserts a new event and sets its ID.
	Create(ctx context.Context, evt *Event) error

	// FindByID retrieves a single event without its related sets.
	FindByID(ctx context.Context, id int) (*Event, error)

	// List returns every event ordered by ID.
	List(ctx context.Context) ([]Event, error)

	// ListByTag returns the events carrying the tag, ordered by ID. An
	// unknown tag yields an empty slice.
	ListByTag(ctx context.Context, tagID int) ([]Event, error)

	// Update replaces the scalar fields of an existing event.
	Update(ctx context.Context, evt *Event) error

	// Delete removes an event row.
	Delete(ctx context.Context, id int) error

	// WithTx returns a repository that runs every statement on tx.
	WithTx(tx *sqlx.Tx) EventRepository
}

type eventRepository struct {
	q sqlx.ExtContext
}

// NewEventRepository creates an EventRepository on the given pool.
func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepository{q: db}
}

func (r *eventRepository) WithTx(tx *sqlx.Tx) EventRepository {
	return &eventRepository{q: tx}
}

// eventCols is the column list for event queries.
const eventCols = `id, name, date, duration, description, place, created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, evt *Event) error {
	query := `INSERT INTO events (name, date, duration, description, place)
	           VALUES (?, ?, ?, ?, ?)`

	result, err := r.q.ExecContext(ctx, query,
		evt.Name, evt.Date, evt.Duration, evt.Description, evt.Place,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	evt.ID = int(id)
	return nil
}

func (r *eventRepository) FindByID(ctx context.Context, id int) (*Event, error) {
	var evt Event
	err := sqlx.GetContext(ctx, r.q, &evt, `SELECT `+eventCols+` FROM events WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("event not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying event by id: %w", err)
	}
	return &evt, nil
}

func (r *eventRepository) List(ctx context.Context) ([]Event, error) {
	out := []Event{}
	if err := sqlx.SelectContext(ctx, r.q, &out, `SELECT `+eventCols+` FROM events ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return out, nil
}

func (r *eventRepository) ListByTag(ctx context.Context, tagID int) ([]Event, error) {
	query := `SELECT e.id, e.name, e.date, e.duration, e.description, e.place, e.created_at, e.updated_at
	           FROM events e
	           INNER JOIN event_tags et ON et.event_id = e.id
	           WHERE et.tag_id = ?
	           ORDER BY e.id ASC`

	out := []Event{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, tagID); err != nil {
		return nil, fmt.Errorf("listing events by tag: %w", err)
	}
	return out, nil
}

// Update checks existence with a read first; RowsAffected is zero on
// MariaDB for an update that changes nothing.
func (r *eventRepository) Update(ctx context.Context, evt *Event) error {
	if _, err := r.FindByID(ctx, evt.ID); err != nil {
		return err
	}

	query := `UPDATE events
	           SET name = ?, date = ?, duration = ?, description = ?, place = ?,
	               updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	_, err := r.q.ExecContext(ctx, query,
		evt.Name, evt.Date, evt.Duration, evt.Description, evt.Place, evt.ID,
	)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	return nil
}

func (r *eventRepository) Delete(ctx context.Context, id int) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFound("event not found")
	}
	return nil
}
