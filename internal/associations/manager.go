package associations

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/eventgo/eventgo/internal/apperror"
)

// Manager keeps join tables consistent with their owning events.
type Manager interface {
	// Reconcile replaces the event's join rows of the given kind with exactly
	// the distinct IDs in relatedIDs. It fails with NotFound when the event
	// does not exist and InvalidReference when any related ID is unknown;
	// nothing is written in either case.
	Reconcile(ctx context.Context, eventID int, kind Kind, relatedIDs []int) error

	// RelatedIDs returns the IDs currently linked to the event, ascending.
	RelatedIDs(ctx context.Context, eventID int, kind Kind) ([]int, error)

	// CascadeDeleteForEvent removes every join row of every kind that
	// references the event. Safe to call on an event with no links.
	CascadeDeleteForEvent(ctx context.Context, eventID int) error

	// CascadeDeleteForRelated removes the join rows that reference a tag or
	// participant. The events on the other side are left untouched.
	CascadeDeleteForRelated(ctx context.Context, kind Kind, relatedID int) error

	// EventsFor returns, per related ID, the events linked to it ordered by
	// event ID. IDs with no links are absent from the map.
	EventsFor(ctx context.Context, kind Kind, relatedIDs []int) (map[int][]EventRef, error)

	// WithTx returns a Manager that runs every statement on tx.
	WithTx(tx *sqlx.Tx) Manager
}

// manager implements Manager with hand-written SQL that runs unchanged on
// MariaDB and SQLite.
type manager struct {
	q sqlx.ExtContext
}

// NewManager creates a Manager on the given connection pool.
func NewManager(db *sqlx.DB) Manager {
	return &manager{q: db}
}

func (m *manager) WithTx(tx *sqlx.Tx) Manager {
	return &manager{q: tx}
}

func (m *manager) Reconcile(ctx context.Context, eventID int, kind Kind, relatedIDs []int) error {
	rel, err := lookup(kind)
	if err != nil {
		return err
	}

	var n int
	if err := sqlx.GetContext(ctx, m.q, &n, `SELECT COUNT(*) FROM events WHERE id = ?`, eventID); err != nil {
		return fmt.Errorf("checking event %d: %w", eventID, err)
	}
	if n == 0 {
		return apperror.NewNotFound("event not found")
	}

	ids := Distinct(relatedIDs)
	if err := m.checkExist(ctx, rel, ids); err != nil {
		return err
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE event_id = ?`, rel.joinTable)
	if _, err := m.q.ExecContext(ctx, deleteQuery, eventID); err != nil {
		return fmt.Errorf("clearing %s for event %d: %w", rel.joinTable, eventID, err)
	}

	if len(ids) == 0 {
		return nil
	}

	// One multi-row INSERT for the whole set.
	values := make([]string, len(ids))
	args := make([]any, 0, len(ids)*2)
	for i, id := range ids {
		values[i] = "(?, ?)"
		args = append(args, eventID, id)
	}
	insertQuery := fmt.Sprintf(`INSERT INTO %s (event_id, %s) VALUES %s`,
		rel.joinTable, rel.relatedColumn, strings.Join(values, ", "))
	if _, err := m.q.ExecContext(ctx, insertQuery, args...); err != nil {
		return fmt.Errorf("inserting %s for event %d: %w", rel.joinTable, eventID, err)
	}

	return nil
}

// checkExist fails with InvalidReference naming every ID in ids that has
// no row in the related table.
func (m *manager) checkExist(ctx context.Context, rel relation, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(fmt.Sprintf(`SELECT id FROM %s WHERE id IN (?)`, rel.relatedTable), ids)
	if err != nil {
		return fmt.Errorf("building %s lookup: %w", rel.relatedTable, err)
	}

	var found []int
	if err := sqlx.SelectContext(ctx, m.q, &found, m.q.Rebind(query), args...); err != nil {
		return fmt.Errorf("looking up %s: %w", rel.relatedTable, err)
	}
	if len(found) == len(ids) {
		return nil
	}

	var missing []string
	for _, id := range ids {
		if !slices.Contains(found, id) {
			missing = append(missing, strconv.Itoa(id))
		}
	}
	return apperror.NewInvalidReference(fmt.Sprintf("unknown %s id(s): %s", rel.noun, strings.Join(missing, ", ")))
}

func (m *manager) RelatedIDs(ctx context.Context, eventID int, kind Kind) ([]int, error) {
	rel, err := lookup(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE event_id = ? ORDER BY %s ASC`,
		rel.relatedColumn, rel.joinTable, rel.relatedColumn)
	ids := []int{}
	if err := sqlx.SelectContext(ctx, m.q, &ids, query, eventID); err != nil {
		return nil, fmt.Errorf("listing %s for event %d: %w", rel.joinTable, eventID, err)
	}
	return ids, nil
}

func (m *manager) CascadeDeleteForEvent(ctx context.Context, eventID int) error {
	for _, kind := range Kinds {
		rel := relations[kind]
		query := fmt.Sprintf(`DELETE FROM %s WHERE event_id = ?`, rel.joinTable)
		if _, err := m.q.ExecContext(ctx, query, eventID); err != nil {
			return fmt.Errorf("cascading %s for event %d: %w", rel.joinTable, eventID, err)
		}
	}
	return nil
}

func (m *manager) CascadeDeleteForRelated(ctx context.Context, kind Kind, relatedID int) error {
	rel, err := lookup(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, rel.joinTable, rel.relatedColumn)
	if _, err := m.q.ExecContext(ctx, query, relatedID); err != nil {
		return fmt.Errorf("cascading %s for %s %d: %w", rel.joinTable, rel.noun, relatedID, err)
	}
	return nil
}

func (m *manager) EventsFor(ctx context.Context, kind Kind, relatedIDs []int) (map[int][]EventRef, error) {
	rel, err := lookup(kind)
	if err != nil {
		return nil, err
	}

	result := make(map[int][]EventRef)
	if len(relatedIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(fmt.Sprintf(`SELECT j.%s AS related_id, e.id, e.name, e.date
	           FROM events e
	           INNER JOIN %s j ON j.event_id = e.id
	           WHERE j.%s IN (?)
	           ORDER BY e.id ASC`, rel.relatedColumn, rel.joinTable, rel.relatedColumn), relatedIDs)
	if err != nil {
		return nil, fmt.Errorf("building %s event lookup: %w", rel.noun, err)
	}

	var rows []struct {
		RelatedID int `db:"related_id"`
		EventRef
	}
	if err := sqlx.SelectContext(ctx, m.q, &rows, m.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing events for %s: %w", rel.relatedTable, err)
	}

	for _, r := range rows {
		result[r.RelatedID] = append(result[r.RelatedID], r.EventRef)
	}
	return result, nil
}

// Distinct returns the unique values of ids in ascending order. The result
// is never nil.
func Distinct(ids []int) []int {
	out := make([]int, 0, len(ids))
	out = append(out, ids...)
	slices.Sort(out)
	return slices.Compact(out)
}
