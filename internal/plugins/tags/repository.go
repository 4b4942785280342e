package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventgo/eventgo/internal/apperror"
)

// TagRepository defines the data access contract for tags. All SQL for the
// tags table lives here.
type TagRepository interface {
	// Create inserts a new tag. The tag's ID is set on the struct after insert.
	Create(ctx context.Context, tag *Tag) error

	// FindByID retrieves a single tag by its primary key.
	FindByID(ctx context.Context, id int) (*Tag, error)

	// List returns every tag ordered by ID.
	List(ctx context.Context) ([]Tag, error)

	// Update replaces a tag's name and color.
	Update(ctx context.Context, tag *Tag) error

	// Delete removes a tag by ID.
	Delete(ctx context.Context, id int) error

	// ListForEvents returns the tags of several events in one query, keyed
	// by event ID and ordered by tag ID. Used to enrich event listings
	// without N+1 queries.
	ListForEvents(ctx context.Context, eventIDs []int) (map[int][]Tag, error)

	// WithTx returns a repository that runs every statement on tx.
	WithTx(tx *sqlx.Tx) TagRepository
}

// tagRepository implements TagRepository with hand-written SQL that runs on
// both MariaDB and SQLite.
type tagRepository struct {
	q sqlx.ExtContext
}

// NewTagRepository creates a new TagRepository backed by the given database connection.
func NewTagRepository(db *sqlx.DB) TagRepository {
	return &tagRepository{q: db}
}

func (r *tagRepository) WithTx(tx *sqlx.Tx) TagRepository {
	return &tagRepository{q: tx}
}

const tagCols = `id, name, color, created_at, updated_at`

// Create inserts a new tag and sets the auto-generated ID on the struct.
func (r *tagRepository) Create(ctx context.Context, tag *Tag) error {
	query := `INSERT INTO tags (name, color) VALUES (?, ?)`

	result, err := r.q.ExecContext(ctx, query, tag.Name, tag.Color)
	if err != nil {
		return fmt.Errorf("inserting tag: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	tag.ID = int(id)

	return nil
}

// FindByID retrieves a single tag by its primary key.
func (r *tagRepository) FindByID(ctx context.Context, id int) (*Tag, error) {
	var t Tag
	err := sqlx.GetContext(ctx, r.q, &t, `SELECT `+tagCols+` FROM tags WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("tag not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying tag by id: %w", err)
	}
	return &t, nil
}

// List returns all tags, ordered by ID.
func (r *tagRepository) List(ctx context.Context) ([]Tag, error) {
	tags := []Tag{}
	if err := sqlx.SelectContext(ctx, r.q, &tags, `SELECT `+tagCols+` FROM tags ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

// Update replaces a tag's name and color. Existence is checked with a
// read rather than RowsAffected, which MariaDB reports as zero for an
// update that changes nothing.
func (r *tagRepository) Update(ctx context.Context, tag *Tag) error {
	if _, err := r.FindByID(ctx, tag.ID); err != nil {
		return err
	}

	query := `UPDATE tags SET name = ?, color = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	if _, err := r.q.ExecContext(ctx, query, tag.Name, tag.Color, tag.ID); err != nil {
		return fmt.Errorf("updating tag: %w", err)
	}
	return nil
}

// Delete removes a tag by ID.
func (r *tagRepository) Delete(ctx context.Context, id int) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFound("tag not found")
	}

	return nil
}

// ListForEvents returns tags for multiple events in a single query, keyed by
// event ID. Returns an empty map if no event IDs are provided.
func (r *tagRepository) ListForEvents(ctx context.Context, eventIDs []int) (map[int][]Tag, error) {
	result := make(map[int][]Tag)
	if len(eventIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT et.event_id, t.id, t.name, t.color, t.created_at, t.updated_at
	           FROM tags t
	           INNER JOIN event_tags et ON et.tag_id = t.id
	           WHERE et.event_id IN (?)
	           ORDER BY t.id ASC`, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("building event tags query: %w", err)
	}

	var rows []struct {
		EventID int `db:"event_id"`
		Tag
	}
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("batch getting event tags: %w", err)
	}

	for _, row := range rows {
		result[row.EventID] = append(result[row.EventID], row.Tag)
	}
	return result, nil
}
