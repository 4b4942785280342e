package participants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventgo/eventgo/internal/apperror"
)

// ParticipantRepository defines the data access contract for participants.
type ParticipantRepository interface {
	Create(ctx context.Context, p *Participant) error
	FindByID(ctx context.Context, id int) (*Participant, error)
	List(ctx context.Context) ([]Participant, error)
	Update(ctx context.Context, p *Participant) error
	Delete(ctx context.Context, id int) error

	// ListForEvents returns participants of several events keyed by event ID,
	// each list ordered by participant ID.
	ListForEvents(ctx context.Context, eventIDs []int) (map[int][]Participant, error)

	WithTx(tx *sqlx.Tx) ParticipantRepository
}

type participantRepository struct {
	q sqlx.ExtContext
}

// NewParticipantRepository creates a ParticipantRepository on the given pool.
func NewParticipantRepository(db *sqlx.DB) ParticipantRepository {
	return &participantRepository{q: db}
}

func (r *participantRepository) WithTx(tx *sqlx.Tx) ParticipantRepository {
	return &participantRepository{q: tx}
}

const participantCols = `id, name, age, created_at, updated_at`

func (r *participantRepository) Create(ctx context.Context, p *Participant) error {
	result, err := r.q.ExecContext(ctx, `INSERT INTO participants (name, age) VALUES (?, ?)`, p.Name, p.Age)
	if err != nil {
		return fmt.Errorf("inserting participant: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	p.ID = int(id)
	return nil
}

func (r *participantRepository) FindByID(ctx context.Context, id int) (*Participant, error) {
	var p Participant
	err := sqlx.GetContext(ctx, r.q, &p, `SELECT `+participantCols+` FROM participants WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("participant not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying participant by id: %w", err)
	}
	return &p, nil
}

func (r *participantRepository) List(ctx context.Context) ([]Participant, error) {
	out := []Participant{}
	if err := sqlx.SelectContext(ctx, r.q, &out, `SELECT `+participantCols+` FROM participants ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	return out, nil
}

func (r *participantRepository) Update(ctx context.Context, p *Participant) error {
	if _, err := r.FindByID(ctx, p.ID); err != nil {
		return err
	}

	query := `UPDATE participants SET name = ?, age = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	if _, err := r.q.ExecContext(ctx, query, p.Name, p.Age, p.ID); err != nil {
		return fmt.Errorf("updating participant: %w", err)
	}
	return nil
}

func (r *participantRepository) Delete(ctx context.Context, id int) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM participants WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting participant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFound("participant not found")
	}
	return nil
}

func (r *participantRepository) ListForEvents(ctx context.Context, eventIDs []int) (map[int][]Participant, error) {
	result := make(map[int][]Participant)
	if len(eventIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT ep.event_id, p.id, p.name, p.age, p.created_at, p.updated_at
	           FROM participants p
	           INNER JOIN event_participants ep ON ep.participant_id = p.id
	           WHERE ep.event_id IN (?)
	           ORDER BY p.id ASC`, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("building event participants query: %w", err)
	}

	var rows []struct {
		EventID int `db:"event_id"`
		Participant
	}
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("batch getting event participants: %w", err)
	}

	for _, row := range rows {
		result[row.EventID] = append(result[row.EventID], row.Participant)
	}
	return result, nil
}
