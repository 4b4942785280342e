package participants

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/eventgo/eventgo/internal/associations"
	"github.com/eventgo/eventgo/internal/cache"
	"github.com/eventgo/eventgo/internal/database"
	"github.com/eventgo/eventgo/internal/sanitize"
	"github.com/eventgo/eventgo/internal/validation"
)

// ParticipantService defines the business logic contract for participants.
type ParticipantService interface {
	Create(ctx context.Context, input ParticipantInput) (*ParticipantWithEvents, error)
	GetByID(ctx context.Context, id int) (*ParticipantWithEvents, error)
	List(ctx context.Context) ([]ParticipantWithEvents, error)
	Update(ctx context.Context, id int, input ParticipantInput) (*ParticipantWithEvents, error)

	// Delete removes a participant and their event associations. The events
	// themselves are kept.
	Delete(ctx context.Context, id int) error
}

type participantService struct {
	db        *sqlx.DB
	repo      ParticipantRepository
	assoc     associations.Manager
	cache     cache.Cache
	validator *validation.Validator
}

// NewParticipantService creates a new ParticipantService.
func NewParticipantService(db *sqlx.DB, repo ParticipantRepository, assoc associations.Manager, c cache.Cache, v *validation.Validator) ParticipantService {
	return &participantService{db: db, repo: repo, assoc: assoc, cache: c, validator: v}
}

func (s *participantService) normalize(input ParticipantInput) (ParticipantInput, error) {
	input.Name = sanitize.Text(input.Name)
	return input, s.validator.Validate(input)
}

func (s *participantService) Create(ctx context.Context, input ParticipantInput) (*ParticipantWithEvents, error) {
	input, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	var created *Participant
	err = database.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		p := &Participant{Name: input.Name, Age: *input.Age}
		if err := repo.Create(ctx, p); err != nil {
			return err
		}
		found, err := repo.FindByID(ctx, p.ID)
		if err != nil {
			return err
		}
		created = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.Bust(ctx, s.cache)
	return &ParticipantWithEvents{Participant: *created, Events: []associations.EventRef{}}, nil
}

func (s *participantService) GetByID(ctx context.Context, id int) (*ParticipantWithEvents, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := s.withEvents(ctx, s.assoc, []Participant{*p})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *participantService) List(ctx context.Context) ([]ParticipantWithEvents, error) {
	ps, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.withEvents(ctx, s.assoc, ps)
}

func (s *participantService) Update(ctx context.Context, id int, input ParticipantInput) (*ParticipantWithEvents, error) {
	input, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	var out []ParticipantWithEvents
	err = database.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, &Participant{ID: id, Name: input.Name, Age: *input.Age}); err != nil {
			return err
		}
		updated, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		out, err = s.withEvents(ctx, s.assoc.WithTx(tx), []Participant{*updated})
		return err
	})
	if err != nil {
		return nil, err
	}

	cache.Bust(ctx, s.cache)
	return &out[0], nil
}

func (s *participantService) Delete(ctx context.Context, id int) error {
	err := database.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return err
		}
		if err := s.assoc.WithTx(tx).CascadeDeleteForRelated(ctx, associations.KindParticipants, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	cache.Bust(ctx, s.cache)
	return nil
}

func (s *participantService) withEvents(ctx context.Context, assoc associations.Manager, ps []Participant) ([]ParticipantWithEvents, error) {
	ids := make([]int, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}

	events, err := assoc.EventsFor(ctx, associations.KindParticipants, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ParticipantWithEvents, len(ps))
	for i, p := range ps {
		refs := events[p.ID]
		if refs == nil {
			refs = []associations.EventRef{}
		}
		out[i] = ParticipantWithEvents{Participant: p, Events: refs}
	}
	return out, nil
}
