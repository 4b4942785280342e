package events

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventgo/eventgo/internal/apperror"
	"github.com/eventgo/eventgo/internal/associations"
	"github.com/eventgo/eventgo/internal/cache"
	"github.com/eventgo/eventgo/internal/civil"
	"github.com/eventgo/eventgo/internal/database"
	"github.com/eventgo/eventgo/internal/plugins/participants"
	"github.com/eventgo/eventgo/internal/plugins/tags"
	"github.com/eventgo/eventgo/internal/sanitize"
	"github.com/eventgo/eventgo/internal/validation"
)

// Cache keys for event listings.
const (
	cacheKeyAll   = "events:all"
	cacheKeyByTag = "events:tag:%d"
)

// EventService defines the business logic contract for events. Every
// returned Event carries its tags and participants.
type EventService interface {
	// Create validates input, inserts the event and links the requested
	// tags and participants in one transaction.
	Create(ctx context.Context, input EventInput) (*Event, error)

	// List returns events matching filter, ordered by ID. Never nil.
	List(ctx context.Context, filter ListFilter) ([]Event, error)

	// GetByID returns a single event.
	GetByID(ctx context.Context, id int) (*Event, error)

	// Update replaces the event's fields and both related sets in one
	// transaction.
	Update(ctx context.Context, id int, input EventInput) (*Event, error)

	// Delete removes the event and its join rows in one transaction.
	Delete(ctx context.Context, id int) error
}

type eventService struct {
	db           *sqlx.DB
	repo         EventRepository
	tags         tags.TagRepository
	participants participants.ParticipantRepository
	assoc        associations.Manager
	cache        cache.Cache
	validator    *validation.Validator
}

// NewEventService creates a new EventService. The tag and participant
// repositories are used only to load related sets for enrichment.
func NewEventService(
	db *sqlx.DB,
	repo EventRepository,
	tagRepo tags.TagRepository,
	participantRepo participants.ParticipantRepository,
	assoc associations.Manager,
	c cache.Cache,
	v *validation.Validator,
) EventService {
	return &eventService{
		db:           db,
		repo:         repo,
		tags:         tagRepo,
		participants: participantRepo,
		assoc:        assoc,
		cache:        c,
		validator:    v,
	}
}

// normalize strips markup from the text fields, validates the input and
// returns the row to write.
func (s *eventService) normalize(input EventInput) (*Event, EventInput, error) {
	input.Name = sanitize.Text(input.Name)
	input.Date = sanitize.Text(input.Date)
	input.Duration = sanitize.Text(input.Duration)
	input.Description = sanitize.Text(input.Description)
	input.Place = sanitize.Text(input.Place)

	if err := s.validator.Validate(input); err != nil {
		return nil, input, err
	}

	date, err := civil.ParseDate(input.Date)
	if err != nil {
		return nil, input, apperror.NewValidation("date must be a valid date in " + civil.Layout + " format")
	}

	return &Event{
		Name:        input.Name,
		Date:        date,
		Duration:    input.Duration,
		Description: input.Description,
		Place:       input.Place,
	}, input, nil
}

func (s *eventService) Create(ctx context.Context, input EventInput) (*Event, error) {
	evt, input, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	var created *Event
	err = database.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.repo.WithTx(tx).Create(ctx, evt); err != nil {
			return err
		}
		saved, err := s.saveRelations(ctx, tx, evt.ID, input)
		if err != nil {
			return err
		}
		created = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.Bust(ctx, s.cache)
	return created, nil
}

func (s *eventService) Update(ctx context.Context, id int, input EventInput) (*Event, error) {
	evt, input, err := s.normalize(input)
	if err != nil {
		return nil, err
	}
	evt.ID = id

	var updated *Event
	err = database.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.repo.WithTx(tx).Update(ctx, evt); err != nil {
			return err
		}
		saved, err := s.saveRelations(ctx, tx, id, input)
		if err != nil {
			return err
		}
		updated = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.Bust(ctx, s.cache)
	return updated, nil
}

// saveRelations reconciles both related sets of a freshly written event and
// reads it back enriched, all on tx.
func (s *eventService) saveRelations(ctx context.Context, tx *sqlx.Tx, eventID int, input EventInput) (*Event, error) {
	assoc := s.assoc.WithTx(tx)
	if err := assoc.Reconcile(ctx, eventID, associations.KindTags, input.TagIDs); err != nil {
		return nil, err
	}
	if err := assoc.Reconcile(ctx, eventID, associations.KindParticipants, input.ParticipantIDs); err != nil {
		return nil, err
	}

	evt, err := s.repo.WithTx(tx).FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	out := []Event{*evt}
	if err := s.enrich(ctx, s.tags.WithTx(tx), s.participants.WithTx(tx), out); err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *eventService) List(ctx context.Context, filter ListFilter) ([]Event, error) {
	key := cacheKeyAll
	if filter.TagID != nil {
		key = fmt.Sprintf(cacheKeyByTag, *filter.TagID)
	}

	var cached []Event
	gen, hit := cache.Lookup(ctx, s.cache, key, &cached)
	if hit {
		return cached, nil
	}

	var (
		list []Event
		err  error
	)
	if filter.TagID != nil {
		list, err = s.repo.ListByTag(ctx, *filter.TagID)
	} else {
		list, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	if err := s.enrich(ctx, s.tags, s.participants, list); err != nil {
		return nil, err
	}

	cache.Store(ctx, s.cache, gen, key, list)
	return list, nil
}

func (s *eventService) GetByID(ctx context.Context, id int) (*Event, error) {
	evt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out := []Event{*evt}
	if err := s.enrich(ctx, s.tags, s.participants, out); err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *eventService) Delete(ctx context.Context, id int) error {
	err := database.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return err
		}
		if err := s.assoc.WithTx(tx).CascadeDeleteForEvent(ctx, id); err != nil {
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

// enrich loads tags and participants for every event in list with one
// query per kind and sets them in place. Events without links get empty,
// non-nil slices.
func (s *eventService) enrich(ctx context.Context, tagRepo tags.TagRepository, participantRepo participants.ParticipantRepository, list []Event) error {
	if len(list) == 0 {
		return nil
	}

	ids := make([]int, len(list))
	for i, evt := range list {
		ids[i] = evt.ID
	}

	tagsByEvent, err := tagRepo.ListForEvents(ctx, ids)
	if err != nil {
		return err
	}
	participantsByEvent, err := participantRepo.ListForEvents(ctx, ids)
	if err != nil {
		return err
	}

	for i := range list {
		list[i].Tags = tagsByEvent[list[i].ID]
		if list[i].Tags == nil {
			list[i].Tags = []tags.Tag{}
		}
		list[i].Participants = participantsByEvent[list[i].ID]
		if list[i].Participants == nil {
			list[i].Participants = []participants.Participant{}
		}
	}
	return nil
}
