package tags

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/eventgo/eventgo/internal/associations"
	"github.com/eventgo/eventgo/internal/cache"
	"github.com/eventgo/eventgo/internal/database"
	"github.com/eventgo/eventgo/internal/sanitize"
	"github.com/eventgo/eventgo/internal/validation"
)

// TagService defines the business logic contract for tag operations.
// Handlers call these methods -- they never touch the repository directly.
type TagService interface {
	// Create validates input and creates a new tag.
	Create(ctx context.Context, input TagInput) (*TagWithEvents, error)

	// GetByID retrieves a single tag with the events it is attached to.
	GetByID(ctx context.Context, id int) (*TagWithEvents, error)

	// List returns every tag with its events, ordered by ID.
	List(ctx context.Context) ([]TagWithEvents, error)

	// Update validates input and replaces an existing tag's fields.
	Update(ctx context.Context, id int, input TagInput) (*TagWithEvents, error)

	// Delete removes a tag and its event associations. Events are kept.
	Delete(ctx context.Context, id int) error
}

// tagService implements TagService.
type tagService struct {
	db        *sqlx.DB
	repo      TagRepository
	assoc     associations.Manager
	cache     cache.Cache
	validator *validation.Validator
}

// NewTagService creates a new TagService. Mutations bust c because event
// listings embed tags.
func NewTagService(db *sqlx.DB, repo TagRepository, assoc associations.Manager, c cache.Cache, v *validation.Validator) TagService {
	return &tagService{db: db, repo: repo, assoc: assoc, cache: c, validator: v}
}

// normalize strips markup from the text fields and validates the result.
func (s *tagService) normalize(input TagInput) (TagInput, error) {
	input.Name = sanitize.Text(input.Name)
	input.Color = sanitize.Text(input.Color)
	if err := s.validator.Validate(input); err != nil {
		return input, err
	}
	return input, nil
}

// Create sanitizes and validates the input, then persists the new tag. A
// fresh tag is attached to no events.
func (s *tagService) Create(ctx context.Context, input TagInput) (*TagWithEvents, error) {
	input, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	var created *Tag
	err = database.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		tag := &Tag{Name: input.Name, Color: input.Color}
		if err := repo.Create(ctx, tag); err != nil {
			return err
		}
		// Re-read for the store-assigned timestamps.
		found, err := repo.FindByID(ctx, tag.ID)
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
	return &TagWithEvents{Tag: *created, Events: []associations.EventRef{}}, nil
}

// GetByID retrieves a single tag by its primary key.
func (s *tagService) GetByID(ctx context.Context, id int) (*TagWithEvents, error) {
	tag, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := s.withEvents(ctx, s.assoc, []Tag{*tag})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// List returns all tags.
func (s *tagService) List(ctx context.Context) ([]TagWithEvents, error) {
	tags, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.withEvents(ctx, s.assoc, tags)
}

// Update replaces the tag's name and color. Its event associations are not
// touched: they belong to the events.
func (s *tagService) Update(ctx context.Context, id int, input TagInput) (*TagWithEvents, error) {
	input, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	var out []TagWithEvents
	err = database.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, &Tag{ID: id, Name: input.Name, Color: input.Color}); err != nil {
			return err
		}
		updated, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		out, err = s.withEvents(ctx, s.assoc.WithTx(tx), []Tag{*updated})
		return err
	})
	if err != nil {
		return nil, err
	}

	cache.Bust(ctx, s.cache)
	return &out[0], nil
}

// Delete removes the tag's join rows and then the tag in one transaction.
func (s *tagService) Delete(ctx context.Context, id int) error {
	err := database.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return err
		}
		if err := s.assoc.WithTx(tx).CascadeDeleteForRelated(ctx, associations.KindTags, id); err != nil {
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

// withEvents attaches each tag's events. Every tag gets a non-nil slice.
func (s *tagService) withEvents(ctx context.Context, assoc associations.Manager, tags []Tag) ([]TagWithEvents, error) {
	ids := make([]int, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}

	events, err := assoc.EventsFor(ctx, associations.KindTags, ids)
	if err != nil {
		return nil, err
	}

	out := make([]TagWithEvents, len(tags))
	for i, t := range tags {
		refs := events[t.ID]
		if refs == nil {
			refs = []associations.EventRef{}
		}
		out[i] = TagWithEvents{Tag: t, Events: refs}
	}
	return out, nil
}
