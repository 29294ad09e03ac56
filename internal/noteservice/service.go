// Package noteservice implements the note use-cases. Every owner-scoped
// operation filters by both note id and owner id, so notes that belong to
// someone else are reported exactly like notes that do not exist.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notas/internal/apperr"
	"github.com/starford/notas/internal/models"
	"github.com/starford/notas/internal/store"
)

// NoteInput carries the editable fields of a note. A nil IsPublic means
// private on create and unchanged on update.
type NoteInput struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	CategoryID int64  `json:"categoryId"`
	IsPublic   *bool  `json:"isPublic,omitempty"`
}

// Validate trims the title and checks every field.
func (in *NoteInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	err := validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, 255)),
		validation.Field(&in.Body, validation.Required, validation.By(notBlank)),
		validation.Field(&in.CategoryID, validation.Required, validation.Min(int64(1))),
	)
	return apperr.FromValidation(err)
}

func notBlank(v any) error {
	if s, _ := v.(string); strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

// DeletedNote identifies a note that has just been removed.
type DeletedNote struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Service coordinates note persistence.
type Service struct {
	store *store.Store
}

// NewService creates a new note service.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// List returns the owner's notes, newest first, optionally limited to one category.
func (s *Service) List(ctx context.Context, owner, categoryID int64) ([]models.Note, error) {
	if categoryID < 0 {
		return nil, apperr.Validation("invalid category filter", map[string]string{"category": "must be a positive integer"})
	}
	notes, err := s.store.ListNotes(ctx, owner, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Create stores a new note for owner.
func (s *Service) Create(ctx context.Context, owner int64, in NoteInput) (models.Note, error) {
	if err := in.Validate(); err != nil {
		return models.Note{}, err
	}

	var note models.Note
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		if err := checkCategory(ctx, q, in.CategoryID); err != nil {
			return err
		}
		id, err := q.InsertNote(ctx, models.Note{
			Title:      in.Title,
			Body:       in.Body,
			OwnerID:    owner,
			CategoryID: in.CategoryID,
			IsPublic:   in.IsPublic != nil && *in.IsPublic,
		})
		if err != nil {
			return err
		}
		note, err = q.OwnedNote(ctx, id, owner)
		return err
	})
	if err != nil {
		return models.Note{}, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

// Get returns the note if owner owns it.
func (s *Service) Get(ctx context.Context, owner, id int64) (models.Note, error) {
	note, err := ownedNote(ctx, s.store.Queries, owner, id)
	if err != nil {
		return models.Note{}, fmt.Errorf("get note %d: %w", id, err)
	}
	return note, nil
}

// Update replaces the editable fields of an owned note. Ownership is checked
// before the category so a foreign note never leaks category errors.
func (s *Service) Update(ctx context.Context, owner, id int64, in NoteInput) (models.Note, error) {
	if err := in.Validate(); err != nil {
		return models.Note{}, err
	}

	var note models.Note
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		current, err := ownedNote(ctx, q, owner, id)
		if err != nil {
			return err
		}
		if err := checkCategory(ctx, q, in.CategoryID); err != nil {
			return err
		}

		current.Title = in.Title
		current.Body = in.Body
		current.CategoryID = in.CategoryID
		if in.IsPublic != nil {
			current.IsPublic = *in.IsPublic
		}
		if err := q.UpdateNote(ctx, current); err != nil {
			return err
		}
		note, err = q.OwnedNote(ctx, id, owner)
		return err
	})
	if err != nil {
		return models.Note{}, fmt.Errorf("update note %d: %w", id, err)
	}
	return note, nil
}

// Delete removes an owned note.
func (s *Service) Delete(ctx context.Context, owner, id int64) (DeletedNote, error) {
	var deleted DeletedNote
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		current, err := ownedNote(ctx, q, owner, id)
		if err != nil {
			return err
		}
		if err := q.DeleteNote(ctx, id, owner); err != nil {
			return err
		}
		deleted = DeletedNote{ID: current.ID, Title: current.Title}
		return nil
	})
	if err != nil {
		return DeletedNote{}, fmt.Errorf("delete note %d: %w", id, err)
	}
	return deleted, nil
}

// ToggleVisibility flips the public flag of an owned note.
func (s *Service) ToggleVisibility(ctx context.Context, owner, id int64) (models.Note, error) {
	return s.setVisibility(ctx, owner, id, func(current bool) bool { return !current })
}

// SetVisibility sets the public flag of an owned note to public. Repeating
// the call leaves the note unchanged.
func (s *Service) SetVisibility(ctx context.Context, owner, id int64, public bool) (models.Note, error) {
	return s.setVisibility(ctx, owner, id, func(bool) bool { return public })
}

func (s *Service) setVisibility(ctx context.Context, owner, id int64, next func(bool) bool) (models.Note, error) {
	var note models.Note
	err := s.store.InTx(ctx, func(q *store.Queries) error {
		current, err := ownedNote(ctx, q, owner, id)
		if err != nil {
			return err
		}
		if err := q.SetNoteVisibility(ctx, id, owner, next(current.IsPublic)); err != nil {
			return err
		}
		note, err = q.OwnedNote(ctx, id, owner)
		return err
	})
	if err != nil {
		return models.Note{}, fmt.Errorf("set visibility of note %d: %w", id, err)
	}
	return note, nil
}

// GetPublic returns a note to any caller, authenticated or not, as long as
// the note is public.
func (s *Service) GetPublic(ctx context.Context, id int64) (models.PublicNote, error) {
	if id <= 0 {
		return models.PublicNote{}, apperr.NotFound("public note")
	}
	note, err := s.store.PublicNote(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.PublicNote{}, apperr.NotFound("public note")
	}
	if err != nil {
		return models.PublicNote{}, fmt.Errorf("get public note %d: %w", id, err)
	}
	return note, nil
}

// Categories lists all categories. Counts cover the viewer's notes, or
// public notes when viewer is zero.
func (s *Service) Categories(ctx context.Context, viewer int64) ([]models.Category, error) {
	cats, err := s.store.ListCategories(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func ownedNote(ctx context.Context, q *store.Queries, owner, id int64) (models.Note, error) {
	if id <= 0 {
		return models.Note{}, apperr.NotFound("note")
	}
	note, err := q.OwnedNote(ctx, id, owner)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Note{}, apperr.NotFound("note")
	}
	return note, err
}

func checkCategory(ctx context.Context, q *store.Queries, id int64) error {
	ok, err := q.CategoryExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("category does not exist", map[string]string{"categoryId": "category does not exist"})
	}
	return nil
}
