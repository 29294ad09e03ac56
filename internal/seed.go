package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/notas/internal/account"
	"github.com/starford/notas/internal/apperr"
	"github.com/starford/notas/internal/models"
	"github.com/starford/notas/internal/noteservice"
)

// Demo credentials used by the seed command when none are given.
const (
	DefaultSeedEmail    = "test@notas.com"
	DefaultSeedPassword = "Test123456"
)

type sampleNote struct {
	title    string
	body     string
	category string
	public   bool
}

var sampleNotes = []sampleNote{
	{
		title:    "My First Note",
		body:     "This is my first note in the app. It works great!",
		category: "Personal",
	},
	{
		title:    "Project Task List",
		body:     "Pending tasks:\n- Implement authentication\n- Build notes CRUD\n- Add categories\n- Implement public notes",
		category: "Work",
	},
	{
		title: "Pasta Carbonara Recipe",
		body: "Ingredients:\n- 400g spaghetti\n- 200g pancetta\n- 4 egg yolks\n- 100g parmesan\n- Black pepper\n\n" +
			"Steps:\n1. Cook pasta al dente\n2. Fry pancetta\n3. Mix yolks with cheese\n4. Combine everything",
		category: "Recipes",
		public:   true,
	},
	{
		title:    "Ideas to Improve the App",
		body:     "Future features:\n- Note search\n- Export to PDF\n- Dark mode\n- Extra tags\n- Recycle bin",
		category: "Ideas",
	},
}

// SeedResult describes what Seed stored.
type SeedResult struct {
	User    models.User
	Notes   int
	Skipped bool
}

// seedDemo creates the demo user with the sample notes. An existing user is
// left untouched.
func seedDemo(ctx context.Context, svc *services, email, password string, logger *slog.Logger) (SeedResult, error) {
	user, err := svc.accounts.Create(ctx, account.Credentials{Email: email, Password: password})
	var conflict *apperr.ConflictError
	if errors.As(err, &conflict) {
		existing, err := svc.store.UserByEmail(ctx, account.NormalizeEmail(email))
		if err != nil {
			return SeedResult{}, fmt.Errorf("seed: look up %s: %w", email, err)
		}
		logger.Info("seed user already exists, skipping notes", slog.String("email", existing.Email))
		return SeedResult{User: existing, Skipped: true}, nil
	}
	if err != nil {
		return SeedResult{}, fmt.Errorf("seed: create user: %w", err)
	}

	res := SeedResult{User: user}
	for _, sample := range sampleNotes {
		cat, err := svc.store.CategoryByName(ctx, sample.category)
		if err != nil {
			return res, fmt.Errorf("seed: category %q: %w", sample.category, err)
		}
		public := sample.public
		if _, err := svc.notes.Create(ctx, user.ID, noteservice.NoteInput{
			Title:      sample.title,
			Body:       sample.body,
			CategoryID: cat.ID,
			IsPublic:   &public,
		}); err != nil {
			return res, fmt.Errorf("seed: note %q: %w", sample.title, err)
		}
		res.Notes++
	}

	logger.Info("seed complete",
		slog.String("email", user.Email),
		slog.Int("notes", res.Notes))
	return res, nil
}
