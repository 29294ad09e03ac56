// Package account registers identities, checks credentials and issues tokens.
package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/notas/internal/apperr"
	"github.com/starford/notas/internal/auth"
	"github.com/starford/notas/internal/models"
	"github.com/starford/notas/internal/store"
)

var (
	hasLower = regexp.MustCompile(`[a-z]`)
	hasUpper = regexp.MustCompile(`[A-Z]`)
	hasDigit = regexp.MustCompile(`[0-9]`)
)

// Credentials is an email/password pair as submitted by a client.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) validateRegistration() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, validation.Length(5, 255), is.EmailFormat),
		validation.Field(&c.Password,
			validation.Required,
			validation.Length(6, 0),
			validation.Match(hasLower).Error("must contain a lowercase letter"),
			validation.Match(hasUpper).Error("must contain an uppercase letter"),
			validation.Match(hasDigit).Error("must contain a digit"),
		),
	)
}

func (c Credentials) validateLogin() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.EmailFormat),
		validation.Field(&c.Password, validation.Required),
	)
}

// Session is returned after a successful registration or login.
type Session struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Service implements the account use-cases.
type Service struct {
	store     *store.Store
	passwords *auth.Passwords
	tokens    *auth.TokenService
}

// NewService creates a new account service.
func NewService(st *store.Store, passwords *auth.Passwords, tokens *auth.TokenService) *Service {
	return &Service{store: st, passwords: passwords, tokens: tokens}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an identity and signs it in.
func (s *Service) Register(ctx context.Context, in Credentials) (Session, error) {
	user, err := s.Create(ctx, in)
	if err != nil {
		return Session{}, err
	}
	return s.session(user)
}

// Create validates and stores a new identity without issuing a token.
func (s *Service) Create(ctx context.Context, in Credentials) (models.User, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := in.validateRegistration(); err != nil {
		return models.User{}, apperr.FromValidation(err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return models.User{}, apperr.Internal(err)
	}

	user, err := s.store.CreateUser(ctx, in.Email, hash)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		return models.User{}, apperr.Conflict("email")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("register %s: %w", in.Email, err)
	}
	return user, nil
}

// Login checks an email/password pair. Unknown emails and wrong passwords
// produce the same error.
func (s *Service) Login(ctx context.Context, in Credentials) (Session, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := in.validateLogin(); err != nil {
		return Session{}, apperr.FromValidation(err)
	}

	user, err := s.store.UserByEmail(ctx, in.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		s.passwords.VerifyDummy(in.Password)
		return Session{}, apperr.RejectedCredential()
	}
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return Session{}, apperr.RejectedCredential()
		}
		return Session{}, apperr.Internal(err)
	}

	return s.session(user)
}

// Verify re-reads the identity behind a validated token.
func (s *Service) Verify(ctx context.Context, userID int64) (models.User, error) {
	user, err := s.store.UserByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.User{}, apperr.NotFound("user")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("verify user %d: %w", userID, err)
	}
	return user, nil
}

// Exists reports whether userID still refers to a stored identity.
func (s *Service) Exists(ctx context.Context, userID int64) (bool, error) {
	return s.store.UserExists(ctx, userID)
}

// Delete removes the identity registered under email along with its notes.
func (s *Service) Delete(ctx context.Context, email string) error {
	err := s.store.DeleteUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.NotFound("user")
	}
	return err
}

func (s *Service) session(user models.User) (Session, error) {
	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	return Session{User: user, Token: tok.Value, ExpiresAt: tok.ExpiresAt}, nil
}
