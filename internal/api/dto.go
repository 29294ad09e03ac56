package api

import (
	"github.com/starford/notas/internal/account"
	"github.com/starford/notas/internal/models"
	"github.com/starford/notas/internal/noteservice"
)

// CredentialsRequest is the request body for register and login.
type CredentialsRequest = account.Credentials

// NoteRequest is the request body for creating or replacing a note.
type NoteRequest = noteservice.NoteInput

// VisibilityRequest is the request body for PUT /notes/{id}/visibility.
type VisibilityRequest struct {
	IsPublic *bool `json:"isPublic" example:"true"`
}

// SessionResponse is returned by register and login.
type SessionResponse = account.Session

// UserResponse is returned by verify.
type UserResponse struct {
	User models.User `json:"user"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
	Total int           `json:"total" example:"4"`
}

// Count scopes reported with category listings.
const (
	CountScopeOwn    = "own"
	CountScopePublic = "public"
)

// CategoryListResponse wraps category listings. CountScope tells which notes
// the noteCount values cover.
type CategoryListResponse struct {
	Categories []models.Category `json:"categories"`
	CountScope string            `json:"countScope"`
}

// Endpoint describes one route in the index.
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Auth   string `json:"auth"`
}
