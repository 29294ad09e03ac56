// Package models defines the domain types for notas.
package models

import "time"

// User is a registered identity. Email is stored trimmed and lowercased.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Note is a titled body of text owned by exactly one user.
type Note struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	OwnerID    int64     `json:"userId"`
	CategoryID int64     `json:"categoryId"`
	Category   string    `json:"category"`
	IsPublic   bool      `json:"isPublic"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PublicNote is the anonymous view of a public note. It names the author by
// email and omits the owner id.
type PublicNote struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CategoryID int64     `json:"categoryId"`
	Category   string    `json:"category"`
	Author     string    `json:"author"`
	IsPublic   bool      `json:"isPublic"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Category groups notes. The set is seeded by migrations. NoteCount is
// relative to the viewer: their own notes, or public notes for anonymous
// callers.
type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	NoteCount int    `json:"noteCount"`
}
