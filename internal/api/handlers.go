package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notas/internal/account"
	"github.com/starford/notas/internal/apperr"
	"github.com/starford/notas/internal/auth"
	"github.com/starford/notas/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	accounts *account.Service
	notes    *noteservice.Service
	debug    bool
}

// NewHandler creates a new Handler. debug adds error chains to failures.
func NewHandler(accounts *account.Service, notes *noteservice.Service, debug bool) *Handler {
	return &Handler{accounts: accounts, notes: notes, debug: debug}
}

// handlerFunc is an http.HandlerFunc that reports failures instead of writing them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (h *Handler) wrap(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			writeError(w, r, err, h.debug)
		}
	}
}

func currentUser(r *http.Request) (int64, error) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		return 0, apperr.MissingCredential()
	}
	return id, nil
}

func noteID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid note id", map[string]string{"id": "must be a positive integer"})
	}
	return id, nil
}

var endpoints = []Endpoint{
	{http.MethodPost, "/api/auth/register", "none"},
	{http.MethodPost, "/api/auth/login", "none"},
	{http.MethodGet, "/api/auth/verify", "required"},
	{http.MethodGet, "/api/categories", "optional"},
	{http.MethodGet, "/api/notes", "required"},
	{http.MethodPost, "/api/notes", "required"},
	{http.MethodGet, "/api/notes/public/{id}", "optional"},
	{http.MethodGet, "/api/notes/{id}", "required"},
	{http.MethodPut, "/api/notes/{id}", "required"},
	{http.MethodDelete, "/api/notes/{id}", "required"},
	{http.MethodPatch, "/api/notes/{id}/toggle-public", "required"},
	{http.MethodPut, "/api/notes/{id}/visibility", "required"},
}

// Index handles GET /api.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, "notas API", endpoints)
}

// Register handles POST /api/auth/register.
//
//	@Summary		Register a new user
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CredentialsRequest	true	"Email and password"
//	@Success		201		{object}	SessionResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) error {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	sess, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		return err
	}
	writeData(w, http.StatusCreated, "user registered", sess)
	return nil
}

// Login handles POST /api/auth/login.
//
//	@Summary		Exchange credentials for a token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CredentialsRequest	true	"Email and password"
//	@Success		200		{object}	SessionResponse
//	@Failure		401		{object}	errResponse
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	sess, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, "login successful", sess)
	return nil
}

// Verify handles GET /api/auth/verify and /api/auth/me.
//
//	@Summary		Check a token and return its user
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	UserResponse
//	@Failure		401	{object}	errResponse
//	@Failure		403	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/auth/verify [get]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) error {
	userID, err := currentUser(r)
	if err != nil {
		return err
	}
	user, err := h.accounts.Verify(r.Context(), userID)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, "token valid", UserResponse{User: user})
	return nil
}

// Categories handles GET /api/categories. Counts cover the caller's own
// notes, or public notes for anonymous callers.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) error {
	viewer, ok := auth.UserID(r.Context())
	cats, err := h.notes.Categories(r.Context(), viewer)
	if err != nil {
		return err
	}
	scope := CountScopePublic
	if ok {
		scope = CountScopeOwn
	}
	writeData(w, http.StatusOK, "", CategoryListResponse{Categories: cats, CountScope: scope})
	return nil
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List the caller's notes
//	@Tags			notes
//	@Produce		json
//	@Param			category	query		int	false	"Filter by category id"
//	@Success		200			{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) error {
	owner, err := currentUser(r)
	if err != nil {
		return err
	}

	var categoryID int64
	if raw := r.URL.Query().Get("category"); raw != "" {
		categoryID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || categoryID <= 0 {
			return apperr.Validation("invalid category filter", map[string]string{"category": "must be a positive integer"})
		}
	}

	notes, err := h.notes.List(r.Context(), owner, categoryID)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, "", NoteListResponse{Notes: notes, Total: len(notes)})
	return nil
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NoteRequest	true	"Note to create"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) error {
	owner, err := currentUser(r)
	if err != nil {
		return err
	}
	var req NoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	note, err := h.notes.Create(r.Context(), owner, req)
	if err != nil {
		return err
	}
	writeData(w, http.StatusCreated, "note created", note)
	return nil
}

// GetNote handles GET /api/notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) error {
	owner, err := currentUser(r)
	if err != nil {
		return err
	}
	id, err := noteID(r)
	if err != nil {
		return err
	}
	note, err := h.notes.Get(r.Context(), owner, id)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, "", note)
	return nil
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Replace a note's fields
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int			true	"Note id"
//	@Param			body	body		NoteRequest	true	"New fields; omit isPublic to keep it"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) error {
	owner, err := currentUser(r)
	if err != nil {
		return err
	}
	id, err := noteID(r)
	if err != nil {
		return err
	}
	var req NoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	note, err := h.notes.Update(r.Context(), owner, id, req)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, "note updated", note)
	return nil
}

// DeleteNote handles DELETE /api/notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) error {
	owner, err := currentUser(r)
	if err != nil {
		return err
	}
	id, err := noteID(r)
	if err != nil {
		return err
	}
	deleted, err := h.notes.Delete(r.Context(), owner, id)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, "note deleted", deleted)
	return nil
}

// ToggleVisibility handles PATCH /api/notes/{id}/toggle-public.
func (h *Handler) ToggleVisibility(w http.ResponseWriter, r *http.Request) error {
	owner, err := currentUser(r)
	if err != nil {
		return err
	}
	id, err := noteID(r)
	if err != nil {
		return err
	}
	note, err := h.notes.ToggleVisibility(r.Context(), owner, id)
	if err != nil {
		return err
	}
	msg := "note is now private"
	if note.IsPublic {
		msg = "note is now public"
	}
	writeData(w, http.StatusOK, msg, note)
	return nil
}

// SetVisibility handles PUT /api/notes/{id}/visibility.
func (h *Handler) SetVisibility(w http.ResponseWriter, r *http.Request) error {
	owner, err := currentUser(r)
	if err != nil {
		return err
	}
	id, err := noteID(r)
	if err != nil {
		return err
	}
	var req VisibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if req.IsPublic == nil {
		return apperr.Validation("isPublic: cannot be blank", map[string]string{"isPublic": "cannot be blank"})
	}
	note, err := h.notes.SetVisibility(r.Context(), owner, id, *req.IsPublic)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, "visibility updated", note)
	return nil
}

// GetPublicNote handles GET /api/notes/public/{id}. The caller's identity,
// if any, plays no part in the decision.
//
//	@Summary		Read a public note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	models.PublicNote
//	@Failure		404	{object}	errResponse
//	@Router			/notes/public/{id} [get]
func (h *Handler) GetPublicNote(w http.ResponseWriter, r *http.Request) error {
	id, err := noteID(r)
	if err != nil {
		return err
	}
	note, err := h.notes.GetPublic(r.Context(), id)
	if err != nil {
		return err
	}
	writeData(w, http.StatusOK, "", note)
	return nil
}
