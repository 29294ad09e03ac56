package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/starford/notas/internal/account"
	"github.com/starford/notas/internal/auth"
	"github.com/starford/notas/internal/noteservice"
	"github.com/starford/notas/internal/store"
	"github.com/starford/notas/internal/testutil"
)

type testEnv struct {
	router http.Handler
	store  *store.Store
	tokens *auth.TokenService
}

// newTestEnv sets up a temp SQLite store, services and router for testing.
func newTestEnv(t *testing.T, opts ...RouterOption) *testEnv {
	t.Helper()
	st := testutil.TestStore(t)
	tokens := testutil.Tokens(t)
	accounts := account.NewService(st, testutil.Passwords(), tokens)
	notes := noteservice.NewService(st)
	return &testEnv{
		router: NewRouter(accounts, notes, tokens, opts...),
		store:  st,
		tokens: tokens,
	}
}

type response struct {
	code int
	body map[string]any
	raw  string
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	resp := response{code: w.Code, raw: w.Body.String()}
	if err := json.Unmarshal(w.Body.Bytes(), &resp.body); err != nil {
		t.Fatalf("%s %s: response is not JSON: %q", method, path, w.Body.String())
	}
	return resp
}

func (r response) data(t *testing.T) map[string]any {
	t.Helper()
	d, ok := r.body["data"].(map[string]any)
	if !ok {
		t.Fatalf("no data object in %s", r.raw)
	}
	return d
}

func (e *testEnv) register(t *testing.T, email, password string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": email, "password": password})
	if resp.code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", resp.code, resp.raw)
	}
	return resp.data(t)["token"].(string)
}

func (e *testEnv) categoryID(t *testing.T, name string) int64 {
	t.Helper()
	return testutil.CategoryID(t, e.store, name)
}

func (e *testEnv) createNote(t *testing.T, token string, body map[string]any) int64 {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/notes", token, body)
	if resp.code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", resp.code, resp.raw)
	}
	return int64(resp.data(t)["id"].(float64))
}

func notePath(id int64, suffix string) string {
	return "/notes/" + itoa(id) + suffix
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestRegisterThenVerify(t *testing.T) {
	env := newTestEnv(t)

	token := env.register(t, "a@x.io", "Secret123")

	resp := env.do(t, http.MethodGet, "/auth/verify", token, nil)
	if resp.code != http.StatusOK {
		t.Fatalf("verify status = %d, body = %s", resp.code, resp.raw)
	}
	user := resp.data(t)["user"].(map[string]any)
	if user["email"] != "a@x.io" {
		t.Errorf("email = %v", user["email"])
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Error("password hash must not be serialised")
	}

	resp = env.do(t, http.MethodGet, "/auth/me", token, nil)
	if resp.code != http.StatusOK {
		t.Errorf("me status = %d", resp.code)
	}
}

func TestRegisterDuplicateAndValidation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "dup@x.io", "Secret123")

	resp := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "DUP@x.io", "password": "Secret123"})
	if resp.code != http.StatusConflict {
		t.Errorf("duplicate register = %d, want 409", resp.code)
	}
	if resp.body["success"] != false || resp.body["kind"] != "conflict" {
		t.Errorf("unexpected envelope: %s", resp.raw)
	}

	resp = env.do(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "weak@x.io", "password": "weak"})
	if resp.code != http.StatusBadRequest {
		t.Fatalf("weak password = %d, want 400", resp.code)
	}
	if errs, _ := resp.body["errors"].(map[string]any); errs["password"] == nil {
		t.Errorf("expected password field error, got %s", resp.raw)
	}

	resp = env.do(t, http.MethodPost, "/auth/register", "", "{not json")
	if resp.code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", resp.code)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a@x.io", "Secret123")

	resp := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.io", "password": "Secret123"})
	if resp.code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", resp.code, resp.raw)
	}
	if resp.data(t)["token"] == "" {
		t.Error("missing token")
	}

	wrong := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.io", "password": "Wrong1234"})
	unknown := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "b@x.io", "password": "Secret123"})
	if wrong.code != http.StatusUnauthorized || unknown.code != http.StatusUnauthorized {
		t.Fatalf("login failures = %d/%d, want 401/401", wrong.code, unknown.code)
	}
	if wrong.body["message"] != unknown.body["message"] {
		t.Errorf("failure messages differ: %q vs %q", wrong.body["message"], unknown.body["message"])
	}
}

func TestRequiredAuth(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/notes", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestExpiredTokenIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "old@x.io", "Secret123")
	u, err := env.store.UserByEmail(context.Background(), "old@x.io")
	if err != nil {
		t.Fatal(err)
	}

	past, err := auth.NewTokenService(testutil.Secret, time.Hour, auth.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}))
	if err != nil {
		t.Fatal(err)
	}
	tok, err := past.Issue(u.ID)
	if err != nil {
		t.Fatal(err)
	}

	resp := env.do(t, http.MethodGet, "/notes", tok.Value, nil)
	if resp.code != http.StatusForbidden {
		t.Errorf("expired token = %d, want 403", resp.code)
	}
}

func TestNoteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "a@x.io", "Secret123")
	work := env.categoryID(t, "Work")

	id := env.createNote(t, token, map[string]any{"title": "Plan", "body": "ship", "categoryId": work})

	resp := env.do(t, http.MethodGet, notePath(id, ""), token, nil)
	if resp.code != http.StatusOK {
		t.Fatalf("get = %d", resp.code)
	}
	if resp.data(t)["isPublic"] != false {
		t.Errorf("new notes are private by default")
	}

	resp = env.do(t, http.MethodPut, notePath(id, ""), token, map[string]any{"title": "Plan v2", "body": "ship it", "categoryId": work})
	if resp.code != http.StatusOK || resp.data(t)["title"] != "Plan v2" {
		t.Fatalf("update = %d, body = %s", resp.code, resp.raw)
	}

	resp = env.do(t, http.MethodGet, "/notes?category="+itoa(work), token, nil)
	if resp.code != http.StatusOK || resp.data(t)["total"] != float64(1) {
		t.Fatalf("list = %d, body = %s", resp.code, resp.raw)
	}

	resp = env.do(t, http.MethodGet, "/notes?category=abc", token, nil)
	if resp.code != http.StatusBadRequest {
		t.Errorf("bad filter = %d, want 400", resp.code)
	}

	resp = env.do(t, http.MethodDelete, notePath(id, ""), token, nil)
	if resp.code != http.StatusOK || resp.data(t)["title"] != "Plan v2" {
		t.Fatalf("delete = %d, body = %s", resp.code, resp.raw)
	}

	resp = env.do(t, http.MethodGet, notePath(id, ""), token, nil)
	if resp.code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", resp.code)
	}
}

func TestCreateNoteValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "a@x.io", "Secret123")

	resp := env.do(t, http.MethodPost, "/notes", token, map[string]any{"title": "T", "body": "B", "categoryId": 999})
	if resp.code != http.StatusBadRequest {
		t.Fatalf("unknown category = %d, want 400", resp.code)
	}
	if resp.body["message"] != "category does not exist" {
		t.Errorf("message = %v", resp.body["message"])
	}

	resp = env.do(t, http.MethodPost, "/notes", token, map[string]any{"body": "B", "categoryId": 1})
	if resp.code != http.StatusBadRequest {
		t.Errorf("missing title = %d, want 400", resp.code)
	}

	huge := map[string]any{"title": "T", "body": strings.Repeat("x", maxBodyBytes+1), "categoryId": 1}
	resp = env.do(t, http.MethodPost, "/notes", token, huge)
	if resp.code != http.StatusBadRequest {
		t.Errorf("oversized body = %d, want 400", resp.code)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	for _, debug := range []bool{false, true} {
		t.Run("debug="+strconv.FormatBool(debug), func(t *testing.T) {
			env := newTestEnv(t, WithDebugErrors(debug))
			alice := env.register(t, "alice@x.io", "Secret123")
			bob := env.register(t, "bob@x.io", "Secret123")

			id := env.createNote(t, alice, map[string]any{"title": "secret", "body": "b", "categoryId": env.categoryID(t, "Personal")})
			missing := id + 1000

			for _, tc := range []struct {
				method, suffix string
				body           any
			}{
				{http.MethodGet, "", nil},
				{http.MethodPut, "", map[string]any{"title": "x", "body": "y", "categoryId": 1}},
				{http.MethodDelete, "", nil},
				{http.MethodPatch, "/toggle-public", nil},
				{http.MethodPut, "/visibility", map[string]any{"isPublic": true}},
			} {
				foreign := env.do(t, tc.method, notePath(id, tc.suffix), bob, tc.body)
				absent := env.do(t, tc.method, notePath(missing, tc.suffix), bob, tc.body)

				if foreign.code != http.StatusNotFound || absent.code != http.StatusNotFound {
					t.Errorf("%s %s: foreign = %d, missing = %d, want 404", tc.method, tc.suffix, foreign.code, absent.code)
				}
				for _, key := range []string{"success", "kind", "message"} {
					if foreign.body[key] != absent.body[key] {
						t.Errorf("%s %s: %s differs: %v vs %v", tc.method, tc.suffix, key, foreign.body[key], absent.body[key])
					}
				}
				if _, ok := foreign.body["errors"]; ok {
					t.Errorf("%s %s: foreign note response has field errors: %s", tc.method, tc.suffix, foreign.raw)
				}
				if len(foreign.body) != len(absent.body) {
					t.Errorf("%s %s: shapes differ: %s vs %s", tc.method, tc.suffix, foreign.raw, absent.raw)
				}

				// Traces differ only by the requested id.
				ft, _ := foreign.body["trace"].(string)
				at, _ := absent.body["trace"].(string)
				if strings.ReplaceAll(ft, itoa(id), itoa(missing)) != at {
					t.Errorf("%s %s: traces differ: %q vs %q", tc.method, tc.suffix, ft, at)
				}
				if debug != (ft != "") {
					t.Errorf("%s %s: trace = %q with debug=%v", tc.method, tc.suffix, ft, debug)
				}
			}

			resp := env.do(t, http.MethodGet, notePath(id, ""), alice, nil)
			if resp.code != http.StatusOK || resp.data(t)["title"] != "secret" {
				t.Errorf("alice's note changed: %s", resp.raw)
			}
		})
	}
}

func TestPublicNotes(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "a@x.io", "Secret123")
	id := env.createNote(t, token, map[string]any{"title": "pasta", "body": "boil", "categoryId": env.categoryID(t, "Recipes")})

	// private: invisible to everyone, even with a broken token
	for _, tok := range []string{"", "broken.token.value", token} {
		resp := env.do(t, http.MethodGet, "/notes/public/"+itoa(id), tok, nil)
		if resp.code != http.StatusNotFound {
			t.Errorf("private note with token %q = %d, want 404", tok, resp.code)
		}
	}

	resp := env.do(t, http.MethodPatch, notePath(id, "/toggle-public"), token, nil)
	if resp.code != http.StatusOK || resp.data(t)["isPublic"] != true {
		t.Fatalf("toggle = %d, body = %s", resp.code, resp.raw)
	}

	for _, tok := range []string{"", "broken.token.value"} {
		resp := env.do(t, http.MethodGet, "/notes/public/"+itoa(id), tok, nil)
		if resp.code != http.StatusOK {
			t.Fatalf("public note with token %q = %d", tok, resp.code)
		}
		if resp.data(t)["author"] != "a@x.io" {
			t.Errorf("author = %v", resp.data(t)["author"])
		}
	}

	for i := 0; i < 2; i++ {
		resp = env.do(t, http.MethodPut, notePath(id, "/visibility"), token, map[string]any{"isPublic": false})
		if resp.code != http.StatusOK || resp.data(t)["isPublic"] != false {
			t.Fatalf("set visibility = %d, body = %s", resp.code, resp.raw)
		}
	}

	resp = env.do(t, http.MethodPut, notePath(id, "/visibility"), token, map[string]any{})
	if resp.code != http.StatusBadRequest {
		t.Errorf("missing isPublic = %d, want 400", resp.code)
	}
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "a@x.io", "Secret123")
	env.createNote(t, token, map[string]any{"title": "t", "body": "b", "categoryId": env.categoryID(t, "Work")})

	count := func(tok, scope string) float64 {
		resp := env.do(t, http.MethodGet, "/categories", tok, nil)
		if resp.code != http.StatusOK {
			t.Fatalf("categories = %d", resp.code)
		}
		if got := resp.data(t)["countScope"]; got != scope {
			t.Errorf("countScope = %v, want %s", got, scope)
		}
		cats := resp.data(t)["categories"].([]any)
		if len(cats) != 8 {
			t.Fatalf("got %d categories", len(cats))
		}
		for _, c := range cats {
			c := c.(map[string]any)
			if c["name"] == "Work" {
				return c["noteCount"].(float64)
			}
		}
		t.Fatal("Work category missing")
		return 0
	}

	if got := count(token, CountScopeOwn); got != 1 {
		t.Errorf("owner count = %v, want 1", got)
	}
	if got := count("", CountScopePublic); got != 0 {
		t.Errorf("anonymous count = %v, want 0", got)
	}
	if got := count("garbage", CountScopePublic); got != 0 {
		t.Errorf("invalid token count = %v, want 0", got)
	}
}

func TestStrictIdentity(t *testing.T) {
	st := testutil.TestStore(t)
	tokens := testutil.Tokens(t)
	accounts := account.NewService(st, testutil.Passwords(), tokens)
	notes := noteservice.NewService(st)

	lenient := &testEnv{router: NewRouter(accounts, notes, tokens), store: st, tokens: tokens}
	strict := &testEnv{router: NewRouter(accounts, notes, tokens, WithIdentityCheck(accounts)), store: st, tokens: tokens}

	token := lenient.register(t, "gone@x.io", "Secret123")
	if err := accounts.Delete(context.Background(), "gone@x.io"); err != nil {
		t.Fatal(err)
	}

	if resp := lenient.do(t, http.MethodGet, "/notes", token, nil); resp.code != http.StatusOK {
		t.Errorf("lenient list for deleted user = %d, want 200", resp.code)
	}
	if resp := lenient.do(t, http.MethodGet, "/auth/verify", token, nil); resp.code != http.StatusNotFound {
		t.Errorf("verify for deleted user = %d, want 404", resp.code)
	}
	if resp := strict.do(t, http.MethodGet, "/notes", token, nil); resp.code != http.StatusForbidden {
		t.Errorf("strict list for deleted user = %d, want 403", resp.code)
	}
}

func TestDebugTrace(t *testing.T) {
	env := newTestEnv(t, WithDebugErrors(true))
	token := env.register(t, "a@x.io", "Secret123")

	resp := env.do(t, http.MethodGet, "/notes/12345", token, nil)
	if resp.code != http.StatusNotFound {
		t.Fatalf("status = %d", resp.code)
	}
	if trace, _ := resp.body["trace"].(string); !strings.Contains(trace, "get note 12345") {
		t.Errorf("trace = %q", trace)
	}

	quiet := newTestEnv(t)
	token = quiet.register(t, "a@x.io", "Secret123")
	resp = quiet.do(t, http.MethodGet, "/notes/12345", token, nil)
	if _, ok := resp.body["trace"]; ok {
		t.Error("trace must not be present without debug")
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/nope", "", nil)
	if resp.code != http.StatusNotFound || resp.body["success"] != false {
		t.Errorf("unknown route = %d, body = %s", resp.code, resp.raw)
	}

	resp = env.do(t, http.MethodDelete, "/auth/login", "", nil)
	if resp.code != http.StatusMethodNotAllowed || resp.body["success"] != false {
		t.Errorf("wrong method = %d, body = %s", resp.code, resp.raw)
	}
	if kind, ok := resp.body["kind"]; ok {
		t.Errorf("405 must not reuse an error kind, got %v", kind)
	}

	resp = env.do(t, http.MethodGet, "/", "", nil)
	if resp.code != http.StatusOK {
		t.Errorf("index = %d", resp.code)
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, WithCORS([]string{"http://localhost:5173"}))

	req := httptest.NewRequest(http.MethodOptions, "/notes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}
}
