package users

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpapi "github.com/adminboard/go-admin-backend/internal/api/http"
	"github.com/adminboard/go-admin-backend/internal/auth"
)

type fakeStore struct {
	users     []User
	byID      map[string]*User
	listCalls int
	created   []NewUser
	createErr error
	updated   map[string]Patch
	deleted   []string
}

func newFakeStore(users ...User) *fakeStore {
	s := &fakeStore{byID: map[string]*User{}, updated: map[string]Patch{}}
	for i := range users {
		s.users = append(s.users, users[i])
		s.byID[users[i].ID] = &s.users[len(s.users)-1]
	}
	return s
}

func (s *fakeStore) List(_ context.Context, q httpapi.ListQuery) ([]User, int, error) {
	s.listCalls++

	filtered := make([]User, 0, len(s.users))
	for _, u := range s.users {
		if q.Q == "" || strings.Contains(strings.ToLower(u.Email), strings.ToLower(q.Q)) {
			filtered = append(filtered, u)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		less := filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
		if q.SortField == "email" {
			less = filtered[i].Email < filtered[j].Email
		}
		if q.SortDesc {
			return !less
		}
		return less
	})

	total := len(filtered)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func (s *fakeStore) Create(_ context.Context, u NewUser) (*User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, u)
	created := User{ID: fmt.Sprintf("id-%d", len(s.created)), Email: u.Email, Role: u.Role, Status: auth.StatusActive, CreatedAt: time.Now()}
	return &created, nil
}

func (s *fakeStore) Update(_ context.Context, id string, p Patch) (*User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.updated[id] = p
	out := *u
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	return &out, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type fakeAccounts struct {
	role string
}

func (f *fakeAccounts) ResolveAccount(_ context.Context, id string) (*auth.Account, error) {
	return &auth.Account{ID: id, Email: "caller@example.com", Role: f.role, Status: auth.StatusActive}, nil
}

func newRouter(t *testing.T, store Store, role string) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer := auth.NewTokenIssuer([]byte("super-secret-key-1234"), time.Hour)
	r := gin.New()
	g := r.Group("/users", auth.RequireAuth(issuer, &fakeAccounts{role: role}))
	Register(g, store)

	tok, err := issuer.Issue("caller-1", role)
	require.NoError(t, err)
	return r, tok
}

func do(r *gin.Engine, method, path, cookie, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: cookie})
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func errCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Error.Code
}

func errMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Error.Message
}

func seedUsers(n int) []User {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]User, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, User{
			ID:        fmt.Sprintf("00000000-0000-0000-0000-%012d", i),
			Email:     fmt.Sprintf("user%02d@example.com", i),
			Role:      auth.RoleViewer,
			Status:    auth.StatusActive,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return out
}

func TestList_RequiresSession(t *testing.T) {
	r, _ := newRouter(t, newFakeStore(), auth.RoleViewer)

	rr := do(r, http.MethodGet, "/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "UNAUTHORIZED", errCode(t, rr))
}

func TestList_Pagination(t *testing.T) {
	store := newFakeStore(seedUsers(25)...)
	r, tok := newRouter(t, store, auth.RoleViewer)

	rr := do(r, http.MethodGet, "/users?page=2&pageSize=10&sort=createdAt:desc", tok, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body httpapi.ListResponse[User]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 10, body.PageSize)
	assert.Equal(t, 25, body.Total)
	assert.Len(t, body.Items, 10)
}

func TestList_LastPageShorterThanPageSize(t *testing.T) {
	store := newFakeStore(seedUsers(25)...)
	r, tok := newRouter(t, store, auth.RoleViewer)

	rr := do(r, http.MethodGet, "/users?page=3&pageSize=10", tok, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body httpapi.ListResponse[User]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 25, body.Total)
	assert.Len(t, body.Items, 5)
}

func TestList_SearchByEmail(t *testing.T) {
	store := newFakeStore(seedUsers(5)...)
	r, tok := newRouter(t, store, auth.RoleViewer)

	rr := do(r, http.MethodGet, "/users?q=USER03", tok, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body httpapi.ListResponse[User]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "user03@example.com", body.Items[0].Email)
	assert.Equal(t, 1, body.Total)
}

func TestList_InvalidSortNeverTouchesStore(t *testing.T) {
	store := newFakeStore(seedUsers(3)...)
	r, tok := newRouter(t, store, auth.RoleViewer)

	rr := do(r, http.MethodGet, "/users?sort=passwordHash:asc", tok, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", errCode(t, rr))
	assert.Zero(t, store.listCalls)
}

func TestCreate_ViewerForbidden(t *testing.T) {
	store := newFakeStore()
	r, tok := newRouter(t, store, auth.RoleViewer)

	rr := do(r, http.MethodPost, "/users", tok, `{"email":"new@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "FORBIDDEN", errCode(t, rr))
	assert.Empty(t, store.created)
}

func TestCreate_Admin(t *testing.T) {
	store := newFakeStore()
	r, tok := newRouter(t, store, auth.RoleAdmin)

	rr := do(r, http.MethodPost, "/users", tok, `{"email":"new@example.com","password":"password123","role":"admin"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var body struct {
		User User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "new@example.com", body.User.Email)
	assert.Equal(t, auth.RoleAdmin, body.User.Role)
	assert.Equal(t, auth.StatusActive, body.User.Status)

	require.Len(t, store.created, 1)
	assert.NotEqual(t, "password123", store.created[0].PasswordHash)
	assert.True(t, auth.VerifyPassword(store.created[0].PasswordHash, "password123"))
}

func TestCreate_DefaultsToViewer(t *testing.T) {
	store := newFakeStore()
	r, tok := newRouter(t, store, auth.RoleAdmin)

	rr := do(r, http.MethodPost, "/users", tok, `{"email":"new@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, store.created, 1)
	assert.Equal(t, auth.RoleViewer, store.created[0].Role)
}

func TestCreate_Validation(t *testing.T) {
	store := newFakeStore()
	r, tok := newRouter(t, store, auth.RoleAdmin)

	cases := map[string]string{
		"bad email":      `{"email":"not-an-email","password":"password123"}`,
		"short password": `{"email":"ok@example.com","password":"abc"}`,
		"bad role":       `{"email":"ok@example.com","password":"password123","role":"root"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := do(r, http.MethodPost, "/users", tok, body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "VALIDATION_ERROR", errCode(t, rr))
		})
	}
	assert.Empty(t, store.created)
}

func TestCreate_PasswordLengthMessages(t *testing.T) {
	store := newFakeStore()
	r, tok := newRouter(t, store, auth.RoleAdmin)

	long := strings.Repeat("a", auth.MaxPasswordLength+1)

	// Each bound gets its own message; a 73-byte password is not "too
	// short".
	cases := map[string]struct {
		body string
		want string
	}{
		"too short": {`{"email":"ok@example.com","password":"abc"}`, "at least 6"},
		"too long":  {fmt.Sprintf(`{"email":"ok@example.com","password":"%s"}`, long), "at most 72"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rr := do(r, http.MethodPost, "/users", tok, tc.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "VALIDATION_ERROR", errCode(t, rr))
			assert.Contains(t, errMessage(t, rr), tc.want)
		})
	}
	assert.Empty(t, store.created)
}

func TestUpdate_PasswordTooLong(t *testing.T) {
	u := seedUsers(1)[0]
	store := newFakeStore(u)
	r, tok := newRouter(t, store, auth.RoleAdmin)

	body := fmt.Sprintf(`{"password":"%s"}`, strings.Repeat("a", auth.MaxPasswordLength+1))
	rr := do(r, http.MethodPatch, "/users/"+u.ID, tok, body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", errCode(t, rr))
	assert.Contains(t, errMessage(t, rr), "at most 72")
	assert.Empty(t, store.updated)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	store := newFakeStore()
	store.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	r, tok := newRouter(t, store, auth.RoleAdmin)

	rr := do(r, http.MethodPost, "/users", tok, `{"email":"dup@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "CONFLICT", errCode(t, rr))
}

func TestUpdate_InvalidID(t *testing.T) {
	store := newFakeStore()
	r, tok := newRouter(t, store, auth.RoleAdmin)

	rr := do(r, http.MethodPatch, "/users/not-a-uuid", tok, `{"role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", errCode(t, rr))
}

func TestUpdate_NotFound(t *testing.T) {
	store := newFakeStore()
	r, tok := newRouter(t, store, auth.RoleAdmin)

	rr := do(r, http.MethodPatch, "/users/6f1e1f9a-6c0a-4f6e-9f6e-3c0a6f1e1f9a", tok, `{"role":"admin"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", errCode(t, rr))
}

func TestUpdate_PartialPatch(t *testing.T) {
	u := seedUsers(1)[0]
	store := newFakeStore(u)
	r, tok := newRouter(t, store, auth.RoleAdmin)

	rr := do(r, http.MethodPatch, "/users/"+u.ID, tok, `{"status":"disabled"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	patch := store.updated[u.ID]
	require.NotNil(t, patch.Status)
	assert.Equal(t, auth.StatusDisabled, *patch.Status)
	// Absent fields stay untouched.
	assert.Nil(t, patch.Role)
	assert.Nil(t, patch.PasswordHash)
}

func TestUpdate_PasswordRehashed(t *testing.T) {
	u := seedUsers(1)[0]
	store := newFakeStore(u)
	r, tok := newRouter(t, store, auth.RoleAdmin)

	rr := do(r, http.MethodPatch, "/users/"+u.ID, tok, `{"password":"newpass456"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	patch := store.updated[u.ID]
	require.NotNil(t, patch.PasswordHash)
	assert.NotEqual(t, "newpass456", *patch.PasswordHash)
	assert.True(t, auth.VerifyPassword(*patch.PasswordHash, "newpass456"))
}

func TestDelete(t *testing.T) {
	u := seedUsers(1)[0]
	store := newFakeStore(u)
	r, tok := newRouter(t, store, auth.RoleAdmin)

	rr := do(r, http.MethodDelete, "/users/"+u.ID, tok, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Equal(t, []string{u.ID}, store.deleted)

	rr = do(r, http.MethodDelete, "/users/6f1e1f9a-6c0a-4f6e-9f6e-3c0a6f1e1f9a", tok, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDelete_ViewerForbidden(t *testing.T) {
	u := seedUsers(1)[0]
	store := newFakeStore(u)
	r, tok := newRouter(t, store, auth.RoleViewer)

	rr := do(r, http.MethodDelete, "/users/"+u.ID, tok, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, store.deleted)
}
