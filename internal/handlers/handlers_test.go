package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/projtrack/apiserver/internal/services"
	"github.com/projtrack/apiserver/internal/store"
	"github.com/projtrack/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// --- fakes ---

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[int]types.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	normalized := types.NormalizeEmail(email)
	for _, user := range f.users {
		if user.Email == normalized {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	user.ID = f.seq
	user.Email = types.NormalizeEmail(user.Email)
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	f.users[user.ID] = user
	return user, nil
}

type fakeProjectRepo struct {
	mu       sync.Mutex
	seq      int
	projects map[int]types.Project
}

func (f *fakeProjectRepo) GetByID(ctx context.Context, id int) (types.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	project, ok := f.projects[id]
	if !ok {
		return types.Project{}, store.ErrNotFound
	}
	return project, nil
}

func (f *fakeProjectRepo) List(ctx context.Context) ([]types.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Project, 0, len(f.projects))
	for _, project := range f.projects {
		out = append(out, project)
	}
	return out, nil
}

func (f *fakeProjectRepo) ListByCompany(ctx context.Context, company string) ([]types.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Project, 0)
	for _, project := range f.projects {
		if types.SameCompany(project.ClientCompany, company) {
			out = append(out, project)
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) Create(ctx context.Context, project types.Project) (types.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	project.ID = f.seq
	f.projects[project.ID] = project
	return project, nil
}

func (f *fakeProjectRepo) Update(ctx context.Context, project types.Project) (types.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[project.ID]; !ok {
		return types.Project{}, store.ErrNotFound
	}
	f.projects[project.ID] = project
	return project, nil
}

func (f *fakeProjectRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.projects, id)
	return nil
}

type codeCapture struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *codeCapture) VerificationCode(ctx context.Context, email, firstName, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email] = code
}

func (c *codeCapture) PasswordResetCode(ctx context.Context, email, firstName, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email] = code
}

func (c *codeCapture) ProjectStatusChanged(ctx context.Context, email, projectName, oldStatus, newStatus string) {
}

func (c *codeCapture) codeFor(t *testing.T, email string) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	code, ok := c.codes[email]
	if !ok {
		t.Fatalf("no code captured for %s", email)
	}
	return code
}

type testEnv struct {
	server   *httptest.Server
	userRepo *fakeUserRepo
	codes    *codeCapture
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	userRepo := &fakeUserRepo{users: make(map[int]types.User)}
	projectRepo := &fakeProjectRepo{projects: make(map[int]types.Project)}
	codes := &codeCapture{codes: make(map[string]string)}

	userService := services.NewUserService(userRepo, codes)
	projectService := services.NewProjectService(projectRepo, codes)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, testSecret)
	})
	router.Route("/projects", func(r chi.Router) {
		ProjectRouter(r, projectService, userService, RequireAuth(testSecret))
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, userRepo: userRepo, codes: codes}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// registerAndVerify drives a user through registration and email
// verification, returning a login token.
func (e *testEnv) registerAndVerify(t *testing.T, email, company string) string {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":           email,
		"password":        "Passw0rd!",
		"confirmPassword": "Passw0rd!",
		"firstName":       "Test",
		"lastName":        "User",
		"companyName":     company,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, "/auth/verify", "", map[string]string{
		"email": email,
		"code":  e.codes.codeFor(t, types.NormalizeEmail(email)),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": "Passw0rd!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var auth AuthResponse
	decodeBody(t, resp, &auth)
	require.NotEmpty(t, auth.Token)
	return auth.Token
}

// --- auth endpoints ---

func TestRegistrationFlow(t *testing.T) {
	env := newTestEnv(t)

	// Register does not log the user in.
	resp := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":           "a@x.com",
		"password":        "Passw0rd!",
		"confirmPassword": "Passw0rd!",
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"companyName":     "Acme",
	})
	var msg MessageResponse
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeBody(t, resp, &msg)
	assert.True(t, msg.Success)
	assert.NotContains(t, msg.Message, "token")

	// Login before verification is refused.
	resp = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "a@x.com",
		"password": "Passw0rd!",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Duplicate registration conflicts.
	resp = env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":           "A@X.com",
		"password":        "Passw0rd!",
		"confirmPassword": "Passw0rd!",
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"companyName":     "Acme",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Wrong code is a 400, then the real one verifies.
	resp = env.do(t, http.MethodPost, "/auth/verify", "", map[string]string{
		"email": "a@x.com", "code": "WRONG1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/auth/verify", "", map[string]string{
		"email": "a@x.com", "code": env.codes.codeFor(t, "a@x.com"),
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Now login succeeds and /auth/me works with the token.
	resp = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "a@x.com",
		"password": "Passw0rd!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var auth AuthResponse
	decodeBody(t, resp, &auth)
	require.NotEmpty(t, auth.Token)
	require.NotNil(t, auth.User)
	assert.Equal(t, "a@x.com", auth.User.Email)

	resp = env.do(t, http.MethodGet, "/auth/me", auth.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile types.Profile
	decodeBody(t, resp, &profile)
	assert.Equal(t, "Acme", profile.CompanyName)
}

func TestRegisterValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "not-an-email",
		"password": "Passw0rd!",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ErrorResponse
	decodeBody(t, resp, &body)
	assert.False(t, body.Success)
	assert.Contains(t, body.Errors, "email")
	assert.Contains(t, body.Errors, "confirmPassword")
}

func TestRegisterWeakPasswordListsViolations(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":           "a@x.com",
		"password":        "abcdefgh",
		"confirmPassword": "abcdefgh",
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"companyName":     "Acme",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body ErrorResponse
	decodeBody(t, resp, &body)
	assert.Len(t, body.Violations, 3) // uppercase, digit, special
}

func TestLoginFailuresShareStatusAndMessage(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com", "Acme")

	respWrong := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "WrongPass1!",
	})
	respGhost := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ghost@x.com", "password": "Passw0rd!",
	})

	require.Equal(t, http.StatusUnauthorized, respWrong.StatusCode)
	require.Equal(t, http.StatusUnauthorized, respGhost.StatusCode)

	var bodyWrong, bodyGhost ErrorResponse
	decodeBody(t, respWrong, &bodyWrong)
	decodeBody(t, respGhost, &bodyGhost)
	assert.Equal(t, bodyWrong.Message, bodyGhost.Message)
}

func TestForgotPasswordIdenticalResponses(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com", "Acme")

	respKnown := env.do(t, http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": "a@x.com"})
	respGhost := env.do(t, http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": "ghost@x.com"})

	require.Equal(t, http.StatusOK, respKnown.StatusCode)
	require.Equal(t, http.StatusOK, respGhost.StatusCode)

	var bodyKnown, bodyGhost MessageResponse
	decodeBody(t, respKnown, &bodyKnown)
	decodeBody(t, respGhost, &bodyGhost)
	assert.Equal(t, bodyKnown, bodyGhost)
}

func TestResetPasswordFlow(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndVerify(t, "a@x.com", "Acme")

	resp := env.do(t, http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/auth/reset-password", "", map[string]string{
		"email":           "a@x.com",
		"code":            env.codes.codeFor(t, "a@x.com"),
		"newPassword":     "NewPassw0rd!",
		"confirmPassword": "NewPassw0rd!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "NewPassw0rd!",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestMeRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

// --- project endpoints ---

func TestProjectCompanyScoping(t *testing.T) {
	env := newTestEnv(t)
	acmeToken := env.registerAndVerify(t, "a@acme.com", "Acme")
	globexToken := env.registerAndVerify(t, "b@globex.com", "Globex")

	resp := env.do(t, http.MethodPost, "/projects", acmeToken, map[string]any{
		"projName": "Apollo",
		"status":   "Active",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created types.Project
	decodeBody(t, resp, &created)
	assert.Equal(t, "Acme", created.ClientCompany)
	assert.Equal(t, "a@acme.com", created.ClientEmail)

	// The other company sees an empty placeholder, not the data.
	resp = env.do(t, http.MethodGet, fmt.Sprintf("/projects/%d", created.ID), globexToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got types.Project
	decodeBody(t, resp, &got)
	assert.Zero(t, got.ID)
	assert.Empty(t, got.Name)

	// The owner sees the real record.
	resp = env.do(t, http.MethodGet, fmt.Sprintf("/projects/%d", created.ID), acmeToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &got)
	assert.Equal(t, "Apollo", got.Name)

	// Lists are scoped per company.
	resp = env.do(t, http.MethodGet, "/projects", globexToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []types.Project
	decodeBody(t, resp, &listed)
	assert.Empty(t, listed)

	// Admins see everything.
	adminToken := env.registerAndVerify(t, "root@ops.com", "Ops")
	env.promoteToAdmin(t, "root@ops.com")
	resp = env.do(t, http.MethodGet, fmt.Sprintf("/projects/%d", created.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &got)
	assert.Equal(t, "Apollo", got.Name)
}

func (e *testEnv) promoteToAdmin(t *testing.T, email string) {
	t.Helper()
	e.userRepo.mu.Lock()
	defer e.userRepo.mu.Unlock()
	for id, user := range e.userRepo.users {
		if user.Email == types.NormalizeEmail(email) {
			user.Role = types.RoleAdmin
			e.userRepo.users[id] = user
			return
		}
	}
	t.Fatalf("no user %s to promote", email)
}

func TestProjectUpdateCannotHijackOwnership(t *testing.T) {
	env := newTestEnv(t)
	acmeToken := env.registerAndVerify(t, "a@acme.com", "Acme")

	resp := env.do(t, http.MethodPost, "/projects", acmeToken, map[string]any{
		"projName": "Apollo",
		"status":   "Active",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created types.Project
	decodeBody(t, resp, &created)

	resp = env.do(t, http.MethodPut, fmt.Sprintf("/projects/%d", created.ID), acmeToken, map[string]any{
		"projName":      "Apollo II",
		"status":        "Active",
		"clientCompany": "Globex",
		"clientEmail":   "evil@globex.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated types.Project
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Apollo II", updated.Name)
	assert.Equal(t, "Acme", updated.ClientCompany)
	assert.Equal(t, "a@acme.com", updated.ClientEmail)
}

func TestProjectRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/projects", "", map[string]any{"projName": "X"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestProjectDeleteScoping(t *testing.T) {
	env := newTestEnv(t)
	acmeToken := env.registerAndVerify(t, "a@acme.com", "Acme")
	globexToken := env.registerAndVerify(t, "b@globex.com", "Globex")

	resp := env.do(t, http.MethodPost, "/projects", acmeToken, map[string]any{
		"projName": "Apollo",
		"status":   "Active",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created types.Project
	decodeBody(t, resp, &created)

	// Cross-company delete silently does nothing.
	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/projects/%d", created.ID), globexToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/projects/%d", created.ID), acmeToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got types.Project
	decodeBody(t, resp, &got)
	assert.Equal(t, created.ID, got.ID, "project must survive an unauthorized delete")

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/projects/%d", created.ID), acmeToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}
