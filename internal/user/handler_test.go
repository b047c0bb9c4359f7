package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackhub/internal/auth"
	myMiddleware "hackhub/internal/middleware"
	"hackhub/internal/storage"
)

func newTestRouter(t *testing.T) (http.Handler, *Handler) {
	t.Helper()
	s, _ := newTestStore(t, storage.NewMemoryKV())
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	h := NewHandler(s, tokens)

	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Group(func(r chi.Router) {
		r.Use(myMiddleware.NewAuthMiddleware(tokens).Handle)
		r.Post("/logout", h.Logout)
		r.Get("/api/session", h.Session)
		r.Patch("/api/profile", h.UpdateProfile)
	})
	return r, h
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_AuthFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	reg := RegisterRequest{Name: "Ana", Email: "ana@x.com", Password: "secret1", Role: "student"}

	rec := doJSON(t, router, http.MethodPost, "/register", "", reg)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.AccessToken)
	assert.Equal(t, "ana@x.com", created.User.Email)
	assert.NotContains(t, rec.Body.String(), "secret1")

	reg.Password = "secret2"
	rec = doJSON(t, router, http.MethodPost, "/register", "", reg)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "User with this email already exists")

	rec = doJSON(t, router, http.MethodPost, "/login", "", LoginRequest{Email: "ana@x.com", Password: "wrong", Role: "student"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")

	rec = doJSON(t, router, http.MethodPost, "/login", "", LoginRequest{Email: "ana@x.com", Password: "secret1", Role: "student"})
	require.Equal(t, http.StatusOK, rec.Code)
	var logged AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logged))

	rec = doJSON(t, router, http.MethodGet, "/api/session", logged.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"authenticated"`)

	name := "Ana Lima"
	rec = doJSON(t, router, http.MethodPatch, "/api/profile", logged.AccessToken, ProfileRequest{Name: &name})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ana Lima")

	rec = doJSON(t, router, http.MethodPost, "/logout", logged.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// The token is still valid, but the session it names is gone.
	rec = doJSON(t, router, http.MethodPatch, "/api/profile", logged.AccessToken, ProfileRequest{Name: &name})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_RejectsBadInput(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/register", "", RegisterRequest{Email: "a@x.com", Password: "pw", Role: "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/register", "", RegisterRequest{Role: "student"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_AfterLogoutHook(t *testing.T) {
	router, h := newTestRouter(t)
	called := false
	h.AfterLogout = func(context.Context) { called = true }

	rec := doJSON(t, router, http.MethodPost, "/register", "", RegisterRequest{Name: "Ana", Email: "ana@x.com", Password: "pw", Role: "mentor"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var res AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	rec = doJSON(t, router, http.MethodPost, "/logout", res.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, called)
}

func register(t *testing.T, router http.Handler, email string) AuthResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/register", "", RegisterRequest{Name: email, Email: email, Password: "pw", Role: "student"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var res AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestHandler_OnlySessionUserMayActOnSession(t *testing.T) {
	router, h := newTestRouter(t)
	loggedOut := false
	h.AfterLogout = func(context.Context) { loggedOut = true }

	a := register(t, router, "a@x.com")
	b := register(t, router, "b@x.com")

	rec := doJSON(t, router, http.MethodGet, "/api/session", a.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/logout", a.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, loggedOut)
	u, ok := h.Store.User()
	require.True(t, ok)
	assert.Equal(t, b.User.ID, u.ID)

	rec = doJSON(t, router, http.MethodGet, "/api/session", b.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "b@x.com")

	rec = doJSON(t, router, http.MethodPost, "/logout", b.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, loggedOut)

	// Nobody is logged in: session reads are refused, logout is a no-op.
	rec = doJSON(t, router, http.MethodGet, "/api/session", b.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/logout", a.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_ProfileRejectsEmptyEmail(t *testing.T) {
	router, _ := newTestRouter(t)
	a := register(t, router, "a@x.com")

	empty := " "
	rec := doJSON(t, router, http.MethodPatch, "/api/profile", a.AccessToken, ProfileRequest{Email: &empty})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email is required")
}
