package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hackhub/internal/auth"
	"hackhub/internal/chat"
	"hackhub/internal/notify"
	"hackhub/internal/storage"
	"hackhub/internal/user"
)

func newTestServer(t *testing.T) (http.Handler, *user.Store, *chat.Store) {
	t.Helper()
	sessions := user.NewStore(storage.NewMemoryKV(), user.WithDelay(0), user.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, sessions.Init(context.Background()))
	inbox := chat.NewStore(chat.StaticSeed{}, chat.WithReplyDelay(time.Hour))
	t.Cleanup(inbox.Close)
	hub := notify.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	return newRouter(sessions, inbox, tokens, hub), sessions, inbox
}

func send(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, h http.Handler, email string) user.AuthResponse {
	t.Helper()
	rec := send(t, h, http.MethodPost, "/register", "", user.RegisterRequest{Name: email, Email: email, Password: "pw", Role: "student"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var res user.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestRouter_InboxFollowsSessionUser(t *testing.T) {
	router, sessions, inbox := newTestServer(t)
	a := registerUser(t, router, "a@x.com")
	b := registerUser(t, router, "b@x.com")

	rec := send(t, router, http.MethodGet, "/api/conversations", b.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = send(t, router, http.MethodPost, "/api/messages", b.AccessToken, chat.SendRequest{Content: "hello"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	active, ok := inbox.Active()
	require.True(t, ok)
	assert.Equal(t, 1, inbox.Pending(active.ID))

	// A's token is still valid, but A is no longer the session user.
	rec = send(t, router, http.MethodGet, "/api/conversations", a.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = send(t, router, http.MethodPost, "/logout", a.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, b.User.ID, inbox.SelfID())
	assert.Equal(t, 1, inbox.Pending(active.ID))
	u, ok := sessions.User()
	require.True(t, ok)
	assert.Equal(t, b.User.ID, u.ID)

	rec = send(t, router, http.MethodPost, "/logout", b.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, inbox.SelfID())
	assert.Equal(t, 0, inbox.Pending(active.ID))

	rec = send(t, router, http.MethodPost, "/api/messages", b.AccessToken, chat.SendRequest{Content: "still here?"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = send(t, router, http.MethodGet, "/api/conversations", a.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
