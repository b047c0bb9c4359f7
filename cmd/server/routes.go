package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hackhub/internal/auth"
	"hackhub/internal/chat"
	myMiddleware "hackhub/internal/middleware"
	"hackhub/internal/notify"
	"hackhub/internal/user"
)

// newRouter mounts the HTTP API. The inbox follows the session store: it is
// served only to the session user and torn down on logout.
func newRouter(sessions *user.Store, inbox *chat.Store, tokens *auth.TokenIssuer, hub *notify.Hub) http.Handler {
	userHandler := user.NewHandler(sessions, tokens)
	userHandler.AfterLogout = func(context.Context) { inbox.Reset() }
	chatHandler := chat.NewHandler(inbox, func() (string, bool) {
		u, ok := sessions.User()
		return u.ID, ok
	})
	authMiddleware := myMiddleware.NewAuthMiddleware(tokens)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/register", userHandler.Register)
	r.Post("/login", userHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)
		r.Post("/logout", userHandler.Logout)
		r.Get("/api/session", userHandler.Session)
		r.Patch("/api/profile", userHandler.UpdateProfile)

		r.Get("/api/conversations", chatHandler.ListConversations)
		r.Get("/api/conversations/{id}", chatHandler.GetConversation)
		r.Post("/api/conversations/{id}/select", chatHandler.SelectConversation)
		r.Post("/api/conversations/{id}/read", chatHandler.MarkRead)
		r.Post("/api/messages", chatHandler.SendMessage)

		r.Get("/ws", hub.ServeWs)
	})
	return r
}
