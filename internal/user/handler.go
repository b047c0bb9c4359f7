package user

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"hackhub/internal/auth"
	myMiddleware "hackhub/internal/middleware"
)

type Handler struct {
	Store  *Store
	Tokens *auth.TokenIssuer
	// AfterLogout runs once the session has been cleared, e.g. to tear down
	// the conversation store.
	AfterLogout func(ctx context.Context)
}

func NewHandler(s *Store, tokens *auth.TokenIssuer) *Handler {
	return &Handler{Store: s, Tokens: tokens}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if !h.Store.Register(r.Context(), req.Name, req.Email, req.Password, role) {
		h.writeFailure(w)
		return
	}
	h.writeAuth(w, http.StatusCreated)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.Store.Login(r.Context(), req.Email, req.Password, role) {
		h.writeFailure(w)
		return
	}
	h.writeAuth(w, http.StatusOK)
}

// Logout ends the session when the bearer is its user. With nobody logged
// in there is nothing to end and it succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, in := h.Store.User(); in {
		if _, ok := h.currentUser(r); !ok {
			writeError(w, http.StatusUnauthorized, "Session ended")
			return
		}
	}
	if err := h.Store.Logout(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	if h.AfterLogout != nil {
		h.AfterLogout(r.Context())
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentUser(r); !ok {
		writeError(w, http.StatusUnauthorized, "Session ended")
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Session())
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentUser(r); !ok {
		writeError(w, http.StatusUnauthorized, "Session ended")
		return
	}
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.Store.UpdateProfile(r.Context(), req.Updates()...)
	switch {
	case errors.Is(err, ErrUserExists):
		writeError(w, http.StatusConflict, msgUserExists)
		return
	case errors.Is(err, ErrEmptyEmail):
		writeError(w, http.StatusBadRequest, "email is required")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Profile update failed")
		return
	}
	u, _ := h.Store.User()
	writeJSON(w, http.StatusOK, u)
}

// currentUser returns the session user when it is the token's bearer.
func (h *Handler) currentUser(r *http.Request) (User, bool) {
	id, ok := myMiddleware.IdentityFrom(r.Context())
	if !ok {
		return User{}, false
	}
	u, ok := h.Store.User()
	if !ok || u.ID != id.ID {
		return User{}, false
	}
	return u, true
}

func (h *Handler) writeAuth(w http.ResponseWriter, status int) {
	u, ok := h.Store.User()
	if !ok {
		writeError(w, http.StatusConflict, "Session changed")
		return
	}
	token, err := h.Tokens.Issue(auth.Identity{ID: u.ID, Email: u.Email, Role: string(u.Role)})
	if err != nil {
		slog.Error("issue token", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, status, AuthResponse{AccessToken: token, User: u})
}

func (h *Handler) writeFailure(w http.ResponseWriter) {
	msg, err := h.Store.lastFailure()
	switch {
	case errors.Is(err, ErrUserExists):
		writeError(w, http.StatusConflict, msg)
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, msg)
	default:
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
