package chat

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	myMiddleware "hackhub/internal/middleware"
)

// SessionFunc reports the id of the logged-in session user.
type SessionFunc func() (id string, ok bool)

type Handler struct {
	store   *Store
	session SessionFunc
}

func NewHandler(store *Store, session SessionFunc) *Handler {
	return &Handler{store: store, session: session}
}

// ensureSession admits only the bearer who is the session user and hands
// that id to the store, re-initializing it when the session user changed.
func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) bool {
	id, ok := myMiddleware.IdentityFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	selfID, ok := h.session()
	if !ok || selfID != id.ID {
		writeError(w, http.StatusUnauthorized, "Session ended")
		return false
	}
	if h.store.SelfID() == selfID {
		return true
	}
	if err := h.store.Initialize(r.Context(), selfID); err != nil {
		slog.Error("initialize inbox", slog.String("user", selfID), slog.Any("err", err))
		writeError(w, http.StatusServiceUnavailable, "Could not load conversations")
		return false
	}
	return true
}

// ListConversations serves GET /api/conversations?q=.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w, r) {
		return
	}
	res := InboxResponse{Conversations: h.store.Filter(r.URL.Query().Get("q"))}
	if a, ok := h.store.Active(); ok {
		res.ActiveID = a.ID
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w, r) {
		return
	}
	c, ok := h.store.Conversation(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, ErrConversationNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) SelectConversation(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.store.Select(id); err != nil {
		h.writeStoreError(w, err)
		return
	}
	c, _ := h.store.Conversation(id)
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w, r) {
		return
	}
	if err := h.store.MarkRead(chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendMessage serves POST /api/messages. The reply arrives later and shows
// up on the next read of the conversation.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if !h.ensureSession(w, r) {
		return
	}
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.store.Send(r.Context(), req.Content) {
		writeError(w, http.StatusUnprocessableEntity, "Nothing to send")
		return
	}
	c, _ := h.store.Active()
	writeJSON(w, http.StatusAccepted, c)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
