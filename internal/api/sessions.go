package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/querygenie/querygenie/internal/store"
)

type sessionPayload struct {
	UserID   int64           `json:"user_id"`
	Title    string          `json:"title"`
	Messages json.RawMessage `json:"messages"`
}

type sessionView struct {
	ID         int64           `json:"id"`
	ExternalID string          `json:"external_id"`
	Title      string          `json:"title"`
	Messages   json.RawMessage `json:"messages"`
	Timestamp  string          `json:"timestamp"`
}

func handleListSessions(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "USER_ID_REQUIRED", "user_id query parameter is required", false, nil)
		return
	}

	sessions, err := deps.Sessions.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSIONS_FAILED", "failed to list chat sessions", true, nil)
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, toSessionView(session))
	}
	writeJSON(w, http.StatusOK, views)
}

func handleCreateSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeSessionPayload(deps, w, r)
	if !ok {
		return
	}

	session, err := deps.Sessions.Create(r.Context(), payload.UserID, payload.Title, string(payload.Messages))
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_CREATE_FAILED", "failed to create chat session", true, nil)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session))
}

func handleUpdateSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "SESSION_ID_INVALID", "session id must be an integer", false, nil)
		return
	}
	payload, ok := decodeSessionPayload(deps, w, r)
	if !ok {
		return
	}

	session, err := deps.Sessions.Update(r.Context(), id, payload.UserID, payload.Title, string(payload.Messages))
	if err != nil {
		writeSessionError(w, r, err, "update")
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session))
}

func handleDeleteSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "SESSION_ID_INVALID", "session id must be an integer", false, nil)
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "USER_ID_REQUIRED", "user_id query parameter is required", false, nil)
		return
	}

	if err := deps.Sessions.Delete(r.Context(), id, userID); err != nil {
		writeSessionError(w, r, err, "delete")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Chat session deleted"})
}

func decodeSessionPayload(deps Dependencies, w http.ResponseWriter, r *http.Request) (sessionPayload, bool) {
	var payload sessionPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, nil)
		return sessionPayload{}, false
	}
	if payload.UserID == 0 {
		writeError(r.Context(), w, http.StatusBadRequest, "USER_ID_REQUIRED", "user_id is required", false, nil)
		return sessionPayload{}, false
	}
	return payload, true
}

func writeSessionError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "Chat session not found", false, nil)
	case errors.Is(err, store.ErrNotOwned):
		writeError(r.Context(), w, http.StatusForbidden, "SESSION_FORBIDDEN", "Unauthorized to "+action+" this session", false, nil)
	default:
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_FAILED", "failed to "+action+" chat session", true, nil)
	}
}

func toSessionView(session store.ChatSession) sessionView {
	messages := json.RawMessage(session.Messages)
	if !json.Valid(messages) {
		messages = json.RawMessage("[]")
	}
	return sessionView{
		ID:         session.ID,
		ExternalID: session.ExternalID,
		Title:      session.Title,
		Messages:   messages,
		Timestamp:  session.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
