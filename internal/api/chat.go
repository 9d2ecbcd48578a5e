package api

import (
	"errors"
	"net/http"

	"github.com/querygenie/querygenie/internal/connection"
	"github.com/querygenie/querygenie/internal/nl2sql"
)

type chatRequest struct {
	Question    string        `json:"question"`
	ChatHistory []chatMessage `json:"chat_history"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type confirmSQLRequest struct {
	UserID  int64  `json:"user_id"`
	Confirm bool   `json:"confirm"`
	SQL     string `json:"sql"`
}

func handleChat(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var request chatRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, nil)
		return
	}
	if request.Question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	session, err := deps.Connections.Current()
	if err != nil {
		if errors.Is(err, connection.ErrNotConnected) {
			writeError(r.Context(), w, http.StatusBadRequest, "NOT_CONNECTED", "Database not connected", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "CONNECTION_ERROR", err.Error(), true, nil)
		return
	}

	history := make([]nl2sql.Message, 0, len(request.ChatHistory))
	for _, message := range request.ChatHistory {
		history = append(history, nl2sql.Message{Role: message.Role, Content: message.Content})
	}

	reply := deps.Pipeline.Translate(r.Context(), session.DB, session.Schema, request.Question, history)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "response": reply.Envelope})
}

func handleConfirmSQL(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var request confirmSQLRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, nil)
		return
	}

	if !request.Confirm {
		outcome := deps.Pipeline.ConfirmExecute(r.Context(), nil, request.SQL, false)
		writeJSON(w, http.StatusOK, outcome)
		return
	}

	session, err := deps.Connections.Current()
	if err != nil {
		if errors.Is(err, connection.ErrNotConnected) {
			writeError(r.Context(), w, http.StatusBadRequest, "NOT_CONNECTED", "Database not connected", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "CONNECTION_ERROR", err.Error(), true, nil)
		return
	}

	outcome := deps.Pipeline.ConfirmExecute(r.Context(), session.DB, request.SQL, true)
	writeJSON(w, http.StatusOK, outcome)
}
