package handler

import (
	"log/slog"
	"net/http"

	"github.com/nestlyflow/nestlyflow-go/internal/middleware"
	"github.com/nestlyflow/nestlyflow-go/internal/model"
	"github.com/nestlyflow/nestlyflow-go/internal/service"
)

// ChatHandler handles HTTP requests for the conversational assistant.
// Authentication is optional here: an anonymous caller can still chat, but
// todo tools refuse to act for them.
type ChatHandler struct {
	chat *service.ChatService
	auth *service.AuthService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chat *service.ChatService, auth *service.AuthService) *ChatHandler {
	return &ChatHandler{chat: chat, auth: auth}
}

// HandleChat handles POST /chat/chatbot requests.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Optional auth: any failure to resolve a user means "no user".
	var user *model.User
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		u, err := h.auth.UserByID(r.Context(), userID)
		if err != nil {
			slog.Warn("chat user lookup failed, continuing anonymously", "user_id", userID, "error", err)
		} else {
			user = u
		}
	}

	resp, err := h.chat.Chat(r.Context(), user, req)
	if err != nil {
		slog.Error("chatbot request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("an error occurred with the chatbot"))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
