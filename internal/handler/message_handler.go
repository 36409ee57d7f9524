package handler

import (
	"net/http"

	"skillswap/internal/ledger"
	"skillswap/internal/logger"
)

type MessageHandler struct {
	ledger *ledger.Service
	log    *logger.Logger
}

func NewMessageHandler(l *ledger.Service, log *logger.Logger) *MessageHandler {
	return &MessageHandler{ledger: l, log: logger.OrNop(log).With("handler", "messages")}
}

func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.ledger.Conversations(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, convs)
}

// Thread shows the conversation with userID and marks its incoming messages
// as read.
func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	other, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	me := currentUser(r)

	marked, err := h.ledger.MarkConversationRead(r.Context(), me, other)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	messages, err := h.ledger.Thread(r.Context(), me, other)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"messages":    messages,
		"marked_read": marked,
	})
}

type sendRequest struct {
	Content string `json:"content"`
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	receiver, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var in sendRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	msg, err := h.ledger.SendMessage(r.Context(), currentUser(r), receiver, in.Content)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, msg)
}

func (h *MessageHandler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.ClearNotifications(r.Context(), currentUser(r)); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
