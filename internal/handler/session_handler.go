package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"skillswap/internal/apperr"
	"skillswap/internal/entity"
	"skillswap/internal/ledger"
	"skillswap/internal/logger"
)

type SessionHandler struct {
	ledger *ledger.Service
	log    *logger.Logger
}

func NewSessionHandler(l *ledger.Service, log *logger.Logger) *SessionHandler {
	return &SessionHandler{ledger: l, log: logger.OrNop(log).With("handler", "sessions")}
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.ledger.SessionsFor(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, sessions)
}

type bookRequest struct {
	TeacherID int64  `json:"teacher_id"`
	Skill     string `json:"skill"`
}

func (h *SessionHandler) Book(w http.ResponseWriter, r *http.Request) {
	var in bookRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	session, err := h.ledger.BookSession(r.Context(), currentUser(r), in.TeacherID, in.Skill)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, session)
}

// Transition handles POST /sessions/{sessionID}/{action}.
func (h *SessionHandler) Transition(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "sessionID")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	action, err := entity.ParseSessionAction(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, r, h.log, apperr.Wrap(apperr.ErrValidation, "%v", err))
		return
	}
	session, err := h.ledger.TransitionSession(r.Context(), currentUser(r), sessionID, action)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, session)
}

type rateRequest struct {
	Rating int `json:"rating"`
}

func (h *SessionHandler) Rate(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "sessionID")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var in rateRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	session, err := h.ledger.RateSession(r.Context(), currentUser(r), sessionID, in.Rating)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, session)
}
