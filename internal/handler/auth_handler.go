package handler

import (
	"net/http"

	"skillswap/internal/account"
	"skillswap/internal/logger"
	"skillswap/internal/middleware"
)

type AuthHandler struct {
	accounts *account.Service
	sessions *middleware.Sessions
	log      *logger.Logger
}

func NewAuthHandler(accounts *account.Service, sessions *middleware.Sessions, log *logger.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, log: logger.OrNop(log).With("handler", "auth")}
}

// Register creates the account and logs the new user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in account.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.sessions.Login(w, r, user.ID); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.sessions.Login(w, r, user.ID); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.log.Info("User logged in", "user_id", user.ID)
	writeData(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
