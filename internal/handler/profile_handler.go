package handler

import (
	"net/http"

	"skillswap/internal/account"
	"skillswap/internal/logger"
)

type ProfileHandler struct {
	accounts *account.Service
	log      *logger.Logger
}

func NewProfileHandler(accounts *account.Service, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, log: logger.OrNop(log).With("handler", "profile")}
}

// Own serves the logged-in user's profile with private details and sessions.
func (h *ProfileHandler) Own(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	p, err := h.accounts.Profile(r.Context(), me, me)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *ProfileHandler) User(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	p, err := h.accounts.Profile(r.Context(), currentUser(r), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in account.UpdateProfileInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	user, err := h.accounts.UpdateProfile(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (h *ProfileHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.accounts.Search(r.Context(), currentUser(r), account.SearchInput{
		Skill:    q.Get("skill"),
		Category: q.Get("category"),
		Location: q.Get("location"),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, users)
}
