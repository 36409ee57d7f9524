package handler

import (
	"net/http"

	"skillswap/internal/apperr"
	"skillswap/internal/ledger"
	"skillswap/internal/logger"
)

// Free top-up packages offered to users.
var pointPackages = map[int]bool{10: true, 50: true, 100: true}

type PointsHandler struct {
	ledger *ledger.Service
	log    *logger.Logger
}

func NewPointsHandler(l *ledger.Service, log *logger.Logger) *PointsHandler {
	return &PointsHandler{ledger: l, log: logger.OrNop(log).With("handler", "points")}
}

type grantRequest struct {
	Points int `json:"points"`
}

func (h *PointsHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var in grantRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if !pointPackages[in.Points] {
		writeError(w, r, h.log, apperr.Wrap(apperr.ErrValidation, "points must be one of 10, 50 or 100"))
		return
	}
	user, err := h.ledger.GrantPoints(r.Context(), currentUser(r), in.Points)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"points": user.Points})
}
