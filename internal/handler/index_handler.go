package handler

import (
	"context"
	"net/http"
	"time"

	"skillswap/internal/account"
	"skillswap/internal/logger"
	"skillswap/internal/middleware"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type IndexHandler struct {
	accounts *account.Service
	db       Pinger
	log      *logger.Logger
}

func NewIndexHandler(accounts *account.Service, db Pinger, log *logger.Logger) *IndexHandler {
	return &IndexHandler{accounts: accounts, db: db, log: logger.OrNop(log).With("handler", "index")}
}

func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	_, loggedIn := middleware.UserID(r.Context())
	writeData(w, http.StatusOK, map[string]interface{}{
		"name":       "SkillSwap",
		"logged_in":  loggedIn,
		"categories": h.accounts.Categories(),
	})
}

func (h *IndexHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.accounts.Categories())
}

func (h *IndexHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.log.Warn("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, Response{Error: "database unavailable"})
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
