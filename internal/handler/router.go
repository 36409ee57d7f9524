package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skillswap/internal/account"
	"skillswap/internal/ledger"
	"skillswap/internal/logger"
	"skillswap/internal/middleware"
)

type RouterDeps struct {
	Accounts *account.Service
	Ledger   *ledger.Service
	Sessions *middleware.Sessions
	DB       Pinger
	Log      *logger.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	index := NewIndexHandler(d.Accounts, d.DB, d.Log)
	auth := NewAuthHandler(d.Accounts, d.Sessions, d.Log)
	profiles := NewProfileHandler(d.Accounts, d.Log)
	sessions := NewSessionHandler(d.Ledger, d.Log)
	messages := NewMessageHandler(d.Ledger, d.Log)
	points := NewPointsHandler(d.Ledger, d.Log)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	// Authenticate runs first so the request log carries the user ID.
	r.Use(d.Sessions.Authenticate, middleware.RequestLogger(d.Log))

	r.Get("/", index.Index)
	r.Get("/categories", index.Categories)
	r.Get("/healthz", index.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/register", auth.Register)
	r.Post("/login", auth.Login)
	r.Post("/logout", auth.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Get("/profile", profiles.Own)
		r.Put("/profile", profiles.Update)
		r.Get("/profile/{userID}", profiles.User)
		r.Get("/search", profiles.Search)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessions.List)
			r.Post("/", sessions.Book)
			r.Post("/{sessionID}/rating", sessions.Rate)
			r.Post("/{sessionID}/{action}", sessions.Transition)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", messages.Conversations)
			r.Get("/{userID}", messages.Thread)
			r.Post("/{userID}", messages.Send)
		})

		r.Post("/notifications/clear", messages.ClearNotifications)
		r.Post("/points", points.Grant)
	})

	return r
}
