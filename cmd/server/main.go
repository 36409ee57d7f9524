package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"

	"skillswap/internal/account"
	"skillswap/internal/config"
	"skillswap/internal/database"
	"skillswap/internal/handler"
	"skillswap/internal/ledger"
	"skillswap/internal/logger"
	"skillswap/internal/middleware"
	"skillswap/internal/repository"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.RunMigrations {
		if err := database.Migrate(cfg.Database, log); err != nil {
			log.Fatal("Migrations failed", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("Database connection failed", "error", err)
	}
	defer db.Close()

	users := repository.NewUserRepository(db, log)
	sessionRepo := repository.NewSessionRepository(db, log)
	messages := repository.NewMessageRepository(db, log)

	accounts := account.New(users, sessionRepo, messages, account.Options{StartingPoints: cfg.StartingPoints}, log)
	exchange := ledger.New(db, users, sessionRepo, messages, log)

	router := handler.NewRouter(handler.RouterDeps{
		Accounts: accounts,
		Ledger:   exchange,
		Sessions: middleware.NewSessions(newCookieStore(cfg, log), log),
		DB:       db,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server started", "port", cfg.Port, "env", cfg.Env, "driver", db.Driver())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}

func newCookieStore(cfg config.Config, log *logger.Logger) *sessions.CookieStore {
	key := []byte(cfg.SessionSecret)
	if len(key) == 0 {
		// Sessions will not survive a restart.
		log.Warn("SESSION_SECRET is not set, using a random key")
		key = securecookie.GenerateRandomKey(32)
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
