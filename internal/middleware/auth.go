package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"

	"skillswap/internal/apperr"
	"skillswap/internal/logger"
)

// SessionName is the login cookie.
const SessionName = "app-session"

const userIDValue = "user_id"

type ctxKey int

const (
	userIDKey ctxKey = iota
	requestIDKey
)

// Sessions keeps the logged-in user ID in a signed cookie.
type Sessions struct {
	store sessions.Store
	log   *logger.Logger
}

func NewSessions(store sessions.Store, log *logger.Logger) *Sessions {
	return &Sessions{store: store, log: logger.OrNop(log).With("component", "sessions")}
}

func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, userID int64) error {
	session, _ := s.store.Get(r, SessionName)
	session.Values[userIDValue] = userID
	return session.Save(r, w)
}

func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, SessionName)
	delete(session.Values, userIDValue)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Authenticate puts the logged-in user ID, if any, into the request context.
// A missing or tampered cookie leaves the request anonymous.
func (s *Sessions) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.store.Get(r, SessionName)
		if err != nil {
			s.log.Debug("Ignoring invalid session cookie", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if id, ok := session.Values[userIDValue].(int64); ok && id > 0 {
			r = r.WithContext(WithUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser answers 401 for anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserID(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   apperr.ErrUnauthenticated.Error(),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}
