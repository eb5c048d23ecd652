package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/memorama/internal/game"
)

type ctxKey int

const (
	ctxKeySession ctxKey = iota
)

// gameMiddleware resolves {gameID} to a running session.
func gameMiddleware(games *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "gameID")
			if id == "" {
				writeError(w, http.StatusNotFound, "game not found")
				return
			}

			sess, err := games.Get(id)
			if err != nil {
				writeError(w, http.StatusNotFound, "game not found")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) *game.Session {
	return r.Context().Value(ctxKeySession).(*game.Session)
}
