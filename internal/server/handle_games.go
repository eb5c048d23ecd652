package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/memorama/internal/game"
)

type CreateGameResponse struct {
	ID    string        `json:"id"`
	State game.Snapshot `json:"state"`
}

type FlipRequest struct {
	Index *int `json:"index"`
}

type FlipResponse struct {
	Accepted bool          `json:"accepted"`
	State    game.Snapshot `json:"state"`
}

func handleCreateGame(games *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, sess, err := games.Create()
		if errors.Is(err, ErrTooManySessions) {
			writeError(w, http.StatusServiceUnavailable, "too many games in progress")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.Header().Set("Location", "/api/games/"+id)
		writeJSON(w, http.StatusCreated, CreateGameResponse{
			ID:    id,
			State: sess.Snapshot(),
		})
	}
}

func handleGetGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionFrom(r).Snapshot())
	}
}

func handleFlip() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FlipRequest
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Index == nil {
			writeError(w, http.StatusBadRequest, "index is required")
			return
		}

		// Out-of-range indices are not an error, the click is just ignored.
		sess := sessionFrom(r)
		accepted := sess.Click(*req.Index)

		writeJSON(w, http.StatusOK, FlipResponse{
			Accepted: accepted,
			State:    sess.Snapshot(),
		})
	}
}

func handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		sess.Reset()
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleDeleteGame(games *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := games.Remove(chi.URLParam(r, "gameID")); errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
