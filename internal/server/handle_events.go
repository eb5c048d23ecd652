package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/memorama/internal/game"
)

// frameState is the name of the snapshot sent when a stream opens.
const frameState = "state"

func handleEvents(games *Registry, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		sess := sessionFrom(r)

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		ch := broker.Subscribe(gameID)
		defer broker.Unsubscribe(gameID, ch)
		defer games.Touch(gameID)

		initial, _ := json.Marshal(game.Event{Type: frameState, State: sess.Snapshot()})
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", frameState, initial)
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case f := <-ch:
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.Type, f.Data)
				flusher.Flush()
				if f.Type == string(game.EventStopped) {
					return
				}
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}
