package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/memorama/internal/game"
)

// WSCommand is a message sent by the client over the game websocket.
type WSCommand struct {
	Type  string `json:"type"`
	Index *int   `json:"index,omitempty"`
}

const (
	wsCommandFlip  = "flip"
	wsCommandReset = "reset"
)

// handleWS streams game events over a websocket and applies the client's
// commands. The connection lives until the client leaves or the game stops.
func handleWS(logger *slog.Logger, games *Registry, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		sess := sessionFrom(r)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ch := broker.Subscribe(gameID)
		defer broker.Unsubscribe(gameID, ch)
		// The idle clock starts when the last stream closes.
		defer games.Touch(gameID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		if err := wsjson.Write(ctx, conn, game.Event{Type: frameState, State: sess.Snapshot()}); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}

		go func() {
			defer cancel()
			for {
				var cmd WSCommand
				if err := wsjson.Read(ctx, conn, &cmd); err != nil {
					logger.Debug("websocket read ended", "error", err)
					return
				}
				games.Touch(gameID)
				switch cmd.Type {
				case wsCommandFlip:
					if cmd.Index == nil {
						logger.Debug("flip without index")
						continue
					}
					sess.Click(*cmd.Index)
				case wsCommandReset:
					sess.Reset()
				default:
					logger.Debug("unknown websocket command", "type", cmd.Type)
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case f := <-ch:
				if err := conn.Write(ctx, websocket.MessageText, f.Data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
				if f.Type == string(game.EventStopped) {
					conn.Close(websocket.StatusNormalClosure, "game stopped")
					return
				}
			}
		}
	}
}
