package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/memorama/internal/game"
	"github.com/playperu/memorama/internal/handler/health"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type gameIDParam struct {
	GameID string `path:"gameID" description:"Game ID returned on creation."`
}

type flipParams struct {
	gameIDParam
	FlipRequest
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Memorama API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the memory card game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Reports whether new games can be created.")
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/games
	createGame, _ := r.NewOperationContext(http.MethodPost, "/api/games")
	createGame.SetSummary("Start a game")
	createGame.SetDescription("Deals a shuffled deck, opens the reveal window and starts the countdown.")
	createGame.AddRespStructure(CreateGameResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(createGame)

	// GET /api/games/{gameID}
	getGame, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}")
	getGame.SetSummary("Get game state")
	getGame.SetDescription("Returns the current deck, face-up cards and remaining time.")
	getGame.AddReqStructure(gameIDParam{})
	getGame.AddRespStructure(game.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGame)

	// DELETE /api/games/{gameID}
	deleteGame, _ := r.NewOperationContext(http.MethodDelete, "/api/games/{gameID}")
	deleteGame.SetSummary("End a game")
	deleteGame.SetDescription("Stops every timer of the game and forgets it. Open streams receive a stopped event.")
	deleteGame.AddReqStructure(gameIDParam{})
	deleteGame.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteGame)

	// POST /api/games/{gameID}/flip
	flip, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/flip")
	flip.SetSummary("Flip a card")
	flip.SetDescription("Flips the card at index. Clicks that cannot flip a card are ignored and reported as not accepted.")
	flip.AddReqStructure(flipParams{})
	flip.AddRespStructure(FlipResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	flip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	flip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(flip)

	// POST /api/games/{gameID}/reset
	reset, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/reset")
	reset.SetSummary("Restart a game")
	reset.SetDescription("Deals a new deck and restarts both timers.")
	reset.AddReqStructure(gameIDParam{})
	reset.AddRespStructure(game.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	reset.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(reset)

	// GET /api/games/{gameID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream. Opens with a state event, then one event per state change.")
	getEvents.AddReqStructure(gameIDParam{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/games/{gameID}/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/ws")
	getWS.SetSummary("Game websocket")
	getWS.SetDescription(`Upgrades to a WebSocket. Send {"type":"flip","index":n} or {"type":"reset"}; a flip without an index is ignored. ` +
		`Every state change is pushed back. The socket stays open until the client leaves or the game is deleted.`)
	getWS.AddReqStructure(gameIDParam{})
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func handleSwaggerUI() http.HandlerFunc {
	return v5emb.New("Memorama API", "/openapi.json", "/docs").ServeHTTP
}
