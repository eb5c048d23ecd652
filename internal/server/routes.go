package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/memorama/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, games *Registry, broker *Broker, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", handleSwaggerUI())
	r.Mount("/healthz", health.NewHandler(logger, map[string]health.Checker{
		"games": games,
	}).Routes())

	r.Post("/api/games", handleCreateGame(games))

	// {gameID} resolved by gameMiddleware.
	r.Route("/api/games/{gameID}", func(r chi.Router) {
		r.Use(gameMiddleware(games))
		r.Get("/", handleGetGame())
		r.Delete("/", handleDeleteGame(games))
		r.Post("/flip", handleFlip())
		r.Post("/reset", handleReset())
		r.Get("/events", handleEvents(games, broker))
		r.Get("/ws", handleWS(logger, games, broker))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
