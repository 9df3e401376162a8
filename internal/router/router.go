package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"samarth-chat/internal/handlers"
	"samarth-chat/internal/middleware"
	"samarth-chat/internal/websocket"
)

func New(
	askHandler *handlers.AskHandler,
	widgetHandler *handlers.WidgetHandler,
	wsHub *websocket.Hub,
	allowedOrigin string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(allowedOrigin))

	// Health check
	r.Get("/health", handlers.Health)

	// ──── Question answering ────
	r.Post("/ask", askHandler.Ask)

	// ──── Widget ────
	r.Get("/", widgetHandler.Page)
	r.Route("/chat", func(r chi.Router) {
		r.Post("/messages", widgetHandler.PostMessage)
		r.Get("/transcript", widgetHandler.Transcript)
	})

	// ──── WebSocket ────
	r.Get("/ws", wsHub.HandleWebSocket)

	return r
}
