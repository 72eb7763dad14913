package http

import (
	"net/http"

	"live-trivia-service/internal/app"
)

// NewRouter wires the JSON API, both websocket endpoints and the health check.
func NewRouter(sessions *app.SessionService, players *app.PlayerService, defaults Defaults) *http.ServeMux {
	mux := http.NewServeMux()
	NewAPIHandler(sessions, players, defaults).Register(mux)

	ws := NewWSHandler(sessions, players)
	mux.HandleFunc("GET /ws/quizmaster", ws.ServeQuizmaster)
	mux.HandleFunc("GET /ws/player", ws.ServePlayer)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
