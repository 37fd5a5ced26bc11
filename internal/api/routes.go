package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		RequestID(),
		Recovery(h.logger),
		Logging(h.logger),
		Auth(h.token),
	)

	// Chat
	mux.Handle("POST /api/v1/chat", chain(http.HandlerFunc(h.Chat)))
	mux.Handle("POST /api/v1/requests", chain(http.HandlerFunc(h.SubmitRequest)))

	// Sessions
	mux.Handle("GET /api/v1/sessions/{id}/history", chain(http.HandlerFunc(h.SessionHistory)))
	mux.Handle("DELETE /api/v1/sessions/{id}", chain(http.HandlerFunc(h.ClearSession)))
}
