package api

import (
	"net/http"
)

// SessionHistory возвращает сохранённую историю диалога.
// Неизвестный диалог — пустой список: диалоги создаются неявно.
// GET /api/v1/sessions/{id}/history
func (h *Handler) SessionHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		BadRequest(w, "invalid session id")
		return
	}

	turns, err := h.store.History(r.Context(), id, 0)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	result := make([]TurnResponse, len(turns))
	for i, t := range turns {
		result[i] = TurnFromDomain(t)
	}

	List(w, result, len(result))
}

// ClearSession удаляет историю диалога.
// DELETE /api/v1/sessions/{id}
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		BadRequest(w, "invalid session id")
		return
	}

	if err := h.store.Clear(r.Context(), id); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	NoContent(w)
}
