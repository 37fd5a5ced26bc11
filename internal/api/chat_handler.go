package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/Sibylla/internal/dispatch"
)

// Chat выполняет диалоговый запрос и ждёт текст ответа.
// POST /api/v1/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobFromRequest(w, r)
	if !ok {
		return
	}

	text, err := h.dispatcher.Process(r.Context(), job)
	if HandleDispatchError(w, h.logger, err) {
		return
	}

	Success(w, ChatResponse{SessionID: job.SessionID, Text: text})
}

// SubmitRequest принимает запрос в фоновую обработку и отвечает сразу.
// Результат не возвращается: он уходит в историю диалога и в логи.
// POST /api/v1/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	job, ok := h.jobFromRequest(w, r)
	if !ok {
		return
	}

	h.dispatcher.ProcessAsync(job)

	Accepted(w, AckResponse{
		SessionID: job.SessionID,
		Status:    "accepted",
		Message:   "request accepted; processing continues in the background",
	})
}

// jobFromRequest разбирает и валидирует тело диалогового запроса.
func (h *Handler) jobFromRequest(w http.ResponseWriter, r *http.Request) (dispatch.Job, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return dispatch.Job{}, false
	}

	if req.SessionID == "" {
		BadRequest(w, "session_id is required")
		return dispatch.Job{}, false
	}
	if req.Input == "" {
		BadRequest(w, "input is required")
		return dispatch.Job{}, false
	}

	model := req.Model
	if model == "" {
		model = h.model
	}

	return dispatch.Job{SessionID: req.SessionID, Input: req.Input, Model: model}, true
}
