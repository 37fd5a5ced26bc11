package api

import (
	"time"

	"github.com/shaiso/Sibylla/internal/session"
)

// Chat DTOs

// ChatRequest — диалоговый запрос к агенту.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Input     string `json:"input"`

	// Model — переопределение модели для этого запроса (опционально).
	Model string `json:"model,omitempty"`
}

// ChatResponse — ответ с текстом агента.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// AckResponse — подтверждение принятого в фон запроса.
type AckResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// Session DTOs

// TurnResponse — одна реплика истории диалога.
type TurnResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TurnFromDomain конвертирует session.Turn в TurnResponse.
func TurnFromDomain(t session.Turn) TurnResponse {
	return TurnResponse{
		Role:      t.Role,
		Content:   t.Content,
		CreatedAt: t.CreatedAt,
	}
}
