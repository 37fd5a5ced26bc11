package session

import "time"

// Роли реплик диалога.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn — одна реплика диалога.
type Turn struct {
	// Role — кто говорит: user или assistant.
	Role string `json:"role"`

	// Content — текст реплики.
	Content string `json:"content"`

	// CreatedAt — время записи.
	CreatedAt time.Time `json:"created_at"`
}
