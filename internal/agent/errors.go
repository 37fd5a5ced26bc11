package agent

import "errors"

// Ошибки клиента агента.
var (
	// ErrAgentCall — вызов model runtime завершился ошибкой: сеть,
	// неуспешный HTTP-статус или нечитаемый ответ.
	ErrAgentCall = errors.New("agent call failed")

	// ErrNoTextContent — в ответе модели не нашлось непустого
	// текстового блока.
	ErrNoTextContent = errors.New("no text content in model response")
)
