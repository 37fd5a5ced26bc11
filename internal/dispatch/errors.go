package dispatch

import "errors"

// Ошибки диспетчера и пула.
var (
	// ErrNotConfigured — для job не задана модель; запрос отклоняется
	// до первой попытки, пул не затрагивается.
	ErrNotConfigured = errors.New("model is not configured")

	// ErrExecutionTimeout — попытка не уложилась в call timeout.
	ErrExecutionTimeout = errors.New("execution timeout")

	// ErrExecutionFailed — задача аварийно завершилась внутри пула (panic).
	ErrExecutionFailed = errors.New("execution failed")

	// ErrRetryExhausted — все попытки исчерпаны.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrPoolClosed — операция с пулом после Shutdown.
	ErrPoolClosed = errors.New("worker pool is closed")
)
