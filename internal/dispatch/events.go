package dispatch

import "time"

// Outcome — исход одной попытки или job в целом.
type Outcome string

const (
	// OutcomeSucceeded — получен текст ответа.
	OutcomeSucceeded Outcome = "succeeded"

	// OutcomeTimedOut — попытка не уложилась в call timeout.
	OutcomeTimedOut Outcome = "timed_out"

	// OutcomeFailed — вызов воркера завершился ошибкой.
	OutcomeFailed Outcome = "failed"

	// OutcomeExhausted — все попытки исчерпаны. Терминальный исход.
	OutcomeExhausted Outcome = "exhausted"

	// OutcomeNotConfigured — job отклонён до первой попытки: модель
	// не задана. Терминальный исход.
	OutcomeNotConfigured Outcome = "not_configured"

	// OutcomeRejected — пул закрыт, job отклонён. Терминальный исход.
	OutcomeRejected Outcome = "rejected"

	// OutcomeCanceled — ожидание прервано контекстом вызывающей стороны.
	// Терминальный исход.
	OutcomeCanceled Outcome = "canceled"
)

// Event — одно наблюдаемое событие диспетчера.
//
// Диспетчер сам не пишет логи и не считает метрики: на каждую попытку
// и на терминальный исход job он отдаёт Event в Hook, а что с ним
// делать — решает потребитель (см. telemetry.DispatchHook).
type Event struct {
	// SessionID — ключ job.
	SessionID string

	// Attempt — номер попытки, с нуля.
	Attempt int

	// Terminal — true для итогового события job; после него событий
	// по этому job не будет.
	Terminal bool

	// Outcome — исход попытки или job.
	Outcome Outcome

	// Err — ошибка для неуспешных исходов.
	Err error

	// Elapsed — длительность попытки; для терминальных событий — job целиком.
	Elapsed time.Duration
}

// Hook получает события диспетчера. Вызывается синхронно из горутины,
// обрабатывающей job, поэтому обработчик должен быть быстрым и
// потокобезопасным.
type Hook func(Event)
