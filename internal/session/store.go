package session

import (
	"context"
	"time"
)

// Store — хранилище истории диалогов.
//
// Историей владеет воркер (agent.Client): он читает её перед вызовом
// модели и дописывает состоявшийся обмен. Диспетчер про историю не
// знает ничего. Реализации: PGStore (Postgres) и MemStore (in-memory
// fallback на случай недоступной БД).
type Store interface {
	// History возвращает последние limit реплик диалога в
	// хронологическом порядке. limit <= 0 — вся история.
	// Неизвестный sessionID — пустой результат, не ошибка.
	History(ctx context.Context, sessionID string, limit int) ([]Turn, error)

	// Append дописывает реплики в конец диалога. Диалог создаётся
	// неявно первой записью.
	Append(ctx context.Context, sessionID string, turns ...Turn) error

	// Clear удаляет диалог целиком. Удаление несуществующего — no-op.
	Clear(ctx context.Context, sessionID string) error

	// PruneIdle удаляет диалоги, у которых последняя реплика старше
	// olderThan. Возвращает число удалённых записей.
	PruneIdle(ctx context.Context, olderThan time.Time) (int64, error)
}
