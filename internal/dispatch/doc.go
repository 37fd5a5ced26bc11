// Package dispatch выполняет agent jobs с ограниченным параллелизмом и ретраями.
//
// # Обзор
//
// Dispatch — ядро системы Sibylla: принимает job (ключ диалога, ввод
// пользователя, модель) и прогоняет его через медленный ненадёжный
// внешний вызов (LLM-агент) так, чтобы наружу торчал простой контракт:
// текст либо терминальная ошибка. Пакет отвечает за:
//
//   - Ограничение параллелизма фиксированным числом слотов (Pool)
//   - Ожидание результата с таймаутом, не убивающее задачу (Handle)
//   - Retry с exponential backoff и jitter (BackoffPolicy)
//   - Синхронный и фоновый режимы обработки (Process / ProcessAsync)
//   - События попыток для логов и метрик (Event, Hook)
//
// Пакет ничего не знает ни про HTTP, ни про агента, ни про хранение
// истории: наружу он смотрит только через Runner.
//
// # Ключевые компоненты
//
// ## Pool
//
// Пул воркеров с фиксированным числом слотов и ограниченной очередью.
// Submit возвращает Handle; Await ждёт результат не дольше таймаута, а
// задача, не уложившаяся в него, дорабатывает и освобождает слот сама.
//
//	pool := dispatch.NewPool(4)
//	defer pool.Shutdown(true)
//
//	handle, err := pool.Submit(task)
//	if err != nil { ... }
//	text, err := handle.Await(45 * time.Second)
//
// ## Dispatcher
//
// Цикл ретраев поверх пула. Создаётся через New(cfg Config):
//
//	d := dispatch.New(dispatch.Config{
//	    Pool:        pool,
//	    Run:         runner,
//	    MaxRetries:  2,
//	    CallTimeout: 45 * time.Second,
//	    Hook:        telemetry.DispatchHook(logger),
//	})
//	defer d.Close()
//
//	text, err := d.Process(ctx, job)   // синхронно
//	results := d.ProcessAsync(job)     // фоном, канал ёмкостью 1
//
// # Цикл обработки job
//
//  1. Пустая модель → ErrNotConfigured сразу, пул не затрагивается
//  2. Задача уходит в Pool.Submit
//  3. Результат ожидается не дольше CallTimeout
//  4. Успех → текст наружу, терминальное событие succeeded
//  5. Таймаут или ошибка → пауза BackoffPolicy.Delay(attempt), повтор
//  6. Попытки кончились → ErrRetryExhausted с последней причиной внутри
//
// Попытки одного job строго последовательны: в пуле никогда не живут
// две задачи одного job одновременно.
//
// # Ошибки
//
// Терминальные ошибки различаются сентинелами: ErrNotConfigured,
// ErrRetryExhausted, ErrPoolClosed. Ошибка отдельной попытки наружу не
// выходит — она либо гасится успешным повтором, либо оказывается внутри
// ErrRetryExhausted как последняя причина.
package dispatch
