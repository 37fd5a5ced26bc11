package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// minCallTimeout — нижняя граница call timeout. Неположительный или
// слишком маленький таймаут поднимается до этого значения, а не
// превращается молча в «без таймаута».
const minCallTimeout = time.Second

// Job — единица работы диспетчера.
type Job struct {
	// SessionID — ключ диалога, сквозной идентификатор job.
	SessionID string

	// Input — текст запроса пользователя.
	Input string

	// Model — идентификатор модели. Пустое значение означает, что
	// модель не сконфигурирована: job отклоняется без единой попытки.
	Model string
}

// Result — терминальный исход job для фонового вызова.
type Result struct {
	Text string
	Err  error
}

// Runner — блокирующий вызов воркера: обращение к агенту плюс
// извлечение текста из ответа. Диспетчер деталей не знает, только
// контракт: текст либо ошибка.
type Runner func(job Job) (string, error)

// Dispatcher выполняет jobs через пул воркеров с ретраями.
//
// Оба вызова — синхронный Process и фоновый ProcessAsync — проходят
// один и тот же цикл: задача уходит в пул, результат ожидается не
// дольше callTimeout, при неуспехе выдерживается пауза по BackoffPolicy
// и следует новая попытка, всего не больше maxRetries+1 выполнений.
// Попытки одного job строго последовательны; разные jobs между собой
// никак не упорядочены.
type Dispatcher struct {
	pool    *Pool
	ownPool bool
	run     Runner
	backoff *BackoffPolicy
	hook    Hook

	maxRetries  int
	callTimeout time.Duration

	baseCtx    context.Context
	cancelBase context.CancelFunc
	jobs       sync.WaitGroup
	closeOnce  sync.Once
}

// Config — конфигурация Dispatcher.
type Config struct {
	// Pool — пул воркеров. Если задан, диспетчер им пользуется, но не
	// владеет: за Shutdown отвечает создавший пул код. nil — диспетчер
	// создаёт собственный пул и закрывает его в Close.
	Pool *Pool

	// Run — блокирующий вызов воркера. Обязателен.
	Run Runner

	// MaxRetries — число повторов после первой попытки.
	// 0 — ровно одна попытка; отрицательное значение приводится к 0.
	MaxRetries int

	// CallTimeout — лимит ожидания одной попытки. Значения меньше
	// секунды, включая нулевое, поднимаются до секунды.
	CallTimeout time.Duration

	// Backoff — политика пауз между попытками (default: 500ms..5s).
	Backoff *BackoffPolicy

	// Hook — получатель событий попыток. Опционален.
	Hook Hook
}

// New создаёт Dispatcher.
func New(cfg Config) *Dispatcher {
	pool := cfg.Pool
	ownPool := false
	if pool == nil {
		pool = NewPool(DefaultPoolSize)
		ownPool = true
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	callTimeout := cfg.CallTimeout
	if callTimeout < minCallTimeout {
		callTimeout = minCallTimeout
	}

	backoff := cfg.Backoff
	if backoff == nil {
		backoff = NewBackoffPolicy(DefaultBaseDelay, DefaultMaxDelay, nil)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		pool:        pool,
		ownPool:     ownPool,
		run:         cfg.Run,
		backoff:     backoff,
		hook:        cfg.Hook,
		maxRetries:  maxRetries,
		callTimeout: callTimeout,
		baseCtx:     ctx,
		cancelBase:  cancel,
	}
}

// Process выполняет job синхронно: блокирует вызывающую горутину до
// текста ответа или терминальной ошибки.
//
// ctx отменяет только ожидание: уже запущенная в пуле попытка
// доработает и освободит слот сама. Терминальные ошибки: ErrNotConfigured,
// ErrRetryExhausted, ErrPoolClosed, ошибка ctx.
func (d *Dispatcher) Process(ctx context.Context, job Job) (string, error) {
	if job.Model == "" {
		d.emit(Event{SessionID: job.SessionID, Terminal: true, Outcome: OutcomeNotConfigured, Err: ErrNotConfigured})
		return "", ErrNotConfigured
	}

	jobStart := time.Now()
	var lastErr error

	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		handle, err := d.pool.Submit(d.taskFor(job))
		if err != nil {
			d.emit(Event{SessionID: job.SessionID, Attempt: attempt, Terminal: true, Outcome: OutcomeRejected, Err: err, Elapsed: time.Since(jobStart)})
			return "", err
		}

		attemptStart := time.Now()
		text, ok, err := d.await(ctx, handle)
		if !ok {
			d.emit(Event{SessionID: job.SessionID, Attempt: attempt, Terminal: true, Outcome: OutcomeCanceled, Err: ctx.Err(), Elapsed: time.Since(jobStart)})
			return "", ctx.Err()
		}
		elapsed := time.Since(attemptStart)

		switch {
		case err == nil:
			d.emit(Event{SessionID: job.SessionID, Attempt: attempt, Outcome: OutcomeSucceeded, Elapsed: elapsed})
			d.emit(Event{SessionID: job.SessionID, Attempt: attempt, Terminal: true, Outcome: OutcomeSucceeded, Elapsed: time.Since(jobStart)})
			return text, nil

		case errors.Is(err, ErrPoolClosed):
			// Пул закрылся под ногами — ретраи бессмысленны.
			d.emit(Event{SessionID: job.SessionID, Attempt: attempt, Terminal: true, Outcome: OutcomeRejected, Err: err, Elapsed: time.Since(jobStart)})
			return "", err

		case errors.Is(err, ErrExecutionTimeout):
			d.emit(Event{SessionID: job.SessionID, Attempt: attempt, Outcome: OutcomeTimedOut, Err: err, Elapsed: elapsed})
			lastErr = err

		default:
			d.emit(Event{SessionID: job.SessionID, Attempt: attempt, Outcome: OutcomeFailed, Err: err, Elapsed: elapsed})
			lastErr = err
		}

		if attempt < d.maxRetries {
			if !d.sleep(ctx, d.backoff.Delay(attempt)) {
				d.emit(Event{SessionID: job.SessionID, Attempt: attempt, Terminal: true, Outcome: OutcomeCanceled, Err: ctx.Err(), Elapsed: time.Since(jobStart)})
				return "", ctx.Err()
			}
		}
	}

	err := fmt.Errorf("%w: last error: %v", ErrRetryExhausted, lastErr)
	d.emit(Event{SessionID: job.SessionID, Attempt: d.maxRetries, Terminal: true, Outcome: OutcomeExhausted, Err: err, Elapsed: time.Since(jobStart)})
	return "", err
}

// ProcessAsync ставит job на фоновое выполнение и немедленно возвращает
// канал ёмкостью 1 с терминальным результатом. Канал можно не читать
// вовсе (fire-and-forget) или прочитать позже — горутина job на нём не
// застревает. Фоновый job живёт на контексте диспетчера и обрывается
// только при Close.
func (d *Dispatcher) ProcessAsync(job Job) <-chan Result {
	ch := make(chan Result, 1)

	d.jobs.Add(1)
	go func() {
		defer d.jobs.Done()
		text, err := d.Process(d.baseCtx, job)
		ch <- Result{Text: text, Err: err}
	}()

	return ch
}

// Close останавливает диспетчер: ожидающие jobs обрываются, новые
// попытки не начинаются. Уже запущенные в пуле задачи доработают — их
// дожидается Shutdown пула. Собственный пул, если он был создан в New,
// закрывается здесь с drain. Повторные вызовы — no-op.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.cancelBase()
		d.jobs.Wait()
		if d.ownPool {
			d.pool.Shutdown(true)
		}
	})
}

// taskFor оборачивает job в задачу для пула. Запущенная задача намеренно
// не привязана к контексту ожидания: отказ вызывающей стороны ждать не
// обрывает обращение к агенту на середине.
func (d *Dispatcher) taskFor(job Job) Task {
	return func() (string, error) {
		return d.run(job)
	}
}

// await ждёт результат попытки не дольше callTimeout.
// ok=false означает, что первым сработал ctx вызывающей стороны.
func (d *Dispatcher) await(ctx context.Context, handle *Handle) (text string, ok bool, err error) {
	timer := time.NewTimer(d.callTimeout)
	defer timer.Stop()

	select {
	case <-handle.Done():
		text, err = handle.Result()
		return text, true, err
	case <-timer.C:
		return "", true, ErrExecutionTimeout
	case <-ctx.Done():
		return "", false, nil
	}
}

// sleep выдерживает паузу между попытками. false — ctx отменён раньше.
func (d *Dispatcher) sleep(ctx context.Context, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (d *Dispatcher) emit(ev Event) {
	if d.hook != nil {
		d.hook(ev)
	}
}
