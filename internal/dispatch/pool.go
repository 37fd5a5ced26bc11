package dispatch

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPoolSize — число слотов пула по умолчанию.
const DefaultPoolSize = 4

// Task — блокирующая единица работы для пула.
type Task func() (string, error)

// Handle — будущий результат одной задачи.
type Handle struct {
	done  chan struct{}
	value string
	err   error
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// complete записывает результат и будит ожидающих. Вызывается ровно один раз.
func (h *Handle) complete(value string, err error) {
	h.value = value
	h.err = err
	close(h.done)
}

// Done возвращает канал, закрываемый по готовности результата.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result возвращает результат задачи. Валиден только после закрытия Done.
func (h *Handle) Result() (string, error) {
	return h.value, h.err
}

// Await блокирует вызывающего до готовности результата, но не дольше
// timeout. По истечении timeout возвращает ErrExecutionTimeout; сама
// задача при этом продолжает выполняться в пуле и освободит слот, когда
// закончит. Await не трогает другие слоты и других ожидающих.
func (h *Handle) Await(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.done:
		return h.value, h.err
	case <-timer.C:
		return "", ErrExecutionTimeout
	}
}

// Pool — пул воркеров с фиксированным числом слотов для блокирующих задач.
//
// Слоты — единственный ограничитель параллелизма: сколько бы вызовов ни
// было в полёте, одновременно выполняется не больше slots задач. Очередь
// ограничена (slots*2); при её заполнении Submit блокируется — обратное
// давление вместо неограниченного роста.
type Pool struct {
	queue chan *poolTask
	slots int

	mu         sync.RWMutex
	closed     bool
	closedCh   chan struct{}
	submitters sync.WaitGroup

	failPending atomic.Bool

	wg       sync.WaitGroup
	active   atomic.Int32
	stopOnce sync.Once
}

type poolTask struct {
	run    Task
	handle *Handle
}

// NewPool создаёт пул и запускает slots воркеров.
// Неположительный slots заменяется на DefaultPoolSize.
func NewPool(slots int) *Pool {
	if slots <= 0 {
		slots = DefaultPoolSize
	}

	p := &Pool{
		queue:    make(chan *poolTask, slots*2),
		slots:    slots,
		closedCh: make(chan struct{}),
	}

	for i := 0; i < slots; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

// Submit ставит задачу в очередь и возвращает Handle для ожидания
// результата. После Shutdown возвращает ErrPoolClosed, не блокируясь.
func (p *Pool) Submit(task Task) (*Handle, error) {
	if task == nil {
		return nil, fmt.Errorf("dispatch: nil task")
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	// Регистрируемся под блокировкой: Shutdown дождётся выхода всех
	// submitters прежде чем закрыть очередь.
	p.submitters.Add(1)
	p.mu.RUnlock()
	defer p.submitters.Done()

	t := &poolTask{run: task, handle: newHandle()}

	select {
	case p.queue <- t:
		return t.handle, nil
	case <-p.closedCh:
		return nil, ErrPoolClosed
	}
}

// worker выбирает задачи из очереди, пока она не закрыта.
func (p *Pool) worker() {
	defer p.wg.Done()

	for t := range p.queue {
		if p.failPending.Load() {
			t.handle.complete("", ErrPoolClosed)
			continue
		}
		p.runTask(t)
	}
}

// runTask выполняет задачу с перехватом panic: паника внутри задачи не
// валит процесс и не съедает слот, а превращается в ErrExecutionFailed.
func (p *Pool) runTask(t *poolTask) {
	p.active.Add(1)
	defer p.active.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			t.handle.complete("", fmt.Errorf("%w: panic: %v", ErrExecutionFailed, r))
		}
	}()

	value, err := t.run()
	t.handle.complete(value, err)
}

// Shutdown останавливает пул. Повторные вызовы — no-op.
//
// drain=true: дождаться завершения всех принятых задач, включая ещё не
// начатые. drain=false: не начатые задачи завершаются с ErrPoolClosed,
// возврат не дожидается выполняющихся задач — их горутины доработают и
// завершатся сами.
func (p *Pool) Shutdown(drain bool) {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		// Выталкиваем заблокированные Submit и дожидаемся их выхода:
		// после этого в очередь гарантированно никто не пишет.
		close(p.closedCh)
		p.submitters.Wait()

		if !drain {
			p.failPending.Store(true)
		}
		close(p.queue)

		if drain {
			p.wg.Wait()
			return
		}

		// Разбираем очередь наравне с воркерами, не дожидаясь занятых.
		for t := range p.queue {
			t.handle.complete("", ErrPoolClosed)
		}
	})
}

// Active возвращает число выполняющихся прямо сейчас задач.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// QueueDepth возвращает число задач, ожидающих в очереди.
func (p *Pool) QueueDepth() int {
	return len(p.queue)
}

// Slots возвращает размер пула.
func (p *Pool) Slots() int {
	return p.slots
}
