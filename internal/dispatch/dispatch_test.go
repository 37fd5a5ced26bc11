package dispatch

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// eventRecorder собирает события диспетчера для проверок.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) hook() Hook {
	return func(ev Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, ev)
	}
}

func (r *eventRecorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// fastBackoff — миллисекундные паузы, чтобы тесты не спали.
func fastBackoff() *BackoffPolicy {
	return NewBackoffPolicy(time.Millisecond, 2*time.Millisecond, rand.New(rand.NewSource(1)))
}

// --- Dispatcher Tests ---

func TestDispatcher_SucceedsAfterRetries(t *testing.T) {
	pool := NewPool(2)
	defer pool.Shutdown(true)

	// Первые две попытки падают, третья отвечает.
	var calls atomic.Int32
	rec := &eventRecorder{}

	d := New(Config{
		Pool: pool,
		Run: func(job Job) (string, error) {
			if calls.Add(1) <= 2 {
				return "", errors.New("upstream hiccup")
			}
			return "answer", nil
		},
		MaxRetries: 2,
		Backoff:    fastBackoff(),
		Hook:       rec.hook(),
	})
	defer d.Close()

	text, err := d.Process(context.Background(), Job{SessionID: "s1", Input: "hello", Model: "m1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "answer" {
		t.Errorf("expected answer, got %q", text)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", got)
	}

	events := rec.all()
	outcomes := make([]Outcome, 0, len(events))
	for _, ev := range events {
		outcomes = append(outcomes, ev.Outcome)
	}

	// Две неудачные попытки, успешная, терминальный успех.
	want := []Outcome{OutcomeFailed, OutcomeFailed, OutcomeSucceeded, OutcomeSucceeded}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d (%v)", len(want), len(events), outcomes)
	}
	for i, ev := range events {
		if ev.Outcome != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], ev.Outcome)
		}
	}
	if !events[len(events)-1].Terminal {
		t.Error("last event must be terminal")
	}
}

func TestDispatcher_ExhaustsRetries(t *testing.T) {
	pool := NewPool(2)
	defer pool.Shutdown(true)

	var calls atomic.Int32
	cause := errors.New("permanently broken")
	rec := &eventRecorder{}

	d := New(Config{
		Pool: pool,
		Run: func(job Job) (string, error) {
			calls.Add(1)
			return "", cause
		},
		MaxRetries: 2,
		Backoff:    fastBackoff(),
		Hook:       rec.hook(),
	})
	defer d.Close()

	_, err := d.Process(context.Background(), Job{SessionID: "s1", Input: "hello", Model: "m1"})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	// Последняя причина должна быть видна в тексте ошибки.
	if got := err.Error(); !strings.Contains(got, "permanently broken") {
		t.Errorf("exhausted error should carry the last cause, got %q", got)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", got)
	}

	events := rec.all()
	if len(events) == 0 {
		t.Fatal("expected events")
	}
	last := events[len(events)-1]
	if !last.Terminal || last.Outcome != OutcomeExhausted {
		t.Errorf("expected terminal exhausted event, got terminal=%v outcome=%s", last.Terminal, last.Outcome)
	}
	for i, ev := range events[:len(events)-1] {
		if ev.Attempt != i {
			t.Errorf("event %d: expected attempt %d, got %d", i, i, ev.Attempt)
		}
		if ev.Outcome != OutcomeFailed {
			t.Errorf("event %d: expected failed, got %s", i, ev.Outcome)
		}
	}
}

func TestDispatcher_ZeroRetriesMeansSingleAttempt(t *testing.T) {
	pool := NewPool(1)
	defer pool.Shutdown(true)

	var calls atomic.Int32
	d := New(Config{
		Pool: pool,
		Run: func(job Job) (string, error) {
			calls.Add(1)
			return "", errors.New("nope")
		},
		MaxRetries: 0,
		Backoff:    fastBackoff(),
	})
	defer d.Close()

	_, err := d.Process(context.Background(), Job{SessionID: "s1", Input: "x", Model: "m1"})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("MaxRetries=0 means exactly one attempt, got %d", got)
	}
}

func TestDispatcher_NotConfiguredFailsFast(t *testing.T) {
	pool := NewPool(1)
	defer pool.Shutdown(true)

	var calls atomic.Int32
	rec := &eventRecorder{}

	d := New(Config{
		Pool: pool,
		Run: func(job Job) (string, error) {
			calls.Add(1)
			return "never", nil
		},
		Backoff: fastBackoff(),
		Hook:    rec.hook(),
	})
	defer d.Close()

	_, err := d.Process(context.Background(), Job{SessionID: "s1", Input: "x", Model: ""})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	// Ни одной попытки, пул не затронут.
	if got := calls.Load(); got != 0 {
		t.Errorf("expected zero attempts, got %d", got)
	}
	if got := pool.QueueDepth(); got != 0 {
		t.Errorf("pool queue should stay empty, got %d", got)
	}

	events := rec.all()
	if len(events) != 1 {
		t.Fatalf("expected a single terminal event, got %d", len(events))
	}
	if !events[0].Terminal || events[0].Outcome != OutcomeNotConfigured {
		t.Errorf("expected terminal not_configured, got terminal=%v outcome=%s", events[0].Terminal, events[0].Outcome)
	}
}

func TestDispatcher_AttemptTimeoutIsRetried(t *testing.T) {
	// Два слота: первая попытка повиснет и займёт слот до конца теста,
	// вторая должна выполниться на свободном.
	pool := NewPool(2)

	release := make(chan struct{})
	var calls atomic.Int32
	rec := &eventRecorder{}

	d := New(Config{
		Pool: pool,
		Run: func(job Job) (string, error) {
			calls.Add(1)
			<-release
			return "too late", nil
		},
		MaxRetries:  1,
		CallTimeout: time.Second,
		Backoff:     fastBackoff(),
		Hook:        rec.hook(),
	})

	_, err := d.Process(context.Background(), Job{SessionID: "s1", Input: "x", Model: "m1"})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}

	for i, ev := range rec.all() {
		if ev.Terminal {
			continue
		}
		if ev.Outcome != OutcomeTimedOut {
			t.Errorf("event %d: expected timed_out, got %s", i, ev.Outcome)
		}
	}

	// Освобождаем повисшие в пуле задачи и дожидаемся их.
	close(release)
	d.Close()
	pool.Shutdown(true)
}

func TestDispatcher_CancelDuringBackoff(t *testing.T) {
	pool := NewPool(1)
	defer pool.Shutdown(true)

	var calls atomic.Int32
	d := New(Config{
		Pool: pool,
		Run: func(job Job) (string, error) {
			calls.Add(1)
			return "", errors.New("fail once")
		},
		MaxRetries: 3,
		// Большие паузы: отмена должна сработать во время backoff.
		Backoff: NewBackoffPolicy(5*time.Second, 10*time.Second, rand.New(rand.NewSource(1))),
	})
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := d.Process(ctx, Job{SessionID: "s1", Input: "x", Model: "m1"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancel should interrupt backoff promptly, took %v", elapsed)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected a single attempt before cancel, got %d", got)
	}
}

func TestDispatcher_RejectsWhenPoolClosed(t *testing.T) {
	pool := NewPool(1)
	pool.Shutdown(true)

	rec := &eventRecorder{}
	d := New(Config{
		Pool:    pool,
		Run:     func(job Job) (string, error) { return "never", nil },
		Backoff: fastBackoff(),
		Hook:    rec.hook(),
	})
	defer d.Close()

	_, err := d.Process(context.Background(), Job{SessionID: "s1", Input: "x", Model: "m1"})
	if !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}

	events := rec.all()
	if len(events) != 1 || !events[0].Terminal || events[0].Outcome != OutcomeRejected {
		t.Fatalf("expected a single terminal rejected event, got %+v", events)
	}
}

func TestDispatcher_ConfigClamps(t *testing.T) {
	pool := NewPool(1)
	defer pool.Shutdown(true)

	d := New(Config{
		Pool:        pool,
		Run:         func(job Job) (string, error) { return "", nil },
		MaxRetries:  -5,
		CallTimeout: -3 * time.Second,
	})
	defer d.Close()

	if d.maxRetries != 0 {
		t.Errorf("negative MaxRetries must clamp to 0, got %d", d.maxRetries)
	}
	if d.callTimeout != minCallTimeout {
		t.Errorf("non-positive CallTimeout must clamp to %v, got %v", minCallTimeout, d.callTimeout)
	}
}

// --- ProcessAsync Tests ---

func TestDispatcher_ProcessAsyncDeliversResult(t *testing.T) {
	pool := NewPool(2)
	defer pool.Shutdown(true)

	d := New(Config{
		Pool:    pool,
		Run:     func(job Job) (string, error) { return "background answer", nil },
		Backoff: fastBackoff(),
	})
	defer d.Close()

	res := <-d.ProcessAsync(Job{SessionID: "s1", Input: "x", Model: "m1"})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Text != "background answer" {
		t.Errorf("expected background answer, got %q", res.Text)
	}
}

func TestDispatcher_ProcessAsyncFireAndForget(t *testing.T) {
	pool := NewPool(2)
	defer pool.Shutdown(true)

	done := make(chan struct{})
	var once sync.Once

	d := New(Config{
		Pool: pool,
		Run: func(job Job) (string, error) {
			once.Do(func() { close(done) })
			return "ignored", nil
		},
		Backoff: fastBackoff(),
	})
	defer d.Close()

	// Канал никто не читает — job всё равно выполняется и завершается.
	d.ProcessAsync(Job{SessionID: "s1", Input: "x", Model: "m1"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background job never ran")
	}
}

func TestDispatcher_CloseCancelsBackgroundJobs(t *testing.T) {
	pool := NewPool(1)

	release := make(chan struct{})
	d := New(Config{
		Pool: pool,
		Run: func(job Job) (string, error) {
			<-release
			return "late", nil
		},
		CallTimeout: 30 * time.Second,
		Backoff:     fastBackoff(),
	})

	ch := d.ProcessAsync(Job{SessionID: "s1", Input: "x", Model: "m1"})

	// Даём job дойти до ожидания результата, затем закрываемся.
	time.Sleep(50 * time.Millisecond)
	d.Close()

	select {
	case res := <-ch:
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close should unblock background jobs")
	}

	close(release)
	pool.Shutdown(true)
}

func TestDispatcher_CloseIdempotent(t *testing.T) {
	d := New(Config{
		Run:     func(job Job) (string, error) { return "", nil },
		Backoff: fastBackoff(),
	})

	d.Close()
	d.Close()
}
