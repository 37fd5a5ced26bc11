package dispatch

import (
	"math/rand"
	"sync"
	"time"
)

// Значения по умолчанию для политики backoff.
const (
	DefaultBaseDelay = 500 * time.Millisecond
	DefaultMaxDelay  = 5 * time.Second
)

// BackoffPolicy вычисляет паузу перед повторной попыткой.
//
// Экспоненциальный рост с ограничением сверху и случайным jitter:
//
//	raw    = min(maxDelay, baseDelay * 2^attempt)
//	jitter = uniform(0, raw/5)
//	delay  = raw + jitter
//
// Jitter размазывает повторы по времени, чтобы одновременно упавшие
// jobs не били по внешней модели в такт.
type BackoffPolicy struct {
	base time.Duration
	max  time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBackoffPolicy создаёт политику. Неположительные base и max заменяются
// на DefaultBaseDelay и DefaultMaxDelay; max не бывает меньше base.
// rng == nil — источник со случайным seed; в тестах передаётся
// детерминированный rand.New(rand.NewSource(seed)).
func NewBackoffPolicy(base, max time.Duration, rng *rand.Rand) *BackoffPolicy {
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if max <= 0 {
		max = DefaultMaxDelay
	}
	if max < base {
		max = base
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &BackoffPolicy{base: base, max: max, rng: rng}
}

// Delay возвращает паузу перед повтором после попытки attempt (нумерация с 0).
func (p *BackoffPolicy) Delay(attempt int) time.Duration {
	raw := p.base
	for i := 0; i < attempt && raw < p.max; i++ {
		raw *= 2
	}
	if raw > p.max {
		raw = p.max
	}

	p.mu.Lock()
	jitter := time.Duration(p.rng.Int63n(int64(raw/5) + 1))
	p.mu.Unlock()

	return raw + jitter
}
