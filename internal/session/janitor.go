package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Значения по умолчанию для Janitor.
const (
	// DefaultSweepSchedule — ежечасная очистка.
	DefaultSweepSchedule = "0 * * * *"

	// DefaultSessionTTL — диалоги без активности дольше 30 суток удаляются.
	DefaultSessionTTL = 30 * 24 * time.Hour
)

// cronParser — парсер cron-выражений (пятипольный формат).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Janitor периодически удаляет неактивные диалоги из Store.
//
// Диалог считается неактивным, если его последняя реплика старше TTL.
// Расписание запуска задаётся cron-выражением.
type Janitor struct {
	store    Store
	schedule cron.Schedule
	ttl      time.Duration
	logger   *slog.Logger

	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// JanitorConfig — конфигурация Janitor.
type JanitorConfig struct {
	Store Store

	// Schedule — cron-выражение запусков очистки (default: ежечасно).
	Schedule string

	// TTL — порог неактивности диалога (default: 30 суток).
	TTL time.Duration

	Logger *slog.Logger
}

// NewJanitor создаёт Janitor. Ошибка возможна только из-за невалидного
// cron-выражения.
func NewJanitor(cfg JanitorConfig) (*Janitor, error) {
	expr := cfg.Schedule
	if expr == "" {
		expr = DefaultSweepSchedule
	}

	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", expr, err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Janitor{
		store:    cfg.Store,
		schedule: schedule,
		ttl:      ttl,
		logger:   logger,
	}, nil
}

// Start запускает цикл очистки в фоне.
func (j *Janitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	j.cancelFunc = cancel

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.loop(ctx)
	}()
}

// Stop останавливает цикл и дожидается его выхода.
func (j *Janitor) Stop() {
	if j.cancelFunc != nil {
		j.cancelFunc()
	}
	j.wg.Wait()
}

// loop спит до следующего срабатывания расписания и запускает очистку.
func (j *Janitor) loop(ctx context.Context) {
	for {
		next := j.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.sweep(ctx)
		}
	}
}

// sweep выполняет одну очистку.
func (j *Janitor) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-j.ttl)

	removed, err := j.store.PruneIdle(ctx, cutoff)
	if err != nil {
		j.logger.Error("session sweep failed", "error", err)
		return
	}

	if removed > 0 {
		j.logger.Info("idle sessions pruned", "removed", removed, "cutoff", cutoff)
	}
}
