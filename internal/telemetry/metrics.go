package telemetry

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/Sibylla/internal/dispatch"
)

// Метрики диспетчера.
var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sibylla_dispatch_attempts_total",
		Help: "Agent call attempts by outcome",
	}, []string{"outcome"})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sibylla_dispatch_jobs_total",
		Help: "Dispatched jobs by terminal outcome",
	}, []string{"outcome"})

	attemptSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sibylla_dispatch_attempt_seconds",
		Help:    "Duration of individual agent call attempts",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

// RegisterPoolGauges публикует метрики занятости пула воркеров.
// Вызывается один раз на старте процесса.
func RegisterPoolGauges(pool *dispatch.Pool) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sibylla_pool_active_tasks",
		Help: "Tasks currently executing in the worker pool",
	}, func() float64 { return float64(pool.Active()) })

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "sibylla_pool_queue_depth",
		Help: "Tasks waiting in the worker pool queue",
	}, func() float64 { return float64(pool.QueueDepth()) })
}

// DispatchHook строит обработчик событий диспетчера: структурные логи
// плюс prometheus-метрики. Сам диспетчер не логирует — вся
// наблюдаемость его работы проходит через этот hook.
func DispatchHook(logger *slog.Logger) dispatch.Hook {
	return func(ev dispatch.Event) {
		log := WithSessionID(logger, ev.SessionID)

		if !ev.Terminal {
			attemptsTotal.WithLabelValues(string(ev.Outcome)).Inc()
			attemptSeconds.Observe(ev.Elapsed.Seconds())

			switch ev.Outcome {
			case dispatch.OutcomeSucceeded:
				log.Info("agent attempt succeeded",
					"attempt", ev.Attempt,
					"elapsed", ev.Elapsed,
				)
			case dispatch.OutcomeTimedOut:
				log.Warn("agent attempt timed out",
					"attempt", ev.Attempt,
					"elapsed", ev.Elapsed,
				)
			default:
				log.Warn("agent attempt failed",
					"attempt", ev.Attempt,
					"elapsed", ev.Elapsed,
					"error", ev.Err,
				)
			}
			return
		}

		jobsTotal.WithLabelValues(string(ev.Outcome)).Inc()

		switch ev.Outcome {
		case dispatch.OutcomeSucceeded:
			log.Info("agent job complete",
				"attempts", ev.Attempt+1,
				"elapsed", ev.Elapsed,
			)
		case dispatch.OutcomeNotConfigured:
			log.Error("agent job rejected: model is not configured")
		case dispatch.OutcomeCanceled:
			log.Warn("agent job canceled by caller",
				"attempt", ev.Attempt,
				"elapsed", ev.Elapsed,
			)
		default:
			log.Error("agent job failed",
				"outcome", string(ev.Outcome),
				"attempts", ev.Attempt+1,
				"elapsed", ev.Elapsed,
				"error", ev.Err,
			)
		}
	}
}
