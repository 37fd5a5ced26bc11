package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shaiso/Sibylla/internal/agent"
	"github.com/shaiso/Sibylla/internal/api"
	"github.com/shaiso/Sibylla/internal/config"
	"github.com/shaiso/Sibylla/internal/dispatch"
	"github.com/shaiso/Sibylla/internal/session"
	"github.com/shaiso/Sibylla/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sibylla_api_http_requests_total",
		Help: "Total HTTP requests handled by sibylla_api",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting sibylla-api")

	cfg := config.Load()
	if cfg.Model == "" {
		logger.Warn("MODEL_ID is not set, requests without an explicit model will be rejected")
	}

	// Хранилище сессий: Postgres, если задан DB_URL, иначе память
	var store session.Store
	if cfg.DBURL != "" {
		dbPool, err := session.NewDBPool(context.Background(), cfg.DBURL)
		if err != nil {
			logger.Warn("database unavailable, using in-memory session store", "error", err)
			store = session.NewMemStore()
		} else {
			defer dbPool.Close()
			pg := session.NewPGStore(dbPool)
			if err := pg.Init(context.Background()); err != nil {
				logger.Error("failed to init session schema", "error", err)
				os.Exit(1)
			}
			store = pg
			logger.Info("connected to database")
		}
	} else {
		logger.Info("DB_URL is not set, using in-memory session store")
		store = session.NewMemStore()
	}

	// Janitor чистит простаивающие сессии по расписанию
	janitor, err := session.NewJanitor(session.JanitorConfig{
		Store:    store,
		Schedule: cfg.SweepSchedule,
		TTL:      cfg.SessionTTL,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("invalid sweep schedule", "error", err)
		os.Exit(1)
	}
	janitor.Start(context.Background())

	// Клиент model runtime
	agentClient := agent.NewClient(agent.Config{
		BaseURL:      cfg.AgentBaseURL,
		APIKey:       cfg.AgentAPIKey,
		Store:        store,
		HistoryLimit: cfg.HistoryLimit,
	})

	// Пул воркеров и диспетчер
	pool := dispatch.NewPool(cfg.PoolSize)
	telemetry.RegisterPoolGauges(pool)

	dispatcher := dispatch.New(dispatch.Config{
		Pool: pool,
		Run: func(job dispatch.Job) (string, error) {
			resp, err := agentClient.Complete(context.Background(), job.SessionID, job.Input, job.Model)
			if err != nil {
				return "", err
			}
			return agent.FinalText(resp)
		},
		MaxRetries:  cfg.MaxRetries,
		CallTimeout: cfg.CallTimeout,
		Backoff:     dispatch.NewBackoffPolicy(cfg.BaseDelay, cfg.MaxDelay, nil),
		Hook:        telemetry.DispatchHook(logger),
	})

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Dispatcher: dispatcher,
		Store:      store,
		Model:      cfg.Model,
		Token:      cfg.APIToken,
		Logger:     logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	// CORS оборачивает весь mux: preflight OPTIONS должен добраться до
	// middleware раньше, чем 405 от method-specific маршрутов
	var root http.Handler = mux
	if len(cfg.CORSAllowOrigins) > 0 {
		root = api.CORS(cfg.CORSAllowOrigins)(mux)
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: root,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	// Сначала диспетчер (фоновые jobs), затем пул дорабатывает начатое
	dispatcher.Close()
	pool.Shutdown(true)
	janitor.Stop()

	logger.Info("stopped")
}
