package api

import (
	"log/slog"

	"github.com/shaiso/Sibylla/internal/dispatch"
	"github.com/shaiso/Sibylla/internal/session"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	store      session.Store
	model      string
	token      string
	logger     *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Dispatcher *dispatch.Dispatcher
	Store      session.Store

	// Model — модель по умолчанию для запросов без переопределения.
	Model string

	// Token — bearer-токен входящих запросов.
	Token string

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		dispatcher: cfg.Dispatcher,
		store:      cfg.Store,
		model:      cfg.Model,
		token:      cfg.Token,
		logger:     logger,
	}
}
