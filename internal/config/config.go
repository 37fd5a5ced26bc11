package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Значения по умолчанию.
const (
	DefaultAddr         = ":8080"
	DefaultAgentBaseURL = "http://localhost:8091"
	DefaultMaxRetries   = 2
	DefaultBaseDelay    = 500 * time.Millisecond
	DefaultMaxDelay     = 5 * time.Second
	DefaultCallTimeout  = 45 * time.Second
	DefaultPoolSize     = 4
	DefaultHistoryLimit = 40
)

// Config — конфигурация процесса, собранная из переменных окружения.
// Загружается один раз на старте и дальше не меняется: смена настроек —
// это рестарт, а не горячая правка под ногами у выполняющихся jobs.
type Config struct {
	// Addr — адрес HTTP-сервера (API_PORT).
	Addr string

	// Model — модель по умолчанию (MODEL_ID). Пустое значение не
	// фатально на старте, но каждый запрос без явной модели будет
	// отклонён диспетчером.
	Model string

	// APIToken — bearer-токен входящих запросов (API_TOKEN). Не задан —
	// защищённые endpoints отвечают 500, а не пускают всех подряд.
	APIToken string

	// AgentBaseURL — адрес model runtime (AGENT_BASE_URL).
	AgentBaseURL string

	// AgentAPIKey — bearer-токен model runtime (AGENT_API_KEY).
	AgentAPIKey string

	// MaxRetries — повторы после первой попытки (AGENT_MAX_RETRIES).
	MaxRetries int

	// BaseDelay и MaxDelay — границы exponential backoff
	// (AGENT_RETRY_BACKOFF_BASE, AGENT_RETRY_BACKOFF_MAX).
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// CallTimeout — лимит ожидания одной попытки (AGENT_CALL_TIMEOUT).
	CallTimeout time.Duration

	// PoolSize — слоты пула воркеров (AGENT_POOL_SIZE).
	PoolSize int

	// HistoryLimit — сколько последних реплик отдавать модели
	// (AGENT_HISTORY_LIMIT).
	HistoryLimit int

	// DBURL — DSN Postgres (DB_URL). Пустое значение — история в памяти.
	DBURL string

	// SessionTTL — порог неактивности диалога (SESSION_TTL).
	// SweepSchedule — cron-выражение очистки (SESSION_SWEEP_SCHEDULE).
	SessionTTL    time.Duration
	SweepSchedule string

	// CORSAllowOrigins — разрешённые Origin через запятую
	// (CORS_ALLOW_ORIGINS). Пусто — CORS выключен.
	CORSAllowOrigins []string
}

// Load читает конфигурацию из окружения.
func Load() Config {
	return Config{
		Addr:             addrFromEnv("API_PORT", DefaultAddr),
		Model:            os.Getenv("MODEL_ID"),
		APIToken:         os.Getenv("API_TOKEN"),
		AgentBaseURL:     envString("AGENT_BASE_URL", DefaultAgentBaseURL),
		AgentAPIKey:      os.Getenv("AGENT_API_KEY"),
		MaxRetries:       envInt("AGENT_MAX_RETRIES", DefaultMaxRetries),
		BaseDelay:        envDuration("AGENT_RETRY_BACKOFF_BASE", DefaultBaseDelay),
		MaxDelay:         envDuration("AGENT_RETRY_BACKOFF_MAX", DefaultMaxDelay),
		CallTimeout:      envDuration("AGENT_CALL_TIMEOUT", DefaultCallTimeout),
		PoolSize:         envInt("AGENT_POOL_SIZE", DefaultPoolSize),
		HistoryLimit:     envInt("AGENT_HISTORY_LIMIT", DefaultHistoryLimit),
		DBURL:            os.Getenv("DB_URL"),
		SessionTTL:       envDuration("SESSION_TTL", 0),
		SweepSchedule:    os.Getenv("SESSION_SWEEP_SCHEDULE"),
		CORSAllowOrigins: envCSV("CORS_ALLOW_ORIGINS"),
	}
}

// addrFromEnv превращает номер порта из окружения в адрес ":порт".
func addrFromEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return ":" + v
	}
	return def
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// envDuration понимает Go-синтаксис ("500ms", "1m30s") и голое число
// секунд ("45", "0.5"). Нечитаемое значение — default.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if sec, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(sec * float64(time.Second))
	}
	return def
}

// envCSV разбирает список через запятую, отбрасывая пустые элементы.
func envCSV(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
