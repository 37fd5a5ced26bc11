package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shaiso/Sibylla/internal/session"
)

// Значения по умолчанию для клиента.
const (
	defaultHTTPTimeout  = 60 * time.Second
	defaultMaxTokens    = 1024
	defaultTemperature  = 0.2
	defaultTopP         = 0.8
	defaultHistoryLimit = 40

	// maxToolRounds — максимум раундов tool use на один запрос: защита
	// от модели, зациклившейся на вызовах инструментов.
	maxToolRounds = 3
)

// Client — блокирующий клиент model runtime.
//
// Один вызов Complete делает всё, что нужно для одной реплики диалога:
// поднимает историю из session store, собирает converse-запрос, при
// необходимости прогоняет раунды tool use и дописывает состоявшийся
// обмен обратно в историю.
type Client struct {
	baseURL    string
	apiKey     string
	store      session.Store
	httpClient *http.Client

	maxTokens    int
	temperature  float64
	topP         float64
	historyLimit int
}

// Config — конфигурация клиента.
type Config struct {
	// BaseURL — адрес model runtime.
	BaseURL string

	// APIKey — bearer-токен runtime. Пустой — без аутентификации
	// (локальные runtime).
	APIKey string

	// Store — хранилище истории диалогов. Обязателен.
	Store session.Store

	// HTTPTimeout — потолок одного HTTP-вызова (default: 60s).
	// Это последняя линия обороны: обычным ограничителем выступает
	// call timeout диспетчера.
	HTTPTimeout time.Duration

	// HistoryLimit — сколько последних реплик отдавать модели (default: 40).
	HistoryLimit int
}

// NewClient создаёт клиент.
func NewClient(cfg Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		store:        cfg.Store,
		httpClient:   &http.Client{Timeout: timeout},
		maxTokens:    defaultMaxTokens,
		temperature:  defaultTemperature,
		topP:         defaultTopP,
		historyLimit: historyLimit,
	}
}

// Complete выполняет одну реплику диалога sessionID моделью model.
//
// Блокируется на время сетевых вызовов. Возвращает сырой ответ модели;
// извлечение итогового текста — отдельная забота (см. FinalText).
func (c *Client) Complete(ctx context.Context, sessionID, input, model string) (*Response, error) {
	history, err := c.store.History(ctx, sessionID, c.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	messages := make([]Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, Message{
			Role:    turn.Role,
			Content: []ContentBlock{{Text: turn.Content}},
		})
	}
	messages = append(messages, userText(input))

	resp, err := c.converse(ctx, model, messages)
	if err != nil {
		return nil, err
	}

	// Раунды tool use: выполняем инструменты локально и возвращаем
	// результаты модели, пока она не отдаст финальный текст.
	for round := 0; resp.StopReason == StopReasonToolUse && round < maxToolRounds; round++ {
		msg := resp.Message()
		if msg == nil {
			break
		}

		results := make([]ContentBlock, 0, 1)
		for _, block := range msg.Content {
			if block.ToolUse == nil {
				continue
			}
			result := runToolCall(block.ToolUse)
			results = append(results, ContentBlock{ToolResult: &result})
		}
		if len(results) == 0 {
			break
		}

		messages = append(messages, *msg)
		messages = append(messages, Message{Role: RoleUser, Content: results})

		resp, err = c.converse(ctx, model, messages)
		if err != nil {
			return nil, err
		}
	}

	// Историю пополняем только состоявшимся обменом: ввод пользователя
	// и финальный текст. Промежуточные tool-сообщения не сохраняются.
	if text, err := FinalText(resp); err == nil {
		turns := []session.Turn{
			{Role: session.RoleUser, Content: input},
			{Role: session.RoleAssistant, Content: text},
		}
		if err := c.store.Append(ctx, sessionID, turns...); err != nil {
			return nil, fmt.Errorf("append history: %w", err)
		}
	}

	return resp, nil
}

// converse выполняет один HTTP-вызов model runtime.
func (c *Client) converse(ctx context.Context, model string, messages []Message) (*Response, error) {
	reqBody := converseRequest{
		System:   []SystemBlock{{Text: systemPrompt}},
		Messages: messages,
		InferenceConfig: inferenceConfig{
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
			TopP:        c.topP,
		},
		ToolConfig: &toolConfig{Tools: []toolEntry{passwordToolSpec()}},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrAgentCall, err)
	}

	endpoint := c.baseURL + "/model/" + url.PathEscape(model) + "/converse"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrAgentCall, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAgentCall, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrAgentCall, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrAgentCall, httpResp.StatusCode, truncate(string(body), 200))
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrAgentCall, err)
	}

	return &resp, nil
}

// truncate обрезает строку до maxLen символов.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
