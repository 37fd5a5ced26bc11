package agent

import "encoding/json"

// Роли участников диалога в протоколе model runtime.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Причины остановки генерации.
const (
	StopReasonEndTurn   = "end_turn"
	StopReasonToolUse   = "tool_use"
	StopReasonMaxTokens = "max_tokens"
)

// ContentBlock — один блок содержимого сообщения. Блок несёт ровно одно
// из полей: текст, запрос инструмента или результат инструмента.
type ContentBlock struct {
	Text       string      `json:"text,omitempty"`
	ToolUse    *ToolUse    `json:"toolUse,omitempty"`
	ToolResult *ToolResult `json:"toolResult,omitempty"`
}

// ToolUse — запрос модели на вызов инструмента.
type ToolUse struct {
	ToolUseID string          `json:"toolUseId"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
}

// ToolResult — результат вызова инструмента, возвращаемый модели.
type ToolResult struct {
	ToolUseID string         `json:"toolUseId"`
	Content   []ContentBlock `json:"content"`
	Status    string         `json:"status,omitempty"`
}

// Message — сообщение диалога: роль и упорядоченные блоки содержимого.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// Response — сырой ответ model runtime на converse-запрос.
type Response struct {
	Output     *Output `json:"output"`
	StopReason string  `json:"stopReason"`
	Usage      *Usage  `json:"usage,omitempty"`
}

// Output — контейнер итогового сообщения ассистента.
type Output struct {
	Message *Message `json:"message"`
}

// Usage — учёт токенов запроса.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// Message возвращает сообщение ассистента из ответа.
// nil — у ответа нет output или сообщения.
func (r *Response) Message() *Message {
	if r == nil || r.Output == nil {
		return nil
	}
	return r.Output.Message
}

// converseRequest — тело converse-запроса к model runtime.
type converseRequest struct {
	System          []SystemBlock   `json:"system,omitempty"`
	Messages        []Message       `json:"messages"`
	InferenceConfig inferenceConfig `json:"inferenceConfig"`
	ToolConfig      *toolConfig     `json:"toolConfig,omitempty"`
}

// SystemBlock — блок системного промпта.
type SystemBlock struct {
	Text string `json:"text"`
}

type inferenceConfig struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
}

type toolConfig struct {
	Tools []toolEntry `json:"tools"`
}

type toolEntry struct {
	ToolSpec toolSpec `json:"toolSpec"`
}

type toolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema toolInputSchema `json:"inputSchema"`
}

type toolInputSchema struct {
	JSON map[string]any `json:"json"`
}

// userText формирует пользовательское сообщение из одного текстового блока.
func userText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{{Text: text}}}
}
