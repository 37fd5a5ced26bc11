package agent

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Ограничения длины генерируемого пароля.
const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

const passwordToolName = "generate_password"

// passwordToolInput — аргументы инструмента, приходящие от модели.
// Флаги — указатели: отсутствие поля отличается от явного false.
type passwordToolInput struct {
	Length         int   `json:"length"`
	IncludeDigits  *bool `json:"include_digits,omitempty"`
	IncludeSymbols *bool `json:"include_symbols,omitempty"`
}

// passwordToolSpec описывает инструмент генерации паролей для модели.
func passwordToolSpec() toolEntry {
	return toolEntry{ToolSpec: toolSpec{
		Name:        passwordToolName,
		Description: "Generates a strong random password.",
		InputSchema: toolInputSchema{JSON: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"length": map[string]any{
					"type":        "integer",
					"description": "Password length, between 8 and 128 characters.",
				},
				"include_digits": map[string]any{
					"type":        "boolean",
					"description": "Include digits (default true).",
				},
				"include_symbols": map[string]any{
					"type":        "boolean",
					"description": "Include punctuation symbols (default true).",
				},
			},
			"required": []string{"length"},
		}},
	}}
}

// GeneratePassword собирает случайный пароль из букв и, опционально,
// цифр и символов пунктуации. Источник случайности — crypto/rand.
func GeneratePassword(length int, digits, symbols bool) (string, error) {
	if length < minPasswordLength || length > maxPasswordLength {
		return "", fmt.Errorf("password length must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}

	alphabet := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	if digits {
		alphabet += "0123456789"
	}
	if symbols {
		alphabet += "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	}

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("random source: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// runToolCall выполняет один запрошенный моделью вызов инструмента.
func runToolCall(call *ToolUse) ToolResult {
	switch call.Name {
	case passwordToolName:
		return runPasswordTool(call)
	default:
		return toolError(call.ToolUseID, "unknown tool: "+call.Name)
	}
}

// runPasswordTool разбирает аргументы и генерирует пароль. Ошибки
// валидации уходят модели как результат со статусом error, чтобы она
// могла поправить аргументы или объясниться с пользователем.
func runPasswordTool(call *ToolUse) ToolResult {
	var input passwordToolInput
	if err := json.Unmarshal(call.Input, &input); err != nil {
		return toolError(call.ToolUseID, fmt.Sprintf("invalid tool input: %v", err))
	}

	digits := true
	if input.IncludeDigits != nil {
		digits = *input.IncludeDigits
	}
	symbols := true
	if input.IncludeSymbols != nil {
		symbols = *input.IncludeSymbols
	}

	password, err := GeneratePassword(input.Length, digits, symbols)
	if err != nil {
		return toolError(call.ToolUseID, err.Error())
	}

	return ToolResult{
		ToolUseID: call.ToolUseID,
		Content:   []ContentBlock{{Text: "Generated password: " + password}},
	}
}

func toolError(toolUseID, msg string) ToolResult {
	return ToolResult{
		ToolUseID: toolUseID,
		Content:   []ContentBlock{{Text: msg}},
		Status:    "error",
	}
}
