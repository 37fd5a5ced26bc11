package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shaiso/Sibylla/internal/session"
)

// textResponse собирает ответ модели с одним текстовым блоком.
func textResponse(text string) Response {
	return Response{
		Output: &Output{Message: &Message{
			Role:    RoleAssistant,
			Content: []ContentBlock{{Text: text}},
		}},
		StopReason: StopReasonEndTurn,
	}
}

// --- Client Tests ---

func TestClient_CompleteSuccess(t *testing.T) {
	store := session.NewMemStore()
	ctx := context.Background()

	// Две реплики истории уже лежат в хранилище.
	if err := store.Append(ctx, "s1",
		session.Turn{Role: session.RoleUser, Content: "earlier question"},
		session.Turn{Role: session.RoleAssistant, Content: "earlier answer"},
	); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var received converseRequest
	var receivedPath, receivedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		receivedAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(textResponse("fresh answer"))
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL: server.URL,
		APIKey:  "rt-key",
		Store:   store,
	})

	resp, err := client.Complete(ctx, "s1", "new question", "model-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := FinalText(resp)
	if err != nil || text != "fresh answer" {
		t.Fatalf("expected fresh answer, got %q (%v)", text, err)
	}

	// Запрос ушёл на converse-endpoint нужной модели с bearer-токеном.
	if receivedPath != "/model/model-1/converse" {
		t.Errorf("unexpected path %q", receivedPath)
	}
	if receivedAuth != "Bearer rt-key" {
		t.Errorf("unexpected auth header %q", receivedAuth)
	}

	// История плюс новый ввод, системный промпт, инструменты.
	if len(received.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(received.Messages))
	}
	last := received.Messages[2]
	if last.Role != RoleUser || last.Content[0].Text != "new question" {
		t.Errorf("unexpected last message: %+v", last)
	}
	if len(received.System) == 0 || received.System[0].Text == "" {
		t.Error("system prompt missing from request")
	}
	if received.ToolConfig == nil || len(received.ToolConfig.Tools) == 0 {
		t.Error("tool config missing from request")
	}

	// Состоявшийся обмен дописан в историю.
	turns, _ := store.History(ctx, "s1", 0)
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns in history, got %d", len(turns))
	}
	if turns[3].Role != session.RoleAssistant || turns[3].Content != "fresh answer" {
		t.Errorf("unexpected final turn: %+v", turns[3])
	}
}

func TestClient_CompleteToolRound(t *testing.T) {
	store := session.NewMemStore()

	var calls int
	var secondRequest converseRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// Модель просит инструмент.
			toolInput, _ := json.Marshal(map[string]any{"length": 12})
			json.NewEncoder(w).Encode(Response{
				Output: &Output{Message: &Message{
					Role: RoleAssistant,
					Content: []ContentBlock{{
						ToolUse: &ToolUse{ToolUseID: "t1", Name: passwordToolName, Input: toolInput},
					}},
				}},
				StopReason: StopReasonToolUse,
			})
			return
		}
		json.NewDecoder(r.Body).Decode(&secondRequest)
		json.NewEncoder(w).Encode(textResponse("here is your password"))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Store: store})

	resp, err := client.Complete(context.Background(), "s1", "make me a password", "model-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 model calls, got %d", calls)
	}

	text, _ := FinalText(resp)
	if text != "here is your password" {
		t.Errorf("expected final text, got %q", text)
	}

	// Второй запрос несёт сообщение ассистента и результат инструмента.
	n := len(secondRequest.Messages)
	if n < 3 {
		t.Fatalf("expected at least 3 messages in second request, got %d", n)
	}
	toolMsg := secondRequest.Messages[n-1]
	if toolMsg.Role != RoleUser || len(toolMsg.Content) != 1 || toolMsg.Content[0].ToolResult == nil {
		t.Fatalf("last message should carry the tool result: %+v", toolMsg)
	}
	result := toolMsg.Content[0].ToolResult
	if result.ToolUseID != "t1" {
		t.Errorf("expected toolUseId t1, got %q", result.ToolUseID)
	}
	if result.Status == "error" {
		t.Errorf("unexpected tool error: %+v", result.Content)
	}
	if !strings.HasPrefix(result.Content[0].Text, "Generated password: ") {
		t.Errorf("unexpected tool output: %q", result.Content[0].Text)
	}

	// В историю попал только текстовый обмен, без tool-сообщений.
	turns, _ := store.History(context.Background(), "s1", 0)
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
}

func TestClient_CompleteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model runtime exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Store: session.NewMemStore()})

	_, err := client.Complete(context.Background(), "s1", "hi", "model-1")
	if !errors.Is(err, ErrAgentCall) {
		t.Fatalf("expected ErrAgentCall, got %v", err)
	}
	if !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("error should carry the status, got %q", err.Error())
	}
}

func TestClient_CompleteNoTextSkipsHistory(t *testing.T) {
	store := session.NewMemStore()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Ответ без единого текстового блока.
		json.NewEncoder(w).Encode(Response{
			Output:     &Output{Message: &Message{Role: RoleAssistant}},
			StopReason: StopReasonEndTurn,
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Store: store})

	resp, err := client.Complete(context.Background(), "s1", "hi", "model-1")
	if err != nil {
		t.Fatalf("Complete should hand back the raw response, got %v", err)
	}
	if _, err := FinalText(resp); !errors.Is(err, ErrNoTextContent) {
		t.Fatalf("expected ErrNoTextContent from extraction, got %v", err)
	}

	// Несостоявшийся обмен в историю не попадает.
	turns, _ := store.History(context.Background(), "s1", 0)
	if len(turns) != 0 {
		t.Errorf("expected empty history, got %d turns", len(turns))
	}
}
