// Package cli реализует инструмент командной строки Sibylla.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Sibylla API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для диалога с агентом и просмотра истории сессий.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Sibylla API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse),
// bearer-авторизацию и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080", token)
//	resp, err := client.Ask(cli.ChatRequest{SessionID: id, Input: "hi"})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы и свободный текст (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: sibylla ask "..." --json | jq .
//
// # Commands
//
// Cobra-команды:
//   - ask: синхронный запрос, ждёт ответ агента со всеми ретраями
//   - submit: фоновый запрос, возвращает подтверждение сразу
//   - session: history, clear
//
// Каждая команда создаётся через фабричную функцию (NewAskCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
