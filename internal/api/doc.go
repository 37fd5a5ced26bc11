// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go         — Handler с DI (dispatcher, store, logger)
//   - routes.go          — регистрация маршрутов
//   - middleware.go      — middleware (request id, logging, recovery, auth, CORS)
//   - response.go        — унифицированные JSON-ответы и обработка ошибок
//   - dto.go             — Data Transfer Objects (request/response)
//   - chat_handler.go    — обработчики для /chat и /requests
//   - session_handler.go — обработчики для /sessions
//
// API предоставляет диалоговые endpoints агента: синхронный /chat,
// фоновый /requests и управление историей диалогов.
package api
