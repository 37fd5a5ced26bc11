// Package session хранит историю диалогов.
//
// История — упорядоченный список реплик (Turn) под ключом диалога.
// Интерфейс Store реализован двумя хранилищами:
//   - PGStore — Postgres, переживает рестарты
//   - MemStore — память процесса, fallback при недоступной БД
//
// Janitor по расписанию удаляет диалоги без свежей активности.
package session
