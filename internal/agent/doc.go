// Package agent разговаривает с model runtime.
//
// Пакет реализует «воркер» для dispatch: блокирующий вызов, который
// превращает (диалог, ввод, модель) в сырой ответ модели. Внутри:
//   - Client — HTTP-клиент converse-протокола с историей из session store
//   - FinalText — извлечение итогового текста из ответа
//   - инструменты, которые модель может вызывать (generate_password)
//
// Ретраи, таймауты и параллелизм — не забота этого пакета: этим
// занимается dispatch.
package agent
