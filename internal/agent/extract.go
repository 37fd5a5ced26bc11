package agent

// FinalText извлекает итоговый текст из сырого ответа модели.
//
// Блоки сообщения сканируются по порядку, возвращается первый непустой
// текст. Пустые текстовые блоки пропускаются, сканирование продолжается:
// модель иногда отдаёт "" перед содержательным блоком. Блоки инструментов
// текста не несут и тоже пропускаются. Если непустого текста нет — или
// у ответа вовсе нет сообщения — возвращается ErrNoTextContent.
func FinalText(resp *Response) (string, error) {
	msg := resp.Message()
	if msg == nil {
		return "", ErrNoTextContent
	}

	for _, block := range msg.Content {
		if block.Text != "" {
			return block.Text, nil
		}
	}

	return "", ErrNoTextContent
}
