package llm

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

const baseInstructions = `Ты — эмпатичный цифровой помощник. Твоя задача — помочь пользователю разобраться в своих чувствах.`

const outputInstructions = `Верни ответ строго в формате JSON. Не добавляй никакого текста вне JSON-объекта.
Структура JSON:
{
  "response": "Твой ответ пользователю.",
  "score": "число от 0 до 100 в виде строки",
  "sessionTitle": "Короткое название сеанса.",
  "recommendations": ["список советов"],
  "exercises": [{ "title": "Название упражнения", "description": "Описание упражнения." }]
}`

// BuildAnalysisPrompt renders the full transcript, the optional profile
// context and the strict output contract into a single user prompt.
func BuildAnalysisPrompt(history []domain.Message, profile *domain.Profile) string {
	var b strings.Builder

	b.WriteString(baseInstructions)
	if profile != nil {
		fmt.Fprintf(&b, "\nТы говоришь с пользователем по имени %s, возраст %d, пол %s. Учитывай это в своих ответах.",
			profile.Name, profile.Age, profile.Gender)
	}

	b.WriteString("\n\nИстория диалога:\n")
	for _, m := range history {
		b.WriteString(speaker(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(outputInstructions)
	return b.String()
}

func speaker(r domain.Role) string {
	if r == domain.RoleUser {
		return "Пользователь"
	}
	return "Ассистент"
}

// AnalysisSchema is the response schema enforced on the model.
func AnalysisSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"response":     str,
			"score":        str,
			"sessionTitle": str,
			"recommendations": {
				Type:  genai.TypeArray,
				Items: str,
			},
			"exercises": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":       str,
						"description": str,
					},
					Required: []string{"title", "description"},
				},
			},
		},
		Required: []string{"response", "score", "sessionTitle", "recommendations", "exercises"},
	}
}
