package llm

import (
	"context"
	"fmt"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

// MockAnalyzer answers every conversation with a fixed analysis. Used in local mode.
type MockAnalyzer struct{}

func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

func (m *MockAnalyzer) Analyze(_ context.Context, history []domain.Message, _ *domain.Profile) (*domain.Analysis, error) {
	last := ""
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleUser {
			last = history[i].Content
			break
		}
	}

	return &domain.Analysis{
		Response:        fmt.Sprintf("Я вас слышу. Вы написали: %q. Расскажите, что вы при этом чувствуете?", last),
		Score:           "50",
		SessionTitle:    "Разговор о чувствах",
		Recommendations: []string{"Сделайте паузу и несколько глубоких вдохов"},
		Exercises: []domain.Exercise{
			{Title: "Дыхание", Description: "Пять минут спокойного дыхания"},
		},
	}, nil
}
