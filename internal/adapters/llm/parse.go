package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PabloGalante/farum-diary/internal/domain"
)

// numeral accepts both "60" and 60.
type numeral string

func (n *numeral) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numeral(s)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("score is neither string nor number: %w", err)
	}
	*n = numeral(num.String())
	return nil
}

type exerciseWire struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type analysisWire struct {
	Response        *string         `json:"response"`
	Score           *numeral        `json:"score"`
	SessionTitle    *string         `json:"sessionTitle"`
	Recommendations *[]string       `json:"recommendations"`
	Exercises       *[]exerciseWire `json:"exercises"`
}

// StripCodeFences removes markdown code fences the model sometimes wraps JSON in.
func StripCodeFences(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ParseAnalysis decodes the model output and checks every required field.
func ParseAnalysis(raw string) (*domain.Analysis, error) {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return nil, errors.New("empty analysis text")
	}

	var w analysisWire
	if err := json.Unmarshal([]byte(cleaned), &w); err != nil {
		return nil, fmt.Errorf("parse analysis json: %w", err)
	}

	var missing []string
	if w.Response == nil {
		missing = append(missing, "response")
	}
	if w.Score == nil {
		missing = append(missing, "score")
	}
	if w.SessionTitle == nil {
		missing = append(missing, "sessionTitle")
	}
	if w.Recommendations == nil {
		missing = append(missing, "recommendations")
	}
	if w.Exercises == nil {
		missing = append(missing, "exercises")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("analysis is missing fields: %s", strings.Join(missing, ", "))
	}

	out := &domain.Analysis{
		Response:        *w.Response,
		Score:           string(*w.Score),
		SessionTitle:    *w.SessionTitle,
		Recommendations: *w.Recommendations,
		Exercises:       make([]domain.Exercise, 0, len(*w.Exercises)),
	}
	for i, ex := range *w.Exercises {
		if ex.Title == nil || ex.Description == nil {
			return nil, fmt.Errorf("exercise %d is missing title or description", i)
		}
		out.Exercises = append(out.Exercises, domain.Exercise{Title: *ex.Title, Description: *ex.Description})
	}
	return out, nil
}
