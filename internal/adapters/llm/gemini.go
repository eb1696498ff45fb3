package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/PabloGalante/farum-diary/internal/domain"
	"github.com/PabloGalante/farum-diary/internal/observability"
)

var _ domain.Analyzer = (*GeminiClient)(nil)

// generator is the part of *genai.Models the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig selects the backend: an API key uses the Gemini API,
// otherwise Project and Location select Vertex AI.
type GeminiConfig struct {
	APIKey   string
	Project  string
	Location string
	Model    string
	Timeout  time.Duration
}

// GeminiClient implements domain.Analyzer using Gemini with a JSON response schema.
type GeminiClient struct {
	models    generator
	modelName string
	timeout   time.Duration
}

// NewGeminiClient creates an Analyzer backed by Gemini.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	cc := &genai.ClientConfig{}
	switch {
	case cfg.APIKey != "":
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case cfg.Project != "" && cfg.Location != "":
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("gemini: either an API key or project and location must be set")
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return newGeminiClient(client.Models, cfg.Model, cfg.Timeout), nil
}

func newGeminiClient(models generator, model string, timeout time.Duration) *GeminiClient {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{
		models:    models,
		modelName: model,
		timeout:   timeout,
	}
}

// Analyze sends the transcript to the model and decodes its JSON verdict.
// Every failure is returned as *domain.AnalysisError.
func (c *GeminiClient) Analyze(ctx context.Context, history []domain.Message, profile *domain.Profile) (*domain.Analysis, error) {
	log := observability.LoggerFromContext(ctx).With("model", c.modelName, "history_len", len(history))

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prompt := BuildAnalysisPrompt(history, profile)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	temp := float32(0.7)
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   AnalysisSchema(),
	}

	res, err := c.models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			log.Error("gemini returned non-success status", "code", apiErr.Code, "status", apiErr.Status)
		} else {
			log.Error("gemini call failed", "error", err)
		}
		return nil, &domain.AnalysisError{Cause: fmt.Errorf("gemini generate content: %w", err)}
	}

	text := ""
	if res != nil {
		text = res.Text()
	}
	if text == "" {
		log.Error("gemini returned no candidate content")
		return nil, &domain.AnalysisError{Cause: errors.New("gemini returned no candidate content")}
	}

	analysis, err := ParseAnalysis(text)
	if err != nil {
		log.Error("gemini returned malformed analysis", "error", err, "text", text)
		return nil, &domain.AnalysisError{Cause: err}
	}

	return analysis, nil
}
