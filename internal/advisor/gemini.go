package advisor

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiAdvisor asks Google Gemini for stock suggestions
type GeminiAdvisor struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *logrus.Logger
}

// NewGeminiAdvisor creates a Gemini-backed advisor. The model is asked to
// answer with a JSON document.
func NewGeminiAdvisor(ctx context.Context, apiKey, modelName string, logger *logrus.Logger) (*GeminiAdvisor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"

	return &GeminiAdvisor{client: client, model: model, logger: logger}, nil
}

// Close releases the underlying client connection
func (g *GeminiAdvisor) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GeminiAdvisor) Suggest(ctx context.Context, in Input) (Suggestion, error) {
	if err := validateInput(in); err != nil {
		return Suggestion{}, err
	}

	g.logger.WithFields(logrus.Fields{
		"item_id":  in.ItemID,
		"provider": "gemini",
	}).Debug("Requesting stock level suggestion")

	resp, err := g.model.GenerateContent(ctx, genai.Text(BuildPrompt(in)))
	if err != nil {
		return Suggestion{}, fmt.Errorf("gemini generation error: %w", err)
	}

	text, err := geminiText(resp)
	if err != nil {
		return Suggestion{}, err
	}
	return ParseSuggestion(text)
}

// geminiText concatenates the text parts of the first candidate
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text += string(txt)
		}
	}
	return text, nil
}
