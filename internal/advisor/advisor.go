// Package advisor asks a language model for a suggested stock level based on
// an item's transaction history.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Input is what an advisor is asked about
type Input struct {
	ItemID         string `json:"item_id"`
	HistoricalData string `json:"historical_data"`
}

// Suggestion is the structured answer of an advisor
type Suggestion struct {
	SuggestedStockLevel int    `json:"suggestedStockLevel" jsonschema:"description=The suggested stock level for the item."`
	Reasoning           string `json:"reasoning" jsonschema:"description=The reasoning behind the suggested stock level."`
	Alert               string `json:"alert,omitempty" jsonschema:"description=An alert message if there is a potential shortage or overstock."`
}

// Advisor suggests an optimal stock level for one item. Implementations do
// not retry; provider failures are returned as-is.
type Advisor interface {
	Suggest(ctx context.Context, in Input) (Suggestion, error)
}

const promptTemplate = `You are an expert inventory manager. Analyze the historical data for the item and suggest an optimal stock level.

Item ID: %s
Historical Data: %s

Consider past demand, supply chain disruptions, and sales trends.

Provide the suggested stock level, the reasoning behind it, and an alert message if there is a potential shortage or overstock.

Output should be in JSON format.
`

// BuildPrompt renders the fixed advisory prompt for in
func BuildPrompt(in Input) string {
	return fmt.Sprintf(promptTemplate, in.ItemID, in.HistoricalData)
}

func validateInput(in Input) error {
	if strings.TrimSpace(in.ItemID) == "" {
		return fmt.Errorf("advisor input: item id is required")
	}
	return nil
}

// ParseSuggestion decodes a model answer. Markdown code fences around the
// JSON document are tolerated.
func ParseSuggestion(text string) (Suggestion, error) {
	body := stripCodeFence(text)
	if body == "" {
		return Suggestion{}, fmt.Errorf("empty response content")
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		return Suggestion{}, fmt.Errorf("failed to parse suggestion: %w", err)
	}
	if s.SuggestedStockLevel < 0 {
		return Suggestion{}, fmt.Errorf("suggested stock level %d is negative", s.SuggestedStockLevel)
	}
	s.Reasoning = strings.TrimSpace(s.Reasoning)
	s.Alert = strings.TrimSpace(s.Alert)
	return s, nil
}

func stripCodeFence(text string) string {
	body := strings.TrimSpace(text)
	if !strings.HasPrefix(body, "```") {
		return body
	}
	body = strings.TrimPrefix(body, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// drop the language tag line, e.g. ```json
		body = body[nl+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
