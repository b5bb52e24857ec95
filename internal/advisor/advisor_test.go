package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaDevFox/task-systems/warehouse-core/internal/logging"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(Input{ItemID: "item-7", HistoricalData: "Item: Widget"})

	assert.Contains(t, prompt, "You are an expert inventory manager.")
	assert.Contains(t, prompt, "Item ID: item-7\n")
	assert.Contains(t, prompt, "Historical Data: Item: Widget\n")
	assert.Contains(t, prompt, "Consider past demand, supply chain disruptions, and sales trends.")
	assert.Contains(t, prompt, "Output should be in JSON format.")
}

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Suggestion
		wantErr bool
	}{
		{
			name: "plain json",
			text: `{"suggestedStockLevel": 120, "reasoning": " steady demand ", "alert": ""}`,
			want: Suggestion{SuggestedStockLevel: 120, Reasoning: "steady demand"},
		},
		{
			name: "fenced json",
			text: "```json\n{\"suggestedStockLevel\": 5, \"reasoning\": \"low\", \"alert\": \"shortage likely\"}\n```",
			want: Suggestion{SuggestedStockLevel: 5, Reasoning: "low", Alert: "shortage likely"},
		},
		{
			name: "bare fence",
			text: "```\n{\"suggestedStockLevel\": 1, \"reasoning\": \"r\"}\n```",
			want: Suggestion{SuggestedStockLevel: 1, Reasoning: "r"},
		},
		{name: "empty", text: "  ", wantErr: true},
		{name: "not json", text: "about forty units", wantErr: true},
		{name: "negative level", text: `{"suggestedStockLevel": -3, "reasoning": "x"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSuggestion(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeminiText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text(`{"suggestedStockLevel": 40,`),
				genai.Text(` "reasoning": "seasonal"}`),
			}},
		}},
	}

	text, err := geminiText(resp)
	require.NoError(t, err)

	s, err := ParseSuggestion(text)
	require.NoError(t, err)
	assert.Equal(t, 40, s.SuggestedStockLevel)

	_, err = geminiText(&genai.GenerateContentResponse{})
	assert.Error(t, err)
	_, err = geminiText(nil)
	assert.Error(t, err)
}

func TestNewAdvisorsRequireKeys(t *testing.T) {
	logger := logging.Discard()

	_, err := NewGeminiAdvisor(context.Background(), "", "", logger)
	assert.Error(t, err)

	_, err = NewOpenAIAdvisor("", "", logger)
	assert.Error(t, err)

	_, err = NewOpenAIAdvisor("key", "", nil)
	assert.Error(t, err)
}

func TestSuggestionSchema(t *testing.T) {
	schema, err := suggestionSchema()
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "suggestedStockLevel")
	assert.Contains(t, props, "reasoning")
	assert.Contains(t, props, "alert")
}

func TestOpenAIAdvisorSuggest(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "resp_1",
			"object": "response",
			"created_at": 1700000000,
			"status": "completed",
			"model": "gpt-4o",
			"output": [{
				"type": "message",
				"id": "msg_1",
				"role": "assistant",
				"status": "completed",
				"content": [{
					"type": "output_text",
					"annotations": [],
					"text": "{\"suggestedStockLevel\": 64, \"reasoning\": \"weekly usage of 16\", \"alert\": \"\"}"
				}]
			}]
		}`)
	}))
	defer srv.Close()

	adv, err := NewOpenAIAdvisor("test-key", "", logging.Discard(),
		option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	require.NoError(t, err)

	got, err := adv.Suggest(context.Background(), Input{ItemID: "item-1", HistoricalData: "history"})
	require.NoError(t, err)
	assert.Equal(t, Suggestion{SuggestedStockLevel: 64, Reasoning: "weekly usage of 16"}, got)

	require.NotNil(t, captured)
	assert.Equal(t, BuildPrompt(Input{ItemID: "item-1", HistoricalData: "history"}), captured["input"])

	_, err = adv.Suggest(context.Background(), Input{})
	assert.Error(t, err, "item id is required")
}

func TestOpenAIAdvisorSurfacesProviderErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": {"message": "bad request", "type": "invalid_request_error"}}`)
	}))
	defer srv.Close()

	adv, err := NewOpenAIAdvisor("test-key", "gpt-4o-mini", logging.Discard(),
		option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = adv.Suggest(context.Background(), Input{ItemID: "item-1"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "no retries")
}

type countingAdvisor struct {
	calls atomic.Int32
	err   error
}

func (c *countingAdvisor) Suggest(ctx context.Context, in Input) (Suggestion, error) {
	c.calls.Add(1)
	return Suggestion{SuggestedStockLevel: 1}, c.err
}

func TestWithRateLimit(t *testing.T) {
	next := &countingAdvisor{}
	assert.Same(t, Advisor(next), WithRateLimit(next, 0))

	limited := WithRateLimit(next, 0.001)
	_, err := limited.Suggest(context.Background(), Input{ItemID: "a"})
	require.NoError(t, err, "first call uses the burst token")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.Suggest(ctx, Input{ItemID: "a"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestWithRateLimitPassesErrorsThrough(t *testing.T) {
	boom := errors.New("provider down")
	limited := WithRateLimit(&countingAdvisor{err: boom}, 100)

	_, err := limited.Suggest(context.Background(), Input{ItemID: "a"})
	assert.ErrorIs(t, err, boom)
}
