package advisor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
	"github.com/sirupsen/logrus"
)

// OpenAIAdvisor asks the OpenAI Responses API for stock suggestions using a
// structured output schema derived from Suggestion.
type OpenAIAdvisor struct {
	client *openai.Client
	model  shared.ResponsesModel
	schema map[string]any
	logger *logrus.Logger
}

// NewOpenAIAdvisor creates an OpenAI-backed advisor. Extra client options
// (base URL, HTTP client) are passed through to the SDK.
func NewOpenAIAdvisor(apiKey, modelName string, logger *logrus.Logger, opts ...option.RequestOption) (*OpenAIAdvisor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is empty")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	schema, err := suggestionSchema()
	if err != nil {
		return nil, err
	}

	model := shared.ResponsesModel(shared.ChatModelGPT4o)
	if modelName != "" {
		model = shared.ResponsesModel(modelName)
	}

	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIAdvisor{client: &client, model: model, schema: schema, logger: logger}, nil
}

func (a *OpenAIAdvisor) Suggest(ctx context.Context, in Input) (Suggestion, error) {
	if err := validateInput(in); err != nil {
		return Suggestion{}, err
	}

	a.logger.WithFields(logrus.Fields{
		"item_id":  in.ItemID,
		"provider": "openai",
		"model":    string(a.model),
	}).Debug("Requesting stock level suggestion")

	params := responses.ResponseNewParams{
		Model: a.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(BuildPrompt(in)),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "stock_level_suggestion",
					Strict:      param.NewOpt(false),
					Schema:      a.schema,
					Description: param.NewOpt("A suggested stock level with reasoning and an optional alert"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return Suggestion{}, fmt.Errorf("openai responses error: %w", err)
	}
	return ParseSuggestion(resp.OutputText())
}

// suggestionSchema reflects Suggestion into a JSON schema map
func suggestionSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaJSON, err := json.Marshal(reflector.Reflect(Suggestion{}))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	var schema map[string]any
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schema, nil
}
