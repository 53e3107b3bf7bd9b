package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Temperature is fixed low to keep summaries stable across runs.
const Temperature = 0.3

// OpenAIClient calls the OpenAI Chat Completions API with a JSON-schema
// response format.
type OpenAIClient struct {
	model  openai.ChatModel
	client *openai.Client
}

// OpenAIOptions configures NewOpenAIClient.
type OpenAIOptions struct {
	APIKey  string
	Model   openai.ChatModel
	BaseURL string // empty means api.openai.com
}

// NewOpenAIClient builds a client. SDK retries are disabled: a failed request
// fails the run.
func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if opts.Model == "" {
		opts.Model = openai.ChatModelGPT4Turbo
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	cli := openai.NewClient(reqOpts...)
	return &OpenAIClient{
		model:  opts.Model,
		client: &cli,
	}, nil
}

// Model reports the model identifier sent with each request.
func (c *OpenAIClient) Model() string {
	return string(c.model)
}

func (c *OpenAIClient) Complete(ctx context.Context, req StructuredRequest) (json.RawMessage, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("nil openai client")
	}
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    buildMessages(req.System, req.Prompt),
		Temperature: openai.Float(Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.SchemaName,
					Description: openai.String(req.SchemaDescription),
					Schema:      req.Schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrInvalidResponse)
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, fmt.Errorf("%w: model refused: %s", ErrInvalidResponse, msg.Refusal)
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty content (finish reason %q)", ErrInvalidResponse, resp.Choices[0].FinishReason)
	}
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("%w: content is not valid JSON (finish reason %q)", ErrInvalidResponse, resp.Choices[0].FinishReason)
	}
	return json.RawMessage(content), nil
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}
