package sentiment

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"

	"github.com/salesloop/salesloop/pkg/ai"
	"github.com/salesloop/salesloop/pkg/helpers"
	"github.com/salesloop/salesloop/pkg/threads"
)

// Classifier is the external reply-tone classifier. Implementations return a
// three-way label with confidence and reasoning, or an error.
type Classifier interface {
	Classify(ctx context.Context, body, subject string) (threads.Sentiment, error)
}

const classifyToolName = "classify_reply_sentiment"

// classifyArgs is the tool parameter schema the model fills in.
type classifyArgs struct {
	Label      string  `json:"label"      jsonschema:"enum=positive,enum=doubtful,enum=not_interested" jsonschema_description:"The overall tone of the reply"`
	Confidence float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"                             jsonschema_description:"Confidence level in the classification (0.0 to 1.0)"`
	Reasoning  string  `json:"reasoning"  jsonschema_description:"Short explanation for the classification"`
}

const classifierSystemPrompt = `You are a sales assistant that reads replies to cold outreach emails and classifies the prospect's tone.

Classify each reply as exactly one of:
- "positive": the prospect shows interest, asks for more information, or wants to schedule something
- "doubtful": the prospect is hesitant, asks skeptical questions, or defers the decision
- "not_interested": the prospect declines, asks to be removed, or is clearly dismissive

Use the classify_reply_sentiment tool to report your assessment.`

var _ Classifier = (*OpenAIClassifier)(nil)

// OpenAIClassifier classifies reply tone with a tool-call completion.
type OpenAIClassifier struct {
	logger    *log.Logger
	aiService ai.Completions
	model     string
}

func NewOpenAIClassifier(logger *log.Logger, aiService ai.Completions, model string) *OpenAIClassifier {
	return &OpenAIClassifier{
		logger:    logger,
		aiService: aiService,
		model:     model,
	}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, body, subject string) (threads.Sentiment, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(classifierSystemPrompt),
		openai.UserMessage(fmt.Sprintf("Subject: %s\n\nReply:\n%s", subject, body)),
	}

	schema, err := helpers.ConvertToInputSchema(classifyArgs{})
	if err != nil {
		return threads.Sentiment{}, fmt.Errorf("build classifier tool schema: %w", err)
	}

	classifyTool := openai.ChatCompletionToolParam{
		Type: "function",
		Function: openai.FunctionDefinitionParam{
			Name:        classifyToolName,
			Description: param.NewOpt("Classify the tone of a prospect's reply to a sales outreach email"),
			Parameters:  openai.FunctionParameters(schema),
		},
	}

	response, err := c.aiService.Completions(ctx, messages, []openai.ChatCompletionToolParam{classifyTool}, c.model)
	if err != nil {
		return threads.Sentiment{}, fmt.Errorf("classifier completion: %w", err)
	}

	result, err := parseClassification(response)
	if err != nil {
		return threads.Sentiment{}, fmt.Errorf("parse classification: %w", err)
	}

	c.logger.Debug("Reply classified",
		"label", result.Label,
		"confidence", result.Confidence)

	return result, nil
}

func parseClassification(response openai.ChatCompletionMessage) (threads.Sentiment, error) {
	if len(response.ToolCalls) == 0 {
		return threads.Sentiment{}, fmt.Errorf("no tool call in classifier response")
	}

	toolCall := response.ToolCalls[0]
	if toolCall.Function.Name != classifyToolName {
		return threads.Sentiment{}, fmt.Errorf("unexpected tool call: %s", toolCall.Function.Name)
	}

	var parsed classifyArgs
	if err := ai.UnmarshalToolCall(toolCall, &parsed); err != nil {
		return threads.Sentiment{}, err
	}

	label := threads.SentimentLabel(parsed.Label)
	switch label {
	case threads.SentimentPositive, threads.SentimentDoubtful, threads.SentimentNotInterested:
	default:
		return threads.Sentiment{}, fmt.Errorf("unknown sentiment label %q", parsed.Label)
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return threads.Sentiment{
		Label:      label,
		Confidence: confidence,
		Reasoning:  parsed.Reasoning,
	}, nil
}
