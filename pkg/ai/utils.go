package ai

import (
	"encoding/json"

	"github.com/openai/openai-go"
)

// UnmarshalToolCall unmarshals a tool call's arguments into a struct
func UnmarshalToolCall(toolCall openai.ChatCompletionMessageToolCall, v interface{}) error {
	return json.Unmarshal([]byte(toolCall.Function.Arguments), v)
}
