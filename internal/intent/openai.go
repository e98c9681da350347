package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/FNXDOOM/Zapdos/internal/prompts"
)

// OpenAIDelegate escalates prompts to an OpenAI chat model. The credential
// is only exercised at call time; a missing key surfaces as a call error
// that the resolver absorbs into the fallback reply.
type OpenAIDelegate struct {
	client openai.Client
	model  string
}

// NewOpenAIDelegate creates a delegate for the given model.
func NewOpenAIDelegate(apiKey, model string) *OpenAIDelegate {
	return &OpenAIDelegate{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (d *OpenAIDelegate) Reply(ctx context.Context, prompt string) (string, error) {
	resp, err := d.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompts.DelegateSystem),
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(d.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
