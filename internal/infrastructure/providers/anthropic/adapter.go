package anthropic

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"parlance/services/chat-api/internal/domain/conversation"
	"parlance/services/chat-api/internal/domain/provider"
)

// Adapter talks to the Anthropic Messages API.
type Adapter struct{}

func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Name() string { return "Claude" }

func (a *Adapter) SupportsImages() bool { return false }

// Invoke sends the turn history to the Messages API. The newest turn must
// carry the user role; the backend rejects histories ending on an
// assistant turn.
func (a *Adapter) Invoke(ctx context.Context, history []conversation.Message, credential, modelVariant string) (string, error) {
	if len(history) == 0 || history[len(history)-1].Role != conversation.RoleUser {
		return "", provider.NewFormatError(a.Name(), "Invalid prompt sequence for Claude API.", nil)
	}

	messages := make([]anthropicsdk.MessageParam, 0, len(history))
	for _, msg := range history {
		block := anthropicsdk.NewTextBlock(msg.Content)
		if msg.Role == conversation.RoleAssistant {
			messages = append(messages, anthropicsdk.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropicsdk.NewUserMessage(block))
		}
	}

	client := anthropicsdk.NewClient(option.WithAPIKey(credential))
	reply, err := client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(modelVariant),
		MaxTokens: int64(provider.MaxOutputTokens),
		System:    []anthropicsdk.TextBlockParam{{Text: provider.SystemInstruction}},
		Messages:  messages,
	})
	if err != nil {
		return "", a.classify(err)
	}

	text := ""
	for _, block := range reply.Content {
		if tb, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			text += tb.Text
		}
	}
	if text == "" {
		return "", provider.NewFormatError(a.Name(), "Claude returned a response with no text.", nil)
	}
	return text, nil
}

func (a *Adapter) classify(err error) error {
	var apiErr *anthropicsdk.Error
	if errors.As(err, &apiErr) {
		message := fmt.Sprintf("Claude API Error: %d %s", apiErr.StatusCode, apiErr.Error())
		switch apiErr.StatusCode {
		case 401, 403:
			return provider.NewAuthError(a.Name(), message, err)
		default:
			return provider.NewGenericError(a.Name(), message, apiErr.StatusCode, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return provider.NewNetworkError(a.Name(), "The request to Claude timed out.", err)
	}
	return provider.NewNetworkError(a.Name(), "Failed to get response from Claude.", err)
}
