package openai

import (
	"context"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"parlance/services/chat-api/internal/domain/conversation"
	"parlance/services/chat-api/internal/domain/provider"
)

// Adapter speaks the OpenAI chat completions protocol. With a custom base
// URL it also serves OpenAI-compatible backends such as xAI.
type Adapter struct {
	name    string
	baseURL string
}

// New creates an adapter against the default OpenAI endpoint.
func New() *Adapter {
	return &Adapter{name: "OpenAI"}
}

// NewCompatible creates an adapter for an OpenAI-compatible backend at
// the given base URL.
func NewCompatible(name, baseURL string) *Adapter {
	return &Adapter{name: name, baseURL: baseURL}
}

func (a *Adapter) Name() string { return a.name }

// SupportsImages is false: attachments are ignored, only the text content
// of each turn is forwarded.
func (a *Adapter) SupportsImages() bool { return false }

// Invoke sends the system instruction plus the full turn history and
// returns the first choice's text.
func (a *Adapter) Invoke(ctx context.Context, history []conversation.Message, credential, modelVariant string) (string, error) {
	cfg := goopenai.DefaultConfig(credential)
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	client := goopenai.NewClientWithConfig(cfg)

	messages := make([]goopenai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleSystem,
		Content: provider.SystemInstruction,
	})
	for _, msg := range history {
		role := goopenai.ChatMessageRoleUser
		if msg.Role == conversation.RoleAssistant {
			role = goopenai.ChatMessageRoleAssistant
		}
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	completion, err := client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     modelVariant,
		MaxTokens: provider.MaxOutputTokens,
		Messages:  messages,
	})
	if err != nil {
		return "", a.classify(err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", provider.NewFormatError(a.name, fmt.Sprintf("No response from %s.", a.name), nil)
	}
	return completion.Choices[0].Message.Content, nil
}

func (a *Adapter) classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		message := fmt.Sprintf("%s API Error: %d %s", a.name, apiErr.HTTPStatusCode, apiErr.Message)
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return provider.NewAuthError(a.name, message, err)
		default:
			return provider.NewGenericError(a.name, message, apiErr.HTTPStatusCode, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return provider.NewNetworkError(a.name, fmt.Sprintf("The request to %s timed out.", a.name), err)
	}
	return provider.NewNetworkError(a.name, fmt.Sprintf("Failed to get response from %s.", a.name), err)
}
