package xai

import (
	"parlance/services/chat-api/internal/infrastructure/providers/openai"
)

const baseURL = "https://api.x.ai/v1"

// New creates the Grok adapter. xAI exposes an OpenAI-compatible chat
// completions endpoint, so the adapter reuses the OpenAI protocol client
// pointed at the xAI API.
func New() *openai.Adapter {
	return openai.NewCompatible("Grok", baseURL)
}
