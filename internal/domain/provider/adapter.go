package provider

import (
	"context"

	"parlance/services/chat-api/internal/domain/conversation"
)

// SystemInstruction establishes the assistant persona. The parenthesized
// one-word tone prefix is a protocol convention parsed by downstream
// text-to-speech tooling, so every adapter must inject it verbatim.
const SystemInstruction = "You are a helpful AI assistant. When you respond, you may optionally start " +
	"your response with a single word in parentheses to indicate your tone, like " +
	"(happy), (thoughtful), or (excited). For example: (happy) I'd be glad to help with that!"

// MaxOutputTokens bounds the reply length requested from every backend.
const MaxOutputTokens = 2048

// Adapter converts the uniform conversation representation into one
// backend's wire format and back into plain text.
//
// The history includes the newest user turn as the last element; the
// adapter splits prior turns from the current turn per its backend's
// protocol. Failures are always a classified *Error.
type Adapter interface {
	// Name identifies the backend in logs and error messages.
	Name() string

	// SupportsImages reports whether image attachments are forwarded as
	// inline binary parts. Adapters without image support ignore
	// attachments; the orchestrator never filters them before dispatch.
	SupportsImages() bool

	// Invoke sends the turn history and returns the assistant's
	// plain-text reply.
	Invoke(ctx context.Context, history []conversation.Message, credential, modelVariant string) (string, error)
}
