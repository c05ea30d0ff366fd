package conversation

import (
	"time"

	"github.com/google/uuid"
)

// ===============================================
// Conversation Types
// ===============================================

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

func ValidateMessageRole(input string) bool {
	switch MessageRole(input) {
	case RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentPDF   AttachmentKind = "pdf"
	AttachmentFile  AttachmentKind = "file"
)

const (
	// DefaultTitle is the placeholder assigned on creation, overwritten by
	// the first user turn.
	DefaultTitle = "New Conversation"

	// TitleMaxLen bounds the auto-derived conversation title.
	TitleMaxLen = 50
)

// ===============================================
// Conversation Structure
// ===============================================

// Attachment is a file carried on a user turn. Images carry their bytes
// inline as a data URL; other kinds are name-and-size only.
type Attachment struct {
	Kind      AttachmentKind `json:"kind"`
	Name      string         `json:"name"`
	SizeBytes int64          `json:"size_bytes"`
	DataURL   string         `json:"data_url,omitempty"`
}

// Message is one turn of a conversation. User messages keep the
// client-generated ID they were optimistically shown with; assistant
// messages receive a store-assigned ID on persist.
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	OwnerID        string       `json:"owner_id"`
	Role           MessageRole  `json:"role"`
	Content        string       `json:"content"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	// Error records why the provider call that followed this user turn
	// failed. The turn itself is never rolled back, only annotated.
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation owns an append-ordered message history for a single
// principal. Messages are ordered by created_at ascending and are never
// reordered after load.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	OwnerID   string    `json:"owner_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ===============================================
// Factory Functions
// ===============================================

// New creates a conversation stub for the given owner. The store assigns
// the canonical ID on creation.
func New(ownerID string) *Conversation {
	now := time.Now()
	return &Conversation{
		Title:     DefaultTitle,
		OwnerID:   ownerID,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewUserMessage builds a user turn with a locally generated ID so the UI
// can show it before the store confirms it.
func NewUserMessage(conversationID, ownerID, content string, attachments []Attachment) Message {
	return Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		OwnerID:        ownerID,
		Role:           RoleUser,
		Content:        content,
		Attachments:    attachments,
		CreatedAt:      time.Now(),
	}
}

// NewAssistantMessage builds an assistant reply. The ID is left empty for
// the store to assign.
func NewAssistantMessage(conversationID, ownerID, content string) Message {
	return Message{
		ConversationID: conversationID,
		OwnerID:        ownerID,
		Role:           RoleAssistant,
		Content:        content,
		CreatedAt:      time.Now(),
	}
}

// TitleFromContent derives a conversation title from the first user turn,
// truncated to TitleMaxLen runes.
func TitleFromContent(content string) string {
	runes := []rune(content)
	if len(runes) <= TitleMaxLen {
		return content
	}
	return string(runes[:TitleMaxLen])
}

// Append adds a message to the in-memory history and refreshes the
// conversation's updated_at.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}

// Clone returns a deep copy whose message slice is independent of the
// original, so callers can read it without holding the owning session's
// lock. Attachment slices are shared; they are never mutated after the
// message is built.
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return &out
}

// AnnotateError marks the message with the given ID as failed. Returns
// false when the message is not present.
func (c *Conversation) AnnotateError(messageID, errText string) bool {
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			c.Messages[i].Error = errText
			return true
		}
	}
	return false
}
