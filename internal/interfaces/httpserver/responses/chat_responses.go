package responses

import (
	"time"

	"parlance/services/chat-api/internal/domain/chat"
	"parlance/services/chat-api/internal/domain/conversation"
	"parlance/services/chat-api/internal/domain/usersettings"
)

// AttachmentPayload mirrors one stored attachment.
type AttachmentPayload struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	DataURL   string `json:"data_url,omitempty"`
}

// MessagePayload mirrors one conversation turn.
type MessagePayload struct {
	ID          string              `json:"id"`
	Role        string              `json:"role"`
	Content     string              `json:"content"`
	Attachments []AttachmentPayload `json:"attachments,omitempty"`
	Error       string              `json:"error,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// ConversationPayload mirrors one conversation with its history.
type ConversationPayload struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Messages  []MessagePayload `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ConversationListResponse wraps the owner's conversation list.
type ConversationListResponse struct {
	Data      []ConversationPayload `json:"data"`
	CurrentID string                `json:"current_id,omitempty"`
}

// SendResponse is the outcome of a successful send.
type SendResponse struct {
	Conversation ConversationPayload `json:"conversation"`
	Reply        MessagePayload      `json:"reply"`
}

// SessionStateResponse reports the session's transient state.
type SessionStateResponse struct {
	Model     string `json:"model"`
	IsTyping  bool   `json:"is_typing"`
	State     string `json:"state"`
	CurrentID string `json:"current_id,omitempty"`
}

// SettingsResponse reports which providers have a stored key override.
// Raw key material is never echoed back.
type SettingsResponse struct {
	ConfiguredKeys []string  `json:"configured_keys"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ModelsResponse lists the selectable model identifiers.
type ModelsResponse struct {
	Data    []string `json:"data"`
	Default string   `json:"default"`
}

// MapMessage maps a domain message to its payload.
func MapMessage(m *conversation.Message) MessagePayload {
	attachments := make([]AttachmentPayload, 0, len(m.Attachments))
	for _, att := range m.Attachments {
		attachments = append(attachments, AttachmentPayload{
			Kind:      string(att.Kind),
			Name:      att.Name,
			SizeBytes: att.SizeBytes,
			DataURL:   att.DataURL,
		})
	}
	if len(attachments) == 0 {
		attachments = nil
	}
	return MessagePayload{
		ID:          m.ID,
		Role:        string(m.Role),
		Content:     m.Content,
		Attachments: attachments,
		Error:       m.Error,
		CreatedAt:   m.CreatedAt,
	}
}

// MapConversation maps a domain conversation to its payload.
func MapConversation(c *conversation.Conversation) ConversationPayload {
	messages := make([]MessagePayload, 0, len(c.Messages))
	for i := range c.Messages {
		messages = append(messages, MapMessage(&c.Messages[i]))
	}
	return ConversationPayload{
		ID:        c.ID,
		Title:     c.Title,
		Messages:  messages,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// MapConversationList maps the session's conversation list.
func MapConversationList(convs []*conversation.Conversation, currentID string) ConversationListResponse {
	data := make([]ConversationPayload, 0, len(convs))
	for _, c := range convs {
		data = append(data, MapConversation(c))
	}
	return ConversationListResponse{Data: data, CurrentID: currentID}
}

// MapSendResult maps a send outcome.
func MapSendResult(res *chat.SendResult) SendResponse {
	return SendResponse{
		Conversation: MapConversation(res.Conversation),
		Reply:        MapMessage(res.Reply),
	}
}

// MapSettings reduces stored settings to the configured key names.
func MapSettings(s *usersettings.Settings) SettingsResponse {
	keys := make([]string, 0, len(s.APIKeys))
	for _, name := range []string{
		usersettings.KeyGemini,
		usersettings.KeyOpenAI,
		usersettings.KeyAnthropic,
		usersettings.KeyGrok,
	} {
		if s.APIKeys[name] != "" {
			keys = append(keys, name)
		}
	}
	return SettingsResponse{ConfiguredKeys: keys, UpdatedAt: s.UpdatedAt}
}
