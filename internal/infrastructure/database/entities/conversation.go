package entities

import (
	"time"

	"gorm.io/datatypes"

	"parlance/services/chat-api/internal/domain/conversation"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Title    string `gorm:"type:varchar(256);not null"`
	OwnerID  string `gorm:"type:varchar(64);index:idx_conversation_owner;not null"`

	Messages []Message `gorm:"foreignKey:ConversationID"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// Message represents the database schema for conversation messages
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PublicID       string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationID uint           `gorm:"index;not null"`
	OwnerID        string         `gorm:"type:varchar(64);index;not null"`
	Role           string         `gorm:"type:varchar(16);not null"`
	Content        string         `gorm:"type:text"`
	Attachments    datatypes.JSON `gorm:"type:jsonb"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// ===============================================
// Conversion Functions
// ===============================================

// EtoD converts database entity to domain model
func (c *Conversation) EtoD() (*conversation.Conversation, error) {
	messages := make([]conversation.Message, len(c.Messages))
	for i := range c.Messages {
		msg, err := c.Messages[i].EtoD(c.PublicID)
		if err != nil {
			return nil, err
		}
		messages[i] = *msg
	}

	return &conversation.Conversation{
		ID:        c.PublicID,
		Title:     c.Title,
		OwnerID:   c.OwnerID,
		Messages:  messages,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}

// EtoD converts database entity to domain model
func (m *Message) EtoD(conversationPublicID string) (*conversation.Message, error) {
	attachments, err := unmarshalAttachments(m.Attachments)
	if err != nil {
		return nil, err
	}

	return &conversation.Message{
		ID:             m.PublicID,
		ConversationID: conversationPublicID,
		OwnerID:        m.OwnerID,
		Role:           conversation.MessageRole(m.Role),
		Content:        m.Content,
		Attachments:    attachments,
		CreatedAt:      m.CreatedAt,
	}, nil
}

// NewSchemaConversation creates a database entity from domain model
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		PublicID:  c.ID,
		Title:     c.Title,
		OwnerID:   c.OwnerID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewSchemaMessage creates a database entity from domain model
func NewSchemaMessage(conversationID uint, m *conversation.Message) (*Message, error) {
	attachments, err := marshalAttachments(m.Attachments)
	if err != nil {
		return nil, err
	}

	return &Message{
		PublicID:       m.ID,
		ConversationID: conversationID,
		OwnerID:        m.OwnerID,
		Role:           string(m.Role),
		Content:        m.Content,
		Attachments:    attachments,
		CreatedAt:      m.CreatedAt,
	}, nil
}
