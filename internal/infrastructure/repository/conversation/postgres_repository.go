package conversation

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "parlance/services/chat-api/internal/domain/conversation"
	"parlance/services/chat-api/internal/infrastructure/database/entities"
	"parlance/services/chat-api/internal/infrastructure/metrics"
	"parlance/services/chat-api/internal/utils/idgen"
)

const (
	conversationIDPrefix = "conv"
	messageIDPrefix      = "msg"
	idLength             = 16
)

// Repository persists conversations and their messages.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a conversation repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Ensure interface compliance.
var _ domain.Repository = (*Repository)(nil)

// ListConversations returns the owner's conversations newest-activity
// first, each with its messages in append order.
func (r *Repository) ListConversations(ctx context.Context, ownerID string) ([]*domain.Conversation, error) {
	defer observe("list_conversations", time.Now())

	var records []entities.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&records).Error; err != nil {
		return nil, domain.NewStoreError("list conversations", err)
	}

	conversations := make([]*domain.Conversation, 0, len(records))
	for i := range records {
		conv, err := records[i].EtoD()
		if err != nil {
			return nil, domain.NewStoreError("decode conversation", err)
		}
		conversations = append(conversations, conv)
	}
	return conversations, nil
}

// CreateConversation inserts the conversation record and writes the
// assigned ID and timestamps back.
func (r *Repository) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	defer observe("create_conversation", time.Now())

	if conv.ID == "" {
		id, err := idgen.GenerateSecureID(conversationIDPrefix, idLength)
		if err != nil {
			return domain.NewStoreError("generate conversation id", err)
		}
		conv.ID = id
	}

	entity := entities.NewSchemaConversation(conv)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return domain.NewStoreError("create conversation", err)
	}

	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

// DeleteConversation removes the conversation and its messages. Unknown
// IDs are a no-op.
func (r *Repository) DeleteConversation(ctx context.Context, id string) error {
	defer observe("delete_conversation", time.Now())

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entity entities.Conversation
		if err := tx.Where("public_id = ?", id).First(&entity).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Where("conversation_id = ?", entity.ID).Delete(&entities.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity).Error
	})
	if err != nil {
		return domain.NewStoreError("delete conversation", err)
	}
	return nil
}

// AppendMessage persists one message, assigning an ID when the message
// carries none. The parent conversation's title and timestamps are left
// untouched.
func (r *Repository) AppendMessage(ctx context.Context, conversationID string, msg *domain.Message) error {
	defer observe("append_message", time.Now())

	var parent entities.Conversation
	if err := r.db.WithContext(ctx).
		Select("id", "public_id").
		Where("public_id = ?", conversationID).
		First(&parent).Error; err != nil {
		return domain.NewStoreError("find conversation", err)
	}

	if msg.ID == "" {
		id, err := idgen.GenerateSecureID(messageIDPrefix, idLength)
		if err != nil {
			return domain.NewStoreError("generate message id", err)
		}
		msg.ID = id
	}
	msg.ConversationID = conversationID

	entity, err := entities.NewSchemaMessage(parent.ID, msg)
	if err != nil {
		return domain.NewStoreError("encode message", err)
	}
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return domain.NewStoreError("append message", err)
	}

	msg.CreatedAt = entity.CreatedAt
	return nil
}

// UpdateConversationTitle replaces the title, refreshing updated_at.
func (r *Repository) UpdateConversationTitle(ctx context.Context, id, title string) error {
	defer observe("update_title", time.Now())

	if err := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("public_id = ?", id).
		Update("title", title).Error; err != nil {
		return domain.NewStoreError("update conversation title", err)
	}
	return nil
}

// TouchConversation bumps the conversation's updated_at so listing order
// follows last activity.
func (r *Repository) TouchConversation(ctx context.Context, id string) error {
	defer observe("touch_conversation", time.Now())

	if err := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("public_id = ?", id).
		Update("updated_at", time.Now()).Error; err != nil {
		return domain.NewStoreError("touch conversation", err)
	}
	return nil
}

// DeleteAllForOwner removes every conversation and message owned by the
// principal in one transaction.
func (r *Repository) DeleteAllForOwner(ctx context.Context, ownerID string) error {
	defer observe("delete_all", time.Now())

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", ownerID).Delete(&entities.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("owner_id = ?", ownerID).Delete(&entities.Conversation{}).Error
	})
	if err != nil {
		return domain.NewStoreError("delete all conversations", err)
	}
	return nil
}

func observe(queryType string, start time.Time) {
	metrics.RecordDBQuery(queryType, time.Since(start).Seconds())
}
