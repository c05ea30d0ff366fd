package conversation

import (
	"context"
	"errors"
	"fmt"
)

// ===============================================
// Store Bridge
// ===============================================

// Repository is the only contract through which the chat core touches
// persistent storage. All operations may fail with *StoreError carrying
// enough detail for the caller to roll back optimistic state.
type Repository interface {
	// ListConversations returns the owner's conversations ordered by
	// updated_at descending, each with its messages nested in
	// created_at ascending order.
	ListConversations(ctx context.Context, ownerID string) ([]*Conversation, error)

	// CreateConversation persists the stub and writes the store-assigned
	// ID and timestamps back into conv.
	CreateConversation(ctx context.Context, conv *Conversation) error

	// DeleteConversation removes a conversation and its messages.
	// Deleting a non-existent ID is not an error.
	DeleteConversation(ctx context.Context, id string) error

	// AppendMessage persists one message. It assigns an ID when the
	// message carries none and writes assigned fields back into msg. It
	// does not touch the conversation title or timestamp; that is the
	// caller's responsibility.
	AppendMessage(ctx context.Context, conversationID string, msg *Message) error

	// UpdateConversationTitle replaces the title of the conversation.
	UpdateConversationTitle(ctx context.Context, id, title string) error

	// TouchConversation refreshes the conversation's updated_at so that
	// ListConversations ordering tracks last activity. The orchestrator
	// calls it after every appended message.
	TouchConversation(ctx context.Context, id string) error

	// DeleteAllForOwner removes every conversation owned by the
	// principal. All-or-nothing; a partial backend failure is reported
	// as a single failure.
	DeleteAllForOwner(ctx context.Context, ownerID string) error
}

// StoreError wraps a persistence failure with the operation that caused
// it. The orchestrator reduces it to a short user-facing string; the
// wrapped error stays in the log-only channel.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store: %s", e.Op)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err as a store bridge failure for the given operation.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// IsStoreError reports whether err is classified as a store failure.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
