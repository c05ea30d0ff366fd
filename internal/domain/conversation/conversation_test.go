package conversation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parlance/services/chat-api/internal/domain/conversation"
)

func TestTitleFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "short content kept as is", content: "Hello", want: "Hello"},
		{name: "exactly fifty runes kept", content: strings.Repeat("a", 50), want: strings.Repeat("a", 50)},
		{name: "long content truncated", content: strings.Repeat("a", 51), want: strings.Repeat("a", 50)},
		{name: "truncation counts runes not bytes", content: strings.Repeat("日", 60), want: strings.Repeat("日", 50)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, conversation.TitleFromContent(tc.content))
		})
	}
}

func TestNewUserMessageHasLocalID(t *testing.T) {
	msg := conversation.NewUserMessage("conv_1", "user-1", "hi", nil)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, conversation.RoleUser, msg.Role)
	assert.False(t, msg.CreatedAt.IsZero())

	other := conversation.NewUserMessage("conv_1", "user-1", "hi", nil)
	assert.NotEqual(t, msg.ID, other.ID)
}

func TestNewAssistantMessageLeavesIDForStore(t *testing.T) {
	msg := conversation.NewAssistantMessage("conv_1", "user-1", "reply")
	assert.Empty(t, msg.ID)
	assert.Equal(t, conversation.RoleAssistant, msg.Role)
}

func TestAppendRefreshesUpdatedAt(t *testing.T) {
	conv := conversation.New("user-1")
	before := conv.UpdatedAt

	conv.Append(conversation.NewUserMessage("", "user-1", "hi", nil))
	require.Len(t, conv.Messages, 1)
	assert.False(t, conv.UpdatedAt.Before(before))
}

func TestCloneDetachesMessageHistory(t *testing.T) {
	conv := conversation.New("user-1")
	conv.Append(conversation.NewUserMessage("", "user-1", "hi", nil))

	snapshot := conv.Clone()
	conv.Append(conversation.NewAssistantMessage("", "user-1", "hello"))
	conv.Messages[0].Error = "late annotation"

	require.Len(t, snapshot.Messages, 1)
	assert.Empty(t, snapshot.Messages[0].Error)
	assert.Equal(t, conv.ID, snapshot.ID)
}

func TestAnnotateError(t *testing.T) {
	conv := conversation.New("user-1")
	msg := conversation.NewUserMessage("", "user-1", "hi", nil)
	conv.Append(msg)

	assert.True(t, conv.AnnotateError(msg.ID, "provider unreachable"))
	assert.Equal(t, "provider unreachable", conv.Messages[0].Error)
	assert.False(t, conv.AnnotateError("missing", "ignored"))
}

func TestValidateMessageRole(t *testing.T) {
	assert.True(t, conversation.ValidateMessageRole("user"))
	assert.True(t, conversation.ValidateMessageRole("assistant"))
	assert.False(t, conversation.ValidateMessageRole("system"))
	assert.False(t, conversation.ValidateMessageRole(""))
}
