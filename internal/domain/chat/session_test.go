package chat_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parlance/services/chat-api/internal/domain/chat"
	"parlance/services/chat-api/internal/domain/conversation"
	"parlance/services/chat-api/internal/domain/principal"
	"parlance/services/chat-api/internal/domain/provider"
)

// ===============================================
// Test Doubles
// ===============================================

// MockRepository is an in-memory conversation.Repository. Individual
// operations can be overridden through the corresponding Func field.
type MockRepository struct {
	mu     sync.Mutex
	convs  map[string]*conversation.Conversation
	nextID int

	ListConversationsFunc       func(ctx context.Context, ownerID string) ([]*conversation.Conversation, error)
	CreateConversationFunc      func(ctx context.Context, conv *conversation.Conversation) error
	DeleteConversationFunc      func(ctx context.Context, id string) error
	AppendMessageFunc           func(ctx context.Context, conversationID string, msg *conversation.Message) error
	UpdateConversationTitleFunc func(ctx context.Context, id, title string) error
	TouchConversationFunc       func(ctx context.Context, id string) error
	DeleteAllForOwnerFunc       func(ctx context.Context, ownerID string) error

	AppendedMessages []conversation.Message
	TitleUpdates     map[string]string
	Touched          []string
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		convs:        make(map[string]*conversation.Conversation),
		TitleUpdates: make(map[string]string),
	}
}

func (m *MockRepository) ListConversations(ctx context.Context, ownerID string) ([]*conversation.Conversation, error) {
	if m.ListConversationsFunc != nil {
		return m.ListConversationsFunc(ctx, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*conversation.Conversation{}
	for _, c := range m.convs {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockRepository) CreateConversation(ctx context.Context, conv *conversation.Conversation) error {
	if m.CreateConversationFunc != nil {
		return m.CreateConversationFunc(ctx, conv)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	conv.ID = fmt.Sprintf("conv_%d", m.nextID)
	m.convs[conv.ID] = conv
	return nil
}

func (m *MockRepository) DeleteConversation(ctx context.Context, id string) error {
	if m.DeleteConversationFunc != nil {
		return m.DeleteConversationFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.convs, id)
	return nil
}

func (m *MockRepository) AppendMessage(ctx context.Context, conversationID string, msg *conversation.Message) error {
	if m.AppendMessageFunc != nil {
		return m.AppendMessageFunc(ctx, conversationID, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.ID == "" {
		m.nextID++
		msg.ID = fmt.Sprintf("msg_%d", m.nextID)
	}
	m.AppendedMessages = append(m.AppendedMessages, *msg)
	return nil
}

func (m *MockRepository) UpdateConversationTitle(ctx context.Context, id, title string) error {
	if m.UpdateConversationTitleFunc != nil {
		return m.UpdateConversationTitleFunc(ctx, id, title)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TitleUpdates[id] = title
	return nil
}

func (m *MockRepository) TouchConversation(ctx context.Context, id string) error {
	if m.TouchConversationFunc != nil {
		return m.TouchConversationFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Touched = append(m.Touched, id)
	return nil
}

func (m *MockRepository) DeleteAllForOwner(ctx context.Context, ownerID string) error {
	if m.DeleteAllForOwnerFunc != nil {
		return m.DeleteAllForOwnerFunc(ctx, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.convs {
		if c.OwnerID == ownerID {
			delete(m.convs, id)
		}
	}
	return nil
}

// MockAdapter is a scriptable provider.Adapter.
type MockAdapter struct {
	NameValue  string
	InvokeFunc func(ctx context.Context, history []conversation.Message, credential, modelVariant string) (string, error)
}

func (m *MockAdapter) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "Mock"
}

func (m *MockAdapter) SupportsImages() bool { return false }

func (m *MockAdapter) Invoke(ctx context.Context, history []conversation.Message, credential, modelVariant string) (string, error) {
	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, history, credential, modelVariant)
	}
	return "mock reply", nil
}

func newTestRegistry(adapter provider.Adapter) *provider.Registry {
	registry := provider.NewRegistry(nil)
	for _, id := range provider.ModelIDs() {
		registry.Register(id, provider.Entry{
			Adapter:    adapter,
			KeyName:    "gemini",
			DefaultKey: "default-key",
			Variant:    string(id),
		})
	}
	return registry
}

func newTestSession(t *testing.T, repo *MockRepository, adapter provider.Adapter) *chat.Session {
	t.Helper()
	s, err := chat.NewSession(context.Background(),
		principal.Principal{ID: "user-1", Email: "user@example.com"},
		repo, newTestRegistry(adapter), zerolog.Nop())
	require.NoError(t, err)
	return s
}

// ===============================================
// Send
// ===============================================

func TestSendMessageSuccess(t *testing.T) {
	repo := NewMockRepository()
	adapter := &MockAdapter{
		InvokeFunc: func(ctx context.Context, history []conversation.Message, credential, modelVariant string) (string, error) {
			require.NotEmpty(t, history)
			assert.Equal(t, conversation.RoleUser, history[len(history)-1].Role)
			assert.Equal(t, "default-key", credential)
			return "(happy) Hello there!", nil
		},
	}
	s := newTestSession(t, repo, adapter)

	result, err := s.SendMessage(context.Background(), "Hello, world", nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "(happy) Hello there!", result.Reply.Content)
	assert.Equal(t, conversation.RoleAssistant, result.Reply.Role)
	assert.NotEmpty(t, result.Reply.ID)

	conv := result.Conversation
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "Hello, world", conv.Messages[0].Content)
	assert.Empty(t, conv.Messages[0].Error)
	assert.Equal(t, "Hello, world", conv.Title)

	// User turn persisted before the assistant turn.
	require.Len(t, repo.AppendedMessages, 2)
	assert.Equal(t, conversation.RoleUser, repo.AppendedMessages[0].Role)
	assert.Equal(t, conversation.RoleAssistant, repo.AppendedMessages[1].Role)
	assert.Equal(t, "Hello, world", repo.TitleUpdates[conv.ID])

	assert.False(t, s.IsTyping())
	assert.Equal(t, chat.StateIdle, s.State())
}

func TestSendMessageTitleTruncatedToFiftyRunes(t *testing.T) {
	repo := NewMockRepository()
	s := newTestSession(t, repo, &MockAdapter{})

	long := strings.Repeat("é", 80)
	result, err := s.SendMessage(context.Background(), long, nil)
	require.NoError(t, err)

	title := result.Conversation.Title
	assert.Equal(t, 50, len([]rune(title)))
	assert.Equal(t, strings.Repeat("é", 50), title)
}

func TestSendMessageTitleOnlyFromFirstTurn(t *testing.T) {
	repo := NewMockRepository()
	s := newTestSession(t, repo, &MockAdapter{})

	first, err := s.SendMessage(context.Background(), "first question", nil)
	require.NoError(t, err)
	_, err = s.SendMessage(context.Background(), "second question", nil)
	require.NoError(t, err)

	assert.Equal(t, "first question", first.Conversation.Title)
	assert.Len(t, repo.TitleUpdates, 1)
}

func TestSendMessageEmptyContentKeepsDefaultTitle(t *testing.T) {
	repo := NewMockRepository()
	s := newTestSession(t, repo, &MockAdapter{})

	result, err := s.SendMessage(context.Background(), "", []conversation.Attachment{
		{Kind: conversation.AttachmentFile, Name: "notes.txt", SizeBytes: 12},
	})
	require.NoError(t, err)

	assert.Equal(t, conversation.DefaultTitle, result.Conversation.Title)
	assert.Empty(t, repo.TitleUpdates)
}

func TestSendMessageProviderFailureAnnotatesUserTurn(t *testing.T) {
	repo := NewMockRepository()
	adapter := &MockAdapter{
		InvokeFunc: func(ctx context.Context, history []conversation.Message, credential, modelVariant string) (string, error) {
			return "", provider.NewNetworkError("Gemini", "A network error occurred while contacting the Gemini API. This is likely a temporary issue or a cross-origin restriction.", errors.New("dial tcp: timeout"))
		},
	}
	s := newTestSession(t, repo, adapter)

	_, err := s.SendMessage(context.Background(), "will fail", nil)
	require.Error(t, err)
	assert.Equal(t, provider.ErrNetwork, provider.KindOf(err))

	// The optimistic user turn stays visible, annotated with the
	// reduced failure string.
	conv := s.CurrentConversation()
	require.NotNil(t, conv)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "will fail", conv.Messages[0].Content)
	assert.Contains(t, conv.Messages[0].Error, "network error")

	// The persisted user turn is never rolled back.
	require.Len(t, repo.AppendedMessages, 1)
	assert.Equal(t, conversation.RoleUser, repo.AppendedMessages[0].Role)

	assert.False(t, s.IsTyping())
	assert.Equal(t, chat.StateIdle, s.State())
}

func TestSendMessageAuthFailureWithoutCredential(t *testing.T) {
	repo := NewMockRepository()
	registry := provider.NewRegistry(nil)
	registry.Register(provider.ModelGeminiFlash, provider.Entry{
		Adapter: &MockAdapter{NameValue: "Gemini"},
		KeyName: "gemini",
		Variant: "gemini-1.5-flash",
	})
	s, err := chat.NewSession(context.Background(), principal.Principal{ID: "user-1"}, repo, registry, zerolog.Nop())
	require.NoError(t, err)

	_, err = s.SendMessage(context.Background(), "no key configured", nil)
	require.Error(t, err)
	assert.Equal(t, provider.ErrAuth, provider.KindOf(err))
	assert.Equal(t, "Gemini API key not found. Please add it in settings.", chat.UserFacingError(err))

	// Resolution fails before any network activity but after the
	// optimistic append, so the turn is annotated in place.
	conv := s.CurrentConversation()
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "Gemini API key not found. Please add it in settings.", conv.Messages[0].Error)
}

func TestSendMessageStoreFailureAbortsBeforeOptimisticChange(t *testing.T) {
	repo := NewMockRepository()
	repo.CreateConversationFunc = func(ctx context.Context, conv *conversation.Conversation) error {
		return conversation.NewStoreError("create conversation", errors.New("connection refused"))
	}
	s := newTestSession(t, repo, &MockAdapter{})

	_, err := s.SendMessage(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.True(t, conversation.IsStoreError(err))

	assert.Nil(t, s.CurrentConversation())
	assert.Empty(t, s.Conversations())
	assert.False(t, s.IsTyping())
}

func TestSendMessageRejectsConcurrentSend(t *testing.T) {
	repo := NewMockRepository()
	release := make(chan struct{})
	entered := make(chan struct{})
	adapter := &MockAdapter{
		InvokeFunc: func(ctx context.Context, history []conversation.Message, credential, modelVariant string) (string, error) {
			close(entered)
			<-release
			return "slow reply", nil
		},
	}
	s := newTestSession(t, repo, adapter)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.SendMessage(context.Background(), "first", nil)
		assert.NoError(t, err)
	}()

	<-entered
	assert.True(t, s.IsTyping())

	_, err := s.SendMessage(context.Background(), "second", nil)
	assert.ErrorIs(t, err, chat.ErrSendInFlight)

	// The rejected send leaves no trace.
	conv := s.CurrentConversation()
	require.NotNil(t, conv)
	assert.Len(t, conv.Messages, 1)

	close(release)
	wg.Wait()

	conv = s.CurrentConversation()
	assert.Len(t, conv.Messages, 2)
	assert.False(t, s.IsTyping())
}

func TestSendMessageTimeoutClassifiedAsNetwork(t *testing.T) {
	repo := NewMockRepository()
	adapter := &MockAdapter{
		InvokeFunc: func(ctx context.Context, history []conversation.Message, credential, modelVariant string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	s, err := chat.NewSession(context.Background(), principal.Principal{ID: "user-1"},
		repo, newTestRegistry(adapter), zerolog.Nop(),
		chat.WithProviderTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = s.SendMessage(context.Background(), "slow model", nil)
	require.Error(t, err)
	assert.Equal(t, provider.ErrNetwork, provider.KindOf(err))
	assert.Equal(t, "The model took too long to respond.", chat.UserFacingError(err))
}

func TestSendMessageBumpsConversationActivity(t *testing.T) {
	repo := NewMockRepository()
	s := newTestSession(t, repo, &MockAdapter{})

	result, err := s.SendMessage(context.Background(), "hello", nil)
	require.NoError(t, err)

	// One bump per persisted turn, user and assistant alike.
	require.Len(t, repo.Touched, 2)
	assert.Equal(t, result.Conversation.ID, repo.Touched[0])
	assert.Equal(t, result.Conversation.ID, repo.Touched[1])
}

func TestConversationSnapshotsAreIsolated(t *testing.T) {
	repo := NewMockRepository()
	s := newTestSession(t, repo, &MockAdapter{})

	_, err := s.SendMessage(context.Background(), "first", nil)
	require.NoError(t, err)

	before := s.CurrentConversation()
	listed := s.Conversations()
	require.Len(t, before.Messages, 2)

	_, err = s.SendMessage(context.Background(), "second", nil)
	require.NoError(t, err)

	// Earlier snapshots never see later appends.
	assert.Len(t, before.Messages, 2)
	require.Len(t, listed, 1)
	assert.Len(t, listed[0].Messages, 2)
	assert.Len(t, s.CurrentConversation().Messages, 4)
}

func TestConversationReadsDuringSend(t *testing.T) {
	repo := NewMockRepository()
	release := make(chan struct{})
	entered := make(chan struct{})
	adapter := &MockAdapter{
		InvokeFunc: func(ctx context.Context, history []conversation.Message, credential, modelVariant string) (string, error) {
			close(entered)
			<-release
			return "slow reply", nil
		},
	}
	s := newTestSession(t, repo, adapter)

	var sender sync.WaitGroup
	sender.Add(1)
	go func() {
		defer sender.Done()
		_, err := s.SendMessage(context.Background(), "first", nil)
		assert.NoError(t, err)
	}()
	<-entered

	// Readers walk the histories while the send is still mutating them.
	done := make(chan struct{})
	var readers sync.WaitGroup
	for i := 0; i < 4; i++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				for _, c := range s.Conversations() {
					for j := range c.Messages {
						_ = c.Messages[j].Content
					}
				}
				if conv := s.CurrentConversation(); conv != nil {
					_ = len(conv.Messages)
				}
			}
		}()
	}

	close(release)
	sender.Wait()
	close(done)
	readers.Wait()

	conv := s.CurrentConversation()
	require.NotNil(t, conv)
	assert.Len(t, conv.Messages, 2)
}

func TestSendMessageWithoutPrincipal(t *testing.T) {
	_, err := chat.NewSession(context.Background(), principal.Principal{},
		NewMockRepository(), newTestRegistry(&MockAdapter{}), zerolog.Nop())
	require.Error(t, err)
	assert.True(t, chat.IsAuthRequired(err))
}

// ===============================================
// Conversation CRUD
// ===============================================

func TestCreateNewConversationSelectsIt(t *testing.T) {
	repo := NewMockRepository()
	s := newTestSession(t, repo, &MockAdapter{})

	conv, err := s.CreateNewConversation(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, conversation.DefaultTitle, conv.Title)

	current := s.CurrentConversation()
	require.NotNil(t, current)
	assert.Equal(t, conv.ID, current.ID)
}

func TestSelectConversation(t *testing.T) {
	repo := NewMockRepository()
	s := newTestSession(t, repo, &MockAdapter{})

	first, err := s.CreateNewConversation(context.Background())
	require.NoError(t, err)
	second, err := s.CreateNewConversation(context.Background())
	require.NoError(t, err)
	require.Equal(t, second.ID, s.CurrentConversation().ID)

	require.NoError(t, s.SelectConversation(first.ID))
	assert.Equal(t, first.ID, s.CurrentConversation().ID)

	err = s.SelectConversation("conv_missing")
	assert.ErrorIs(t, err, chat.ErrConversationNotFound)
}

func TestDeleteConversation(t *testing.T) {
	repo := NewMockRepository()
	s := newTestSession(t, repo, &MockAdapter{})

	first, err := s.CreateNewConversation(context.Background())
	require.NoError(t, err)
	second, err := s.CreateNewConversation(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.DeleteConversation(context.Background(), second.ID))
	assert.Len(t, s.Conversations(), 1)
	assert.Equal(t, first.ID, s.CurrentConversation().ID)
}

func TestDeleteConversationRollsBackOnStoreFailure(t *testing.T) {
	repo := NewMockRepository()
	s := newTestSession(t, repo, &MockAdapter{})

	conv, err := s.CreateNewConversation(context.Background())
	require.NoError(t, err)

	repo.DeleteConversationFunc = func(ctx context.Context, id string) error {
		return conversation.NewStoreError("delete conversation", errors.New("connection reset"))
	}

	err = s.DeleteConversation(context.Background(), conv.ID)
	require.Error(t, err)
	assert.True(t, conversation.IsStoreError(err))

	// The optimistic removal is restored.
	require.Len(t, s.Conversations(), 1)
	assert.Equal(t, conv.ID, s.CurrentConversation().ID)
}

func TestDeleteConversationUnknownID(t *testing.T) {
	s := newTestSession(t, NewMockRepository(), &MockAdapter{})
	err := s.DeleteConversation(context.Background(), "conv_missing")
	assert.ErrorIs(t, err, chat.ErrConversationNotFound)
}

// ===============================================
// Bulk Data Operations
// ===============================================

func TestDeleteAllDataClearsSessionState(t *testing.T) {
	repo := NewMockRepository()
	s := newTestSession(t, repo, &MockAdapter{})

	_, err := s.SendMessage(context.Background(), "keep nothing", nil)
	require.NoError(t, err)
	require.NotEmpty(t, s.Conversations())

	require.NoError(t, s.DeleteAllData(context.Background()))
	assert.Empty(t, s.Conversations())
	assert.Nil(t, s.CurrentConversation())
}

func TestDeleteAllDataKeepsStateOnStoreFailure(t *testing.T) {
	repo := NewMockRepository()
	s := newTestSession(t, repo, &MockAdapter{})

	_, err := s.CreateNewConversation(context.Background())
	require.NoError(t, err)

	repo.DeleteAllForOwnerFunc = func(ctx context.Context, ownerID string) error {
		return conversation.NewStoreError("delete all", errors.New("deadlock detected"))
	}

	err = s.DeleteAllData(context.Background())
	require.Error(t, err)
	assert.Len(t, s.Conversations(), 1)
}

// ===============================================
// Model Selection
// ===============================================

func TestSetModel(t *testing.T) {
	s := newTestSession(t, NewMockRepository(), &MockAdapter{})
	assert.Equal(t, provider.DefaultModel, s.Model())

	require.NoError(t, s.SetModel(provider.ModelClaudeOpus))
	assert.Equal(t, provider.ModelClaudeOpus, s.Model())

	err := s.SetModel(provider.ModelID("gpt-99"))
	assert.ErrorIs(t, err, chat.ErrUnknownModel)
	assert.Equal(t, provider.ModelClaudeOpus, s.Model())
}

// ===============================================
// Session Lifecycle
// ===============================================

func TestClosedSessionRejectsSend(t *testing.T) {
	s := newTestSession(t, NewMockRepository(), &MockAdapter{})
	s.Close()

	_, err := s.SendMessage(context.Background(), "too late", nil)
	assert.ErrorIs(t, err, chat.ErrSessionClosed)
}

func TestUserFacingError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "provider error surfaces its message",
			err:  provider.NewAuthError("Claude", "Claude API key not found. Please add it in settings.", nil),
			want: "Claude API key not found. Please add it in settings.",
		},
		{
			name: "store error reduces to retry hint",
			err:  conversation.NewStoreError("append message", errors.New("disk full")),
			want: "Failed to save your message. Please try again.",
		},
		{
			name: "anything else is generic",
			err:  errors.New("boom"),
			want: "An unexpected error occurred.",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, chat.UserFacingError(tc.err))
		})
	}
}
