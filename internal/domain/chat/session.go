package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"parlance/services/chat-api/internal/domain/conversation"
	"parlance/services/chat-api/internal/domain/principal"
	"parlance/services/chat-api/internal/domain/provider"
	"parlance/services/chat-api/internal/infrastructure/metrics"
	"parlance/services/chat-api/internal/infrastructure/observability"
)

// ===============================================
// Send State Machine
// ===============================================

// SendState names the phases of one send operation. A successful send
// walks Idle → Dispatched → AwaitingProvider → Reconciling → Idle; a
// failed one ends Failed → Idle. The typing flag stays set for the whole
// walk and is cleared on every exit path.
type SendState string

const (
	StateIdle             SendState = "idle"
	StateDispatched       SendState = "dispatched"
	StateAwaitingProvider SendState = "awaiting_provider"
	StateReconciling      SendState = "reconciling"
	StateFailed           SendState = "failed"
)

// DefaultProviderTimeout bounds a single provider call. Expiry surfaces
// as a network-classified provider error.
const DefaultProviderTimeout = 60 * time.Second

// ===============================================
// Session
// ===============================================

// Session is the chat orchestrator for one authenticated principal. It
// owns the conversation list, the active conversation, the selected
// model, and the in-flight flag; all mutation goes through its methods.
type Session struct {
	store    conversation.Repository
	registry *provider.Registry
	log      zerolog.Logger

	providerTimeout time.Duration

	mu            sync.Mutex
	owner         principal.Principal
	conversations []*conversation.Conversation // updated_at descending
	currentID     string
	model         provider.ModelID
	typing        bool
	state         SendState
	closed        bool
	lastUsed      time.Time
}

// SendResult is the outcome of a successful send.
type SendResult struct {
	Conversation *conversation.Conversation
	Reply        *conversation.Message
}

// Option tweaks session construction.
type Option func(*Session)

// WithProviderTimeout overrides the per-call provider bound.
func WithProviderTimeout(d time.Duration) Option {
	return func(s *Session) { s.providerTimeout = d }
}

// NewSession loads the principal's history and returns an idle session.
func NewSession(ctx context.Context, owner principal.Principal, store conversation.Repository, registry *provider.Registry, log zerolog.Logger, opts ...Option) (*Session, error) {
	if owner.ID == "" {
		return nil, AuthRequiredError{}
	}

	s := &Session{
		store:           store,
		registry:        registry,
		log:             log.With().Str("owner", owner.ID).Logger(),
		providerTimeout: DefaultProviderTimeout,
		owner:           owner,
		model:           provider.DefaultModel,
		state:           StateIdle,
		lastUsed:        time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	convs, err := store.ListConversations(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	s.conversations = convs
	if len(convs) > 0 {
		s.currentID = convs[0].ID
	}
	return s, nil
}

// ===============================================
// Send
// ===============================================

// SendMessage runs one turn: optimistic append, persist, provider
// invocation, reply reconciliation. Only one send may be in flight per
// session; a competing call is rejected with ErrSendInFlight and has no
// observable effect.
func (s *Session) SendMessage(ctx context.Context, content string, attachments []conversation.Attachment) (*SendResult, error) {
	if s.owner.ID == "" {
		return nil, AuthRequiredError{}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.typing {
		s.mu.Unlock()
		return nil, ErrSendInFlight
	}
	s.typing = true
	s.lastUsed = time.Now()
	s.mu.Unlock()

	result, err := s.send(ctx, content, attachments)

	// The typing flag clears on every exit path, including conversation
	// creation failure, so the UI can never stay stuck.
	s.mu.Lock()
	s.typing = false
	s.state = StateIdle
	s.mu.Unlock()

	return result, err
}

func (s *Session) send(ctx context.Context, content string, attachments []conversation.Attachment) (*SendResult, error) {
	conv, err := s.ensureConversation(ctx)
	if err != nil {
		return nil, err
	}

	// Optimistic phase: the user turn is visible before anything is
	// persisted and is never removed afterwards, only annotated.
	s.mu.Lock()
	isFirst := len(conv.Messages) == 0
	msg := conversation.NewUserMessage(conv.ID, s.owner.ID, content, attachments)
	newTitle := ""
	if isFirst && content != "" {
		newTitle = conversation.TitleFromContent(content)
		conv.Title = newTitle
	}
	history := make([]conversation.Message, len(conv.Messages), len(conv.Messages)+1)
	copy(history, conv.Messages)
	history = append(history, msg)
	conv.Append(msg)
	s.promote(conv.ID)
	s.state = StateDispatched
	model := s.model
	s.mu.Unlock()

	ctx, span := observability.StartSendSpan(ctx, conv.ID, string(model), len(history))
	defer span.End()

	replyText, err := s.dispatch(ctx, conv.ID, newTitle, &msg, history, model)
	if err != nil {
		observability.RecordError(span, err)
		s.failSend(conv, msg.ID, model, err)
		return nil, err
	}

	replyMsg := conversation.NewAssistantMessage(conv.ID, s.owner.ID, replyText)

	s.setState(StateReconciling)
	if err := s.store.AppendMessage(ctx, conv.ID, &replyMsg); err != nil {
		s.failSend(conv, msg.ID, model, err)
		return nil, err
	}
	if err := s.store.TouchConversation(ctx, conv.ID); err != nil {
		s.failSend(conv, msg.ID, model, err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// Principal changed while the provider call was outstanding;
		// the result is no longer relevant.
		return nil, ErrSessionClosed
	}
	conv.Append(replyMsg)
	metrics.SendsTotal.WithLabelValues(string(model), "success").Inc()
	snapshot := conv.Clone()
	return &SendResult{
		Conversation: snapshot,
		Reply:        &snapshot.Messages[len(snapshot.Messages)-1],
	}, nil
}

// ensureConversation returns the active conversation, creating one when
// none is selected. A creation failure aborts before any optimistic
// change.
func (s *Session) ensureConversation(ctx context.Context) (*conversation.Conversation, error) {
	s.mu.Lock()
	conv := s.findLocked(s.currentID)
	s.mu.Unlock()
	if conv != nil {
		return conv, nil
	}

	created := conversation.New(s.owner.ID)
	if err := s.store.CreateConversation(ctx, created); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	s.conversations = append([]*conversation.Conversation{created}, s.conversations...)
	s.currentID = created.ID
	return created, nil
}

// dispatch persists the user turn and invokes the selected provider. The
// title update and message insert are both attempted before the provider
// call so a failed call can never drop the persisted turn.
func (s *Session) dispatch(ctx context.Context, convID, newTitle string, msg *conversation.Message, history []conversation.Message, model provider.ModelID) (string, error) {
	if newTitle != "" {
		if err := s.store.UpdateConversationTitle(ctx, convID, newTitle); err != nil {
			return "", err
		}
	}
	if err := s.store.AppendMessage(ctx, convID, msg); err != nil {
		return "", err
	}
	// The activity bump is the orchestrator's job so listing order keeps
	// tracking the last appended turn across reloads.
	if err := s.store.TouchConversation(ctx, convID); err != nil {
		return "", err
	}

	s.setState(StateAwaitingProvider)

	res, err := s.registry.Resolve(ctx, s.owner.ID, model)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	callCtx, span := observability.StartProviderSpan(callCtx, res.Adapter.Name(), res.Variant)
	defer span.End()

	start := time.Now()
	reply, err := res.Adapter.Invoke(callCtx, history, res.Credential, res.Variant)
	metrics.ProviderLatency.WithLabelValues(res.Adapter.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		if !provider.IsProviderError(err) {
			if errors.Is(err, context.DeadlineExceeded) {
				err = provider.NewNetworkError(res.Adapter.Name(), "The model took too long to respond.", err)
			} else {
				err = provider.NewGenericError(res.Adapter.Name(), "Failed to get a response from the model.", 0, err)
			}
		}
		observability.RecordError(span, err)
		return "", err
	}
	return reply, nil
}

// failSend annotates the optimistic user turn instead of removing it and
// records the failure; the full diagnostic goes to the log only.
func (s *Session) failSend(conv *conversation.Conversation, messageID string, model provider.ModelID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateFailed
	if !s.closed {
		conv.AnnotateError(messageID, UserFacingError(err))
	}
	metrics.SendsTotal.WithLabelValues(string(model), "failure").Inc()
	if provider.IsProviderError(err) {
		metrics.ProviderFailures.WithLabelValues(string(model), string(provider.KindOf(err))).Inc()
	}
	s.log.Error().Err(err).Str("conversation", conv.ID).Msg("send failed")
}

// UserFacingError reduces any send failure to the short string shown
// inline on the failed turn.
func UserFacingError(err error) string {
	var pe *provider.Error
	if errors.As(err, &pe) {
		return pe.UserMessage()
	}
	if conversation.IsStoreError(err) {
		return "Failed to save your message. Please try again."
	}
	return "An unexpected error occurred."
}

// ===============================================
// Conversation CRUD
// ===============================================

// CreateNewConversation creates and selects an empty conversation.
func (s *Session) CreateNewConversation(ctx context.Context) (*conversation.Conversation, error) {
	if s.owner.ID == "" {
		return nil, AuthRequiredError{}
	}

	conv := conversation.New(s.owner.ID)
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	s.conversations = append([]*conversation.Conversation{conv}, s.conversations...)
	s.currentID = conv.ID
	s.lastUsed = time.Now()
	return conv.Clone(), nil
}

// SelectConversation makes the given conversation active.
func (s *Session) SelectConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findLocked(id) == nil {
		return ErrConversationNotFound
	}
	s.currentID = id
	s.lastUsed = time.Now()
	return nil
}

// DeleteConversation removes the conversation optimistically; a store
// failure restores the removed item.
func (s *Session) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	original := s.conversations
	kept := make([]*conversation.Conversation, 0, len(original))
	found := false
	for _, c := range original {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		s.mu.Unlock()
		return ErrConversationNotFound
	}
	s.conversations = kept
	if s.currentID == id {
		s.currentID = ""
		if len(kept) > 0 {
			s.currentID = kept[0].ID
		}
	}
	s.mu.Unlock()

	if err := s.store.DeleteConversation(ctx, id); err != nil {
		s.mu.Lock()
		s.conversations = original
		s.currentID = id
		s.mu.Unlock()
		return err
	}
	return nil
}

// ===============================================
// Bulk Data Operations
// ===============================================

// ExportAllData re-reads the principal's full history from the store and
// renders it into a zip archive of per-conversation JSON and Markdown.
func (s *Session) ExportAllData(ctx context.Context) ([]byte, error) {
	if s.owner.ID == "" {
		return nil, AuthRequiredError{}
	}
	convs, err := s.store.ListConversations(ctx, s.owner.ID)
	if err != nil {
		return nil, err
	}
	return BuildArchive(convs)
}

// DeleteAllData removes every conversation the principal owns.
// All-or-nothing: a partial backend failure reports as one failure and
// the in-memory state is left untouched.
func (s *Session) DeleteAllData(ctx context.Context) error {
	if s.owner.ID == "" {
		return AuthRequiredError{}
	}
	if err := s.store.DeleteAllForOwner(ctx, s.owner.ID); err != nil {
		return err
	}
	s.mu.Lock()
	s.conversations = nil
	s.currentID = ""
	s.mu.Unlock()
	return nil
}

// ===============================================
// Accessors
// ===============================================

// SetModel switches the selected provider. The choice is session
// ephemeral and is never persisted.
func (s *Session) SetModel(id provider.ModelID) error {
	if !provider.ValidateModelID(string(id)) {
		return ErrUnknownModel
	}
	s.mu.Lock()
	s.model = id
	s.lastUsed = time.Now()
	s.mu.Unlock()
	return nil
}

// Model returns the currently selected model identifier.
func (s *Session) Model() provider.ModelID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// IsTyping reports whether a send is in flight.
func (s *Session) IsTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

// State returns the current phase of the send state machine.
func (s *Session) State() SendState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Conversations returns a deep-copied snapshot of the session's
// conversation list, most recently updated first. The copies are safe to
// read while a send mutates the live histories.
func (s *Session) Conversations() []*conversation.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*conversation.Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = c.Clone()
	}
	return out
}

// CurrentConversation returns a deep-copied snapshot of the active
// conversation, or nil.
func (s *Session) CurrentConversation() *conversation.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.findLocked(s.currentID); c != nil {
		return c.Clone()
	}
	return nil
}

// Owner returns the principal this session belongs to.
func (s *Session) Owner() principal.Principal { return s.owner }

// Close marks the session dead; outstanding work discards its results.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) setState(state SendState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) promote(id string) {
	for i, c := range s.conversations {
		if c.ID == id {
			if i > 0 {
				copy(s.conversations[1:i+1], s.conversations[:i])
				s.conversations[0] = c
			}
			return
		}
	}
}

func (s *Session) findLocked(id string) *conversation.Conversation {
	if id == "" {
		return nil
	}
	for _, c := range s.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
