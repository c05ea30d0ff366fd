package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parlance/services/chat-api/internal/domain/chat"
	"parlance/services/chat-api/internal/domain/principal"
)

func TestManagerReusesSessionPerPrincipal(t *testing.T) {
	m := chat.NewManager(NewMockRepository(), newTestRegistry(&MockAdapter{}), zerolog.Nop())

	alice := principal.Principal{ID: "alice"}
	first, err := m.Session(context.Background(), alice)
	require.NoError(t, err)
	second, err := m.Session(context.Background(), alice)
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := m.Session(context.Background(), principal.Principal{ID: "bob"})
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestManagerRequiresPrincipal(t *testing.T) {
	m := chat.NewManager(NewMockRepository(), newTestRegistry(&MockAdapter{}), zerolog.Nop())

	_, err := m.Session(context.Background(), principal.Principal{})
	require.Error(t, err)
	assert.True(t, chat.IsAuthRequired(err))
}

func TestManagerInvalidateClosesSession(t *testing.T) {
	m := chat.NewManager(NewMockRepository(), newTestRegistry(&MockAdapter{}), zerolog.Nop())

	alice := principal.Principal{ID: "alice"}
	s, err := m.Session(context.Background(), alice)
	require.NoError(t, err)

	m.Invalidate("alice")

	_, err = s.SendMessage(context.Background(), "after logout", nil)
	assert.ErrorIs(t, err, chat.ErrSessionClosed)

	// The next lookup builds a fresh session.
	replacement, err := m.Session(context.Background(), alice)
	require.NoError(t, err)
	assert.NotSame(t, s, replacement)
}

func TestManagerRunStopsOnCancel(t *testing.T) {
	m := chat.NewManager(NewMockRepository(), newTestRegistry(&MockAdapter{}), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancellation")
	}
}
