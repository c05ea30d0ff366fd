package research_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parlance/services/chat-api/internal/domain/provider"
	"parlance/services/chat-api/internal/domain/research"
)

type MockGenerativeClient struct {
	GenerateJSONFunc func(ctx context.Context, credential, prompt string) ([]byte, error)
}

func (m *MockGenerativeClient) GenerateJSON(ctx context.Context, credential, prompt string) ([]byte, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, credential, prompt)
	}
	return []byte("{}"), nil
}

type MockCredentialResolver struct {
	ResolveFunc func(ctx context.Context, ownerID string, id provider.ModelID) (provider.Resolution, error)
}

func (m *MockCredentialResolver) Resolve(ctx context.Context, ownerID string, id provider.ModelID) (provider.Resolution, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, ownerID, id)
	}
	return provider.Resolution{Credential: "test-key"}, nil
}

func TestExtractKnowledgeGraph(t *testing.T) {
	var captured string
	client := &MockGenerativeClient{
		GenerateJSONFunc: func(ctx context.Context, credential, prompt string) ([]byte, error) {
			captured = prompt
			assert.Equal(t, "test-key", credential)
			return []byte(`{
				"concepts": [
					{"id": "neural-networks", "name": "Neural Networks", "description": "Models inspired by the brain."},
					{"id": "deep-learning", "name": "Deep Learning", "description": "A subfield of machine learning."}
				],
				"relationships": [
					{"source": "neural-networks", "target": "deep-learning", "label": "used_in"}
				]
			}`), nil
		},
	}
	svc := research.NewService(client, &MockCredentialResolver{})

	graph, err := svc.ExtractKnowledgeGraph(context.Background(), "user-1",
		"Neural networks are used in deep learning.", "Machine Learning", "Beginner")
	require.NoError(t, err)

	require.Len(t, graph.Concepts, 2)
	assert.Equal(t, "neural-networks", graph.Concepts[0].ID)
	require.Len(t, graph.Relationships, 1)
	assert.Equal(t, "used_in", graph.Relationships[0].Label)

	// The placeholders are substituted, and the text to analyze follows
	// the instructions.
	assert.Contains(t, captured, "Domain: Machine Learning")
	assert.Contains(t, captured, "Target Audience Level: Beginner")
	assert.Contains(t, captured, "Neural networks are used in deep learning.")
	assert.NotContains(t, captured, "[DOMAIN]")
	assert.NotContains(t, captured, "[LEVEL]")
}

func TestFormatCitations(t *testing.T) {
	var captured string
	client := &MockGenerativeClient{
		GenerateJSONFunc: func(ctx context.Context, credential, prompt string) ([]byte, error) {
			captured = prompt
			return []byte(`[
				{
					"type": "youtube",
					"id": "dQw4w9WgXcQ",
					"title": "A Talk",
					"url": "https://youtube.com/watch?v=dQw4w9WgXcQ",
					"publisher": "ChannelName",
					"publishedAt": "2024-06-01",
					"accessed": "2025-03-14"
				},
				{
					"type": "web",
					"title": "An Article",
					"url": "https://example.com/article",
					"publisher": "example.com",
					"publishedAt": null,
					"accessed": "2025-03-14"
				}
			]`), nil
		},
	}
	svc := research.NewService(client, &MockCredentialResolver{})

	sources := []map[string]string{{"title": "A Talk"}, {"title": "An Article"}}
	citations, err := svc.FormatCitations(context.Background(), "user-1", sources)
	require.NoError(t, err)

	require.Len(t, citations, 2)
	assert.Equal(t, "youtube", citations[0].Type)
	assert.Equal(t, "dQw4w9WgXcQ", citations[0].ID)
	require.NotNil(t, citations[0].PublishedAt)
	assert.Equal(t, "2024-06-01", *citations[0].PublishedAt)
	assert.Nil(t, citations[1].PublishedAt)

	// The prompt carries a concrete date and the serialized sources.
	assert.NotContains(t, captured, "[CURRENT_DATE]")
	assert.Contains(t, captured, "Today's date is:")
	assert.Contains(t, captured, `"title": "An Article"`)
}

func TestAnalyzeSources(t *testing.T) {
	client := &MockGenerativeClient{
		GenerateJSONFunc: func(ctx context.Context, credential, prompt string) ([]byte, error) {
			assert.NotContains(t, prompt, "[CURRENT_DATE]")
			return []byte(`{
				"topic": "Sleep science",
				"claims": [
					{
						"id": "c1",
						"claim_text": "Adults need 7-9 hours of sleep.",
						"supporting": [{"type": "web", "link": "https://example.com", "title": "Sleep Study"}],
						"contradicting": [],
						"confidence": "high",
						"rationale": "All sources agree."
					}
				],
				"summary": "Sources broadly agree.",
				"citations": []
			}`), nil
		},
	}
	svc := research.NewService(client, &MockCredentialResolver{})

	analysis, err := svc.AnalyzeSources(context.Background(), "user-1",
		map[string]any{"videos": []string{"abc"}})
	require.NoError(t, err)

	assert.Equal(t, "Sleep science", analysis.Topic)
	require.Len(t, analysis.Claims, 1)
	assert.Equal(t, "high", analysis.Claims[0].Confidence)
	require.Len(t, analysis.Claims[0].Supporting, 1)
	assert.Empty(t, analysis.Claims[0].Contradicting)
}

func TestInvalidJSONIsFormatError(t *testing.T) {
	client := &MockGenerativeClient{
		GenerateJSONFunc: func(ctx context.Context, credential, prompt string) ([]byte, error) {
			return []byte("I cannot produce JSON today."), nil
		},
	}
	svc := research.NewService(client, &MockCredentialResolver{})

	_, err := svc.ExtractKnowledgeGraph(context.Background(), "user-1", "text", "General", "Beginner")
	require.Error(t, err)

	var pe *provider.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, provider.ErrFormat, pe.Kind)
	assert.Equal(t, "The AI returned an invalid format. Please try again.", pe.UserMessage())
}

func TestMissingCredentialStopsBeforeGeneration(t *testing.T) {
	called := false
	client := &MockGenerativeClient{
		GenerateJSONFunc: func(ctx context.Context, credential, prompt string) ([]byte, error) {
			called = true
			return []byte("{}"), nil
		},
	}
	resolver := &MockCredentialResolver{
		ResolveFunc: func(ctx context.Context, ownerID string, id provider.ModelID) (provider.Resolution, error) {
			assert.Equal(t, provider.ModelGeminiFlash, id)
			return provider.Resolution{}, provider.NewAuthError("Gemini",
				"Gemini API key not found. Please add it in settings.", nil)
		},
	}
	svc := research.NewService(client, resolver)

	_, err := svc.ExtractKnowledgeGraph(context.Background(), "user-1", "text", "General", "Beginner")
	require.Error(t, err)
	assert.Equal(t, provider.ErrAuth, provider.KindOf(err))
	assert.False(t, called)
}
