package research

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"parlance/services/chat-api/internal/domain/provider"
	"parlance/services/chat-api/internal/infrastructure/metrics"
)

// GenerativeClient performs a one-shot JSON-mode completion against the
// generative backend.
type GenerativeClient interface {
	GenerateJSON(ctx context.Context, credential, prompt string) ([]byte, error)
}

// CredentialResolver yields the caller's generative backend credential.
type CredentialResolver interface {
	Resolve(ctx context.Context, ownerID string, id provider.ModelID) (provider.Resolution, error)
}

const knowledgeGraphPrompt = `
You are an expert in knowledge engineering and semantic analysis. Your task is to analyze the provided text and extract key concepts and the semantic relationships between them.

Context:
- Domain: [DOMAIN]
- Target Audience Level: [LEVEL]

Instructions:
1.  Identify the main concepts, entities, and ideas in the text.
2.  Determine the relationships between these concepts. Use relationship types like "is_a", "part_of", "example_of", "inspired_by", "used_in", "property_of", "causes", "antonym_of", "depends_on".
3.  Structure your output as a SINGLE, VALID JSON object. Do not include any text, markdown, or explanations outside of the JSON object.
4.  The JSON object must have two main keys: "concepts" and "relationships".
5.  The "concepts" array should contain objects, each with an "id" (a unique, kebab-case string based on the name), a "name" (the concept itself), and a brief "description" derived from the text.
6.  The "relationships" array should contain objects, each with a "source" (the id of the source concept), a "target" (the id of the target concept), and a "label" (the relationship type, e.g., "inspired_by").

Example Input Text: "Neural networks are inspired by the human brain and are used in deep learning."
Example JSON Output:
{
  "concepts": [
    { "id": "neural-networks", "name": "Neural Networks", "description": "Computational models inspired by the biological neural networks that constitute animal brains." },
    { "id": "human-brain", "name": "Human Brain", "description": "The central organ of the human nervous system." },
    { "id": "deep-learning", "name": "Deep Learning", "description": "A subfield of machine learning based on artificial neural networks." }
  ],
  "relationships": [
    { "source": "neural-networks", "target": "human-brain", "label": "inspired_by" },
    { "source": "neural-networks", "target": "deep-learning", "label": "used_in" }
  ]
}
`

const citationPrompt = `
You are a meticulous citation formatter.
Task: Take the following list of sources and convert them into a standardized array of citation objects.

Rules:
- The output must be a single, valid JSON array. Do not include any text or markdown outside of the array.
- For each source, create an object with the following keys: "type", "title", "url", "publisher", "publishedAt", and "accessed".
- The "type" should be "youtube" or "web".
- For YouTube sources, you must also include the "id" field.
- The "url" for YouTube sources must be constructed as ` + "`https://youtube.com/watch?v={id}`" + `.
- The "publisher" should be the domain name for web sources and the channel title for YouTube sources.
- The "publishedAt" field should be in "YYYY-MM-DD" format if available, otherwise null.
- The "accessed" date MUST be today's date.

Today's date is: [CURRENT_DATE]

Format the following sources:
`

const sourceAnalysisPrompt = `
You are a multi-source research assistant.
Task:
1. Analyze the provided sources (YouTube videos + web articles).
2. Extract the top 5 factual claims about the topic.
3. For each claim, identify which sources support it and which contradict it. Do not list sources that don't mention it.
4. Assign a confidence score (high/medium/low) and provide a one-sentence rationale.
5. Provide a short comparison summary (2-3 sentences) highlighting similarities/differences between YouTube and web sources.
6. Return proper citations with publisher, title, link, publish date (if available), and today's accessed date.

Return your entire response as a SINGLE, VALID JSON object. Do not include any text, markdown, or explanations outside of the JSON object.

The output JSON must strictly follow this format:
{
  "topic": "...",
  "claims": [
    {
      "id": "c1",
      "claim_text": "...",
      "supporting": [
        {"type":"youtube","id":"...","title":"..."},
        {"type":"web","link":"...","title":"..."}
      ],
      "contradicting": [],
      "confidence": "high",
      "rationale": "..."
    }
  ],
  "summary": "...",
  "citations": [
    {
      "type": "youtube",
      "id": "...",
      "title": "...",
      "url": "https://youtube.com/watch?v=...",
      "publisher": "ChannelName",
      "publishedAt": "YYYY-MM-DD",
      "accessed": "YYYY-MM-DD"
    },
    {
      "type": "web",
      "title": "...",
      "url": "https://...",
      "publisher": "...",
      "publishedAt": "YYYY-MM-DD",
      "accessed": "YYYY-MM-DD"
    }
  ]
}

Today's date is: [CURRENT_DATE]

Analyze the following JSON input:
`

// Service runs the one-shot research transforms. Every transform goes
// through the generative backend in JSON output mode and parses the
// response into a typed result.
type Service struct {
	client      GenerativeClient
	credentials CredentialResolver
	now         func() time.Time
}

func NewService(client GenerativeClient, credentials CredentialResolver) *Service {
	return &Service{
		client:      client,
		credentials: credentials,
		now:         time.Now,
	}
}

// ExtractKnowledgeGraph pulls concepts and labeled relationships out of
// free text, calibrated to the given domain and audience level.
func (s *Service) ExtractKnowledgeGraph(ctx context.Context, ownerID, text, domain, level string) (*KnowledgeGraph, error) {
	prompt := strings.Replace(knowledgeGraphPrompt, "[DOMAIN]", domain, 1)
	prompt = strings.Replace(prompt, "[LEVEL]", level, 1)
	prompt += "\n\nAnalyze the following text:\n\n" + text

	var graph KnowledgeGraph
	if err := s.generate(ctx, ownerID, prompt, &graph); err != nil {
		metrics.RecordResearchTransform("knowledge_graph", "failure")
		return nil, err
	}
	metrics.RecordResearchTransform("knowledge_graph", "success")
	return &graph, nil
}

// FormatCitations normalizes a caller-supplied source list into citation
// objects with today's accessed date.
func (s *Service) FormatCitations(ctx context.Context, ownerID string, sources any) ([]Citation, error) {
	prompt, err := s.renderSourcePrompt(citationPrompt, sources)
	if err != nil {
		return nil, err
	}

	var citations []Citation
	if err := s.generate(ctx, ownerID, prompt, &citations); err != nil {
		metrics.RecordResearchTransform("citations", "failure")
		return nil, err
	}
	metrics.RecordResearchTransform("citations", "success")
	return citations, nil
}

// AnalyzeSources cross-references claims across the supplied sources and
// returns the typed comparison.
func (s *Service) AnalyzeSources(ctx context.Context, ownerID string, sources any) (*SourceAnalysis, error) {
	prompt, err := s.renderSourcePrompt(sourceAnalysisPrompt, sources)
	if err != nil {
		return nil, err
	}

	var analysis SourceAnalysis
	if err := s.generate(ctx, ownerID, prompt, &analysis); err != nil {
		metrics.RecordResearchTransform("source_analysis", "failure")
		return nil, err
	}
	metrics.RecordResearchTransform("source_analysis", "success")
	return &analysis, nil
}

func (s *Service) renderSourcePrompt(template string, sources any) (string, error) {
	encoded, err := json.MarshalIndent(sources, "", "  ")
	if err != nil {
		return "", provider.NewFormatError("gemini", "sources are not serializable", err)
	}
	prompt := strings.Replace(template, "[CURRENT_DATE]", currentDate(s.now()), 1)
	return prompt + "\n" + string(encoded), nil
}

func (s *Service) generate(ctx context.Context, ownerID, prompt string, out any) error {
	resolution, err := s.credentials.Resolve(ctx, ownerID, provider.ModelGeminiFlash)
	if err != nil {
		return err
	}

	raw, err := s.client.GenerateJSON(ctx, resolution.Credential, prompt)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return provider.NewFormatError("gemini", "The AI returned an invalid format. Please try again.", err)
	}
	return nil
}
