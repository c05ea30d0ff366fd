package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"parlance/services/chat-api/internal/domain/conversation"
	"parlance/services/chat-api/internal/domain/provider"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ===============================================
// Wire Types
// ===============================================

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens  int    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string `json:"response_mime_type,omitempty"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SafetySettings    []safetySetting  `json:"safetySettings,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func blockNone() []safetySetting {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}
	settings := make([]safetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, safetySetting{Category: category, Threshold: "BLOCK_NONE"})
	}
	return settings
}

// ===============================================
// Adapter
// ===============================================

// Adapter talks to the Gemini generateContent REST API. It is the only
// backend that receives image attachments, forwarded as inline base64
// parts.
type Adapter struct {
	httpClient *resty.Client
}

// New creates a Resty-backed Gemini adapter.
func New() *Adapter {
	return NewWithBaseURL(defaultBaseURL)
}

// NewWithBaseURL creates an adapter against a non-default endpoint,
// used by tests.
func NewWithBaseURL(baseURL string) *Adapter {
	return &Adapter{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(75 * time.Second),
	}
}

func (a *Adapter) Name() string { return "Gemini" }

func (a *Adapter) SupportsImages() bool { return true }

// Invoke sends the turn history to generateContent and returns the reply
// text. The backend requires the first content to carry the user role, so
// leading assistant turns are discarded.
func (a *Adapter) Invoke(ctx context.Context, history []conversation.Message, credential, modelVariant string) (string, error) {
	req := generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: provider.SystemInstruction}}},
		Contents:          contentsFromHistory(history),
		GenerationConfig:  generationConfig{MaxOutputTokens: provider.MaxOutputTokens},
		SafetySettings:    blockNone(),
	}
	return a.generate(ctx, credential, modelVariant, req)
}

// GenerateJSON runs a single-prompt completion in JSON output mode. Used
// by the research transforms.
func (a *Adapter) GenerateJSON(ctx context.Context, credential, prompt string) ([]byte, error) {
	req := generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
		SafetySettings:   blockNone(),
	}
	text, err := a.generate(ctx, credential, string(provider.ModelGeminiFlash), req)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func (a *Adapter) generate(ctx context.Context, credential, modelVariant string, req generateRequest) (string, error) {
	var result generateResponse
	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", credential).
		SetBody(req).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("/models/%s:generateContent", modelVariant))
	if err != nil {
		return "", provider.NewNetworkError(a.Name(),
			"A network error occurred while contacting the Gemini API. This is likely a temporary issue or a cross-origin restriction.", err)
	}

	if resp.IsError() {
		return "", a.classify(resp.StatusCode(), result.Error)
	}

	if len(result.Candidates) == 0 {
		return "", provider.NewFormatError(a.Name(), "Gemini returned an empty response.", nil)
	}

	var reply strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		reply.WriteString(p.Text)
	}
	if reply.Len() == 0 {
		return "", provider.NewFormatError(a.Name(), "Gemini returned a response with no text.", nil)
	}
	return reply.String(), nil
}

func (a *Adapter) classify(status int, apiErr *apiError) error {
	message := ""
	if apiErr != nil {
		message = apiErr.Message
	}
	wrapped := fmt.Errorf("gemini api error: status=%d message=%q", status, message)

	switch {
	case strings.Contains(message, "API_KEY_INVALID"), strings.Contains(message, "API key not valid"):
		return provider.NewAuthError(a.Name(),
			"Your Gemini API key is invalid. Please add a valid key in Settings > Developer Keys.", wrapped)
	case status == 401 || status == 403:
		return provider.NewAuthError(a.Name(),
			"Your Gemini API key is invalid. Please add a valid key in Settings > Developer Keys.", wrapped)
	default:
		return provider.NewGenericError(a.Name(),
			"Failed to get response from Gemini. Check your API key and configuration.", status, wrapped)
	}
}

// contentsFromHistory converts turns into Gemini contents, dropping
// assistant turns that precede the first user turn.
func contentsFromHistory(history []conversation.Message) []content {
	firstUser := -1
	for i, msg := range history {
		if msg.Role == conversation.RoleUser {
			firstUser = i
			break
		}
	}
	if firstUser == -1 {
		return []content{}
	}

	contents := make([]content, 0, len(history)-firstUser)
	for _, msg := range history[firstUser:] {
		role := "user"
		if msg.Role == conversation.RoleAssistant {
			role = "model"
		}
		parts := []part{{Text: msg.Content}}
		for _, att := range msg.Attachments {
			if att.Kind != conversation.AttachmentImage {
				continue
			}
			if p, ok := imagePart(att.DataURL); ok {
				parts = append(parts, p)
			}
		}
		contents = append(contents, content{Role: role, Parts: parts})
	}
	return contents
}

// imagePart splits a data URL into its mime type and base64 payload.
func imagePart(dataURL string) (part, bool) {
	head, data, ok := strings.Cut(dataURL, ",")
	if !ok {
		return part{}, false
	}
	mimeType := "image/jpeg"
	if rest, found := strings.CutPrefix(head, "data:"); found {
		if mt, _, _ := strings.Cut(rest, ";"); mt != "" {
			mimeType = mt
		}
	}
	return part{InlineData: &inlineData{MimeType: mimeType, Data: data}}, true
}
