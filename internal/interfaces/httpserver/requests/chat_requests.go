package requests

import "encoding/json"

// AttachmentPayload carries one uploaded file on a send request. Images
// include their bytes as a data URL; other kinds are metadata only.
type AttachmentPayload struct {
	Kind      string `json:"kind" binding:"required,oneof=image pdf file"`
	Name      string `json:"name" binding:"required"`
	SizeBytes int64  `json:"size_bytes"`
	DataURL   string `json:"data_url"`
}

// SendMessageRequest submits one user turn to the active conversation.
type SendMessageRequest struct {
	Content     string              `json:"content"`
	Attachments []AttachmentPayload `json:"attachments"`
}

// SetModelRequest switches the session's selected model.
type SetModelRequest struct {
	Model string `json:"model" binding:"required"`
}

// UpdateKeysRequest replaces per-provider API key overrides. An empty
// value removes the stored key.
type UpdateKeysRequest struct {
	APIKeys map[string]string `json:"api_keys" binding:"required"`
}

// ExtractKnowledgeGraphRequest runs the concept extraction transform.
type ExtractKnowledgeGraphRequest struct {
	Text   string `json:"text" binding:"required"`
	Domain string `json:"domain"`
	Level  string `json:"level"`
}

// FormatCitationsRequest normalizes a raw source list into citations.
type FormatCitationsRequest struct {
	Sources json.RawMessage `json:"sources" binding:"required"`
}

// AnalyzeSourcesRequest cross-references claims across sources.
type AnalyzeSourcesRequest struct {
	Sources json.RawMessage `json:"sources" binding:"required"`
}
