package chat

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"parlance/services/chat-api/internal/domain/conversation"
)

// ===============================================
// Export Rendering
// ===============================================

// exportTimeFormat is the single textual timestamp format used by the
// structured export.
const exportTimeFormat = time.RFC3339

type exportAttachment struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

type exportMessage struct {
	ID          string             `json:"id"`
	Role        string             `json:"role"`
	Content     string             `json:"content"`
	Attachments []exportAttachment `json:"attachments,omitempty"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   string             `json:"created_at"`
}

type exportConversation struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
	Messages  []exportMessage `json:"messages"`
}

// RenderJSON serializes one conversation with all timestamps normalized
// to RFC3339.
func RenderJSON(conv *conversation.Conversation) ([]byte, error) {
	out := exportConversation{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt.Format(exportTimeFormat),
		UpdatedAt: conv.UpdatedAt.Format(exportTimeFormat),
		Messages:  make([]exportMessage, 0, len(conv.Messages)),
	}
	for _, msg := range conv.Messages {
		m := exportMessage{
			ID:        msg.ID,
			Role:      string(msg.Role),
			Content:   msg.Content,
			Error:     msg.Error,
			CreatedAt: msg.CreatedAt.Format(exportTimeFormat),
		}
		for _, att := range msg.Attachments {
			m.Attachments = append(m.Attachments, exportAttachment{
				Kind:      string(att.Kind),
				Name:      att.Name,
				SizeBytes: att.SizeBytes,
			})
		}
		out.Messages = append(out.Messages, m)
	}
	return json.MarshalIndent(out, "", "  ")
}

// RenderMarkdown renders one conversation as alternating role headers and
// content blocks separated by a rule.
func RenderMarkdown(conv *conversation.Conversation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", conv.Title)
	for i, msg := range conv.Messages {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		switch msg.Role {
		case conversation.RoleAssistant:
			b.WriteString("## Assistant\n\n")
		default:
			b.WriteString("## User\n\n")
		}
		b.WriteString(msg.Content)
		b.WriteString("\n")
		if msg.Error != "" {
			fmt.Fprintf(&b, "\n> Error: %s\n", msg.Error)
		}
	}
	return b.String()
}

// BuildArchive packs every conversation into a zip with one JSON and one
// Markdown entry per conversation.
func BuildArchive(convs []*conversation.Conversation) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, conv := range convs {
		data, err := RenderJSON(conv)
		if err != nil {
			return nil, fmt.Errorf("render conversation %s: %w", conv.ID, err)
		}
		f, err := zw.Create(fmt.Sprintf("conversation-%s.json", conv.ID))
		if err != nil {
			return nil, err
		}
		if _, err := f.Write(data); err != nil {
			return nil, err
		}

		md, err := zw.Create(fmt.Sprintf("conversation-%s.md", conv.ID))
		if err != nil {
			return nil, err
		}
		if _, err := md.Write([]byte(RenderMarkdown(conv))); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
