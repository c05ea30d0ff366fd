package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parlance/services/chat-api/internal/domain/chat"
	"parlance/services/chat-api/internal/domain/conversation"
	"parlance/services/chat-api/internal/domain/provider"
	"parlance/services/chat-api/internal/interfaces/httpserver/requests"
	"parlance/services/chat-api/internal/interfaces/httpserver/responses"
)

// ChatHandler exposes HTTP entrypoints for conversations and sends.
type ChatHandler struct {
	manager *chat.Manager
	log     zerolog.Logger
}

// NewChatHandler constructs the handler.
func NewChatHandler(manager *chat.Manager, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		manager: manager,
		log:     log.With().Str("handler", "chat").Logger(),
	}
}

// ListConversations handles GET /v1/conversations
func (h *ChatHandler) ListConversations(c *gin.Context) {
	session, err := h.session(c)
	if err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}

	currentID := ""
	if conv := session.CurrentConversation(); conv != nil {
		currentID = conv.ID
	}
	c.JSON(http.StatusOK, responses.MapConversationList(session.Conversations(), currentID))
}

// CreateConversation handles POST /v1/conversations
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	session, err := h.session(c)
	if err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}

	conv, err := session.CreateNewConversation(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to create conversation")
		return
	}
	c.JSON(http.StatusCreated, responses.MapConversation(conv))
}

// SelectConversation handles POST /v1/conversations/:conversation_id/select
func (h *ChatHandler) SelectConversation(c *gin.Context) {
	session, err := h.session(c)
	if err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}

	id := c.Param("conversation_id")
	if err := session.SelectConversation(id); err != nil {
		responses.HandleError(c, err, "failed to select conversation")
		return
	}
	c.JSON(http.StatusOK, responses.MapConversation(session.CurrentConversation()))
}

// DeleteConversation handles DELETE /v1/conversations/:conversation_id
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	session, err := h.session(c)
	if err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}

	id := c.Param("conversation_id")
	if err := session.DeleteConversation(c.Request.Context(), id); err != nil {
		responses.HandleError(c, err, "failed to delete conversation")
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportConversation handles GET /v1/conversations/:conversation_id/export
func (h *ChatHandler) ExportConversation(c *gin.Context) {
	session, err := h.session(c)
	if err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}

	id := c.Param("conversation_id")
	var conv *conversation.Conversation
	for _, candidate := range session.Conversations() {
		if candidate.ID == id {
			conv = candidate
			break
		}
	}
	if conv == nil {
		responses.HandleError(c, chat.ErrConversationNotFound, "failed to export conversation")
		return
	}

	switch c.DefaultQuery("format", "markdown") {
	case "json":
		data, err := chat.RenderJSON(conv)
		if err != nil {
			responses.HandleError(c, err, "failed to export conversation")
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=conversation-%s.json", conv.ID))
		c.Data(http.StatusOK, "application/json", data)
	case "markdown":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=conversation-%s.md", conv.ID))
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(chat.RenderMarkdown(conv)))
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "unsupported export format",
			Message: "format must be json or markdown",
		})
	}
}

// SendMessage handles POST /v1/chat/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req requests.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	session, err := h.session(c)
	if err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}

	attachments := make([]conversation.Attachment, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, conversation.Attachment{
			Kind:      conversation.AttachmentKind(att.Kind),
			Name:      att.Name,
			SizeBytes: att.SizeBytes,
			DataURL:   att.DataURL,
		})
	}
	if len(attachments) == 0 {
		attachments = nil
	}

	result, err := session.SendMessage(c.Request.Context(), req.Content, attachments)
	if err != nil {
		responses.HandleError(c, err, "failed to send message")
		return
	}
	c.JSON(http.StatusOK, responses.MapSendResult(result))
}

// GetState handles GET /v1/chat/state
func (h *ChatHandler) GetState(c *gin.Context) {
	session, err := h.session(c)
	if err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}

	currentID := ""
	if conv := session.CurrentConversation(); conv != nil {
		currentID = conv.ID
	}
	c.JSON(http.StatusOK, responses.SessionStateResponse{
		Model:     string(session.Model()),
		IsTyping:  session.IsTyping(),
		State:     string(session.State()),
		CurrentID: currentID,
	})
}

// ListModels handles GET /v1/chat/models
func (h *ChatHandler) ListModels(c *gin.Context) {
	ids := provider.ModelIDs()
	data := make([]string, 0, len(ids))
	for _, id := range ids {
		data = append(data, string(id))
	}
	c.JSON(http.StatusOK, responses.ModelsResponse{
		Data:    data,
		Default: string(provider.DefaultModel),
	})
}

// SetModel handles PUT /v1/chat/model
func (h *ChatHandler) SetModel(c *gin.Context) {
	var req requests.SetModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	session, err := h.session(c)
	if err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}

	if err := session.SetModel(provider.ModelID(req.Model)); err != nil {
		responses.HandleError(c, err, "failed to set model")
		return
	}
	c.JSON(http.StatusOK, gin.H{"model": req.Model})
}

// ExportAllData handles GET /v1/data/export
func (h *ChatHandler) ExportAllData(c *gin.Context) {
	session, err := h.session(c)
	if err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}

	archive, err := session.ExportAllData(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to export data")
		return
	}

	filename := fmt.Sprintf("chat-export-%s.zip", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/zip", archive)
}

// DeleteAllData handles DELETE /v1/data
func (h *ChatHandler) DeleteAllData(c *gin.Context) {
	session, err := h.session(c)
	if err != nil {
		responses.HandleError(c, err, "failed to load session")
		return
	}

	if err := session.DeleteAllData(c.Request.Context()); err != nil {
		responses.HandleError(c, err, "failed to delete data")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) session(c *gin.Context) (*chat.Session, error) {
	p, ok := principalFrom(c)
	if !ok {
		return nil, chat.AuthRequiredError{}
	}
	return h.manager.Session(c.Request.Context(), p)
}
