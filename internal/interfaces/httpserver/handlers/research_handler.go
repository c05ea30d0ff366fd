package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parlance/services/chat-api/internal/domain/chat"
	"parlance/services/chat-api/internal/domain/research"
	"parlance/services/chat-api/internal/infrastructure/observability"
	"parlance/services/chat-api/internal/interfaces/httpserver/requests"
	"parlance/services/chat-api/internal/interfaces/httpserver/responses"
)

// ResearchHandler exposes HTTP entrypoints for the research transforms.
type ResearchHandler struct {
	service *research.Service
	log     zerolog.Logger
}

// NewResearchHandler constructs the handler.
func NewResearchHandler(service *research.Service, log zerolog.Logger) *ResearchHandler {
	return &ResearchHandler{
		service: service,
		log:     log.With().Str("handler", "research").Logger(),
	}
}

// ExtractKnowledgeGraph handles POST /v1/research/knowledge-graph
func (h *ResearchHandler) ExtractKnowledgeGraph(c *gin.Context) {
	var req requests.ExtractKnowledgeGraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	p, ok := principalFrom(c)
	if !ok {
		responses.HandleError(c, chat.AuthRequiredError{}, "failed to extract knowledge graph")
		return
	}

	ctx, span := observability.StartTransformSpan(c.Request.Context(), "knowledge_graph")
	defer span.End()

	graph, err := h.service.ExtractKnowledgeGraph(ctx, p.ID, req.Text, req.Domain, req.Level)
	if err != nil {
		observability.RecordError(span, err)
		responses.HandleError(c, err, "failed to extract knowledge graph")
		return
	}
	c.JSON(http.StatusOK, graph)
}

// FormatCitations handles POST /v1/research/citations
func (h *ResearchHandler) FormatCitations(c *gin.Context) {
	var req requests.FormatCitationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	p, ok := principalFrom(c)
	if !ok {
		responses.HandleError(c, chat.AuthRequiredError{}, "failed to format citations")
		return
	}

	ctx, span := observability.StartTransformSpan(c.Request.Context(), "citations")
	defer span.End()

	citations, err := h.service.FormatCitations(ctx, p.ID, req.Sources)
	if err != nil {
		observability.RecordError(span, err)
		responses.HandleError(c, err, "failed to format citations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"citations": citations})
}

// AnalyzeSources handles POST /v1/research/analyze
func (h *ResearchHandler) AnalyzeSources(c *gin.Context) {
	var req requests.AnalyzeSourcesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	p, ok := principalFrom(c)
	if !ok {
		responses.HandleError(c, chat.AuthRequiredError{}, "failed to analyze sources")
		return
	}

	ctx, span := observability.StartTransformSpan(c.Request.Context(), "source_analysis")
	defer span.End()

	analysis, err := h.service.AnalyzeSources(ctx, p.ID, req.Sources)
	if err != nil {
		observability.RecordError(span, err)
		responses.HandleError(c, err, "failed to analyze sources")
		return
	}
	c.JSON(http.StatusOK, analysis)
}
