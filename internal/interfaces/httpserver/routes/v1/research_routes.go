package v1

import (
	"github.com/gin-gonic/gin"

	"parlance/services/chat-api/internal/interfaces/httpserver/handlers"
)

func registerResearchRoutes(group *gin.RouterGroup, handler *handlers.ResearchHandler) {
	research := group.Group("/research")
	{
		research.POST("/knowledge-graph", handler.ExtractKnowledgeGraph)
		research.POST("/citations", handler.FormatCitations)
		research.POST("/analyze", handler.AnalyzeSources)
	}
}
