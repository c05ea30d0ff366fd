package v1

import (
	"github.com/gin-gonic/gin"

	"parlance/services/chat-api/internal/interfaces/httpserver/handlers"
)

func registerChatRoutes(group *gin.RouterGroup, handler *handlers.ChatHandler) {
	conversations := group.Group("/conversations")
	{
		conversations.GET("", handler.ListConversations)
		conversations.POST("", handler.CreateConversation)
		conversations.POST("/:conversation_id/select", handler.SelectConversation)
		conversations.DELETE("/:conversation_id", handler.DeleteConversation)
		conversations.GET("/:conversation_id/export", handler.ExportConversation)
	}

	chat := group.Group("/chat")
	{
		chat.POST("/messages", handler.SendMessage)
		chat.GET("/state", handler.GetState)
		chat.GET("/models", handler.ListModels)
		chat.PUT("/model", handler.SetModel)
	}

	data := group.Group("/data")
	{
		data.GET("/export", handler.ExportAllData)
		data.DELETE("", handler.DeleteAllData)
	}
}
