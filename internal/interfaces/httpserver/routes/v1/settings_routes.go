package v1

import (
	"github.com/gin-gonic/gin"

	"parlance/services/chat-api/internal/interfaces/httpserver/handlers"
)

func registerSettingsRoutes(group *gin.RouterGroup, handler *handlers.SettingsHandler) {
	settings := group.Group("/settings")
	{
		settings.GET("", handler.Get)
		settings.PUT("/keys", handler.UpdateKeys)
	}
}
