package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parlance/services/chat-api/internal/domain/chat"
	"parlance/services/chat-api/internal/domain/principal"
	"parlance/services/chat-api/internal/domain/research"
	"parlance/services/chat-api/internal/domain/usersettings"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Chat     *ChatHandler
	Settings *SettingsHandler
	Research *ResearchHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	manager *chat.Manager,
	settingsService *usersettings.Service,
	researchService *research.Service,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Chat:     NewChatHandler(manager, log),
		Settings: NewSettingsHandler(settingsService, log),
		Research: NewResearchHandler(researchService, log),
	}
}

func principalFrom(c *gin.Context) (principal.Principal, bool) {
	return principal.FromContext(c.Request.Context())
}
