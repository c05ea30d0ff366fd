package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parlance/services/chat-api/internal/domain/chat"
	"parlance/services/chat-api/internal/domain/usersettings"
	"parlance/services/chat-api/internal/interfaces/httpserver/requests"
	"parlance/services/chat-api/internal/interfaces/httpserver/responses"
)

// SettingsHandler exposes HTTP entrypoints for per-user settings.
type SettingsHandler struct {
	service *usersettings.Service
	log     zerolog.Logger
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(service *usersettings.Service, log zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		log:     log.With().Str("handler", "settings").Logger(),
	}
}

// Get handles GET /v1/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		responses.HandleError(c, chat.AuthRequiredError{}, "failed to load settings")
		return
	}

	settings, err := h.service.Get(c.Request.Context(), p.ID)
	if err != nil {
		responses.HandleError(c, err, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, responses.MapSettings(settings))
}

// UpdateKeys handles PUT /v1/settings/keys
func (h *SettingsHandler) UpdateKeys(c *gin.Context) {
	var req requests.UpdateKeysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	p, ok := principalFrom(c)
	if !ok {
		responses.HandleError(c, chat.AuthRequiredError{}, "failed to update settings")
		return
	}

	for name := range req.APIKeys {
		if !usersettings.ValidateKeyName(name) {
			c.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{
				Error:   "unknown key name",
				Message: name + " is not a known provider key",
			})
			return
		}
	}

	settings, err := h.service.SetAPIKeys(c.Request.Context(), p.ID, req.APIKeys)
	if err != nil {
		responses.HandleError(c, err, "failed to update settings")
		return
	}
	c.JSON(http.StatusOK, responses.MapSettings(settings))
}
