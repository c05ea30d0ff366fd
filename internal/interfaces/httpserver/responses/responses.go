package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parlance/services/chat-api/internal/domain/chat"
	"parlance/services/chat-api/internal/domain/conversation"
	"parlance/services/chat-api/internal/domain/provider"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HandleError maps domain errors to HTTP responses. The body carries the
// reduced user-facing string; backend diagnostics stay in the server log.
func HandleError(reqCtx *gin.Context, err error, message string) {
	status := statusFor(err)

	body := ErrorResponse{
		Error:   message,
		Message: chat.UserFacingError(err),
	}
	if status == http.StatusUnauthorized || status == http.StatusConflict || status == http.StatusNotFound {
		body.Message = err.Error()
	}

	reqCtx.AbortWithStatusJSON(status, body)
}

func statusFor(err error) int {
	switch {
	case chat.IsAuthRequired(err):
		return http.StatusUnauthorized
	case errors.Is(err, chat.ErrSendInFlight), errors.Is(err, chat.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, chat.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrUnknownModel):
		return http.StatusBadRequest
	}

	var pe *provider.Error
	if errors.As(err, &pe) {
		switch pe.Kind {
		case provider.ErrAuth:
			return http.StatusBadRequest
		case provider.ErrNetwork, provider.ErrFormat:
			return http.StatusBadGateway
		default:
			return http.StatusBadGateway
		}
	}

	if conversation.IsStoreError(err) {
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
