package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tokoroti/backend/internal/application/chat"
	"github.com/tokoroti/backend/internal/interfaces/http/middleware"
)

// InboundMessage is one customer message delivered by the chat platform
type InboundMessage struct {
	CustomerID   string `json:"customer_id" binding:"required"`
	CustomerName string `json:"customer_name"`
	Text         string `json:"text" binding:"required"`
}

// WebhookReply is the synchronous reply returned to the chat platform
type WebhookReply struct {
	Reply string `json:"reply"`
}

// WebhookHandler receives inbound chat messages and runs them through the
// conversation flow. The reply travels back in the webhook response.
type WebhookHandler struct {
	BaseHandler
	chatService *chat.ChatService
	logger      *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(chatService *chat.ChatService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// HandleMessage processes one inbound customer message
// POST /webhook/messages
func (h *WebhookHandler) HandleMessage(c *gin.Context) {
	var msg InboundMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	reply, err := h.chatService.HandleMessage(c.Request.Context(), msg.CustomerID, msg.CustomerName, msg.Text)
	if err != nil {
		h.logger.Error("failed to handle inbound message",
			zap.String("customer_id", msg.CustomerID),
			zap.Error(err),
		)
		h.HandleError(c, err)
		return
	}

	h.Success(c, WebhookReply{Reply: reply})
}
