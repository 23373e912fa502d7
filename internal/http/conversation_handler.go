package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/domain"
	"github.com/Nakshatra-thange/smooth/internal/repository"
)

// ConversationHandler mantiene dependencias para endpoints de conversaciones.
type ConversationHandler struct {
	logger        *zap.Logger
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
}

func NewConversationHandler(logger *zap.Logger, conversations repository.ConversationRepository, messages repository.MessageRepository) *ConversationHandler {
	return &ConversationHandler{
		logger:        logger,
		conversations: conversations,
		messages:      messages,
	}
}

// List maneja GET /api/conversations.
func (h *ConversationHandler) List(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conversations, err := h.conversations.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list conversations failed", zap.Error(err))
		respondError(c, err, "failed to fetch conversations")
		return
	}
	if conversations == nil {
		conversations = []domain.Conversation{}
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// Get maneja GET /api/conversations/:id con sus mensajes en orden.
func (h *ConversationHandler) Get(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conv, err := h.conversations.GetByID(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		respondError(c, err, "failed to load conversation")
		return
	}

	messages, err := h.messages.ListByConversation(c.Request.Context(), conv.ID)
	if err != nil {
		h.logger.Error("list messages failed", zap.Error(err))
		respondError(c, err, "failed to load conversation")
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": messages})
}

// Delete maneja DELETE /api/conversations/:id (soft-delete).
func (h *ConversationHandler) Delete(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.conversations.Deactivate(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		respondError(c, err, "failed to delete conversation")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
