package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/repository"
)

// UserHandler expone el perfil del usuario autenticado y sus preferencias.
type UserHandler struct {
	logger *zap.Logger
	users  repository.UserRepository
}

func NewUserHandler(logger *zap.Logger, users repository.UserRepository) *UserHandler {
	return &UserHandler{
		logger: logger,
		users:  users,
	}
}

// Profile maneja GET /api/user/profile.
func (h *UserHandler) Profile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("user profile failed", zap.Error(err))
		respondError(c, err, "failed to fetch profile")
		return
	}

	prefs := user.Preferences
	if prefs == nil {
		prefs = map[string]string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"id":             user.ID,
		"wallet_address": user.WalletAddress,
		"preferences":    prefs,
		"created_at":     user.CreatedAt,
		"last_seen_at":   user.LastSeenAt,
	})
}

// UpdatePreferences maneja PATCH /api/user/preferences. Solo theme y language
// son editables; las claves omitidas no se tocan.
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Theme    *string `json:"theme"`
		Language *string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	patch := map[string]string{}
	if req.Theme != nil {
		patch["theme"] = *req.Theme
	}
	if req.Language != nil {
		patch["language"] = *req.Language
	}
	if len(patch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no preferences to update"})
		return
	}

	user, err := h.users.UpdatePreferences(c.Request.Context(), claims.UserID, patch)
	if err != nil {
		h.logger.Error("update preferences failed", zap.Error(err))
		respondError(c, err, "failed to update preferences")
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": user.Preferences})
}
