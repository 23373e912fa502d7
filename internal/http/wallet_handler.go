package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/service"
)

// WalletHandler expone lecturas directas de balance e historial.
type WalletHandler struct {
	logger   *zap.Logger
	wallet   *service.WalletService
	executor *service.ToolExecutor
}

func NewWalletHandler(logger *zap.Logger, wallet *service.WalletService, executor *service.ToolExecutor) *WalletHandler {
	return &WalletHandler{
		logger:   logger,
		wallet:   wallet,
		executor: executor,
	}
}

// Balance maneja GET /api/wallet/balance.
func (h *WalletHandler) Balance(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	balance, err := h.wallet.GetBalance(c.Request.Context(), claims.WalletAddress)
	if err != nil {
		h.logger.Error("wallet balance failed", zap.Error(err))
		respondError(c, err, "failed to fetch wallet balance")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sol":    balance.SOL(),
		"tokens": balance.Tokens,
	})
}

// History maneja GET /api/wallet/history con el mismo merge que usa la tool
// del asistente.
func (h *WalletHandler) History(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 50 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query params"})
		return
	}

	items, err := h.executor.History(c.Request.Context(), claims.WalletAddress, limit)
	if err != nil {
		h.logger.Error("wallet history failed", zap.Error(err))
		respondError(c, err, "failed to fetch wallet history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": items})
}
