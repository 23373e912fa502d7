package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/domain"
	"github.com/Nakshatra-thange/smooth/internal/service"
)

// TransactionHandler expone lecturas y transiciones del ciclo de vida de
// transferencias.
type TransactionHandler struct {
	logger *zap.Logger
	txSvc  *service.TransactionService
}

func NewTransactionHandler(logger *zap.Logger, txSvc *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		logger: logger,
		txSvc:  txSvc,
	}
}

// List maneja GET /api/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	status := domain.Status(c.Query("status"))

	txs, err := h.txSvc.List(c.Request.Context(), claims.UserID, status, limit, offset)
	if err != nil {
		respondError(c, err, "failed to fetch transactions")
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}

	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// Get maneja GET /api/transactions/:id.
func (h *TransactionHandler) Get(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	tx, err := h.txSvc.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to fetch transaction")
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// Submit maneja POST /api/transactions/:id/submit. Despacha el poller de
// confirmacion y responde sin esperar finalidad.
func (h *TransactionHandler) Submit(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		SignedTransaction string `json:"signed_transaction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.txSvc.Submit(c.Request.Context(), claims.UserID, c.Param("id"), req.SignedTransaction)
	if err != nil {
		h.logger.Warn("transaction submit rejected", zap.String("transaction_id", c.Param("id")), zap.Error(err))
		respondError(c, err, "failed to submit transaction")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"signature": result.Signature,
		"status":    result.Status,
	})
}

// Cancel maneja POST /api/transactions/:id/cancel.
func (h *TransactionHandler) Cancel(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status, err := h.txSvc.Cancel(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to cancel transaction")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}
