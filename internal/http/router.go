package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/domain"
	"github.com/Nakshatra-thange/smooth/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas del API.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	authH *AuthHandler,
	chatH *ChatHandler,
	convH *ConversationHandler,
	txH *TransactionHandler,
	walletH *WalletHandler,
	userH *UserHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/verify", authH.Verify)
	auth.POST("/refresh", authH.Refresh)
	auth.POST("/logout", authH.Logout)

	protected := api.Group("")
	protected.Use(JWTAuthMiddleware(jwtSvc))
	protected.POST("/chat", chatH.PostChat)

	protected.GET("/conversations", convH.List)
	protected.GET("/conversations/:id", convH.Get)
	protected.DELETE("/conversations/:id", convH.Delete)

	protected.GET("/transactions", txH.List)
	protected.GET("/transactions/:id", txH.Get)
	protected.POST("/transactions/:id/submit", txH.Submit)
	protected.POST("/transactions/:id/cancel", txH.Cancel)

	protected.GET("/wallet/balance", walletH.Balance)
	protected.GET("/wallet/history", walletH.History)

	protected.GET("/user/profile", userH.Profile)
	protected.PATCH("/user/preferences", userH.UpdatePreferences)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// respondError mapea la taxonomia de errores del dominio a HTTP sin filtrar
// detalle interno.
func respondError(c *gin.Context, err error, genericMsg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "status conflict"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericMsg})
	}
}
