package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/domain"
	"github.com/Nakshatra-thange/smooth/internal/service"
)

func setupAuthRouter(jwtSvc *service.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAuthHandler(zap.NewNop(), nil, jwtSvc)
	r.POST("/auth/refresh", h.Refresh)
	r.POST("/auth/logout", h.Logout)
	return r
}

func TestAuthHandlerLogout_RevokesRefreshToken(t *testing.T) {
	jwtSvc := newTestJWTService()
	user := domain.User{ID: "u1", WalletAddress: testWallet, CreatedAt: time.Now().UTC()}
	pair, err := jwtSvc.GeneratePair(user)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	r := setupAuthRouter(jwtSvc)

	rec := performAuthedRequest(r, http.MethodPost, "/auth/logout", pair.AccessToken, map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success true, got %s", rec.Body.String())
	}

	// El refresh revocado ya no rota.
	if _, err := jwtSvc.RefreshPair(pair.RefreshToken); err == nil {
		t.Fatalf("expected revoked refresh token to be rejected")
	}

	rec = performAuthedRequest(r, http.MethodPost, "/auth/refresh", pair.AccessToken, map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestAuthHandlerLogout_WithoutToken(t *testing.T) {
	jwtSvc := newTestJWTService()
	r := setupAuthRouter(jwtSvc)

	rec := performAuthedRequest(r, http.MethodPost, "/auth/logout", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestAuthHandlerLogout_IgnoresGarbageToken(t *testing.T) {
	jwtSvc := newTestJWTService()
	r := setupAuthRouter(jwtSvc)

	rec := performAuthedRequest(r, http.MethodPost, "/auth/logout", "", map[string]string{
		"refresh_token": "not-a-jwt",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
