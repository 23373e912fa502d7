package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/cache"
	"github.com/Nakshatra-thange/smooth/internal/domain"
	"github.com/Nakshatra-thange/smooth/internal/ledger"
)

// WalletService resuelve balances via cache read-through: el cache absorbe el
// polling repetido y el gateway es la fuente de verdad.
type WalletService struct {
	gateway ledger.Gateway
	cache   cache.BalanceCache
	logger  *zap.Logger
}

func NewWalletService(gateway ledger.Gateway, balanceCache cache.BalanceCache, logger *zap.Logger) *WalletService {
	return &WalletService{
		gateway: gateway,
		cache:   balanceCache,
		logger:  logger,
	}
}

// GetBalance devuelve el snapshot cacheado si sigue vigente; si no, lee del
// gateway, descarta holdings en cero y cachea el resultado.
func (s *WalletService) GetBalance(ctx context.Context, address string) (domain.WalletBalance, error) {
	if cached, ok := s.cache.Get(ctx, address); ok {
		return cached, nil
	}

	raw, err := s.gateway.GetBalance(ctx, address)
	if err != nil {
		return domain.WalletBalance{}, fmt.Errorf("gateway balance: %w", err)
	}

	balance := domain.WalletBalance{
		Lamports:  raw.Lamports,
		FetchedAt: time.Now().UTC(),
	}
	for _, token := range raw.Tokens {
		if token.Amount == 0 {
			continue
		}
		balance.Tokens = append(balance.Tokens, token)
	}

	s.cache.Set(ctx, address, balance)
	return balance, nil
}

// InvalidateBalance borra la entrada cacheada; la proxima lectura vuelve al
// ledger. Se invoca al confirmar una transferencia para ambas direcciones.
func (s *WalletService) InvalidateBalance(ctx context.Context, addresses ...string) {
	for _, address := range addresses {
		if address == "" {
			continue
		}
		s.cache.Invalidate(ctx, address)
		s.logger.Debug("balance cache invalidated", zap.String("address", address))
	}
}
