package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/domain"
	"github.com/Nakshatra-thange/smooth/internal/ledger"
	"github.com/Nakshatra-thange/smooth/internal/repository"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollAttempts = 30
)

// ConfirmService vigila transacciones SUBMITTED hasta finalidad, falla o
// agotamiento de intentos. Cada transaccion tiene a lo sumo un poller activo,
// supervisado via WaitGroup para el shutdown.
type ConfirmService struct {
	gateway  ledger.Gateway
	txRepo   repository.TransactionRepository
	wallet   *WalletService
	logger   *zap.Logger
	interval time.Duration
	attempts int

	rootCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	active map[string]struct{}
}

func NewConfirmService(gateway ledger.Gateway, txRepo repository.TransactionRepository, wallet *WalletService, logger *zap.Logger) *ConfirmService {
	return NewConfirmServiceWithPolling(gateway, txRepo, wallet, logger, defaultPollInterval, defaultPollAttempts)
}

// NewConfirmServiceWithPolling permite acortar intervalo e intentos en tests.
func NewConfirmServiceWithPolling(gateway ledger.Gateway, txRepo repository.TransactionRepository, wallet *WalletService, logger *zap.Logger, interval time.Duration, attempts int) *ConfirmService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ConfirmService{
		gateway:  gateway,
		txRepo:   txRepo,
		wallet:   wallet,
		logger:   logger,
		interval: interval,
		attempts: attempts,
		rootCtx:  ctx,
		cancel:   cancel,
		active:   make(map[string]struct{}),
	}
}

// Watch lanza el poller en background y retorna de inmediato. Si la
// transaccion ya tiene un poller activo no lanza otro.
func (s *ConfirmService) Watch(tx domain.Transaction) {
	s.mu.Lock()
	if _, ok := s.active[tx.ID]; ok {
		s.mu.Unlock()
		return
	}
	s.active[tx.ID] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.active, tx.ID)
			s.mu.Unlock()
		}()
		s.poll(s.rootCtx, tx)
	}()
}

// Shutdown cancela los pollers activos y espera a que terminen.
func (s *ConfirmService) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

// Wait bloquea hasta que no queden pollers corriendo, sin cancelarlos.
func (s *ConfirmService) Wait() {
	s.wg.Wait()
}

func (s *ConfirmService) poll(ctx context.Context, tx domain.Transaction) {
	for attempt := 0; attempt < s.attempts; attempt++ {
		status, err := s.gateway.SignatureStatus(ctx, tx.Signature)
		if err != nil {
			// Errores transitorios de RPC no abortan el loop ni cuentan
			// como resultado terminal.
			s.logger.Warn("confirmation poll error, retrying",
				zap.String("signature", tx.Signature), zap.Error(err))
		} else if status.Finalized {
			if status.Succeeded {
				s.markConfirmed(ctx, tx, status)
			} else {
				s.markFailed(ctx, tx, status)
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}
	}

	// Fail-open deliberado: queda en SUBMITTED para reconciliacion manual.
	s.logger.Warn("transaction confirmation timeout",
		zap.String("transaction_id", tx.ID),
		zap.String("signature", tx.Signature))
}

func (s *ConfirmService) markConfirmed(ctx context.Context, tx domain.Transaction, status ledger.ConfirmationStatus) {
	now := time.Now().UTC()
	patch := repository.StatusPatch{ConfirmedAt: &now}
	if status.BlockTime != nil {
		patch.BlockTime = status.BlockTime
	}
	if status.Slot != 0 {
		slot := status.Slot
		patch.Slot = &slot
	}

	err := s.txRepo.UpdateStatusIf(ctx, tx.ID, domain.StatusSubmitted, domain.StatusConfirmed, patch)
	if errors.Is(err, domain.ErrConflict) {
		s.logger.Warn("confirm race lost, status already moved", zap.String("transaction_id", tx.ID))
		return
	}
	if err != nil {
		s.logger.Error("persist confirmation failed", zap.String("transaction_id", tx.ID), zap.Error(err))
		return
	}

	// La verdad del ledger cambio: ambos lados de la transferencia releen
	// su balance en la proxima consulta.
	s.wallet.InvalidateBalance(ctx, tx.FromAddress, tx.ToAddress)
	s.logger.Info("transaction confirmed", zap.String("signature", tx.Signature))
}

func (s *ConfirmService) markFailed(ctx context.Context, tx domain.Transaction, status ledger.ConfirmationStatus) {
	msg := status.Err
	if msg == "" {
		msg = "transaction failed on ledger"
	}
	patch := repository.StatusPatch{ErrorMessage: &msg}

	err := s.txRepo.UpdateStatusIf(ctx, tx.ID, domain.StatusSubmitted, domain.StatusFailed, patch)
	if errors.Is(err, domain.ErrConflict) {
		s.logger.Warn("fail race lost, status already moved", zap.String("transaction_id", tx.ID))
		return
	}
	if err != nil {
		s.logger.Error("persist failure failed", zap.String("transaction_id", tx.ID), zap.Error(err))
		return
	}
	s.logger.Warn("transaction failed", zap.String("signature", tx.Signature), zap.String("ledger_error", msg))
}
