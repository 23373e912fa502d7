package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/domain"
	"github.com/Nakshatra-thange/smooth/internal/ledger"
	"github.com/Nakshatra-thange/smooth/internal/repository"
)

// SubmitResult es la respuesta inmediata de un submit: la confirmacion sigue
// en background.
type SubmitResult struct {
	Signature string        `json:"signature"`
	Status    domain.Status `json:"status"`
}

// TransactionService maneja el ciclo de vida post-propuesta: submit, cancel
// y lecturas. Las transiciones van siempre por compare-and-set contra el
// store, que es la autoridad del estado.
type TransactionService struct {
	gateway ledger.Gateway
	txRepo  repository.TransactionRepository
	confirm *ConfirmService
	logger  *zap.Logger
	now     func() time.Time
}

func NewTransactionService(gateway ledger.Gateway, txRepo repository.TransactionRepository, confirm *ConfirmService, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		gateway: gateway,
		txRepo:  txRepo,
		confirm: confirm,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Submit acepta el artefacto firmado, lo envia al ledger y mueve el intent a
// SUBMITTED. Retorna apenas despacha el poller, sin esperar finalidad.
func (s *TransactionService) Submit(ctx context.Context, userID, txID, signedTx string) (SubmitResult, error) {
	if strings.TrimSpace(signedTx) == "" {
		return SubmitResult{}, fmt.Errorf("%w: signed transaction required", domain.ErrInvalidInput)
	}

	tx, err := s.txRepo.GetByID(ctx, txID, userID)
	if err != nil {
		return SubmitResult{}, err
	}
	if tx.Status != domain.StatusPending {
		return SubmitResult{}, fmt.Errorf("%w: transaction is %s", domain.ErrConflict, tx.Status)
	}
	// La expiracion gobierna solo esta guarda; no auto-transiciona el estado.
	if tx.Expired(s.now()) {
		return SubmitResult{}, fmt.Errorf("%w: artifact validity window elapsed", domain.ErrExpired)
	}

	// El artefacto firmado tiene que ser el intent propuesto, firmado por la
	// wallet emisora; cualquier otro blob se rechaza antes de tocar el ledger.
	fromKey, err := ledger.DecodeAddress(tx.FromAddress)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: stored sender address: %v", domain.ErrInvalidInput, err)
	}
	if err := ledger.VerifySigned(signedTx, tx.UnsignedTx, fromKey); err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	signature, err := s.gateway.SubmitSigned(ctx, signedTx)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submit signed transaction: %w", err)
	}

	err = s.txRepo.UpdateStatusIf(ctx, tx.ID, domain.StatusPending, domain.StatusSubmitted, repository.StatusPatch{
		Signature:     &signature,
		ClearUnsigned: true,
	})
	if err != nil {
		// Un retry concurrente gano la carrera; este submit no es dueño
		// del nuevo estado.
		return SubmitResult{}, err
	}

	tx.Status = domain.StatusSubmitted
	tx.Signature = signature
	s.confirm.Watch(tx)

	s.logger.Info("transaction submitted",
		zap.String("transaction_id", tx.ID),
		zap.String("signature", signature))

	return SubmitResult{Signature: signature, Status: domain.StatusSubmitted}, nil
}

// Cancel solo aplica sobre PENDING; cualquier otro estado responde Conflict.
func (s *TransactionService) Cancel(ctx context.Context, userID, txID string) (domain.Status, error) {
	tx, err := s.txRepo.GetByID(ctx, txID, userID)
	if err != nil {
		return "", err
	}
	if tx.Status != domain.StatusPending {
		return "", fmt.Errorf("%w: transaction is %s", domain.ErrConflict, tx.Status)
	}

	err = s.txRepo.UpdateStatusIf(ctx, tx.ID, domain.StatusPending, domain.StatusCancelled, repository.StatusPatch{
		ClearUnsigned: true,
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("transaction cancelled", zap.String("transaction_id", tx.ID))
	return domain.StatusCancelled, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, txID string) (domain.Transaction, error) {
	return s.txRepo.GetByID(ctx, txID, userID)
}

func (s *TransactionService) List(ctx context.Context, userID string, status domain.Status, limit, offset int) ([]domain.Transaction, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.txRepo.ListByUser(ctx, userID, status, limit, offset)
}
