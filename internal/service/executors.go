package service

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"github.com/Nakshatra-thange/smooth/internal/assistant"
	"github.com/Nakshatra-thange/smooth/internal/domain"
	"github.com/Nakshatra-thange/smooth/internal/ledger"
	"github.com/Nakshatra-thange/smooth/internal/repository"
)

// ToolKind es el conjunto cerrado de tools; se despacha por switch, no por
// registro abierto.
type ToolKind int

const (
	ToolGetBalance ToolKind = iota
	ToolCreateTransfer
	ToolGetHistory
	ToolEstimateFee
)

func ParseToolKind(name string) (ToolKind, bool) {
	switch name {
	case "get_balance":
		return ToolGetBalance, true
	case "create_transfer":
		return ToolCreateTransfer, true
	case "get_transaction_history":
		return ToolGetHistory, true
	case "estimate_fee":
		return ToolEstimateFee, true
	}
	return 0, false
}

const (
	transferExpiry  = 15 * time.Minute
	historyDefault  = 10
	historyMaxLimit = 50
)

// Direcciones dummy para estimar el fee de una transferencia nominal.
var (
	dummyFeeFrom = base58.Encode(bytes.Repeat([]byte{1}, 32))
	dummyFeeTo   = base58.Encode(bytes.Repeat([]byte{2}, 32))
)

// ToolOutcome es el resultado de un executor: un payload serializable que se
// devuelve al asistente y, solo para transferencias creadas, el id del intent.
type ToolOutcome struct {
	Payload       map[string]interface{}
	TransactionID string
	Err           string
}

// ToolExecutor concentra los cuatro executors. Ninguno devuelve error de Go:
// toda falla se vuelve un payload {"error": ...} que el asistente puede
// explicar conversacionalmente.
type ToolExecutor struct {
	wallet  *WalletService
	gateway ledger.Gateway
	txRepo  repository.TransactionRepository
	logger  *zap.Logger
	now     func() time.Time
}

func NewToolExecutor(wallet *WalletService, gateway ledger.Gateway, txRepo repository.TransactionRepository, logger *zap.Logger) *ToolExecutor {
	return &ToolExecutor{
		wallet:  wallet,
		gateway: gateway,
		txRepo:  txRepo,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func errPayload(msg string) map[string]interface{} {
	return map[string]interface{}{"error": msg}
}

// Execute despacha una invocacion de tool. Nombre desconocido tambien es un
// payload de error: el modelo puede alucinar tools fuera del esquema.
func (e *ToolExecutor) Execute(ctx context.Context, userID, walletAddress string, call assistant.ToolCall) ToolOutcome {
	kind, ok := ParseToolKind(call.Name)
	if !ok {
		return ToolOutcome{Payload: errPayload("Unknown tool: " + call.Name), Err: "unknown tool"}
	}

	switch kind {
	case ToolGetBalance:
		return e.executeGetBalance(ctx, walletAddress)
	case ToolCreateTransfer:
		return e.executeCreateTransfer(ctx, userID, walletAddress, call.Arguments)
	case ToolGetHistory:
		return e.executeHistory(ctx, walletAddress, call.Arguments)
	case ToolEstimateFee:
		return e.executeEstimateFee(ctx)
	}
	return ToolOutcome{Payload: errPayload("Unknown tool"), Err: "unknown tool"}
}

func (e *ToolExecutor) executeGetBalance(ctx context.Context, walletAddress string) ToolOutcome {
	balance, err := e.wallet.GetBalance(ctx, walletAddress)
	if err != nil {
		e.logger.Warn("balance lookup failed", zap.String("address", walletAddress), zap.Error(err))
		return ToolOutcome{
			Payload: errPayload("Failed to fetch wallet balance. Please try again."),
			Err:     err.Error(),
		}
	}

	tokens := make([]map[string]interface{}, 0, len(balance.Tokens))
	for _, token := range balance.Tokens {
		tokens = append(tokens, map[string]interface{}{
			"mint":     token.Mint,
			"symbol":   token.Symbol,
			"amount":   token.Amount,
			"decimals": token.Decimals,
		})
	}
	return ToolOutcome{Payload: map[string]interface{}{
		"sol":    balance.SOL(),
		"tokens": tokens,
	}}
}

func (e *ToolExecutor) executeCreateTransfer(ctx context.Context, userID, walletAddress, arguments string) ToolOutcome {
	var args struct {
		Recipient string  `json:"recipient"`
		Amount    float64 `json:"amount"`
		Memo      string  `json:"memo"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return ToolOutcome{Payload: errPayload("Invalid transfer arguments"), Err: err.Error()}
	}

	if err := ledger.ValidateRecipient(args.Recipient); err != nil {
		return ToolOutcome{Payload: errPayload("Invalid recipient address"), Err: err.Error()}
	}
	if args.Amount <= 0 || math.IsNaN(args.Amount) || math.IsInf(args.Amount, 0) {
		return ToolOutcome{Payload: errPayload("Transfer amount must be positive"), Err: "non-positive amount"}
	}

	lamports := int64(math.Floor(args.Amount * domain.LamportsPerSOL))
	if lamports <= 0 {
		return ToolOutcome{Payload: errPayload("Transfer amount must be positive"), Err: "amount below one lamport"}
	}

	balance, err := e.wallet.GetBalance(ctx, walletAddress)
	if err != nil {
		e.logger.Warn("transfer balance check failed", zap.Error(err))
		return ToolOutcome{Payload: errPayload("Failed to create transfer. Please try again."), Err: err.Error()}
	}

	artifact, err := e.gateway.BuildTransfer(ctx, walletAddress, args.Recipient, lamports, args.Memo)
	if err != nil {
		e.logger.Warn("build transfer failed", zap.Error(err))
		return ToolOutcome{Payload: errPayload("Failed to create transfer. Please try again."), Err: err.Error()}
	}

	var fee int64
	if artifact.EstimatedFee != nil {
		fee = *artifact.EstimatedFee
	}
	total := lamports + fee
	if balance.Lamports < total {
		return ToolOutcome{
			Payload: map[string]interface{}{
				"error":   "Insufficient balance",
				"balance": balance.SOL(),
			},
			Err: "insufficient balance",
		}
	}

	now := e.now()
	tx := domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        domain.TxTypeTransferSOL,
		Status:      domain.StatusPending,
		FromAddress: walletAddress,
		ToAddress:   args.Recipient,
		Amount:      lamports,
		Fee:         artifact.EstimatedFee,
		Memo:        args.Memo,
		UnsignedTx:  artifact.UnsignedTx,
		ExpiresAt:   now.Add(transferExpiry),
		CreatedAt:   now,
	}
	if err := e.txRepo.Create(ctx, tx); err != nil {
		e.logger.Error("persist transfer intent failed", zap.Error(err))
		return ToolOutcome{Payload: errPayload("Failed to create transfer. Please try again."), Err: err.Error()}
	}

	return ToolOutcome{
		Payload: map[string]interface{}{
			"success":         true,
			"transaction_id":  tx.ID,
			"recipient":       args.Recipient,
			"amount":          args.Amount,
			"amount_lamports": lamports,
			"fee_lamports":    fee,
			"total_lamports":  total,
			"fee":             float64(fee) / domain.LamportsPerSOL,
			"total":           float64(total) / domain.LamportsPerSOL,
			"expires_in":      int(transferExpiry.Seconds()),
		},
		TransactionID: tx.ID,
	}
}

func (e *ToolExecutor) executeHistory(ctx context.Context, walletAddress, arguments string) ToolOutcome {
	limit := historyDefaultLimit(arguments)

	items, err := e.mergedHistory(ctx, walletAddress, limit)
	if err != nil {
		e.logger.Warn("history lookup failed", zap.Error(err))
		return ToolOutcome{Payload: errPayload("Failed to fetch transaction history"), Err: err.Error()}
	}

	return ToolOutcome{Payload: map[string]interface{}{"transactions": items}}
}

func historyDefaultLimit(arguments string) int {
	limit := historyDefault
	if arguments != "" {
		var args struct {
			Limit int `json:"limit"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err == nil && args.Limit > 0 {
			limit = args.Limit
		}
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}
	return limit
}

// History expone el mismo merge que usa la tool, para el endpoint de wallet.
func (e *ToolExecutor) History(ctx context.Context, walletAddress string, limit int) ([]domain.HistoryItem, error) {
	if limit <= 0 {
		limit = historyDefault
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}
	return e.mergedHistory(ctx, walletAddress, limit)
}

// mergedHistory fusiona intents firmados del store con la actividad reciente
// del ledger, deduplicando por firma; el registro del store tiene prioridad
// porque conserva montos y direcciones que el scan de cadena no trae.
func (e *ToolExecutor) mergedHistory(ctx context.Context, walletAddress string, limit int) ([]domain.HistoryItem, error) {
	activity, err := e.gateway.RecentActivity(ctx, walletAddress, limit)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]domain.HistoryItem, len(activity))
	for _, item := range activity {
		status := "success"
		if item.Failed {
			status = "failed"
		}
		merged[item.Signature] = domain.HistoryItem{
			Signature: item.Signature,
			Type:      "UNKNOWN",
			Status:    status,
			BlockTime: item.BlockTime,
			Slot:      item.Slot,
		}
	}

	stored, err := e.txRepo.ListSignedByAddress(ctx, walletAddress, limit)
	if err != nil {
		return nil, err
	}
	for _, tx := range stored {
		amount := float64(tx.Amount) / domain.LamportsPerSOL
		item := domain.HistoryItem{
			Signature: tx.Signature,
			Type:      tx.Type,
			Status:    string(tx.Status),
			Amount:    &amount,
			From:      tx.FromAddress,
			To:        tx.ToAddress,
			BlockTime: tx.BlockTime,
		}
		if tx.Fee != nil {
			fee := float64(*tx.Fee) / domain.LamportsPerSOL
			item.Fee = &fee
		}
		if tx.Slot != nil {
			item.Slot = *tx.Slot
		}
		if item.BlockTime == nil && tx.ConfirmedAt != nil {
			item.BlockTime = tx.ConfirmedAt
		}
		merged[tx.Signature] = item
	}

	items := make([]domain.HistoryItem, 0, len(merged))
	for _, item := range merged {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		ti, tj := int64(0), int64(0)
		if items[i].BlockTime != nil {
			ti = items[i].BlockTime.UnixMilli()
		}
		if items[j].BlockTime != nil {
			tj = items[j].BlockTime.UnixMilli()
		}
		return ti > tj
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (e *ToolExecutor) executeEstimateFee(ctx context.Context) ToolOutcome {
	// Transferencia nominal entre claves dummy: el fee no depende del
	// destinatario concreto.
	artifact, err := e.gateway.BuildTransfer(ctx, dummyFeeFrom, dummyFeeTo, 1, "")
	if err != nil {
		e.logger.Warn("fee estimate failed", zap.Error(err))
		return ToolOutcome{Payload: errPayload("Failed to estimate network fee"), Err: err.Error()}
	}

	payload := map[string]interface{}{
		"fee_sol":      nil,
		"fee_lamports": nil,
	}
	if artifact.EstimatedFee != nil {
		payload["fee_sol"] = float64(*artifact.EstimatedFee) / domain.LamportsPerSOL
		payload["fee_lamports"] = *artifact.EstimatedFee
	}
	return ToolOutcome{Payload: payload}
}
