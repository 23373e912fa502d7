package ledger

import (
	"context"
	"time"

	"github.com/Nakshatra-thange/smooth/internal/domain"
)

// Balance es la lectura cruda del ledger para una direccion.
type Balance struct {
	Lamports int64
	Tokens   []domain.TokenBalance
}

// TransferArtifact es la transaccion sin firmar serializada en base64 mas el
// fee estimado por la red. Fee es nil si la red no pudo estimarlo.
type TransferArtifact struct {
	UnsignedTx   string
	EstimatedFee *int64
}

// ConfirmationStatus refleja el estado de finalidad de una firma. Mientras
// Finalized sea false el resultado se considera pendiente.
type ConfirmationStatus struct {
	Finalized bool
	Succeeded bool
	Err       string
	Slot      int64
	BlockTime *time.Time
}

// ActivityItem es una firma reciente observada en el ledger para una direccion.
type ActivityItem struct {
	Signature string
	Slot      int64
	BlockTime *time.Time
	Failed    bool
}

// Gateway es el contrato que el nucleo consume del ledger. El resto del
// sistema nunca toca RPC directamente.
type Gateway interface {
	GetBalance(ctx context.Context, address string) (Balance, error)
	BuildTransfer(ctx context.Context, from, to string, lamports int64, memo string) (TransferArtifact, error)
	SubmitSigned(ctx context.Context, signedTxBase64 string) (string, error)
	SignatureStatus(ctx context.Context, signature string) (ConfirmationStatus, error)
	RecentActivity(ctx context.Context, address string, limit int) ([]ActivityItem, error)
}
