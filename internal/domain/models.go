package domain

import "time"

type User struct {
	ID            string            `json:"id"`
	WalletAddress string            `json:"wallet_address"`
	Preferences   map[string]string `json:"preferences,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	LastSeenAt    *time.Time        `json:"last_seen_at,omitempty"`
}

type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MessageMetadata guarda datos auxiliares del turno: tools invocadas,
// transaccion referenciada y resumen de error si lo hubo.
type MessageMetadata struct {
	ToolCalls     []string `json:"tool_calls,omitempty"`
	TransactionID string   `json:"transaction_id,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func (m MessageMetadata) IsZero() bool {
	return len(m.ToolCalls) == 0 && m.TransactionID == "" && m.Error == ""
}

// Message es inmutable una vez persistido; la secuencia por conversacion es
// append-only ordenada por created_at.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	Metadata       MessageMetadata `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

const TxTypeTransferSOL = "TRANSFER_SOL"

// Transaction representa una intencion de transferencia y su ciclo de vida.
// Amount y Fee siempre en lamports (enteros), nunca float.
type Transaction struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Type         string     `json:"type"`
	Status       Status     `json:"status"`
	FromAddress  string     `json:"from_address"`
	ToAddress    string     `json:"to_address"`
	Amount       int64      `json:"amount"`
	Fee          *int64     `json:"fee,omitempty"`
	Memo         string     `json:"memo,omitempty"`
	UnsignedTx   string     `json:"unsigned_tx,omitempty"`
	Signature    string     `json:"signature,omitempty"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
	BlockTime    *time.Time `json:"block_time,omitempty"`
	Slot         *int64     `json:"slot,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ExpiresAt    time.Time  `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Expired indica si la ventana de validez del artefacto ya paso.
func (t Transaction) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && t.ExpiresAt.Before(now)
}

type TokenBalance struct {
	Mint     string  `json:"mint"`
	Symbol   string  `json:"symbol"`
	Amount   float64 `json:"amount"`
	Decimals int     `json:"decimals"`
}

// WalletBalance es estado de cache, reconstruible desde el gateway; nunca se
// persiste. Holdings con amount cero se descartan al capturar.
type WalletBalance struct {
	Lamports  int64          `json:"lamports"`
	Tokens    []TokenBalance `json:"tokens"`
	FetchedAt time.Time      `json:"fetched_at"`
}

const LamportsPerSOL = 1_000_000_000

// SOL convierte lamports a unidades nativas solo para presentacion.
func (b WalletBalance) SOL() float64 {
	return float64(b.Lamports) / LamportsPerSOL
}

// HistoryItem es una entrada fusionada de historial (store + ledger),
// deduplicada por signature.
type HistoryItem struct {
	Signature string     `json:"signature"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	Amount    *float64   `json:"amount,omitempty"`
	From      string     `json:"from,omitempty"`
	To        string     `json:"to,omitempty"`
	Fee       *float64   `json:"fee,omitempty"`
	BlockTime *time.Time `json:"block_time,omitempty"`
	Slot      int64      `json:"slot"`
}
