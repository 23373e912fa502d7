package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nakshatra-thange/smooth/internal/domain"
)

// StatusPatch son los campos que acompañan a un cambio de estado. Los punteros
// nil dejan la columna intacta.
type StatusPatch struct {
	Signature     *string
	ConfirmedAt   *time.Time
	BlockTime     *time.Time
	Slot          *int64
	ErrorMessage  *string
	ClearUnsigned bool
}

type TransactionRepository interface {
	Create(ctx context.Context, tx domain.Transaction) error
	GetByID(ctx context.Context, id, userID string) (domain.Transaction, error)
	ListByUser(ctx context.Context, userID string, status domain.Status, limit, offset int) ([]domain.Transaction, error)
	ListSignedByAddress(ctx context.Context, address string, limit int) ([]domain.Transaction, error)
	UpdateStatusIf(ctx context.Context, id string, expected, next domain.Status, patch StatusPatch) error
}

type PgTransactionRepository struct {
	pool *pgxpool.Pool
}

func NewPgTransactionRepository(pool *pgxpool.Pool) *PgTransactionRepository {
	return &PgTransactionRepository{pool: pool}
}

const transactionColumns = `
	id, user_id, type, status, from_address, to_address, amount, fee, memo,
	unsigned_tx, signature, confirmed_at, block_time, slot, error_message,
	expires_at, created_at
`

func (r *PgTransactionRepository) Create(ctx context.Context, tx domain.Transaction) error {
	const query = `
		INSERT INTO transactions (
			id, user_id, type, status, from_address, to_address, amount, fee,
			memo, unsigned_tx, expires_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Type,
		tx.Status,
		tx.FromAddress,
		tx.ToAddress,
		tx.Amount,
		tx.Fee,
		nullIfEmpty(tx.Memo),
		nullIfEmpty(tx.UnsignedTx),
		tx.ExpiresAt,
		tx.CreatedAt,
	)
	return err
}

func (r *PgTransactionRepository) GetByID(ctx context.Context, id, userID string) (domain.Transaction, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1 AND user_id = $2
	`

	tx, err := scanTransaction(r.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Transaction{}, domain.ErrNotFound
	}
	return tx, err
}

func (r *PgTransactionRepository) ListByUser(ctx context.Context, userID string, status domain.Status, limit, offset int) ([]domain.Transaction, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, userID, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListSignedByAddress trae intents con firma asignada donde la direccion
// participa, para fusionar con la actividad del ledger.
func (r *PgTransactionRepository) ListSignedByAddress(ctx context.Context, address string, limit int) ([]domain.Transaction, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (from_address = $1 OR to_address = $1) AND signature IS NOT NULL
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, address, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// UpdateStatusIf es el compare-and-set del ciclo de vida: la transicion solo
// aplica si el estado actual coincide con expected. Cero filas afectadas
// significa que otro actor gano la carrera.
func (r *PgTransactionRepository) UpdateStatusIf(ctx context.Context, id string, expected, next domain.Status, patch StatusPatch) error {
	if !expected.CanTransitionTo(next) {
		return domain.ErrConflict
	}

	const query = `
		UPDATE transactions SET
			status = $3,
			signature = COALESCE($4, signature),
			confirmed_at = COALESCE($5, confirmed_at),
			block_time = COALESCE($6, block_time),
			slot = COALESCE($7, slot),
			error_message = COALESCE($8, error_message),
			unsigned_tx = CASE WHEN $9 THEN NULL ELSE unsigned_tx END
		WHERE id = $1 AND status = $2
	`

	tag, err := r.pool.Exec(ctx, query,
		id,
		expected,
		next,
		patch.Signature,
		patch.ConfirmedAt,
		patch.BlockTime,
		patch.Slot,
		patch.ErrorMessage,
		patch.ClearUnsigned,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var tx domain.Transaction
	var memo, unsignedTx, signature, errorMessage *string

	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Type,
		&tx.Status,
		&tx.FromAddress,
		&tx.ToAddress,
		&tx.Amount,
		&tx.Fee,
		&memo,
		&unsignedTx,
		&signature,
		&tx.ConfirmedAt,
		&tx.BlockTime,
		&tx.Slot,
		&errorMessage,
		&tx.ExpiresAt,
		&tx.CreatedAt,
	)
	if err != nil {
		return domain.Transaction{}, err
	}
	if memo != nil {
		tx.Memo = *memo
	}
	if unsignedTx != nil {
		tx.UnsignedTx = *unsignedTx
	}
	if signature != nil {
		tx.Signature = *signature
	}
	if errorMessage != nil {
		tx.ErrorMessage = *errorMessage
	}
	return tx, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
