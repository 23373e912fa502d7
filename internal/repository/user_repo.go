package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nakshatra-thange/smooth/internal/domain"
)

type UserRepository interface {
	UpsertByWallet(ctx context.Context, walletAddress string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	UpdatePreferences(ctx context.Context, id string, patch map[string]string) (domain.User, error)
}

type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

// UpsertByWallet crea el usuario en el primer login con esa wallet y
// actualiza last_seen_at en los siguientes.
func (r *PgUserRepository) UpsertByWallet(ctx context.Context, walletAddress string) (domain.User, error) {
	const query = `
		INSERT INTO users (id, wallet_address, created_at, last_seen_at)
		VALUES (gen_random_uuid(), $1, now(), now())
		ON CONFLICT (wallet_address)
		DO UPDATE SET last_seen_at = now()
		RETURNING id, wallet_address, preferences, created_at, last_seen_at
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, walletAddress))
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `
		SELECT id, wallet_address, preferences, created_at, last_seen_at
		FROM users
		WHERE id = $1
	`

	user, err := r.scanUser(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	return user, err
}

// UpdatePreferences mezcla el parche sobre las preferencias existentes via
// concatenacion jsonb; las claves no tocadas se conservan.
func (r *PgUserRepository) UpdatePreferences(ctx context.Context, id string, patch map[string]string) (domain.User, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal preferences: %w", err)
	}

	const query = `
		UPDATE users
		SET preferences = COALESCE(preferences, '{}'::jsonb) || $2::jsonb
		WHERE id = $1
		RETURNING id, wallet_address, preferences, created_at, last_seen_at
	`

	user, err := r.scanUser(r.pool.QueryRow(ctx, query, id, raw))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	return user, err
}

func (r *PgUserRepository) scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	var preferences []byte

	err := row.Scan(
		&user.ID,
		&user.WalletAddress,
		&preferences,
		&user.CreatedAt,
		&user.LastSeenAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	if len(preferences) > 0 {
		if err := json.Unmarshal(preferences, &user.Preferences); err != nil {
			return domain.User{}, fmt.Errorf("decode preferences: %w", err)
		}
	}
	return user, nil
}
