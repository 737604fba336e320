package postgres

import (
	"context"
	"errors"
	"fmt"

	"bitdash-payments/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const merchantFields = `id, username, password_hash, merchant_name, tier, access_key, secret_key_enc,
	webhook_url, status, created_at, updated_at`

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

// Create inserts a new merchant.
func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	query := `INSERT INTO merchants (id, username, password_hash, merchant_name, tier, access_key, secret_key_enc, webhook_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.Username, m.PasswordHash, m.MerchantName, m.Tier, m.AccessKey,
		m.SecretKeyEnc, m.WebhookURL, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID fetches a merchant by UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT ` + merchantFields + ` FROM merchants WHERE id = $1`
	return scanMerchant(r.pool.QueryRow(ctx, query, id))
}

// GetByAccessKey fetches a merchant by API access key. Used by the HMAC
// authentication middleware.
func (r *MerchantRepo) GetByAccessKey(ctx context.Context, accessKey string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantFields + ` FROM merchants WHERE access_key = $1`
	return scanMerchant(r.pool.QueryRow(ctx, query, accessKey))
}

// GetByUsername fetches a merchant by username.
func (r *MerchantRepo) GetByUsername(ctx context.Context, username string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantFields + ` FROM merchants WHERE username = $1`
	return scanMerchant(r.pool.QueryRow(ctx, query, username))
}

// Update persists mutable merchant fields (webhook URL, keys, status).
func (r *MerchantRepo) Update(ctx context.Context, m *domain.Merchant) error {
	query := `UPDATE merchants SET merchant_name = $1, tier = $2, access_key = $3, secret_key_enc = $4,
		webhook_url = $5, status = $6, updated_at = NOW() WHERE id = $7`

	tag, err := r.pool.Exec(ctx, query,
		m.MerchantName, m.Tier, m.AccessKey, m.SecretKeyEnc, m.WebhookURL, m.Status, m.ID,
	)
	if err != nil {
		return fmt.Errorf("update merchant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not found: %s", m.ID)
	}
	return nil
}

func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	err := row.Scan(
		&m.ID, &m.Username, &m.PasswordHash, &m.MerchantName, &m.Tier, &m.AccessKey,
		&m.SecretKeyEnc, &m.WebhookURL, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan merchant: %w", err)
	}
	return m, nil
}
