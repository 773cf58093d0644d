package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"regula-notificador/internal/domain"
)

type MessagingConfigRepository interface {
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*domain.MessagingConfig, error)
	// Create inserts the row unless another caller won the race on the
	// tenant_id unique constraint; losers re-read via GetByTenant.
	Create(ctx context.Context, cfg *domain.MessagingConfig) error
	Update(ctx context.Context, cfg *domain.MessagingConfig) error
	UpdateCredential(ctx context.Context, tenantID uuid.UUID, credential string) error
}

type messagingConfigRepository struct {
	db *sqlx.DB
}

func NewMessagingConfigRepository(db *sqlx.DB) MessagingConfigRepository {
	return &messagingConfigRepository{db: db}
}

func (r *messagingConfigRepository) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*domain.MessagingConfig, error) {
	var cfg domain.MessagingConfig
	query := `SELECT * FROM messaging_configs WHERE tenant_id = $1`
	err := r.db.GetContext(ctx, &cfg, query, tenantID)
	return &cfg, err
}

func (r *messagingConfigRepository) Create(ctx context.Context, cfg *domain.MessagingConfig) error {
	query := `
		INSERT INTO messaging_configs (id, tenant_id, instance_name, provider, credential, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		cfg.ID, cfg.TenantID, cfg.InstanceName, cfg.Provider, cfg.Credential, cfg.IsActive,
	)
	return err
}

func (r *messagingConfigRepository) Update(ctx context.Context, cfg *domain.MessagingConfig) error {
	query := `
		UPDATE messaging_configs
		SET provider = $2, is_active = $3, updated_at = NOW()
		WHERE tenant_id = $1`
	_, err := r.db.ExecContext(ctx, query, cfg.TenantID, cfg.Provider, cfg.IsActive)
	return err
}

func (r *messagingConfigRepository) UpdateCredential(ctx context.Context, tenantID uuid.UUID, credential string) error {
	query := `UPDATE messaging_configs SET credential = $2, updated_at = NOW() WHERE tenant_id = $1`
	_, err := r.db.ExecContext(ctx, query, tenantID, credential)
	return err
}
