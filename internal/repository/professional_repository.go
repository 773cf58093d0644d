package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"regula-notificador/internal/domain"
)

type ProfessionalRepository interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Professional, error)
	ListAdmins(ctx context.Context, tenantID uuid.UUID) ([]domain.Professional, error)
}

type professionalRepository struct {
	db *sqlx.DB
}

func NewProfessionalRepository(db *sqlx.DB) ProfessionalRepository {
	return &professionalRepository{db: db}
}

func (r *professionalRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Professional, error) {
	var prof domain.Professional
	query := `SELECT * FROM professionals WHERE tenant_id = $1 AND id = $2`
	err := r.db.GetContext(ctx, &prof, query, tenantID, id)
	return &prof, err
}

func (r *professionalRepository) ListAdmins(ctx context.Context, tenantID uuid.UUID) ([]domain.Professional, error) {
	var profs []domain.Professional
	query := `SELECT * FROM professionals WHERE tenant_id = $1 AND role = $2 ORDER BY full_name ASC`
	err := r.db.SelectContext(ctx, &profs, query, tenantID, domain.RoleTenantAdmin)
	return profs, err
}
