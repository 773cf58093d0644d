package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"regula-notificador/internal/domain"
)

// RegulationRepository is read-only: the case-management module owns the rows.
type RegulationRepository interface {
	// ListDeadlineCandidates returns in-progress/approved regulations whose
	// scheduled date falls inside [from, to], optionally scoped to a tenant.
	ListDeadlineCandidates(ctx context.Context, tenantID *uuid.UUID, from, to time.Time) ([]domain.Regulation, error)
	// ListPriorityAging returns urgent/emergency in-progress regulations
	// created inside [oldest, newest], optionally scoped to a tenant.
	ListPriorityAging(ctx context.Context, tenantID *uuid.UUID, oldest, newest time.Time) ([]domain.Regulation, error)
}

type regulationRepository struct {
	db *sqlx.DB
}

func NewRegulationRepository(db *sqlx.DB) RegulationRepository {
	return &regulationRepository{db: db}
}

const regulationSelect = `
	SELECT r.id, r.tenant_id, r.status, r.priority, r.scheduled_date,
	       r.assigned_analyst_id, r.created_at,
	       p.full_name AS patient_name,
	       COALESCE(array_agg(pr.name) FILTER (WHERE pr.name IS NOT NULL), '{}') AS procedure_names
	FROM regulations r
	LEFT JOIN patients p ON p.id = r.patient_id
	LEFT JOIN regulation_procedures rp ON rp.regulation_id = r.id
	LEFT JOIN procedures pr ON pr.id = rp.procedure_id`

const regulationGroup = ` GROUP BY r.id, p.full_name`

func (r *regulationRepository) ListDeadlineCandidates(ctx context.Context, tenantID *uuid.UUID, from, to time.Time) ([]domain.Regulation, error) {
	var regs []domain.Regulation

	query := regulationSelect + `
	WHERE r.scheduled_date IS NOT NULL
	  AND r.scheduled_date BETWEEN $1 AND $2
	  AND r.status IN ('in_progress', 'approved')`

	args := []interface{}{from, to}
	if tenantID != nil {
		query += ` AND r.tenant_id = $3`
		args = append(args, *tenantID)
	}
	query += regulationGroup

	err := r.db.SelectContext(ctx, &regs, query, args...)
	return regs, err
}

func (r *regulationRepository) ListPriorityAging(ctx context.Context, tenantID *uuid.UUID, oldest, newest time.Time) ([]domain.Regulation, error) {
	var regs []domain.Regulation

	query := regulationSelect + `
	WHERE r.priority IN ('urgent', 'emergency')
	  AND r.status = 'in_progress'
	  AND r.created_at >= $1
	  AND r.created_at < $2`

	args := []interface{}{oldest, newest}
	if tenantID != nil {
		query += ` AND r.tenant_id = $3`
		args = append(args, *tenantID)
	}
	query += regulationGroup

	err := r.db.SelectContext(ctx, &regs, query, args...)
	return regs, err
}
