package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"regula-notificador/internal/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, notif *domain.Notification) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Notification, error)
	Exists(ctx context.Context, tenantID uuid.UUID, regulationID uuid.UUID, milestone string, professionalID uuid.UUID) (bool, error)
	ListByProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) ([]domain.Notification, error)
	ListUnreadByProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) ([]domain.Notification, error)
	CountUnread(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error)
	MarkViewed(ctx context.Context, tenantID, id uuid.UUID, viewedBy domain.ViewList, readAt time.Time) error
	SoftDeleteByProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Notification, error)
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notif *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, tenant_id, regulation_id, professional_id, type, milestone, title, message, viewed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		notif.ID, notif.TenantID, notif.RegulationID, notif.ProfessionalID,
		notif.Type, notif.Milestone, notif.Title, notif.Message, notif.ViewedBy,
	).Scan(&notif.CreatedAt)
}

func (r *notificationRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Notification, error) {
	var notif domain.Notification
	query := `SELECT * FROM notifications WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL`
	err := r.db.GetContext(ctx, &notif, query, tenantID, id)
	return &notif, err
}

func (r *notificationRepository) Exists(ctx context.Context, tenantID uuid.UUID, regulationID uuid.UUID, milestone string, professionalID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE tenant_id = $1 AND regulation_id = $2 AND milestone = $3 AND professional_id = $4
			  AND deleted_at IS NULL
		)`
	err := r.db.GetContext(ctx, &exists, query, tenantID, regulationID, milestone, professionalID)
	return exists, err
}

func (r *notificationRepository) ListByProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) ([]domain.Notification, error) {
	var notifications []domain.Notification
	query := `
		SELECT * FROM notifications
		WHERE tenant_id = $1 AND professional_id = $2 AND deleted_at IS NULL
		ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &notifications, query, tenantID, professionalID)
	return notifications, err
}

func (r *notificationRepository) ListUnreadByProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) ([]domain.Notification, error) {
	var notifications []domain.Notification
	query := `
		SELECT * FROM notifications
		WHERE tenant_id = $1 AND professional_id = $2 AND is_read = false AND deleted_at IS NULL
		ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &notifications, query, tenantID, professionalID)
	return notifications, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM notifications WHERE tenant_id = $1 AND professional_id = $2 AND is_read = false AND deleted_at IS NULL`
	err := r.db.GetContext(ctx, &count, query, tenantID, professionalID)
	return count, err
}

func (r *notificationRepository) MarkViewed(ctx context.Context, tenantID, id uuid.UUID, viewedBy domain.ViewList, readAt time.Time) error {
	query := `UPDATE notifications SET is_read = true, read_at = $3, viewed_by = $4 WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.ExecContext(ctx, query, tenantID, id, readAt, viewedBy)
	return err
}

func (r *notificationRepository) SoftDeleteByProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error) {
	query := `UPDATE notifications SET deleted_at = NOW() WHERE tenant_id = $1 AND professional_id = $2 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, tenantID, professionalID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *notificationRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Notification, error) {
	var notifications []domain.Notification
	query := `
		SELECT * FROM notifications
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &notifications, query, tenantID)
	return notifications, err
}
