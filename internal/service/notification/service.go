package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"regula-notificador/internal/domain"
	"regula-notificador/internal/pkg/clock"
	"regula-notificador/internal/repository"
)

type Service interface {
	ListForProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) ([]domain.Notification, error)
	CountUnread(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error)
	// MarkAllViewed marks every unread notification targeted at the
	// professional as read, appending one view entry per notification. Returns
	// how many were updated; 0 with no error when the professional cannot be
	// resolved.
	MarkAllViewed(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error)
	// ClearAll soft-deletes the professional's notifications. Other staff
	// members keep their own rows.
	ClearAll(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error)
	ListViews(ctx context.Context, tenantID uuid.UUID) ([]domain.NotificationWithViews, error)
	ViewDetails(ctx context.Context, tenantID, id uuid.UUID) (*domain.NotificationWithViews, error)
}

type service struct {
	notifRepo repository.NotificationRepository
	profRepo  repository.ProfessionalRepository
	clk       clock.Clock
	log       zerolog.Logger
}

func NewService(
	notifRepo repository.NotificationRepository,
	profRepo repository.ProfessionalRepository,
	clk clock.Clock,
	log zerolog.Logger,
) Service {
	return &service{
		notifRepo: notifRepo,
		profRepo:  profRepo,
		clk:       clk,
		log:       log.With().Str("component", "notification_service").Logger(),
	}
}

func (s *service) ListForProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) ([]domain.Notification, error) {
	return s.notifRepo.ListByProfessional(ctx, tenantID, professionalID)
}

func (s *service) CountUnread(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error) {
	return s.notifRepo.CountUnread(ctx, tenantID, professionalID)
}

func (s *service) MarkAllViewed(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error) {
	prof, err := s.profRepo.GetByID(ctx, tenantID, professionalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to resolve professional: %w", err)
	}

	unread, err := s.notifRepo.ListUnreadByProfessional(ctx, tenantID, professionalID)
	if err != nil {
		return 0, fmt.Errorf("failed to list unread notifications: %w", err)
	}

	now := s.clk.Now()
	var count int64
	for i := range unread {
		notif := &unread[i]

		viewedBy := notif.ViewedBy
		if !viewedBy.Contains(professionalID) {
			viewedBy = append(viewedBy, domain.NotificationView{
				ProfessionalID: professionalID,
				Name:           prof.FullName,
				ViewedAt:       now,
			})
		}

		if err := s.notifRepo.MarkViewed(ctx, tenantID, notif.ID, viewedBy, now); err != nil {
			s.log.Error().Err(err).Str("notification", notif.ID.String()).
				Msg("failed to mark notification viewed")
			continue
		}
		count++
	}
	return count, nil
}

func (s *service) ClearAll(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error) {
	return s.notifRepo.SoftDeleteByProfessional(ctx, tenantID, professionalID)
}

func (s *service) ListViews(ctx context.Context, tenantID uuid.UUID) ([]domain.NotificationWithViews, error) {
	notifications, err := s.notifRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	enriched := make([]domain.NotificationWithViews, 0, len(notifications))
	for _, n := range notifications {
		enriched = append(enriched, domain.NotificationWithViews{
			Notification: n,
			ViewsCount:   len(n.ViewedBy),
		})
	}
	return enriched, nil
}

func (s *service) ViewDetails(ctx context.Context, tenantID, id uuid.UUID) (*domain.NotificationWithViews, error) {
	notif, err := s.notifRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &domain.NotificationWithViews{
		Notification: *notif,
		ViewsCount:   len(notif.ViewedBy),
	}, nil
}
