package notification

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regula-notificador/internal/domain"
	"regula-notificador/internal/pkg/clock"
)

type fakeProfessionalRepo struct {
	professionals map[uuid.UUID]*domain.Professional
}

func (f *fakeProfessionalRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Professional, error) {
	prof, ok := f.professionals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return prof, nil
}

func (f *fakeProfessionalRepo) ListAdmins(ctx context.Context, tenantID uuid.UUID) ([]domain.Professional, error) {
	return nil, nil
}

// memNotificationRepo keeps rows in memory and applies the same read/view
// update the SQL repository does.
type memNotificationRepo struct {
	rows map[uuid.UUID]*domain.Notification
}

func newMemNotificationRepo(rows ...*domain.Notification) *memNotificationRepo {
	m := &memNotificationRepo{rows: map[uuid.UUID]*domain.Notification{}}
	for _, row := range rows {
		m.rows[row.ID] = row
	}
	return m
}

func (m *memNotificationRepo) Create(ctx context.Context, notif *domain.Notification) error {
	m.rows[notif.ID] = notif
	return nil
}

func (m *memNotificationRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Notification, error) {
	row, ok := m.rows[id]
	if !ok || row.DeletedAt != nil {
		return nil, sql.ErrNoRows
	}
	return row, nil
}

func (m *memNotificationRepo) Exists(ctx context.Context, tenantID uuid.UUID, regulationID uuid.UUID, milestone string, professionalID uuid.UUID) (bool, error) {
	return false, nil
}

func (m *memNotificationRepo) ListByProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, row := range m.rows {
		if row.ProfessionalID == professionalID && row.DeletedAt == nil {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memNotificationRepo) ListUnreadByProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, row := range m.rows {
		if row.ProfessionalID == professionalID && !row.IsRead && row.DeletedAt == nil {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memNotificationRepo) CountUnread(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error) {
	unread, _ := m.ListUnreadByProfessional(ctx, tenantID, professionalID)
	return int64(len(unread)), nil
}

func (m *memNotificationRepo) MarkViewed(ctx context.Context, tenantID, id uuid.UUID, viewedBy domain.ViewList, readAt time.Time) error {
	row, ok := m.rows[id]
	if !ok || row.TenantID != tenantID {
		return nil
	}
	row.ViewedBy = viewedBy
	row.IsRead = true
	row.ReadAt = &readAt
	return nil
}

func (m *memNotificationRepo) SoftDeleteByProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error) {
	now := time.Now()
	var count int64
	for _, row := range m.rows {
		if row.ProfessionalID == professionalID && row.DeletedAt == nil {
			row.DeletedAt = &now
			count++
		}
	}
	return count, nil
}

func (m *memNotificationRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, row := range m.rows {
		if row.TenantID == tenantID && row.DeletedAt == nil {
			out = append(out, *row)
		}
	}
	return out, nil
}

func unreadNotification(tenantID, professionalID uuid.UUID) *domain.Notification {
	return &domain.Notification{
		ID:             uuid.New(),
		TenantID:       tenantID,
		ProfessionalID: professionalID,
		Type:           domain.NotifDeadline,
		Milestone:      "deadline_3",
		Title:          "Prazo vence em 3 dias",
		ViewedBy:       domain.ViewList{},
	}
}

func TestMarkAllViewed(t *testing.T) {
	tenantID := uuid.New()
	profID := uuid.New()
	viewedAt := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

	first := unreadNotification(tenantID, profID)
	second := unreadNotification(tenantID, profID)
	repo := newMemNotificationRepo(first, second)

	svc := NewService(repo, &fakeProfessionalRepo{professionals: map[uuid.UUID]*domain.Professional{
		profID: {ID: profID, TenantID: tenantID, FullName: "Ana Lima", Role: domain.RoleAnalyst},
	}}, clock.NewFakeClock(viewedAt), zerolog.Nop())

	count, err := svc.MarkAllViewed(context.Background(), tenantID, profID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	for _, row := range []*domain.Notification{first, second} {
		assert.True(t, row.IsRead)
		require.NotNil(t, row.ReadAt)
		assert.Equal(t, viewedAt, *row.ReadAt)
		require.Len(t, row.ViewedBy, 1)
		assert.Equal(t, profID, row.ViewedBy[0].ProfessionalID)
		assert.Equal(t, "Ana Lima", row.ViewedBy[0].Name)
		assert.Equal(t, viewedAt, row.ViewedBy[0].ViewedAt)
	}

	// Everything already read: nothing left to update, no duplicate view
	// entries.
	count, err = svc.MarkAllViewed(context.Background(), tenantID, profID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Len(t, first.ViewedBy, 1)
}

func TestMarkAllViewed_UnknownProfessional(t *testing.T) {
	tenantID := uuid.New()
	repo := newMemNotificationRepo()

	svc := NewService(repo, &fakeProfessionalRepo{professionals: map[uuid.UUID]*domain.Professional{}},
		clock.NewFakeClock(time.Now()), zerolog.Nop())

	count, err := svc.MarkAllViewed(context.Background(), tenantID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestClearAll_LeavesOtherStaffAlone(t *testing.T) {
	tenantID := uuid.New()
	profID := uuid.New()
	otherID := uuid.New()

	mine := unreadNotification(tenantID, profID)
	theirs := unreadNotification(tenantID, otherID)
	repo := newMemNotificationRepo(mine, theirs)

	svc := NewService(repo, &fakeProfessionalRepo{}, clock.NewFakeClock(time.Now()), zerolog.Nop())

	count, err := svc.ClearAll(context.Background(), tenantID, profID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.NotNil(t, mine.DeletedAt)
	assert.Nil(t, theirs.DeletedAt)

	remaining, err := svc.ListForProfessional(context.Background(), tenantID, otherID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestListViews_CountsViewEntries(t *testing.T) {
	tenantID := uuid.New()
	profID := uuid.New()

	notif := unreadNotification(tenantID, profID)
	notif.ViewedBy = domain.ViewList{
		{ProfessionalID: profID, Name: "Ana Lima", ViewedAt: time.Now()},
		{ProfessionalID: uuid.New(), Name: "Bruno Dias", ViewedAt: time.Now()},
	}
	repo := newMemNotificationRepo(notif)

	svc := NewService(repo, &fakeProfessionalRepo{}, clock.NewFakeClock(time.Now()), zerolog.Nop())

	views, err := svc.ListViews(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].ViewsCount)

	details, err := svc.ViewDetails(context.Background(), tenantID, notif.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, details.ViewsCount)
}

func TestViewDetails_NotFound(t *testing.T) {
	repo := newMemNotificationRepo()
	svc := NewService(repo, &fakeProfessionalRepo{}, clock.NewFakeClock(time.Now()), zerolog.Nop())

	_, err := svc.ViewDetails(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
