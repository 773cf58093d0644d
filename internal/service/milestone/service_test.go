package milestone

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regula-notificador/internal/domain"
	"regula-notificador/internal/pkg/clock"
)

// fakeRegulationRepo serves fixed candidate sets; range filtering is the
// database's job, the detector still re-checks day offsets.
type fakeRegulationRepo struct {
	deadline []domain.Regulation
	priority []domain.Regulation
}

func (f *fakeRegulationRepo) ListDeadlineCandidates(ctx context.Context, tenantID *uuid.UUID, from, to time.Time) ([]domain.Regulation, error) {
	return f.deadline, nil
}

func (f *fakeRegulationRepo) ListPriorityAging(ctx context.Context, tenantID *uuid.UUID, oldest, newest time.Time) ([]domain.Regulation, error) {
	return f.priority, nil
}

type fakeProfessionalRepo struct {
	admins map[uuid.UUID][]domain.Professional
}

func (f *fakeProfessionalRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Professional, error) {
	return &domain.Professional{ID: id, TenantID: tenantID, FullName: "Profissional"}, nil
}

func (f *fakeProfessionalRepo) ListAdmins(ctx context.Context, tenantID uuid.UUID) ([]domain.Professional, error) {
	return f.admins[tenantID], nil
}

// memNotificationRepo enforces the (regulation, milestone, professional)
// dedup contract in memory.
type memNotificationRepo struct {
	created []domain.Notification
	keys    map[string]bool
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{keys: map[string]bool{}}
}

func dedupKey(regulationID uuid.UUID, milestone string, professionalID uuid.UUID) string {
	return fmt.Sprintf("%s|%s|%s", regulationID, milestone, professionalID)
}

func (m *memNotificationRepo) Create(ctx context.Context, notif *domain.Notification) error {
	m.created = append(m.created, *notif)
	m.keys[dedupKey(*notif.RegulationID, notif.Milestone, notif.ProfessionalID)] = true
	return nil
}

func (m *memNotificationRepo) Exists(ctx context.Context, tenantID uuid.UUID, regulationID uuid.UUID, milestone string, professionalID uuid.UUID) (bool, error) {
	return m.keys[dedupKey(regulationID, milestone, professionalID)], nil
}

func (m *memNotificationRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Notification, error) {
	return nil, nil
}

func (m *memNotificationRepo) ListByProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) ([]domain.Notification, error) {
	return nil, nil
}

func (m *memNotificationRepo) ListUnreadByProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) ([]domain.Notification, error) {
	return nil, nil
}

func (m *memNotificationRepo) CountUnread(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error) {
	return 0, nil
}

func (m *memNotificationRepo) MarkViewed(ctx context.Context, tenantID, id uuid.UUID, viewedBy domain.ViewList, readAt time.Time) error {
	return nil
}

func (m *memNotificationRepo) SoftDeleteByProfessional(ctx context.Context, tenantID, professionalID uuid.UUID) (int64, error) {
	return 0, nil
}

func (m *memNotificationRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Notification, error) {
	return nil, nil
}

var saoPaulo = time.FixedZone("-03", -3*60*60)

// today is 2025-03-10 in the home timezone.
func testClock() *clock.FakeClock {
	return clock.NewFakeClock(time.Date(2025, 3, 10, 15, 0, 0, 0, saoPaulo))
}

func dateUTC(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(regRepo *fakeRegulationRepo, profRepo *fakeProfessionalRepo, notifRepo *memNotificationRepo) *Service {
	return NewService(regRepo, profRepo, notifRepo, testClock(), zerolog.Nop())
}

func adminSet(tenantID uuid.UUID, admins ...domain.Professional) *fakeProfessionalRepo {
	return &fakeProfessionalRepo{admins: map[uuid.UUID][]domain.Professional{tenantID: admins}}
}

func deadlineRegulation(tenantID uuid.UUID, scheduled time.Time) domain.Regulation {
	name := "Maria Souza"
	return domain.Regulation{
		ID:             uuid.New(),
		TenantID:       tenantID,
		Status:         domain.RegulationInProgress,
		ScheduledDate:  &scheduled,
		PatientName:    &name,
		ProcedureNames: []string{"Ressonância magnética"},
		CreatedAt:      time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestScan_DeadlineBoundaries(t *testing.T) {
	tenantID := uuid.New()
	admin := domain.Professional{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleTenantAdmin}

	tests := []struct {
		name          string
		scheduled     time.Time
		wantCreated   int
		wantMilestone string
	}{
		{"five days ahead", dateUTC(2025, 3, 15), 1, "deadline_5"},
		{"six days ahead is outside the window", dateUTC(2025, 3, 16), 0, ""},
		{"due today", dateUTC(2025, 3, 10), 1, "deadline_0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifRepo := newMemNotificationRepo()
			svc := newTestService(
				&fakeRegulationRepo{deadline: []domain.Regulation{deadlineRegulation(tenantID, tt.scheduled)}},
				adminSet(tenantID, admin),
				notifRepo,
			)

			summary, err := svc.Scan(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, summary.DeadlineCreated)

			if tt.wantCreated > 0 {
				require.Len(t, notifRepo.created, tt.wantCreated)
				assert.Equal(t, tt.wantMilestone, notifRepo.created[0].Milestone)
				assert.Equal(t, domain.NotifDeadline, notifRepo.created[0].Type)
				assert.Equal(t, admin.ID, notifRepo.created[0].ProfessionalID)
			}
		})
	}
}

func TestScan_DeadlineDueTodayTitle(t *testing.T) {
	tenantID := uuid.New()
	admin := domain.Professional{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleTenantAdmin}

	notifRepo := newMemNotificationRepo()
	svc := newTestService(
		&fakeRegulationRepo{deadline: []domain.Regulation{deadlineRegulation(tenantID, dateUTC(2025, 3, 10))}},
		adminSet(tenantID, admin),
		notifRepo,
	)

	_, err := svc.Scan(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, notifRepo.created, 1)
	assert.Equal(t, "Prazo vence hoje", notifRepo.created[0].Title)
	assert.Contains(t, notifRepo.created[0].Message, "Maria Souza")
	assert.Contains(t, notifRepo.created[0].Message, "Ressonância magnética")
}

func priorityRegulation(tenantID uuid.UUID, createdAt time.Time) domain.Regulation {
	return domain.Regulation{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Status:    domain.RegulationInProgress,
		Priority:  domain.PriorityUrgent,
		CreatedAt: createdAt,
	}
}

func TestScan_PriorityBoundaries(t *testing.T) {
	tenantID := uuid.New()
	admin := domain.Professional{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleTenantAdmin}

	tests := []struct {
		name          string
		createdAt     time.Time
		wantCreated   int
		wantMilestone string
	}{
		// 2025-03-10 minus 30 days is 2025-02-08.
		{"exactly thirty days", time.Date(2025, 2, 8, 18, 0, 0, 0, time.UTC), 1, "priority_30"},
		{"twenty-nine days", time.Date(2025, 2, 9, 18, 0, 0, 0, time.UTC), 0, ""},
		{"thirty-one days", time.Date(2025, 2, 7, 18, 0, 0, 0, time.UTC), 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifRepo := newMemNotificationRepo()
			svc := newTestService(
				&fakeRegulationRepo{priority: []domain.Regulation{priorityRegulation(tenantID, tt.createdAt)}},
				adminSet(tenantID, admin),
				notifRepo,
			)

			summary, err := svc.Scan(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, summary.PriorityCreated)

			if tt.wantCreated > 0 {
				require.Len(t, notifRepo.created, 1)
				assert.Equal(t, tt.wantMilestone, notifRepo.created[0].Milestone)
				assert.Equal(t, domain.NotifPriority, notifRepo.created[0].Type)
				assert.Contains(t, notifRepo.created[0].Title, "30 dias")
				assert.Contains(t, notifRepo.created[0].Message, "paciente não identificado")
			}
		})
	}
}

// windowedRegulationRepo applies the same instant-based range predicate the
// SQL repository does, so window bounds are exercised, not bypassed.
type windowedRegulationRepo struct {
	priority []domain.Regulation
}

func (f *windowedRegulationRepo) ListDeadlineCandidates(ctx context.Context, tenantID *uuid.UUID, from, to time.Time) ([]domain.Regulation, error) {
	return nil, nil
}

func (f *windowedRegulationRepo) ListPriorityAging(ctx context.Context, tenantID *uuid.UUID, oldest, newest time.Time) ([]domain.Regulation, error) {
	var out []domain.Regulation
	for _, r := range f.priority {
		if !r.CreatedAt.Before(oldest) && r.CreatedAt.Before(newest) {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestScan_PriorityEveningCreationStaysInWindow(t *testing.T) {
	tenantID := uuid.New()
	admin := domain.Professional{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleTenantAdmin}

	// Created 22:00 local on the day exactly 15 home-days before today. As a
	// UTC instant that is already past the next UTC midnight, so tight window
	// bounds would exclude it and the milestone would be skipped for good.
	createdAt := time.Date(2025, 2, 23, 22, 0, 0, 0, saoPaulo)

	notifRepo := newMemNotificationRepo()
	svc := NewService(
		&windowedRegulationRepo{priority: []domain.Regulation{priorityRegulation(tenantID, createdAt)}},
		adminSet(tenantID, admin),
		notifRepo,
		testClock(),
		zerolog.Nop(),
	)

	summary, err := svc.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PriorityCreated)
	require.Len(t, notifRepo.created, 1)
	assert.Equal(t, "priority_15", notifRepo.created[0].Milestone)
}

func TestScan_TargetFanOut(t *testing.T) {
	tenantID := uuid.New()
	admin1 := domain.Professional{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleTenantAdmin}
	admin2 := domain.Professional{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleTenantAdmin}
	analystID := uuid.New()

	reg := deadlineRegulation(tenantID, dateUTC(2025, 3, 12))
	reg.AssignedAnalystID = &analystID

	notifRepo := newMemNotificationRepo()
	svc := newTestService(
		&fakeRegulationRepo{deadline: []domain.Regulation{reg}},
		adminSet(tenantID, admin1, admin2),
		notifRepo,
	)

	summary, err := svc.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.DeadlineCreated)

	targets := map[uuid.UUID]bool{}
	for _, n := range notifRepo.created {
		targets[n.ProfessionalID] = true
	}
	assert.Len(t, targets, 3)
	assert.True(t, targets[admin1.ID])
	assert.True(t, targets[admin2.ID])
	assert.True(t, targets[analystID])
}

func TestScan_AnalystWhoIsAdminNotDuplicated(t *testing.T) {
	tenantID := uuid.New()
	admin := domain.Professional{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleTenantAdmin}

	reg := deadlineRegulation(tenantID, dateUTC(2025, 3, 12))
	reg.AssignedAnalystID = &admin.ID

	notifRepo := newMemNotificationRepo()
	svc := newTestService(
		&fakeRegulationRepo{deadline: []domain.Regulation{reg}},
		adminSet(tenantID, admin),
		notifRepo,
	)

	summary, err := svc.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DeadlineCreated)
}

func TestScan_Idempotent(t *testing.T) {
	tenantID := uuid.New()
	admin := domain.Professional{ID: uuid.New(), TenantID: tenantID, Role: domain.RoleTenantAdmin}
	analystID := uuid.New()

	reg := deadlineRegulation(tenantID, dateUTC(2025, 3, 13))
	reg.AssignedAnalystID = &analystID

	notifRepo := newMemNotificationRepo()
	svc := newTestService(
		&fakeRegulationRepo{
			deadline: []domain.Regulation{reg},
			priority: []domain.Regulation{priorityRegulation(tenantID, time.Date(2025, 2, 8, 18, 0, 0, 0, time.UTC))},
		},
		adminSet(tenantID, admin),
		notifRepo,
	)

	first, err := svc.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, first.DeadlineCreated)
	assert.Equal(t, 1, first.PriorityCreated)

	second, err := svc.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.DeadlineCreated)
	assert.Equal(t, 0, second.PriorityCreated)
	assert.Len(t, notifRepo.created, 3)
}
