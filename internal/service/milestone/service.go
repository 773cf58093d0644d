package milestone

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"regula-notificador/internal/domain"
	"regula-notificador/internal/pkg/clock"
	"regula-notificador/internal/repository"
)

const deadlineWindowDays = 5

var priorityMilestones = []int{15, 30, 45, 60, 75, 90}

type ScanSummary struct {
	DeadlineCreated int `json:"deadline_created"`
	PriorityCreated int `json:"priority_created"`
}

// Service is the milestone detector. Scan runs two passes over case state:
// regulations approaching their scheduled date and elevated-priority
// regulations that have sat in progress too long. Each qualifying case fans
// out to the tenant's admins plus the assigned analyst, creating at most one
// notification per (regulation, milestone, professional).
type Service struct {
	regRepo   repository.RegulationRepository
	profRepo  repository.ProfessionalRepository
	notifRepo repository.NotificationRepository
	clk       clock.Clock
	log       zerolog.Logger

	// Serializes overlapping scans (scheduled tick vs on-demand trigger).
	mu sync.Mutex
}

func NewService(
	regRepo repository.RegulationRepository,
	profRepo repository.ProfessionalRepository,
	notifRepo repository.NotificationRepository,
	clk clock.Clock,
	log zerolog.Logger,
) *Service {
	return &Service{
		regRepo:   regRepo,
		profRepo:  profRepo,
		notifRepo: notifRepo,
		clk:       clk,
		log:       log.With().Str("component", "milestone_detector").Logger(),
	}
}

// Scan runs both passes, for one tenant when tenantID is set or for all
// tenants otherwise. Failures on individual regulations are logged and do not
// abort the rest of the scan.
func (s *Service) Scan(ctx context.Context, tenantID *uuid.UUID) (*ScanSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// "today" is re-evaluated on every run, never cached. The clock ticks in
	// the home timezone; calendar days are normalized to UTC midnights so day
	// arithmetic never picks up partial offsets.
	now := s.clk.Now()
	today := dateOf(now)
	summary := &ScanSummary{}

	deadlineCount, err := s.deadlinePass(ctx, tenantID, today)
	if err != nil {
		return nil, fmt.Errorf("deadline pass failed: %w", err)
	}
	summary.DeadlineCreated = deadlineCount

	priorityCount, err := s.priorityPass(ctx, tenantID, today, now.Location())
	if err != nil {
		return nil, fmt.Errorf("priority pass failed: %w", err)
	}
	summary.PriorityCreated = priorityCount

	s.log.Info().
		Int("deadline_created", summary.DeadlineCreated).
		Int("priority_created", summary.PriorityCreated).
		Msg("milestone scan finished")
	return summary, nil
}

func (s *Service) deadlinePass(ctx context.Context, tenantID *uuid.UUID, today time.Time) (int, error) {
	to := today.AddDate(0, 0, deadlineWindowDays)
	regs, err := s.regRepo.ListDeadlineCandidates(ctx, tenantID, today, to)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range regs {
		reg := &regs[i]
		if reg.ScheduledDate == nil {
			continue
		}
		diff := daysBetween(today, dateOf(*reg.ScheduledDate))
		if diff < 0 || diff > deadlineWindowDays {
			continue
		}

		milestone := fmt.Sprintf("deadline_%d", diff)
		title := deadlineTitle(diff)
		message := fmt.Sprintf("Paciente %s. Procedimentos: %s. Data agendada: %s.",
			patientLabel(reg), proceduresLabel(reg), reg.ScheduledDate.Format("02/01/2006"))

		n, err := s.notifyTargets(ctx, reg, domain.NotifDeadline, milestone, title, message)
		if err != nil {
			s.log.Error().Err(err).Str("regulation", reg.ID.String()).
				Str("milestone", milestone).Msg("skipping regulation in deadline pass")
			continue
		}
		created += n
	}
	return created, nil
}

func (s *Service) priorityPass(ctx context.Context, tenantID *uuid.UUID, today time.Time, loc *time.Location) (int, error) {
	// The bounds are UTC midnights while created_at is an exact instant, so a
	// case created late in the day in an offset timezone can sit just outside
	// them. Pad both bounds by a day; the day-diff check below is the gate.
	oldest := today.AddDate(0, 0, -priorityMilestones[len(priorityMilestones)-1]-1)
	newest := today.AddDate(0, 0, -priorityMilestones[0]+2)
	regs, err := s.regRepo.ListPriorityAging(ctx, tenantID, oldest, newest)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range regs {
		reg := &regs[i]
		diff := daysBetween(dateOf(reg.CreatedAt.In(loc)), today)
		if !isPriorityMilestone(diff) {
			continue
		}

		milestone := fmt.Sprintf("priority_%d", diff)
		title := fmt.Sprintf("Caso urgente pendente há %d dias", diff)
		message := fmt.Sprintf("Paciente %s. Procedimentos: %s. Prioridade %s há %d dias sem conclusão.",
			patientLabel(reg), proceduresLabel(reg), priorityLabel(reg.Priority), diff)

		n, err := s.notifyTargets(ctx, reg, domain.NotifPriority, milestone, title, message)
		if err != nil {
			s.log.Error().Err(err).Str("regulation", reg.ID.String()).
				Str("milestone", milestone).Msg("skipping regulation in priority pass")
			continue
		}
		created += n
	}
	return created, nil
}

// notifyTargets resolves the target staff set (tenant admins plus the
// assigned analyst, deduplicated) and creates the missing notifications.
func (s *Service) notifyTargets(ctx context.Context, reg *domain.Regulation, notifType domain.NotificationType, milestone, title, message string) (int, error) {
	if reg.TenantID == uuid.Nil {
		return 0, domain.ErrConfigMissing
	}

	targets, err := s.resolveTargets(ctx, reg)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, target := range targets {
		exists, err := s.notifRepo.Exists(ctx, reg.TenantID, reg.ID, milestone, target)
		if err != nil {
			s.log.Error().Err(err).Str("regulation", reg.ID.String()).
				Str("professional", target.String()).Msg("dedup check failed")
			continue
		}
		if exists {
			continue
		}

		regID := reg.ID
		notif := &domain.Notification{
			ID:             uuid.New(),
			TenantID:       reg.TenantID,
			RegulationID:   &regID,
			ProfessionalID: target,
			Type:           notifType,
			Milestone:      milestone,
			Title:          title,
			Message:        message,
			ViewedBy:       domain.ViewList{},
		}
		if err := s.notifRepo.Create(ctx, notif); err != nil {
			s.log.Error().Err(err).Str("regulation", reg.ID.String()).
				Str("professional", target.String()).Msg("failed to create notification")
			continue
		}
		created++
	}
	return created, nil
}

func (s *Service) resolveTargets(ctx context.Context, reg *domain.Regulation) ([]uuid.UUID, error) {
	admins, err := s.profRepo.ListAdmins(ctx, reg.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant admins: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(admins)+1)
	targets := make([]uuid.UUID, 0, len(admins)+1)
	for _, admin := range admins {
		if !seen[admin.ID] {
			seen[admin.ID] = true
			targets = append(targets, admin.ID)
		}
	}
	if reg.AssignedAnalystID != nil && !seen[*reg.AssignedAnalystID] {
		targets = append(targets, *reg.AssignedAnalystID)
	}
	return targets, nil
}

func deadlineTitle(diff int) string {
	switch diff {
	case 0:
		return "Prazo vence hoje"
	case 1:
		return "Prazo vence em 1 dia"
	default:
		return fmt.Sprintf("Prazo vence em %d dias", diff)
	}
}

func patientLabel(reg *domain.Regulation) string {
	if reg.PatientName == nil || *reg.PatientName == "" {
		return "paciente não identificado"
	}
	return *reg.PatientName
}

func proceduresLabel(reg *domain.Regulation) string {
	if len(reg.ProcedureNames) == 0 {
		return "sem procedimentos"
	}
	return strings.Join(reg.ProcedureNames, ", ")
}

func priorityLabel(p domain.RegulationPriority) string {
	switch p {
	case domain.PriorityEmergency:
		return "emergência"
	case domain.PriorityUrgent:
		return "urgente"
	default:
		return string(p)
	}
}

func isPriorityMilestone(diff int) bool {
	for _, m := range priorityMilestones {
		if diff == m {
			return true
		}
	}
	return false
}

// dateOf reduces an instant to its calendar day as a UTC midnight, so
// differences between days are whole multiples of 24h regardless of the
// source offset.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
