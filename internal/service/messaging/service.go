package messaging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"regula-notificador/internal/config"
	"regula-notificador/internal/domain"
	"regula-notificador/internal/pkg/phone"
	"regula-notificador/internal/repository"
	"regula-notificador/internal/service/outbound"
	"regula-notificador/internal/service/transport"
)

// InstanceStatus is one tenant's messaging instance with a live status poll.
type InstanceStatus struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	TenantName   string    `json:"tenant_name"`
	InstanceName string    `json:"instance_name"`
	Provider     string    `json:"provider"`
	IsActive     bool      `json:"is_active"`
	State        string    `json:"state"`
}

type EnqueueResult struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

type UpdateConfigInput struct {
	Provider *string `json:"provider"`
	IsActive *bool   `json:"is_active"`
}

type Service interface {
	// SendMessage is the human-triggered path: it passes through the soft
	// rate limiter before the job lands on the durable queue. Rejected with
	// domain.ErrForbidden when the tenant's instance is inactive.
	SendMessage(ctx context.Context, tenantID uuid.UUID, rawPhone, message string) (*EnqueueResult, error)
	// EnqueueMessage is the fire-and-forget enqueue API used by other
	// modules; it skips the limiter.
	EnqueueMessage(ctx context.Context, tenantID uuid.UUID, rawPhone, message string) (*EnqueueResult, error)

	ListInstances(ctx context.Context) ([]InstanceStatus, error)
	ConnectInstance(ctx context.Context, tenantID uuid.UUID) (*transport.ConnectResult, error)
	DisconnectInstance(ctx context.Context, tenantID uuid.UUID) error
	UpdateConfig(ctx context.Context, tenantID uuid.UUID, input UpdateConfigInput) (*domain.MessagingConfig, error)
	RegenerateCredential(ctx context.Context, tenantID uuid.UUID) (*domain.MessagingConfig, error)
}

type service struct {
	tenantRepo repository.TenantRepository
	configRepo repository.MessagingConfigRepository
	registry   *transport.Registry
	queue      *outbound.Queue
	limiter    *outbound.Limiter
	defaults   *config.Config
	log        zerolog.Logger
}

func NewService(
	tenantRepo repository.TenantRepository,
	configRepo repository.MessagingConfigRepository,
	registry *transport.Registry,
	queue *outbound.Queue,
	limiter *outbound.Limiter,
	cfg *config.Config,
	log zerolog.Logger,
) Service {
	return &service{
		tenantRepo: tenantRepo,
		configRepo: configRepo,
		registry:   registry,
		queue:      queue,
		limiter:    limiter,
		defaults:   cfg,
		log:        log.With().Str("component", "messaging_service").Logger(),
	}
}

func (s *service) SendMessage(ctx context.Context, tenantID uuid.UUID, rawPhone, message string) (*EnqueueResult, error) {
	cfg, err := s.getOrCreateConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !cfg.IsActive {
		return nil, domain.ErrForbidden
	}

	var result *EnqueueResult
	err = s.limiter.Run(ctx, func() error {
		var innerErr error
		result, innerErr = s.enqueue(ctx, cfg, rawPhone, message)
		return innerErr
	})
	return result, err
}

func (s *service) EnqueueMessage(ctx context.Context, tenantID uuid.UUID, rawPhone, message string) (*EnqueueResult, error) {
	cfg, err := s.getOrCreateConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !cfg.IsActive {
		return nil, domain.ErrForbidden
	}
	return s.enqueue(ctx, cfg, rawPhone, message)
}

func (s *service) enqueue(ctx context.Context, cfg *domain.MessagingConfig, rawPhone, message string) (*EnqueueResult, error) {
	job := &domain.OutboundJob{
		TenantID:     cfg.TenantID,
		Phone:        phone.Normalize(rawPhone),
		Message:      message,
		InstanceName: cfg.InstanceName,
		Credential:   cfg.Credential,
		Provider:     cfg.Provider,
	}

	jobID, err := s.queue.Enqueue(ctx, job)
	if err != nil {
		return nil, err
	}
	return &EnqueueResult{Status: "QUEUED", JobID: jobID}, nil
}

func (s *service) ListInstances(ctx context.Context) ([]InstanceStatus, error) {
	tenants, err := s.tenantRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	statuses := make([]InstanceStatus, 0, len(tenants))
	for _, tenant := range tenants {
		status := InstanceStatus{TenantID: tenant.ID, TenantName: tenant.Name}

		cfg, err := s.getOrCreateConfig(ctx, tenant.ID)
		if err != nil {
			// A broken tenant degrades its reported state, never the call.
			s.log.Error().Err(err).Str("tenant", tenant.ID.String()).
				Msg("failed to resolve messaging config")
			status.State = "error"
			statuses = append(statuses, status)
			continue
		}

		status.InstanceName = cfg.InstanceName
		status.Provider = cfg.Provider
		status.IsActive = cfg.IsActive

		provider := s.registry.Get(cfg.Provider)
		status.State = provider.CheckStatus(ctx, cfg.InstanceName, cfg.Credential).State
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (s *service) ConnectInstance(ctx context.Context, tenantID uuid.UUID) (*transport.ConnectResult, error) {
	cfg, err := s.getOrCreateConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	provider := s.registry.Get(cfg.Provider)
	return provider.Connect(ctx, cfg.InstanceName, cfg.Credential)
}

func (s *service) DisconnectInstance(ctx context.Context, tenantID uuid.UUID) error {
	cfg, err := s.getOrCreateConfig(ctx, tenantID)
	if err != nil {
		return err
	}

	// Best-effort: provider errors are logged inside the provider and must
	// never block the tenant from reconfiguring.
	provider := s.registry.Get(cfg.Provider)
	provider.Disconnect(ctx, cfg.InstanceName, cfg.Credential)
	return nil
}

func (s *service) UpdateConfig(ctx context.Context, tenantID uuid.UUID, input UpdateConfigInput) (*domain.MessagingConfig, error) {
	cfg, err := s.getOrCreateConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if input.Provider != nil {
		cfg.Provider = *input.Provider
	}
	if input.IsActive != nil {
		cfg.IsActive = *input.IsActive
	}

	if err := s.configRepo.Update(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to update messaging config: %w", err)
	}
	return cfg, nil
}

func (s *service) RegenerateCredential(ctx context.Context, tenantID uuid.UUID) (*domain.MessagingConfig, error) {
	cfg, err := s.getOrCreateConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// Replace in place; the previous credential stops working for every
	// future call.
	cfg.Credential = uuid.NewString()
	if err := s.configRepo.UpdateCredential(ctx, tenantID, cfg.Credential); err != nil {
		return nil, fmt.Errorf("failed to regenerate credential: %w", err)
	}
	return cfg, nil
}

// getOrCreateConfig lazily provisions a tenant's messaging config on first
// use. Concurrent first-uses race on the tenant_id unique constraint; the
// loser re-reads the winner's row.
func (s *service) getOrCreateConfig(ctx context.Context, tenantID uuid.UUID) (*domain.MessagingConfig, error) {
	cfg, err := s.configRepo.GetByTenant(ctx, tenantID)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load messaging config: %w", err)
	}

	// Never provision for tenant ids that do not exist.
	if _, err := s.tenantRepo.GetByID(ctx, tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve tenant: %w", err)
	}

	fresh := &domain.MessagingConfig{
		ID:           uuid.New(),
		TenantID:     tenantID,
		InstanceName: fmt.Sprintf("tenant_%s", tenantID.String()[:8]),
		Provider:     s.defaults.DefaultProvider,
		Credential:   uuid.NewString(),
		IsActive:     true,
	}
	if err := s.configRepo.Create(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to create messaging config: %w", err)
	}

	// Re-read regardless: on a lost race this returns the winner's row.
	cfg, err = s.configRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload messaging config: %w", err)
	}
	return cfg, nil
}
