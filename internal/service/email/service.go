package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
	"github.com/rs/zerolog"

	"regula-notificador/internal/config"
	"regula-notificador/internal/domain"
)

type Service interface {
	// NotifyJobFailed alerts the operations address when an outbound job
	// exhausts its attempts. Best-effort: failures are logged, never
	// propagated.
	NotifyJobFailed(ctx context.Context, job *domain.OutboundJob)
}

type service struct {
	client *resend.Client
	config *config.Config
	log    zerolog.Logger
}

func NewService(cfg *config.Config, log zerolog.Logger) Service {
	return &service{
		client: resend.NewClient(cfg.ResendAPIKey),
		config: cfg,
		log:    log.With().Str("component", "email_service").Logger(),
	}
}

func (s *service) NotifyJobFailed(ctx context.Context, job *domain.OutboundJob) {
	if s.config.OpsAlertEmail == "" {
		return
	}

	subject := fmt.Sprintf("Envio de mensagem falhou após %d tentativas", job.Attempts)
	html := fmt.Sprintf(`
<p>Um envio de mensagem esgotou as tentativas e foi retido na fila de falhas.</p>
<ul>
	<li><strong>Job:</strong> %s</li>
	<li><strong>Tenant:</strong> %s</li>
	<li><strong>Telefone:</strong> %s</li>
	<li><strong>Tentativas:</strong> %d</li>
	<li><strong>Motivo:</strong> %s</li>
</ul>
<p>Use o painel administrativo para reprocessar ou descartar o job.</p>`,
		job.ID, job.TenantID, job.Phone, job.Attempts, job.FailureReason)

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{s.config.OpsAlertEmail},
		Subject: subject,
		Html:    html,
	}

	if _, err := s.client.Emails.Send(params); err != nil {
		s.log.Error().Err(err).Str("job", job.ID).Msg("failed to send failure alert email")
	}
}
