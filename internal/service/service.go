package service

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"regula-notificador/internal/config"
	"regula-notificador/internal/pkg/clock"
	"regula-notificador/internal/repository"
	"regula-notificador/internal/service/email"
	"regula-notificador/internal/service/messaging"
	"regula-notificador/internal/service/milestone"
	"regula-notificador/internal/service/notification"
	"regula-notificador/internal/service/outbound"
	"regula-notificador/internal/service/transport"
)

type Services struct {
	Notification notification.Service
	Messaging    messaging.Service
	Milestone    *milestone.Service
	Email        email.Service

	Queue   *outbound.Queue
	Limiter *outbound.Limiter
}

func NewServices(repos *repository.Repositories, rdb *redis.Client, clk clock.Clock, cfg *config.Config, log zerolog.Logger) *Services {
	registry := transport.NewRegistry(cfg, log)

	emailService := email.NewService(cfg, log)

	queue := outbound.NewQueue(rdb, registry, outbound.Config{
		Workers:     cfg.QueueWorkers,
		MaxAttempts: cfg.QueueMaxAttempts,
		BackoffBase: cfg.QueueBackoffBase,
	}, log)
	queue.SetFailureNotifier(emailService)

	limiter := outbound.NewLimiter(log)

	messagingService := messaging.NewService(repos.Tenant, repos.MessagingConfig, registry, queue, limiter, cfg, log)
	notificationService := notification.NewService(repos.Notification, repos.Professional, clk, log)
	milestoneService := milestone.NewService(repos.Regulation, repos.Professional, repos.Notification, clk, log)

	return &Services{
		Notification: notificationService,
		Messaging:    messagingService,
		Milestone:    milestoneService,
		Email:        emailService,
		Queue:        queue,
		Limiter:      limiter,
	}
}
