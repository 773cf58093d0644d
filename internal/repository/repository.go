package repository

import (
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Tenant          TenantRepository
	Professional    ProfessionalRepository
	Regulation      RegulationRepository
	Notification    NotificationRepository
	MessagingConfig MessagingConfigRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Tenant:          NewTenantRepository(db),
		Professional:    NewProfessionalRepository(db),
		Regulation:      NewRegulationRepository(db),
		Notification:    NewNotificationRepository(db),
		MessagingConfig: NewMessagingConfigRepository(db),
	}
}
