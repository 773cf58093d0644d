package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessagingConfig holds one tenant's messaging instance. Created lazily on the
// first messaging operation for the tenant.
type MessagingConfig struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TenantID     uuid.UUID `json:"tenant_id" db:"tenant_id"`
	InstanceName string    `json:"instance_name" db:"instance_name"`
	Provider     string    `json:"provider" db:"provider"`
	Credential   string    `json:"-" db:"credential"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type JobState string

const (
	JobWaiting   JobState = "waiting"
	JobActive    JobState = "active"
	JobDelayed   JobState = "delayed"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// OutboundJob is one durable unit of outbound messaging work. It lives in
// Redis, never in Postgres; completed jobs are removed immediately, failed
// ones are retained for operator inspection.
type OutboundJob struct {
	ID            string     `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	Phone         string     `json:"phone"`
	Message       string     `json:"message"`
	InstanceName  string     `json:"instance_name"`
	Credential    string     `json:"credential"`
	Provider      string     `json:"provider"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	State         JobState   `json:"state"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	LastTriedAt   *time.Time `json:"last_tried_at,omitempty"`
}
