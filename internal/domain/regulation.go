package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type RegulationStatus string

const (
	RegulationInProgress RegulationStatus = "in_progress"
	RegulationApproved   RegulationStatus = "approved"
	RegulationDenied     RegulationStatus = "denied"
	RegulationReturned   RegulationStatus = "returned"
)

type RegulationPriority string

const (
	PriorityElective  RegulationPriority = "elective"
	PriorityUrgent    RegulationPriority = "urgent"
	PriorityEmergency RegulationPriority = "emergency"
)

// Regulation is the read model of a case. This module never writes it; the
// case-management module owns the rows.
type Regulation struct {
	ID                uuid.UUID          `json:"id" db:"id"`
	TenantID          uuid.UUID          `json:"tenant_id" db:"tenant_id"`
	Status            RegulationStatus   `json:"status" db:"status"`
	Priority          RegulationPriority `json:"priority" db:"priority"`
	ScheduledDate     *time.Time         `json:"scheduled_date,omitempty" db:"scheduled_date"`
	AssignedAnalystID *uuid.UUID         `json:"assigned_analyst_id,omitempty" db:"assigned_analyst_id"`
	PatientName       *string            `json:"patient_name,omitempty" db:"patient_name"`
	ProcedureNames    pq.StringArray     `json:"procedure_names" db:"procedure_names"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
}

type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
