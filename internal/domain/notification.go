package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifDeadline NotificationType = "DEADLINE"
	NotifPriority NotificationType = "PRIORITY"
)

// NotificationView records one staff member having seen a notification. The
// list is append-only and deduplicated by professional id.
type NotificationView struct {
	ProfessionalID uuid.UUID `json:"professional_id"`
	Name           string    `json:"name"`
	ViewedAt       time.Time `json:"viewed_at"`
}

// ViewList is stored as a JSONB column.
type ViewList []NotificationView

func (v ViewList) Value() (driver.Value, error) {
	if v == nil {
		v = ViewList{}
	}
	return json.Marshal(v)
}

func (v *ViewList) Scan(src interface{}) error {
	if src == nil {
		*v = ViewList{}
		return nil
	}
	var data []byte
	switch s := src.(type) {
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("unsupported type %T for ViewList", src)
	}
	return json.Unmarshal(data, v)
}

// Contains reports whether the professional already has a view entry.
func (v ViewList) Contains(professionalID uuid.UUID) bool {
	for _, entry := range v {
		if entry.ProfessionalID == professionalID {
			return true
		}
	}
	return false
}

// Notification is one milestone alert targeted at exactly one professional.
// At most one non-deleted row exists per (regulation, milestone, professional);
// the milestone scanner enforces it and a partial unique index backs it up.
type Notification struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	TenantID       uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	RegulationID   *uuid.UUID       `json:"regulation_id,omitempty" db:"regulation_id"`
	ProfessionalID uuid.UUID        `json:"professional_id" db:"professional_id"`
	Type           NotificationType `json:"type" db:"type"`
	Milestone      string           `json:"milestone" db:"milestone"`
	Title          string           `json:"title" db:"title"`
	Message        string           `json:"message" db:"message"`
	IsRead         bool             `json:"is_read" db:"is_read"`
	ReadAt         *time.Time       `json:"read_at,omitempty" db:"read_at"`
	ViewedBy       ViewList         `json:"viewed_by" db:"viewed_by"`
	DeletedAt      *time.Time       `json:"-" db:"deleted_at"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// NotificationWithViews is the administrative read, enriched with the view
// count.
type NotificationWithViews struct {
	Notification
	ViewsCount int `json:"views_count"`
}
