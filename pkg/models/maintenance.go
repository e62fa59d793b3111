package models

import (
	"time"

	"siap/pkg/metadata"

	"github.com/shopspring/decimal"
)

type MaintenanceLog struct {
	ID          int                      `json:"id" db:"id"`
	AssetID     int                      `json:"asset_id" db:"asset_id"`
	Type        metadata.MaintenanceType `json:"maintenance_type" db:"maintenance_type"`
	Description string                   `json:"description" db:"description"`
	Vendor      *string                  `json:"vendor,omitempty" db:"vendor"`
	Cost        decimal.NullDecimal      `json:"cost" db:"cost"`
	PerformedBy int                      `json:"performed_by" db:"performed_by"`
	PerformedAt time.Time                `json:"performed_at" db:"performed_at"`
	NextDueAt   *time.Time               `json:"next_due_at,omitempty" db:"next_due_at"`
	CreatedAt   time.Time                `json:"created_at" db:"created_at"`
}

func (m *MaintenanceLog) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   m.AssetID,
		ResourceType: "asset",
		UserID:       &m.PerformedBy,
	}
}
