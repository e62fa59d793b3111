package models

import (
	"time"

	"siap/pkg/metadata"
)

type StockOpname struct {
	ID          int                   `json:"id" db:"id"`
	Number      string                `json:"number" db:"opname_number"`
	LocationID  int                   `json:"location_id" db:"location_id"`
	Status      metadata.OpnameStatus `json:"status" db:"status"`
	Notes       *string               `json:"notes,omitempty" db:"notes"`
	CreatedBy   int                   `json:"created_by" db:"created_by"`
	StartedAt   *time.Time            `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time            `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time             `json:"created_at" db:"created_at"`
	Details     []StockOpnameDetail   `json:"details,omitempty" db:"-"`
}

func (o *StockOpname) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   o.ID,
		ResourceType: "stock_opname",
	}
}

type StockOpnameDetail struct {
	ID        int                         `json:"id" db:"id"`
	OpnameID  int                         `json:"opname_id" db:"opname_id"`
	AssetID   int                         `json:"asset_id" db:"asset_id"`
	Status    metadata.OpnameDetailStatus `json:"status" db:"status"`
	ScannedAt *time.Time                  `json:"scanned_at,omitempty" db:"scanned_at"`
	ScannedBy *int                        `json:"scanned_by,omitempty" db:"scanned_by"`
	Notes     *string                     `json:"notes,omitempty" db:"notes"`
}

type OpnameSummary struct {
	Missing  int `json:"missing"`
	Found    int `json:"found"`
	Unlisted int `json:"unlisted"`
}

func SummarizeDetails(details []StockOpnameDetail) OpnameSummary {
	var summary OpnameSummary
	for _, d := range details {
		switch d.Status {
		case metadata.DetailMissing:
			summary.Missing++
		case metadata.DetailFound:
			summary.Found++
		case metadata.DetailUnlisted:
			summary.Unlisted++
		}
	}
	return summary
}
