package models

import (
	"encoding/json"
	"fmt"
	"time"

	"siap/pkg/metadata"
)

// Movement is one immutable entry of the asset movement ledger.
type Movement struct {
	ID             int                    `json:"id" db:"id"`
	AssetID        int                    `json:"asset_id" db:"asset_id"`
	Type           metadata.MovementType  `json:"movement_type" db:"movement_type"`
	FromStatus     *metadata.AssetStatus  `json:"from_status,omitempty" db:"from_status"`
	ToStatus       metadata.AssetStatus   `json:"to_status" db:"to_status"`
	FromUserID     *int                   `json:"from_user_id,omitempty" db:"from_user_id"`
	ToUserID       *int                   `json:"to_user_id,omitempty" db:"to_user_id"`
	FromLocationID *int                   `json:"from_location_id,omitempty" db:"from_location_id"`
	ToLocationID   *int                   `json:"to_location_id,omitempty" db:"to_location_id"`
	PerformedBy    int                    `json:"performed_by" db:"performed_by"`
	RequestID      *int                   `json:"request_id,omitempty" db:"request_id"`
	Notes          *string                `json:"notes,omitempty" db:"notes"`
	MetadataRaw    []byte                 `json:"-" db:"metadata"`
	Metadata       map[string]interface{} `json:"metadata,omitempty" db:"-"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`
}

func (m *Movement) LoadFromDB() error {
	if len(m.MetadataRaw) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.MetadataRaw, &m.Metadata); err != nil {
		return fmt.Errorf("failed to unmarshal metadata of movement %d: %w", m.ID, err)
	}
	return nil
}

func (m *Movement) MetadataJSON() ([]byte, error) {
	if m.Metadata == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.Metadata)
}

func (m *Movement) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   m.AssetID,
		ResourceType: "asset",
		UserID:       &m.PerformedBy,
	}
}
