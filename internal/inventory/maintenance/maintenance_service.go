package maintenance

import (
	"context"
	"strings"
	"time"

	"siap/internal/repository"
	"siap/pkg/auditlog"
	custom_error "siap/pkg/errors"
	"siap/pkg/metadata"
	"siap/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type MaintenanceStore interface {
	InsertMaintenance(ctx context.Context, tx *goqu.TxDatabase, record *models.MaintenanceLog) (int, error)
	ListAssetMaintenance(ctx context.Context, assetID int) ([]models.MaintenanceLog, error)
	ListMaintenanceDue(ctx context.Context, before time.Time) ([]models.MaintenanceLog, error)
}

type AssetLocker interface {
	LockAsset(ctx context.Context, tx *goqu.TxDatabase, assetID int) (*models.Asset, error)
}

type AuditLogger interface {
	Log(action string, data interface{}, item auditlog.Auditable)
}

type RecordInput struct {
	Type        string              `json:"maintenance_type" binding:"required"`
	Description string              `json:"description" binding:"required"`
	Vendor      *string             `json:"vendor"`
	Cost        decimal.NullDecimal `json:"cost"`
	PerformedAt *time.Time          `json:"performed_at"`
	NextDueAt   *time.Time          `json:"next_due_at"`
}

// Service keeps the maintenance history of assets. Maintenance is not a custody change,
// so nothing here touches asset state or the movement ledger.
type Service struct {
	tx       repository.Transactor
	store    MaintenanceStore
	assets   AssetLocker
	auditLog AuditLogger
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(tx repository.Transactor, store MaintenanceStore, assets AssetLocker, auditLog AuditLogger, logger *zap.Logger) *Service {
	return &Service{
		tx:       tx,
		store:    store,
		assets:   assets,
		auditLog: auditLog,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Record(ctx context.Context, actor models.Actor, assetID int, input RecordInput) (*models.MaintenanceLog, error) {
	maintenanceType, err := metadata.NewMaintenanceType(input.Type)
	if err != nil {
		return nil, custom_error.NewValidation("maintenance_type", "%s", err.Error())
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, custom_error.NewValidation("description", "is required")
	}
	if input.Cost.Valid && input.Cost.Decimal.IsNegative() {
		return nil, custom_error.NewValidation("cost", "must not be negative")
	}

	performedAt := s.now()
	if input.PerformedAt != nil {
		performedAt = *input.PerformedAt
	}
	if input.NextDueAt != nil && !input.NextDueAt.After(performedAt) {
		return nil, custom_error.NewValidation("next_due_at", "must be after performed_at")
	}

	record := &models.MaintenanceLog{
		AssetID:     assetID,
		Type:        maintenanceType,
		Description: description,
		Vendor:      input.Vendor,
		Cost:        input.Cost,
		PerformedBy: actor.UserID,
		PerformedAt: performedAt,
		NextDueAt:   input.NextDueAt,
	}

	err = s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		asset, err := s.assets.LockAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if asset.Status.IsDecommissioned() {
			return custom_error.NewInvalidTransition("record maintenance", asset.Status.String(),
				metadata.AssetStatusStrings(metadata.ActiveInventoryStatuses())...)
		}

		record.ID, err = s.store.InsertMaintenance(ctx, tx, record)
		return err
	})
	if err != nil {
		return nil, err
	}

	go s.auditLog.Log("maintenance_recorded", *record, record)
	return record, nil
}

func (s *Service) History(ctx context.Context, assetID int) ([]models.MaintenanceLog, error) {
	return s.store.ListAssetMaintenance(ctx, assetID)
}

// Due lists assets whose latest maintenance asks for another visit before the cutoff.
func (s *Service) Due(ctx context.Context, before time.Time) ([]models.MaintenanceLog, error) {
	if before.IsZero() {
		before = s.now()
	}
	return s.store.ListMaintenanceDue(ctx, before)
}
