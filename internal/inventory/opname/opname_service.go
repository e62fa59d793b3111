package opname

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
	"go.uber.org/zap"
)

type OpnameStore interface {
	NextOpnameSequence(ctx context.Context, tx *goqu.TxDatabase, year int) (int, error)
	InsertOpname(ctx context.Context, tx *goqu.TxDatabase, opname *models.StockOpname) (int, error)
	InsertOpnameDetails(ctx context.Context, tx *goqu.TxDatabase, details []models.StockOpnameDetail) error
	LockOpname(ctx context.Context, tx *goqu.TxDatabase, opnameID int) (*models.StockOpname, error)
	GetOpname(ctx context.Context, opnameID int) (*models.StockOpname, error)
	ListOpnames(ctx context.Context, locationID *int, limit int, offset int) ([]models.StockOpname, error)
	UpdateOpname(ctx context.Context, tx *goqu.TxDatabase, opname *models.StockOpname) error
	LockOpnameDetail(ctx context.Context, tx *goqu.TxDatabase, opnameID int, assetID int) (*models.StockOpnameDetail, error)
	UpdateOpnameDetail(ctx context.Context, tx *goqu.TxDatabase, detail *models.StockOpnameDetail) error
	GetOpnameDetails(ctx context.Context, tx *goqu.TxDatabase, opnameID int) ([]models.StockOpnameDetail, error)
}

type AssetLookup interface {
	FindAssetByTag(ctx context.Context, tx *goqu.TxDatabase, tag string) (*models.Asset, error)
	ListAssetsAtLocation(ctx context.Context, tx *goqu.TxDatabase, locationID int, statuses []metadata.AssetStatus) ([]models.Asset, error)
}

type AuditLogger interface {
	Log(action string, data interface{}, item auditlog.Auditable)
}

type Service struct {
	tx       repository.Transactor
	store    OpnameStore
	assets   AssetLookup
	auditLog AuditLogger
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(tx repository.Transactor, store OpnameStore, assets AssetLookup, auditLog AuditLogger, logger *zap.Logger) *Service {
	return &Service{
		tx:       tx,
		store:    store,
		assets:   assets,
		auditLog: auditLog,
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens a session and snapshots every asset expected at the location as missing.
// The snapshot is taken in the same transaction so it reflects one consistent moment.
func (s *Service) Create(ctx context.Context, actor models.Actor, locationID int, notes *string) (*models.StockOpname, error) {
	if locationID <= 0 {
		return nil, custom_error.NewValidation("location_id", "is required")
	}

	opname := &models.StockOpname{
		LocationID: locationID,
		Status:     metadata.OpnameDraft,
		Notes:      notes,
		CreatedBy:  actor.UserID,
	}

	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		year := s.now().Year()
		sequence, err := s.store.NextOpnameSequence(ctx, tx, year)
		if err != nil {
			return err
		}
		opname.Number = metadata.NewOpnameNumber(year, sequence).Generate()

		if opname.ID, err = s.store.InsertOpname(ctx, tx, opname); err != nil {
			return err
		}

		expected, err := s.assets.ListAssetsAtLocation(ctx, tx, locationID, metadata.ExpectedOnSiteStatuses())
		if err != nil {
			return err
		}

		details := make([]models.StockOpnameDetail, 0, len(expected))
		for _, asset := range expected {
			details = append(details, models.StockOpnameDetail{
				OpnameID: opname.ID,
				AssetID:  asset.ID,
				Status:   metadata.DetailMissing,
			})
		}
		if err := s.store.InsertOpnameDetails(ctx, tx, details); err != nil {
			return err
		}

		opname.Details, err = s.store.GetOpnameDetails(ctx, tx, opname.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock opname created",
		zap.String("number", opname.Number),
		zap.Int("location_id", locationID),
		zap.Int("expected_assets", len(opname.Details)))
	return opname, nil
}

func (s *Service) Start(ctx context.Context, actor models.Actor, opnameID int) (*models.StockOpname, error) {
	return s.transition(ctx, opnameID, "start", func(opname *models.StockOpname) error {
		if !opname.Status.CanStart() {
			return custom_error.NewInvalidTransition("start", opname.Status.String(), metadata.OpnameDraft.String())
		}
		now := s.now()
		opname.Status = metadata.OpnameInProgress
		opname.StartedAt = &now
		return nil
	})
}

// Finalize completes the session. Rows nobody scanned stay missing; no asset state is changed.
func (s *Service) Finalize(ctx context.Context, actor models.Actor, opnameID int) (*models.StockOpname, error) {
	opname, err := s.transition(ctx, opnameID, "finalize", func(opname *models.StockOpname) error {
		if !opname.Status.CanFinalize() {
			return custom_error.NewInvalidTransition("finalize", opname.Status.String(),
				metadata.OpnameDraft.String(), metadata.OpnameInProgress.String())
		}
		now := s.now()
		opname.Status = metadata.OpnameCompleted
		opname.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary := models.SummarizeDetails(opname.Details)
	go s.auditLog.Log("opname_completed", summary, opname)
	return opname, nil
}

func (s *Service) Cancel(ctx context.Context, actor models.Actor, opnameID int) (*models.StockOpname, error) {
	return s.transition(ctx, opnameID, "cancel", func(opname *models.StockOpname) error {
		if !opname.Status.CanCancel() {
			return custom_error.NewInvalidTransition("cancel", opname.Status.String(),
				metadata.OpnameDraft.String(), metadata.OpnameInProgress.String())
		}
		opname.Status = metadata.OpnameCancelled
		return nil
	})
}

func (s *Service) transition(ctx context.Context, opnameID int, action string, apply func(opname *models.StockOpname) error) (*models.StockOpname, error) {
	var updated *models.StockOpname
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		opname, err := s.store.LockOpname(ctx, tx, opnameID)
		if err != nil {
			return err
		}
		if err := apply(opname); err != nil {
			return err
		}
		if err := s.store.UpdateOpname(ctx, tx, opname); err != nil {
			return err
		}

		opname.Details, err = s.store.GetOpnameDetails(ctx, tx, opnameID)
		updated = opname
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Stock opname updated",
		zap.String("action", action),
		zap.String("number", updated.Number),
		zap.String("status", updated.Status.String()))
	return updated, nil
}

// Scan records that the tagged asset was seen. An expected asset flips to found, an asset
// that was not in the snapshot gets an unlisted row. Rescans keep the row and its status
// and only move the scan stamp forward.
func (s *Service) Scan(ctx context.Context, actor models.Actor, opnameID int, tag string) (*models.StockOpnameDetail, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, custom_error.NewValidation("tag", "is required")
	}

	var scanned *models.StockOpnameDetail
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		opname, err := s.store.LockOpname(ctx, tx, opnameID)
		if err != nil {
			return err
		}
		if !opname.Status.CanScan() {
			return custom_error.NewInvalidTransition("scan", opname.Status.String(), metadata.OpnameInProgress.String())
		}

		asset, err := s.assets.FindAssetByTag(ctx, tx, tag)
		if err != nil {
			return err
		}

		now := s.now()
		scannedBy := actor.UserID

		detail, err := s.store.LockOpnameDetail(ctx, tx, opnameID, asset.ID)
		if err != nil {
			return err
		}

		if detail == nil {
			unlisted := models.StockOpnameDetail{
				OpnameID:  opnameID,
				AssetID:   asset.ID,
				Status:    metadata.DetailUnlisted,
				ScannedAt: &now,
				ScannedBy: &scannedBy,
			}
			if err := s.store.InsertOpnameDetails(ctx, tx, []models.StockOpnameDetail{unlisted}); err != nil {
				return err
			}
			scanned, err = s.store.LockOpnameDetail(ctx, tx, opnameID, asset.ID)
			return err
		}

		if detail.Status == metadata.DetailMissing {
			detail.Status = metadata.DetailFound
		}
		detail.ScannedAt = &now
		detail.ScannedBy = &scannedBy
		if err := s.store.UpdateOpnameDetail(ctx, tx, detail); err != nil {
			return err
		}
		scanned = detail
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scanned, nil
}

func (s *Service) Get(ctx context.Context, opnameID int) (*models.StockOpname, error) {
	opname, err := s.store.GetOpname(ctx, opnameID)
	if err != nil {
		return nil, err
	}
	if opname.Details, err = s.store.GetOpnameDetails(ctx, nil, opnameID); err != nil {
		return nil, err
	}
	return opname, nil
}

func (s *Service) List(ctx context.Context, locationID *int, limit int, offset int) ([]models.StockOpname, error) {
	return s.store.ListOpnames(ctx, locationID, limit, offset)
}

func (s *Service) Summary(ctx context.Context, opnameID int) (models.OpnameSummary, error) {
	if _, err := s.store.GetOpname(ctx, opnameID); err != nil {
		return models.OpnameSummary{}, err
	}
	details, err := s.store.GetOpnameDetails(ctx, nil, opnameID)
	if err != nil {
		return models.OpnameSummary{}, err
	}
	return models.SummarizeDetails(details), nil
}
