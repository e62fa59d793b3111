package maintenance

import (
	"context"
	"fmt"
	"time"

	"siap/internal/repository"
	custom_error "siap/pkg/errors"
	"siap/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

type MaintenanceRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *MaintenanceRepository {
	return &MaintenanceRepository{repository: r}
}

func (r *MaintenanceRepository) InsertMaintenance(ctx context.Context, tx *goqu.TxDatabase, record *models.MaintenanceLog) (int, error) {
	query := r.repository.Runner(tx).Insert("maintenance_logs").
		Rows(goqu.Record{
			"asset_id":         record.AssetID,
			"maintenance_type": record.Type,
			"description":      record.Description,
			"vendor":           record.Vendor,
			"cost":             record.Cost,
			"performed_by":     record.PerformedBy,
			"performed_at":     record.PerformedAt,
			"next_due_at":      record.NextDueAt,
		}).
		Returning("id")

	var id int
	if _, err := query.Executor().ScanValContext(ctx, &id); err != nil {
		return 0, custom_error.FromPQ(err, fmt.Sprintf("failed to record maintenance of asset %d", record.AssetID))
	}
	return id, nil
}

func (r *MaintenanceRepository) ListAssetMaintenance(ctx context.Context, assetID int) ([]models.MaintenanceLog, error) {
	var records []models.MaintenanceLog
	query := r.repository.GoquDBWrapper.From("maintenance_logs").
		Where(goqu.Ex{"asset_id": assetID}).
		Order(goqu.C("performed_at").Desc(), goqu.C("id").Desc())

	if err := query.ScanStructsContext(ctx, &records); err != nil {
		return nil, fmt.Errorf("unable to list maintenance of asset %d: %w", assetID, err)
	}
	return records, nil
}

// ListMaintenanceDue looks only at the latest record of each live asset.
func (r *MaintenanceRepository) ListMaintenanceDue(ctx context.Context, before time.Time) ([]models.MaintenanceLog, error) {
	db := r.repository.GoquDBWrapper

	latest := db.From(goqu.T("maintenance_logs").As("m")).
		Join(goqu.T("assets").As("a"), goqu.On(goqu.Ex{"a.id": goqu.I("m.asset_id")})).
		Select(goqu.T("m").All()).
		Distinct(goqu.I("m.asset_id")).
		Where(goqu.Ex{"a.deleted_at": nil}).
		Order(goqu.I("m.asset_id").Asc(), goqu.I("m.performed_at").Desc(), goqu.I("m.id").Desc())

	query := db.From(latest.As("latest")).
		Where(goqu.C("next_due_at").Lt(before)).
		Order(goqu.C("next_due_at").Asc())

	var records []models.MaintenanceLog
	if err := query.ScanStructsContext(ctx, &records); err != nil {
		return nil, fmt.Errorf("unable to list maintenance due before %s: %w", before.Format(time.DateOnly), err)
	}
	return records, nil
}
