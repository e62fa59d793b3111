package opname

import (
	"context"
	"fmt"

	"siap/internal/repository"
	custom_error "siap/pkg/errors"
	"siap/pkg/metadata"
	"siap/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

const opnameNumberLockKey int64 = 0x4f504e0000

type OpnameRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *OpnameRepository {
	return &OpnameRepository{repository: r}
}

func (r *OpnameRepository) WithTransaction(ctx context.Context, fn func(tx *goqu.TxDatabase) error) error {
	return r.repository.WithTransaction(ctx, fn)
}

func (r *OpnameRepository) NextOpnameSequence(ctx context.Context, tx *goqu.TxDatabase, year int) (int, error) {
	if err := repository.AdvisoryLock(ctx, tx, opnameNumberLockKey+int64(year)); err != nil {
		return 0, err
	}

	var highest int
	query := r.repository.Runner(tx).From("stock_opnames").
		Select(goqu.COALESCE(goqu.MAX(goqu.L("CAST(SPLIT_PART(opname_number, '-', 3) AS INTEGER)")), 0)).
		Where(goqu.C("opname_number").Like(metadata.YearPattern(metadata.OpnameNumberPrefix, year)))

	if _, err := query.ScanValContext(ctx, &highest); err != nil {
		return 0, fmt.Errorf("unable to read opname sequence for %d: %w", year, err)
	}
	return highest + 1, nil
}

func (r *OpnameRepository) InsertOpname(ctx context.Context, tx *goqu.TxDatabase, opname *models.StockOpname) (int, error) {
	query := r.repository.Runner(tx).Insert("stock_opnames").
		Rows(goqu.Record{
			"opname_number": opname.Number,
			"location_id":   opname.LocationID,
			"status":        opname.Status,
			"notes":         opname.Notes,
			"created_by":    opname.CreatedBy,
		}).
		Returning("id")

	var id int
	if _, err := query.Executor().ScanValContext(ctx, &id); err != nil {
		return 0, custom_error.FromPQ(err, fmt.Sprintf("failed to insert stock opname %s", opname.Number))
	}
	return id, nil
}

func (r *OpnameRepository) InsertOpnameDetails(ctx context.Context, tx *goqu.TxDatabase, details []models.StockOpnameDetail) error {
	if len(details) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(details))
	for _, d := range details {
		rows = append(rows, goqu.Record{
			"opname_id":  d.OpnameID,
			"asset_id":   d.AssetID,
			"status":     d.Status,
			"scanned_at": d.ScannedAt,
			"scanned_by": d.ScannedBy,
			"notes":      d.Notes,
		})
	}

	if _, err := r.repository.Runner(tx).Insert("stock_opname_details").Rows(rows...).Executor().ExecContext(ctx); err != nil {
		return custom_error.FromPQ(err, "failed to insert stock opname details")
	}
	return nil
}

func (r *OpnameRepository) LockOpname(ctx context.Context, tx *goqu.TxDatabase, opnameID int) (*models.StockOpname, error) {
	var opname models.StockOpname
	found, err := r.repository.Runner(tx).From("stock_opnames").
		Where(goqu.Ex{"id": opnameID}).
		ForUpdate(exp.Wait).
		ScanStructContext(ctx, &opname)
	if err != nil {
		return nil, fmt.Errorf("unable to select stock opname %d: %w", opnameID, err)
	}
	if !found {
		return nil, custom_error.NewNotFound("stock opname", opnameID)
	}
	return &opname, nil
}

func (r *OpnameRepository) GetOpname(ctx context.Context, opnameID int) (*models.StockOpname, error) {
	var opname models.StockOpname
	found, err := r.repository.GoquDBWrapper.From("stock_opnames").
		Where(goqu.Ex{"id": opnameID}).
		ScanStructContext(ctx, &opname)
	if err != nil {
		return nil, fmt.Errorf("unable to select stock opname %d: %w", opnameID, err)
	}
	if !found {
		return nil, custom_error.NewNotFound("stock opname", opnameID)
	}
	return &opname, nil
}

func (r *OpnameRepository) ListOpnames(ctx context.Context, locationID *int, limit int, offset int) ([]models.StockOpname, error) {
	conditions := repository.NewQueryBuilder()
	conditions.AddCondition("location_id", locationID)

	query := r.repository.GoquDBWrapper.From("stock_opnames").
		Where(conditions.BuildConditions(nil)).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc())

	var opnames []models.StockOpname
	if err := repository.NewPage(limit, offset).Apply(query).ScanStructsContext(ctx, &opnames); err != nil {
		return nil, fmt.Errorf("unable to list stock opnames: %w", err)
	}
	return opnames, nil
}

func (r *OpnameRepository) UpdateOpname(ctx context.Context, tx *goqu.TxDatabase, opname *models.StockOpname) error {
	query := r.repository.Runner(tx).Update("stock_opnames").
		Set(goqu.Record{
			"status":       opname.Status,
			"notes":        opname.Notes,
			"started_at":   opname.StartedAt,
			"completed_at": opname.CompletedAt,
		}).
		Where(goqu.Ex{"id": opname.ID})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to update stock opname %d: %w", opname.ID, err)
	}
	return nil
}

// LockOpnameDetail returns nil without error when the asset is not part of the session.
func (r *OpnameRepository) LockOpnameDetail(ctx context.Context, tx *goqu.TxDatabase, opnameID int, assetID int) (*models.StockOpnameDetail, error) {
	var detail models.StockOpnameDetail
	found, err := r.repository.Runner(tx).From("stock_opname_details").
		Where(goqu.Ex{"opname_id": opnameID, "asset_id": assetID}).
		ForUpdate(exp.Wait).
		ScanStructContext(ctx, &detail)
	if err != nil {
		return nil, fmt.Errorf("unable to select opname detail for asset %d: %w", assetID, err)
	}
	if !found {
		return nil, nil
	}
	return &detail, nil
}

func (r *OpnameRepository) UpdateOpnameDetail(ctx context.Context, tx *goqu.TxDatabase, detail *models.StockOpnameDetail) error {
	query := r.repository.Runner(tx).Update("stock_opname_details").
		Set(goqu.Record{
			"status":     detail.Status,
			"scanned_at": detail.ScannedAt,
			"scanned_by": detail.ScannedBy,
			"notes":      detail.Notes,
		}).
		Where(goqu.Ex{"id": detail.ID})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to update opname detail %d: %w", detail.ID, err)
	}
	return nil
}

func (r *OpnameRepository) GetOpnameDetails(ctx context.Context, tx *goqu.TxDatabase, opnameID int) ([]models.StockOpnameDetail, error) {
	var details []models.StockOpnameDetail
	query := r.repository.Runner(tx).From("stock_opname_details").
		Where(goqu.Ex{"opname_id": opnameID}).
		Order(goqu.C("id").Asc())

	if err := query.ScanStructsContext(ctx, &details); err != nil {
		return nil, fmt.Errorf("unable to select details of stock opname %d: %w", opnameID, err)
	}
	return details, nil
}
