package reports

import (
	"context"
	"fmt"

	"siap/internal/repository"
	"siap/pkg/metadata"
	"siap/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

type ReportsRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *ReportsRepository {
	return &ReportsRepository{repository: r}
}

type statusCount struct {
	Status metadata.AssetStatus `db:"status"`
	Count  int                  `db:"count"`
}

// CountByStatus counts live assets, optionally at a single location.
func (r *ReportsRepository) CountByStatus(ctx context.Context, locationID *int) (map[metadata.AssetStatus]int, error) {
	query := r.repository.GoquDBWrapper.From("assets").
		Select(goqu.C("status"), goqu.COUNT("*").As("count")).
		Where(goqu.Ex{"deleted_at": nil}).
		GroupBy("status")
	if locationID != nil {
		query = query.Where(goqu.Ex{"location_id": *locationID})
	}

	var rows []statusCount
	if err := query.ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("unable to count assets by status: %w", err)
	}

	counts := make(map[metadata.AssetStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ListValuedAssets returns live assets that carry a purchase price.
func (r *ReportsRepository) ListValuedAssets(ctx context.Context, categoryID *int) ([]models.Asset, error) {
	query := r.repository.GoquDBWrapper.From("assets").
		Where(
			goqu.Ex{"deleted_at": nil},
			goqu.C("purchase_price").IsNotNull(),
			goqu.C("status").In(metadata.AssetStatusStrings(metadata.ActiveInventoryStatuses())),
		).
		Order(goqu.C("tag").Asc())
	if categoryID != nil {
		query = query.Where(goqu.Ex{"category_id": *categoryID})
	}

	var assets []models.Asset
	if err := query.ScanStructsContext(ctx, &assets); err != nil {
		return nil, fmt.Errorf("unable to list valued assets: %w", err)
	}
	return assets, nil
}
