package assets

import (
	"context"
	"fmt"
	"time"

	"siap/internal/repository"
	custom_error "siap/pkg/errors"
	"siap/pkg/metadata"
	"siap/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

type AssetFilter struct {
	Status          string
	CategoryID      *int
	LocationID      *int
	HolderID        *int
	Search          string
	IncludeArchived bool
	Page            repository.Page
}

type AssetsRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AssetsRepository {
	return &AssetsRepository{
		repository: r,
	}
}

func (r *AssetsRepository) WithTransaction(ctx context.Context, fn func(tx *goqu.TxDatabase) error) error {
	return r.repository.WithTransaction(ctx, fn)
}

// LockAsset re-reads a live asset under a row lock. Archived assets are reported as not found.
func (r *AssetsRepository) LockAsset(ctx context.Context, tx *goqu.TxDatabase, assetID int) (*models.Asset, error) {
	query := r.repository.Runner(tx).From("assets").
		Where(goqu.Ex{"id": assetID, "deleted_at": nil}).
		ForUpdate(exp.Wait)

	return r.scanOne(ctx, query, assetID)
}

func (r *AssetsRepository) GetAsset(ctx context.Context, assetID int) (*models.Asset, error) {
	return r.scanOne(ctx, r.repository.GoquDBWrapper.From("assets").Where(goqu.Ex{"id": assetID}), assetID)
}

func (r *AssetsRepository) GetAssetByTag(ctx context.Context, tag string) (*models.Asset, error) {
	return r.scanOne(ctx, r.repository.GoquDBWrapper.From("assets").Where(goqu.Ex{"tag": tag}), tag)
}

// FindAssetByTag resolves a scanned tag to a live asset inside tx.
func (r *AssetsRepository) FindAssetByTag(ctx context.Context, tx *goqu.TxDatabase, tag string) (*models.Asset, error) {
	query := r.repository.Runner(tx).From("assets").
		Where(goqu.Ex{"tag": tag, "deleted_at": nil})

	return r.scanOne(ctx, query, tag)
}

func (r *AssetsRepository) ListAssetsAtLocation(ctx context.Context, tx *goqu.TxDatabase, locationID int, statuses []metadata.AssetStatus) ([]models.Asset, error) {
	query := r.repository.Runner(tx).From("assets").
		Where(goqu.Ex{
			"location_id": locationID,
			"status":      metadata.AssetStatusStrings(statuses),
			"deleted_at":  nil,
		}).
		Order(goqu.C("id").Asc())

	return r.scanMany(ctx, query)
}

func (r *AssetsRepository) ListAssets(ctx context.Context, filter AssetFilter) ([]models.Asset, error) {
	conditions := repository.NewQueryBuilder()
	conditions.AddCondition("status", filter.Status)
	conditions.AddCondition("category_id", filter.CategoryID)
	conditions.AddCondition("location_id", filter.LocationID)
	conditions.AddCondition("current_user_id", filter.HolderID)

	query := r.repository.GoquDBWrapper.From("assets").
		Where(conditions.BuildConditions(nil)).
		Order(goqu.C("id").Asc())

	if !filter.IncludeArchived {
		query = query.Where(goqu.C("deleted_at").IsNull())
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(goqu.Or(
			goqu.C("tag").ILike(pattern),
			goqu.C("name").ILike(pattern),
			goqu.C("serial").ILike(pattern),
		))
	}

	return r.scanMany(ctx, filter.Page.Apply(query))
}

func (r *AssetsRepository) InsertAsset(ctx context.Context, tx *goqu.TxDatabase, asset *models.Asset) (int, error) {
	specification, err := asset.SpecificationJSON()
	if err != nil {
		return 0, fmt.Errorf("failed to encode specification: %w", err)
	}

	record := goqu.Record{
		"tag":               asset.Tag,
		"name":              asset.Name,
		"category_id":       asset.CategoryID,
		"status":            asset.Status,
		"current_user_id":   asset.HolderID,
		"location_id":       asset.LocationID,
		"brand":             asset.Brand,
		"model":             asset.Model,
		"serial":            asset.Serial,
		"purchase_date":     asset.PurchaseDate,
		"purchase_price":    asset.PurchasePrice,
		"warranty_end":      asset.WarrantyEnd,
		"useful_life_years": asset.UsefulLifeYears,
		"residual_value":    asset.ResidualValue,
		"specification":     string(specification),
	}

	var assetID int
	query := r.repository.Runner(tx).Insert("assets").Rows(record).Returning("id")
	if _, err := query.Executor().ScanValContext(ctx, &assetID); err != nil {
		return 0, custom_error.FromPQ(err, fmt.Sprintf("failed to insert asset %s", asset.Tag))
	}

	return assetID, nil
}

// UpdateAssetState writes the custody columns. Only the movement service calls it.
func (r *AssetsRepository) UpdateAssetState(ctx context.Context, tx *goqu.TxDatabase, assetID int, state models.AssetState) error {
	query := r.repository.Runner(tx).Update("assets").
		Set(goqu.Record{
			"status":          state.Status,
			"current_user_id": state.HolderID,
			"location_id":     state.LocationID,
			"updated_at":      goqu.L("NOW()"),
		}).
		Where(goqu.Ex{"id": assetID})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		return custom_error.FromPQ(err, fmt.Sprintf("failed to update state of asset %d", assetID))
	}
	return nil
}

func (r *AssetsRepository) UpdateAssetDetails(ctx context.Context, tx *goqu.TxDatabase, asset *models.Asset) error {
	specification, err := asset.SpecificationJSON()
	if err != nil {
		return fmt.Errorf("failed to encode specification: %w", err)
	}

	query := r.repository.Runner(tx).Update("assets").
		Set(goqu.Record{
			"name":              asset.Name,
			"category_id":       asset.CategoryID,
			"brand":             asset.Brand,
			"model":             asset.Model,
			"serial":            asset.Serial,
			"purchase_date":     asset.PurchaseDate,
			"purchase_price":    asset.PurchasePrice,
			"warranty_end":      asset.WarrantyEnd,
			"useful_life_years": asset.UsefulLifeYears,
			"residual_value":    asset.ResidualValue,
			"specification":     string(specification),
			"updated_at":        goqu.L("NOW()"),
		}).
		Where(goqu.Ex{"id": asset.ID})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		return custom_error.FromPQ(err, fmt.Sprintf("failed to update asset %d", asset.ID))
	}
	return nil
}

func (r *AssetsRepository) ArchiveAsset(ctx context.Context, tx *goqu.TxDatabase, assetID int, at time.Time) error {
	query := r.repository.Runner(tx).Update("assets").
		Set(goqu.Record{"deleted_at": at, "updated_at": at}).
		Where(goqu.Ex{"id": assetID, "deleted_at": nil})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to archive asset %d: %w", assetID, err)
	}
	return nil
}

func (r *AssetsRepository) scanOne(ctx context.Context, query *goqu.SelectDataset, key interface{}) (*models.Asset, error) {
	var asset models.Asset
	found, err := query.ScanStructContext(ctx, &asset)
	if err != nil {
		return nil, fmt.Errorf("unable to select asset %v: %w", key, err)
	}
	if !found {
		return nil, custom_error.NewNotFound("asset", key)
	}
	if err := asset.LoadFromDB(); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *AssetsRepository) scanMany(ctx context.Context, query *goqu.SelectDataset) ([]models.Asset, error) {
	var assets []models.Asset
	if err := query.ScanStructsContext(ctx, &assets); err != nil {
		return nil, fmt.Errorf("unable to select assets from database: %w", err)
	}
	for i := range assets {
		if err := assets[i].LoadFromDB(); err != nil {
			return nil, err
		}
	}
	return assets, nil
}
