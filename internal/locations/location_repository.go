package locations

import (
	"context"
	"fmt"

	"siap/internal/repository"
	custom_error "siap/pkg/errors"
	"siap/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

type LocationRepository struct {
	Repository *repository.Repository
}

func NewLocationRepository(r *repository.Repository) *LocationRepository {
	return &LocationRepository{Repository: r}
}

func (r *LocationRepository) GetLocations(ctx context.Context) ([]models.Location, error) {
	locations := []models.Location{}
	query := r.Repository.GoquDBWrapper.From("locations").
		Select("id", "name", "building", "details").
		Order(goqu.C("name").Asc())
	if err := query.ScanStructsContext(ctx, &locations); err != nil {
		return nil, fmt.Errorf("unable to execute SQL: %w", err)
	}

	return locations, nil
}

func (r *LocationRepository) GetLocation(ctx context.Context, locationID int) (*models.Location, error) {
	var location models.Location
	found, err := r.Repository.GoquDBWrapper.From("locations").
		Select("id", "name", "building", "details").
		Where(goqu.Ex{"id": locationID}).
		ScanStructContext(ctx, &location)
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("location", locationID)
	}
	return &location, nil
}

func (r *LocationRepository) PersistLocation(ctx context.Context, location *models.Location) error {
	query := r.Repository.GoquDBWrapper.Insert("locations").
		Rows(goqu.Record{
			"name":     location.Name,
			"building": location.Building,
			"details":  location.Details,
		}).
		Returning("id")

	if _, err := query.Executor().ScanValContext(ctx, &location.ID); err != nil {
		return custom_error.FromPQ(err, fmt.Sprintf("location %s already exists", location.Name))
	}

	return nil
}

func (r *LocationRepository) UpdateLocation(ctx context.Context, locationID int, req UpdateLocationRequest) (*models.Location, error) {
	updates := goqu.Record{}

	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Building != nil {
		updates["building"] = *req.Building
	}
	if req.Details != nil {
		updates["details"] = *req.Details
	}
	if len(updates) == 0 {
		return nil, custom_error.NewValidation("body", "no fields to update")
	}

	query := r.Repository.GoquDBWrapper.
		Update("locations").
		Set(updates).
		Where(goqu.Ex{"id": locationID}).
		Returning("id", "name", "building", "details")

	var loc models.Location
	found, err := query.Executor().ScanStructContext(ctx, &loc)
	if err != nil {
		return nil, custom_error.FromPQ(err, "failed to update location")
	}
	if !found {
		return nil, custom_error.NewNotFound("location", locationID)
	}

	return &loc, nil
}

// RemoveLocation fails with a foreign key violation while assets still point at it.
func (r *LocationRepository) RemoveLocation(ctx context.Context, locationID int) error {
	result, err := r.Repository.GoquDBWrapper.Delete("locations").
		Where(goqu.Ex{"id": locationID}).
		Executor().ExecContext(ctx)
	if err != nil {
		return custom_error.FromPQ(err, fmt.Sprintf("location %d is still referenced", locationID))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not retrieve rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return custom_error.NewNotFound("location", locationID)
	}

	return nil
}

func (r *LocationRepository) GetCategories(ctx context.Context) ([]models.AssetCategory, error) {
	categories := []models.AssetCategory{}
	query := r.Repository.GoquDBWrapper.From("asset_categories").
		Select("id", "code", "label").
		Order(goqu.C("label").Asc())
	if err := query.ScanStructsContext(ctx, &categories); err != nil {
		return nil, fmt.Errorf("unable to list categories: %w", err)
	}
	return categories, nil
}

func (r *LocationRepository) PersistCategory(ctx context.Context, category *models.AssetCategory) error {
	query := r.Repository.GoquDBWrapper.Insert("asset_categories").
		Rows(goqu.Record{
			"code":  category.Code,
			"label": category.Label,
		}).
		Returning("id")

	if _, err := query.Executor().ScanValContext(ctx, &category.ID); err != nil {
		return custom_error.FromPQ(err, fmt.Sprintf("category %s already exists", category.Code))
	}
	return nil
}
