package models

import (
	"encoding/json"
	"fmt"
	"time"

	"siap/pkg/metadata"

	"github.com/shopspring/decimal"
)

type Asset struct {
	ID               int                    `json:"id" db:"id"`
	Tag              string                 `json:"tag" db:"tag"`
	Name             string                 `json:"name" db:"name"`
	CategoryID       *int                   `json:"category_id,omitempty" db:"category_id"`
	Status           metadata.AssetStatus   `json:"status" db:"status"`
	HolderID         *int                   `json:"current_user_id,omitempty" db:"current_user_id"`
	LocationID       *int                   `json:"location_id,omitempty" db:"location_id"`
	Brand            *string                `json:"brand,omitempty" db:"brand"`
	Model            *string                `json:"model,omitempty" db:"model"`
	Serial           *string                `json:"serial,omitempty" db:"serial"`
	PurchaseDate     *time.Time             `json:"purchase_date,omitempty" db:"purchase_date"`
	PurchasePrice    decimal.NullDecimal    `json:"purchase_price" db:"purchase_price"`
	WarrantyEnd      *time.Time             `json:"warranty_end,omitempty" db:"warranty_end"`
	UsefulLifeYears  *int                   `json:"useful_life_years,omitempty" db:"useful_life_years"`
	ResidualValue    decimal.NullDecimal    `json:"residual_value" db:"residual_value"`
	SpecificationRaw []byte                 `json:"-" db:"specification"`
	Specification    map[string]interface{} `json:"specification,omitempty" db:"-"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at" db:"updated_at"`
	DeletedAt        *time.Time             `json:"deleted_at,omitempty" db:"deleted_at"`
}

// AssetState is the custody part of an asset; only the movement service writes it.
type AssetState struct {
	Status     metadata.AssetStatus
	HolderID   *int
	LocationID *int
}

func (a *Asset) State() AssetState {
	return AssetState{
		Status:     a.Status,
		HolderID:   a.HolderID,
		LocationID: a.LocationID,
	}
}

func (a *Asset) ApplyState(state AssetState) {
	a.Status = state.Status
	a.HolderID = state.HolderID
	a.LocationID = state.LocationID
}

func (a *Asset) IsArchived() bool {
	return a.DeletedAt != nil
}

func (a *Asset) LoadFromDB() error {
	if len(a.SpecificationRaw) == 0 {
		return nil
	}
	if err := json.Unmarshal(a.SpecificationRaw, &a.Specification); err != nil {
		return fmt.Errorf("failed to unmarshal specification of asset %d: %w", a.ID, err)
	}
	return nil
}

func (a *Asset) SpecificationJSON() ([]byte, error) {
	if a.Specification == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a.Specification)
}

// BookValue depreciates the purchase price down to the residual value on a straight line
// over the useful life, measured in whole months since purchase.
func (a *Asset) BookValue(at time.Time) (decimal.Decimal, bool) {
	if !a.PurchasePrice.Valid || a.PurchaseDate == nil || a.UsefulLifeYears == nil || *a.UsefulLifeYears <= 0 {
		return decimal.Zero, false
	}

	residual := decimal.Zero
	if a.ResidualValue.Valid {
		residual = a.ResidualValue.Decimal
	}

	lifeMonths := int64(*a.UsefulLifeYears * 12)
	elapsed := monthsBetween(*a.PurchaseDate, at)
	if elapsed <= 0 {
		return a.PurchasePrice.Decimal, true
	}
	if elapsed >= lifeMonths {
		return residual, true
	}

	depreciable := a.PurchasePrice.Decimal.Sub(residual)
	consumed := depreciable.Mul(decimal.NewFromInt(elapsed)).Div(decimal.NewFromInt(lifeMonths))

	return a.PurchasePrice.Decimal.Sub(consumed).Round(2), true
}

func monthsBetween(from, to time.Time) int64 {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return int64(months)
}

func (a *Asset) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   a.ID,
		ResourceType: "asset",
	}
}

// AssetDetails carries the non-custody fields accepted on create and update.
type AssetDetails struct {
	Name            *string                `json:"name"`
	CategoryID      *int                   `json:"category_id"`
	Brand           *string                `json:"brand"`
	Model           *string                `json:"model"`
	Serial          *string                `json:"serial"`
	PurchaseDate    *time.Time             `json:"purchase_date"`
	PurchasePrice   *decimal.Decimal       `json:"purchase_price"`
	WarrantyEnd     *time.Time             `json:"warranty_end"`
	UsefulLifeYears *int                   `json:"useful_life_years"`
	ResidualValue   *decimal.Decimal       `json:"residual_value"`
	Specification   map[string]interface{} `json:"specification"`
}

// Apply copies every set field onto the asset and returns the names of the changed fields.
func (d AssetDetails) Apply(a *Asset) []string {
	var changed []string
	if d.Name != nil && *d.Name != a.Name {
		a.Name = *d.Name
		changed = append(changed, "name")
	}
	if d.CategoryID != nil {
		a.CategoryID = d.CategoryID
		changed = append(changed, "category_id")
	}
	if d.Brand != nil {
		a.Brand = d.Brand
		changed = append(changed, "brand")
	}
	if d.Model != nil {
		a.Model = d.Model
		changed = append(changed, "model")
	}
	if d.Serial != nil {
		a.Serial = d.Serial
		changed = append(changed, "serial")
	}
	if d.PurchaseDate != nil {
		a.PurchaseDate = d.PurchaseDate
		changed = append(changed, "purchase_date")
	}
	if d.PurchasePrice != nil {
		a.PurchasePrice = decimal.NewNullDecimal(*d.PurchasePrice)
		changed = append(changed, "purchase_price")
	}
	if d.WarrantyEnd != nil {
		a.WarrantyEnd = d.WarrantyEnd
		changed = append(changed, "warranty_end")
	}
	if d.UsefulLifeYears != nil {
		a.UsefulLifeYears = d.UsefulLifeYears
		changed = append(changed, "useful_life_years")
	}
	if d.ResidualValue != nil {
		a.ResidualValue = decimal.NewNullDecimal(*d.ResidualValue)
		changed = append(changed, "residual_value")
	}
	if d.Specification != nil {
		a.Specification = d.Specification
		changed = append(changed, "specification")
	}
	return changed
}
