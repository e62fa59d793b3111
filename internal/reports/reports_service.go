package reports

import (
	"context"
	"time"

	"siap/pkg/metadata"
	"siap/pkg/models"

	"github.com/shopspring/decimal"
)

type ReportStore interface {
	CountByStatus(ctx context.Context, locationID *int) (map[metadata.AssetStatus]int, error)
	ListValuedAssets(ctx context.Context, categoryID *int) ([]models.Asset, error)
}

type StatusCount struct {
	Status metadata.AssetStatus `json:"status"`
	Label  string               `json:"label"`
	Count  int                  `json:"count"`
}

type InventorySummary struct {
	Total    int           `json:"total"`
	Active   int           `json:"active"`
	ByStatus []StatusCount `json:"by_status"`
}

type BookValue struct {
	AssetID       int             `json:"asset_id"`
	Tag           string          `json:"tag"`
	Name          string          `json:"name"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	BookValue     decimal.Decimal `json:"book_value"`
	Depreciated   bool            `json:"fully_depreciated"`
}

type BookValueReport struct {
	AsOf          time.Time       `json:"as_of"`
	Assets        []BookValue     `json:"assets"`
	TotalPurchase decimal.Decimal `json:"total_purchase"`
	TotalBook     decimal.Decimal `json:"total_book_value"`
	Unvalued      []string        `json:"unvalued,omitempty"`
}

type Service struct {
	store ReportStore
	now   func() time.Time
}

func NewService(store ReportStore) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) Summary(ctx context.Context, locationID *int) (*InventorySummary, error) {
	counts, err := s.store.CountByStatus(ctx, locationID)
	if err != nil {
		return nil, err
	}

	summary := &InventorySummary{ByStatus: make([]StatusCount, 0, len(metadata.AssetStatuses()))}
	for _, status := range metadata.AssetStatuses() {
		count := counts[status]
		summary.ByStatus = append(summary.ByStatus, StatusCount{Status: status, Label: status.Label(), Count: count})
		summary.Total += count
		if !status.IsDecommissioned() {
			summary.Active += count
		}
	}
	return summary, nil
}

// BookValues values every priced asset at asOf, defaulting to today. Assets missing a
// purchase date or useful life are listed as unvalued.
func (s *Service) BookValues(ctx context.Context, categoryID *int, asOf time.Time) (*BookValueReport, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}

	assets, err := s.store.ListValuedAssets(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	report := &BookValueReport{
		AsOf:          asOf,
		Assets:        []BookValue{},
		TotalPurchase: decimal.Zero,
		TotalBook:     decimal.Zero,
	}
	for i := range assets {
		asset := &assets[i]
		value, ok := asset.BookValue(asOf)
		if !ok {
			report.Unvalued = append(report.Unvalued, asset.Tag)
			continue
		}

		residual := decimal.Zero
		if asset.ResidualValue.Valid {
			residual = asset.ResidualValue.Decimal
		}
		report.Assets = append(report.Assets, BookValue{
			AssetID:       asset.ID,
			Tag:           asset.Tag,
			Name:          asset.Name,
			PurchasePrice: asset.PurchasePrice.Decimal,
			BookValue:     value,
			Depreciated:   value.Equal(residual),
		})
		report.TotalPurchase = report.TotalPurchase.Add(asset.PurchasePrice.Decimal)
		report.TotalBook = report.TotalBook.Add(value)
	}
	return report, nil
}
