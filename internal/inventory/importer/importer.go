// Package importer registers assets in bulk from a CSV sheet. Every row goes through the
// movement service on its own, so a bad row never blocks the rest of the sheet.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"siap/internal/inventory/movements"
	"siap/pkg/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AssetCreator interface {
	Create(ctx context.Context, asset models.Asset, performedBy int) (*movements.Result, error)
}

type RowError struct {
	Line    int    `json:"line"`
	Tag     string `json:"tag,omitempty"`
	Message string `json:"message"`
}

type Report struct {
	BatchID  string     `json:"batch_id"`
	Imported int        `json:"imported"`
	Failed   []RowError `json:"failed,omitempty"`
}

type Importer struct {
	creator AssetCreator
	logger  *zap.Logger
}

func NewImporter(creator AssetCreator, logger *zap.Logger) *Importer {
	return &Importer{creator: creator, logger: logger}
}

var requiredColumns = []string{"tag", "name"}

// Import reads a header row and then one asset per line.
func (i *Importer) Import(ctx context.Context, r io.Reader, performedBy int) (*Report, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("unable to read csv header: %w", err)
	}
	columns := indexColumns(header)
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("csv is missing column %q", name)
		}
	}

	report := &Report{BatchID: uuid.NewString()}
	logger := i.logger.With(zap.String("batch_id", report.BatchID))
	seen := map[string]int{}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			report.Failed = append(report.Failed, RowError{Line: line, Message: err.Error()})
			continue
		}

		row := csvRow{columns: columns, record: record}
		tag := row.get("tag")

		if first, dup := seen[tag]; dup && tag != "" {
			report.Failed = append(report.Failed, RowError{Line: line, Tag: tag, Message: fmt.Sprintf("duplicate of line %d", first)})
			continue
		}
		seen[tag] = line

		asset, err := row.asset()
		if err != nil {
			report.Failed = append(report.Failed, RowError{Line: line, Tag: tag, Message: err.Error()})
			continue
		}

		if _, err := i.creator.Create(ctx, asset, performedBy); err != nil {
			logger.Warn("Asset import row rejected", zap.Int("line", line), zap.String("tag", tag), zap.Error(err))
			report.Failed = append(report.Failed, RowError{Line: line, Tag: tag, Message: err.Error()})
			continue
		}
		report.Imported++
	}

	logger.Info("Asset import finished", zap.Int("imported", report.Imported), zap.Int("failed", len(report.Failed)))
	return report, nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

type csvRow struct {
	columns map[string]int
	record  []string
}

func (r csvRow) get(name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func (r csvRow) optional(name string) *string {
	if v := r.get(name); v != "" {
		return &v
	}
	return nil
}

func (r csvRow) intPtr(name string) (*int, error) {
	raw := r.get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a number", name, raw)
	}
	return &v, nil
}

func (r csvRow) date(name string) (*time.Time, error) {
	raw := r.get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a YYYY-MM-DD date", name, raw)
	}
	return &v, nil
}

func (r csvRow) money(name string) (decimal.NullDecimal, error) {
	raw := r.get(name)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%s: %q is not an amount", name, raw)
	}
	if v.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("%s: must not be negative", name)
	}
	return decimal.NewNullDecimal(v), nil
}

func (r csvRow) asset() (models.Asset, error) {
	asset := models.Asset{
		Tag:    r.get("tag"),
		Name:   r.get("name"),
		Brand:  r.optional("brand"),
		Model:  r.optional("model"),
		Serial: r.optional("serial"),
	}
	if asset.Tag == "" {
		return asset, errors.New("tag is required")
	}
	if asset.Name == "" {
		return asset, errors.New("name is required")
	}

	var err error
	if asset.CategoryID, err = r.intPtr("category_id"); err != nil {
		return asset, err
	}
	if asset.LocationID, err = r.intPtr("location_id"); err != nil {
		return asset, err
	}
	if asset.UsefulLifeYears, err = r.intPtr("useful_life_years"); err != nil {
		return asset, err
	}
	if asset.PurchaseDate, err = r.date("purchase_date"); err != nil {
		return asset, err
	}
	if asset.WarrantyEnd, err = r.date("warranty_end"); err != nil {
		return asset, err
	}
	if asset.PurchasePrice, err = r.money("purchase_price"); err != nil {
		return asset, err
	}
	if asset.ResidualValue, err = r.money("residual_value"); err != nil {
		return asset, err
	}
	return asset, nil
}
