package movements

import (
	"context"
	"fmt"

	"siap/internal/repository"
	custom_error "siap/pkg/errors"
	"siap/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

const ledgerTable = "asset_movements"

// LedgerRepository is append-only: rows are inserted and read, never rewritten.
type LedgerRepository struct {
	repository *repository.Repository
}

func NewLedgerRepository(r *repository.Repository) *LedgerRepository {
	return &LedgerRepository{repository: r}
}

func (r *LedgerRepository) AppendMovement(ctx context.Context, tx *goqu.TxDatabase, movement *models.Movement) error {
	metadataJSON, err := movement.MetadataJSON()
	if err != nil {
		return fmt.Errorf("failed to encode movement metadata: %w", err)
	}

	query := r.repository.Runner(tx).Insert(ledgerTable).
		Rows(goqu.Record{
			"asset_id":         movement.AssetID,
			"movement_type":    movement.Type,
			"from_status":      movement.FromStatus,
			"to_status":        movement.ToStatus,
			"from_user_id":     movement.FromUserID,
			"to_user_id":       movement.ToUserID,
			"from_location_id": movement.FromLocationID,
			"to_location_id":   movement.ToLocationID,
			"performed_by":     movement.PerformedBy,
			"request_id":       movement.RequestID,
			"notes":            movement.Notes,
			"metadata":         string(metadataJSON),
		}).
		Returning("id", "created_at")

	found, err := query.Executor().ScanStructContext(ctx, movement)
	if err != nil {
		return custom_error.FromPQ(err, fmt.Sprintf("failed to append movement for asset %d", movement.AssetID))
	}
	if !found {
		return fmt.Errorf("append movement for asset %d returned no row", movement.AssetID)
	}

	return nil
}

// GetAssetMovements returns the ledger of an asset oldest first.
func (r *LedgerRepository) GetAssetMovements(ctx context.Context, assetID int) ([]models.Movement, error) {
	var movements []models.Movement
	query := r.repository.GoquDBWrapper.From(ledgerTable).
		Where(goqu.Ex{"asset_id": assetID}).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc())

	if err := query.ScanStructsContext(ctx, &movements); err != nil {
		return nil, fmt.Errorf("unable to select movements of asset %d: %w", assetID, err)
	}
	for i := range movements {
		if err := movements[i].LoadFromDB(); err != nil {
			return nil, err
		}
	}

	return movements, nil
}
