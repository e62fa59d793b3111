package requests

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

// requestNumberLockKey serialises request number allocation across concurrent creators.
const requestNumberLockKey int64 = 0x5245510000

type RequestsRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *RequestsRepository {
	return &RequestsRepository{repository: r}
}

// NextRequestSequence returns the highest sequence used this year plus one. It holds an
// advisory lock until the transaction ends so two creators never get the same number.
func (r *RequestsRepository) NextRequestSequence(ctx context.Context, tx *goqu.TxDatabase, year int) (int, error) {
	if err := repository.AdvisoryLock(ctx, tx, requestNumberLockKey+int64(year)); err != nil {
		return 0, err
	}

	var highest int
	query := r.repository.Runner(tx).From("asset_requests").
		Select(goqu.COALESCE(goqu.MAX(goqu.L("CAST(SPLIT_PART(request_number, '-', 3) AS INTEGER)")), 0)).
		Where(goqu.C("request_number").Like(metadata.YearPattern(metadata.RequestNumberPrefix, year)))

	if _, err := query.ScanValContext(ctx, &highest); err != nil {
		return 0, fmt.Errorf("unable to read request sequence for %d: %w", year, err)
	}
	return highest + 1, nil
}

func (r *RequestsRepository) InsertRequest(ctx context.Context, tx *goqu.TxDatabase, request *models.AssetRequest) (int, error) {
	query := r.repository.Runner(tx).Insert("asset_requests").
		Rows(goqu.Record{
			"request_number": request.RequestNumber,
			"requester_id":   request.RequesterID,
			"request_type":   request.Type,
			"status":         request.Status,
			"justification":  request.Justification,
		}).
		Returning("id")

	var id int
	if _, err := query.Executor().ScanValContext(ctx, &id); err != nil {
		return 0, custom_error.FromPQ(err, fmt.Sprintf("failed to insert request %s", request.RequestNumber))
	}
	return id, nil
}

func (r *RequestsRepository) InsertRequestItems(ctx context.Context, tx *goqu.TxDatabase, requestID int, items []models.RequestItem) ([]models.RequestItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	rows := make([]interface{}, 0, len(items))
	for _, item := range items {
		rows = append(rows, goqu.Record{
			"request_id":          requestID,
			"category_id":         item.CategoryID,
			"quantity":            item.Quantity,
			"specification":       item.Specification,
			"asset_id":            item.AssetID,
			"transfer_to_user_id": item.TransferToUserID,
			"notes":               item.Notes,
		})
	}

	var ids []int
	query := r.repository.Runner(tx).Insert("asset_request_items").Rows(rows...).Returning("id")
	if err := query.Executor().ScanValsContext(ctx, &ids); err != nil {
		return nil, custom_error.FromPQ(err, fmt.Sprintf("failed to insert items of request %d", requestID))
	}

	inserted := make([]models.RequestItem, len(items))
	for i, item := range items {
		item.RequestID = requestID
		if i < len(ids) {
			item.ID = ids[i]
		}
		inserted[i] = item
	}
	return inserted, nil
}

func (r *RequestsRepository) DeleteRequestItem(ctx context.Context, tx *goqu.TxDatabase, requestID int, itemID int) error {
	result, err := r.repository.Runner(tx).Delete("asset_request_items").
		Where(goqu.Ex{"id": itemID, "request_id": requestID}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete request item %d: %w", itemID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows of request item %d: %w", itemID, err)
	}
	if affected == 0 {
		return custom_error.NewNotFound("request item", itemID)
	}
	return nil
}

func (r *RequestsRepository) LockRequest(ctx context.Context, tx *goqu.TxDatabase, requestID int) (*models.AssetRequest, error) {
	var request models.AssetRequest
	found, err := r.repository.Runner(tx).From("asset_requests").
		Where(goqu.Ex{"id": requestID}).
		ForUpdate(exp.Wait).
		ScanStructContext(ctx, &request)
	if err != nil {
		return nil, fmt.Errorf("unable to select request %d: %w", requestID, err)
	}
	if !found {
		return nil, custom_error.NewNotFound("request", requestID)
	}
	return &request, nil
}

func (r *RequestsRepository) GetRequestItems(ctx context.Context, tx *goqu.TxDatabase, requestID int) ([]models.RequestItem, error) {
	var items []models.RequestItem
	query := r.repository.Runner(tx).From("asset_request_items").
		Where(goqu.Ex{"request_id": requestID}).
		Order(goqu.C("id").Asc())

	if err := query.ScanStructsContext(ctx, &items); err != nil {
		return nil, fmt.Errorf("unable to select items of request %d: %w", requestID, err)
	}
	return items, nil
}

func (r *RequestsRepository) UpdateRequest(ctx context.Context, tx *goqu.TxDatabase, request *models.AssetRequest) error {
	query := r.repository.Runner(tx).Update("asset_requests").
		Set(goqu.Record{
			"status":            request.Status,
			"justification":     request.Justification,
			"rejection_reason":  request.RejectionReason,
			"submitted_at":      request.SubmittedAt,
			"fulfilled_by":      request.FulfilledBy,
			"fulfilled_at":      request.FulfilledAt,
			"fulfillment_notes": request.FulfillmentNotes,
			"updated_at":        goqu.L("NOW()"),
		}).
		Where(goqu.Ex{"id": request.ID})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		return custom_error.FromPQ(err, fmt.Sprintf("failed to update request %d", request.ID))
	}
	return nil
}

func (r *RequestsRepository) SetItemFulfilledAsset(ctx context.Context, tx *goqu.TxDatabase, itemID int, assetID int) error {
	query := r.repository.Runner(tx).Update("asset_request_items").
		Set(goqu.Record{"fulfilled_asset_id": assetID}).
		Where(goqu.Ex{"id": itemID})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to stamp fulfilled asset on item %d: %w", itemID, err)
	}
	return nil
}

// DeleteRequest hard deletes a request; items follow through ON DELETE CASCADE.
func (r *RequestsRepository) DeleteRequest(ctx context.Context, tx *goqu.TxDatabase, requestID int) error {
	query := r.repository.Runner(tx).Delete("asset_requests").
		Where(goqu.Ex{"id": requestID, "status": metadata.RequestDraft})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to delete request %d: %w", requestID, err)
	}
	return nil
}

func (r *RequestsRepository) GetRequest(ctx context.Context, requestID int) (*models.AssetRequest, error) {
	var request models.AssetRequest
	found, err := r.repository.GoquDBWrapper.From("asset_requests").
		Where(goqu.Ex{"id": requestID}).
		ScanStructContext(ctx, &request)
	if err != nil {
		return nil, fmt.Errorf("unable to select request %d: %w", requestID, err)
	}
	if !found {
		return nil, custom_error.NewNotFound("request", requestID)
	}

	if request.Items, err = r.GetRequestItems(ctx, nil, requestID); err != nil {
		return nil, err
	}

	query := r.repository.GoquDBWrapper.From("approvals").
		Where(goqu.Ex{"request_id": requestID}).
		Order(goqu.C("sequence").Asc(), goqu.C("id").Asc())
	if err := query.ScanStructsContext(ctx, &request.Approvals); err != nil {
		return nil, fmt.Errorf("unable to select approvals of request %d: %w", requestID, err)
	}

	return &request, nil
}

func (r *RequestsRepository) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.AssetRequest, error) {
	conditions := repository.NewQueryBuilder()
	conditions.AddCondition("status", filter.Status)
	conditions.AddCondition("type", filter.Type)
	conditions.AddCondition("requester_id", filter.RequesterID)

	page := repository.NewPage(filter.Limit, filter.Offset)
	query := r.repository.GoquDBWrapper.From("asset_requests").
		Where(conditions.BuildConditions(map[string]string{"type": "request_type"})).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc())

	var requests []models.AssetRequest
	if err := page.Apply(query).ScanStructsContext(ctx, &requests); err != nil {
		return nil, fmt.Errorf("unable to list requests: %w", err)
	}
	return requests, nil
}

func (r *RequestsRepository) ListPendingApprovalRequests(ctx context.Context, approverID int) ([]models.AssetRequest, error) {
	query := r.repository.GoquDBWrapper.
		From(goqu.T("asset_requests").As("r")).
		Join(goqu.T("approvals").As("a"), goqu.On(goqu.Ex{"a.request_id": goqu.I("r.id")})).
		Select(goqu.I("r.*")).
		Where(goqu.Ex{
			"a.approver_id": approverID,
			"a.status":      metadata.ApprovalPending,
		}).
		Order(goqu.I("r.submitted_at").Asc(), goqu.I("r.id").Asc())

	var requests []models.AssetRequest
	if err := query.ScanStructsContext(ctx, &requests); err != nil {
		return nil, fmt.Errorf("unable to list pending approvals of user %d: %w", approverID, err)
	}
	return requests, nil
}
