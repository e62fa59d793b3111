package requests

import (
	"context"
	"strings"
	"time"

	"siap/internal/inventory/movements"
	"siap/internal/notifications"
	"siap/internal/repository"
	custom_error "siap/pkg/errors"
	"siap/pkg/metadata"
	"siap/pkg/models"
	"siap/pkg/roles"

	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"
)

const cancelRemark = "Request cancelled before a decision was made"

type RequestStore interface {
	NextRequestSequence(ctx context.Context, tx *goqu.TxDatabase, year int) (int, error)
	InsertRequest(ctx context.Context, tx *goqu.TxDatabase, request *models.AssetRequest) (int, error)
	InsertRequestItems(ctx context.Context, tx *goqu.TxDatabase, requestID int, items []models.RequestItem) ([]models.RequestItem, error)
	DeleteRequestItem(ctx context.Context, tx *goqu.TxDatabase, requestID int, itemID int) error
	LockRequest(ctx context.Context, tx *goqu.TxDatabase, requestID int) (*models.AssetRequest, error)
	GetRequestItems(ctx context.Context, tx *goqu.TxDatabase, requestID int) ([]models.RequestItem, error)
	UpdateRequest(ctx context.Context, tx *goqu.TxDatabase, request *models.AssetRequest) error
	SetItemFulfilledAsset(ctx context.Context, tx *goqu.TxDatabase, itemID int, assetID int) error
	DeleteRequest(ctx context.Context, tx *goqu.TxDatabase, requestID int) error
	GetRequest(ctx context.Context, requestID int) (*models.AssetRequest, error)
	ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.AssetRequest, error)
	ListPendingApprovalRequests(ctx context.Context, approverID int) ([]models.AssetRequest, error)
}

type ApprovalStore interface {
	InsertApproval(ctx context.Context, tx *goqu.TxDatabase, approval *models.Approval) error
	FindPendingApproval(ctx context.Context, tx *goqu.TxDatabase, requestID int, approverID int) (*models.Approval, error)
	UpdateApproval(ctx context.Context, tx *goqu.TxDatabase, approval *models.Approval) error
	RejectPendingApprovals(ctx context.Context, tx *goqu.TxDatabase, requestID int, decidedBy int, remarks string, at time.Time) (int, error)
}

type ApproverSelector interface {
	SelectApprover(ctx context.Context, tx *goqu.TxDatabase, requestID int, requesterID int) (*models.ApproverLoad, error)
}

// AssetMover is the part of the movement service that fulfilment delegates to.
type AssetMover interface {
	AssignTx(ctx context.Context, tx *goqu.TxDatabase, cmd movements.Command) (*movements.Result, error)
	ReturnTx(ctx context.Context, tx *goqu.TxDatabase, cmd movements.Command) (*movements.Result, error)
	TransferTx(ctx context.Context, tx *goqu.TxDatabase, cmd movements.Command) (*movements.Result, error)
	SendForRepairTx(ctx context.Context, tx *goqu.TxDatabase, cmd movements.Command) (*movements.Result, error)
	Publish(results ...*movements.Result)
}

type EventPublisher interface {
	Notify(event notifications.Event)
}

type ItemInput struct {
	CategoryID       *int    `json:"category_id"`
	Quantity         int     `json:"quantity"`
	Specification    *string `json:"specification"`
	AssetID          *int    `json:"asset_id"`
	TransferToUserID *int    `json:"transfer_to_user_id"`
	Notes            *string `json:"notes"`
}

type CreateInput struct {
	Type          string      `json:"request_type" binding:"required"`
	Justification *string     `json:"justification"`
	Items         []ItemInput `json:"items"`
}

type ItemAssetMapping struct {
	ItemID  int `json:"item_id" binding:"required"`
	AssetID int `json:"asset_id" binding:"required"`
}

type FulfillInput struct {
	Mappings []ItemAssetMapping `json:"mappings"`
	Notes    *string            `json:"notes"`
}

type Service struct {
	tx        repository.Transactor
	store     RequestStore
	approvals ApprovalStore
	selector  ApproverSelector
	mover     AssetMover
	notifier  EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	tx repository.Transactor,
	store RequestStore,
	approvals ApprovalStore,
	selector ApproverSelector,
	mover AssetMover,
	notifier EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		tx:        tx,
		store:     store,
		approvals: approvals,
		selector:  selector,
		mover:     mover,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func validateItem(requestType metadata.RequestType, input ItemInput) (models.RequestItem, error) {
	item := models.RequestItem{
		Quantity:      input.Quantity,
		Specification: input.Specification,
		Notes:         input.Notes,
	}

	switch {
	case requestType.RequiresCategory():
		if input.CategoryID == nil {
			return item, custom_error.NewValidation("category_id", "is required for %s requests", requestType)
		}
		if input.AssetID != nil {
			return item, custom_error.NewValidation("asset_id", "must be empty for %s requests", requestType)
		}
		if item.Quantity == 0 {
			item.Quantity = 1
		}
		if item.Quantity < 0 {
			return item, custom_error.NewValidation("quantity", "must be positive")
		}
		item.CategoryID = input.CategoryID
	case requestType.RequiresAsset():
		if input.AssetID == nil {
			return item, custom_error.NewValidation("asset_id", "is required for %s requests", requestType)
		}
		if input.CategoryID != nil {
			return item, custom_error.NewValidation("category_id", "must be empty for %s requests", requestType)
		}
		if requestType.RequiresTransferTarget() && input.TransferToUserID == nil {
			return item, custom_error.NewValidation("transfer_to_user_id", "is required for transfer requests")
		}
		item.Quantity = 1
		item.AssetID = input.AssetID
		if requestType.RequiresTransferTarget() {
			item.TransferToUserID = input.TransferToUserID
		}
	}

	return item, nil
}

func (s *Service) Create(ctx context.Context, actor models.Actor, input CreateInput) (*models.AssetRequest, error) {
	requestType, err := metadata.NewRequestType(input.Type)
	if err != nil {
		return nil, custom_error.NewValidation("request_type", "%s", err.Error())
	}

	items := make([]models.RequestItem, 0, len(input.Items))
	for _, in := range input.Items {
		item, err := validateItem(requestType, in)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	request := &models.AssetRequest{
		RequesterID:   actor.UserID,
		Type:          requestType,
		Status:        metadata.RequestDraft,
		Justification: input.Justification,
	}

	err = s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		year := s.now().Year()
		sequence, err := s.store.NextRequestSequence(ctx, tx, year)
		if err != nil {
			return err
		}
		request.RequestNumber = metadata.NewRequestNumber(year, sequence).Generate()

		if request.ID, err = s.store.InsertRequest(ctx, tx, request); err != nil {
			return err
		}
		request.Items, err = s.store.InsertRequestItems(ctx, tx, request.ID, items)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(notifications.RequestCreated, request, actor.UserID, request.RequesterID)
	return request, nil
}

func (s *Service) AddItem(ctx context.Context, actor models.Actor, requestID int, input ItemInput) (*models.RequestItem, error) {
	var added *models.RequestItem
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		request, err := s.lockDraftOfRequester(ctx, tx, actor, requestID, "add items")
		if err != nil {
			return err
		}

		item, err := validateItem(request.Type, input)
		if err != nil {
			return err
		}

		inserted, err := s.store.InsertRequestItems(ctx, tx, requestID, []models.RequestItem{item})
		if err != nil {
			return err
		}
		added = &inserted[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (s *Service) RemoveItem(ctx context.Context, actor models.Actor, requestID int, itemID int) error {
	return s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		if _, err := s.lockDraftOfRequester(ctx, tx, actor, requestID, "remove items"); err != nil {
			return err
		}
		return s.store.DeleteRequestItem(ctx, tx, requestID, itemID)
	})
}

// DeleteDraft hard deletes a request that was never submitted.
func (s *Service) DeleteDraft(ctx context.Context, actor models.Actor, requestID int) error {
	return s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		if _, err := s.lockDraftOfRequester(ctx, tx, actor, requestID, "delete"); err != nil {
			return err
		}
		return s.store.DeleteRequest(ctx, tx, requestID)
	})
}

func (s *Service) lockDraftOfRequester(ctx context.Context, tx *goqu.TxDatabase, actor models.Actor, requestID int, action string) (*models.AssetRequest, error) {
	request, err := s.store.LockRequest(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.IsRequester(actor.UserID) {
		return nil, custom_error.NewUnauthorized(action, "only the requester can change a draft")
	}
	if !request.Status.CanBeEdited() {
		return nil, custom_error.NewInvalidTransition(action, request.Status.String(), metadata.RequestDraft.String())
	}
	return request, nil
}

// Submit sends a draft for approval. Approver selection failing rolls the whole submit back.
func (s *Service) Submit(ctx context.Context, actor models.Actor, requestID int) (*models.AssetRequest, error) {
	var (
		submitted *models.AssetRequest
		approver  int
	)
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		request, err := s.store.LockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if !request.IsRequester(actor.UserID) {
			return custom_error.NewUnauthorized("submit", "only the requester can submit a request")
		}
		if !request.Status.CanSubmit() {
			return custom_error.NewInvalidTransition("submit", request.Status.String(), metadata.RequestDraft.String())
		}

		items, err := s.store.GetRequestItems(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return custom_error.NewValidation("items", "a request needs at least one item to be submitted")
		}

		now := s.now()
		request.Status = metadata.RequestSubmitted
		request.SubmittedAt = &now
		if err := s.store.UpdateRequest(ctx, tx, request); err != nil {
			return err
		}

		chosen, err := s.selector.SelectApprover(ctx, tx, requestID, request.RequesterID)
		if err != nil {
			return err
		}

		approval := &models.Approval{
			RequestID:  requestID,
			ApproverID: chosen.UserID,
			Sequence:   1,
			Status:     metadata.ApprovalPending,
		}
		if err := s.approvals.InsertApproval(ctx, tx, approval); err != nil {
			return err
		}

		request.Status = metadata.RequestPendingApproval
		if err := s.store.UpdateRequest(ctx, tx, request); err != nil {
			return err
		}

		request.Items = items
		request.Approvals = []models.Approval{*approval}
		submitted = request
		approver = chosen.UserID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(notifications.RequestSubmitted, submitted, actor.UserID, approver)
	return submitted, nil
}

// decide records the caller's decision on their pending approval slot.
func (s *Service) decide(ctx context.Context, tx *goqu.TxDatabase, actor models.Actor, requestID int, action string, decision metadata.ApprovalStatus, remarks *string) (*models.AssetRequest, error) {
	request, err := s.store.LockRequest(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanBeDecided() {
		return nil, custom_error.NewInvalidTransition(action, request.Status.String(), metadata.RequestPendingApproval.String())
	}

	approval, err := s.approvals.FindPendingApproval(ctx, tx, requestID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if approval == nil {
		return nil, custom_error.NewUnauthorized(action, "caller has no pending approval for this request")
	}

	now := s.now()
	decidedBy := actor.UserID
	approval.Status = decision
	approval.Remarks = remarks
	approval.DecidedBy = &decidedBy
	approval.DecidedAt = &now
	if err := s.approvals.UpdateApproval(ctx, tx, approval); err != nil {
		return nil, err
	}

	request.Approvals = []models.Approval{*approval}
	return request, nil
}

func (s *Service) Approve(ctx context.Context, actor models.Actor, requestID int, remarks *string) (*models.AssetRequest, error) {
	var approved *models.AssetRequest
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		request, err := s.decide(ctx, tx, actor, requestID, "approve", metadata.ApprovalApproved, remarks)
		if err != nil {
			return err
		}

		request.Status = metadata.RequestApproved
		if err := s.store.UpdateRequest(ctx, tx, request); err != nil {
			return err
		}
		approved = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(notifications.RequestApproved, approved, actor.UserID, approved.RequesterID)
	return approved, nil
}

func (s *Service) Reject(ctx context.Context, actor models.Actor, requestID int, reason string) (*models.AssetRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, custom_error.NewValidation("reason", "a rejection reason is required")
	}

	var rejected *models.AssetRequest
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		request, err := s.decide(ctx, tx, actor, requestID, "reject", metadata.ApprovalRejected, &reason)
		if err != nil {
			return err
		}

		request.Status = metadata.RequestRejected
		request.RejectionReason = &reason
		if err := s.store.UpdateRequest(ctx, tx, request); err != nil {
			return err
		}
		rejected = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(notifications.RequestRejected, rejected, actor.UserID, rejected.RequesterID)
	return rejected, nil
}

func (s *Service) lockForFulfilment(ctx context.Context, tx *goqu.TxDatabase, actor models.Actor, requestID int, requestType metadata.RequestType) (*models.AssetRequest, error) {
	if !actor.Role.HasPermission(roles.Manager) {
		return nil, custom_error.NewUnauthorized("fulfill", "fulfilment requires a manager or admin")
	}

	request, err := s.store.LockRequest(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Type != requestType {
		return nil, custom_error.NewValidation("request_type", "request %s is a %s request, not %s", request.RequestNumber, request.Type, requestType)
	}
	if !request.Status.CanBeFulfilled() {
		return nil, custom_error.NewInvalidTransition("fulfill", request.Status.String(), metadata.RequestApproved.String())
	}
	return request, nil
}

func (s *Service) markFulfilled(ctx context.Context, tx *goqu.TxDatabase, actor models.Actor, request *models.AssetRequest, notes *string) error {
	now := s.now()
	fulfilledBy := actor.UserID
	request.Status = metadata.RequestFulfilled
	request.FulfilledBy = &fulfilledBy
	request.FulfilledAt = &now
	request.FulfillmentNotes = notes
	return s.store.UpdateRequest(ctx, tx, request)
}

// Fulfill assigns a concrete asset to the requester for each mapped item of a NEW request.
// Any failing item aborts the whole fulfilment.
func (s *Service) Fulfill(ctx context.Context, actor models.Actor, requestID int, input FulfillInput) (*models.AssetRequest, error) {
	if len(input.Mappings) == 0 {
		return nil, custom_error.NewValidation("mappings", "at least one item to asset mapping is required")
	}

	var (
		fulfilled *models.AssetRequest
		results   []*movements.Result
	)
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		request, err := s.lockForFulfilment(ctx, tx, actor, requestID, metadata.RequestTypeNew)
		if err != nil {
			return err
		}

		items, err := s.store.GetRequestItems(ctx, tx, requestID)
		if err != nil {
			return err
		}
		byID := make(map[int]models.RequestItem, len(items))
		for _, item := range items {
			byID[item.ID] = item
		}

		usedItems := map[int]bool{}
		usedAssets := map[int]bool{}
		for _, mapping := range input.Mappings {
			item, ok := byID[mapping.ItemID]
			if !ok {
				return custom_error.NewValidation("item_id", "item %d does not belong to request %s", mapping.ItemID, request.RequestNumber)
			}
			if usedItems[item.ID] || usedAssets[mapping.AssetID] {
				return custom_error.NewValidation("mappings", "item %d or asset %d is mapped twice", item.ID, mapping.AssetID)
			}
			usedItems[item.ID] = true
			usedAssets[mapping.AssetID] = true

			requesterID := request.RequesterID
			result, err := s.mover.AssignTx(ctx, tx, movements.Command{
				AssetID:     mapping.AssetID,
				PerformedBy: actor.UserID,
				ToUserID:    &requesterID,
				RequestID:   &request.ID,
				Notes:       input.Notes,
			})
			if err != nil {
				return err
			}
			if err := s.store.SetItemFulfilledAsset(ctx, tx, item.ID, mapping.AssetID); err != nil {
				return err
			}
			results = append(results, result)
		}

		if err := s.markFulfilled(ctx, tx, actor, request, input.Notes); err != nil {
			return err
		}
		fulfilled = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mover.Publish(results...)
	s.notify(notifications.RequestFulfilled, fulfilled, actor.UserID, fulfilled.RequesterID)
	return fulfilled, nil
}

type existingAssetStep func(ctx context.Context, tx *goqu.TxDatabase, item models.RequestItem, base movements.Command) (*movements.Result, bool, error)

// fulfilExisting runs step for each item referencing an existing asset. Items the step
// skips are left untouched and do not fail the fulfilment.
func (s *Service) fulfilExisting(ctx context.Context, actor models.Actor, requestID int, requestType metadata.RequestType, notes *string, step existingAssetStep) (*models.AssetRequest, error) {
	var (
		fulfilled *models.AssetRequest
		results   []*movements.Result
	)
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		request, err := s.lockForFulfilment(ctx, tx, actor, requestID, requestType)
		if err != nil {
			return err
		}

		items, err := s.store.GetRequestItems(ctx, tx, requestID)
		if err != nil {
			return err
		}

		for _, item := range items {
			if item.AssetID == nil {
				continue
			}
			base := movements.Command{
				AssetID:     *item.AssetID,
				PerformedBy: actor.UserID,
				RequestID:   &request.ID,
				Notes:       notes,
			}
			result, done, err := step(ctx, tx, item, base)
			if err != nil {
				return err
			}
			if !done {
				continue
			}
			if err := s.store.SetItemFulfilledAsset(ctx, tx, item.ID, *item.AssetID); err != nil {
				return err
			}
			results = append(results, result)
		}

		if err := s.markFulfilled(ctx, tx, actor, request, notes); err != nil {
			return err
		}
		fulfilled = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mover.Publish(results...)
	s.notify(notifications.RequestFulfilled, fulfilled, actor.UserID, fulfilled.RequesterID)
	return fulfilled, nil
}

func (s *Service) FulfillReturn(ctx context.Context, actor models.Actor, requestID int, notes *string) (*models.AssetRequest, error) {
	return s.fulfilExisting(ctx, actor, requestID, metadata.RequestTypeReturn, notes,
		func(ctx context.Context, tx *goqu.TxDatabase, item models.RequestItem, cmd movements.Command) (*movements.Result, bool, error) {
			result, err := s.mover.ReturnTx(ctx, tx, cmd)
			return result, err == nil, err
		})
}

func (s *Service) FulfillTransfer(ctx context.Context, actor models.Actor, requestID int, notes *string) (*models.AssetRequest, error) {
	return s.fulfilExisting(ctx, actor, requestID, metadata.RequestTypeTransfer, notes,
		func(ctx context.Context, tx *goqu.TxDatabase, item models.RequestItem, cmd movements.Command) (*movements.Result, bool, error) {
			if item.TransferToUserID == nil {
				return nil, false, nil
			}
			cmd.ToUserID = item.TransferToUserID
			result, err := s.mover.TransferTx(ctx, tx, cmd)
			return result, err == nil, err
		})
}

func (s *Service) FulfillRepair(ctx context.Context, actor models.Actor, requestID int, notes *string) (*models.AssetRequest, error) {
	return s.fulfilExisting(ctx, actor, requestID, metadata.RequestTypeRepair, notes,
		func(ctx context.Context, tx *goqu.TxDatabase, item models.RequestItem, cmd movements.Command) (*movements.Result, bool, error) {
			result, err := s.mover.SendForRepairTx(ctx, tx, cmd)
			return result, err == nil, err
		})
}

// FulfillAny dispatches to the fulfilment matching the request type.
func (s *Service) FulfillAny(ctx context.Context, actor models.Actor, requestID int, input FulfillInput) (*models.AssetRequest, error) {
	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch request.Type {
	case metadata.RequestTypeNew:
		return s.Fulfill(ctx, actor, requestID, input)
	case metadata.RequestTypeReturn:
		return s.FulfillReturn(ctx, actor, requestID, input.Notes)
	case metadata.RequestTypeTransfer:
		return s.FulfillTransfer(ctx, actor, requestID, input.Notes)
	default:
		return s.FulfillRepair(ctx, actor, requestID, input.Notes)
	}
}

// Cancel is open to the requester and to admins; pending approval slots are closed as rejected.
func (s *Service) Cancel(ctx context.Context, actor models.Actor, requestID int) (*models.AssetRequest, error) {
	var cancelled *models.AssetRequest
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		request, err := s.store.LockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if !request.IsRequester(actor.UserID) && !actor.IsAdmin() {
			return custom_error.NewUnauthorized("cancel", "only the requester or an admin can cancel a request")
		}
		if !request.Status.CanCancel() {
			return custom_error.NewInvalidTransition("cancel", request.Status.String(),
				metadata.RequestDraft.String(), metadata.RequestSubmitted.String(), metadata.RequestPendingApproval.String())
		}

		rejected, err := s.approvals.RejectPendingApprovals(ctx, tx, requestID, actor.UserID, cancelRemark, s.now())
		if err != nil {
			return err
		}
		if rejected > 0 {
			s.logger.Debug("Closed pending approvals of cancelled request",
				zap.Int("request_id", requestID), zap.Int("approvals", rejected))
		}

		request.Status = metadata.RequestCancelled
		if err := s.store.UpdateRequest(ctx, tx, request); err != nil {
			return err
		}
		cancelled = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(notifications.RequestCancelled, cancelled, actor.UserID, cancelled.RequesterID)
	return cancelled, nil
}

func (s *Service) Close(ctx context.Context, actor models.Actor, requestID int) (*models.AssetRequest, error) {
	var closed *models.AssetRequest
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		request, err := s.store.LockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if !request.IsRequester(actor.UserID) && !actor.Role.HasPermission(roles.Manager) {
			return custom_error.NewUnauthorized("close", "only the requester or a manager can close a request")
		}
		if !request.Status.CanBeClosed() {
			return custom_error.NewInvalidTransition("close", request.Status.String(), metadata.RequestFulfilled.String())
		}

		request.Status = metadata.RequestClosed
		if err := s.store.UpdateRequest(ctx, tx, request); err != nil {
			return err
		}
		closed = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(notifications.RequestClosed, closed, actor.UserID, closed.RequesterID)
	return closed, nil
}

// Get returns the request with items and approvals. Employees only see their own requests
// or the ones waiting on them.
func (s *Service) Get(ctx context.Context, actor models.Actor, requestID int) (*models.AssetRequest, error) {
	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.IsRequester(actor.UserID) || actor.Role.HasPermission(roles.Manager) {
		return request, nil
	}
	for _, approval := range request.Approvals {
		if approval.ApproverID == actor.UserID {
			return request, nil
		}
	}
	return nil, custom_error.NewUnauthorized("view request", "request belongs to another user")
}

func (s *Service) List(ctx context.Context, actor models.Actor, filter models.RequestFilter) ([]models.AssetRequest, error) {
	if !actor.Role.HasPermission(roles.Manager) {
		own := actor.UserID
		filter.RequesterID = &own
	}
	return s.store.ListRequests(ctx, filter)
}

func (s *Service) PendingApprovals(ctx context.Context, actor models.Actor) ([]models.AssetRequest, error) {
	return s.store.ListPendingApprovalRequests(ctx, actor.UserID)
}

func (s *Service) notify(eventType notifications.EventType, request *models.AssetRequest, actorID int, recipients ...int) {
	event := notifications.NewEvent(eventType, request.ID, request.RequestNumber, actorID, recipients...)
	event.Payload = map[string]interface{}{
		"status":       request.Status,
		"request_type": request.Type,
	}
	if request.RejectionReason != nil {
		event.Payload["rejection_reason"] = *request.RejectionReason
	}
	s.notifier.Notify(event)
}
