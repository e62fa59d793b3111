package movements

import (
	"context"
	"time"

	"siap/internal/repository"
	"siap/pkg/auditlog"
	custom_error "siap/pkg/errors"
	"siap/pkg/metadata"
	"siap/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"
)

type AssetStore interface {
	LockAsset(ctx context.Context, tx *goqu.TxDatabase, assetID int) (*models.Asset, error)
	InsertAsset(ctx context.Context, tx *goqu.TxDatabase, asset *models.Asset) (int, error)
	UpdateAssetState(ctx context.Context, tx *goqu.TxDatabase, assetID int, state models.AssetState) error
	UpdateAssetDetails(ctx context.Context, tx *goqu.TxDatabase, asset *models.Asset) error
	ArchiveAsset(ctx context.Context, tx *goqu.TxDatabase, assetID int, at time.Time) error
}

type MovementStore interface {
	AppendMovement(ctx context.Context, tx *goqu.TxDatabase, movement *models.Movement) error
	GetAssetMovements(ctx context.Context, assetID int) ([]models.Movement, error)
}

type UserDirectory interface {
	GetUser(ctx context.Context, userID int) (*models.User, error)
}

type AuditLogger interface {
	Log(action string, data interface{}, item auditlog.Auditable)
}

// Command describes one custody change requested by PerformedBy.
type Command struct {
	AssetID      int
	PerformedBy  int
	ToUserID     *int
	ToLocationID *int
	RequestID    *int
	Notes        *string
	Metadata     map[string]interface{}
}

// Result is the asset after the change and the ledger row that recorded it.
// Movement is nil when nothing was recorded.
type Result struct {
	Asset    *models.Asset
	Movement *models.Movement
}

type Service struct {
	tx       repository.Transactor
	assets   AssetStore
	ledger   MovementStore
	users    UserDirectory
	auditLog AuditLogger
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(
	tx repository.Transactor,
	assets AssetStore,
	ledger MovementStore,
	users UserDirectory,
	auditLog AuditLogger,
	logger *zap.Logger,
) *Service {
	return &Service{
		tx:       tx,
		assets:   assets,
		ledger:   ledger,
		users:    users,
		auditLog: auditLog,
		logger:   logger,
		now:      time.Now,
	}
}

// transition is one row of the asset state machine.
type transition struct {
	operation string
	movement  metadata.MovementType
	allowed   func(metadata.AssetStatus) bool
	required  []metadata.AssetStatus
	next      func(current models.AssetState, cmd Command) models.AssetState
}

var (
	anyLiveStatus = []metadata.AssetStatus{
		metadata.AssetInStock, metadata.AssetAssigned, metadata.AssetInRepair, metadata.AssetLost,
	}

	assignTransition = transition{
		operation: "assign",
		movement:  metadata.MovementAssign,
		allowed:   metadata.AssetStatus.CanBeAssigned,
		required:  []metadata.AssetStatus{metadata.AssetInStock},
		next: func(current models.AssetState, cmd Command) models.AssetState {
			return models.AssetState{
				Status:     metadata.AssetAssigned,
				HolderID:   cmd.ToUserID,
				LocationID: locationOr(cmd.ToLocationID, current.LocationID),
			}
		},
	}

	returnTransition = transition{
		operation: "return",
		movement:  metadata.MovementReturn,
		allowed:   metadata.AssetStatus.CanBeReturned,
		required:  []metadata.AssetStatus{metadata.AssetAssigned},
		next: func(current models.AssetState, cmd Command) models.AssetState {
			return models.AssetState{
				Status:     metadata.AssetInStock,
				LocationID: locationOr(cmd.ToLocationID, current.LocationID),
			}
		},
	}

	transferTransition = transition{
		operation: "transfer",
		movement:  metadata.MovementTransfer,
		allowed:   metadata.AssetStatus.CanBeTransferred,
		required:  []metadata.AssetStatus{metadata.AssetAssigned},
		next: func(current models.AssetState, cmd Command) models.AssetState {
			return models.AssetState{
				Status:     metadata.AssetAssigned,
				HolderID:   cmd.ToUserID,
				LocationID: locationOr(cmd.ToLocationID, current.LocationID),
			}
		},
	}

	repairOutTransition = transition{
		operation: "send for repair",
		movement:  metadata.MovementRepairOut,
		allowed:   metadata.AssetStatus.CanBeSentForRepair,
		required:  anyLiveStatus,
		next: func(current models.AssetState, cmd Command) models.AssetState {
			return models.AssetState{
				Status:     metadata.AssetInRepair,
				LocationID: locationOr(cmd.ToLocationID, current.LocationID),
			}
		},
	}

	repairInTransition = transition{
		operation: "return from repair",
		movement:  metadata.MovementRepairIn,
		allowed:   metadata.AssetStatus.CanReturnFromRepair,
		required:  []metadata.AssetStatus{metadata.AssetInRepair},
		next: func(current models.AssetState, cmd Command) models.AssetState {
			status := metadata.AssetInStock
			if cmd.ToUserID != nil {
				status = metadata.AssetAssigned
			}
			return models.AssetState{
				Status:     status,
				HolderID:   cmd.ToUserID,
				LocationID: locationOr(cmd.ToLocationID, current.LocationID),
			}
		},
	}

	retireTransition = transition{
		operation: "retire",
		movement:  metadata.MovementRetire,
		allowed:   metadata.AssetStatus.CanBeRetired,
		next: func(current models.AssetState, cmd Command) models.AssetState {
			return models.AssetState{Status: metadata.AssetRetired, LocationID: current.LocationID}
		},
	}

	lostTransition = transition{
		operation: "mark lost",
		movement:  metadata.MovementLost,
		allowed:   metadata.AssetStatus.CanBeMarkedLost,
		next: func(current models.AssetState, cmd Command) models.AssetState {
			return models.AssetState{Status: metadata.AssetLost, LocationID: current.LocationID}
		},
	}

	foundTransition = transition{
		operation: "mark found",
		movement:  metadata.MovementFound,
		allowed:   metadata.AssetStatus.CanBeMarkedFound,
		required:  []metadata.AssetStatus{metadata.AssetLost},
		next: func(current models.AssetState, cmd Command) models.AssetState {
			return models.AssetState{
				Status:     metadata.AssetInStock,
				LocationID: locationOr(cmd.ToLocationID, current.LocationID),
			}
		},
	}

	disposeTransition = transition{
		operation: "dispose",
		movement:  metadata.MovementDispose,
		allowed:   metadata.AssetStatus.CanBeDisposed,
		required:  []metadata.AssetStatus{metadata.AssetRetired},
		next: func(current models.AssetState, cmd Command) models.AssetState {
			return models.AssetState{Status: metadata.AssetDisposed, LocationID: current.LocationID}
		},
	}

	relocateTransition = transition{
		operation: "relocate",
		movement:  metadata.MovementUpdate,
		allowed:   metadata.AssetStatus.CanBeRelocated,
		required:  anyLiveStatus,
		next: func(current models.AssetState, cmd Command) models.AssetState {
			return models.AssetState{
				Status:     current.Status,
				HolderID:   current.HolderID,
				LocationID: cmd.ToLocationID,
			}
		},
	}
)

func locationOr(target *int, current *int) *int {
	if target != nil {
		return target
	}
	return current
}

// apply re-reads the asset under lock, checks the transition, writes the new state and appends the ledger row.
func (s *Service) apply(ctx context.Context, tx *goqu.TxDatabase, cmd Command, t transition) (*Result, error) {
	asset, err := s.assets.LockAsset(ctx, tx, cmd.AssetID)
	if err != nil {
		return nil, err
	}

	if !t.allowed(asset.Status) {
		return nil, custom_error.NewInvalidTransition(t.operation, asset.Status.String(), metadata.AssetStatusStrings(t.required)...)
	}

	from := asset.State()
	to := t.next(from, cmd)

	if err := s.assets.UpdateAssetState(ctx, tx, asset.ID, to); err != nil {
		return nil, err
	}

	fromStatus := from.Status
	movement := &models.Movement{
		AssetID:        asset.ID,
		Type:           t.movement,
		FromStatus:     &fromStatus,
		ToStatus:       to.Status,
		FromUserID:     from.HolderID,
		ToUserID:       to.HolderID,
		FromLocationID: from.LocationID,
		ToLocationID:   to.LocationID,
		PerformedBy:    cmd.PerformedBy,
		RequestID:      cmd.RequestID,
		Notes:          cmd.Notes,
		Metadata:       cmd.Metadata,
	}
	if err := s.ledger.AppendMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	asset.ApplyState(to)
	return &Result{Asset: asset, Movement: movement}, nil
}

func (s *Service) requireActiveUser(ctx context.Context, field string, userID *int) error {
	if userID == nil {
		return custom_error.NewValidation(field, "target user is required")
	}

	user, err := s.users.GetUser(ctx, *userID)
	if err != nil {
		if custom_error.IsNotFound(err) {
			return custom_error.NewValidation(field, "user %d does not exist", *userID)
		}
		return err
	}
	if !user.IsActive {
		return custom_error.NewValidation(field, "user %d is not active", *userID)
	}
	return nil
}

// run executes op in its own transaction and publishes the audit trail after commit.
func (s *Service) run(ctx context.Context, op func(tx *goqu.TxDatabase) (*Result, error)) (*Result, error) {
	var result *Result
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		var err error
		result, err = op(tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Publish(result)
	return result, nil
}

// Publish emits the audit log entries of committed results. Failures never reach the caller.
func (s *Service) Publish(results ...*Result) {
	for _, result := range results {
		if result == nil || result.Movement == nil {
			continue
		}
		movement := *result.Movement
		go s.auditLog.Log(string(movement.Type), movement, &movement)
	}
}

// Create registers a new asset; the status is always in stock and a CREATE row opens its ledger.
func (s *Service) Create(ctx context.Context, asset models.Asset, performedBy int) (*Result, error) {
	return s.run(ctx, func(tx *goqu.TxDatabase) (*Result, error) {
		return s.CreateTx(ctx, tx, asset, performedBy)
	})
}

func (s *Service) CreateTx(ctx context.Context, tx *goqu.TxDatabase, asset models.Asset, performedBy int) (*Result, error) {
	if asset.Tag == "" {
		return nil, custom_error.NewValidation("tag", "is required")
	}
	if asset.Name == "" {
		return nil, custom_error.NewValidation("name", "is required")
	}

	asset.Status = metadata.AssetInStock
	asset.HolderID = nil
	asset.DeletedAt = nil

	id, err := s.assets.InsertAsset(ctx, tx, &asset)
	if err != nil {
		return nil, err
	}
	asset.ID = id

	movement := &models.Movement{
		AssetID:      id,
		Type:         metadata.MovementCreate,
		ToStatus:     asset.Status,
		ToLocationID: asset.LocationID,
		PerformedBy:  performedBy,
	}
	if err := s.ledger.AppendMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	return &Result{Asset: &asset, Movement: movement}, nil
}

func (s *Service) Assign(ctx context.Context, cmd Command) (*Result, error) {
	return s.run(ctx, func(tx *goqu.TxDatabase) (*Result, error) {
		return s.AssignTx(ctx, tx, cmd)
	})
}

func (s *Service) AssignTx(ctx context.Context, tx *goqu.TxDatabase, cmd Command) (*Result, error) {
	if err := s.requireActiveUser(ctx, "user_id", cmd.ToUserID); err != nil {
		return nil, err
	}
	return s.apply(ctx, tx, cmd, assignTransition)
}

func (s *Service) Return(ctx context.Context, cmd Command) (*Result, error) {
	return s.run(ctx, func(tx *goqu.TxDatabase) (*Result, error) {
		return s.ReturnTx(ctx, tx, cmd)
	})
}

func (s *Service) ReturnTx(ctx context.Context, tx *goqu.TxDatabase, cmd Command) (*Result, error) {
	return s.apply(ctx, tx, cmd, returnTransition)
}

func (s *Service) Transfer(ctx context.Context, cmd Command) (*Result, error) {
	return s.run(ctx, func(tx *goqu.TxDatabase) (*Result, error) {
		return s.TransferTx(ctx, tx, cmd)
	})
}

func (s *Service) TransferTx(ctx context.Context, tx *goqu.TxDatabase, cmd Command) (*Result, error) {
	if err := s.requireActiveUser(ctx, "user_id", cmd.ToUserID); err != nil {
		return nil, err
	}
	return s.apply(ctx, tx, cmd, transferTransition)
}

func (s *Service) SendForRepair(ctx context.Context, cmd Command) (*Result, error) {
	return s.run(ctx, func(tx *goqu.TxDatabase) (*Result, error) {
		return s.SendForRepairTx(ctx, tx, cmd)
	})
}

func (s *Service) SendForRepairTx(ctx context.Context, tx *goqu.TxDatabase, cmd Command) (*Result, error) {
	return s.apply(ctx, tx, cmd, repairOutTransition)
}

// ReturnFromRepair puts the asset back in stock, or assigns it when ToUserID is set.
func (s *Service) ReturnFromRepair(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.ToUserID != nil {
		if err := s.requireActiveUser(ctx, "user_id", cmd.ToUserID); err != nil {
			return nil, err
		}
	}
	return s.run(ctx, func(tx *goqu.TxDatabase) (*Result, error) {
		return s.apply(ctx, tx, cmd, repairInTransition)
	})
}

func (s *Service) Retire(ctx context.Context, cmd Command) (*Result, error) {
	return s.run(ctx, func(tx *goqu.TxDatabase) (*Result, error) {
		return s.apply(ctx, tx, cmd, retireTransition)
	})
}

func (s *Service) MarkLost(ctx context.Context, cmd Command) (*Result, error) {
	return s.run(ctx, func(tx *goqu.TxDatabase) (*Result, error) {
		return s.apply(ctx, tx, cmd, lostTransition)
	})
}

func (s *Service) MarkFound(ctx context.Context, cmd Command) (*Result, error) {
	return s.run(ctx, func(tx *goqu.TxDatabase) (*Result, error) {
		return s.apply(ctx, tx, cmd, foundTransition)
	})
}

func (s *Service) Dispose(ctx context.Context, cmd Command) (*Result, error) {
	return s.run(ctx, func(tx *goqu.TxDatabase) (*Result, error) {
		return s.apply(ctx, tx, cmd, disposeTransition)
	})
}

// Relocate moves the asset to another location without changing its status.
func (s *Service) Relocate(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.ToLocationID == nil {
		return nil, custom_error.NewValidation("location_id", "target location is required")
	}
	if cmd.Metadata == nil {
		cmd.Metadata = map[string]interface{}{}
	}
	cmd.Metadata["change"] = "relocate"

	return s.run(ctx, func(tx *goqu.TxDatabase) (*Result, error) {
		return s.apply(ctx, tx, cmd, relocateTransition)
	})
}

// UpdateDetails edits descriptive fields. The change is recorded as an UPDATE row whose
// from and to status are both the current status.
func (s *Service) UpdateDetails(ctx context.Context, assetID int, details models.AssetDetails, performedBy int) (*Result, error) {
	if details.Name != nil && *details.Name == "" {
		return nil, custom_error.NewValidation("name", "cannot be empty")
	}

	return s.run(ctx, func(tx *goqu.TxDatabase) (*Result, error) {
		asset, err := s.assets.LockAsset(ctx, tx, assetID)
		if err != nil {
			return nil, err
		}

		changed := details.Apply(asset)
		if len(changed) == 0 {
			return &Result{Asset: asset}, nil
		}

		if err := s.assets.UpdateAssetDetails(ctx, tx, asset); err != nil {
			return nil, err
		}

		status := asset.Status
		movement := &models.Movement{
			AssetID:        asset.ID,
			Type:           metadata.MovementUpdate,
			FromStatus:     &status,
			ToStatus:       status,
			FromUserID:     asset.HolderID,
			ToUserID:       asset.HolderID,
			FromLocationID: asset.LocationID,
			ToLocationID:   asset.LocationID,
			PerformedBy:    performedBy,
			Metadata:       map[string]interface{}{"change": "details", "fields": changed},
		}
		if err := s.ledger.AppendMovement(ctx, tx, movement); err != nil {
			return nil, err
		}

		return &Result{Asset: asset, Movement: movement}, nil
	})
}

// Archive soft deletes a retired or disposed asset.
func (s *Service) Archive(ctx context.Context, assetID int, performedBy int) (*models.Asset, error) {
	var archived *models.Asset
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		asset, err := s.assets.LockAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if !asset.Status.CanBeArchived() {
			return custom_error.NewInvalidTransition("archive", asset.Status.String(),
				metadata.AssetRetired.String(), metadata.AssetDisposed.String())
		}

		at := s.now()
		if err := s.assets.ArchiveAsset(ctx, tx, assetID, at); err != nil {
			return err
		}
		asset.DeletedAt = &at
		archived = asset
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.auditLog.Log("archive", map[string]interface{}{"performed_by": performedBy}, archived)
	return archived, nil
}

func (s *Service) History(ctx context.Context, assetID int) ([]models.Movement, error) {
	return s.ledger.GetAssetMovements(ctx, assetID)
}
