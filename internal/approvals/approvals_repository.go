package approvals

import (
	"context"
	"fmt"
	"time"

	"siap/internal/repository"
	custom_error "siap/pkg/errors"
	"siap/pkg/metadata"
	"siap/pkg/models"
	"siap/pkg/roles"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

type ApprovalsRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *ApprovalsRepository {
	return &ApprovalsRepository{repository: r}
}

func (r *ApprovalsRepository) InsertApproval(ctx context.Context, tx *goqu.TxDatabase, approval *models.Approval) error {
	query := r.repository.Runner(tx).Insert("approvals").
		Rows(goqu.Record{
			"request_id":  approval.RequestID,
			"approver_id": approval.ApproverID,
			"sequence":    approval.Sequence,
			"status":      approval.Status,
		}).
		Returning("id", "created_at")

	if _, err := query.Executor().ScanStructContext(ctx, approval); err != nil {
		return custom_error.FromPQ(err, fmt.Sprintf("failed to create approval for request %d", approval.RequestID))
	}
	return nil
}

// FindPendingApproval locks the caller's pending slot on the request. It returns nil when there is none.
func (r *ApprovalsRepository) FindPendingApproval(ctx context.Context, tx *goqu.TxDatabase, requestID int, approverID int) (*models.Approval, error) {
	var approval models.Approval
	found, err := r.repository.Runner(tx).From("approvals").
		Where(goqu.Ex{
			"request_id":  requestID,
			"approver_id": approverID,
			"status":      metadata.ApprovalPending,
		}).
		Order(goqu.C("sequence").Asc()).
		Limit(1).
		ForUpdate(exp.Wait).
		ScanStructContext(ctx, &approval)

	if err != nil {
		return nil, fmt.Errorf("unable to select pending approval: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &approval, nil
}

func (r *ApprovalsRepository) UpdateApproval(ctx context.Context, tx *goqu.TxDatabase, approval *models.Approval) error {
	query := r.repository.Runner(tx).Update("approvals").
		Set(goqu.Record{
			"status":     approval.Status,
			"remarks":    approval.Remarks,
			"decided_by": approval.DecidedBy,
			"decided_at": approval.DecidedAt,
		}).
		Where(goqu.Ex{"id": approval.ID, "status": metadata.ApprovalPending})

	result, err := query.Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update approval %d: %w", approval.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows of approval %d: %w", approval.ID, err)
	}
	if affected == 0 {
		return custom_error.NewInvalidTransition("decide approval", "decided", metadata.ApprovalPending.String())
	}
	return nil
}

func (r *ApprovalsRepository) RejectPendingApprovals(ctx context.Context, tx *goqu.TxDatabase, requestID int, decidedBy int, remarks string, at time.Time) (int, error) {
	query := r.repository.Runner(tx).Update("approvals").
		Set(goqu.Record{
			"status":     metadata.ApprovalRejected,
			"remarks":    remarks,
			"decided_by": decidedBy,
			"decided_at": at,
		}).
		Where(goqu.Ex{"request_id": requestID, "status": metadata.ApprovalPending})

	result, err := query.Executor().ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reject pending approvals of request %d: %w", requestID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (r *ApprovalsRepository) GetRequestApprovals(ctx context.Context, requestID int) ([]models.Approval, error) {
	var approvals []models.Approval
	query := r.repository.GoquDBWrapper.From("approvals").
		Where(goqu.Ex{"request_id": requestID}).
		Order(goqu.C("sequence").Asc(), goqu.C("id").Asc())

	if err := query.ScanStructsContext(ctx, &approvals); err != nil {
		return nil, fmt.Errorf("unable to select approvals of request %d: %w", requestID, err)
	}
	return approvals, nil
}

// ListApproverCandidates counts pending approvals per active approver in one aggregate query.
func (r *ApprovalsRepository) ListApproverCandidates(ctx context.Context, tx *goqu.TxDatabase, eligibleRoles []roles.Role) ([]models.ApproverLoad, error) {
	roleNames := make([]string, 0, len(eligibleRoles))
	for _, role := range eligibleRoles {
		roleNames = append(roleNames, role.String())
	}

	query := r.repository.Runner(tx).
		From(goqu.T("users").As("u")).
		LeftJoin(
			goqu.T("approvals").As("a"),
			goqu.On(goqu.Ex{
				"a.approver_id": goqu.I("u.id"),
				"a.status":      metadata.ApprovalPending,
			}),
		).
		Select(
			goqu.I("u.id").As("user_id"),
			goqu.I("u.username").As("username"),
			goqu.I("u.role").As("role"),
			goqu.COUNT(goqu.I("a.id")).As("pending_count"),
		).
		Where(goqu.Ex{
			"u.is_active": true,
			"u.role":      roleNames,
		}).
		GroupBy(goqu.I("u.id"), goqu.I("u.username"), goqu.I("u.role")).
		Order(goqu.L("pending_count").Asc(), goqu.I("u.id").Asc())

	var candidates []models.ApproverLoad
	if err := query.ScanStructsContext(ctx, &candidates); err != nil {
		return nil, fmt.Errorf("unable to list approver candidates: %w", err)
	}
	return candidates, nil
}
