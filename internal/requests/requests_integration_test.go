package requests_test

import (
	"context"
	"testing"
	"time"

	"siap/internal/approvals"
	"siap/internal/repository"
	"siap/internal/requests"
	"siap/internal/testutil/dbtest"
	"siap/internal/users"
	custom_error "siap/pkg/errors"
	"siap/pkg/metadata"
	"siap/pkg/models"
	"siap/pkg/roles"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRepositoriesAgainstPostgres(t *testing.T) {
	db := dbtest.Start(t, 55434)
	ctx := context.Background()

	repo := repository.NewRepository(db)
	userRepo := users.NewRepository(repo)
	requestRepo := requests.NewRepository(repo)
	approvalRepo := approvals.NewRepository(repo)

	requesterID, err := userRepo.PersistUser(ctx, models.CreateUserRequest{Username: "it-requester", Role: roles.Employee}, []byte("x"))
	require.NoError(t, err)
	managerID, err := userRepo.PersistUser(ctx, models.CreateUserRequest{Username: "it-manager", Role: roles.Manager}, []byte("x"))
	require.NoError(t, err)

	requestID, err := requestRepo.InsertRequest(ctx, nil, &models.AssetRequest{
		RequestNumber: "REQ-2026-000001",
		RequesterID:   requesterID,
		Type:          metadata.RequestTypeNew,
		Status:        metadata.RequestDraft,
	})
	require.NoError(t, err)

	t.Run("deleting an item twice reports not found", func(t *testing.T) {
		items, err := requestRepo.InsertRequestItems(ctx, nil, requestID, []models.RequestItem{{Quantity: 1}})
		require.NoError(t, err)
		require.Len(t, items, 1)

		require.NoError(t, requestRepo.DeleteRequestItem(ctx, nil, requestID, items[0].ID))

		err = requestRepo.DeleteRequestItem(ctx, nil, requestID, items[0].ID)
		assert.True(t, custom_error.IsNotFound(err))
	})

	t.Run("a decided approval cannot be decided again", func(t *testing.T) {
		approval := &models.Approval{RequestID: requestID, ApproverID: managerID, Sequence: 1, Status: metadata.ApprovalPending}
		require.NoError(t, approvalRepo.InsertApproval(ctx, nil, approval))

		now := time.Now().UTC()
		approval.Status = metadata.ApprovalApproved
		approval.DecidedBy = &managerID
		approval.DecidedAt = &now
		require.NoError(t, approvalRepo.UpdateApproval(ctx, nil, approval))

		approval.Status = metadata.ApprovalRejected
		err := approvalRepo.UpdateApproval(ctx, nil, approval)
		assert.True(t, custom_error.IsInvalidTransition(err))
	})
}
