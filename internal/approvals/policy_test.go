package approvals

import (
	"context"
	"testing"

	"siap/internal/testutil"
	custom_error "siap/pkg/errors"
	"siap/pkg/models"
	"siap/pkg/roles"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectApproverPicksLeastLoaded(t *testing.T) {
	store := testutil.NewMemStore()
	store.AddUser(10, roles.Manager, true) // A
	store.AddUser(11, roles.Manager, true) // B
	store.AddUser(12, roles.Admin, true)   // C
	store.AddPendingApprovals(10, 2)
	store.AddPendingApprovals(12, 1)

	chosen, err := NewPolicy(store).SelectApprover(context.Background(), nil, 1, 99)

	require.NoError(t, err)
	assert.Equal(t, 11, chosen.UserID)
	assert.Equal(t, 0, chosen.PendingCount)
}

func TestSelectApproverSkipsIneligibleUsers(t *testing.T) {
	store := testutil.NewMemStore()
	store.AddUser(10, roles.Employee, true)
	store.AddUser(11, roles.Manager, false)
	store.AddUser(12, roles.Manager, true)
	store.AddPendingApprovals(12, 5)

	chosen, err := NewPolicy(store).SelectApprover(context.Background(), nil, 1, 99)

	require.NoError(t, err)
	assert.Equal(t, 12, chosen.UserID)
}

func TestSelectApproverWithEmptyPool(t *testing.T) {
	store := testutil.NewMemStore()
	store.AddUser(10, roles.Employee, true)

	_, err := NewPolicy(store).SelectApprover(context.Background(), nil, 7, 99)

	var noApprover *custom_error.NoApproverAvailableError
	require.ErrorAs(t, err, &noApprover)
	assert.Equal(t, 7, noApprover.RequestID)
}

func TestSelectApproverSkipsRequester(t *testing.T) {
	store := testutil.NewMemStore()
	store.AddUser(10, roles.Manager, true)
	store.AddUser(11, roles.Manager, true)
	store.AddPendingApprovals(11, 3)

	chosen, err := NewPolicy(store).SelectApprover(context.Background(), nil, 1, 10)

	require.NoError(t, err)
	assert.Equal(t, 11, chosen.UserID)
}

func TestSelectApproverWhenRequesterIsOnlyApprover(t *testing.T) {
	store := testutil.NewMemStore()
	store.AddUser(10, roles.Manager, true)

	_, err := NewPolicy(store).SelectApprover(context.Background(), nil, 4, 10)

	var noApprover *custom_error.NoApproverAvailableError
	require.ErrorAs(t, err, &noApprover)
	assert.Equal(t, 4, noApprover.RequestID)
}

func TestLeastLoadedTieBreak(t *testing.T) {
	chosen, ok := LeastLoaded([]models.ApproverLoad{
		{UserID: 9, PendingCount: 1},
		{UserID: 4, PendingCount: 1},
		{UserID: 7, PendingCount: 3},
	})

	assert.True(t, ok)
	assert.Equal(t, 4, chosen.UserID)
}
