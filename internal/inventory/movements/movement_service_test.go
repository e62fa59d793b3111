package movements

import (
	"context"
	"errors"
	"testing"
	"time"

	"siap/internal/testutil"
	custom_error "siap/pkg/errors"
	"siap/pkg/metadata"
	"siap/pkg/models"
	"siap/pkg/roles"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	admin    = 1
	employee = 2
	other    = 3
	inactive = 4
)

func setupService(t *testing.T) (*Service, *testutil.MemStore, *testutil.AuditRecorder) {
	t.Helper()
	store := testutil.NewMemStore()
	store.AddUser(admin, roles.Admin, true)
	store.AddUser(employee, roles.Employee, true)
	store.AddUser(other, roles.Employee, true)
	store.AddUser(inactive, roles.Employee, false)

	audit := &testutil.AuditRecorder{}
	return NewService(store, store, store, store, audit, zap.NewNop()), store, audit
}

func intPtr(v int) *int {
	return &v
}

func createAsset(t *testing.T, s *Service, tag string) *models.Asset {
	t.Helper()
	result, err := s.Create(context.Background(), models.Asset{Tag: tag, Name: "Laptop", LocationID: intPtr(10)}, admin)
	require.NoError(t, err)
	return result.Asset
}

// assertLedgerConsistent checks that the asset status equals the to_status of its latest movement.
func assertLedgerConsistent(t *testing.T, store *testutil.MemStore, assetID int) {
	t.Helper()
	movements := store.Movements(assetID)
	require.NotEmpty(t, movements)
	latest := movements[len(movements)-1]
	asset := store.Asset(assetID)
	assert.Equal(t, asset.Status, latest.ToStatus)
	assert.Equal(t, asset.HolderID, latest.ToUserID)
	assert.Equal(t, asset.LocationID, latest.ToLocationID)
}

func TestCreateThenAssign(t *testing.T) {
	s, store, audit := setupService(t)
	ctx := context.Background()

	asset := createAsset(t, s, "AST-001")
	assert.Equal(t, metadata.AssetInStock, asset.Status)

	result, err := s.Assign(ctx, Command{AssetID: asset.ID, PerformedBy: admin, ToUserID: intPtr(employee)})
	require.NoError(t, err)

	assert.Equal(t, metadata.AssetAssigned, result.Asset.Status)
	stored := store.Asset(asset.ID)
	assert.Equal(t, metadata.AssetAssigned, stored.Status)
	require.NotNil(t, stored.HolderID)
	assert.Equal(t, employee, *stored.HolderID)

	movements := store.Movements(asset.ID)
	require.Len(t, movements, 2)
	assert.Equal(t, metadata.MovementCreate, movements[0].Type)
	assert.Nil(t, movements[0].FromStatus)
	assert.Equal(t, metadata.MovementAssign, movements[1].Type)
	assert.Equal(t, metadata.AssetInStock, *movements[1].FromStatus)
	assert.True(t, movements[0].CreatedAt.Before(movements[1].CreatedAt))
	assertLedgerConsistent(t, store, asset.ID)

	assert.Eventually(t, func() bool { return audit.Count() == 2 }, time.Second, 10*time.Millisecond)
}

func TestCreateForcesInStock(t *testing.T) {
	s, store, _ := setupService(t)

	result, err := s.Create(context.Background(), models.Asset{
		Tag: "AST-002", Name: "Car", Status: metadata.AssetAssigned, HolderID: intPtr(employee),
	}, admin)
	require.NoError(t, err)

	stored := store.Asset(result.Asset.ID)
	assert.Equal(t, metadata.AssetInStock, stored.Status)
	assert.Nil(t, stored.HolderID)
}

func TestCreateRejectsDuplicateTag(t *testing.T) {
	s, store, _ := setupService(t)
	createAsset(t, s, "AST-001")

	_, err := s.Create(context.Background(), models.Asset{Tag: "AST-001", Name: "Again"}, admin)

	assert.True(t, custom_error.IsUniqueViolation(err))
	assert.Equal(t, 1, store.MovementCount())
}

func TestAssignRequiresInStock(t *testing.T) {
	s, store, _ := setupService(t)
	ctx := context.Background()
	asset := createAsset(t, s, "AST-001")
	_, err := s.Assign(ctx, Command{AssetID: asset.ID, PerformedBy: admin, ToUserID: intPtr(employee)})
	require.NoError(t, err)

	before := store.Asset(asset.ID)
	movementsBefore := store.MovementCount()

	_, err = s.Assign(ctx, Command{AssetID: asset.ID, PerformedBy: admin, ToUserID: intPtr(other)})

	var transitionErr *custom_error.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "assigned", transitionErr.Current)
	assert.Equal(t, []string{"in_stock"}, transitionErr.Required)
	assert.Equal(t, before, store.Asset(asset.ID))
	assert.Equal(t, movementsBefore, store.MovementCount())
}

func TestAssignRejectsUnknownOrInactiveUser(t *testing.T) {
	s, store, _ := setupService(t)
	asset := createAsset(t, s, "AST-001")

	tests := []struct {
		name   string
		userID *int
	}{
		{"missing user", nil},
		{"unknown user", intPtr(99)},
		{"inactive user", intPtr(inactive)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Assign(context.Background(), Command{AssetID: asset.ID, PerformedBy: admin, ToUserID: tt.userID})
			assert.True(t, custom_error.IsValidation(err))
			assert.Equal(t, metadata.AssetInStock, store.Asset(asset.ID).Status)
		})
	}
}

func TestLedgerWriteFailureRollsBackAssetState(t *testing.T) {
	s, store, audit := setupService(t)
	asset := createAsset(t, s, "AST-001")
	store.FailOn("AppendMovement", errors.New("disk full"))

	_, err := s.Assign(context.Background(), Command{AssetID: asset.ID, PerformedBy: admin, ToUserID: intPtr(employee)})

	assert.EqualError(t, err, "disk full")
	assert.Equal(t, metadata.AssetInStock, store.Asset(asset.ID).Status)
	assert.Nil(t, store.Asset(asset.ID).HolderID)
	assert.Len(t, store.Movements(asset.ID), 1)
	assert.Never(t, func() bool { return audit.Count() > 1 }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestFullLifecycleKeepsLedgerConsistent(t *testing.T) {
	s, store, _ := setupService(t)
	ctx := context.Background()
	asset := createAsset(t, s, "AST-001")
	cmd := Command{AssetID: asset.ID, PerformedBy: admin}

	steps := []struct {
		name     string
		run      func() (*Result, error)
		expected metadata.AssetStatus
		holder   *int
	}{
		{"assign", func() (*Result, error) {
			c := cmd
			c.ToUserID = intPtr(employee)
			return s.Assign(ctx, c)
		}, metadata.AssetAssigned, intPtr(employee)},
		{"transfer", func() (*Result, error) {
			c := cmd
			c.ToUserID = intPtr(other)
			return s.Transfer(ctx, c)
		}, metadata.AssetAssigned, intPtr(other)},
		{"repair out", func() (*Result, error) { return s.SendForRepair(ctx, cmd) }, metadata.AssetInRepair, nil},
		{"repair in with reassignment", func() (*Result, error) {
			c := cmd
			c.ToUserID = intPtr(employee)
			return s.ReturnFromRepair(ctx, c)
		}, metadata.AssetAssigned, intPtr(employee)},
		{"return", func() (*Result, error) { return s.Return(ctx, cmd) }, metadata.AssetInStock, nil},
		{"relocate", func() (*Result, error) {
			c := cmd
			c.ToLocationID = intPtr(20)
			return s.Relocate(ctx, c)
		}, metadata.AssetInStock, nil},
		{"lost", func() (*Result, error) { return s.MarkLost(ctx, cmd) }, metadata.AssetLost, nil},
		{"found", func() (*Result, error) { return s.MarkFound(ctx, cmd) }, metadata.AssetInStock, nil},
		{"repair out from stock", func() (*Result, error) { return s.SendForRepair(ctx, cmd) }, metadata.AssetInRepair, nil},
		{"repair in to stock", func() (*Result, error) { return s.ReturnFromRepair(ctx, cmd) }, metadata.AssetInStock, nil},
		{"retire", func() (*Result, error) { return s.Retire(ctx, cmd) }, metadata.AssetRetired, nil},
		{"dispose", func() (*Result, error) { return s.Dispose(ctx, cmd) }, metadata.AssetDisposed, nil},
	}

	for _, step := range steps {
		result, err := step.run()
		require.NoError(t, err, step.name)
		assert.Equal(t, step.expected, result.Asset.Status, step.name)
		assert.Equal(t, step.holder, store.Asset(asset.ID).HolderID, step.name)
		assertLedgerConsistent(t, store, asset.ID)
	}

	assert.Len(t, store.Movements(asset.ID), len(steps)+1)
	assert.Equal(t, 20, *store.Asset(asset.ID).LocationID)
}

func TestIllegalTransitions(t *testing.T) {
	tests := []struct {
		name   string
		status metadata.AssetStatus
		run    func(s *Service, ctx context.Context, cmd Command) (*Result, error)
	}{
		{"return from stock", metadata.AssetInStock, (*Service).Return},
		{"transfer from stock", metadata.AssetInStock, func(s *Service, ctx context.Context, cmd Command) (*Result, error) {
			cmd.ToUserID = intPtr(other)
			return s.Transfer(ctx, cmd)
		}},
		{"repair a retired asset", metadata.AssetRetired, (*Service).SendForRepair},
		{"repair a disposed asset", metadata.AssetDisposed, (*Service).SendForRepair},
		{"repair return when not in repair", metadata.AssetAssigned, (*Service).ReturnFromRepair},
		{"found when not lost", metadata.AssetInStock, (*Service).MarkFound},
		{"dispose when not retired", metadata.AssetAssigned, (*Service).Dispose},
		{"relocate a disposed asset", metadata.AssetDisposed, func(s *Service, ctx context.Context, cmd Command) (*Result, error) {
			cmd.ToLocationID = intPtr(3)
			return s.Relocate(ctx, cmd)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store, _ := setupService(t)
			asset := store.AddAsset(models.Asset{Tag: "X-1", Name: "X", Status: tt.status})

			_, err := tt.run(s, context.Background(), Command{AssetID: asset.ID, PerformedBy: admin})

			assert.True(t, custom_error.IsInvalidTransition(err), "got %v", err)
			assert.Equal(t, tt.status, store.Asset(asset.ID).Status)
			assert.Zero(t, store.MovementCount())
		})
	}
}

func TestRetireAndLoseFromAnyStatus(t *testing.T) {
	for _, status := range []metadata.AssetStatus{
		metadata.AssetInStock, metadata.AssetAssigned, metadata.AssetInRepair, metadata.AssetLost,
	} {
		t.Run(string(status), func(t *testing.T) {
			s, store, _ := setupService(t)
			asset := store.AddAsset(models.Asset{Tag: "X-1", Name: "X", Status: status, HolderID: intPtr(employee)})

			result, err := s.MarkLost(context.Background(), Command{AssetID: asset.ID, PerformedBy: admin})
			require.NoError(t, err)
			assert.Equal(t, metadata.AssetLost, result.Asset.Status)
			assert.Nil(t, result.Asset.HolderID)

			result, err = s.Retire(context.Background(), Command{AssetID: asset.ID, PerformedBy: admin})
			require.NoError(t, err)
			assert.Equal(t, metadata.AssetRetired, result.Asset.Status)
		})
	}
}

func TestUpdateDetailsAppendsUpdateMovement(t *testing.T) {
	s, store, _ := setupService(t)
	asset := createAsset(t, s, "AST-001")
	name := "Laptop 14"

	result, err := s.UpdateDetails(context.Background(), asset.ID, models.AssetDetails{Name: &name}, admin)
	require.NoError(t, err)

	require.NotNil(t, result.Movement)
	assert.Equal(t, metadata.MovementUpdate, result.Movement.Type)
	assert.Equal(t, metadata.AssetInStock, *result.Movement.FromStatus)
	assert.Equal(t, metadata.AssetInStock, result.Movement.ToStatus)
	assert.Equal(t, "Laptop 14", store.Asset(asset.ID).Name)
	assert.Equal(t, "AST-001", store.Asset(asset.ID).Tag)
	assertLedgerConsistent(t, store, asset.ID)
}

func TestUpdateDetailsWithoutChangesRecordsNothing(t *testing.T) {
	s, store, _ := setupService(t)
	asset := createAsset(t, s, "AST-001")

	result, err := s.UpdateDetails(context.Background(), asset.ID, models.AssetDetails{}, admin)
	require.NoError(t, err)

	assert.Nil(t, result.Movement)
	assert.Len(t, store.Movements(asset.ID), 1)
}

func TestArchive(t *testing.T) {
	s, store, _ := setupService(t)
	ctx := context.Background()
	asset := createAsset(t, s, "AST-001")

	_, err := s.Archive(ctx, asset.ID, admin)
	assert.True(t, custom_error.IsInvalidTransition(err))

	_, err = s.Retire(ctx, Command{AssetID: asset.ID, PerformedBy: admin})
	require.NoError(t, err)

	archived, err := s.Archive(ctx, asset.ID, admin)
	require.NoError(t, err)
	assert.NotNil(t, archived.DeletedAt)
	assert.Equal(t, metadata.AssetRetired, store.Asset(asset.ID).Status)

	_, err = s.Dispose(ctx, Command{AssetID: asset.ID, PerformedBy: admin})
	assert.True(t, custom_error.IsNotFound(err))

	history, err := s.History(ctx, asset.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
