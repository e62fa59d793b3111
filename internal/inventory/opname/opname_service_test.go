package opname

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
	warehouse = 7
	branch    = 8
)

var auditor = models.Actor{UserID: 1, Role: roles.Manager}

func intPtr(v int) *int {
	return &v
}

func setup(t *testing.T) (*Service, *testutil.MemStore, *testutil.AuditRecorder) {
	t.Helper()
	store := testutil.NewMemStore()
	store.AddUser(auditor.UserID, roles.Manager, true)

	audit := &testutil.AuditRecorder{}
	service := NewService(store, store, store, audit, zap.NewNop())
	service.now = func() time.Time { return time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC) }
	return service, store, audit
}

func seed(store *testutil.MemStore, tag string, status metadata.AssetStatus, location int) models.Asset {
	return store.AddAsset(models.Asset{Tag: tag, Name: tag, Status: status, LocationID: intPtr(location)})
}

func detailFor(details []models.StockOpnameDetail, assetID int) *models.StockOpnameDetail {
	for i := range details {
		if details[i].AssetID == assetID {
			return &details[i]
		}
	}
	return nil
}

func TestCreateSnapshotsExpectedAssets(t *testing.T) {
	s, store, _ := setup(t)
	inStock := seed(store, "AST-001", metadata.AssetInStock, warehouse)
	assigned := seed(store, "AST-002", metadata.AssetAssigned, warehouse)
	seed(store, "AST-003", metadata.AssetInRepair, warehouse)
	seed(store, "AST-004", metadata.AssetInStock, branch)

	opname, err := s.Create(context.Background(), auditor, warehouse, nil)
	require.NoError(t, err)

	assert.Equal(t, "OPN-2026-000001", opname.Number)
	assert.Equal(t, metadata.OpnameDraft, opname.Status)
	require.Len(t, opname.Details, 2)
	for _, assetID := range []int{inStock.ID, assigned.ID} {
		detail := detailFor(opname.Details, assetID)
		require.NotNil(t, detail)
		assert.Equal(t, metadata.DetailMissing, detail.Status)
		assert.Nil(t, detail.ScannedAt)
	}
}

func TestCreateRollsBackOnSnapshotFailure(t *testing.T) {
	s, store, _ := setup(t)
	seed(store, "AST-001", metadata.AssetInStock, warehouse)
	store.FailOn("InsertOpnameDetails", errors.New("connection reset"))

	_, err := s.Create(context.Background(), auditor, warehouse, nil)
	require.Error(t, err)

	opnames, err := store.ListOpnames(context.Background(), nil, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, opnames)
}

func TestScanIsIdempotent(t *testing.T) {
	s, store, _ := setup(t)
	ctx := context.Background()
	asset := seed(store, "AST-001", metadata.AssetInStock, warehouse)

	opname, err := s.Create(ctx, auditor, warehouse, nil)
	require.NoError(t, err)
	_, err = s.Start(ctx, auditor, opname.ID)
	require.NoError(t, err)

	first, err := s.Scan(ctx, auditor, opname.ID, "AST-001")
	require.NoError(t, err)
	require.NotNil(t, first.ScannedAt)
	firstScan := *first.ScannedAt

	later := firstScan.Add(time.Hour)
	s.now = func() time.Time { return later }
	second, err := s.Scan(ctx, auditor, opname.ID, " AST-001 ")
	require.NoError(t, err)

	assert.Equal(t, metadata.DetailFound, first.Status)
	assert.Equal(t, metadata.DetailFound, second.Status)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.ScannedAt)
	assert.Equal(t, later, *second.ScannedAt)

	details := store.OpnameDetails(opname.ID)
	require.Len(t, details, 1)
	assert.Equal(t, asset.ID, details[0].AssetID)
	assert.Equal(t, metadata.DetailFound, details[0].Status)
	require.NotNil(t, details[0].ScannedAt)
	assert.Equal(t, later, *details[0].ScannedAt)
	require.NotNil(t, details[0].ScannedBy)
	assert.Equal(t, auditor.UserID, *details[0].ScannedBy)
}

func TestScanDetectsUnlistedAssets(t *testing.T) {
	s, store, _ := setup(t)
	ctx := context.Background()
	seed(store, "AST-001", metadata.AssetInStock, warehouse)
	stray := seed(store, "AST-900", metadata.AssetInStock, branch)

	opname, err := s.Create(ctx, auditor, warehouse, nil)
	require.NoError(t, err)
	_, err = s.Start(ctx, auditor, opname.ID)
	require.NoError(t, err)

	detail, err := s.Scan(ctx, auditor, opname.ID, "AST-900")
	require.NoError(t, err)
	assert.Equal(t, metadata.DetailUnlisted, detail.Status)
	assert.Equal(t, stray.ID, detail.AssetID)

	_, err = s.Scan(ctx, auditor, opname.ID, "AST-900")
	require.NoError(t, err)

	summary, err := s.Summary(ctx, opname.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OpnameSummary{Missing: 1, Found: 0, Unlisted: 1}, summary)
}

func TestScanGuards(t *testing.T) {
	s, store, _ := setup(t)
	ctx := context.Background()
	seed(store, "AST-001", metadata.AssetInStock, warehouse)

	opname, err := s.Create(ctx, auditor, warehouse, nil)
	require.NoError(t, err)

	_, err = s.Scan(ctx, auditor, opname.ID, "AST-001")
	assert.True(t, custom_error.IsInvalidTransition(err), "scan before start: %v", err)

	_, err = s.Start(ctx, auditor, opname.ID)
	require.NoError(t, err)

	_, err = s.Scan(ctx, auditor, opname.ID, "NOPE-1")
	assert.True(t, custom_error.IsNotFound(err))

	_, err = s.Scan(ctx, auditor, opname.ID, "")
	assert.True(t, custom_error.IsValidation(err))
}

func TestFinalizeCompletesSession(t *testing.T) {
	s, store, audit := setup(t)
	ctx := context.Background()
	seed(store, "AST-001", metadata.AssetInStock, warehouse)
	seed(store, "AST-002", metadata.AssetAssigned, warehouse)

	opname, err := s.Create(ctx, auditor, warehouse, nil)
	require.NoError(t, err)
	_, err = s.Start(ctx, auditor, opname.ID)
	require.NoError(t, err)
	_, err = s.Scan(ctx, auditor, opname.ID, "AST-002")
	require.NoError(t, err)

	completed, err := s.Finalize(ctx, auditor, opname.ID)
	require.NoError(t, err)

	assert.Equal(t, metadata.OpnameCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	assert.Equal(t, models.OpnameSummary{Missing: 1, Found: 1}, models.SummarizeDetails(completed.Details))
	assert.Equal(t, metadata.AssetInStock, store.Asset(completed.Details[0].AssetID).Status)

	assert.Eventually(t, func() bool { return audit.Count() == 1 }, time.Second, 10*time.Millisecond)

	_, err = s.Scan(ctx, auditor, opname.ID, "AST-001")
	assert.True(t, custom_error.IsInvalidTransition(err))
	_, err = s.Cancel(ctx, auditor, opname.ID)
	assert.True(t, custom_error.IsInvalidTransition(err))
}

func TestCancelAndStartGuards(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()

	opname, err := s.Create(ctx, auditor, warehouse, nil)
	require.NoError(t, err)
	assert.Empty(t, opname.Details)

	cancelled, err := s.Cancel(ctx, auditor, opname.ID)
	require.NoError(t, err)
	assert.Equal(t, metadata.OpnameCancelled, cancelled.Status)

	_, err = s.Start(ctx, auditor, opname.ID)
	assert.True(t, custom_error.IsInvalidTransition(err))

	_, err = s.Get(ctx, 999)
	assert.True(t, custom_error.IsNotFound(err))

	_, err = s.Create(ctx, auditor, 0, nil)
	assert.True(t, custom_error.IsValidation(err))
}
