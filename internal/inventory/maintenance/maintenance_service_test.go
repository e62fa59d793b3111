package maintenance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"siap/internal/testutil"
	custom_error "siap/pkg/errors"
	"siap/pkg/metadata"
	"siap/pkg/models"
	"siap/pkg/roles"
	"siap/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var technician = models.Actor{UserID: 5, Role: roles.Manager}

var today = time.Date(2026, time.April, 10, 8, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *testutil.MemStore, *testutil.AuditRecorder) {
	t.Helper()
	store := testutil.NewMemStore()
	audit := &testutil.AuditRecorder{}
	service := NewService(store, store, store, audit, zap.NewNop())
	service.now = func() time.Time { return today }
	return service, store, audit
}

func days(n int) *time.Time {
	at := today.AddDate(0, 0, n)
	return &at
}

func TestRecordMaintenance(t *testing.T) {
	s, store, audit := setup(t)
	asset := store.AddAsset(models.Asset{Tag: "AST-001", Name: "Printer", Status: metadata.AssetAssigned})

	record, err := s.Record(context.Background(), technician, asset.ID, RecordInput{
		Type:        "scheduled",
		Description: "  Replace fuser  ",
		Cost:        decimal.NewNullDecimal(decimal.RequireFromString("350000.50")),
		NextDueAt:   days(180),
	})
	require.NoError(t, err)

	assert.Equal(t, "Replace fuser", record.Description)
	assert.Equal(t, metadata.MaintenanceScheduled, record.Type)
	assert.Equal(t, today, record.PerformedAt)
	assert.True(t, record.Cost.Decimal.Equal(decimal.RequireFromString("350000.5")))

	assert.Equal(t, metadata.AssetAssigned, store.Asset(asset.ID).Status)
	assert.Equal(t, 0, store.MovementCount())
	assert.Eventually(t, func() bool { return audit.Count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRecordMaintenanceValidation(t *testing.T) {
	s, store, _ := setup(t)
	ctx := context.Background()
	asset := store.AddAsset(models.Asset{Tag: "AST-001", Name: "Printer", Status: metadata.AssetInStock})
	retired := store.AddAsset(models.Asset{Tag: "AST-002", Name: "Old printer", Status: metadata.AssetRetired})

	tests := []struct {
		name  string
		input RecordInput
	}{
		{"unknown type", RecordInput{Type: "yearly", Description: "x"}},
		{"blank description", RecordInput{Type: "adhoc", Description: "   "}},
		{"negative cost", RecordInput{Type: "adhoc", Description: "x", Cost: decimal.NewNullDecimal(decimal.NewFromInt(-1))}},
		{"due before performed", RecordInput{Type: "adhoc", Description: "x", PerformedAt: days(0), NextDueAt: days(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Record(ctx, technician, asset.ID, tt.input)
			assert.True(t, custom_error.IsValidation(err), "got %v", err)
		})
	}

	_, err := s.Record(ctx, technician, retired.ID, RecordInput{Type: "adhoc", Description: "x"})
	assert.True(t, custom_error.IsInvalidTransition(err))

	_, err = s.Record(ctx, technician, 404, RecordInput{Type: "adhoc", Description: "x"})
	assert.True(t, custom_error.IsNotFound(err))
}

func TestDueUsesLatestRecordPerAsset(t *testing.T) {
	s, store, _ := setup(t)
	ctx := context.Background()
	serviced := store.AddAsset(models.Asset{Tag: "AST-001", Name: "Generator", Status: metadata.AssetInStock})
	overdue := store.AddAsset(models.Asset{Tag: "AST-002", Name: "Forklift", Status: metadata.AssetInStock})

	_, err := s.Record(ctx, technician, serviced.ID, RecordInput{Type: "scheduled", Description: "Oil change", PerformedAt: days(-60), NextDueAt: days(-1)})
	require.NoError(t, err)
	_, err = s.Record(ctx, technician, serviced.ID, RecordInput{Type: "scheduled", Description: "Oil change", PerformedAt: days(-1), NextDueAt: days(90)})
	require.NoError(t, err)
	_, err = s.Record(ctx, technician, overdue.ID, RecordInput{Type: "scheduled", Description: "Brake check", PerformedAt: days(-30), NextDueAt: days(-2)})
	require.NoError(t, err)

	due, err := s.Due(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, overdue.ID, due[0].AssetID)

	history, err := s.History(ctx, serviced.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].PerformedAt.After(history[1].PerformedAt))
}

func TestHandlerRecordMaintenance(t *testing.T) {
	s, store, _ := setup(t)
	asset := store.AddAsset(models.Asset{Tag: "AST-001", Name: "Printer", Status: metadata.AssetInStock})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("")
	group.Use(func(c *gin.Context) { security.SetActor(c, technician) })
	NewHandler(s).RegisterRoutes(group)

	body := `{"maintenance_type":"adhoc","description":"Paper jam","cost":"12.50"}`
	req, _ := http.NewRequest(http.MethodPost, "/assets/"+jsonID(asset.ID)+"/maintenance", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	req, _ = http.NewRequest(http.MethodGet, "/maintenance/due?before=not-a-date", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func jsonID(id int) string {
	b, _ := json.Marshal(id)
	return string(b)
}
