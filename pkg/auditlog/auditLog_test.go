package auditlog

import (
	"context"
	"errors"
	"testing"

	"siap/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockPersister struct {
	mock.Mock
}

func (m *MockPersister) PersistLog(ctx context.Context, auditlog models.AuditLog, data interface{}) error {
	args := m.Called(auditlog, data)
	return args.Error(0)
}

func TestLogStampsAction(t *testing.T) {
	persister := new(MockPersister)
	asset := &models.Asset{ID: 4}
	expected := models.AuditLog{ResourceID: 4, ResourceType: "asset", Action: "assign"}
	persister.On("PersistLog", expected, map[string]interface{}{"to": 2}).Return(nil)

	NewAuditLog(persister, zap.NewNop()).Log("assign", map[string]interface{}{"to": 2}, asset)

	persister.AssertExpectations(t)
}

func TestLogSwallowsPersistFailure(t *testing.T) {
	persister := new(MockPersister)
	persister.On("PersistLog", mock.Anything, mock.Anything).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		NewAuditLog(persister, zap.NewNop()).Log("retire", nil, &models.Asset{ID: 1})
	})
}
