package auditlog

import (
	"context"
	"time"

	"siap/pkg/models"

	"go.uber.org/zap"
)

type Persister interface {
	PersistLog(ctx context.Context, auditlog models.AuditLog, data interface{}) error
}

type Auditlog struct {
	r      Persister
	logger *zap.Logger
}

type Auditable interface {
	CreateLogView() models.AuditLog
}

const persistTimeout = 5 * time.Second

// Log is best effort; failures are logged and never returned to the caller.
func (a *Auditlog) Log(action string, data interface{}, item Auditable) {
	auditLog := item.CreateLogView()
	auditLog.Action = action

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := a.r.PersistLog(ctx, auditLog, data); err != nil {
		a.logger.Error("Unable to create AuditLog entry",
			zap.String("resource_type", auditLog.ResourceType),
			zap.Int("resource_id", auditLog.ResourceID),
			zap.String("action", action),
			zap.Error(err))
		return
	}

	a.logger.Debug("Created AuditLog entry",
		zap.String("resource_type", auditLog.ResourceType),
		zap.Int("resource_id", auditLog.ResourceID),
		zap.String("action", action))
}

func NewAuditLog(repository Persister, logger *zap.Logger) *Auditlog {
	return &Auditlog{r: repository, logger: logger}
}
