package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"siap/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

func (r *Repository) PersistLog(ctx context.Context, auditlog models.AuditLog, auditLogData interface{}) error {
	dataJSON, err := json.Marshal(auditLogData)
	if err != nil {
		return fmt.Errorf("failed to marshal audit log data: %w", err)
	}

	query := r.GoquDBWrapper.Insert("audit_logs").
		Rows(goqu.Record{
			"resource_id":   auditlog.ResourceID,
			"resource_type": auditlog.ResourceType,
			"action":        auditlog.Action,
			"data":          string(dataJSON),
			"user_id":       auditlog.UserID,
		})

	_, err = query.Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

func (r *Repository) GetResourceLogs(ctx context.Context, resourceType string, resourceID int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	query := r.GoquDBWrapper.From("audit_logs").
		Where(goqu.Ex{"resource_type": resourceType, "resource_id": resourceID}).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc())

	if err := query.ScanStructsContext(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to fetch audit logs: %w", err)
	}
	for i := range logs {
		logs[i].LoadFromDB()
	}

	return logs, nil
}
