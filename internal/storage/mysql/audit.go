package mysql

import (
	"context"
	"fmt"

	"smartmes/internal/storage"
)

func (s *Storage) SaveAudit(ctx context.Context, e storage.AuditEntry) error {
	const op = "storage.mysql.SaveAudit"

	stmt := `INSERT INTO audit_log (log_id, user_id, username, operation, module, entity_id, details, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt, e.ID, e.UserID, e.Username, e.Operation, e.Module, e.EntityID, e.Details, e.IPAddress, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
