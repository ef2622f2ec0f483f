package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartmes/internal/storage"
)

const equipmentColumns = `equipment_id, equipment_name, equipment_type, line_id, status,
	last_maintenance_time, next_maintenance_time, location, remarks, created_at, updated_at`

func scanEquipment(row rowScanner) (*storage.Equipment, error) {
	var e storage.Equipment
	var last, next sql.NullTime

	err := row.Scan(&e.EquipmentID, &e.Name, &e.Type, &e.LineID, &e.Status, &last, &next, &e.Location, &e.Remarks, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	e.LastMaintenanceTime = timePtr(last)
	e.NextMaintenanceTime = timePtr(next)

	return &e, nil
}

func (s *Storage) GetEquipment(ctx context.Context, id string) (*storage.Equipment, error) {
	const op = "storage.mysql.GetEquipment"

	e, err := scanEquipment(s.db.QueryRowContext(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE equipment_id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%s: equipment_id=%s: %w", op, id, err)
	}

	return e, nil
}

func (s *Storage) InsertEquipment(ctx context.Context, e *storage.Equipment) error {
	const op = "storage.mysql.InsertEquipment"

	stmt := `INSERT INTO equipment (` + equipmentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt,
		e.EquipmentID, e.Name, e.Type, e.LineID, e.Status,
		nullTime(e.LastMaintenanceTime), nullTime(e.NextMaintenanceTime),
		e.Location, e.Remarks, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("%s: equipment_id=%s: %w", op, e.EquipmentID, err)
	}

	return nil
}

func (s *Storage) UpdateEquipment(ctx context.Context, e *storage.Equipment) error {
	const op = "storage.mysql.UpdateEquipment"

	stmt := `UPDATE equipment SET
			equipment_name = ?, equipment_type = ?, line_id = ?, status = ?,
			last_maintenance_time = ?, next_maintenance_time = ?, location = ?, remarks = ?, updated_at = ?
		WHERE equipment_id = ?`

	res, err := s.db.ExecContext(ctx, stmt,
		e.Name, e.Type, e.LineID, e.Status,
		nullTime(e.LastMaintenanceTime), nullTime(e.NextMaintenanceTime),
		e.Location, e.Remarks, e.UpdatedAt, e.EquipmentID,
	)
	if err != nil {
		return fmt.Errorf("%s: equipment_id=%s: %w", op, e.EquipmentID, err)
	}

	// MySQL reports 0 affected rows when nothing changed, so confirm the key.
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		if _, err := s.GetEquipment(ctx, e.EquipmentID); err != nil {
			return err
		}
	}

	return nil
}

func (s *Storage) DeleteEquipment(ctx context.Context, id string) error {
	const op = "storage.mysql.DeleteEquipment"

	res, err := s.db.ExecContext(ctx, `DELETE FROM equipment WHERE equipment_id = ?`, id)
	if err != nil {
		return fmt.Errorf("%s: equipment_id=%s: %w", op, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s *Storage) ListEquipment(ctx context.Context, lineID string) ([]*storage.Equipment, error) {
	const op = "storage.mysql.ListEquipment"

	stmt := `SELECT ` + equipmentColumns + ` FROM equipment`
	var args []any
	if lineID != "" {
		stmt += ` WHERE line_id = ?`
		args = append(args, lineID)
	}
	stmt += ` ORDER BY equipment_id`

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var list []*storage.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		list = append(list, e)
	}

	return list, rows.Err()
}

func (s *Storage) CountEquipmentByStatus(ctx context.Context) (map[storage.EquipmentStatus]int64, error) {
	const op = "storage.mysql.CountEquipmentByStatus"

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM equipment GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	counts := make(map[storage.EquipmentStatus]int64)
	for rows.Next() {
		var status storage.EquipmentStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		counts[status] = n
	}

	return counts, rows.Err()
}
