package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartmes/internal/storage"
)

const workOrderColumns = `order_no, product_code, line_id, batch_no, plan_qty, actual_qty, status,
	start_time, end_time, equipment_id, operator_id, created_by, remarks, created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkOrder(row rowScanner) (*storage.WorkOrder, error) {
	var wo storage.WorkOrder
	var start, end sql.NullTime

	err := row.Scan(
		&wo.OrderNo,
		&wo.ProductCode,
		&wo.LineID,
		&wo.BatchNo,
		&wo.PlanQty,
		&wo.ActualQty,
		&wo.Status,
		&start,
		&end,
		&wo.EquipmentID,
		&wo.OperatorID,
		&wo.CreatedBy,
		&wo.Remarks,
		&wo.CreatedAt,
		&wo.UpdatedAt,
		&wo.Version,
	)
	if err != nil {
		return nil, err
	}

	wo.StartTime = timePtr(start)
	wo.EndTime = timePtr(end)

	return &wo, nil
}

func (s *Storage) GetWorkOrder(ctx context.Context, orderNo string) (*storage.WorkOrder, error) {
	const op = "storage.mysql.GetWorkOrder"

	stmt := `SELECT ` + workOrderColumns + ` FROM work_order WHERE order_no = ?`

	wo, err := scanWorkOrder(s.db.QueryRowContext(ctx, stmt, orderNo))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%s: order_no=%s: %w", op, orderNo, err)
	}

	return wo, nil
}

func (s *Storage) WorkOrderExists(ctx context.Context, orderNo string) (bool, error) {
	const op = "storage.mysql.WorkOrderExists"

	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM work_order WHERE order_no = ?)`, orderNo).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (s *Storage) InsertWorkOrder(ctx context.Context, wo *storage.WorkOrder) error {
	const op = "storage.mysql.InsertWorkOrder"

	stmt := `INSERT INTO work_order (` + workOrderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`

	_, err := s.db.ExecContext(ctx, stmt,
		wo.OrderNo,
		wo.ProductCode,
		wo.LineID,
		wo.BatchNo,
		wo.PlanQty,
		wo.ActualQty,
		wo.Status,
		nullTime(wo.StartTime),
		nullTime(wo.EndTime),
		wo.EquipmentID,
		wo.OperatorID,
		wo.CreatedBy,
		wo.Remarks,
		wo.CreatedAt,
		wo.UpdatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("%s: order_no=%s: %w", op, wo.OrderNo, err)
	}

	wo.Version = 1
	return nil
}

func (s *Storage) UpdateWorkOrder(ctx context.Context, wo *storage.WorkOrder) error {
	const op = "storage.mysql.UpdateWorkOrder"

	stmt := `UPDATE work_order SET
			product_code = ?, line_id = ?, batch_no = ?, plan_qty = ?, actual_qty = ?, status = ?,
			start_time = ?, end_time = ?, equipment_id = ?, operator_id = ?, remarks = ?,
			updated_at = ?, version = version + 1
		WHERE order_no = ? AND version = ?`

	res, err := s.db.ExecContext(ctx, stmt,
		wo.ProductCode,
		wo.LineID,
		wo.BatchNo,
		wo.PlanQty,
		wo.ActualQty,
		wo.Status,
		nullTime(wo.StartTime),
		nullTime(wo.EndTime),
		wo.EquipmentID,
		wo.OperatorID,
		wo.Remarks,
		wo.UpdatedAt,
		wo.OrderNo,
		wo.Version,
	)
	if err != nil {
		return fmt.Errorf("%s: order_no=%s: %w", op, wo.OrderNo, err)
	}

	err = s.checkAffected(ctx, res, `SELECT 1 FROM work_order WHERE order_no = ?`, wo.OrderNo)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrVersionConflict) {
			return err
		}
		return fmt.Errorf("%s: order_no=%s: %w", op, wo.OrderNo, err)
	}

	wo.Version++
	return nil
}

func (s *Storage) DeleteWorkOrder(ctx context.Context, orderNo string) error {
	const op = "storage.mysql.DeleteWorkOrder"

	res, err := s.db.ExecContext(ctx, `DELETE FROM work_order WHERE order_no = ?`, orderNo)
	if err != nil {
		return fmt.Errorf("%s: order_no=%s: %w", op, orderNo, err)
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

func workOrderWhere(f storage.WorkOrderFilter) *where {
	w := &where{}
	if f.ProductCode != "" {
		w.add("product_code = ?", f.ProductCode)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.LineID != "" {
		w.add("line_id = ?", f.LineID)
	}
	if f.CreatedFrom != nil {
		w.add("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		w.add("created_at <= ?", *f.CreatedTo)
	}
	return w
}

func (s *Storage) FindWorkOrders(ctx context.Context, f storage.WorkOrderFilter, page *storage.Page) ([]*storage.WorkOrder, int64, error) {
	const op = "storage.mysql.FindWorkOrders"

	w := workOrderWhere(f)

	total, err := s.CountWorkOrders(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	stmt := `SELECT ` + workOrderColumns + ` FROM work_order` + w.String() + ` ORDER BY created_at DESC, order_no ASC`
	args := w.args
	if page != nil {
		stmt += ` LIMIT ? OFFSET ?`
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var orders []*storage.WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: scan: %w", op, err)
		}
		orders = append(orders, wo)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: rows: %w", op, err)
	}

	return orders, total, nil
}

func (s *Storage) CountWorkOrders(ctx context.Context, f storage.WorkOrderFilter) (int64, error) {
	const op = "storage.mysql.CountWorkOrders"

	w := workOrderWhere(f)

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM work_order`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
