package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartmes/internal/storage"
)

const downtimeColumns = `report_id, order_id, equipment_id, downtime_type, description, start_time, end_time,
	duration_minutes, reporter_id, responder_id, response_notes, solution, status, attachments,
	created_at, updated_at, version`

func scanDowntime(row rowScanner) (*storage.DowntimeReport, error) {
	var r storage.DowntimeReport
	var end sql.NullTime
	var duration sql.NullInt64
	var responder, notes, solution sql.NullString

	err := row.Scan(
		&r.ID,
		&r.OrderID,
		&r.EquipmentID,
		&r.Type,
		&r.Description,
		&r.StartTime,
		&end,
		&duration,
		&r.ReporterID,
		&responder,
		&notes,
		&solution,
		&r.Status,
		&r.Attachments,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.Version,
	)
	if err != nil {
		return nil, err
	}

	r.EndTime = timePtr(end)
	if duration.Valid {
		d := int(duration.Int64)
		r.DurationMinutes = &d
	}
	r.ResponderID = stringPtr(responder)
	r.ResponseNotes = stringPtr(notes)
	r.Solution = stringPtr(solution)

	return &r, nil
}

func nullDuration(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func (s *Storage) InsertDowntime(ctx context.Context, r *storage.DowntimeReport) error {
	const op = "storage.mysql.InsertDowntime"

	stmt := `INSERT INTO downtime_report
		(order_id, equipment_id, downtime_type, description, start_time, end_time, duration_minutes,
		 reporter_id, responder_id, response_notes, solution, status, attachments, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`

	res, err := s.db.ExecContext(ctx, stmt,
		r.OrderID,
		r.EquipmentID,
		r.Type,
		r.Description,
		r.StartTime,
		nullTime(r.EndTime),
		nullDuration(r.DurationMinutes),
		r.ReporterID,
		nullString(r.ResponderID),
		nullString(r.ResponseNotes),
		nullString(r.Solution),
		r.Status,
		r.Attachments,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: equipment_id=%s: %w", op, r.EquipmentID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: last insert id: %w", op, err)
	}

	r.ID = id
	r.Version = 1
	return nil
}

func (s *Storage) GetDowntime(ctx context.Context, id int64) (*storage.DowntimeReport, error) {
	const op = "storage.mysql.GetDowntime"

	stmt := `SELECT ` + downtimeColumns + ` FROM downtime_report WHERE report_id = ?`

	r, err := scanDowntime(s.db.QueryRowContext(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%s: report_id=%d: %w", op, id, err)
	}

	return r, nil
}

func (s *Storage) UpdateDowntime(ctx context.Context, r *storage.DowntimeReport) error {
	const op = "storage.mysql.UpdateDowntime"

	stmt := `UPDATE downtime_report SET
			end_time = ?, duration_minutes = ?, responder_id = ?, response_notes = ?, solution = ?,
			status = ?, attachments = ?, updated_at = ?, version = version + 1
		WHERE report_id = ? AND version = ?`

	res, err := s.db.ExecContext(ctx, stmt,
		nullTime(r.EndTime),
		nullDuration(r.DurationMinutes),
		nullString(r.ResponderID),
		nullString(r.ResponseNotes),
		nullString(r.Solution),
		r.Status,
		r.Attachments,
		r.UpdatedAt,
		r.ID,
		r.Version,
	)
	if err != nil {
		return fmt.Errorf("%s: report_id=%d: %w", op, r.ID, err)
	}

	err = s.checkAffected(ctx, res, `SELECT 1 FROM downtime_report WHERE report_id = ?`, r.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrVersionConflict) {
			return err
		}
		return fmt.Errorf("%s: report_id=%d: %w", op, r.ID, err)
	}

	r.Version++
	return nil
}

func (s *Storage) DeleteDowntime(ctx context.Context, id int64) error {
	const op = "storage.mysql.DeleteDowntime"

	res, err := s.db.ExecContext(ctx, `DELETE FROM downtime_report WHERE report_id = ?`, id)
	if err != nil {
		return fmt.Errorf("%s: report_id=%d: %w", op, id, err)
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

func downtimeWhere(f storage.DowntimeFilter) *where {
	w := &where{}
	if f.OrderID != "" {
		w.add("order_id = ?", f.OrderID)
	}
	if f.EquipmentID != "" {
		w.add("equipment_id = ?", f.EquipmentID)
	}
	if f.Type != "" {
		w.add("downtime_type = ?", f.Type)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.ReporterID != "" {
		w.add("reporter_id = ?", f.ReporterID)
	}
	if f.StartFrom != nil {
		w.add("start_time >= ?", *f.StartFrom)
	}
	if f.StartTo != nil {
		w.add("start_time <= ?", *f.StartTo)
	}
	return w
}

func (s *Storage) FindDowntime(ctx context.Context, f storage.DowntimeFilter, page *storage.Page) ([]*storage.DowntimeReport, int64, error) {
	const op = "storage.mysql.FindDowntime"

	w := downtimeWhere(f)

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM downtime_report`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	stmt := `SELECT ` + downtimeColumns + ` FROM downtime_report` + w.String() + ` ORDER BY created_at DESC, report_id DESC`
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

	var reports []*storage.DowntimeReport
	for rows.Next() {
		r, err := scanDowntime(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: scan: %w", op, err)
		}
		reports = append(reports, r)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: rows: %w", op, err)
	}

	return reports, total, nil
}

func (s *Storage) AggregateDowntime(ctx context.Context, f storage.DowntimeFilter, top int) (*storage.DowntimeAggregate, error) {
	const op = "storage.mysql.AggregateDowntime"

	w := downtimeWhere(f)
	agg := &storage.DowntimeAggregate{
		ByStatus: make(map[storage.DowntimeStatus]int64),
		ByType:   make(map[storage.DowntimeType]int64),
	}

	stmtTotals := `SELECT COUNT(*), COALESCE(SUM(duration_minutes), 0) FROM downtime_report` + w.String()
	if err := s.db.QueryRowContext(ctx, stmtTotals, w.args...).Scan(&agg.Total, &agg.TotalMinutes); err != nil {
		return nil, fmt.Errorf("%s: totals: %w", op, err)
	}

	if err := s.countGrouped(ctx, "status", w, func(key string, n int64) {
		agg.ByStatus[storage.DowntimeStatus(key)] = n
	}); err != nil {
		return nil, fmt.Errorf("%s: by status: %w", op, err)
	}

	if err := s.countGrouped(ctx, "downtime_type", w, func(key string, n int64) {
		agg.ByType[storage.DowntimeType(key)] = n
	}); err != nil {
		return nil, fmt.Errorf("%s: by type: %w", op, err)
	}

	var err error
	agg.TopByIncidents, err = s.topEquipment(ctx, w, "incidents", top)
	if err != nil {
		return nil, fmt.Errorf("%s: top by incidents: %w", op, err)
	}

	agg.TopByDuration, err = s.topEquipment(ctx, w, "total_minutes", top)
	if err != nil {
		return nil, fmt.Errorf("%s: top by duration: %w", op, err)
	}

	return agg, nil
}

func (s *Storage) countGrouped(ctx context.Context, column string, w *where, fn func(key string, n int64)) error {
	stmt := `SELECT ` + column + `, COUNT(*) FROM downtime_report` + w.String() + ` GROUP BY ` + column

	rows, err := s.db.QueryContext(ctx, stmt, w.args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		fn(key, n)
	}

	return rows.Err()
}

// topEquipment ranks by orderBy (incidents | total_minutes); ties go to the
// equipment whose first report has the lowest id.
func (s *Storage) topEquipment(ctx context.Context, w *where, orderBy string, limit int) ([]storage.EquipmentDowntime, error) {
	stmt := `SELECT equipment_id, COUNT(*) AS incidents, COALESCE(SUM(duration_minutes), 0) AS total_minutes, MIN(report_id) AS first_id
		FROM downtime_report` + w.String() + `
		GROUP BY equipment_id
		ORDER BY ` + orderBy + ` DESC, first_id ASC
		LIMIT ?`

	args := append(append([]any{}, w.args...), limit)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []storage.EquipmentDowntime
	for rows.Next() {
		var st storage.EquipmentDowntime
		var firstID int64
		if err := rows.Scan(&st.EquipmentID, &st.Incidents, &st.TotalMinutes, &firstID); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}

	return stats, rows.Err()
}
