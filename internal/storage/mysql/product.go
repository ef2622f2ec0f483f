package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartmes/internal/storage"
)

const productColumns = `product_code, product_name, specification, product_type, unit,
	standard_work_time, status, remarks, created_at, updated_at`

func scanProduct(row rowScanner) (*storage.Product, error) {
	var p storage.Product

	err := row.Scan(&p.Code, &p.Name, &p.Specification, &p.Type, &p.Unit, &p.StandardWorkTime, &p.Status, &p.Remarks, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (s *Storage) GetProduct(ctx context.Context, code string) (*storage.Product, error) {
	const op = "storage.mysql.GetProduct"

	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM product WHERE product_code = ?`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%s: product_code=%s: %w", op, code, err)
	}

	return p, nil
}

func (s *Storage) InsertProduct(ctx context.Context, p *storage.Product) error {
	const op = "storage.mysql.InsertProduct"

	stmt := `INSERT INTO product (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt,
		p.Code, p.Name, p.Specification, p.Type, p.Unit,
		p.StandardWorkTime, p.Status, p.Remarks, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("%s: product_code=%s: %w", op, p.Code, err)
	}

	return nil
}

func (s *Storage) UpdateProduct(ctx context.Context, p *storage.Product) error {
	const op = "storage.mysql.UpdateProduct"

	stmt := `UPDATE product SET
			product_name = ?, specification = ?, product_type = ?, unit = ?,
			standard_work_time = ?, status = ?, remarks = ?, updated_at = ?
		WHERE product_code = ?`

	res, err := s.db.ExecContext(ctx, stmt,
		p.Name, p.Specification, p.Type, p.Unit,
		p.StandardWorkTime, p.Status, p.Remarks, p.UpdatedAt, p.Code,
	)
	if err != nil {
		return fmt.Errorf("%s: product_code=%s: %w", op, p.Code, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		if _, err := s.GetProduct(ctx, p.Code); err != nil {
			return err
		}
	}

	return nil
}

func (s *Storage) DeleteProduct(ctx context.Context, code string) error {
	const op = "storage.mysql.DeleteProduct"

	res, err := s.db.ExecContext(ctx, `DELETE FROM product WHERE product_code = ?`, code)
	if err != nil {
		return fmt.Errorf("%s: product_code=%s: %w", op, code, err)
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

func (s *Storage) ListProducts(ctx context.Context, nameLike string) ([]*storage.Product, error) {
	const op = "storage.mysql.ListProducts"

	stmt := `SELECT ` + productColumns + ` FROM product`
	var args []any
	if nameLike != "" {
		stmt += ` WHERE product_name LIKE ?`
		args = append(args, "%"+nameLike+"%")
	}
	stmt += ` ORDER BY product_code`

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var list []*storage.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		list = append(list, p)
	}

	return list, rows.Err()
}
