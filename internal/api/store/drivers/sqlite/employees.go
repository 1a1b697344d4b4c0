package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/staffroom/internal/api/domain"
	"github.com/aussiebroadwan/staffroom/internal/api/store"
)

type employeesRepo struct {
	db *sql.DB
}

func (r *employeesRepo) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM employees
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Employee
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *employeesRepo) GetEmployee(ctx context.Context, id string) (domain.Employee, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM employees
		WHERE id = ?
	`, id)

	var e domain.Employee
	if err := row.Scan(&e.ID, &e.Name, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return domain.Employee{}, mapNotFound(err)
	}
	return e, nil
}

func (r *employeesRepo) CreateEmployee(ctx context.Context, e domain.Employee) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO employees (id, name)
		VALUES (?, ?)
	`, e.ID, e.Name)
	return err
}

func (r *employeesRepo) UpdateEmployeeName(ctx context.Context, id, name string) (domain.Employee, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE employees
		SET name = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, name, id)
	if err != nil {
		return domain.Employee{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Employee{}, err
	}
	if affected == 0 {
		return domain.Employee{}, store.ErrNotFound
	}
	return r.GetEmployee(ctx, id)
}

func (r *employeesRepo) DeleteEmployee(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
