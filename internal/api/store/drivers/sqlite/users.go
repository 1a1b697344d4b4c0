package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/staffroom/internal/api/domain"
)

type usersRepo struct {
	db *sql.DB
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = ?
	`, email)

	var u domain.User
	if err := row.Scan(&u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, role)
		VALUES (?, ?, ?)
	`, u.Email, u.PasswordHash, u.Role)
	return err
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
