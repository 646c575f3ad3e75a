package storage

import (
	"context"
	"database/sql"
	"fmt"

	"expenseapi/internal/core"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, firstname, lastname, email, password_hash, status,
	created_at, created_by, updated_at, updated_by`

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var (
		u                                          core.User
		createdAt, createdBy, updatedAt, updatedBy string
	)
	err := row.Scan(&u.ID, &u.Firstname, &u.Lastname, &u.Email, &u.PasswordHash, &u.Status,
		&createdAt, &createdBy, &updatedAt, &updatedBy)
	if err != nil {
		return core.User{}, err
	}
	scanAudit(&u.Audit, createdAt, createdBy, updatedAt, updatedBy)
	return u, nil
}

func (s *UserStore) Create(ctx context.Context, u *core.User) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (firstname, lastname, email, password_hash, status,
			created_at, created_by, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append([]any{u.Firstname, u.Lastname, u.Email, u.PasswordHash, u.Status}, auditArgs(u.Audit)...)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", u.Email, core.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	return nil
}

func (s *UserStore) Update(ctx context.Context, u core.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET firstname = ?, lastname = ?, email = ?, password_hash = ?, status = ?,
			updated_at = ?, updated_by = ?
		WHERE id = ?`,
		u.Firstname, u.Lastname, u.Email, u.PasswordHash, u.Status,
		fmtTime(u.UpdatedAt), u.UpdatedBy, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", u.Email, core.ErrConflict)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id int64) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (core.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %q: %w", email, err)
	}
	return u, nil
}

func (s *UserStore) FindAll(ctx context.Context) ([]core.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
