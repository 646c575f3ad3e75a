package storage

import (
	"context"
	"database/sql"
	"fmt"

	"expenseapi/internal/core"
)

// StatusStore persists expense statuses. At most one status carries the
// default flag; promoting one demotes the rest in the same transaction.
type StatusStore struct {
	db *sql.DB
}

func NewStatusStore(db *sql.DB) *StatusStore {
	return &StatusStore{db: db}
}

const statusColumns = `id, name, is_default, created_at, created_by, updated_at, updated_by`

func scanStatus(row interface{ Scan(...any) error }) (core.ExpenseStatus, error) {
	var (
		st                                         core.ExpenseStatus
		createdAt, createdBy, updatedAt, updatedBy string
	)
	err := row.Scan(&st.ID, &st.Name, &st.IsDefault, &createdAt, &createdBy, &updatedAt, &updatedBy)
	if err != nil {
		return core.ExpenseStatus{}, err
	}
	scanAudit(&st.Audit, createdAt, createdBy, updatedAt, updatedBy)
	return st, nil
}

func (s *StatusStore) Create(ctx context.Context, st *core.ExpenseStatus) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if st.IsDefault {
			if err := clearOtherDefaults(ctx, tx, 0); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO expense_statuses (name, is_default, created_at, created_by, updated_at, updated_by)
			VALUES (?, ?, ?, ?, ?, ?)`,
			append([]any{st.Name, st.IsDefault}, auditArgs(st.Audit)...)...)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("status %q: %w", st.Name, core.ErrConflict)
			}
			return fmt.Errorf("insert status: %w", err)
		}
		st.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("status id: %w", err)
		}
		return nil
	})
}

func (s *StatusStore) Update(ctx context.Context, st core.ExpenseStatus) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if st.IsDefault {
			if err := clearOtherDefaults(ctx, tx, st.ID); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE expense_statuses
			SET name = ?, is_default = ?, updated_at = ?, updated_by = ?
			WHERE id = ?`,
			st.Name, st.IsDefault, fmtTime(st.UpdatedAt), st.UpdatedBy, st.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("status %q: %w", st.Name, core.ErrConflict)
			}
			return fmt.Errorf("update status: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.ErrNotFound
		}
		return nil
	})
}

// clearOtherDefaults demotes every default status except keepID. Pass 0 to
// demote all.
func clearOtherDefaults(ctx context.Context, tx *sql.Tx, keepID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE expense_statuses SET is_default = 0 WHERE is_default = 1 AND id != ?`, keepID)
	if err != nil {
		return fmt.Errorf("clear default statuses: %w", err)
	}
	return nil
}

func (s *StatusStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expense_statuses WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("status %d is in use: %w", id, core.ErrConflict)
		}
		return fmt.Errorf("delete status %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *StatusStore) FindByID(ctx context.Context, id int64) (core.ExpenseStatus, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+statusColumns+` FROM expense_statuses WHERE id = ?`, id)
	st, err := scanStatus(row)
	if err == sql.ErrNoRows {
		return core.ExpenseStatus{}, core.ErrNotFound
	}
	if err != nil {
		return core.ExpenseStatus{}, fmt.Errorf("get status %d: %w", id, err)
	}
	return st, nil
}

func (s *StatusStore) FindByName(ctx context.Context, name string) (core.ExpenseStatus, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+statusColumns+` FROM expense_statuses WHERE name = ?`, name)
	st, err := scanStatus(row)
	if err == sql.ErrNoRows {
		return core.ExpenseStatus{}, core.ErrNotFound
	}
	if err != nil {
		return core.ExpenseStatus{}, fmt.Errorf("get status %q: %w", name, err)
	}
	return st, nil
}

// FindDefault returns the status flagged as default, or ErrNotFound when
// none is.
func (s *StatusStore) FindDefault(ctx context.Context) (core.ExpenseStatus, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+statusColumns+` FROM expense_statuses WHERE is_default = 1`)
	st, err := scanStatus(row)
	if err == sql.ErrNoRows {
		return core.ExpenseStatus{}, core.ErrNotFound
	}
	if err != nil {
		return core.ExpenseStatus{}, fmt.Errorf("get default status: %w", err)
	}
	return st, nil
}

func (s *StatusStore) FindAll(ctx context.Context) ([]core.ExpenseStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+statusColumns+` FROM expense_statuses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseStatus
	for rows.Next() {
		st, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
