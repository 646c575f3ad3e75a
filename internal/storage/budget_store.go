package storage

import (
	"context"
	"database/sql"
	"fmt"

	"expenseapi/internal/core"
)

// BudgetStore persists monthly category budgets. At most one row exists per
// (category, year, month); the schema enforces it.
type BudgetStore struct {
	db *sql.DB
}

func NewBudgetStore(db *sql.DB) *BudgetStore {
	return &BudgetStore{db: db}
}

const budgetColumns = `id, category_id, year_col, month_col, budget_cents, allow_overspend,
	created_at, created_by, updated_at, updated_by`

func scanBudget(row interface{ Scan(...any) error }) (core.ExpenseCategoryBudget, error) {
	var (
		b                                          core.ExpenseCategoryBudget
		budgetCents                                int64
		createdAt, createdBy, updatedAt, updatedBy string
	)
	err := row.Scan(&b.ID, &b.CategoryID, &b.Year, &b.Month, &budgetCents, &b.AllowOverspend,
		&createdAt, &createdBy, &updatedAt, &updatedBy)
	if err != nil {
		return core.ExpenseCategoryBudget{}, err
	}
	b.Budget = fromCents(budgetCents)
	scanAudit(&b.Audit, createdAt, createdBy, updatedAt, updatedBy)
	return b, nil
}

// Get returns the budget row for a category month, or ErrNotFound when none
// is configured.
func (s *BudgetStore) Get(ctx context.Context, categoryID int64, year, month int) (core.ExpenseCategoryBudget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM expense_category_budgets
		 WHERE category_id = ? AND year_col = ? AND month_col = ?`,
		categoryID, year, month)
	b, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return core.ExpenseCategoryBudget{}, core.ErrNotFound
	}
	if err != nil {
		return core.ExpenseCategoryBudget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// FindManyByMonth loads in one query the budget rows that exist for the given
// categories in one month, keyed by category id. Categories without a row are
// simply absent from the map.
func (s *BudgetStore) FindManyByMonth(ctx context.Context, categoryIDs []int64, year, month int) (map[int64]core.ExpenseCategoryBudget, error) {
	out := make(map[int64]core.ExpenseCategoryBudget)
	if len(categoryIDs) == 0 {
		return out, nil
	}

	args := []any{year, month}
	for _, id := range categoryIDs {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM expense_category_budgets
		 WHERE year_col = ? AND month_col = ? AND category_id IN (`+placeholders(len(categoryIDs))+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets for month: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out[b.CategoryID] = b
	}
	return out, rows.Err()
}

// ListByCategory returns every budget row for one category in chronological
// order.
func (s *BudgetStore) ListByCategory(ctx context.Context, categoryID int64) ([]core.ExpenseCategoryBudget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM expense_category_budgets
		 WHERE category_id = ?
		 ORDER BY year_col, month_col`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list budgets for category %d: %w", categoryID, err)
	}
	defer rows.Close()

	var out []core.ExpenseCategoryBudget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Upsert creates the month's budget row or updates its amount in place. An
// update keeps the stored allow_overspend flag; use SetAllowOverspend to
// change it.
func (s *BudgetStore) Upsert(ctx context.Context, b *core.ExpenseCategoryBudget) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE expense_category_budgets
			SET budget_cents = ?, updated_at = ?, updated_by = ?
			WHERE category_id = ? AND year_col = ? AND month_col = ?`,
			cents(b.Budget), fmtTime(b.UpdatedAt), b.UpdatedBy,
			b.CategoryID, b.Year, b.Month)
		if err != nil {
			return fmt.Errorf("update budget: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			row := tx.QueryRowContext(ctx,
				`SELECT `+budgetColumns+` FROM expense_category_budgets
				 WHERE category_id = ? AND year_col = ? AND month_col = ?`,
				b.CategoryID, b.Year, b.Month)
			existing, err := scanBudget(row)
			if err != nil {
				return fmt.Errorf("reload budget: %w", err)
			}
			*b = existing
			return nil
		}

		ins, err := tx.ExecContext(ctx, `
			INSERT INTO expense_category_budgets (category_id, year_col, month_col, budget_cents, allow_overspend,
				created_at, created_by, updated_at, updated_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			append([]any{b.CategoryID, b.Year, b.Month, cents(b.Budget), b.AllowOverspend}, auditArgs(b.Audit)...)...)
		if err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
		b.ID, err = ins.LastInsertId()
		if err != nil {
			return fmt.Errorf("budget id: %w", err)
		}
		return nil
	})
}

// SetAllowOverspend flips the overspend flag on an existing budget row.
func (s *BudgetStore) SetAllowOverspend(ctx context.Context, categoryID int64, year, month int, allow bool, updatedAtBy core.Audit) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE expense_category_budgets
		SET allow_overspend = ?, updated_at = ?, updated_by = ?
		WHERE category_id = ? AND year_col = ? AND month_col = ?`,
		allow, fmtTime(updatedAtBy.UpdatedAt), updatedAtBy.UpdatedBy,
		categoryID, year, month)
	if err != nil {
		return fmt.Errorf("set allow overspend: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *BudgetStore) Delete(ctx context.Context, categoryID int64, year, month int) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM expense_category_budgets
		WHERE category_id = ? AND year_col = ? AND month_col = ?`,
		categoryID, year, month)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
