package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"expenseapi/internal/core"
)

// ExpenseStore persists expense rows and provides the aggregation
// primitives the budget engine is built on.
type ExpenseStore struct {
	db *sql.DB
}

func NewExpenseStore(db *sql.DB) *ExpenseStore {
	return &ExpenseStore{db: db}
}

// Sort names an expense column and direction for listing queries.
type Sort struct {
	Field string
	Desc  bool
}

// DefaultSort orders by expense date, newest first.
func DefaultSort() Sort {
	return Sort{Field: "expenseDate", Desc: true}
}

var sortColumns = map[string]string{
	"expensedate": "expense_date",
	"amount":      "amount_cents",
	"designation": "designation",
	"createdat":   "created_at",
	"id":          "id",
}

func (s Sort) orderBy() string {
	col, ok := sortColumns[strings.ToLower(s.Field)]
	if !ok {
		col = "expense_date"
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	// id as tiebreaker keeps pagination stable
	return fmt.Sprintf("ORDER BY %s %s, id %s", col, dir, dir)
}

const expenseColumns = `id, expense_date, designation, id_expense_category, id_expense_status,
	amount_cents, created_at, created_by, updated_at, updated_by`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e                                        core.Expense
		date                                     string
		amountCents                              int64
		createdAt, createdBy, updatedAt, updatedBy string
	)
	err := row.Scan(&e.ID, &date, &e.Designation, &e.CategoryID, &e.StatusID,
		&amountCents, &createdAt, &createdBy, &updatedAt, &updatedBy)
	if err != nil {
		return core.Expense{}, err
	}
	e.Date, err = parseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	e.Amount = fromCents(amountCents)
	scanAudit(&e.Audit, createdAt, createdBy, updatedAt, updatedBy)
	return e, nil
}

func (s *ExpenseStore) Create(ctx context.Context, e *core.Expense) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (expense_date, designation, id_expense_category, id_expense_status, amount_cents,
			created_at, created_by, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		append([]any{fmtDate(e.Date), e.Designation, e.CategoryID, e.StatusID, cents(e.Amount)}, auditArgs(e.Audit)...)...)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("expense id: %w", err)
	}
	return nil
}

func (s *ExpenseStore) Update(ctx context.Context, e core.Expense) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET expense_date = ?, designation = ?, id_expense_category = ?, id_expense_status = ?,
			amount_cents = ?, updated_at = ?, updated_by = ?
		WHERE id = ?`,
		fmtDate(e.Date), e.Designation, e.CategoryID, e.StatusID, cents(e.Amount),
		fmtTime(e.UpdatedAt), e.UpdatedBy, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *ExpenseStore) FindByID(ctx context.Context, id int64) (core.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

func (s *ExpenseStore) DeleteByID(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *ExpenseStore) FindAll(ctx context.Context, sort Sort) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses `+sort.orderBy())
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// FindInRange returns expenses whose date is within [start, end], newest
// first. Both ends are inclusive.
func (s *ExpenseStore) FindInRange(ctx context.Context, start, end time.Time) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE expense_date >= ? AND expense_date <= ?
		 ORDER BY expense_date DESC, id DESC`,
		fmtDate(start), fmtDate(end))
	if err != nil {
		return nil, fmt.Errorf("list expenses in range: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// SumForCategoryInRange totals one category's spend over an inclusive date
// range. A category with no expenses sums to zero.
func (s *ExpenseStore) SumForCategoryInRange(ctx context.Context, categoryID int64, start, end time.Time) (decimal.Decimal, error) {
	var sum int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		WHERE id_expense_category = ? AND expense_date >= ? AND expense_date <= ?`,
		categoryID, fmtDate(start), fmtDate(end)).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum category %d: %w", categoryID, err)
	}
	return fromCents(sum), nil
}

// SumGroupedByCategoryInRange is the single grouped aggregation behind batch
// budget status. An empty ids slice means no category filter.
func (s *ExpenseStore) SumGroupedByCategoryInRange(ctx context.Context, start, end time.Time, ids []int64) (map[int64]decimal.Decimal, error) {
	query := `
		SELECT id_expense_category, COALESCE(SUM(amount_cents), 0) FROM expenses
		WHERE expense_date >= ? AND expense_date <= ?`
	args := []any{fmtDate(start), fmtDate(end)}
	if len(ids) > 0 {
		query += ` AND id_expense_category IN (` + placeholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += ` GROUP BY id_expense_category`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum grouped by category: %w", err)
	}
	defer rows.Close()

	sums := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var catID, sum int64
		if err := rows.Scan(&catID, &sum); err != nil {
			return nil, fmt.Errorf("scan grouped sum: %w", err)
		}
		sums[catID] = fromCents(sum)
	}
	return sums, rows.Err()
}

// SearchQuery carries normalized search filters. Offset is 0-based; the
// 1-based page numbering of the API is translated before it reaches here.
type SearchQuery struct {
	Keyword     string
	CategoryIDs []int64
	Start       time.Time
	End         time.Time
	Offset      int
	Limit       int
	Sort        Sort
}

// Search filters the date-range result set by keyword (case-insensitive
// designation match) and category membership, then pages it. Returns the
// page plus the unpaged total.
func (s *ExpenseStore) Search(ctx context.Context, q SearchQuery) ([]core.Expense, int64, error) {
	where := `WHERE expense_date >= ? AND expense_date <= ?`
	args := []any{fmtDate(q.Start), fmtDate(q.End)}

	if kw := strings.ToLower(strings.TrimSpace(q.Keyword)); kw != "" {
		where += ` AND LOWER(designation) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(kw)+"%")
	}
	if ids := dedupeIDs(q.CategoryIDs); len(ids) > 0 {
		where += ` AND id_expense_category IN (` + placeholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count search results: %w", err)
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses ` + where + ` ` +
		q.Sort.orderBy() + ` LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search expenses: %w", err)
	}
	defer rows.Close()

	out, err := collectExpenses(rows)
	return out, total, err
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// dedupeIDs strips zero values and duplicates, preserving order.
func dedupeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
