// Package services holds the application layer: the budget engine, expense
// and category orchestration, status labels and user management. Services
// validate input, stamp audit fields from the request principal and delegate
// persistence to the storage package.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"expenseapi/internal/auth"
	"expenseapi/internal/core"
	"expenseapi/internal/currency"
)

// ExpenseAggregates is the slice of the expense store the budget engine
// reads.
type ExpenseAggregates interface {
	SumForCategoryInRange(ctx context.Context, categoryID int64, start, end time.Time) (decimal.Decimal, error)
	SumGroupedByCategoryInRange(ctx context.Context, start, end time.Time, ids []int64) (map[int64]decimal.Decimal, error)
	FindInRange(ctx context.Context, start, end time.Time) ([]core.Expense, error)
}

// BudgetRepository persists monthly envelopes.
type BudgetRepository interface {
	Get(ctx context.Context, categoryID int64, year, month int) (core.ExpenseCategoryBudget, error)
	FindManyByMonth(ctx context.Context, categoryIDs []int64, year, month int) (map[int64]core.ExpenseCategoryBudget, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]core.ExpenseCategoryBudget, error)
	Upsert(ctx context.Context, b *core.ExpenseCategoryBudget) error
	SetAllowOverspend(ctx context.Context, categoryID int64, year, month int, allow bool, audit core.Audit) error
	Delete(ctx context.Context, categoryID int64, year, month int) error
}

// CategoryResolver checks category existence for budget CRUD.
type CategoryResolver interface {
	FindByID(ctx context.Context, id int64) (core.ExpenseCategory, error)
}

// BudgetService is the monthly budget engine: admission control for new
// expenses, live status for one category or many, and the year/month report
// rollup.
type BudgetService struct {
	expenses   ExpenseAggregates
	budgets    BudgetRepository
	categories CategoryResolver
}

func NewBudgetService(expenses ExpenseAggregates, budgets BudgetRepository, categories CategoryResolver) *BudgetService {
	return &BudgetService{expenses: expenses, budgets: budgets, categories: categories}
}

// Admit decides whether an expense of the given amount may be recorded for
// the category on the given date. Without a budget row, or with overspend
// allowed, the expense is always admitted. Otherwise the month's spent total
// plus the new amount must stay within the envelope; a denial returns
// *core.BudgetExceededError with the full numbers.
func (s *BudgetService) Admit(ctx context.Context, categoryID int64, date time.Time, amount decimal.Decimal) error {
	year, month := date.Year(), int(date.Month())

	budget, err := s.budgets.Get(ctx, categoryID, year, month)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load budget: %w", err)
	}
	if budget.AllowOverspend {
		return nil
	}

	first, last := core.MonthRange(year, month)
	spent, err := s.expenses.SumForCategoryInRange(ctx, categoryID, first, last)
	if err != nil {
		return fmt.Errorf("sum month spend: %w", err)
	}

	attempted := spent.Add(amount)
	if attempted.GreaterThan(budget.Budget) {
		return &core.BudgetExceededError{
			CategoryID:     categoryID,
			Year:           year,
			Month:          month,
			Budget:         budget.Budget,
			Spent:          spent,
			AttemptedTotal: attempted,
			AllowOverspend: false,
		}
	}
	return nil
}

// Status computes the live picture for one category month. Missing budget
// rows degrade to the no-budget shape; they are not an error.
func (s *BudgetService) Status(ctx context.Context, categoryID int64, year, month int) (core.BudgetStatus, error) {
	if err := validateMonth(year, month); err != nil {
		return core.BudgetStatus{}, err
	}

	first, last := core.MonthRange(year, month)
	spent, err := s.expenses.SumForCategoryInRange(ctx, categoryID, first, last)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("sum month spend: %w", err)
	}

	budget, err := s.budgets.Get(ctx, categoryID, year, month)
	if errors.Is(err, core.ErrNotFound) {
		return core.NoBudgetStatus(spent), nil
	}
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("load budget: %w", err)
	}
	return core.StatusForBudget(budget, spent), nil
}

// BatchStatus computes the status of many categories in one month with one
// grouped sum and one batch budget lookup. Every requested id gets an entry;
// ids absent from both lookups yield the no-budget shape with zero spent.
func (s *BudgetService) BatchStatus(ctx context.Context, categoryIDs []int64, year, month int) (map[int64]core.BudgetStatus, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}

	ids := dedupeIDs(categoryIDs)
	out := make(map[int64]core.BudgetStatus, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	first, last := core.MonthRange(year, month)
	sums, err := s.expenses.SumGroupedByCategoryInRange(ctx, first, last, ids)
	if err != nil {
		return nil, fmt.Errorf("sum grouped spend: %w", err)
	}
	budgets, err := s.budgets.FindManyByMonth(ctx, ids, year, month)
	if err != nil {
		return nil, fmt.Errorf("load month budgets: %w", err)
	}

	for _, id := range ids {
		spent := sums[id] // zero value is decimal zero
		if budget, ok := budgets[id]; ok {
			out[id] = core.StatusForBudget(budget, spent)
		} else {
			out[id] = core.NoBudgetStatus(spent)
		}
	}
	return out, nil
}

// SetBudget upserts the envelope amount for a category month. The category
// must exist; an update keeps the stored overspend flag.
func (s *BudgetService) SetBudget(ctx context.Context, categoryID int64, year, month int, amount decimal.Decimal) (core.ExpenseCategoryBudget, error) {
	b := core.ExpenseCategoryBudget{
		CategoryID:     categoryID,
		Year:           year,
		Month:          month,
		Budget:         amount,
		AllowOverspend: true,
	}
	if err := b.Validate(); err != nil {
		return core.ExpenseCategoryBudget{}, err
	}
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		return core.ExpenseCategoryBudget{}, err
	}
	b.Audit = stampAudit(ctx)
	if err := s.budgets.Upsert(ctx, &b); err != nil {
		return core.ExpenseCategoryBudget{}, err
	}
	return b, nil
}

// SetAllowOverspend toggles the overspend flag on an existing envelope.
func (s *BudgetService) SetAllowOverspend(ctx context.Context, categoryID int64, year, month int, allow bool) error {
	if err := validateMonth(year, month); err != nil {
		return err
	}
	audit := stampAudit(ctx)
	return s.budgets.SetAllowOverspend(ctx, categoryID, year, month, allow, audit)
}

// ListBudgets returns a category's envelopes in chronological order.
func (s *BudgetService) ListBudgets(ctx context.Context, categoryID int64) ([]core.ExpenseCategoryBudget, error) {
	if _, err := s.categories.FindByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.budgets.ListByCategory(ctx, categoryID)
}

// DeleteBudget removes one envelope by its (category, year, month) triple.
func (s *BudgetService) DeleteBudget(ctx context.Context, categoryID int64, year, month int) error {
	if err := validateMonth(year, month); err != nil {
		return err
	}
	return s.budgets.Delete(ctx, categoryID, year, month)
}

// YearReport is one year's rollup: a full 12-entry month map, the yearly sum
// and the sum formatted with the requesting user's display settings.
type YearReport struct {
	Year           int                     `json:"year"`
	Monthly        map[int]decimal.Decimal `json:"monthly"`
	Total          decimal.Decimal         `json:"total"`
	FormattedTotal string                  `json:"formattedTotal"`
}

// Report aggregates expenses in [start, end] into per-year month maps,
// optionally filtered by category. Months without spend map to zero. Years
// come back newest first; an empty result degrades to one zero-filled year
// taken from the end date.
func (s *BudgetService) Report(ctx context.Context, start, end time.Time, categoryIDs []int64, settings core.UserSettings) ([]YearReport, error) {
	expenses, err := s.expenses.FindInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load expenses for report: %w", err)
	}

	filter := make(map[int64]bool)
	for _, id := range dedupeIDs(categoryIDs) {
		filter[id] = true
	}

	years := make(map[int]map[int]decimal.Decimal)
	for _, e := range expenses {
		if len(filter) > 0 && !filter[e.CategoryID] {
			continue
		}
		y, m := e.Date.Year(), int(e.Date.Month())
		if years[y] == nil {
			years[y] = emptyMonths()
		}
		years[y][m] = years[y][m].Add(e.Amount)
	}

	if len(years) == 0 {
		years[end.Year()] = emptyMonths()
	}

	out := make([]YearReport, 0, len(years))
	for y, months := range years {
		total := decimal.Zero
		for _, sum := range months {
			total = total.Add(sum)
		}
		out = append(out, YearReport{
			Year:           y,
			Monthly:        months,
			Total:          total,
			FormattedTotal: currency.Format(total, settings),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

func emptyMonths() map[int]decimal.Decimal {
	months := make(map[int]decimal.Decimal, 12)
	for m := 1; m <= 12; m++ {
		months[m] = decimal.Zero
	}
	return months
}

func validateMonth(year, month int) error {
	if year < 1970 || year > 9999 {
		return core.ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return core.ErrInvalidMonth
	}
	return nil
}

// dedupeIDs strips zeroes and duplicates, preserving order.
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

// stampAudit fills a fresh audit block from the request principal.
func stampAudit(ctx context.Context) core.Audit {
	now := time.Now().UTC()
	who := auth.Principal(ctx)
	return core.Audit{CreatedAt: now, CreatedBy: who, UpdatedAt: now, UpdatedBy: who}
}

// touchAudit updates the mutation half of an existing audit block.
func touchAudit(ctx context.Context, a *core.Audit) {
	a.UpdatedAt = time.Now().UTC()
	a.UpdatedBy = auth.Principal(ctx)
}
