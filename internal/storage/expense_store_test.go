package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expenseapi/internal/core"
)

type expenseFixture struct {
	expenses *ExpenseStore
	catFood  core.ExpenseCategory
	catFuel  core.ExpenseCategory
	status   core.ExpenseStatus
}

func newExpenseFixture(t *testing.T) expenseFixture {
	t.Helper()
	db := openTestDB(t)
	categories := NewCategoryStore(db)
	statuses := NewStatusStore(db)
	return expenseFixture{
		expenses: NewExpenseStore(db),
		catFood:  mustCreateCategory(t, categories, "Food", 0, nil),
		catFuel:  mustCreateCategory(t, categories, "Fuel", 0, nil),
		status:   mustCreateStatus(t, statuses, "Pending", true),
	}
}

func TestExpenseRoundTrip(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	created := mustCreateExpense(t, f.expenses, f.catFood.ID, f.status.ID, "2025-06-15", "42.50")
	if created.ID == 0 {
		t.Fatal("create should assign an id")
	}

	got, err := f.expenses.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("amount = %s, want 42.50", got.Amount)
	}
	if got.Date.Format("2006-01-02") != "2025-06-15" {
		t.Errorf("date = %s", got.Date)
	}
	if got.Designation != created.Designation || got.CategoryID != f.catFood.ID || got.StatusID != f.status.ID {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.CreatedBy != "system" || got.CreatedAt.IsZero() {
		t.Errorf("audit fields not persisted: %+v", got.Audit)
	}
}

func TestExpenseUpdateAndDelete(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	e := mustCreateExpense(t, f.expenses, f.catFood.ID, f.status.ID, "2025-06-15", "10.00")
	e.Designation = "changed"
	e.Amount = decimal.RequireFromString("11.25")
	e.CategoryID = f.catFuel.ID
	if err := f.expenses.Update(ctx, e); err != nil {
		t.Fatal(err)
	}
	got, err := f.expenses.FindByID(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Designation != "changed" || !got.Amount.Equal(decimal.RequireFromString("11.25")) || got.CategoryID != f.catFuel.ID {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := f.expenses.DeleteByID(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.expenses.FindByID(ctx, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("deleted expense should be not found, got %v", err)
	}
	if err := f.expenses.DeleteByID(ctx, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("double delete should be not found, got %v", err)
	}
}

func TestExpenseSums(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	mustCreateExpense(t, f.expenses, f.catFood.ID, f.status.ID, "2025-06-01", "30.00")
	mustCreateExpense(t, f.expenses, f.catFood.ID, f.status.ID, "2025-06-30", "40.00")
	mustCreateExpense(t, f.expenses, f.catFood.ID, f.status.ID, "2025-07-01", "99.00") // next month
	mustCreateExpense(t, f.expenses, f.catFuel.ID, f.status.ID, "2025-06-15", "25.00")

	first, last := core.MonthRange(2025, 6)

	sum, err := f.expenses.SumForCategoryInRange(ctx, f.catFood.ID, first, last)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Equal(decimal.RequireFromString("70.00")) {
		t.Errorf("June sum = %s, want 70.00 (inclusive bounds)", sum)
	}

	// a category with no expenses sums to zero, not an error
	sum, err = f.expenses.SumForCategoryInRange(ctx, 999, first, last)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.IsZero() {
		t.Errorf("empty category sum = %s, want 0", sum)
	}

	grouped, err := f.expenses.SumGroupedByCategoryInRange(ctx, first, last, []int64{f.catFood.ID, f.catFuel.ID, 999})
	if err != nil {
		t.Fatal(err)
	}
	if !grouped[f.catFood.ID].Equal(decimal.RequireFromString("70.00")) {
		t.Errorf("grouped food = %s", grouped[f.catFood.ID])
	}
	if !grouped[f.catFuel.ID].Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("grouped fuel = %s", grouped[f.catFuel.ID])
	}
	if _, ok := grouped[999]; ok {
		t.Error("categories without spend must be absent from the grouped result")
	}
}

func TestExpenseSearch(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	groceries := core.Expense{
		Date:        time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Designation: "Weekly Groceries",
		CategoryID:  f.catFood.ID,
		StatusID:    f.status.ID,
		Amount:      decimal.RequireFromString("55.00"),
		Audit:       testAudit(),
	}
	if err := f.expenses.Create(ctx, &groceries); err != nil {
		t.Fatal(err)
	}
	mustCreateExpense(t, f.expenses, f.catFuel.ID, f.status.ID, "2025-06-12", "40.00")
	mustCreateExpense(t, f.expenses, f.catFood.ID, f.status.ID, "2025-05-01", "10.00") // outside range

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	t.Run("keyword is case-insensitive", func(t *testing.T) {
		got, total, err := f.expenses.Search(ctx, SearchQuery{
			Keyword: "GROCER", Start: start, End: end, Limit: 10, Sort: DefaultSort(),
		})
		if err != nil {
			t.Fatal(err)
		}
		if total != 1 || len(got) != 1 || got[0].ID != groceries.ID {
			t.Errorf("keyword search: total=%d got=%v", total, got)
		}
	})

	t.Run("category filter", func(t *testing.T) {
		got, total, err := f.expenses.Search(ctx, SearchQuery{
			CategoryIDs: []int64{f.catFuel.ID}, Start: start, End: end, Limit: 10, Sort: DefaultSort(),
		})
		if err != nil {
			t.Fatal(err)
		}
		if total != 1 || len(got) != 1 || got[0].CategoryID != f.catFuel.ID {
			t.Errorf("category search: total=%d got=%v", total, got)
		}
	})

	t.Run("pagination keeps the unpaged total", func(t *testing.T) {
		got, total, err := f.expenses.Search(ctx, SearchQuery{
			Start: start, End: end, Offset: 1, Limit: 1, Sort: DefaultSort(),
		})
		if err != nil {
			t.Fatal(err)
		}
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
		if len(got) != 1 {
			t.Errorf("page size = %d, want 1", len(got))
		}
	})

	t.Run("date range excludes outside rows", func(t *testing.T) {
		_, total, err := f.expenses.Search(ctx, SearchQuery{
			Start: start, End: end, Limit: 10, Sort: DefaultSort(),
		})
		if err != nil {
			t.Fatal(err)
		}
		if total != 2 {
			t.Errorf("total = %d, want 2 (May row excluded)", total)
		}
	})
}

func TestExpenseFindAllSorted(t *testing.T) {
	f := newExpenseFixture(t)
	ctx := context.Background()

	mustCreateExpense(t, f.expenses, f.catFood.ID, f.status.ID, "2025-06-01", "10.00")
	mustCreateExpense(t, f.expenses, f.catFood.ID, f.status.ID, "2025-06-20", "30.00")
	mustCreateExpense(t, f.expenses, f.catFood.ID, f.status.ID, "2025-06-10", "20.00")

	all, err := f.expenses.FindAll(ctx, DefaultSort())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("want 3 rows, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Date.After(all[i-1].Date) {
			t.Errorf("default sort must be date descending: %v", all)
		}
	}

	byAmount, err := f.expenses.FindAll(ctx, Sort{Field: "amount", Desc: false})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(byAmount); i++ {
		if byAmount[i].Amount.LessThan(byAmount[i-1].Amount) {
			t.Errorf("amount ascending violated: %v", byAmount)
		}
	}
}
