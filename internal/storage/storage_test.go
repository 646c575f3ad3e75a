package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expenseapi/internal/core"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testAudit() core.Audit {
	now := time.Now().UTC()
	return core.Audit{CreatedAt: now, CreatedBy: "system", UpdatedAt: now, UpdatedBy: "system"}
}

func mustCreateCategory(t *testing.T, s *CategoryStore, name string, level int, parentID *int64) core.ExpenseCategory {
	t.Helper()
	c := core.ExpenseCategory{
		Name:     name,
		Status:   core.CategoryActive,
		Level:    level,
		ParentID: parentID,
		Audit:    testAudit(),
	}
	if err := s.Create(context.Background(), &c); err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return c
}

func mustCreateStatus(t *testing.T, s *StatusStore, name string, isDefault bool) core.ExpenseStatus {
	t.Helper()
	st := core.ExpenseStatus{Name: name, IsDefault: isDefault, Audit: testAudit()}
	if err := s.Create(context.Background(), &st); err != nil {
		t.Fatalf("create status %q: %v", name, err)
	}
	return st
}

func mustCreateExpense(t *testing.T, s *ExpenseStore, categoryID, statusID int64, date, amount string) core.Expense {
	t.Helper()
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatal(err)
	}
	e := core.Expense{
		Date:        day,
		Designation: "expense on " + date,
		CategoryID:  categoryID,
		StatusID:    statusID,
		Amount:      decimal.RequireFromString(amount),
		Audit:       testAudit(),
	}
	if err := s.Create(context.Background(), &e); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	return e
}

func TestOpenRunsMigrations(t *testing.T) {
	db := openTestDB(t)
	for _, table := range []string{"users", "user_settings", "expense_categories", "expense_statuses", "expense_category_budgets", "expenses"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after migration: %v", table, err)
		}
	}
}

func TestCentsRoundTrip(t *testing.T) {
	tests := []string{"0", "0.01", "12.34", "99999.99", "1"}
	for _, s := range tests {
		in := decimal.RequireFromString(s)
		if got := fromCents(cents(in)); !got.Equal(in) {
			t.Errorf("cents round trip %s -> %s", in, got)
		}
	}
}
