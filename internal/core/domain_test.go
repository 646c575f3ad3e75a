package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestValidAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{name: "positive two decimals", amount: "12.34"},
		{name: "positive integer", amount: "5"},
		{name: "zero", amount: "0", wantErr: ErrInvalidAmount},
		{name: "negative", amount: "-1.00", wantErr: ErrInvalidAmount},
		{name: "three decimals", amount: "1.999", wantErr: ErrAmountScale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidAmount(decimal.RequireFromString(tt.amount))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidAmount(%s) = %v, want %v", tt.amount, err, tt.wantErr)
			}
		})
	}
}

func TestValidBudgetAmount(t *testing.T) {
	if err := ValidBudgetAmount(decimal.Zero); err != nil {
		t.Fatalf("zero budget should be valid, got %v", err)
	}
	if err := ValidBudgetAmount(decimal.RequireFromString("-0.01")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative budget should fail, got %v", err)
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		Date:        time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		Designation: "groceries",
		CategoryID:  1,
		StatusID:    1,
		Amount:      decimal.RequireFromString("12.50"),
	}

	tests := []struct {
		name    string
		mutate  func(*Expense)
		wantErr error
	}{
		{name: "valid", mutate: func(*Expense) {}},
		{name: "zero date", mutate: func(e *Expense) { e.Date = time.Time{} }, wantErr: ErrInvalidDate},
		{name: "blank designation", mutate: func(e *Expense) { e.Designation = "  " }, wantErr: ErrEmptyDesignation},
		{name: "missing category", mutate: func(e *Expense) { e.CategoryID = 0 }, wantErr: ErrCategoryRequired},
		{name: "missing status", mutate: func(e *Expense) { e.StatusID = 0 }, wantErr: ErrStatusRequired},
		{name: "zero amount", mutate: func(e *Expense) { e.Amount = decimal.Zero }, wantErr: ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := e.Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	tests := []struct {
		name    string
		budget  ExpenseCategoryBudget
		wantErr error
	}{
		{
			name:   "valid",
			budget: ExpenseCategoryBudget{Year: 2025, Month: 6, Budget: decimal.RequireFromString("100.00")},
		},
		{
			name:    "year too low",
			budget:  ExpenseCategoryBudget{Year: 1969, Month: 6},
			wantErr: ErrInvalidYear,
		},
		{
			name:    "month zero",
			budget:  ExpenseCategoryBudget{Year: 2025, Month: 0},
			wantErr: ErrInvalidMonth,
		},
		{
			name:    "month thirteen",
			budget:  ExpenseCategoryBudget{Year: 2025, Month: 13},
			wantErr: ErrInvalidMonth,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.budget.Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserSettingsValidate(t *testing.T) {
	after := PlacementAfter
	bad := SymbolPlacement("MIDDLE")

	tests := []struct {
		name     string
		settings UserSettings
		wantErr  bool
	}{
		{name: "valid", settings: UserSettings{WeekStart: "MONDAY", DecimalDigits: 2}},
		{name: "lowercase weekday", settings: UserSettings{WeekStart: "sunday", DecimalDigits: 2}},
		{name: "placement after", settings: UserSettings{WeekStart: "MONDAY", DecimalDigits: 2, Placement: &after}},
		{name: "unknown weekday", settings: UserSettings{WeekStart: "FUNDAY", DecimalDigits: 2}, wantErr: true},
		{name: "bad placement", settings: UserSettings{WeekStart: "MONDAY", DecimalDigits: 2, Placement: &bad}, wantErr: true},
		{name: "digits out of range", settings: UserSettings{WeekStart: "MONDAY", DecimalDigits: 9}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		year, month int
		first, last string
	}{
		{2025, 6, "2025-06-01", "2025-06-30"},
		{2025, 2, "2025-02-01", "2025-02-28"},
		{2024, 2, "2024-02-01", "2024-02-29"},
		{2025, 12, "2025-12-01", "2025-12-31"},
	}
	for _, tt := range tests {
		first, last := MonthRange(tt.year, tt.month)
		if got := first.Format("2006-01-02"); got != tt.first {
			t.Errorf("MonthRange(%d,%d) first = %s, want %s", tt.year, tt.month, got, tt.first)
		}
		if got := last.Format("2006-01-02"); got != tt.last {
			t.Errorf("MonthRange(%d,%d) last = %s, want %s", tt.year, tt.month, got, tt.last)
		}
	}
}
