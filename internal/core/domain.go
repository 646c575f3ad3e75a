package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryActive   CategoryStatus = "ACTIVE"
	CategoryInactive CategoryStatus = "INACTIVE"

	UserActive   UserStatus = "ACTIVE"
	UserInactive UserStatus = "INACTIVE"

	PlacementBefore SymbolPlacement = "BEFORE"
	PlacementAfter  SymbolPlacement = "AFTER"
)

type (
	CategoryStatus  string
	UserStatus      string
	SymbolPlacement string

	// Audit carries the bookkeeping columns shared by every domain table.
	Audit struct {
		CreatedAt time.Time `json:"createdAt"`
		CreatedBy string    `json:"createdBy"`
		UpdatedAt time.Time `json:"updatedAt"`
		UpdatedBy string    `json:"updatedBy"`
	}

	Expense struct {
		ID          int64           `json:"id"`
		Date        time.Time       `json:"expenseDate"`
		Designation string          `json:"designation"`
		CategoryID  int64           `json:"expenseCategoryId"`
		StatusID    int64           `json:"expenseStatusId"`
		Amount      decimal.Decimal `json:"amount"`
		Audit
	}

	// ExpenseCategory is a node in the ordered category tree. Level is the
	// 1-based position within its sibling group; ParentID is nil for
	// top-level categories.
	ExpenseCategory struct {
		ID       int64          `json:"id"`
		Name     string         `json:"name"`
		Status   CategoryStatus `json:"status"`
		Level    int            `json:"level"`
		ParentID *int64         `json:"parentId,omitempty"`
		Audit
	}

	// ExpenseCategoryBudget is the monthly envelope for one category.
	// (CategoryID, Year, Month) is unique.
	ExpenseCategoryBudget struct {
		ID             int64           `json:"id"`
		CategoryID     int64           `json:"categoryId"`
		Year           int             `json:"year"`
		Month          int             `json:"month"`
		Budget         decimal.Decimal `json:"budget"`
		AllowOverspend bool            `json:"allowOverspend"`
		Audit
	}

	ExpenseStatus struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		IsDefault bool   `json:"isDefault"`
		Audit
	}

	User struct {
		ID           int64      `json:"id"`
		Firstname    string     `json:"firstname"`
		Lastname     string     `json:"lastname"`
		Email        string     `json:"email"`
		PasswordHash string     `json:"-"`
		Status       UserStatus `json:"status"`
		Audit
	}

	UserSettings struct {
		ID            int64            `json:"id"`
		UserID        int64            `json:"userId"`
		Currency      string           `json:"currency"`
		DecimalDigits int              `json:"decimalDigits"`
		WeekStart     string           `json:"weekStart"`
		Placement     *SymbolPlacement `json:"currencySymbolPlacement,omitempty"`
		Audit
	}
)

// ValidAmount reports whether an amount is acceptable on expense create or
// update: strictly positive with at most two decimal places.
func ValidAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.Exponent() < -2 {
		return ErrAmountScale
	}
	return nil
}

// ValidBudgetAmount accepts zero; a zero budget with overspend disallowed is
// a legitimate "spend nothing" envelope.
func ValidBudgetAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if amount.Exponent() < -2 {
		return ErrAmountScale
	}
	return nil
}

func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(e.Designation) == "" {
		return ErrEmptyDesignation
	}
	if e.CategoryID == 0 {
		return ErrCategoryRequired
	}
	if e.StatusID == 0 {
		return ErrStatusRequired
	}
	return ValidAmount(e.Amount)
}

func (s CategoryStatus) Valid() bool {
	return s == CategoryActive || s == CategoryInactive
}

func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserInactive
}

func (p SymbolPlacement) Valid() bool {
	return p == PlacementBefore || p == PlacementAfter
}

var weekdays = map[string]bool{
	"MONDAY": true, "TUESDAY": true, "WEDNESDAY": true, "THURSDAY": true,
	"FRIDAY": true, "SATURDAY": true, "SUNDAY": true,
}

func (s UserSettings) Validate() error {
	if !weekdays[strings.ToUpper(s.WeekStart)] {
		return errors.New("unknown week start day")
	}
	if s.Placement != nil && !s.Placement.Valid() {
		return errors.New("currency symbol placement must be BEFORE or AFTER")
	}
	if s.DecimalDigits < 0 || s.DecimalDigits > 6 {
		return errors.New("decimal digits out of range")
	}
	return nil
}

func (b ExpenseCategoryBudget) Validate() error {
	if b.Year < 1970 || b.Year > 9999 {
		return ErrInvalidYear
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	return ValidBudgetAmount(b.Budget)
}

// MonthRange returns the inclusive first and last calendar day of a month.
func MonthRange(year, month int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}
